// Package runtime provides the Runtime interface for job execution backends.
package runtime

import (
	"context"
	"io"
)

// Runtime defines the interface for executing jobs.
// Implementations include Docker and raw process execution.
type Runtime interface {
	// Start begins execution of a job and returns a handle.
	Start(ctx context.Context, opts StartOptions) (Handle, error)
}

// StartOptions contains the parameters for starting a job.
type StartOptions struct {
	Image   string
	Command []string
	Env     map[string]string
	Timeout int // seconds
}

// ExitResult carries the outcome of a finished job execution. Error is
// non-nil when the backend itself could not determine the exit code (watch
// failure, context cancellation); the Kubernetes backend also sets it to the
// container's termination reason when a pod fails.
type ExitResult struct {
	ExitCode int
	Error    error
}

// Handle represents a running job execution.
type Handle interface {
	// Wait blocks until the job completes and returns its exit result.
	Wait(ctx context.Context) (ExitResult, error)

	// Stop forcefully terminates the job.
	Stop(ctx context.Context) error

	// StreamLogs returns a reader for the job's stdout/stderr. Callers must
	// close it.
	StreamLogs(ctx context.Context) (io.ReadCloser, error)
}
