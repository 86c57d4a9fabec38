// Package killer terminates admitted jobs on the node that is running them.
// It holds no state about jobs the launcher hasn't registered a handle for;
// killing an unknown or already-finished job is a no-op, not an error, since
// the coordinator's Kill path has no way to distinguish "already done" from
// "never admitted here" without asking the Catalog Store first.
package killer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"jobcoordinator/internal/worker/runtime"

	"github.com/google/uuid"
)

// Killer is an in-process registry of job-id to runtime.Handle, backing
// coordinator.Kill for jobs the launcher started on this node. Distributed
// scheduling across nodes is out of scope: a node only ever kills jobs it
// itself admitted and launched.
type Killer struct {
	mu      sync.Mutex
	handles map[uuid.UUID]runtime.Handle
	logger  *slog.Logger
}

// New builds a Killer with an empty registry.
func New(logger *slog.Logger) *Killer {
	return &Killer{
		handles: make(map[uuid.UUID]runtime.Handle),
		logger:  logger,
	}
}

// Register associates a job id with the runtime handle that is executing
// it. Called by the launcher once Start succeeds. Overwrites any prior
// handle for the same id, which should never happen in practice since a job
// id is only ever launched once.
func (k *Killer) Register(jobID uuid.UUID, handle runtime.Handle) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.handles[jobID] = handle
}

// Unregister drops a job's handle once it has finished, successfully or
// not. Called by the launcher after Wait returns.
func (k *Killer) Unregister(jobID uuid.UUID) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.handles, jobID)
}

// Kill stops the job's underlying process/container/pod if this node is
// running it. A job with no registered handle is treated as already
// finished: Kill returns nil rather than an error.
func (k *Killer) Kill(ctx context.Context, jobID uuid.UUID, reason string) error {
	k.mu.Lock()
	handle, ok := k.handles[jobID]
	k.mu.Unlock()
	if !ok {
		k.logger.Info("kill: no handle registered, treating as already finished", "job_id", jobID)
		return nil
	}

	k.logger.Info("kill: stopping job", "job_id", jobID, "reason", reason)
	if err := handle.Stop(ctx); err != nil {
		return fmt.Errorf("stopping job %s: %w", jobID, err)
	}
	return nil
}
