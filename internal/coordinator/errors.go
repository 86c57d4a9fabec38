package coordinator

import (
	"context"
	"fmt"

	"jobcoordinator/internal/store"

	"github.com/google/uuid"
)

// Kind classifies a CoordinatorError into the taxonomy the HTTP transport
// maps to status codes. Kind values are never used as exception classes to
// switch on inside the pipeline itself — classification happens once, at
// the point a stage fails.
type Kind int

const (
	// KindConflict: the requested job id already exists in the store.
	KindConflict Kind = iota
	// KindPrecondition: memory exceeded maxJobMemory, or the resolver
	// could not satisfy the request.
	KindPrecondition
	// KindUserLimitExceeded: the submitting user is at their active-jobs cap.
	KindUserLimitExceeded
	// KindServerUnavailable: the node's memory ledger has no room.
	KindServerUnavailable
	// KindServerError: anything unclassified, or a broken catalog invariant.
	KindServerError
)

func (k Kind) String() string {
	switch k {
	case KindConflict:
		return "Conflict"
	case KindPrecondition:
		return "Precondition"
	case KindUserLimitExceeded:
		return "UserLimitExceeded"
	case KindServerUnavailable:
		return "ServerUnavailable"
	default:
		return "ServerError"
	}
}

// CoordinatorError is the sole error type Submit and Kill ever return.
// Every failure path constructs one, classified at the raise site.
type CoordinatorError struct {
	Kind    Kind
	JobID   uuid.UUID
	Message string
	Cause   error
}

func (e *CoordinatorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CoordinatorError) Unwrap() error {
	return e.Cause
}

func newConflictError(jobID uuid.UUID, cause error) *CoordinatorError {
	return &CoordinatorError{Kind: KindConflict, JobID: jobID, Message: "job id already exists", Cause: cause}
}

func newPreconditionError(jobID uuid.UUID, message string, cause error) *CoordinatorError {
	return &CoordinatorError{Kind: KindPrecondition, JobID: jobID, Message: message, Cause: cause}
}

func newUserLimitError(jobID uuid.UUID, user string, limit int64) *CoordinatorError {
	return &CoordinatorError{
		Kind:    KindUserLimitExceeded,
		JobID:   jobID,
		Message: fmt.Sprintf("user %s is at the active-jobs limit of %d", user, limit),
	}
}

func newServerUnavailableError(jobID uuid.UUID) *CoordinatorError {
	return &CoordinatorError{Kind: KindServerUnavailable, JobID: jobID, Message: "node has no available memory to admit this job"}
}

func newServerError(jobID uuid.UUID, message string, cause error) *CoordinatorError {
	return &CoordinatorError{Kind: KindServerError, JobID: jobID, Message: message, Cause: cause}
}

// cleanupPlan is what the universal cleanup routine (§7's "catch once,
// classify once") needs to know to undo stages 3-8's partial work: whether
// Node State ever saw this job, and which terminal status to stamp on the
// JobRecord.
type cleanupPlan struct {
	jobExists     bool
	pendingStatus store.JobStatus
	message       string
}

// cleanup is keyed exclusively by (jobExists, pendingStatus), per the
// re-architecture guidance: one routine, no per-kind special casing beyond
// picking the pendingStatus at the raise site.
func (c *Coordinator) cleanup(ctx context.Context, jobID uuid.UUID, plan cleanupPlan) {
	if !plan.jobExists {
		return
	}
	c.nodeState.Done(jobID)
	if err := c.store.UpdateJobStatus(ctx, jobID, plan.pendingStatus, plan.message); err != nil {
		c.logger.Error("cleanup: failed to update job status", "job_id", jobID, "error", err)
	}
}
