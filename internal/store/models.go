// Package store contains the persistence-facing types and interfaces for
// jobcoordinator: job submissions, their records, and the runtime bindings
// produced once a submission resolves.
package store

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a JobRecord. The coordinator writes
// INIT, INVALID and FAILED; the launcher writes RUNNING, SUCCEEDED and
// FAILED. RESOLVED, ACCEPTED and KILLED are not written by any code in this
// repository; they share the same status column and CHECK constraint.
type JobStatus string

const (
	JobStatusInit      JobStatus = "INIT"
	JobStatusResolved  JobStatus = "RESOLVED"
	JobStatusAccepted  JobStatus = "ACCEPTED"
	JobStatusInvalid   JobStatus = "INVALID"
	JobStatusFailed    JobStatus = "FAILED"
	JobStatusKilled    JobStatus = "KILLED"
	JobStatusSucceeded JobStatus = "SUCCEEDED"
	JobStatusRunning   JobStatus = "RUNNING"
)

// StatusFailedToResolve is the canonical message stamped on a JobRecord
// when the Resolver cannot satisfy a request (spec invariant: the stored
// message must equal this string exactly).
const StatusFailedToResolve = "failed to resolve"

// JobRequest is the immutable submission a client sends to the coordinator.
// If ID is non-nil it must be unique across every job the Catalog Store has
// ever seen.
type JobRequest struct {
	ID          *uuid.UUID
	Name        string
	User        string
	Version     string
	Tags        map[string]struct{}
	CommandArgs []string
	Description *string
	MemoryMB    *int

	// Criteria selects clusters/commands/applications. It is opaque to the
	// coordinator; only the Resolver interprets it.
	Criteria SelectionCriteria
}

// SelectionCriteria is the resolver-facing half of a JobRequest: the tags
// and required application names a submission must be matched against.
// The coordinator never inspects these fields itself.
type SelectionCriteria struct {
	ClusterTags    []string
	CommandTags    []string
	Applications   []string
	ClusterCriteria map[string]string
}

// JobMetadata is immutable submission context, persisted verbatim and
// otherwise opaque to the coordinator.
type JobMetadata struct {
	ClientHost string
	UserAgent  string
	Labels     map[string]string
}

// JobRecord is the durable record of a job, owned by the Catalog Store.
type JobRecord struct {
	ID              uuid.UUID
	Name            string
	User            string
	Version         string
	Tags            map[string]struct{}
	CommandArgs     []string
	Description     *string
	Status          JobStatus
	StatusMessage   string
	ArchiveLocation string
	ExecutionHost   string
	CreatedAt       time.Time
}

// RuntimeBinding is the persisted association between a job and the plan
// the Resolver chose for it, written once after a successful resolution.
type RuntimeBinding struct {
	JobID          uuid.UUID
	ClusterID      uuid.UUID
	CommandID      uuid.UUID
	ApplicationIDs []uuid.UUID
	MemoryMB       int
}

// Tenant authenticates HTTP callers and carries the per-user active-jobs
// limit (MaxConcurrentJobs) that the coordinator enforces in stage 8 of the
// admission pipeline. The tenant's Name is the "user" string stamped onto
// every JobRequest it submits.
type Tenant struct {
	ID               uuid.UUID
	Name             string
	RateLimit        float64 // requests/sec, 0 = unlimited
	RateLimitBurst   int
	MaxConcurrentJobs int64 // 0 = unlimited
	CreatedAt        time.Time
}
