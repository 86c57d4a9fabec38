package store

import (
	"context"
	"database/sql"

	"jobcoordinator/internal/catalog"

	"github.com/google/uuid"
)

// DBTransaction defines the methods shared by *sql.DB and *sql.Tx.
// This allows us to pass either a connection pool or an active transaction to the repository methods.
type DBTransaction interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type Tx interface {
	DBTransaction
	Commit() error
	Rollback() error
}

// TenantStore handles retrieving tenant information for authentication and
// for the per-user active-jobs limit (Tenant.MaxConcurrentJobs).
type TenantStore interface {
	// CreateTenant inserts a new tenant to the database.
	CreateTenant(ctx context.Context, tenant *Tenant, hashedKey string) error

	// GetTenantByID returns a tenant by its ID.
	GetTenantByID(ctx context.Context, id uuid.UUID) (*Tenant, error)

	// GetTenantByAPIKeyHash returns a tenant by its API key hash.
	GetTenantByAPIKeyHash(ctx context.Context, hash string) (*Tenant, error)

	// GetTenantByName returns a tenant by its name (the coordinator's
	// "user" string). Used to resolve the per-user active-jobs limit.
	GetTenantByName(ctx context.Context, name string) (*Tenant, error)
}

// CatalogStore is the persistence interface the coordinator core consumes
// for job bookkeeping and read-only catalog lookups. All methods are
// expected synchronous; all may fail with a generic error that the
// coordinator classifies per its own error taxonomy (internal/coordinator).
type CatalogStore interface {
	// CreateJob persists a new JobRecord together with the request and
	// metadata that produced it. Returns *ConflictError if job.ID already
	// exists.
	CreateJob(ctx context.Context, request *JobRequest, metadata *JobMetadata, job *JobRecord) error

	// UpdateJobStatus transitions a job's status and message.
	UpdateJobStatus(ctx context.Context, jobID uuid.UUID, status JobStatus, message string) error

	// UpdateJobWithRuntimeEnvironment persists the RuntimeBinding for a
	// resolved job. Write-once per job id.
	UpdateJobWithRuntimeEnvironment(ctx context.Context, binding *RuntimeBinding) error

	GetCluster(ctx context.Context, id uuid.UUID) (*catalog.Cluster, error)
	GetCommand(ctx context.Context, id uuid.UUID) (*catalog.Command, error)
	GetApplication(ctx context.Context, id uuid.UUID) (*catalog.Application, error)

	// GetJob returns the current JobRecord, for status lookups.
	GetJob(ctx context.Context, id uuid.UUID) (*JobRecord, error)

	// GetActiveJobCountForUser counts jobs belonging to user that are in a
	// non-terminal status (INIT, RESOLVED, ACCEPTED, RUNNING).
	GetActiveJobCountForUser(ctx context.Context, user string) (int64, error)
}

// ConflictError marks a uniqueness violation on job id in the store.
type ConflictError struct {
	JobID uuid.UUID
}

func (e *ConflictError) Error() string {
	return "job id already exists: " + e.JobID.String()
}
