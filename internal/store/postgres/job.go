package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"jobcoordinator/internal/catalog"
	"jobcoordinator/internal/store"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

func tagsToSlice(tags map[string]struct{}) []string {
	out := make([]string, 0, len(tags))
	for t := range tags {
		out = append(out, t)
	}
	return out
}

func sliceToTags(tags []string) map[string]struct{} {
	out := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		out[t] = struct{}{}
	}
	return out
}

// CreateJob persists a new JobRecord together with the request criteria and
// submission metadata that produced it. A job.ID that already exists
// returns *store.ConflictError, classified by the coordinator as a
// Conflict failure.
func (s *Store) CreateJob(ctx context.Context, request *store.JobRequest, metadata *store.JobMetadata, job *store.JobRecord) error {
	criteria, err := json.Marshal(request.Criteria)
	if err != nil {
		return fmt.Errorf("marshaling selection criteria: %w", err)
	}
	labels, err := json.Marshal(metadata.Labels)
	if err != nil {
		return fmt.Errorf("marshaling job metadata labels: %w", err)
	}

	query := `
		INSERT INTO jobs (
			id, name, user_name, version, tags, command_args, description,
			status, status_message, archive_location, execution_host,
			client_host, user_agent, labels, criteria, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now())
	`
	_, err = s.db.ExecContext(ctx, query,
		job.ID,
		job.Name,
		job.User,
		job.Version,
		pq.Array(tagsToSlice(job.Tags)),
		pq.Array(job.CommandArgs),
		job.Description,
		job.Status,
		job.StatusMessage,
		job.ArchiveLocation,
		job.ExecutionHost,
		metadata.ClientHost,
		metadata.UserAgent,
		labels,
		criteria,
	)
	if isUniqueViolation(err) {
		return &store.ConflictError{JobID: job.ID}
	}
	return err
}

// UpdateJobStatus transitions a job's status and message.
func (s *Store) UpdateJobStatus(ctx context.Context, jobID uuid.UUID, status store.JobStatus, message string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = $1, status_message = $2 WHERE id = $3`,
		status, message, jobID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no such job: %s", jobID)
	}
	return nil
}

// UpdateJobWithRuntimeEnvironment persists the RuntimeBinding for a
// resolved job. It does not touch the job's status: the job stays INIT
// through stage 7, exactly as scenario S1 requires. Write-once per job id;
// a second call for the same job id is a programming error upstream and
// returns an error from the unique constraint on runtime_bindings.job_id.
func (s *Store) UpdateJobWithRuntimeEnvironment(ctx context.Context, binding *store.RuntimeBinding) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runtime_bindings (job_id, cluster_id, command_id, application_ids, memory_mb)
		 VALUES ($1, $2, $3, $4, $5)`,
		binding.JobID,
		binding.ClusterID,
		binding.CommandID,
		pq.Array(binding.ApplicationIDs),
		binding.MemoryMB,
	)
	return err
}

// GetJob returns the current JobRecord for status lookups.
func (s *Store) GetJob(ctx context.Context, id uuid.UUID) (*store.JobRecord, error) {
	var j store.JobRecord
	var tags, commandArgs []string
	var description sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, user_name, version, tags, command_args, description,
			status, status_message, archive_location, execution_host, created_at
		 FROM jobs WHERE id = $1`, id,
	).Scan(
		&j.ID, &j.Name, &j.User, &j.Version, pq.Array(&tags), pq.Array(&commandArgs), &description,
		&j.Status, &j.StatusMessage, &j.ArchiveLocation, &j.ExecutionHost, &j.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	j.Tags = sliceToTags(tags)
	j.CommandArgs = commandArgs
	if description.Valid {
		j.Description = &description.String
	}
	return &j, nil
}

func (s *Store) GetCluster(ctx context.Context, id uuid.UUID) (*catalog.Cluster, error) {
	var c catalog.Cluster
	var tags []string
	err := s.db.QueryRowContext(ctx, `SELECT id, name, status, tags FROM clusters WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Status, pq.Array(&tags))
	if err != nil {
		return nil, err
	}
	c.Tags = tags
	return &c, nil
}

func (s *Store) GetCommand(ctx context.Context, id uuid.UUID) (*catalog.Command, error) {
	var c catalog.Command
	var tags []string
	var memoryMB sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT id, name, executable, memory_mb, status, tags FROM commands WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Executable, &memoryMB, &c.Status, pq.Array(&tags))
	if err != nil {
		return nil, err
	}
	if memoryMB.Valid {
		mb := int(memoryMB.Int64)
		c.MemoryMB = &mb
	}
	c.Tags = tags
	return &c, nil
}

func (s *Store) GetApplication(ctx context.Context, id uuid.UUID) (*catalog.Application, error) {
	var a catalog.Application
	err := s.db.QueryRowContext(ctx, `SELECT id, name, status FROM applications WHERE id = $1`, id).
		Scan(&a.ID, &a.Name, &a.Status)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetActiveJobCountForUser counts jobs belonging to user that are in a
// non-terminal status. Takes a transaction-scoped advisory lock keyed on
// the user, mirroring the teacher's per-tenant CountRunningExecutions, so
// concurrent counts for the same user are serialized. CreateJob does not
// take this lock, so a concurrent insert is not excluded.
func (s *Store) GetActiveJobCountForUser(ctx context.Context, user string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(2, hashtext($1))`, user); err != nil {
		return 0, err
	}

	var count int64
	if err := tx.QueryRowContext(ctx,
		`SELECT count(*) FROM jobs WHERE user_name = $1 AND status IN ('INIT', 'RESOLVED', 'ACCEPTED', 'RUNNING')`,
		user,
	).Scan(&count); err != nil {
		return 0, err
	}

	return count, tx.Commit()
}

// ListClusters, ListCommands and ListApplications satisfy
// resolver.CatalogReader: the default resolver enumerates active entities
// and scores them against a request's criteria rather than looking one up
// directly.

func (s *Store) ListClusters(ctx context.Context) ([]*catalog.Cluster, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, status, tags FROM clusters WHERE status = 'ACTIVE'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clusters []*catalog.Cluster
	for rows.Next() {
		var c catalog.Cluster
		var tags []string
		if err := rows.Scan(&c.ID, &c.Name, &c.Status, pq.Array(&tags)); err != nil {
			return nil, err
		}
		c.Tags = tags
		clusters = append(clusters, &c)
	}
	return clusters, rows.Err()
}

func (s *Store) ListCommands(ctx context.Context) ([]*catalog.Command, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, executable, memory_mb, status, tags FROM commands WHERE status = 'ACTIVE'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var commands []*catalog.Command
	for rows.Next() {
		var c catalog.Command
		var tags []string
		var memoryMB sql.NullInt64
		if err := rows.Scan(&c.ID, &c.Name, &c.Executable, &memoryMB, &c.Status, pq.Array(&tags)); err != nil {
			return nil, err
		}
		if memoryMB.Valid {
			mb := int(memoryMB.Int64)
			c.MemoryMB = &mb
		}
		c.Tags = tags
		commands = append(commands, &c)
	}
	return commands, rows.Err()
}

func (s *Store) ListApplications(ctx context.Context) ([]*catalog.Application, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, status FROM applications WHERE status = 'ACTIVE'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []*catalog.Application
	for rows.Next() {
		var a catalog.Application
		if err := rows.Scan(&a.ID, &a.Name, &a.Status); err != nil {
			return nil, err
		}
		apps = append(apps, &a)
	}
	return apps, rows.Err()
}

// isUniqueViolation reports whether err is a Postgres unique_violation
// (SQLSTATE 23505), the signal CreateJob uses to detect a duplicate job id.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
