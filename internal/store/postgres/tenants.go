package postgres

import (
	"context"

	"jobcoordinator/internal/store"

	"github.com/google/uuid"
)

func (s *Store) CreateTenant(ctx context.Context, tenant *store.Tenant, hashedKey string) error {
	query := `
		INSERT INTO tenants (id, name, api_key_hash, created_at, rate_limit, rate_limit_burst, max_concurrent_jobs)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		tenant.ID,
		tenant.Name,
		hashedKey,
		tenant.CreatedAt,
		tenant.RateLimit,
		tenant.RateLimitBurst,
		tenant.MaxConcurrentJobs,
	)
	return err
}

func (s *Store) GetTenantByID(ctx context.Context, id uuid.UUID) (*store.Tenant, error) {
	query := "SELECT id, name, rate_limit, rate_limit_burst, max_concurrent_jobs, created_at FROM tenants WHERE id = $1"

	var t store.Tenant
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&t.Name,
		&t.RateLimit,
		&t.RateLimitBurst,
		&t.MaxConcurrentJobs,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) GetTenantByAPIKeyHash(ctx context.Context, hash string) (*store.Tenant, error) {
	query := "SELECT id, name, rate_limit, rate_limit_burst, max_concurrent_jobs, created_at FROM tenants WHERE api_key_hash = $1"

	var t store.Tenant
	err := s.db.QueryRowContext(ctx, query, hash).Scan(
		&t.ID,
		&t.Name,
		&t.RateLimit,
		&t.RateLimitBurst,
		&t.MaxConcurrentJobs,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTenantByName returns a tenant by its name, the coordinator's "user"
// string. Used to resolve the per-user active-jobs limit in stage 8 of
// admission.
func (s *Store) GetTenantByName(ctx context.Context, name string) (*store.Tenant, error) {
	query := "SELECT id, name, rate_limit, rate_limit_burst, max_concurrent_jobs, created_at FROM tenants WHERE name = $1"

	var t store.Tenant
	err := s.db.QueryRowContext(ctx, query, name).Scan(
		&t.ID,
		&t.Name,
		&t.RateLimit,
		&t.RateLimitBurst,
		&t.MaxConcurrentJobs,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
