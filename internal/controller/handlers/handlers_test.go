package handlers

import (
	"context"

	"jobcoordinator/internal/store"

	"github.com/google/uuid"
)

// fakeCoordinator is a hand-rolled stand-in for *coordinator.Coordinator,
// following the repository's own test style rather than a mocking
// framework.
type fakeCoordinator struct {
	submitID  uuid.UUID
	submitErr error
	killErr   error

	capturedRequest  *store.JobRequest
	capturedMetadata *store.JobMetadata
	capturedKillID   uuid.UUID
	capturedReason   string
}

func (f *fakeCoordinator) Submit(ctx context.Context, request *store.JobRequest, metadata *store.JobMetadata) (uuid.UUID, error) {
	f.capturedRequest = request
	f.capturedMetadata = metadata
	if f.submitErr != nil {
		return uuid.Nil, f.submitErr
	}
	return f.submitID, nil
}

func (f *fakeCoordinator) Kill(ctx context.Context, jobID uuid.UUID, reason string) error {
	f.capturedKillID = jobID
	f.capturedReason = reason
	return f.killErr
}

// fakeJobReader is a hand-rolled stand-in for the catalog store's GetJob.
type fakeJobReader struct {
	jobs map[uuid.UUID]*store.JobRecord
	err  error
}

func newFakeJobReader() *fakeJobReader {
	return &fakeJobReader{jobs: make(map[uuid.UUID]*store.JobRecord)}
}

func (f *fakeJobReader) GetJob(ctx context.Context, id uuid.UUID) (*store.JobRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	job, ok := f.jobs[id]
	if !ok {
		return nil, errNotFound
	}
	return job, nil
}

// fakeTenantStore is a hand-rolled stand-in for store.TenantStore.
type fakeTenantStore struct {
	createErr error
	byName    map[string]*store.Tenant
	byHash    map[string]*store.Tenant
	byID      map[uuid.UUID]*store.Tenant

	capturedTenant *store.Tenant
}

func newFakeTenantStore() *fakeTenantStore {
	return &fakeTenantStore{
		byName: make(map[string]*store.Tenant),
		byHash: make(map[string]*store.Tenant),
		byID:   make(map[uuid.UUID]*store.Tenant),
	}
}

func (f *fakeTenantStore) CreateTenant(ctx context.Context, tenant *store.Tenant, hashedKey string) error {
	f.capturedTenant = tenant
	if f.createErr != nil {
		return f.createErr
	}
	f.byName[tenant.Name] = tenant
	f.byHash[hashedKey] = tenant
	f.byID[tenant.ID] = tenant
	return nil
}

func (f *fakeTenantStore) GetTenantByID(ctx context.Context, id uuid.UUID) (*store.Tenant, error) {
	return f.byID[id], nil
}

func (f *fakeTenantStore) GetTenantByAPIKeyHash(ctx context.Context, hash string) (*store.Tenant, error) {
	return f.byHash[hash], nil
}

func (f *fakeTenantStore) GetTenantByName(ctx context.Context, name string) (*store.Tenant, error) {
	return f.byName[name], nil
}

// fakePinger is a hand-rolled stand-in for the readiness probe's store
// dependency.
type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error {
	return f.err
}

var errNotFound = &notFoundError{}

type notFoundError struct{}

func (*notFoundError) Error() string { return "not found" }
