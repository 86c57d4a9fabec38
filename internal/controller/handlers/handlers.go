// Package handlers contains HTTP handlers for the controller API.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"jobcoordinator/internal/store"
	"jobcoordinator/pkg/api"

	"github.com/google/uuid"
)

// Coordinator is the admission-pipeline surface the handlers drive. Narrow
// on purpose so tests can fake it by hand instead of constructing a real
// *coordinator.Coordinator.
type Coordinator interface {
	Submit(ctx context.Context, request *store.JobRequest, metadata *store.JobMetadata) (uuid.UUID, error)
	Kill(ctx context.Context, jobID uuid.UUID, reason string) error
}

// JobReader is the read side of the catalog store the handlers need for
// GET /jobs/{id}. Submission and kill go through Coordinator instead.
type JobReader interface {
	GetJob(ctx context.Context, id uuid.UUID) (*store.JobRecord, error)
}

// Pinger reports whether the backing store is reachable, for the
// readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds all HTTP handlers and their dependencies.
type Handlers struct {
	coordinator Coordinator
	jobs        JobReader
	tenants     store.TenantStore
	pinger      Pinger
}

// New creates a new Handlers instance.
func New(coord Coordinator, jobs JobReader, tenants store.TenantStore, pinger Pinger) *Handlers {
	return &Handlers{coordinator: coord, jobs: jobs, tenants: tenants, pinger: pinger}
}

// A helper function to write standard JSON responses.
func (h *Handlers) respondJson(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// A helper function to return consistent error messages.
func (h *Handlers) httpError(w http.ResponseWriter, message string, code int) {
	h.respondJson(w, code, api.ErrorResponse{
		Error: message,
		Code:  strconv.Itoa(code),
	})
}
