package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"jobcoordinator/internal/controller/middleware"
	"jobcoordinator/internal/coordinator"
	"jobcoordinator/internal/store"
	"jobcoordinator/pkg/api"

	"github.com/google/uuid"
)

// coordinatorStatus maps a CoordinatorError.Kind to the HTTP status the
// transport layer exposes it as, per the coordinator's error taxonomy.
func coordinatorStatus(kind coordinator.Kind) int {
	switch kind {
	case coordinator.KindConflict:
		return http.StatusConflict
	case coordinator.KindPrecondition:
		return http.StatusPreconditionFailed
	case coordinator.KindUserLimitExceeded:
		return http.StatusTooManyRequests
	case coordinator.KindServerUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeCoordinatorError classifies err and writes the matching HTTP
// response. A non-CoordinatorError is always a 500: Submit and Kill never
// return anything else, so seeing one here is a programming error
// upstream.
func (h *Handlers) writeCoordinatorError(w http.ResponseWriter, err error) {
	var cErr *coordinator.CoordinatorError
	if !errors.As(err, &cErr) {
		h.httpError(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.httpError(w, cErr.Message, coordinatorStatus(cErr.Kind))
}

// CreateJob handles POST /jobs: submits a job request through the
// admission pipeline.
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req api.SubmitJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.httpError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		h.httpError(w, "name is required", http.StatusBadRequest)
		return
	}

	tenant, ok := middleware.TenantFromContext(ctx)
	if !ok {
		h.httpError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var id *uuid.UUID
	if req.ID != nil {
		parsed, err := uuid.Parse(*req.ID)
		if err != nil {
			h.httpError(w, "invalid job id", http.StatusBadRequest)
			return
		}
		id = &parsed
	}

	tags := make(map[string]struct{}, len(req.Tags))
	for _, t := range req.Tags {
		tags[t] = struct{}{}
	}

	request := &store.JobRequest{
		ID:          id,
		Name:        req.Name,
		User:        tenant.Name,
		Version:     req.Version,
		Tags:        tags,
		CommandArgs: req.CommandArgs,
		Description: req.Description,
		MemoryMB:    req.MemoryMB,
		Criteria: store.SelectionCriteria{
			ClusterTags:     req.Criteria.ClusterTags,
			CommandTags:     req.Criteria.CommandTags,
			Applications:    req.Criteria.Applications,
			ClusterCriteria: req.Criteria.ClusterCriteria,
		},
	}
	metadata := &store.JobMetadata{
		ClientHost: r.RemoteAddr,
		UserAgent:  r.UserAgent(),
		Labels:     req.Labels,
	}

	jobID, err := h.coordinator.Submit(ctx, request, metadata)
	if err != nil {
		h.writeCoordinatorError(w, err)
		return
	}

	h.respondJson(w, http.StatusAccepted, api.SubmitJobResponse{JobID: jobID.String()})
}

// GetJob handles GET /jobs/{id}.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "invalid job id", http.StatusBadRequest)
		return
	}

	job, err := h.jobs.GetJob(ctx, jobID)
	if err != nil {
		h.httpError(w, "job not found", http.StatusNotFound)
		return
	}

	tags := make([]string, 0, len(job.Tags))
	for t := range job.Tags {
		tags = append(tags, t)
	}

	h.respondJson(w, http.StatusOK, api.JobResponse{
		ID:              job.ID.String(),
		Name:            job.Name,
		User:            job.User,
		Version:         job.Version,
		Tags:            tags,
		Status:          string(job.Status),
		StatusMessage:   job.StatusMessage,
		ArchiveLocation: job.ArchiveLocation,
		ExecutionHost:   job.ExecutionHost,
		CreatedAt:       job.CreatedAt,
	})
}

// KillJob handles POST /jobs/{id}/kill.
func (h *Handlers) KillJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.httpError(w, "invalid job id", http.StatusBadRequest)
		return
	}

	var req api.KillJobRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.httpError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}
	reason := req.Reason
	if reason == "" {
		reason = "killed by client"
	}

	if err := h.coordinator.Kill(ctx, jobID, reason); err != nil {
		h.writeCoordinatorError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
