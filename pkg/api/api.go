// Package api contains shared JSON request/response structs.
// This package is shared between the CLI and Controller.
package api

import "time"

// CreateTenantRequest is the request body for creating a new tenant.
type CreateTenantRequest struct {
	Name string `json:"name"`
}

// CreateTenantResponse is the response body after creating a tenant.
type CreateTenantResponse struct {
	ID     string `json:"tenant_id"`
	Name   string `json:"name"`
	ApiKey string `json:"api_key"`
}

// SelectionCriteria selects clusters/commands/applications for a job
// submission. Opaque to the controller; only the resolver interprets it.
type SelectionCriteria struct {
	ClusterTags     []string          `json:"cluster_tags,omitempty"`
	CommandTags     []string          `json:"command_tags,omitempty"`
	Applications    []string          `json:"applications,omitempty"`
	ClusterCriteria map[string]string `json:"cluster_criteria,omitempty"`
}

// SubmitJobRequest is the request body for POST /jobs.
type SubmitJobRequest struct {
	ID          *string           `json:"id,omitempty"`
	Name        string            `json:"name"`
	Version     string            `json:"version,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	CommandArgs []string          `json:"command_args,omitempty"`
	Description *string           `json:"description,omitempty"`
	MemoryMB    *int              `json:"memory_mb,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	Criteria    SelectionCriteria `json:"criteria"`
}

// SubmitJobResponse is the response body once a job is admitted.
type SubmitJobResponse struct {
	JobID string `json:"job_id"`
}

// JobResponse represents a job's current state for GET /jobs/{id}.
type JobResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	User            string    `json:"user"`
	Version         string    `json:"version,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
	Status          string    `json:"status"`
	StatusMessage   string    `json:"status_message"`
	ArchiveLocation string    `json:"archive_location"`
	ExecutionHost   string    `json:"execution_host"`
	CreatedAt       time.Time `json:"created_at"`
}

// KillJobRequest is the request body for POST /jobs/{id}/kill. An empty
// body is valid; Reason defaults to "killed by client".
type KillJobRequest struct {
	Reason string `json:"reason,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}
