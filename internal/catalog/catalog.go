// Package catalog defines the read-only catalog entities the coordinator
// resolves job submissions against: applications, commands, and clusters.
package catalog

import "github.com/google/uuid"

// Application is a reusable piece of setup (binaries, environment, config)
// a Command can depend on. Applications are installed on a Cluster and
// attached to a job's execution in the order the Resolver returns them.
type Application struct {
	ID     uuid.UUID
	Name   string
	Status EntityStatus
}

// Command is an executable a job runs, optionally with a default memory
// footprint used when neither the request nor an override specifies one.
type Command struct {
	ID         uuid.UUID
	Name       string
	Executable string
	MemoryMB   *int
	Status     EntityStatus
	Tags       []string
}

// Cluster is a target execution environment a Command can run on.
type Cluster struct {
	ID     uuid.UUID
	Name   string
	Status EntityStatus
	Tags   []string
}

// EntityStatus mirrors the lifecycle a catalog entity goes through; only
// ACTIVE entities are eligible for resolution.
type EntityStatus string

const (
	StatusActive     EntityStatus = "ACTIVE"
	StatusDeprecated EntityStatus = "DEPRECATED"
	StatusInactive   EntityStatus = "INACTIVE"
)
