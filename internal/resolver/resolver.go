// Package resolver turns a job request's selection criteria into a concrete
// execution plan: a chosen cluster, a chosen command, and an ordered list of
// applications. The coordinator never interprets why a resolution failed; it
// uniformly remaps any ResolutionError to a Precondition failure.
package resolver

import (
	"context"
	"fmt"

	"jobcoordinator/internal/catalog"
	"jobcoordinator/internal/store"

	"github.com/google/uuid"
)

// Plan is the immutable result of a successful resolution. Callers must
// treat it as read-only; nothing in this repository mutates a Plan after
// it is returned.
type Plan struct {
	ClusterID      uuid.UUID
	CommandID      uuid.UUID
	ApplicationIDs []uuid.UUID
}

// ResolutionError indicates the catalog could not satisfy a request's
// criteria. It is always remapped by the coordinator to a Precondition
// failure with this error's message preserved.
type ResolutionError struct {
	JobID  uuid.UUID
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("could not resolve job %s: %s", e.JobID, e.Reason)
}

// Resolver scores clusters and commands against a request's criteria and
// returns the chosen plan. computeBinding mirrors the upstream resolver
// contract's dry-run flag: when false, implementations may skip expensive
// scoring paths used only to persist a binding (this coordinator always
// calls with computeBinding=true, per spec).
type Resolver interface {
	Resolve(ctx context.Context, jobID uuid.UUID, request *store.JobRequest, computeBinding bool) (*Plan, error)
}

// CatalogReader is the subset of the Catalog Store the default Resolver
// needs: enumeration of active clusters/commands/applications, since
// store.CatalogStore is point-lookup only.
type CatalogReader interface {
	ListClusters(ctx context.Context) ([]*catalog.Cluster, error)
	ListCommands(ctx context.Context) ([]*catalog.Command, error)
	ListApplications(ctx context.Context) ([]*catalog.Application, error)
}
