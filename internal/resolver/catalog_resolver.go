package resolver

import (
	"context"

	"jobcoordinator/internal/catalog"
	"jobcoordinator/internal/store"

	"github.com/google/uuid"
)

// CatalogResolver is the default Resolver. It filters active clusters and
// commands by the request's tag criteria, picks the best-tag-overlap
// command, and pairs it with the best-tag-overlap cluster. Each application
// named in the request is resolved to an active application by name;
// commands declare no applications, so the command choice does not depend
// on the requested applications.
//
// This is a simplified stand-in for a real scheduler's scoring pass (see
// the teacher's own pod-spec defaulting in SubmitServer.applyDefaultsToPodSpec
// for the shape of "fill in what the request didn't specify, then filter");
// a production Resolver would consult cluster capacity and command
// compatibility far more exhaustively.
type CatalogResolver struct {
	catalog CatalogReader
}

// NewCatalogResolver builds a Resolver backed by the given catalog reader.
func NewCatalogResolver(reader CatalogReader) *CatalogResolver {
	return &CatalogResolver{catalog: reader}
}

func (r *CatalogResolver) Resolve(ctx context.Context, jobID uuid.UUID, request *store.JobRequest, computeBinding bool) (*Plan, error) {
	clusters, err := r.catalog.ListClusters(ctx)
	if err != nil {
		return nil, err
	}
	commands, err := r.catalog.ListCommands(ctx)
	if err != nil {
		return nil, err
	}

	cluster := bestCluster(clusters, request.Criteria.ClusterTags)
	if cluster == nil {
		return nil, &ResolutionError{JobID: jobID, Reason: "no active cluster matches the requested tags"}
	}

	command := bestCommand(commands, request.Criteria.CommandTags)
	if command == nil {
		return nil, &ResolutionError{JobID: jobID, Reason: "no active command matches the requested tags"}
	}

	appIDs, err := r.resolveApplications(ctx, request.Criteria.Applications)
	if err != nil {
		return nil, &ResolutionError{JobID: jobID, Reason: err.Error()}
	}

	return &Plan{
		ClusterID:      cluster.ID,
		CommandID:      command.ID,
		ApplicationIDs: appIDs,
	}, nil
}

// resolveApplications looks up each named application, preserving the
// request's ordering; the order becomes the ordering of ApplicationIDs in
// the returned Plan and, eventually, of RuntimeBinding.ApplicationIDs.
func (r *CatalogResolver) resolveApplications(ctx context.Context, names []string) ([]uuid.UUID, error) {
	if len(names) == 0 {
		return nil, nil
	}
	all, err := r.catalog.ListApplications(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]*catalog.Application, len(all))
	for _, a := range all {
		if a.Status == catalog.StatusActive {
			byName[a.Name] = a
		}
	}

	ids := make([]uuid.UUID, 0, len(names))
	for _, name := range names {
		app, ok := byName[name]
		if !ok {
			return nil, &ResolutionError{Reason: "no active application named " + name}
		}
		ids = append(ids, app.ID)
	}
	return ids, nil
}

func bestCluster(clusters []*catalog.Cluster, wantTags []string) *catalog.Cluster {
	var best *catalog.Cluster
	bestScore := -1
	for _, c := range clusters {
		if c.Status != catalog.StatusActive {
			continue
		}
		score := tagOverlap(c.Tags, wantTags)
		if len(wantTags) > 0 && score == 0 {
			continue
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}

func bestCommand(commands []*catalog.Command, wantTags []string) *catalog.Command {
	var best *catalog.Command
	bestScore := -1
	for _, c := range commands {
		if c.Status != catalog.StatusActive {
			continue
		}
		score := tagOverlap(c.Tags, wantTags)
		if len(wantTags) > 0 && score == 0 {
			continue
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return best
}

func tagOverlap(have, want []string) int {
	if len(want) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(have))
	for _, t := range have {
		set[t] = struct{}{}
	}
	n := 0
	for _, t := range want {
		if _, ok := set[t]; ok {
			n++
		}
	}
	return n
}
