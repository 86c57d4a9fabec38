// Package coordinator implements the admission pipeline: the state machine
// that turns a raw job submission into either a node-scheduled job with
// reserved memory, or a typed rejection with durable bookkeeping. Submit is
// the hard part of this repository; everything else in the module exists
// to give it somewhere to read from, write to, and hand off to.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"jobcoordinator/internal/catalog"
	"jobcoordinator/internal/nodestate"
	"jobcoordinator/internal/resolver"
	"jobcoordinator/internal/store"

	"github.com/google/uuid"
)

// Launcher is the node-local execution hand-off: once Node State has
// reserved a job's memory, the coordinator asks the Launcher to actually
// start it. Submit does not wait on Launch to complete or even to start
// successfully — launch failures are a lifecycle concern downstream of
// admission, out of this package's scope.
type Launcher interface {
	Launch(ctx context.Context, spec LaunchSpec)
}

// LaunchSpec is everything the Launcher needs to start an admitted job.
type LaunchSpec struct {
	JobID          uuid.UUID
	ClusterID      uuid.UUID
	CommandID      uuid.UUID
	ApplicationIDs []uuid.UUID
	CommandArgs    []string
	MemoryMB       int
}

// Killer terminates an admitted job. Coordinator.Kill delegates to it
// entirely; idempotency and liveness are the Killer's contract.
type Killer interface {
	Kill(ctx context.Context, jobID uuid.UUID, reason string) error
}

// Limits is the subset of internal/config the coordinator consults on
// every submission. It is a narrow struct rather than *config.Config so
// fakes don't need to construct a full config in tests.
type Limits struct {
	ArchiveRoot        string
	DefaultJobMemory   int
	MaxJobMemory       int
	MaxSystemMemory    int
	ActiveLimitEnabled bool
	Hostname           string
}

// Coordinator is the admission pipeline. A zero value is not usable; build
// one with New.
type Coordinator struct {
	store    store.CatalogStore
	tenants  store.TenantStore
	resolver resolver.Resolver
	nodeState *nodestate.NodeState
	launcher Launcher // may be nil
	killer   Killer
	metrics  *metrics
	logger   *slog.Logger
	limits   Limits

	// admissionLock serializes stage 9's read-modify-write of the
	// NodeMemoryLedger across concurrent submissions. It is taken only
	// around NodeState.UsedMemory/Schedule and must never wrap catalog or
	// resolver I/O (those all run in stages 1-8, before this is taken).
	admissionLock sync.Mutex
}

// New builds a Coordinator. killer may be nil, in which case Kill returns a
// ServerError;
// launcher may be nil, in which case admitted jobs are never started (useful
// for tests that only assert on admission bookkeeping).
func New(
	catalogStore store.CatalogStore,
	tenants store.TenantStore,
	res resolver.Resolver,
	nodeState *nodestate.NodeState,
	launcher Launcher,
	killer Killer,
	logger *slog.Logger,
	limits Limits,
) (*Coordinator, error) {
	m, err := newMetrics()
	if err != nil {
		return nil, err
	}
	return &Coordinator{
		store:     catalogStore,
		tenants:   tenants,
		resolver:  res,
		nodeState: nodeState,
		launcher:  launcher,
		killer:    killer,
		metrics:   m,
		logger:    logger,
		limits:    limits,
	}, nil
}

// Submit is the admission pipeline. It runs the nine stages numbered in
// the stage comments below in order; any stage past identity allocation that fails
// is caught once, classified into a *CoordinatorError, and cleaned up via
// c.cleanup before being returned. The only path that mutates the
// NodeMemoryLedger is stage 9, run under c.admissionLock.
func (c *Coordinator) Submit(ctx context.Context, request *store.JobRequest, metadata *store.JobMetadata) (uuid.UUID, error) {
	start := time.Now()
	var outcomeErr error
	defer func() {
		c.metrics.recordCoordination(ctx, time.Since(start), outcomeErr)
	}()

	// Stage 1: identity.
	var jobID uuid.UUID
	if request.ID != nil {
		jobID = *request.ID
	} else {
		jobID = uuid.New()
	}
	if jobID == uuid.Nil {
		outcomeErr = newServerError(jobID, "request carries no job id and none could be allocated", nil)
		return uuid.Nil, outcomeErr
	}

	log := c.logger.With("job_id", jobID, "user", request.User)

	// Stage 2: persist INIT.
	record := &store.JobRecord{
		ID:              jobID,
		Name:            request.Name,
		User:            request.User,
		Version:         request.Version,
		Tags:            request.Tags,
		CommandArgs:     request.CommandArgs,
		Description:     request.Description,
		Status:          store.JobStatusInit,
		StatusMessage:   "Job accepted and in initialization phase.",
		ArchiveLocation: c.limits.ArchiveRoot + jobID.String(),
		ExecutionHost:   c.limits.Hostname,
	}
	if err := c.store.CreateJob(ctx, request, metadata, record); err != nil {
		var conflict *store.ConflictError
		if errors.As(err, &conflict) {
			log.Warn("submit: job id conflict", "error", err)
			outcomeErr = newConflictError(jobID, err)
			return uuid.Nil, outcomeErr
		}
		log.Error("submit: failed to persist INIT record", "error", err)
		outcomeErr = newServerError(jobID, "failed to persist job record", err)
		return uuid.Nil, outcomeErr
	}
	log.Info("submit: persisted INIT record")

	// Stage 3: mark node-scheduled. From here on, any failure must run
	// c.cleanup, which itself checks JobExists before touching Node State.
	c.nodeState.Init(jobID)

	// Stage 4: resolve.
	plan, err := c.resolver.Resolve(ctx, jobID, request, true)
	if err != nil {
		log.Warn("submit: resolution failed", "error", err)
		c.cleanup(ctx, jobID, cleanupPlan{
			jobExists:     c.nodeState.JobExists(jobID),
			pendingStatus: store.JobStatusFailed,
			message:       store.StatusFailedToResolve,
		})
		outcomeErr = newPreconditionError(jobID, err.Error(), err)
		return uuid.Nil, outcomeErr
	}

	// Stage 5: catalog fan-out.
	cluster, err := c.store.GetCluster(ctx, plan.ClusterID)
	if err != nil {
		outcomeErr = c.failServerError(ctx, log, jobID, "failed to load resolved cluster", err)
		return uuid.Nil, outcomeErr
	}
	command, err := c.store.GetCommand(ctx, plan.CommandID)
	if err != nil {
		outcomeErr = c.failServerError(ctx, log, jobID, "failed to load resolved command", err)
		return uuid.Nil, outcomeErr
	}
	applications := make([]*catalog.Application, 0, len(plan.ApplicationIDs))
	for _, appID := range plan.ApplicationIDs {
		app, err := c.store.GetApplication(ctx, appID)
		if err != nil {
			outcomeErr = c.failServerError(ctx, log, jobID, "failed to load resolved application", err)
			return uuid.Nil, outcomeErr
		}
		applications = append(applications, app)
	}

	// Stage 6: effective memory.
	memory := c.limits.DefaultJobMemory
	if command.MemoryMB != nil {
		memory = *command.MemoryMB
	}
	if request.MemoryMB != nil {
		memory = *request.MemoryMB
	}
	if memory > c.limits.MaxJobMemory {
		log.Warn("submit: requested memory exceeds per-job ceiling", "memory_mb", memory, "max_job_memory", c.limits.MaxJobMemory)
		c.cleanup(ctx, jobID, cleanupPlan{
			jobExists:     c.nodeState.JobExists(jobID),
			pendingStatus: store.JobStatusInvalid,
			message:       fmt.Sprintf("requested memory %dMB exceeds the maximum of %dMB", memory, c.limits.MaxJobMemory),
		})
		outcomeErr = newPreconditionError(jobID, fmt.Sprintf("requested memory %dMB exceeds the maximum of %dMB", memory, c.limits.MaxJobMemory), nil)
		return uuid.Nil, outcomeErr
	}

	// Stage 7: runtime binding. setJobEnvironment is timed regardless of
	// outcome, per spec.
	bindingStart := time.Now()
	binding := &store.RuntimeBinding{
		JobID:          jobID,
		ClusterID:      plan.ClusterID,
		CommandID:      plan.CommandID,
		ApplicationIDs: append([]uuid.UUID(nil), plan.ApplicationIDs...),
		MemoryMB:       memory,
	}
	bindingErr := c.store.UpdateJobWithRuntimeEnvironment(ctx, binding)
	c.metrics.recordSetJobEnvironment(ctx, time.Since(bindingStart), bindingErr)
	if bindingErr != nil {
		outcomeErr = c.failServerError(ctx, log, jobID, "failed to persist runtime binding", bindingErr)
		return uuid.Nil, outcomeErr
	}

	// Stage 8: user quota.
	if c.limits.ActiveLimitEnabled {
		limit, active, err := c.userQuota(ctx, request.User)
		if err != nil {
			outcomeErr = c.failServerError(ctx, log, jobID, "failed to evaluate user active-jobs quota", err)
			return uuid.Nil, outcomeErr
		}
		if limit > 0 && active >= limit {
			log.Warn("submit: user active-jobs limit exceeded", "user", request.User, "limit", limit, "active", active)
			c.metrics.recordUserLimitExceeded(ctx, request.User, limit)
			ue := newUserLimitError(jobID, request.User, limit)
			c.cleanup(ctx, jobID, cleanupPlan{
				jobExists:     c.nodeState.JobExists(jobID),
				pendingStatus: store.JobStatusFailed,
				message:       ue.Message,
			})
			outcomeErr = ue
			return uuid.Nil, outcomeErr
		}
	}

	// Stage 9: node memory admission, the sole critical section. No
	// catalog or resolver I/O may occur between the lock acquire and
	// release.
	admitted := c.admitOnNode(jobID, memory)
	if !admitted {
		log.Warn("submit: node has no available memory", "requested_mb", memory)
		c.cleanup(ctx, jobID, cleanupPlan{
			jobExists:     true,
			pendingStatus: store.JobStatusFailed,
			message:       "node has no available memory to admit this job",
		})
		outcomeErr = newServerUnavailableError(jobID)
		return uuid.Nil, outcomeErr
	}

	log.Info("submit: admitted", "memory_mb", memory, "cluster_id", cluster.ID, "command_id", command.ID)

	if c.launcher != nil {
		c.launcher.Launch(ctx, LaunchSpec{
			JobID:          jobID,
			ClusterID:      cluster.ID,
			CommandID:      command.ID,
			ApplicationIDs: plan.ApplicationIDs,
			CommandArgs:    request.CommandArgs,
			MemoryMB:       memory,
		})
	}

	return jobID, nil
}

// admitOnNode is stage 9: the sole read-modify-write of the
// NodeMemoryLedger. It holds c.admissionLock only around the two
// nodeState calls, never across I/O.
func (c *Coordinator) admitOnNode(jobID uuid.UUID, memory int) bool {
	c.admissionLock.Lock()
	defer c.admissionLock.Unlock()

	used := c.nodeState.UsedMemory()
	if used+memory > c.limits.MaxSystemMemory {
		return false
	}
	c.nodeState.Schedule(jobID, memory)
	return true
}

// userQuota resolves the per-user active-jobs limit and the user's current
// active count. A tenant with MaxConcurrentJobs == 0 is unlimited.
func (c *Coordinator) userQuota(ctx context.Context, user string) (limit int64, active int64, err error) {
	tenant, err := c.tenants.GetTenantByName(ctx, user)
	if err != nil {
		return 0, 0, err
	}
	if tenant.MaxConcurrentJobs == 0 {
		return 0, 0, nil
	}
	active, err = c.store.GetActiveJobCountForUser(ctx, user)
	if err != nil {
		return 0, 0, err
	}
	return tenant.MaxConcurrentJobs, active, nil
}

// failServerError is the common path for stage 5-8 failures that are
// unclassified or represent a broken catalog invariant: log, clean up
// (FAILED, done if the job was ever scheduled), and classify as
// ServerError.
func (c *Coordinator) failServerError(ctx context.Context, log *slog.Logger, jobID uuid.UUID, message string, cause error) *CoordinatorError {
	log.Error("submit: "+message, "error", cause)
	c.cleanup(ctx, jobID, cleanupPlan{
		jobExists:     c.nodeState.JobExists(jobID),
		pendingStatus: store.JobStatusFailed,
		message:       message,
	})
	return newServerError(jobID, message, cause)
}

// Kill delegates to the Killer entirely; idempotency and liveness are its
// contract, not the coordinator's.
func (c *Coordinator) Kill(ctx context.Context, jobID uuid.UUID, reason string) error {
	if c.killer == nil {
		return newServerError(jobID, "no killer configured", nil)
	}
	if err := c.killer.Kill(ctx, jobID, reason); err != nil {
		return newServerError(jobID, "failed to kill job", err)
	}
	return nil
}
