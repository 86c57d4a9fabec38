// Package launcher is the thin adapter between the coordinator's admission
// pipeline and the node-local execution subsystem: once a job is admitted,
// the coordinator hands the launcher a LaunchSpec and moves on. Everything
// from here is fire-and-forget from Submit's point of view; the launcher
// owns the job's lifecycle until it reaches a terminal status.
package launcher

import (
	"context"
	"fmt"
	"log/slog"

	"jobcoordinator/internal/coordinator"
	"jobcoordinator/internal/killer"
	"jobcoordinator/internal/nodestate"
	"jobcoordinator/internal/store"
	"jobcoordinator/internal/worker/runtime"

	"github.com/google/uuid"
)

// Launcher implements coordinator.Launcher by starting the resolved
// command on a runtime.Runtime backend and tracking it through to a
// terminal status.
type Launcher struct {
	store     store.CatalogStore
	rt        runtime.Runtime
	killer    *killer.Killer
	nodeState *nodestate.NodeState
	logger    *slog.Logger
}

// New builds a Launcher. rt is the configured execution backend (docker,
// kubernetes, or exec); k is the registry the coordinator's Kill path
// consults; ns is the same NodeState the coordinator admits jobs into —
// the launcher calls ns.Done once a job it started reaches a terminal
// status, releasing the memory Submit's stage 9 reserved for it.
func New(catalogStore store.CatalogStore, rt runtime.Runtime, k *killer.Killer, ns *nodestate.NodeState, logger *slog.Logger) *Launcher {
	return &Launcher{store: catalogStore, rt: rt, killer: k, nodeState: ns, logger: logger}
}

// Launch starts running in a detached goroutine and returns immediately.
// Submit does not wait on it, and the caller's ctx may be canceled (e.g. an
// HTTP request completing) long before the job finishes, so Launch runs
// against a fresh background context rather than ctx.
func (l *Launcher) Launch(ctx context.Context, spec coordinator.LaunchSpec) {
	go l.run(spec)
}

func (l *Launcher) run(spec coordinator.LaunchSpec) {
	ctx := context.Background()
	log := l.logger.With("job_id", spec.JobID)

	command, err := l.store.GetCommand(ctx, spec.CommandID)
	if err != nil {
		log.Error("launch: failed to load command", "error", err)
		l.markFailed(ctx, spec.JobID, "failed to load command for launch")
		return
	}

	execCommand := append([]string{command.Executable}, spec.CommandArgs...)
	handle, err := l.rt.Start(ctx, runtime.StartOptions{
		Command: execCommand,
		Env:     map[string]string{"JOBCOORDINATOR_JOB_ID": spec.JobID.String()},
	})
	if err != nil {
		log.Error("launch: failed to start runtime", "error", err)
		l.markFailed(ctx, spec.JobID, "failed to start job")
		return
	}

	l.killer.Register(spec.JobID, handle)
	defer l.killer.Unregister(spec.JobID)

	if err := l.store.UpdateJobStatus(ctx, spec.JobID, store.JobStatusRunning, "job running"); err != nil {
		log.Error("launch: failed to mark job running", "error", err)
	}

	result, waitErr := handle.Wait(ctx)
	switch {
	case waitErr == nil && result.ExitCode == 0 && result.Error == nil:
		log.Info("launch: job completed successfully")
		if err := l.store.UpdateJobStatus(ctx, spec.JobID, store.JobStatusSucceeded, "job completed successfully"); err != nil {
			log.Error("launch: failed to mark job succeeded", "error", err)
		}
		l.nodeState.Done(spec.JobID)
	default:
		message := fmt.Sprintf("job exited with code %d", result.ExitCode)
		if result.Error != nil {
			message = result.Error.Error()
		} else if waitErr != nil {
			message = waitErr.Error()
		}
		log.Warn("launch: job did not complete successfully", "message", message)
		l.markFailed(ctx, spec.JobID, message)
	}
}

// markFailed records a terminal FAILED status and releases the job's
// reservation on the NodeMemoryLedger, mirroring Genie's
// JobStateService.done on completion. Used both for mid-run failures and
// for the early start-failure paths above, where the job never got past
// Wait.
func (l *Launcher) markFailed(ctx context.Context, jobID uuid.UUID, message string) {
	if err := l.store.UpdateJobStatus(ctx, jobID, store.JobStatusFailed, message); err != nil {
		l.logger.Error("launch: failed to record failure status", "job_id", jobID, "error", err)
	}
	l.nodeState.Done(jobID)
}
