// Package nodestate tracks the jobs admitted on this node and the memory
// they reserve. It is the sole owner of the NodeMemoryLedger: the
// coordinator never touches the ledger directly, only through the
// operations exposed here, and only from inside its own admission lock.
package nodestate

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// phase is the per-job state in NodeState's small state machine:
// absent -> init -> admitted -> done -> absent. Transitions are driven
// exclusively by the coordinator. Schedule panics unless the job is in
// init, rather than silently corrupting the ledger; Init always (re)creates
// an init slot, and Done on an absent job is a no-op.
type phase int

const (
	phaseInit phase = iota
	phaseAdmitted
)

type jobSlot struct {
	phase    phase
	memoryMB int
}

// NodeState is the in-memory bookkeeping for this node's admitted jobs. A
// zero value is not ready for use; call New.
type NodeState struct {
	mu     sync.Mutex
	jobs   map[uuid.UUID]*jobSlot
	ledger int
}

// New creates an empty NodeState.
func New() *NodeState {
	return &NodeState{jobs: make(map[uuid.UUID]*jobSlot)}
}

// Init records an intent slot with memory=0: a placeholder so that, if a
// later stage of the admission pipeline fails, JobExists still reports true
// and the coordinator's cleanup path knows to call Done. Init is
// unconditional — it always (re)creates the absent->init slot, tolerating a
// client-supplied id that later turns out to conflict in the Catalog Store
// (the store's uniqueness check is the sole arbiter of that race).
func (n *NodeState) Init(jobID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.jobs[jobID] = &jobSlot{phase: phaseInit}
}

// JobExists reports whether jobID has a live slot (init or admitted). It is
// a pure membership test used by the coordinator's error path to decide
// whether Done needs to run.
func (n *NodeState) JobExists(jobID uuid.UUID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.jobs[jobID]
	return ok
}

// UsedMemory returns the current NodeMemoryLedger value: the sum of
// memoryMB over all admitted (not done) jobs.
func (n *NodeState) UsedMemory() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ledger
}

// Schedule admits jobID, adding memoryMB to the ledger and marking the job
// admitted. It must only be called from inside the coordinator's admission
// critical section (the caller has already verified used+memoryMB does not
// exceed the system cap) and assumes serialized calls; it does not perform
// the capacity check itself. Calling Schedule for a job not in the init
// phase (absent, or already admitted) is a programming error.
func (n *NodeState) Schedule(jobID uuid.UUID, memoryMB int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	slot, ok := n.jobs[jobID]
	if !ok || slot.phase != phaseInit {
		panic(fmt.Sprintf("nodestate: illegal transition to admitted for job %s", jobID))
	}
	slot.phase = phaseAdmitted
	slot.memoryMB = memoryMB
	n.ledger += memoryMB
}

// Done removes jobID and subtracts its committed memory from the ledger: 0
// for an intent-only slot, memoryMB for an admitted one. Done on an absent
// job is a no-op, matching the spec's requirement that the coordinator's
// cleanup path can call Done unconditionally whenever JobExists was true at
// the time of the check.
func (n *NodeState) Done(jobID uuid.UUID) {
	n.mu.Lock()
	defer n.mu.Unlock()

	slot, ok := n.jobs[jobID]
	if !ok {
		return
	}
	if slot.phase == phaseAdmitted {
		n.ledger -= slot.memoryMB
	}
	delete(n.jobs, jobID)
}
