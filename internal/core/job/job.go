// Package job implements the work-stealing job scheduler: a bounded
// per-worker deque (Chase-Lev discipline), a global spill ring for deques
// that overflow, and a worker pool that runs each job once its dependencies
// have finished (spec.md §4.7 "Work-Stealing Job Scheduler", §4.8 "Job
// Scheduler"). Priority only orders jobs taken from the spill ring; deque
// pops and steals ignore it.
//
// The pool shape is grounded on the teacher pack's queue-per-worker pattern
// (evalgo-org-eve/worker/pool.go's Pool/Worker split, Start/Stop lifecycle)
// adapted from a blocking-queue-per-worker model to each worker owning a
// private deque that other workers may steal from.
package job

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// State is a Job's position in its lifecycle (spec.md §4.8).
type State int32

const (
	StatePending State = iota
	StateReady
	StateRunning
	StateCompleted
	StateFailed
	StateCanceled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Priority mirrors ecs.Priority so the job package has no import cycle back
// into ecs; the two enumerations are kept in lockstep by convention (both
// order Critical..Background).
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityNormal
	PriorityLow
	PriorityBackground
	priorityCount
)

// Failed wraps a panic recovered from a job's Run function, per spec.md
// §4.8's "panic capture as JobFailed" requirement.
type Failed struct {
	Recovered interface{}
}

func (f *Failed) Error() string {
	return fmt.Sprintf("job panicked: %v", f.Recovered)
}

// job is the scheduler's internal representation of one unit of work. The
// exported Handle is the only thing callers retain; job itself never
// escapes the package so its fields can be mutated by the scheduler without
// a public API surface to keep stable.
type job struct {
	id       uint64
	priority Priority
	run      func() error

	mu           sync.Mutex
	state        State
	err          error
	done         chan struct{}
	pendingDeps  int32 // atomic: number of not-yet-completed dependencies
	dependents   []*job
	canceled     int32 // atomic bool
}

func newJob(id uint64, priority Priority, run func() error, depCount int) *job {
	j := &job{
		id:       id,
		priority: priority,
		run:      run,
		done:     make(chan struct{}),
	}
	if depCount == 0 {
		j.state = StateReady
	} else {
		j.state = StatePending
		j.pendingDeps = int32(depCount)
	}
	return j
}

func (j *job) isCanceled() bool { return atomic.LoadInt32(&j.canceled) != 0 }

// State returns the job's current lifecycle state.
func (j *job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// resolveDependency decrements the pending-dependency count and reports
// whether this was the dependency that made the job Ready.
func (j *job) resolveDependency() bool {
	remaining := atomic.AddInt32(&j.pendingDeps, -1)
	if remaining == 0 {
		j.mu.Lock()
		if j.state == StatePending {
			j.state = StateReady
		}
		j.mu.Unlock()
		return true
	}
	return false
}

func (j *job) finish(state State, err error) {
	j.mu.Lock()
	j.state = state
	j.err = err
	j.mu.Unlock()
	close(j.done)
}

// Handle is the caller-visible reference to a submitted job (spec.md §4.8
// "JobHandle"): wait for completion, inspect its outcome, or request
// cancellation before it starts running.
type Handle struct {
	j *job
}

// Wait blocks until the job completes, fails, or is canceled, then returns
// its error (nil on success).
func (h Handle) Wait() error {
	<-h.j.done
	return h.j.err
}

// State returns the job's current lifecycle state.
func (h Handle) State() State { return h.j.State() }

// Cancel marks the job canceled. A job already Running when Cancel is
// called still runs to completion; Cancel only prevents a not-yet-started
// job from being picked up by a worker.
func (h Handle) Cancel() {
	atomic.StoreInt32(&h.j.canceled, 1)
}
