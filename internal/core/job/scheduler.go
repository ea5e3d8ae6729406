package job

import (
	"sync/atomic"

	"github.com/totodo713/ecscore/internal/core/profiling"
)

// Scheduler is the public entry point for submitting work to a Pool
// (spec.md §4.8 "Job Scheduler"): Submit for independent work, SubmitWithDeps
// for work that must wait on other jobs' completion.
type Scheduler struct {
	pool   *Pool
	nextID uint64
	round  uint64
}

// NewScheduler starts a Pool of workerCount workers (0 = GOMAXPROCS) with
// the given per-worker deque capacity and shared spill ring capacity.
func NewScheduler(workerCount, dequeCapacity, ringCapacity int, hooks profiling.Hooks) *Scheduler {
	return &Scheduler{pool: NewPool(workerCount, dequeCapacity, ringCapacity, hooks)}
}

// Close stops every worker once all queued work has drained.
func (s *Scheduler) Close() { s.pool.Close() }

// Submit enqueues run with priority and no dependencies, returning a Handle
// immediately.
func (s *Scheduler) Submit(priority Priority, run func() error) Handle {
	return s.SubmitWithDeps(priority, run)
}

// SubmitWithDeps enqueues run with priority, held Pending until every job in
// deps has completed (successfully, with failure, or canceled). A dep that
// has already finished counts immediately rather than blocking forever.
func (s *Scheduler) SubmitWithDeps(priority Priority, run func() error, deps ...Handle) Handle {
	id := atomic.AddUint64(&s.nextID, 1)
	j := newJob(id, priority, run, len(deps))

	pending := 0
	for _, d := range deps {
		d.j.mu.Lock()
		finished := d.j.state == StateCompleted || d.j.state == StateFailed || d.j.state == StateCanceled
		if !finished {
			d.j.dependents = append(d.j.dependents, j)
			pending++
		}
		d.j.mu.Unlock()
	}
	// Dependencies that had already finished before we took their lock don't
	// get a dependents entry and must be resolved immediately instead.
	alreadyDone := len(deps) - pending
	for i := 0; i < alreadyDone; i++ {
		j.resolveDependency()
	}

	if j.State() == StateReady {
		owner := int(atomic.AddUint64(&s.round, 1)) % len(s.pool.workers)
		s.pool.submitAt(owner, j)
	}
	return Handle{j: j}
}

// WaitAll blocks until every handle in hs has completed.
func WaitAll(hs ...Handle) []error {
	errs := make([]error, len(hs))
	for i, h := range hs {
		errs[i] = h.Wait()
	}
	return errs
}
