package job

import (
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/totodo713/ecscore/internal/core/profiling"
)

// Pool is a fixed-size set of workers, each owning a private bounded deque,
// backed by a global spillRing for overflow (spec.md §4.7). Workers search
// for work in the order: own deque bottom, bounded random steal attempts
// against other workers (K = 2N retries before giving up), the spill ring,
// then park.
type Pool struct {
	workers []*worker
	ring    *spillRing
	hooks   profiling.Hooks

	nextJobID uint64

	wg      sync.WaitGroup
	closing int32
	wake    chan struct{}
}

type worker struct {
	id    int
	dq    *deque
	pool  *Pool
	parks int64
}

// NewPool starts workerCount workers, each with a private deque of the
// given capacity rounded up to a power of two, sharing a spill ring sized
// ringCapacity. workerCount <= 0
// defaults to runtime.GOMAXPROCS(0).
func NewPool(workerCount, dequeCapacity, ringCapacity int, hooks profiling.Hooks) *Pool {
	if workerCount <= 0 {
		workerCount = runtime.GOMAXPROCS(0)
	}
	if hooks == nil {
		hooks = profiling.NoopHooks{}
	}
	p := &Pool{
		ring:  newSpillRing(ringCapacity),
		hooks: hooks,
		wake:  make(chan struct{}, workerCount),
	}
	p.workers = make([]*worker, workerCount)
	for i := range p.workers {
		p.workers[i] = &worker{id: i, dq: newDeque(dequeCapacity), pool: p}
	}

	p.wg.Add(workerCount)
	for _, w := range p.workers {
		go w.run()
	}
	return p
}

// Close signals every worker to stop once its deque and the spill ring are
// drained, and waits for them to exit.
func (p *Pool) Close() {
	atomic.StoreInt32(&p.closing, 1)
	for i := 0; i < len(p.workers); i++ {
		select {
		case p.wake <- struct{}{}:
		default:
		}
	}
	p.wg.Wait()
}

// submitAt enqueues an already-constructed job preferentially onto worker
// ownerIdx's deque, spilling to the global ring if that deque is full.
func (p *Pool) submitAt(ownerIdx int, j *job) {
	if ownerIdx < 0 || ownerIdx >= len(p.workers) {
		ownerIdx = int(atomic.LoadUint64(&p.nextJobID)) % len(p.workers)
	}
	if !p.workers[ownerIdx].dq.pushBottom(j) {
		for !p.ring.push(j) {
			runtime.Gosched() // ring momentarily full; yield and retry
		}
	}
	p.hooks.JobSubmitted(int(j.priority))
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (w *worker) run() {
	defer w.pool.wg.Done()
	const victimRetryFactor = 2
	maxRetries := victimRetryFactor * len(w.pool.workers)
	// math/rand, not crypto/rand: victim selection only needs cheap,
	// well-distributed picks among peer workers, never a security-relevant
	// draw, and a per-worker *rand.Rand avoids lock contention on the
	// package-level source.
	rng := rand.New(rand.NewSource(int64(w.id) + 1))

	for {
		j := w.dq.popBottom()
		if j == nil {
			j = w.steal(maxRetries, rng)
		}
		if j == nil {
			j = w.pool.ring.pop()
		}
		if j == nil {
			if atomic.LoadInt32(&w.pool.closing) != 0 && w.pool.allEmpty() {
				return
			}
			w.park()
			continue
		}
		w.execute(j)
	}
}

func (w *worker) steal(maxRetries int, rng *rand.Rand) *job {
	n := len(w.pool.workers)
	if n <= 1 {
		return nil
	}
	for i := 0; i < maxRetries; i++ {
		victim := rng.Intn(n)
		if victim == w.id {
			continue
		}
		if j := w.pool.workers[victim].dq.steal(); j != nil {
			w.pool.hooks.JobStolen()
			return j
		}
	}
	return nil
}

func (w *worker) park() {
	atomic.AddInt64(&w.parks, 1)
	w.pool.hooks.WorkerParked()
	select {
	case <-w.pool.wake:
	case <-time.After(time.Millisecond):
	}
}

func (w *worker) execute(j *job) {
	if j.isCanceled() {
		j.finish(StateCanceled, nil)
		w.pool.completeDependents(j)
		return
	}

	j.mu.Lock()
	j.state = StateRunning
	j.mu.Unlock()

	start := time.Now()
	err := runJobSafely(j)
	if err != nil {
		if _, ok := err.(*Failed); ok {
			w.pool.hooks.JobFailed()
		}
		j.finish(StateFailed, err)
	} else {
		j.finish(StateCompleted, nil)
		w.pool.hooks.JobCompleted(time.Since(start))
	}
	w.pool.completeDependents(j)
}

func runJobSafely(j *job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &Failed{Recovered: r}
		}
	}()
	return j.run()
}

// completeDependents decrements every dependent job's pending-dependency
// count and submits any that become Ready.
func (p *Pool) completeDependents(completed *job) {
	for _, dep := range completed.dependents {
		if dep.resolveDependency() {
			p.submitAt(int(dep.id)%len(p.workers), dep)
		}
	}
}

func (p *Pool) allEmpty() bool {
	if p.ring.len() != 0 {
		return false
	}
	for _, w := range p.workers {
		if w.dq.len() != 0 {
			return false
		}
	}
	return true
}
