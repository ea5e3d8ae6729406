// Package profiling defines the instrumentation surface the job worker pool
// and parallel scheduler call into on their hot paths, and a
// Prometheus-backed implementation of it (spec.md §4.10 "zero overhead when
// disabled").
package profiling

import "time"

// Hooks is the instrumentation surface. The job worker pool calls the Job*
// and WorkerParked methods and the parallel scheduler calls the Frame* and
// SystemExecuted methods; ecs.Registry holds no Hooks, so the entity,
// migration and chunk methods are not called by anything in the core. A Noop
// implementation exists so disabling profiling costs nothing beyond an
// interface call the compiler can usually devirtualize away in a
// single-implementation binary.
type Hooks interface {
	EntityCreated()
	EntityDestroyed()
	ArchetypeMigration(fromSignatureLen, toSignatureLen int)
	ChunkAllocated()
	ChunkReleased()

	JobSubmitted(priority int)
	JobStolen()
	JobCompleted(d time.Duration)
	JobFailed()
	WorkerParked()

	FrameStarted()
	FrameCompleted(d time.Duration, skippedSystems int)
	SystemExecuted(name string, d time.Duration)
}

// NoopHooks discards every call. It is the Hooks implementation used when
// profiling is disabled in Config.
type NoopHooks struct{}

func (NoopHooks) EntityCreated()                                    {}
func (NoopHooks) EntityDestroyed()                                  {}
func (NoopHooks) ArchetypeMigration(fromSignatureLen, toLen int)     {}
func (NoopHooks) ChunkAllocated()                                    {}
func (NoopHooks) ChunkReleased()                                     {}
func (NoopHooks) JobSubmitted(priority int)                          {}
func (NoopHooks) JobStolen()                                         {}
func (NoopHooks) JobCompleted(d time.Duration)                       {}
func (NoopHooks) JobFailed()                                         {}
func (NoopHooks) WorkerParked()                                      {}
func (NoopHooks) FrameStarted()                                      {}
func (NoopHooks) FrameCompleted(d time.Duration, skippedSystems int) {}
func (NoopHooks) SystemExecuted(name string, d time.Duration)        {}

var _ Hooks = NoopHooks{}
