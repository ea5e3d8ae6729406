package parallel

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/totodo713/ecscore/internal/core/ecs"
	"github.com/totodo713/ecscore/internal/core/job"
	"github.com/totodo713/ecscore/internal/core/profiling"
)

// Scheduler owns the registered system set, the compiled Plan built from it,
// and dispatches each frame's waves onto a job.Scheduler (spec.md §4.9).
type Scheduler struct {
	registry *ecs.Registry
	jobs     *job.Scheduler
	hooks    profiling.Hooks

	systems []*System
	plan    *Plan

	frameDeadline time.Duration // 0 means unbounded
}

// NewScheduler builds a Scheduler dispatching work for registry onto jobs.
func NewScheduler(registry *ecs.Registry, jobs *job.Scheduler, hooks profiling.Hooks, frameDeadline time.Duration) *Scheduler {
	if hooks == nil {
		hooks = profiling.NoopHooks{}
	}
	return &Scheduler{registry: registry, jobs: jobs, hooks: hooks, frameDeadline: frameDeadline}
}

// Register adds s to the system set and rebuilds the frame plan. Returns
// ScheduleCycleError if the resulting constraint graph has a cycle.
func (s *Scheduler) Register(sys System) error {
	s.systems = append(s.systems, &sys)
	plan, err := buildPlan(s.systems)
	if err != nil {
		s.systems = s.systems[:len(s.systems)-1]
		return err
	}
	s.plan = plan
	return nil
}

// SystemOutcome is one system's result within a frame.
type SystemOutcome struct {
	ID       SystemID
	Err      error
	Skipped  bool
	Duration time.Duration
}

// FrameOutcome is the result of one RunFrame call (spec.md §4.9 "frame
// outcome"): every system's individual outcome plus whether the deadline
// was missed.
type FrameOutcome struct {
	FrameID        string
	Systems        []SystemOutcome
	DeadlineMissed bool
	Duration       time.Duration
}

// RunFrame executes the compiled plan's waves in order, fencing between
// waves, and stops dispatching new waves once ctx's frame deadline has
// elapsed (spec.md §4.9 "Cancellation and timeouts" — still-pending waves
// are skipped and reported, the registry is left unmodified by them).
func (s *Scheduler) RunFrame(ctx context.Context, userCtx interface{}) FrameOutcome {
	start := time.Now()
	s.hooks.FrameStarted()
	outcome := FrameOutcome{FrameID: uuid.NewString()}

	frameCtx := ctx
	var cancel context.CancelFunc
	if s.frameDeadline > 0 {
		frameCtx, cancel = context.WithTimeout(ctx, s.frameDeadline)
		defer cancel()
	}

	skippedCount := 0
	for _, wave := range s.plan.Waves {
		if frameCtx.Err() != nil {
			for _, sys := range wave.Systems {
				outcome.Systems = append(outcome.Systems, SystemOutcome{ID: sys.ID, Skipped: true})
				skippedCount++
			}
			outcome.DeadlineMissed = true
			continue
		}

		// A fence job for the wave: a weighted semaphore initialized to the
		// wave's size, released once per completing system, so waiting for
		// "every system in this wave" is one Acquire(ctx, N) call that also
		// respects the frame deadline (spec.md §4.9 step 3's "fence job").
		fence := semaphore.NewWeighted(int64(len(wave.Systems)))
		if err := fence.Acquire(context.Background(), int64(len(wave.Systems))); err != nil {
			panic("parallel: fence semaphore acquire on fresh weighted semaphore cannot fail")
		}

		handles := make([]job.Handle, len(wave.Systems))
		starts := make([]time.Time, len(wave.Systems))
		for i, sys := range wave.Systems {
			sys := sys
			starts[i] = time.Now()
			handles[i] = s.jobs.Submit(job.PriorityNormal, func() error {
				defer fence.Release(1)
				return sys.Run(s.registry, userCtx)
			})
		}

		fenceErr := fence.Acquire(frameCtx, int64(len(wave.Systems)))
		if fenceErr == nil {
			fence.Release(int64(len(wave.Systems)))
		}

		for i, sys := range wave.Systems {
			var so SystemOutcome
			so.ID = sys.ID
			state := handles[i].State()
			if fenceErr != nil && state != job.StateCompleted && state != job.StateFailed {
				handles[i].Cancel()
				so.Skipped = true
				skippedCount++
			} else {
				so.Err = handles[i].Wait()
				so.Duration = time.Since(starts[i])
				s.hooks.SystemExecuted(string(sys.ID), so.Duration)
			}
			outcome.Systems = append(outcome.Systems, so)
		}
		if fenceErr != nil {
			outcome.DeadlineMissed = true
		}
	}

	outcome.Duration = time.Since(start)
	s.hooks.FrameCompleted(outcome.Duration, skippedCount)
	return outcome
}

// Plan exposes the currently compiled plan, for tests and debug tooling.
func (s *Scheduler) Plan() *Plan { return s.plan }

func (o FrameOutcome) String() string {
	return fmt.Sprintf("frame %s: %d systems, deadline_missed=%v, duration=%s",
		o.FrameID, len(o.Systems), o.DeadlineMissed, o.Duration)
}
