package parallel

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totodo713/ecscore/internal/core/ecs"
	"github.com/totodo713/ecscore/internal/core/job"
	"github.com/totodo713/ecscore/internal/core/profiling"
)

func newTestScheduler(t *testing.T, deadline time.Duration) (*Scheduler, *ecs.Registry, *job.Scheduler) {
	t.Helper()
	reg := ecs.NewRegistry(ecs.NewComponentTypeRegistry())
	jobs := job.NewScheduler(2, 32, 128, profiling.NoopHooks{})
	t.Cleanup(jobs.Close)
	return NewScheduler(reg, jobs, profiling.NoopHooks{}, deadline), reg, jobs
}

func Test_Scheduler_RunFrameExecutesAllSystems(t *testing.T) {
	// Arrange
	s, _, _ := newTestScheduler(t, 0)
	var ran int32
	require.NoError(t, s.Register(System{
		ID: "counter",
		Run: func(*ecs.Registry, interface{}) error {
			atomic.AddInt32(&ran, 1)
			return nil
		},
	}))

	// Act
	outcome := s.RunFrame(context.Background(), nil)

	// Assert
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
	require.Len(t, outcome.Systems, 1)
	assert.NoError(t, outcome.Systems[0].Err)
	assert.False(t, outcome.DeadlineMissed)
}

func Test_Scheduler_ConflictingSystemsRunInSeparateWaves(t *testing.T) {
	// Arrange
	s, _, _ := newTestScheduler(t, 0)
	a := ecs.NewSignature(1)
	var order []string
	require.NoError(t, s.Register(System{
		ID:     "writer",
		Access: AccessDeclaration{Writes: a},
		Run: func(*ecs.Registry, interface{}) error {
			order = append(order, "writer")
			return nil
		},
	}))
	require.NoError(t, s.Register(System{
		ID:     "reader",
		Access: AccessDeclaration{Reads: a},
		Run: func(*ecs.Registry, interface{}) error {
			order = append(order, "reader")
			return nil
		},
	}))

	// Act
	outcome := s.RunFrame(context.Background(), nil)

	// Assert: waves run sequentially, so writer must have appended before reader.
	require.Len(t, s.Plan().Waves, 2)
	require.Len(t, order, 2)
	assert.Equal(t, []string{"writer", "reader"}, order)
	assert.False(t, outcome.DeadlineMissed)
}

func Test_Scheduler_FrameDeadlineSkipsLaterWaves(t *testing.T) {
	// Arrange
	s, _, _ := newTestScheduler(t, 5*time.Millisecond)
	a := ecs.NewSignature(1)
	require.NoError(t, s.Register(System{
		ID:     "slow",
		Access: AccessDeclaration{Writes: a},
		Run: func(*ecs.Registry, interface{}) error {
			time.Sleep(50 * time.Millisecond)
			return nil
		},
	}))
	require.NoError(t, s.Register(System{
		ID:     "fast",
		Access: AccessDeclaration{Reads: a},
		Run:    func(*ecs.Registry, interface{}) error { return nil },
	}))

	// Act
	outcome := s.RunFrame(context.Background(), nil)

	// Assert
	assert.True(t, outcome.DeadlineMissed)
	var sawSkipped bool
	for _, so := range outcome.Systems {
		if so.ID == "fast" {
			sawSkipped = so.Skipped
		}
	}
	assert.True(t, sawSkipped)
}

func Test_Scheduler_SystemErrorReportedWithoutAbortingFrame(t *testing.T) {
	// Arrange
	s, _, _ := newTestScheduler(t, 0)
	require.NoError(t, s.Register(System{
		ID:  "failing",
		Run: func(*ecs.Registry, interface{}) error { panic("boom") },
	}))

	// Act
	outcome := s.RunFrame(context.Background(), nil)

	// Assert
	require.Len(t, outcome.Systems, 1)
	assert.Error(t, outcome.Systems[0].Err)
}
