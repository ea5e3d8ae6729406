package profiling

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_PrometheusHooks_EntityCreatedIncrementsCounter(t *testing.T) {
	// Arrange
	reg := prometheus.NewRegistry()
	h := NewPrometheusHooksWithRegistry(reg)

	// Act
	h.EntityCreated()
	h.EntityCreated()

	// Assert
	assert.Equal(t, 2.0, counterValue(t, h.entitiesCreated))
}

func Test_PrometheusHooks_JobCompletedObservesDuration(t *testing.T) {
	// Arrange
	reg := prometheus.NewRegistry()
	h := NewPrometheusHooksWithRegistry(reg)

	// Act
	h.JobCompleted(10 * time.Millisecond)

	// Assert
	var m dto.Metric
	require.NoError(t, h.jobDuration.Write(&m))
	assert.Equal(t, uint64(1), m.GetHistogram().GetSampleCount())
}

func Test_NoopHooks_SatisfiesInterfaceWithoutPanicking(t *testing.T) {
	// Arrange
	var h Hooks = NoopHooks{}

	// Act & Assert: none of these should panic.
	h.EntityCreated()
	h.JobCompleted(time.Second)
	h.FrameCompleted(time.Second, 3)
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}
