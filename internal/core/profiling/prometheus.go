package profiling

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusHooks implements Hooks by recording into a set of Prometheus
// collectors, following the teacher pack's service-layer metrics package
// shape: one struct of collectors built in a constructor, registered against
// either the default or a caller-supplied Registerer.
type PrometheusHooks struct {
	entitiesCreated   prometheus.Counter
	entitiesDestroyed prometheus.Counter
	migrations        *prometheus.HistogramVec
	chunksAllocated   prometheus.Counter
	chunksReleased    prometheus.Counter

	jobsSubmitted *prometheus.CounterVec
	jobsStolen    prometheus.Counter
	jobDuration   prometheus.Histogram
	jobsFailed    prometheus.Counter
	workerParks   prometheus.Counter

	framesStarted     prometheus.Counter
	frameDuration     prometheus.Histogram
	frameSkipped      prometheus.Histogram
	systemDuration    *prometheus.HistogramVec
}

// NewPrometheusHooks builds and registers every collector against
// prometheus.DefaultRegisterer.
func NewPrometheusHooks() *PrometheusHooks {
	return NewPrometheusHooksWithRegistry(prometheus.DefaultRegisterer)
}

// NewPrometheusHooksWithRegistry builds and registers every collector
// against registerer, so tests can use a private prometheus.NewRegistry()
// instead of mutating process-global state.
func NewPrometheusHooksWithRegistry(registerer prometheus.Registerer) *PrometheusHooks {
	h := &PrometheusHooks{
		entitiesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecscore_entities_created_total",
			Help: "Total number of entities created.",
		}),
		entitiesDestroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecscore_entities_destroyed_total",
			Help: "Total number of entities destroyed.",
		}),
		migrations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ecscore_archetype_migration_width",
			Help:    "Component count of the destination archetype of a migration.",
			Buckets: prometheus.LinearBuckets(1, 4, 8),
		}, []string{"direction"}),
		chunksAllocated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecscore_chunks_allocated_total",
			Help: "Total number of archetype chunks allocated.",
		}),
		chunksReleased: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecscore_chunks_released_total",
			Help: "Total number of archetype chunks released back for GC.",
		}),
		jobsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ecscore_jobs_submitted_total",
			Help: "Total number of jobs submitted to the scheduler, by priority.",
		}, []string{"priority"}),
		jobsStolen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecscore_jobs_stolen_total",
			Help: "Total number of jobs taken by a stealing worker rather than their owner.",
		}),
		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ecscore_job_duration_seconds",
			Help:    "Wall-clock duration of completed jobs.",
			Buckets: prometheus.DefBuckets,
		}),
		jobsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecscore_jobs_failed_total",
			Help: "Total number of jobs that panicked during execution.",
		}),
		workerParks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecscore_worker_parks_total",
			Help: "Total number of times a worker parked after failing to find work.",
		}),
		framesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ecscore_frames_started_total",
			Help: "Total number of scheduler frames started.",
		}),
		frameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ecscore_frame_duration_seconds",
			Help:    "Wall-clock duration of completed frames.",
			Buckets: prometheus.DefBuckets,
		}),
		frameSkipped: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ecscore_frame_skipped_systems",
			Help:    "Number of systems skipped by a frame due to missing its deadline.",
			Buckets: prometheus.LinearBuckets(0, 1, 10),
		}),
		systemDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ecscore_system_duration_seconds",
			Help:    "Wall-clock duration of one system's execution within a frame.",
			Buckets: prometheus.DefBuckets,
		}, []string{"system"}),
	}

	collectors := []prometheus.Collector{
		h.entitiesCreated, h.entitiesDestroyed, h.migrations, h.chunksAllocated,
		h.chunksReleased, h.jobsSubmitted, h.jobsStolen, h.jobDuration,
		h.jobsFailed, h.workerParks, h.framesStarted, h.frameDuration,
		h.frameSkipped, h.systemDuration,
	}
	for _, c := range collectors {
		registerer.MustRegister(c)
	}
	return h
}

func (h *PrometheusHooks) EntityCreated()   { h.entitiesCreated.Inc() }
func (h *PrometheusHooks) EntityDestroyed() { h.entitiesDestroyed.Inc() }

func (h *PrometheusHooks) ArchetypeMigration(fromSignatureLen, toSignatureLen int) {
	direction := "grow"
	if toSignatureLen < fromSignatureLen {
		direction = "shrink"
	}
	h.migrations.WithLabelValues(direction).Observe(float64(toSignatureLen))
}

func (h *PrometheusHooks) ChunkAllocated() { h.chunksAllocated.Inc() }
func (h *PrometheusHooks) ChunkReleased()  { h.chunksReleased.Inc() }

func (h *PrometheusHooks) JobSubmitted(priority int) {
	h.jobsSubmitted.WithLabelValues(strconv.Itoa(priority)).Inc()
}
func (h *PrometheusHooks) JobStolen() { h.jobsStolen.Inc() }
func (h *PrometheusHooks) JobCompleted(d time.Duration) {
	h.jobDuration.Observe(d.Seconds())
}
func (h *PrometheusHooks) JobFailed()     { h.jobsFailed.Inc() }
func (h *PrometheusHooks) WorkerParked() { h.workerParks.Inc() }

func (h *PrometheusHooks) FrameStarted() { h.framesStarted.Inc() }
func (h *PrometheusHooks) FrameCompleted(d time.Duration, skippedSystems int) {
	h.frameDuration.Observe(d.Seconds())
	h.frameSkipped.Observe(float64(skippedSystems))
}
func (h *PrometheusHooks) SystemExecuted(name string, d time.Duration) {
	h.systemDuration.WithLabelValues(name).Observe(d.Seconds())
}

var _ Hooks = (*PrometheusHooks)(nil)
