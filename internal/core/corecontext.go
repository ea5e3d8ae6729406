// Package core wires the ecs registry, job scheduler, and parallel scheduler
// together behind a single explicit context value, so none of those
// subsystems ever reaches for a package-level global (Design Notes §9).
package core

import (
	"github.com/sirupsen/logrus"

	"github.com/totodo713/ecscore/config"
	"github.com/totodo713/ecscore/internal/core/ecs"
	"github.com/totodo713/ecscore/internal/core/logging"
	"github.com/totodo713/ecscore/internal/core/profiling"
)

// Context bundles the dependencies every core constructor needs: a logger, a
// profiling hook set, the component type registry, and the resolved config.
// Callers build one Context and hand its fields to ecs.NewRegistry (see
// NewRegistry below), job.NewPool / job.NewScheduler, and
// parallel.NewScheduler, whose parameters are those individual values;
// none of those constructors reaches for globals.
type Context struct {
	Logger     *logrus.Logger
	Hooks      profiling.Hooks
	Components *ecs.ComponentTypeRegistry
	Config     config.Config
}

// NewContext builds a Context from cfg, constructing a fresh component
// registry and, when cfg.MetricsEnabled, a Prometheus-backed Hooks
// implementation (profiling.NoopHooks otherwise).
func NewContext(cfg config.Config) *Context {
	var hooks profiling.Hooks = profiling.NoopHooks{}
	if cfg.MetricsEnabled {
		hooks = profiling.NewPrometheusHooks()
	}
	return &Context{
		Logger:     logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}),
		Hooks:      hooks,
		Components: ecs.NewComponentTypeRegistry(),
		Config:     cfg,
	}
}

// NewRegistry builds an ecs.Registry bound to this Context's component
// registry and configured chunk payload size.
func (c *Context) NewRegistry() *ecs.Registry {
	return ecs.NewRegistry(c.Components,
		ecs.WithChunkPayloadBytes(c.Config.ChunkPayloadBytes),
		ecs.WithLogger(c.Logger),
	)
}
