// Package config loads core configuration from a file plus environment
// variables using viper, following the bind-then-read pattern the retrieval
// pack's service layers use for their own server config (file search path,
// ECSCORE_ environment prefix, explicit defaults before any value is read).
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is every tunable the core's subsystems accept (§6.2 of the
// specification's option table).
type Config struct {
	MaxComponentTypes int `mapstructure:"max_component_types"`
	ChunkPayloadBytes int `mapstructure:"chunk_payload_bytes"`

	WorkerCount   int `mapstructure:"worker_count"`
	DequeCapacity int `mapstructure:"deque_capacity"`
	SpillRingSize int `mapstructure:"spill_ring_size"`

	FrameDeadlineMillis int `mapstructure:"frame_deadline_millis"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	MetricsEnabled bool `mapstructure:"metrics_enabled"`
}

const envPrefix = "ECSCORE"

func defaults() Config {
	return Config{
		MaxComponentTypes:   64,
		ChunkPayloadBytes:   16 * 1024,
		WorkerCount:         0, // 0 means "use runtime.GOMAXPROCS(0)"
		DequeCapacity:       256,
		SpillRingSize:       1024,
		FrameDeadlineMillis: 0, // 0 means "no deadline"
		LogLevel:            "info",
		LogFormat:           "text",
		MetricsEnabled:      true,
	}
}

// Load reads configuration from configPath or, when configPath is empty,
// from the file named by the ECSCORE_CONFIG environment variable (if set),
// then from ECSCORE_-prefixed environment variables, layered over the
// package defaults. At most one file is read. It validates the merged result
// before returning.
func Load(configPath string) (Config, error) {
	v := viper.New()
	cfg := defaults()

	v.SetDefault("max_component_types", cfg.MaxComponentTypes)
	v.SetDefault("chunk_payload_bytes", cfg.ChunkPayloadBytes)
	v.SetDefault("worker_count", cfg.WorkerCount)
	v.SetDefault("deque_capacity", cfg.DequeCapacity)
	v.SetDefault("spill_ring_size", cfg.SpillRingSize)
	v.SetDefault("frame_deadline_millis", cfg.FrameDeadlineMillis)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("metrics_enabled", cfg.MetricsEnabled)

	if configPath == "" {
		configPath = os.Getenv("ECSCORE_CONFIG")
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", configPath, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate enforces the invariants the rest of the core assumes hold before
// any subsystem is constructed (spec.md's MaxComponents ceiling chief among
// them — a config claiming more than 64 types can never be satisfied by a
// Signature).
func (c Config) Validate() error {
	if c.MaxComponentTypes <= 0 || c.MaxComponentTypes > 64 {
		return fmt.Errorf("config: max_component_types must be in (0,64], got %d", c.MaxComponentTypes)
	}
	if c.ChunkPayloadBytes <= 0 {
		return fmt.Errorf("config: chunk_payload_bytes must be positive, got %d", c.ChunkPayloadBytes)
	}
	if c.WorkerCount < 0 {
		return fmt.Errorf("config: worker_count must be >= 0, got %d", c.WorkerCount)
	}
	if c.DequeCapacity <= 0 {
		return fmt.Errorf("config: deque_capacity must be positive, got %d", c.DequeCapacity)
	}
	if c.SpillRingSize <= 0 {
		return fmt.Errorf("config: spill_ring_size must be positive, got %d", c.SpillRingSize)
	}
	if c.FrameDeadlineMillis < 0 {
		return fmt.Errorf("config: frame_deadline_millis must be >= 0, got %d", c.FrameDeadlineMillis)
	}
	return nil
}

// Default returns the package defaults without touching any file or
// environment variable, for tests and embedders that configure
// programmatically.
func Default() Config { return defaults() }
