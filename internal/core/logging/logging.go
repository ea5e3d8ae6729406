// Package logging wraps logrus with the small set of conventions the core
// uses: a text formatter for interactive runs, JSON for production, and a
// discard-output logger for tests and benchmarks.
package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Config controls how New builds a *logrus.Logger.
type Config struct {
	Level  string // logrus level name; defaults to "info" on parse failure
	Format string // "json" or "text" (default)
}

// New builds a logrus.Logger per cfg, writing to stdout.
func New(cfg Config) *logrus.Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	l.SetOutput(os.Stdout)
	return l
}

// NewDefault returns a logger at info level with text formatting, for tests
// and call sites that don't load Config from the config package.
func NewDefault() *logrus.Logger {
	return New(Config{Level: "info", Format: "text"})
}

// Noop returns a logger with output discarded, for benchmark and test paths
// that want the real logging call sites exercised without console noise.
func Noop() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(nopWriter{})
	return l
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
