// Package logging wraps zap the way the upstream library wraps a logger:
// a single process-wide instance, named per component, sugared for the
// printf-style call sites the rest of the tree uses.
package logging

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu   sync.Mutex
	base *zap.SugaredLogger
)

// Init configures the process-wide logger. level is one of
// "debug", "info", "warn", "error". Safe to call once at process start;
// subsequent calls replace the global instance (used in tests).
func Init(level string, development bool) error {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return err
	}
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	mu.Lock()
	base = l.Sugar()
	mu.Unlock()
	return nil
}

// Named returns a sub-logger scoped to component, e.g. Named("keygen").
// Falls back to a no-op logger if Init has not been called yet, so
// library code and tests never need a nil check.
func Named(component string) *zap.SugaredLogger {
	mu.Lock()
	l := base
	mu.Unlock()
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	return l.Named(component)
}
