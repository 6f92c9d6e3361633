// Package memory keeps the process heap under a configured ceiling.
package memory

import (
	"context"
	"log/slog"
	"runtime"
	"runtime/debug"
	"time"
)

const (
	DefaultInterval  = 60 * time.Second
	DefaultCeilingMB = 1024
)

// Config controls the governor loop.
type Config struct {
	// Interval between heap checks.
	Interval time.Duration
	// CeilingMB is the heap size that triggers a forced release.
	CeilingMB int
}

// Governor samples heap usage on a ticker and forces memory back to the
// OS when the ceiling is crossed. It is advisory: allocation spikes
// between ticks are not prevented, only reclaimed.
type Governor struct {
	cfg Config
	log *slog.Logger

	// readMemStats and freeMemory are swappable for tests
	readMemStats func(*runtime.MemStats)
	freeMemory   func()
}

// New creates a Governor. Zero config fields fall back to defaults.
func New(cfg Config, logger *slog.Logger) *Governor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.CeilingMB <= 0 {
		cfg.CeilingMB = DefaultCeilingMB
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Governor{
		cfg:          cfg,
		log:          logger,
		readMemStats: runtime.ReadMemStats,
		freeMemory:   debug.FreeOSMemory,
	}
}

// Run blocks, checking the heap every interval until the context is
// cancelled. Callers start it in its own goroutine.
func (g *Governor) Run(ctx context.Context) {
	ticker := time.NewTicker(g.cfg.Interval)
	defer ticker.Stop()

	g.log.Info("memory governor started",
		"interval", g.cfg.Interval,
		"ceiling_mb", g.cfg.CeilingMB)

	for {
		select {
		case <-ctx.Done():
			g.log.Info("memory governor stopped")
			return
		case <-ticker.C:
			g.Check()
		}
	}
}

// Check samples the heap once and releases memory if it exceeds the
// ceiling. It returns whether a release was triggered.
func (g *Governor) Check() bool {
	var stats runtime.MemStats
	g.readMemStats(&stats)

	heapMB := int(stats.HeapAlloc / (1 << 20))
	if heapMB < g.cfg.CeilingMB {
		return false
	}

	g.log.Warn("heap above ceiling, releasing memory",
		"heap_mb", heapMB,
		"ceiling_mb", g.cfg.CeilingMB)
	g.freeMemory()
	return true
}
