package ecs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// SchedulerStats provides statistics about a world's system execution.
type SchedulerStats struct {
	SystemCount     int
	ActiveSystems   int
	NodeCount       int
	ContextCount    int
	Paused          bool
	TotalExecutions int64
	Systems         []SystemStats
}

// SystemStats provides execution statistics for a single system across the
// Update, FixedUpdate, Render and Exit phases.
type SystemStats struct {
	Id             SystemId
	Name           string
	Active         bool // enabled and not held back by a pause
	ExecutionCount int64
	MinDuration    time.Duration
	MaxDuration    time.Duration
	AvgDuration    time.Duration
	LastDuration   time.Duration
	TotalDuration  time.Duration
}

type systemStatsInternal struct {
	name           string
	executionCount int64
	minDuration    time.Duration
	maxDuration    time.Duration
	totalDuration  time.Duration
	lastDuration   time.Duration
}

func newSystemStats(name string) systemStatsInternal {
	return systemStatsInternal{
		name:        name,
		minDuration: time.Duration(1<<63 - 1),
	}
}

func (s *systemStatsInternal) record(duration time.Duration) {
	s.executionCount++
	s.lastDuration = duration
	s.totalDuration += duration

	if duration < s.minDuration {
		s.minDuration = duration
	}
	if duration > s.maxDuration {
		s.maxDuration = duration
	}
}

// Stats returns statistics about system execution, in registration order.
func (w *World) Stats() *SchedulerStats {
	stats := &SchedulerStats{
		SystemCount:  len(w.order),
		NodeCount:    w.nodes.Len(),
		ContextCount: len(w.contextList),
		Paused:       w.paused,
		Systems:      make([]SystemStats, len(w.order)),
	}

	var totalExecs int64
	for i, e := range w.order {
		internal := &e.stats
		avgDuration := time.Duration(0)
		minDuration := time.Duration(0)
		if internal.executionCount > 0 {
			avgDuration = internal.totalDuration / time.Duration(internal.executionCount)
			minDuration = internal.minDuration
		}

		running := e.active && !(w.paused && e.pausable())
		stats.Systems[i] = SystemStats{
			Id:             e.id,
			Name:           internal.name,
			Active:         running,
			ExecutionCount: internal.executionCount,
			MinDuration:    minDuration,
			MaxDuration:    internal.maxDuration,
			AvgDuration:    avgDuration,
			LastDuration:   internal.lastDuration,
			TotalDuration:  internal.totalDuration,
		}
		if running {
			stats.ActiveSystems++
		}
		totalExecs += internal.executionCount
	}

	stats.TotalExecutions = totalExecs
	return stats
}

// Tick runs one frame of dt seconds: as many FixedUpdate steps as the fixed
// timestep accumulator allows (at most Settings.MaxFixedSteps), then Update,
// then Render. It returns the accumulator carried to the next frame.
func (w *World) Tick(dt float64, accumulator time.Duration) time.Duration {
	step := w.settings.FixedTimestep
	accumulator += time.Duration(dt * float64(time.Second))

	if step > 0 {
		steps := 0
		for accumulator >= step && steps < w.settings.MaxFixedSteps {
			w.FixedUpdate(step.Seconds())
			accumulator -= step
			steps++
		}
		if accumulator >= step {
			// Drop the backlog instead of spiralling.
			accumulator %= step
		}
	}

	w.Update(dt)
	w.Render(dt)
	return accumulator
}

// Run starts the world and ticks it at the given interval until ctx is
// cancelled, then exits it. A non-positive interval uses
// Settings.TickInterval.
func (w *World) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = w.settings.TickInterval
	}
	w.Start()
	defer w.Exit()

	w.logger.Debug("world running", zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	lastTime := time.Now()
	var accumulator time.Duration

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			dt := now.Sub(lastTime).Seconds()
			lastTime = now
			accumulator = w.Tick(dt, accumulator)
		}
	}
}
