package inspect

import (
	"cmp"
	"io"
	"reflect"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/plus3/ignite/ecs"
)

// FrameHistory is a ring of the most recent frame times.
type FrameHistory struct {
	samples []time.Duration
	next    int
	count   int
}

// NewFrameHistory keeps the last size frames.
func NewFrameHistory(size int) *FrameHistory {
	return &FrameHistory{samples: make([]time.Duration, max(size, 1))}
}

// Record adds a frame time, evicting the oldest once full.
func (h *FrameHistory) Record(d time.Duration) {
	h.samples[h.next] = d
	h.next = (h.next + 1) % len(h.samples)
	h.count = min(h.count+1, len(h.samples))
}

// Len returns the number of recorded frames.
func (h *FrameHistory) Len() int { return h.count }

// Average returns the mean of the recorded frames.
func (h *FrameHistory) Average() time.Duration {
	if h.count == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range h.samples[:h.count] {
		total += d
	}
	return total / time.Duration(h.count)
}

// Max returns the slowest recorded frame.
func (h *FrameHistory) Max() time.Duration {
	var slowest time.Duration
	for _, d := range h.samples[:h.count] {
		slowest = max(slowest, d)
	}
	return slowest
}

// FrameTimer measures wall time between calls to Delta.
type FrameTimer struct {
	lastFrameTime time.Time
}

func NewFrameTimer() *FrameTimer {
	return &FrameTimer{
		lastFrameTime: time.Now(),
	}
}

// Delta returns the time since the previous call, or since NewFrameTimer.
func (ft *FrameTimer) Delta() time.Duration {
	now := time.Now()
	delta := now.Sub(ft.lastFrameTime)
	ft.lastFrameTime = now
	return delta
}

// WriteStats writes world totals, frame timing from history when non-nil,
// the singletons held by the root and a per-system table.
func WriteStats(w io.Writer, world *ecs.World, history *FrameHistory, cellWidth int) error {
	p := message.NewPrinter(language.English)
	stats := world.Stats()

	var b strings.Builder
	p.Fprintf(&b, "Nodes: %d\n", stats.NodeCount)
	p.Fprintf(&b, "Contexts: %d\n", stats.ContextCount)
	p.Fprintf(&b, "Systems: %d (%d active)\n", stats.SystemCount, stats.ActiveSystems)
	p.Fprintf(&b, "Executions: %d\n", stats.TotalExecutions)
	if stats.Paused {
		b.WriteString("Paused\n")
	}
	if history != nil && history.Len() > 0 {
		avg := history.Average()
		fps := 0.0
		if avg > 0 {
			fps = float64(time.Second) / float64(avg)
		}
		p.Fprintf(&b, "Avg Frame Time: %v (%.0f FPS), max %v\n", avg, fps, history.Max())
	}

	registry := world.Registry()
	var singletons []string
	for _, index := range world.Root().ComponentIndices() {
		if t := registry.TypeOf(index); t != reflect.TypeFor[ecs.Name]() {
			singletons = append(singletons, componentName(t))
		}
	}
	if len(singletons) > 0 {
		p.Fprintf(&b, "Singletons: %s\n", strings.Join(singletons, ", "))
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	systems := slices.Clone(stats.Systems)
	slices.SortStableFunc(systems, func(a, b ecs.SystemStats) int {
		return cmp.Compare(b.TotalDuration, a.TotalDuration)
	})

	t := newTable(cellWidth, "System", "Active", "Runs", "Avg", "Max", "Last")
	for _, s := range systems {
		active := "yes"
		if !s.Active {
			active = "no"
		}
		t.append(
			p.Sprintf("%s#%d", s.Name, s.Id),
			active,
			p.Sprintf("%d", s.ExecutionCount),
			s.AvgDuration.String(),
			s.MaxDuration.String(),
			s.LastDuration.String(),
		)
	}
	return t.write(w)
}
