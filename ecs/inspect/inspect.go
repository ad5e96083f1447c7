// Package inspect renders a live World as plain text: world and system
// statistics, a component census, the live query contexts and a paged node
// table. It also reads and edits single components by field name.
//
// An Inspector is an ordinary system. Adding it to a world makes it write a
// report every interval during the Render phase, paused or not.
package inspect

import (
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/plus3/ignite/ecs"
)

// Section selects the parts of a report.
type Section uint8

const (
	SectionStats Section = 1 << iota
	SectionCensus
	SectionContexts
	SectionNodes

	SectionAll = SectionStats | SectionCensus | SectionContexts | SectionNodes
)

const (
	defaultInterval  = time.Second
	defaultHistory   = 120
	defaultCellWidth = 48
	defaultPageSize  = 100
)

// Inspector is a Render system writing periodic reports to an io.Writer.
type Inspector struct {
	out       io.Writer
	interval  time.Duration
	sections  Section
	cellWidth int
	browser   NodeBrowser
	history   *FrameHistory

	elapsed time.Duration
	reports int
	err     error
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithInterval sets the time between reports. Zero writes one every frame.
func WithInterval(d time.Duration) Option {
	return func(in *Inspector) { in.interval = d }
}

// WithSections limits reports to the given sections.
func WithSections(s Section) Option {
	return func(in *Inspector) { in.sections = s }
}

// WithCellWidth truncates table cells to width display columns.
func WithCellWidth(width int) Option {
	return func(in *Inspector) { in.cellWidth = width }
}

// WithNodeBrowser replaces the browser used for the node section.
func WithNodeBrowser(browser NodeBrowser) Option {
	return func(in *Inspector) { in.browser = browser }
}

// WithHistory sets the number of frames averaged for frame timing.
func WithHistory(frames int) Option {
	return func(in *Inspector) { in.history = NewFrameHistory(frames) }
}

// New creates an Inspector writing every section once a second.
func New(out io.Writer, opts ...Option) *Inspector {
	in := &Inspector{
		out:       out,
		interval:  defaultInterval,
		sections:  SectionAll,
		cellWidth: defaultCellWidth,
		browser:   NodeBrowser{PageSize: defaultPageSize},
		history:   NewFrameHistory(defaultHistory),
	}
	for _, opt := range opts {
		opt(in)
	}
	in.browser.CellWidth = in.cellWidth
	return in
}

// IgnorePause keeps reports coming while the world is paused.
func (in *Inspector) IgnorePause() bool { return true }

// Render records the frame time and writes a report once the interval has
// elapsed. After a write error the Inspector stops reporting.
func (in *Inspector) Render(frame *ecs.UpdateFrame) {
	dt := time.Duration(frame.DeltaTime * float64(time.Second))
	in.history.Record(dt)
	in.elapsed += dt

	if in.err != nil || in.elapsed < in.interval {
		return
	}
	in.elapsed = 0
	if err := in.Report(frame.World); err != nil {
		in.err = err
		frame.World.Logger().Warn("inspector stopped", zap.Error(err))
	}
}

// Exit writes a final report.
func (in *Inspector) Exit(frame *ecs.UpdateFrame) {
	if in.err == nil {
		in.err = in.Report(frame.World)
	}
}

// Report writes the configured sections for world.
func (in *Inspector) Report(world *ecs.World) error {
	in.reports++
	if _, err := fmt.Fprintf(in.out, "=== report %d ===\n", in.reports); err != nil {
		return err
	}

	sections := []struct {
		section Section
		title   string
		write   func() error
	}{
		{SectionStats, "stats", func() error { return WriteStats(in.out, world, in.history, in.cellWidth) }},
		{SectionCensus, "components", func() error { return WriteCensus(in.out, world, in.cellWidth) }},
		{SectionContexts, "contexts", func() error { return WriteContexts(in.out, world, in.cellWidth) }},
		{SectionNodes, "nodes", func() error { return in.browser.Write(in.out, world) }},
	}
	for _, s := range sections {
		if in.sections&s.section == 0 {
			continue
		}
		if _, err := fmt.Fprintf(in.out, "\n-- %s --\n", s.title); err != nil {
			return err
		}
		if err := s.write(); err != nil {
			return err
		}
	}
	return nil
}

// Reports returns the number of reports written.
func (in *Inspector) Reports() int { return in.reports }

// Err returns the write error that stopped the Inspector, if any.
func (in *Inspector) Err() error { return in.err }

// Browser returns the node browser so callers can change its filter, sort
// order or page between reports.
func (in *Inspector) Browser() *NodeBrowser { return &in.browser }
