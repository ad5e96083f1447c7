package ecs

import (
	"slices"
	"time"

	"github.com/kamstrup/intmap"
	"go.uber.org/zap"
)

// WorldFunc is the handler signature for world events.
type WorldFunc func(w *World)

// World owns the node tree, the component registry, the systems and their
// query contexts, and drives the Start, Update, FixedUpdate, Render and Exit
// phases.
//
// A World is not safe for concurrent use. Every phase runs to completion on
// the calling goroutine.
type World struct {
	registry *ComponentRegistry
	settings Settings
	logger   *zap.Logger

	ids      idGenerator
	root     *Node
	nodes    *intmap.Map[NodeId, *Node]
	doomed   []*Node
	commands *Commands

	systems        map[SystemId]*systemEntry
	order          []*systemEntry
	phases         [phaseCount][]*systemEntry
	phasesDirty    bool
	nextSystemId   SystemId
	pendingAdds    []*systemEntry
	pendingRemoves []*systemEntry
	pendingToggles []*systemEntry

	contexts    map[ContextId][]*Context
	contextList []*Context

	started bool
	paused  bool
	exited  bool
	passes  int

	pausedSignal    Signal[WorldFunc]
	resumedSignal   Signal[WorldFunc]
	destroyedSignal Signal[WorldFunc]
}

// Option configures a World.
type Option func(*World)

// WithLogger sets the logger used for world events. The logger is named
// "ecs". The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(w *World) {
		w.logger = logger.Named("ecs")
	}
}

// WithSettings replaces DefaultSettings.
func WithSettings(settings *Settings) Option {
	return func(w *World) {
		w.settings = *settings
	}
}

// NewWorld creates a world over registry and adds systems in order.
//
// Example usage:
//
//	registry := ecs.NewComponentRegistry()
//	ecs.RegisterComponent[Position](registry)
//	ecs.RegisterComponent[Velocity](registry, reflect.TypeFor[Position]())
//
//	world := ecs.NewWorld(registry, []ecs.System{&MovementSystem{}})
//	world.NewNode("ship", &Velocity{DX: 1})
//	world.Start()
//	world.Update(1.0 / 60)
func NewWorld(registry *ComponentRegistry, systems []System, opts ...Option) *World {
	w := &World{
		registry: registry,
		settings: DefaultSettings(),
		logger:   zap.NewNop(),
		nodes:    intmap.New[NodeId, *Node](1024),
		systems:  make(map[SystemId]*systemEntry),
		contexts: make(map[ContextId][]*Context),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.commands = newCommands(w)

	w.root = newNode(w, w.ids.next())
	w.root.AddComponent(&Name{Value: "root"})

	for _, s := range systems {
		w.AddSystemNow(s)
	}
	return w
}

// Registry returns the world's component registry.
func (w *World) Registry() *ComponentRegistry { return w.registry }

// Settings returns the world's settings.
func (w *World) Settings() Settings { return w.settings }

// Logger returns the world's logger.
func (w *World) Logger() *zap.Logger { return w.logger }

// Root returns the root of the node tree. Nodes created without a parent
// are attached to it. The root is never a member of any context.
func (w *World) Root() *Node { return w.root }

// Commands returns the world's deferred command buffer.
func (w *World) Commands() *Commands { return w.commands }

// IsStarted reports whether Start has run.
func (w *World) IsStarted() bool { return w.started }

// IsPaused reports whether the world is paused.
func (w *World) IsPaused() bool { return w.paused }

// IsExited reports whether Exit has run.
func (w *World) IsExited() bool { return w.exited }

// World events.
func (w *World) OnPaused() *Signal[WorldFunc]    { return &w.pausedSignal }
func (w *World) OnResumed() *Signal[WorldFunc]   { return &w.resumedSignal }
func (w *World) OnDestroyed() *Signal[WorldFunc] { return &w.destroyedSignal }

// Node returns the live node with the given ID.
func (w *World) Node(id NodeId) (*Node, bool) {
	return w.nodes.Get(id)
}

// NodeCount returns the number of live nodes, not counting the root.
func (w *World) NodeCount() int {
	return w.nodes.Len()
}

// Nodes returns every live node except the root, ordered by ID.
func (w *World) Nodes() []*Node {
	nodes := make([]*Node, 0, w.nodes.Len())
	w.nodes.ForEach(func(_ NodeId, n *Node) bool {
		nodes = append(nodes, n)
		return true
	})
	slices.SortFunc(nodes, func(a, b *Node) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})
	return nodes
}

// registerNode records n and offers it to every context.
func (w *World) registerNode(n *Node) {
	w.nodes.Put(n.id, n)
	for _, ctx := range w.contextList {
		if !ctx.disposed {
			ctx.TryRegisterNode(n)
		}
	}
}

func (w *World) unregisterNode(n *Node) {
	if _, ok := w.nodes.Get(n.id); !ok {
		return
	}
	w.nodes.Del(n.id)
	w.logger.Debug("node destroyed",
		zap.Uint64("node_id", uint64(n.id)),
		zap.String("name", n.Name()),
	)
}

func (w *World) tagForDestroy(n *Node) {
	w.doomed = append(w.doomed, n)
}

// destroyPendingNodes finalizes every node destroyed so far, including the
// ones destroyed by handlers while finalizing.
func (w *World) destroyPendingNodes() {
	for len(w.doomed) > 0 {
		doomed := w.doomed
		w.doomed = nil
		for _, n := range doomed {
			n.finalize()
		}
	}
}

// Start runs every active Start system once, in registration order.
// Calling it again does nothing.
func (w *World) Start() {
	if w.started || w.exited {
		return
	}
	w.applyPendingSystems()
	w.started = true
	w.logger.Debug("world started", zap.Int("systems", len(w.order)))

	frame := newUpdateFrame(0, w)
	for _, e := range w.order {
		if e.active && e.phases.has(phaseStart) && !e.started {
			w.startSystem(e, frame)
		}
	}
}

// Update runs every active Update system in registration order, skipping
// pausable systems while the world is paused. After the pass it flushes the
// command buffer, finalizes destroyed nodes and applies queued system
// changes.
func (w *World) Update(dt float64) {
	if w.exited {
		return
	}
	frame := newUpdateFrame(dt, w)
	w.beginPass()
	for _, e := range w.phaseList(phaseUpdate) {
		if w.paused && e.pausable() {
			continue
		}
		w.runSystem(phaseUpdate, e, frame)
	}
	w.endPass()

	w.commands.Flush()
	w.destroyPendingNodes()
	w.applyPendingSystems()
	w.applyPendingToggles()
}

// FixedUpdate runs every active FixedUpdate system in registration order.
func (w *World) FixedUpdate(dt float64) {
	if w.exited {
		return
	}
	frame := newUpdateFrame(dt, w)
	w.beginPass()
	for _, e := range w.phaseList(phaseFixedUpdate) {
		w.runSystem(phaseFixedUpdate, e, frame)
	}
	w.endPass()
}

// Render runs every active Render system in registration order.
func (w *World) Render(dt float64) {
	if w.exited {
		return
	}
	frame := newUpdateFrame(dt, w)
	w.beginPass()
	for _, e := range w.phaseList(phaseRender) {
		w.runSystem(phaseRender, e, frame)
	}
	w.endPass()
}

// Exit runs every registered Exit system once, whether or not it is
// currently enabled, destroys the whole node tree and fires OnDestroyed. Only the first call has any effect; every phase is a
// no-op afterwards.
func (w *World) Exit() {
	if w.exited {
		return
	}
	w.exited = true
	w.logger.Debug("world exiting", zap.Int("nodes", w.nodes.Len()))

	frame := newUpdateFrame(0, w)
	w.beginPass()
	for _, e := range w.order {
		if e.removed || !e.phases.has(phaseExit) {
			continue
		}
		w.recordSystem(phaseExit, e, frame)
	}
	w.endPass()

	w.commands.Flush()
	w.root.Destroy()
	w.destroyPendingNodes()

	w.destroyedSignal.Emit(func(fn WorldFunc) { fn(w) })
	w.pausedSignal.Clear()
	w.resumedSignal.Clear()
	w.destroyedSignal.Clear()
}

// Pause stops the pausable systems: those implementing Updatable that do
// not ignore pause. Only their Update phase is skipped; Start, FixedUpdate,
// Render and Exit keep running. Pausing an already paused world does
// nothing.
func (w *World) Pause() {
	if w.paused || w.exited {
		return
	}
	w.paused = true
	w.logger.Debug("world paused")
	w.pausedSignal.Emit(func(fn WorldFunc) { fn(w) })
}

// Resume lets the pausable systems update again and re-enables any
// pause-ignoring system that was disabled meanwhile. Resuming a world that
// is not paused does nothing.
func (w *World) Resume() {
	if !w.paused || w.exited {
		return
	}
	w.paused = false
	for _, e := range w.order {
		if e.ignorePause {
			w.toggle(e, true, true)
		}
	}
	w.logger.Debug("world resumed")
	w.resumedSignal.Emit(func(fn WorldFunc) { fn(w) })
}

// phaseList returns the active systems of a phase in registration order.
// The slice is rebuilt, never modified, when systems change.
func (w *World) phaseList(p phase) []*systemEntry {
	if w.phasesDirty {
		for i := range w.phases {
			w.phases[i] = nil
		}
		for _, e := range w.order {
			if !e.active {
				continue
			}
			for q := phase(0); q < phaseCount; q++ {
				if e.phases.has(q) {
					w.phases[q] = append(w.phases[q], e)
				}
			}
		}
		w.phasesDirty = false
	}
	return w.phases[p]
}

func (w *World) runSystem(p phase, e *systemEntry, frame *UpdateFrame) {
	if !e.active || e.removed {
		return
	}
	w.recordSystem(p, e, frame)
}

func (w *World) recordSystem(p phase, e *systemEntry, frame *UpdateFrame) {
	frame.System = e.id
	frame.Context = e.ctx

	start := time.Now()
	runPhase(p, e.system, frame)
	e.stats.record(time.Since(start))
}

func (w *World) startSystem(e *systemEntry, frame *UpdateFrame) {
	e.started = true
	frame.System = e.id
	frame.Context = e.ctx
	runPhase(phaseStart, e.system, frame)
}

// beginPass freezes context snapshots against destruction: nodes destroyed
// while a phase runs stay in Nodes until the outermost pass ends.
func (w *World) beginPass() {
	w.passes++
}

func (w *World) endPass() {
	w.passes--
	if w.passes > 0 {
		return
	}
	for _, ctx := range w.contextList {
		ctx.releaseLingering()
	}
}

func (w *World) inPass() bool { return w.passes > 0 }
