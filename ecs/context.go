package ecs

import (
	"slices"
	"strings"

	"github.com/kamstrup/intmap"
)

// ContextId is the structural identity of a Context's filter. Systems whose
// filters have the same kinds and component indices share one Context.
type ContextId uint64

// Context incrementally tracks the nodes matching a filter. A node is a
// member while it matches the filter, is enabled, and is not pending
// destruction. Membership is driven entirely by node events; the world is
// only scanned once, when the context is created.
type Context struct {
	id     ContextId
	world  *World
	filter resolvedFilter
	adHoc  bool
	refs   int

	tracked     *intmap.Map[NodeId, *tracking]
	members     *intmap.Map[NodeId, *Node]
	lingering   *intmap.Map[NodeId, *Node]
	snapshot    []*Node
	projections map[int]*projection

	nodeAdded         Signal[NodeFunc]
	nodeRemoved       Signal[NodeFunc]
	componentAdded    Signal[ComponentFunc]
	componentRemoved  Signal[ComponentFunc]
	componentModified Signal[ComponentFunc]

	disposed bool
}

// tracking is the context's view of one registered node.
type tracking struct {
	node     *Node
	watching bool
	subs     []Subscription
}

func newContext(w *World, id ContextId, filter resolvedFilter) *Context {
	return &Context{
		id:          id,
		world:       w,
		filter:      filter,
		tracked:     intmap.New[NodeId, *tracking](64),
		members:     intmap.New[NodeId, *Node](64),
		lingering:   intmap.New[NodeId, *Node](8),
		projections: make(map[int]*projection),
	}
}

// ID returns the context's structural identity.
func (c *Context) ID() ContextId { return c.id }

// World returns the world the context belongs to.
func (c *Context) World() *World { return c.world }

// IsNoFilter reports whether the context declares no constraining filter and
// therefore never has members.
func (c *Context) IsNoFilter() bool { return c.filter.isNoFilter() }

// IsDisposed reports whether Dispose was called.
func (c *Context) IsDisposed() bool { return c.disposed }

// IsPinned reports whether the context was requested through World.Context
// and therefore lives as long as the world.
func (c *Context) IsPinned() bool { return c.adHoc }

// Systems returns the number of systems sharing the context.
func (c *Context) Systems() int { return c.refs }

// String describes the filter by component type name, for example
// "AllOf(Position, Velocity) NoneOf(Frozen)".
func (c *Context) String() string {
	if c.filter.isNoFilter() {
		return NoFilter.String()
	}
	var b strings.Builder
	for _, part := range []struct {
		kind    AccessFilter
		indices []int
	}{{AnyOf, c.filter.anyOf}, {AllOf, c.filter.allOf}, {NoneOf, c.filter.noneOf}} {
		if len(part.indices) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(part.kind.String())
		b.WriteByte('(')
		for i, index := range part.indices {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(c.world.registry.TypeOf(index).Name())
		}
		b.WriteByte(')')
	}
	return b.String()
}

// Access returns the declared access kind for a component index.
func (c *Context) Access(index int) (AccessKind, bool) {
	kind, ok := c.filter.access[index]
	return kind, ok
}

// Matches reports whether n satisfies the context's filter, ignoring its
// enabled state.
func (c *Context) Matches(n *Node) bool {
	c.assertLive()
	return c.filter.matches(n)
}

// Context events. They fire only for members and watched nodes; when a node
// starts being watched, OnComponentAdded is replayed for each component it
// already has.
func (c *Context) OnNodeAdded() *Signal[NodeFunc]              { return &c.nodeAdded }
func (c *Context) OnNodeRemoved() *Signal[NodeFunc]            { return &c.nodeRemoved }
func (c *Context) OnComponentAdded() *Signal[ComponentFunc]    { return &c.componentAdded }
func (c *Context) OnComponentRemoved() *Signal[ComponentFunc]  { return &c.componentRemoved }
func (c *Context) OnComponentModified() *Signal[ComponentFunc] { return &c.componentModified }

// Nodes returns the current members ordered by ID. The slice is an immutable
// snapshot: membership changes made while iterating it are visible only
// through a later call. It must not be modified.
//
// Nodes destroyed while a phase pass runs are still listed until the pass
// ends, although they are no longer members.
func (c *Context) Nodes() []*Node {
	c.assertLive()
	if c.snapshot == nil {
		snapshot := make([]*Node, 0, c.members.Len()+c.lingering.Len())
		collect := func(_ NodeId, n *Node) bool {
			snapshot = append(snapshot, n)
			return true
		}
		c.members.ForEach(collect)
		c.lingering.ForEach(collect)
		slices.SortFunc(snapshot, func(a, b *Node) int {
			switch {
			case a.id < b.id:
				return -1
			case a.id > b.id:
				return 1
			}
			return 0
		})
		c.snapshot = snapshot
	}
	return c.snapshot
}

// Count returns the number of members.
func (c *Context) Count() int {
	c.assertLive()
	return c.members.Len()
}

// Contains reports whether n is a member.
func (c *Context) Contains(n *Node) bool {
	c.assertLive()
	_, ok := c.members.Get(n.id)
	return ok
}

// TryRegisterNode starts tracking n. Unless the context is NoFilter, it
// subscribes to n's component and enable events and, if n already matches,
// starts watching it right away.
func (c *Context) TryRegisterNode(n *Node) {
	c.assertLive()
	if c.filter.isNoFilter() || n.finalized {
		return
	}
	if _, ok := c.tracked.Get(n.id); ok {
		return
	}

	t := &tracking{node: n}
	t.subs = []Subscription{
		n.componentAdded.Subscribe(func(_ *Node, index int) { c.onNodeModified(t, index, true) }),
		n.componentRemoved.Subscribe(func(_ *Node, index int, _ bool) { c.onNodeModified(t, index, false) }),
		n.componentModified.Subscribe(func(_ *Node, index int) { c.onComponentReplaced(t, index) }),
		n.enabledSignal.Subscribe(func(*Node) { c.onEnabled(t) }),
		n.disabledSignal.Subscribe(func(*Node) { c.onDisabled(t) }),
		n.destroyed.Subscribe(func(*Node) { c.untrack(t) }),
	}
	c.tracked.Put(n.id, t)

	if c.filter.matches(n) {
		c.startWatching(t)
	}
}

// Dispose releases every node subscription and clears the context's
// collections and signals. Any later use of the context panics.
func (c *Context) Dispose() {
	if c.disposed {
		return
	}
	c.tracked.ForEach(func(_ NodeId, t *tracking) bool {
		for _, sub := range t.subs {
			sub.Unsubscribe()
		}
		return true
	})
	c.tracked.Clear()
	c.members.Clear()
	c.lingering.Clear()
	c.snapshot = nil
	c.projections = nil

	c.nodeAdded.Clear()
	c.nodeRemoved.Clear()
	c.componentAdded.Clear()
	c.componentRemoved.Clear()
	c.componentModified.Clear()
	c.disposed = true
}

func (c *Context) onNodeModified(t *tracking, index int, added bool) {
	valid := c.filter.matches(t.node)
	switch {
	case valid && !t.watching:
		if !t.node.pendingDestroy {
			c.startWatching(t)
		}
	case !valid && t.watching:
		c.stopWatching(t)
	case t.watching:
		c.invalidateProjection(index)
		if added {
			c.componentAdded.Emit(func(fn ComponentFunc) { fn(t.node, index) })
		} else {
			c.componentRemoved.Emit(func(fn ComponentFunc) { fn(t.node, index) })
		}
	}
}

func (c *Context) onComponentReplaced(t *tracking, index int) {
	if !t.watching {
		return
	}
	c.invalidateProjection(index)
	c.componentModified.Emit(func(fn ComponentFunc) { fn(t.node, index) })
}

func (c *Context) onEnabled(t *tracking) {
	if t.watching && !t.node.pendingDestroy {
		c.addMember(t.node)
	}
}

func (c *Context) onDisabled(t *tracking) {
	if t.watching {
		c.removeMember(t.node)
	}
}

func (c *Context) startWatching(t *tracking) {
	t.watching = true
	n := t.node
	if n.enabled && !n.pendingDestroy {
		c.addMember(n)
	}
	for _, index := range n.ComponentIndices() {
		c.componentAdded.Emit(func(fn ComponentFunc) { fn(n, index) })
	}
}

func (c *Context) stopWatching(t *tracking) {
	t.watching = false
	c.removeMember(t.node)
	c.lingering.Del(t.node.id)
	c.invalidateProjections()
}

func (c *Context) untrack(t *tracking) {
	for _, sub := range t.subs {
		sub.Unsubscribe()
	}
	t.subs = nil
	if t.watching {
		c.stopWatching(t)
	}
	c.tracked.Del(t.node.id)
}

func (c *Context) addMember(n *Node) {
	if _, ok := c.members.Get(n.id); ok {
		return
	}
	c.members.Put(n.id, n)
	c.invalidateProjections()
	c.nodeAdded.Emit(func(fn NodeFunc) { fn(n) })
}

func (c *Context) removeMember(n *Node) {
	if _, ok := c.members.Get(n.id); !ok {
		return
	}
	c.members.Del(n.id)
	if n.pendingDestroy && c.world.inPass() {
		// The current snapshot and projections already hold n.
		c.lingering.Put(n.id, n)
	} else {
		c.invalidateProjections()
	}
	c.nodeRemoved.Emit(func(fn NodeFunc) { fn(n) })
}

// releaseLingering drops the nodes kept listed for the pass that just ended.
func (c *Context) releaseLingering() {
	if c.lingering.Len() == 0 {
		return
	}
	c.lingering.Clear()
	c.invalidateProjections()
}

// invalidateProjections drops the member snapshot and every projection.
// Slices already handed out stay untouched.
func (c *Context) invalidateProjections() {
	c.snapshot = nil
	clear(c.projections)
}

func (c *Context) invalidateProjection(index int) {
	delete(c.projections, index)
}

func (c *Context) assertLive() {
	if c.disposed {
		panic("ecs: use of disposed context")
	}
}

func (c *Context) assertDeclared(index int) {
	c.assertLive()
	if !c.filter.declared(index) {
		panic("ecs: component " + c.world.registry.TypeOf(index).String() +
			" is not declared by this context")
	}
}
