package ecs

import (
	"reflect"
	"slices"

	"github.com/kamstrup/intmap"
)

// Handler signatures for node events.
type (
	NodeFunc             func(node *Node)
	ComponentFunc        func(node *Node, index int)
	ComponentRemovedFunc func(node *Node, index int, fromDestroy bool)
	ChildFunc            func(parent, child *Node)
	ChildRemovedFunc     func(parent, child *Node, fromDestroy bool)
	ParentChangedFunc    func(node, parent *Node)
)

// Node is an entity: an identity, an enabled flag, a set of components keyed
// by component index, and a position in the world's node tree.
//
// Components are stored as pointers so systems can mutate them in place.
// At most one component per index is attached at any time.
type Node struct {
	id         NodeId
	world      *World
	registry   *ComponentRegistry
	components *intmap.Map[int, any]

	enabled        bool
	pendingDestroy bool
	finalized      bool

	parent   *Node
	children *intmap.Map[NodeId, *Node]

	componentAdded    Signal[ComponentFunc]
	componentRemoved  Signal[ComponentRemovedFunc]
	componentModified Signal[ComponentFunc]
	enabledSignal     Signal[NodeFunc]
	disabledSignal    Signal[NodeFunc]
	destroyed         Signal[NodeFunc]
	childAdded        Signal[ChildFunc]
	childRemoved      Signal[ChildRemovedFunc]
	parentChanged     Signal[ParentChangedFunc]
}

func newNode(w *World, id NodeId) *Node {
	return &Node{
		id:         id,
		world:      w,
		registry:   w.registry,
		components: intmap.New[int, any](8),
		children:   intmap.New[NodeId, *Node](4),
		enabled:    true,
	}
}

// ID returns the node's world-unique identifier.
func (n *Node) ID() NodeId { return n.id }

// World returns the world owning the node.
func (n *Node) World() *World { return n.world }

// Name returns the value of the node's Name component, or "" if it has none.
func (n *Node) Name() string {
	if name, ok := Get[Name](n); ok {
		return name.Value
	}
	return ""
}

// SetName adds or replaces the node's Name component.
func (n *Node) SetName(name string) *Node {
	return n.AddOrReplaceComponent(&Name{Value: name})
}

// IsEnabled reports whether the node is enabled.
func (n *Node) IsEnabled() bool { return n.enabled }

// IsPendingDestroy reports whether Destroy was called on the node.
func (n *Node) IsPendingDestroy() bool { return n.pendingDestroy }

// IsDestroyed reports whether the node's destruction has been finalized.
func (n *Node) IsDestroyed() bool { return n.finalized }

// Event accessors. Subscriptions must be released with Unsubscribe by
// listeners that outlive their interest in the node; all of them are dropped
// when the node is finalized.
func (n *Node) OnComponentAdded() *Signal[ComponentFunc]          { return &n.componentAdded }
func (n *Node) OnComponentRemoved() *Signal[ComponentRemovedFunc] { return &n.componentRemoved }
func (n *Node) OnComponentModified() *Signal[ComponentFunc]       { return &n.componentModified }
func (n *Node) OnEnabled() *Signal[NodeFunc]                      { return &n.enabledSignal }
func (n *Node) OnDisabled() *Signal[NodeFunc]                     { return &n.disabledSignal }
func (n *Node) OnDestroyed() *Signal[NodeFunc]                    { return &n.destroyed }
func (n *Node) OnChildAdded() *Signal[ChildFunc]                  { return &n.childAdded }
func (n *Node) OnChildRemoved() *Signal[ChildRemovedFunc]         { return &n.childRemoved }
func (n *Node) OnParentChanged() *Signal[ParentChangedFunc]       { return &n.parentChanged }

// HasComponent reports whether a component with the given index is attached.
func (n *Node) HasComponent(index int) bool {
	_, ok := n.components.Get(index)
	return ok
}

// TryGetComponent returns the component attached at index, if any.
func (n *Node) TryGetComponent(index int) (any, bool) {
	return n.components.Get(index)
}

// ComponentIndices returns the indices of every attached component in
// ascending order.
func (n *Node) ComponentIndices() []int {
	indices := make([]int, 0, n.components.Len())
	n.components.ForEach(func(index int, _ any) bool {
		indices = append(indices, index)
		return true
	})
	slices.Sort(indices)
	return indices
}

// ComponentCount returns the number of attached components.
func (n *Node) ComponentCount() int {
	return n.components.Len()
}

// AddComponent attaches component, which may be a value or a pointer to a
// registered-or-new component type. Component types the new component
// requires are instantiated and attached first if missing; OnComponentAdded
// for component fires after them.
//
// Adding a component whose index is already present panics; use
// AddOrReplaceComponent to overwrite.
func (n *Node) AddComponent(component any) *Node {
	n.assertAlive()
	index, ptr := n.prepare(component)
	if n.HasComponent(index) {
		panic("ecs: node already has a " + n.registry.TypeOf(index).String() +
			" component, use AddOrReplaceComponent instead")
	}
	n.attach(index, ptr)
	return n
}

// AddDefaultComponent attaches a zero value of the component registered at
// index, unless one is already present. It reports whether it added one.
func (n *Node) AddDefaultComponent(index int) bool {
	n.assertAlive()
	if n.HasComponent(index) {
		return false
	}
	n.attach(index, n.registry.newComponent(index))
	return true
}

// AddOrReplaceComponent attaches component, replacing an existing one of the
// same type. A replacement fires OnComponentModified only.
func (n *Node) AddOrReplaceComponent(component any) *Node {
	n.assertAlive()
	index, ptr := n.prepare(component)
	if n.HasComponent(index) {
		n.components.Put(index, ptr)
		n.componentModified.Emit(func(fn ComponentFunc) { fn(n, index) })
		return n
	}
	n.attach(index, ptr)
	return n
}

// MarkModified fires OnComponentModified for a component mutated in place.
func (n *Node) MarkModified(index int) bool {
	if !n.HasComponent(index) {
		return false
	}
	n.componentModified.Emit(func(fn ComponentFunc) { fn(n, index) })
	return true
}

// RemoveComponent detaches the component at index. It reports false if no
// such component was attached.
func (n *Node) RemoveComponent(index int) bool {
	n.assertAlive()
	if !n.HasComponent(index) {
		return false
	}
	n.components.Del(index)
	n.componentRemoved.Emit(func(fn ComponentRemovedFunc) { fn(n, index, false) })
	return true
}

// Enable enables the node. It reports false if the node was already enabled
// or is being destroyed.
func (n *Node) Enable() bool {
	if n.enabled || n.pendingDestroy {
		return false
	}
	n.enabled = true
	n.enabledSignal.Emit(func(fn NodeFunc) { fn(n) })
	return true
}

// Disable disables the node without touching its components. It reports
// false if the node was already disabled.
func (n *Node) Disable() bool {
	if !n.enabled {
		return false
	}
	n.enabled = false
	n.disabledSignal.Emit(func(fn NodeFunc) { fn(n) })
	return true
}

// Destroy disables the node and queues it for destruction. The world
// finalizes it at the end of the current Update pass.
func (n *Node) Destroy() {
	if n.pendingDestroy || n.finalized {
		return
	}
	n.pendingDestroy = true
	n.Disable()
	if n.world != nil {
		n.world.tagForDestroy(n)
	}
}

// finalize detaches every component, finalizes the subtree, leaves the
// parent, and drops every subscription.
func (n *Node) finalize() {
	if n.finalized {
		return
	}
	n.finalized = true
	n.pendingDestroy = true
	if n.enabled {
		n.enabled = false
		n.disabledSignal.Emit(func(fn NodeFunc) { fn(n) })
	}

	for _, index := range n.ComponentIndices() {
		n.components.Del(index)
		n.componentRemoved.Emit(func(fn ComponentRemovedFunc) { fn(n, index, true) })
	}

	for _, child := range n.Children() {
		n.children.Del(child.id)
		child.parent = nil
		n.childRemoved.Emit(func(fn ChildRemovedFunc) { fn(n, child, true) })
		child.finalize()
	}

	if parent := n.parent; parent != nil {
		parent.children.Del(n.id)
		n.parent = nil
		parent.childRemoved.Emit(func(fn ChildRemovedFunc) { fn(parent, n, true) })
	}

	n.destroyed.Emit(func(fn NodeFunc) { fn(n) })
	if n.world != nil {
		n.world.unregisterNode(n)
	}

	n.componentAdded.Clear()
	n.componentRemoved.Clear()
	n.componentModified.Clear()
	n.enabledSignal.Clear()
	n.disabledSignal.Clear()
	n.destroyed.Clear()
	n.childAdded.Clear()
	n.childRemoved.Clear()
	n.parentChanged.Clear()
}

// attach stores ptr at index, satisfies its requirements, then announces it.
func (n *Node) attach(index int, ptr any) {
	n.components.Put(index, ptr)
	for _, required := range n.registry.RequiredComponents(index) {
		if !n.HasComponent(required) {
			n.attach(required, n.registry.newComponent(required))
		}
	}
	n.componentAdded.Emit(func(fn ComponentFunc) { fn(n, index) })
}

// prepare resolves the component index and guarantees a pointer is stored.
func (n *Node) prepare(component any) (int, any) {
	if component == nil {
		panic("ecs: nil component")
	}
	v := reflect.ValueOf(component)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			panic("ecs: nil component pointer of type " + v.Type().String())
		}
		return n.registry.GetOrCreateIndex(v.Type()), component
	}

	index := n.registry.GetOrCreateIndex(v.Type())
	ptr := reflect.New(v.Type())
	ptr.Elem().Set(v)
	return index, ptr.Interface()
}

func (n *Node) assertAlive() {
	if n.finalized {
		panic("ecs: use of destroyed node")
	}
}

// Get returns the node's T component.
func Get[T any](n *Node) (*T, bool) {
	index, err := n.registry.GetIndex(reflect.TypeFor[T]())
	if err != nil {
		return nil, false
	}
	c, ok := n.components.Get(index)
	if !ok {
		return nil, false
	}
	return c.(*T), true
}

// Has reports whether the node has a T component.
func Has[T any](n *Node) bool {
	index, err := n.registry.GetIndex(reflect.TypeFor[T]())
	return err == nil && n.HasComponent(index)
}

// Add attaches a zero T to the node and returns it. It panics if the node
// already has one.
func Add[T any](n *Node) *T {
	c := new(T)
	n.AddComponent(c)
	return c
}

// Remove detaches the node's T component.
func Remove[T any](n *Node) bool {
	index, err := n.registry.GetIndex(reflect.TypeFor[T]())
	if err != nil {
		return false
	}
	return n.RemoveComponent(index)
}
