package ecs

import "reflect"

// NodeBuilder collects a node's name, components and place in the tree, then
// commits it to the world in one step with Build.
//
// Example usage:
//
//	node := world.NewBuilder().
//		Named("player").
//		With(&Position{}, &Velocity{DX: 1}).
//		ChildOf(level).
//		Build()
type NodeBuilder struct {
	world      *World
	name       string
	components []any
	defaults   []reflect.Type
	parent     *Node
	children   []*Node
	disabled   bool
	built      bool
}

// NewBuilder starts building a node in the world.
func (w *World) NewBuilder() *NodeBuilder {
	return &NodeBuilder{world: w}
}

// NewNode builds a node with a name and components under the world root.
func (w *World) NewNode(name string, components ...any) *Node {
	return w.NewBuilder().Named(name).With(components...).Build()
}

// Named sets the node's Name component.
func (b *NodeBuilder) Named(name string) *NodeBuilder {
	b.name = name
	return b
}

// With adds component instances. A later instance of the same type wins.
func (b *NodeBuilder) With(components ...any) *NodeBuilder {
	b.components = append(b.components, components...)
	return b
}

// WithDefault adds zero-valued components of the given types, skipping
// types already provided through With.
func (b *NodeBuilder) WithDefault(types ...reflect.Type) *NodeBuilder {
	b.defaults = append(b.defaults, types...)
	return b
}

// ChildOf sets the node's parent. The world root is used when unset.
func (b *NodeBuilder) ChildOf(parent *Node) *NodeBuilder {
	b.parent = parent
	return b
}

// WithChildren re-parents existing nodes under the new node.
func (b *NodeBuilder) WithChildren(children ...*Node) *NodeBuilder {
	for _, child := range children {
		if !containsNode(b.children, child) {
			b.children = append(b.children, child)
		}
	}
	return b
}

// Disabled makes the node start disabled.
func (b *NodeBuilder) Disabled() *NodeBuilder {
	b.disabled = true
	return b
}

// Build assigns the node an ID, attaches its components (with their required
// components), places it in the tree and registers it with the world, which
// offers it to every query context.
// Panics if called twice.
func (b *NodeBuilder) Build() *Node {
	if b.built {
		panic("ecs: node already built")
	}
	b.built = true

	w := b.world
	node := newNode(w, w.ids.next())
	node.enabled = !b.disabled

	if b.name != "" {
		node.AddComponent(&Name{Value: b.name})
	}
	for _, component := range b.components {
		node.AddOrReplaceComponent(component)
	}
	for _, t := range b.defaults {
		node.AddDefaultComponent(w.registry.GetOrCreateIndex(t))
	}

	parent := b.parent
	if parent == nil {
		parent = w.root
	}
	if parent != nil {
		parent.AddChild(node)
	}
	node.AddChildren(b.children...)

	w.registerNode(node)
	return node
}

func containsNode(nodes []*Node, node *Node) bool {
	for _, n := range nodes {
		if n == node {
			return true
		}
	}
	return false
}
