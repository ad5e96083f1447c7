package ecs

import (
	"iter"
	"reflect"
)

// projection caches one component type across a context's members.
// nodes[i] owns values[i]; members lacking the component are left out.
type projection struct {
	nodes  []*Node
	values []any
}

func (c *Context) project(index int) *projection {
	if p, ok := c.projections[index]; ok {
		return p
	}

	members := c.Nodes()
	p := &projection{
		nodes:  make([]*Node, 0, len(members)),
		values: make([]any, 0, len(members)),
	}
	for _, n := range members {
		if component, ok := n.TryGetComponent(index); ok {
			p.nodes = append(p.nodes, n)
			p.values = append(p.values, component)
		}
	}
	c.projections[index] = p
	return p
}

// Each iterates the members of c that have a T component, in ID order.
// The sequence is bound to the membership at the time of the call.
// Panics if T is not declared by the context's filter.
func Each[T any](c *Context) iter.Seq2[*Node, *T] {
	index := contextIndex[T](c)
	p := c.project(index)
	nodes, values := p.nodes, p.values

	return func(yield func(*Node, *T) bool) {
		for i := range nodes {
			if !yield(nodes[i], values[i].(*T)) {
				return
			}
		}
	}
}

// Each2 iterates the members of c having both a T1 and a T2 component.
// Panics if either type is not declared by the context's filter.
func Each2[T1, T2 any](c *Context) iter.Seq2[*T1, *T2] {
	i1 := contextIndex[T1](c)
	i2 := contextIndex[T2](c)
	p := c.project(i1)
	nodes, values := p.nodes, p.values

	return func(yield func(*T1, *T2) bool) {
		for i, n := range nodes {
			second, ok := n.TryGetComponent(i2)
			if !ok {
				continue
			}
			if !yield(values[i].(*T1), second.(*T2)) {
				return
			}
		}
	}
}

// Component returns n's T component through c.
// Panics if T is not declared by the context's filter.
func Component[T any](c *Context, n *Node) (*T, bool) {
	component, ok := n.TryGetComponent(contextIndex[T](c))
	if !ok {
		return nil, false
	}
	return component.(*T), true
}

func contextIndex[T any](c *Context) int {
	c.assertLive()
	index, err := c.world.registry.GetIndex(reflect.TypeFor[T]())
	if err != nil {
		panic(err.Error())
	}
	c.assertDeclared(index)
	return index
}
