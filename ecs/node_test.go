package ecs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/ignite/ecs"
)

func TestNodeComponents(t *testing.T) {
	t.Run("add and get", func(t *testing.T) {
		world := newTestWorld()
		node := world.NewNode("ship", &Position{X: 1, Y: 2}, Temperature(21.5))

		pos, ok := ecs.Get[Position](node)
		require.True(t, ok)
		assert.Equal(t, float32(1), pos.X)

		temp, ok := ecs.Get[Temperature](node)
		require.True(t, ok)
		assert.Equal(t, Temperature(21.5), *temp)

		assert.Equal(t, "ship", node.Name())
		assert.True(t, ecs.Has[ecs.Name](node))
		assert.False(t, ecs.Has[Health](node))
		assert.Equal(t, 3, node.ComponentCount())
	})

	t.Run("components are stored by pointer", func(t *testing.T) {
		world := newTestWorld()
		pos := &Position{X: 1}
		node := world.NewNode("", pos)

		got, _ := ecs.Get[Position](node)
		got.X = 5
		assert.Equal(t, float32(5), pos.X)
	})

	t.Run("duplicate add panics", func(t *testing.T) {
		world := newTestWorld()
		node := world.NewNode("", &Position{})
		assert.Panics(t, func() { node.AddComponent(&Position{}) })
	})

	t.Run("replace fires modified only", func(t *testing.T) {
		world := newTestWorld()
		node := world.NewNode("", &Health{Current: 1})
		index := ecs.ComponentIndex[Health](world.Registry())

		var events []string
		node.OnComponentAdded().Subscribe(func(*ecs.Node, int) { events = append(events, "added") })
		node.OnComponentRemoved().Subscribe(func(*ecs.Node, int, bool) { events = append(events, "removed") })
		node.OnComponentModified().Subscribe(func(_ *ecs.Node, i int) {
			assert.Equal(t, index, i)
			events = append(events, "modified")
		})

		node.AddOrReplaceComponent(&Health{Current: 2})
		assert.Equal(t, []string{"modified"}, events)

		health, _ := ecs.Get[Health](node)
		assert.Equal(t, 2, health.Current)

		assert.True(t, node.MarkModified(index))
		assert.False(t, node.MarkModified(ecs.ComponentIndex[Label](world.Registry())))
		assert.Equal(t, []string{"modified", "modified"}, events)
	})

	t.Run("remove", func(t *testing.T) {
		world := newTestWorld()
		node := world.NewNode("", &Health{})

		var fromDestroy []bool
		node.OnComponentRemoved().Subscribe(func(_ *ecs.Node, _ int, d bool) {
			fromDestroy = append(fromDestroy, d)
		})

		assert.True(t, ecs.Remove[Health](node))
		assert.False(t, ecs.Remove[Health](node))
		assert.False(t, ecs.Remove[Label](node))
		assert.Equal(t, []bool{false}, fromDestroy)
	})

	t.Run("typed add", func(t *testing.T) {
		world := newTestWorld()
		node := world.NewNode("")
		health := ecs.Add[Health](node)
		health.Current = 3

		got, ok := ecs.Get[Health](node)
		require.True(t, ok)
		assert.Equal(t, 3, got.Current)
	})

	t.Run("component indices are sorted", func(t *testing.T) {
		world := newTestWorld()
		registry := world.Registry()
		node := world.NewNode("crate", &Health{}, &Position{})

		assert.Equal(t, []int{
			ecs.ComponentIndex[ecs.Name](registry),
			ecs.ComponentIndex[Position](registry),
			ecs.ComponentIndex[Health](registry),
		}, node.ComponentIndices())
	})

	t.Run("unnamed nodes carry no name component", func(t *testing.T) {
		world := newTestWorld()
		node := world.NewNode("", &Position{})

		assert.False(t, ecs.Has[ecs.Name](node))
		assert.Equal(t, "", node.Name())
		assert.Equal(t, []int{ecs.ComponentIndex[Position](world.Registry())}, node.ComponentIndices())
	})
}

func TestRequiredComponents(t *testing.T) {
	t.Run("missing requirement is instantiated", func(t *testing.T) {
		world := newTestWorld()
		node := world.NewNode("b")
		node.AddComponent(&Velocity{DX: 1})

		assert.True(t, ecs.Has[Velocity](node))
		pos, ok := ecs.Get[Position](node)
		require.True(t, ok)
		assert.Equal(t, Position{}, *pos)
	})

	t.Run("requirements are attached before the added event", func(t *testing.T) {
		world := newTestWorld()
		registry := world.Registry()
		node := world.NewNode("")

		var order []int
		node.OnComponentAdded().Subscribe(func(n *ecs.Node, index int) {
			if index == ecs.ComponentIndex[Acceleration](registry) {
				assert.True(t, ecs.Has[Velocity](n))
				assert.True(t, ecs.Has[Position](n))
			}
			order = append(order, index)
		})

		ecs.Add[Acceleration](node)
		assert.Equal(t, []int{
			ecs.ComponentIndex[Position](registry),
			ecs.ComponentIndex[Velocity](registry),
			ecs.ComponentIndex[Acceleration](registry),
		}, order)
	})

	t.Run("present requirements are kept", func(t *testing.T) {
		world := newTestWorld()
		node := world.NewNode("", &Position{X: 9})
		ecs.Add[Velocity](node)

		pos, _ := ecs.Get[Position](node)
		assert.Equal(t, float32(9), pos.X)
	})
}

func TestNodeEnable(t *testing.T) {
	world := newTestWorld()
	node := world.NewNode("n")

	var events []string
	node.OnEnabled().Subscribe(func(*ecs.Node) { events = append(events, "enabled") })
	node.OnDisabled().Subscribe(func(*ecs.Node) { events = append(events, "disabled") })

	assert.False(t, node.Enable())
	assert.True(t, node.Disable())
	assert.False(t, node.Disable())
	assert.True(t, node.HasComponent(ecs.ComponentIndex[ecs.Name](world.Registry())))
	assert.True(t, node.Enable())
	assert.Equal(t, []string{"disabled", "enabled"}, events)

	disabled := world.NewBuilder().Disabled().Build()
	assert.False(t, disabled.IsEnabled())
}

func TestNodeDestroy(t *testing.T) {
	t.Run("destruction is deferred to the end of update", func(t *testing.T) {
		world := newTestWorld()
		node := world.NewNode("doomed", &Health{})

		node.Destroy()
		assert.True(t, node.IsPendingDestroy())
		assert.False(t, node.IsEnabled())
		assert.False(t, node.IsDestroyed())
		assert.False(t, node.Enable())
		assert.True(t, ecs.Has[Health](node))

		world.Update(0)
		assert.True(t, node.IsDestroyed())
		assert.Equal(t, 0, node.ComponentCount())
		_, ok := world.Node(node.ID())
		assert.False(t, ok)
	})

	t.Run("finalization order", func(t *testing.T) {
		world := newTestWorld()
		parent := world.NewNode("parent", &Health{})
		child := world.NewBuilder().Named("child").ChildOf(parent).Build()

		var events []string
		parent.OnComponentRemoved().Subscribe(func(_ *ecs.Node, _ int, fromDestroy bool) {
			assert.True(t, fromDestroy)
			events = append(events, "parent component removed")
		})
		parent.OnChildRemoved().Subscribe(func(_, c *ecs.Node, fromDestroy bool) {
			assert.True(t, fromDestroy)
			assert.Equal(t, child, c)
			events = append(events, "child removed")
		})
		child.OnDestroyed().Subscribe(func(*ecs.Node) { events = append(events, "child destroyed") })
		parent.OnDestroyed().Subscribe(func(*ecs.Node) { events = append(events, "parent destroyed") })
		world.Root().OnChildRemoved().Subscribe(func(_, c *ecs.Node, fromDestroy bool) {
			assert.Equal(t, parent, c)
			events = append(events, "detached from root")
		})

		parent.Destroy()
		world.Update(0)

		assert.Equal(t, []string{
			"parent component removed",
			"parent component removed",
			"child removed",
			"child destroyed",
			"detached from root",
			"parent destroyed",
		}, events)
		assert.True(t, child.IsDestroyed())
		assert.Equal(t, 0, world.NodeCount())
	})

	t.Run("destroyed nodes reject use", func(t *testing.T) {
		world := newTestWorld()
		node := world.NewNode("")
		node.Destroy()
		world.Update(0)

		assert.Panics(t, func() { node.AddComponent(&Health{}) })
		assert.Panics(t, func() { world.Root().AddChild(node) })
		assert.NotPanics(t, node.Destroy)
	})

	t.Run("subscriptions are released", func(t *testing.T) {
		world := newTestWorld()
		node := world.NewNode("")
		node.OnEnabled().Subscribe(func(*ecs.Node) {})
		node.Destroy()
		world.Update(0)
		assert.Equal(t, 0, node.OnEnabled().Len())
	})
}

func TestNodeHierarchy(t *testing.T) {
	t.Run("nodes default to the root", func(t *testing.T) {
		world := newTestWorld()
		node := world.NewNode("")
		assert.Equal(t, world.Root(), node.Parent())
		assert.Nil(t, world.Root().Parent())
	})

	t.Run("reparenting detaches from the old parent", func(t *testing.T) {
		world := newTestWorld()
		a := world.NewNode("a")
		b := world.NewNode("b")
		child := world.NewBuilder().ChildOf(a).Build()

		var removedFrom, changedTo *ecs.Node
		a.OnChildRemoved().Subscribe(func(p, _ *ecs.Node, fromDestroy bool) {
			assert.False(t, fromDestroy)
			removedFrom = p
		})
		child.OnParentChanged().Subscribe(func(_, p *ecs.Node) { changedTo = p })

		b.AddChild(child)
		assert.Equal(t, a, removedFrom)
		assert.Equal(t, b, changedTo)
		assert.Equal(t, 0, a.ChildCount())
		assert.Equal(t, []*ecs.Node{child}, b.Children())
	})

	t.Run("cycles panic", func(t *testing.T) {
		world := newTestWorld()
		a := world.NewNode("a")
		b := world.NewBuilder().ChildOf(a).Build()

		assert.Panics(t, func() { b.AddChild(a) })
		assert.Panics(t, func() { a.AddChild(a) })
		assert.True(t, a.IsAncestorOf(b))
		assert.True(t, world.Root().IsAncestorOf(b))
	})

	t.Run("remove child re-roots it", func(t *testing.T) {
		world := newTestWorld()
		a := world.NewNode("a")
		b := world.NewBuilder().ChildOf(a).Build()

		assert.True(t, a.RemoveChild(b))
		assert.Equal(t, world.Root(), b.Parent())
		assert.False(t, a.RemoveChild(b))
		assert.False(t, world.Root().RemoveChild(b))
	})

	t.Run("builder children", func(t *testing.T) {
		world := newTestWorld()
		a := world.NewNode("a")
		b := world.NewNode("b")
		parent := world.NewBuilder().WithChildren(a, b, a).Build()

		assert.Equal(t, []*ecs.Node{a, b}, parent.Children())
		assert.Equal(t, parent, a.Parent())
	})

	t.Run("builder is single use", func(t *testing.T) {
		world := newTestWorld()
		b := world.NewBuilder()
		b.Build()
		assert.Panics(t, func() { b.Build() })
	})
}
