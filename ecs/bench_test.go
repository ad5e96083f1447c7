package ecs_test

import (
	"reflect"
	"testing"

	"github.com/plus3/ignite/ecs"
)

func BenchmarkNewNode(b *testing.B) {
	world := newTestWorld()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		world.NewNode("", &Position{X: 1, Y: 2})
	}
}

func BenchmarkNewNodeWithContexts(b *testing.B) {
	world := newTestWorld()
	world.Context(ecs.NewFilter(ecs.AllOf, positionType))
	world.Context(ecs.NewFilter(ecs.AllOf, positionType, velocityType))
	world.Context(ecs.NewFilter(ecs.AnyOf, healthType, labelType))
	world.Context(ecs.NewFilter(ecs.NoneOf, frozenType))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		world.NewNode("", &Velocity{DX: 1}, &Health{Current: 100})
	}
}

func BenchmarkDestroy(b *testing.B) {
	world := newTestWorld()
	world.Context(ecs.NewFilter(ecs.AllOf, positionType))
	nodes := make([]*ecs.Node, b.N)
	for i := range nodes {
		nodes[i] = world.NewNode("", &Position{})
	}

	b.ResetTimer()
	for _, n := range nodes {
		n.Destroy()
	}
	world.Update(0)
}

func BenchmarkGetComponent(b *testing.B) {
	world := newTestWorld()
	node := world.NewNode("", &Position{X: 1, Y: 2}, &Velocity{DX: 1})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = ecs.Get[Velocity](node)
	}
}

func BenchmarkAddRemoveComponent(b *testing.B) {
	world := newTestWorld()
	world.Context(ecs.NewFilter(ecs.AllOf, positionType, healthType))
	world.Context(ecs.NewFilter(ecs.NoneOf, healthType))
	node := world.NewNode("", &Position{})
	index := world.Registry().MustGetIndex(healthType)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		node.AddDefaultComponent(index)
		node.RemoveComponent(index)
	}
}

func BenchmarkEnableDisable(b *testing.B) {
	world := newTestWorld()
	world.Context(ecs.NewFilter(ecs.AllOf, positionType))
	node := world.NewNode("", &Position{})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		node.Disable()
		node.Enable()
	}
}

func BenchmarkContextNodes(b *testing.B) {
	world := newTestWorld()
	ctx := world.Context(ecs.NewFilter(ecs.AllOf, positionType))
	for i := 0; i < 1000; i++ {
		world.NewNode("", &Position{X: float32(i)})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for range ctx.Nodes() {
		}
	}
}

func BenchmarkEach(b *testing.B) {
	world := newTestWorld()
	ctx := world.Context(ecs.NewFilter(ecs.AllOf, positionType, velocityType))
	for i := 0; i < 1000; i++ {
		world.NewNode("", &Velocity{DX: 1})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for pos, vel := range ecs.Each2[Position, Velocity](ctx) {
			pos.X += vel.DX
		}
	}
}

func BenchmarkViewIter(b *testing.B) {
	world := newTestWorld()
	view := bindView[struct {
		*Position
		*Velocity
	}](world)
	for i := 0; i < 1000; i++ {
		world.NewNode("", &Velocity{DX: 1})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, item := range view.Iter() {
			item.Position.X += item.Velocity.DX
		}
	}
}

func BenchmarkViewSpawn(b *testing.B) {
	world := newTestWorld()
	view := bindView[struct {
		*Position
		*Velocity
	}](world)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		view.Spawn(struct {
			*Position
			*Velocity
		}{&Position{X: 1}, &Velocity{DX: 1}})
	}
}

func BenchmarkContextCreation(b *testing.B) {
	world := newTestWorld()
	for i := 0; i < 1000; i++ {
		world.NewNode("", &Position{}, &Health{})
	}
	types := []reflect.Type{positionType, velocityType, healthType, labelType, frozenType}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		world.Context(ecs.NewFilter(ecs.AllOf, types[i%len(types)]))
	}
}

type benchMovementSystem struct {
	Entities ecs.View[struct {
		*Position
		*Velocity
	}]
}

func (s *benchMovementSystem) Update(frame *ecs.UpdateFrame) {
	for _, item := range s.Entities.Iter() {
		item.Position.X += item.Velocity.DX * float32(frame.DeltaTime)
		item.Position.Y += item.Velocity.DY * float32(frame.DeltaTime)
	}
}

type benchHealthSystem struct {
	Entities ecs.View[struct{ *Health }]
}

func (s *benchHealthSystem) Update(frame *ecs.UpdateFrame) {
	for _, item := range s.Entities.Iter() {
		item.Health.Current++
	}
}

func BenchmarkWorldUpdate(b *testing.B) {
	world := newTestWorld(&benchMovementSystem{})
	for i := 0; i < 1000; i++ {
		world.NewNode("", &Velocity{DX: 1, DY: 1})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		world.Update(0.016)
	}
}

func BenchmarkWorldUpdateMultipleSystems(b *testing.B) {
	world := newTestWorld(&benchMovementSystem{}, &benchHealthSystem{})
	for i := 0; i < 1000; i++ {
		world.NewNode("", &Velocity{DX: 1, DY: 1}, &Health{Current: 100, Max: 100})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		world.Update(0.016)
	}
}

func BenchmarkWorldUpdateWithChurn(b *testing.B) {
	world := newTestWorld(&benchMovementSystem{}, &benchHealthSystem{})
	nodes := make([]*ecs.Node, 1000)
	for i := range nodes {
		nodes[i] = world.NewNode("", &Velocity{DX: 1, DY: 1})
	}
	index := world.Registry().MustGetIndex(healthType)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n := nodes[i%len(nodes)]
		if !n.AddDefaultComponent(index) {
			n.RemoveComponent(index)
		}
		world.Update(0.016)
	}
}
