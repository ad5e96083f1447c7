package main

import (
	"math/rand/v2"
	"reflect"

	"github.com/plus3/ignite/ecs"
)

// FilterSystem walks the members of a random filter every update.
type FilterSystem struct {
	filters []ecs.FilterEntry
	Visited int
}

func (s *FilterSystem) Filters() []ecs.FilterEntry { return s.filters }

func (s *FilterSystem) Update(frame *ecs.UpdateFrame) {
	for _, node := range frame.Context.Nodes() {
		if node.IsEnabled() {
			s.Visited++
		}
	}
}

// MovementSystem integrates velocities.
type MovementSystem struct {
	Movers ecs.View[struct {
		*Position
		*Velocity
	}]
}

func (s *MovementSystem) Update(frame *ecs.UpdateFrame) {
	for _, m := range s.Movers.Iter() {
		m.Position.X += m.Velocity.DX * frame.DeltaTime
		m.Position.Y += m.Velocity.DY * frame.DeltaTime
	}
}

// ChurnSystem mutates a share of the world every update through Commands so
// that contexts keep re-evaluating membership.
type ChurnSystem struct {
	rng        *rand.Rand
	rate       float64
	Spawned    int
	Destroyed  int
	Mutations  int
	components []reflect.Type
}

func (s *ChurnSystem) Update(frame *ecs.UpdateFrame) {
	w := frame.World
	nodes := w.Nodes()
	if len(nodes) == 0 {
		return
	}

	changes := int(float64(len(nodes)) * s.rate)
	for range changes {
		node := nodes[s.rng.IntN(len(nodes))]
		t := s.components[s.rng.IntN(len(s.components))]

		switch s.rng.IntN(6) {
		case 0:
			frame.Commands.Destroy(node)
			frame.Commands.Spawn(reflect.New(t).Interface())
			s.Destroyed++
			s.Spawned++
		case 1:
			if node.IsEnabled() {
				node.Disable()
			} else {
				node.Enable()
			}
		case 2, 3:
			frame.Commands.RemoveComponent(node, t)
		default:
			frame.Commands.AddComponent(node, reflect.New(t).Interface())
		}
		s.Mutations++
	}
}
