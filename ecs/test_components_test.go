package ecs_test

import (
	"reflect"

	"github.com/plus3/ignite/ecs"
)

// Common test component types
type Position struct {
	X, Y float32
}

// Velocity requires Position.
type Velocity struct {
	DX, DY float32
}

// Acceleration requires Velocity, and through it Position.
type Acceleration struct {
	AX, AY float32
}

type Health struct {
	Current int
	Max     int
}

type Label struct {
	Text string
}

type Frozen struct{}

type PlayerController struct{}

// Custom primitive types for testing non-struct components
type Score int32
type Temperature float64

func newTestRegistry() *ecs.ComponentRegistry {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry, reflect.TypeFor[Position]())
	ecs.RegisterComponent[Acceleration](registry, reflect.TypeFor[Velocity]())
	ecs.RegisterComponent[Health](registry)
	ecs.RegisterComponent[Label](registry)
	ecs.RegisterComponent[Frozen](registry)
	ecs.RegisterComponent[PlayerController](registry)
	ecs.RegisterComponent[Score](registry)
	ecs.RegisterComponent[Temperature](registry)
	return registry
}

func newTestWorld(systems ...ecs.System) *ecs.World {
	return ecs.NewWorld(newTestRegistry(), systems)
}

func ids(nodes []*ecs.Node) []ecs.NodeId {
	out := make([]ecs.NodeId, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID()
	}
	return out
}

// recorder is an Update system that records the members it sees.
type recorder struct {
	filters     []ecs.FilterEntry
	ignorePause bool
	runs        int
	seen        [][]ecs.NodeId
}

func (r *recorder) Filters() []ecs.FilterEntry { return r.filters }
func (r *recorder) IgnorePause() bool          { return r.ignorePause }

func (r *recorder) Update(frame *ecs.UpdateFrame) {
	r.runs++
	r.seen = append(r.seen, ids(frame.Context.Nodes()))
}

func (r *recorder) last() []ecs.NodeId {
	if len(r.seen) == 0 {
		return nil
	}
	return r.seen[len(r.seen)-1]
}
