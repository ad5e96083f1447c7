package main

import (
	"math/rand/v2"
	"reflect"

	"github.com/plus3/ignite/ecs"
)

type Position struct{ X, Y float64 }
type Velocity struct{ DX, DY float64 }
type Health struct{ Current, Max int }
type Damage struct{ Amount int }
type Team struct{ Id int }
type Lifetime struct{ Remaining float64 }
type Frozen struct{}
type Tag struct{ Value uint32 }

// stressComponents lists the component types nodes and systems draw from.
var stressComponents = []reflect.Type{
	reflect.TypeFor[Position](),
	reflect.TypeFor[Velocity](),
	reflect.TypeFor[Health](),
	reflect.TypeFor[Damage](),
	reflect.TypeFor[Team](),
	reflect.TypeFor[Lifetime](),
	reflect.TypeFor[Frozen](),
	reflect.TypeFor[Tag](),
}

// RegisterComponents registers the stress components. Velocity requires
// Position and Damage requires Health, so node creation also exercises the
// required-component closure.
func RegisterComponents(registry *ecs.ComponentRegistry) {
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry, reflect.TypeFor[Position]())
	ecs.RegisterComponent[Health](registry)
	ecs.RegisterComponent[Damage](registry, reflect.TypeFor[Health]())
	ecs.RegisterComponent[Team](registry)
	ecs.RegisterComponent[Lifetime](registry)
	ecs.RegisterComponent[Frozen](registry)
	ecs.RegisterComponent[Tag](registry)
}

// SpawnRandomNode creates a node with up to count distinct random default
// components.
func SpawnRandomNode(w *ecs.World, rng *rand.Rand, count int) *ecs.Node {
	b := w.NewBuilder()
	for _, i := range rng.Perm(len(stressComponents))[:count] {
		b.WithDefault(stressComponents[i])
	}
	return b.Build()
}

// randomFilters builds a filter with one AllOf type and, sometimes, an AnyOf
// or NoneOf group.
func randomFilters(rng *rand.Rand) []ecs.FilterEntry {
	perm := rng.Perm(len(stressComponents))
	entries := []ecs.FilterEntry{
		ecs.NewFilter(ecs.AllOf, stressComponents[perm[0]]),
	}
	switch rng.IntN(3) {
	case 1:
		entries = append(entries, ecs.NewFilter(ecs.AnyOf, stressComponents[perm[1]], stressComponents[perm[2]]).As(ecs.Read))
	case 2:
		entries = append(entries, ecs.NewFilter(ecs.NoneOf, stressComponents[perm[1]]))
	}
	return entries
}
