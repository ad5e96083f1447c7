package ecs_test

import (
	"fmt"
	"reflect"

	"github.com/plus3/ignite/ecs"
)

// ExampleQuery demonstrates ad-hoc queries outside of systems. A Query runs
// a closure over the shared context of its filter; contexts are kept up to
// date incrementally, so executing a query again costs no rescan.
func ExampleQuery() {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry)
	ecs.RegisterComponent[Health](registry)
	world := ecs.NewWorld(registry, nil)

	world.NewNode("a", &Position{X: 0, Y: 0}, &Velocity{DX: 1, DY: 0})
	world.NewNode("b", &Position{X: 10, Y: 10}, &Velocity{DX: 0, DY: 1}, &Health{Current: 100, Max: 100})
	world.NewNode("c", &Position{X: 20, Y: 20}, &Velocity{DX: -1, DY: -1})

	query := world.Q(func(ctx *ecs.Context) {
		fmt.Println("Moving nodes:")
		for pos, vel := range ecs.Each2[Position, Velocity](ctx) {
			fmt.Printf("Position (%.0f, %.0f) -> (%.0f, %.0f)\n",
				pos.X, pos.Y, pos.X+vel.DX, pos.Y+vel.DY)
		}
	}, reflect.TypeFor[Position](), reflect.TypeFor[Velocity]())

	if !query.Execute() {
		fmt.Println("query failed:", query.Err())
	}

	// Output:
	// Moving nodes:
	// Position (0, 0) -> (1, 0)
	// Position (10, 10) -> (10, 11)
	// Position (20, 20) -> (19, 19)
}

// ExampleQ2 shows the typed form of a query.
func ExampleQ2() {
	world := ecs.NewWorld(ecs.NewComponentRegistry(), nil)
	world.NewNode("hero", &Position{X: 1}, &Health{Current: 30, Max: 100})
	world.NewNode("ghost", &Position{X: 2})

	ecs.Q2(world, func(n *ecs.Node, pos *Position, health *Health) {
		fmt.Printf("%s at %.0f has %d hp\n", n.Name(), pos.X, health.Current)
	}).Execute()

	// Output:
	// hero at 1 has 30 hp
}

// ExampleQuery_Execute shows that a failing query reports its error instead
// of panicking.
func ExampleQuery_Execute() {
	world := ecs.NewWorld(ecs.NewComponentRegistry(), nil)
	world.NewNode("", &Position{})

	query := world.Q(func(ctx *ecs.Context) {
		// Health is not part of the query's filter.
		for range ecs.Each[Health](ctx) {
		}
	}, reflect.TypeFor[Position]())

	fmt.Println("ok:", query.Execute())
	fmt.Println(query.Err() != nil)

	// Output:
	// ok: false
	// true
}
