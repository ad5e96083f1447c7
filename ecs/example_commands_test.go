package ecs_test

import (
	"fmt"
	"reflect"

	"github.com/plus3/ignite/ecs"
)

type CleanupSystem struct {
	Entities ecs.View[struct {
		*Position
		*Health
	}]
}

func (s *CleanupSystem) Update(frame *ecs.UpdateFrame) {
	deadCount := 0
	for node, item := range s.Entities.Iter() {
		if item.Health.Current <= 0 {
			frame.Commands.Destroy(node)
			deadCount++
		}
	}
	if deadCount > 0 {
		fmt.Printf("Queued %d dead nodes for destruction\n", deadCount)
	}
}

// ExampleCommands demonstrates using command buffers to defer node mutations.
// Commands queued by systems are applied once every system of the Update pass
// has run, so no system observes a half-applied change. Destroyed nodes are
// finalized right after the buffer is flushed.
func ExampleCommands() {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Health](registry)

	world := ecs.NewWorld(registry, []ecs.System{&CleanupSystem{}})
	world.NewNode("dead", &Position{X: 0, Y: 0}, &Health{Current: 0, Max: 100})
	world.NewNode("hurt", &Position{X: 10, Y: 10}, &Health{Current: 50, Max: 100})
	world.NewNode("fine", &Position{X: 20, Y: 20}, &Health{Current: 100, Max: 100})

	world.Start()
	world.Update(1.0)

	fmt.Printf("Remaining nodes: %d\n", len(world.NodesWith(reflect.TypeFor[Position]())))

	// Output:
	// Queued 1 dead nodes for destruction
	// Remaining nodes: 2
}

type ShootTimer struct {
	TimeUntilShot float32
}

type ShootingSystem struct {
	Entities ecs.View[struct {
		*Position
		*Velocity
		*ShootTimer
	}]
}

func (s *ShootingSystem) Update(frame *ecs.UpdateFrame) {
	for _, item := range s.Entities.Iter() {
		if item.ShootTimer.TimeUntilShot <= 0 {
			frame.Commands.Spawn(
				Position{X: item.Position.X, Y: item.Position.Y},
				Velocity{DX: item.Velocity.DX * 2, DY: item.Velocity.DY * 2},
			)
			fmt.Printf("Spawned projectile at (%.0f, %.0f)\n", item.Position.X, item.Position.Y)
			item.ShootTimer.TimeUntilShot = 10
		}
	}
}

// ExampleCommands_spawning shows using commands to spawn nodes during
// iteration. Spawned nodes join the matching contexts when the buffer is
// flushed and are visible to every system from the next pass on.
func ExampleCommands_spawning() {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Velocity](registry, reflect.TypeFor[Position]())
	ecs.RegisterComponent[ShootTimer](registry)

	world := ecs.NewWorld(registry, []ecs.System{&ShootingSystem{}})
	world.NewNode("turret",
		&Position{X: 10, Y: 10},
		&Velocity{DX: 1, DY: 0},
		&ShootTimer{TimeUntilShot: 0},
	)
	world.NewNode("idle",
		&Position{X: 20, Y: 20},
		&Velocity{DX: 0, DY: 1},
		&ShootTimer{TimeUntilShot: 5},
	)

	world.Update(1.0)

	moving := world.NodesWith(reflect.TypeFor[Velocity]())
	fmt.Printf("Total nodes with velocity: %d\n", len(moving))

	// Output:
	// Spawned projectile at (10, 10)
	// Total nodes with velocity: 3
}

// ExampleCommands_Defer shows running arbitrary code after the queued
// structural changes.
func ExampleCommands_Defer() {
	world := ecs.NewWorld(ecs.NewComponentRegistry(), nil)
	commands := world.Commands()

	commands.Spawn(&Label{Text: "queued"})
	commands.Defer(func() {
		fmt.Printf("Nodes after spawns: %d\n", world.NodeCount())
	})
	fmt.Printf("Pending commands: %d\n", commands.Len())

	commands.Flush()

	// Output:
	// Pending commands: 2
	// Nodes after spawns: 1
}
