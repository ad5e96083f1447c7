package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"reflect"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/plus3/ignite/ecs"
	"github.com/plus3/ignite/ecs/inspect"
	"github.com/plus3/ignite/internal/logging"
)

func main() {
	seed := flag.Uint64("seed", 0, "Seed for the piece sequence. Zero seeds from the clock.")
	logPath := flag.String("log", "", "Write debug logs to this file.")
	flag.Parse()

	logger := zap.NewNop()
	if *logPath != "" {
		var err error
		logger, err = logging.New(ecs.LoggingSettings{Level: "debug", Format: "json", Output: *logPath})
		if err != nil {
			fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync()
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer screen.Fini()

	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}
	world := newGame(*seed, screen, ecs.WithLogger(logger))
	run(world, screen)
}

// newGame builds a ready to start world. A nil screen leaves out rendering.
func newGame(seed uint64, screen tcell.Screen, opts ...ecs.Option) *ecs.World {
	registry := ecs.NewComponentRegistry()
	ecs.RegisterComponent[Grid](registry)
	ecs.RegisterComponent[Position](registry)
	ecs.RegisterComponent[Tetromino](registry)
	ecs.RegisterComponent[Velocity](registry)
	ecs.RegisterComponent[LockedPiece](registry)
	ecs.RegisterComponent[GameState](registry)
	ecs.RegisterComponent[InputState](registry)
	ecs.RegisterComponent[CollisionMap](registry)

	systems := []ecs.System{
		&CollisionSystem{},
		&InputSystem{},
		&GravitySystem{},
		&LockSystem{},
		&LineClearSystem{},
		&SpawnSystem{rng: rand.New(rand.NewPCG(seed, seed))},
	}
	if screen != nil {
		systems = append(systems, &RenderSystem{screen: screen})
	}

	world := ecs.NewWorld(registry, systems, opts...)
	initGame(world)
	return world
}

func initGame(world *ecs.World) {
	ecs.NewSingleton(world, Grid{
		Width:  GridWidth,
		Height: GridHeight,
	})

	ecs.NewSingleton(world, GameState{
		Level: 1,
	})

	ecs.NewSingleton(world, CollisionMap{
		OccupiedCells: make(map[[2]int]bool),
	})

	ecs.NewSingleton[InputState](world)
}

func resetGame(world *ecs.World) {
	*ecs.NewSingleton[GameState](world).Get() = GameState{Level: 1}
	ecs.NewSingleton[InputState](world).Get().Actions = nil

	for _, node := range world.NodesWith(reflect.TypeFor[Tetromino]()) {
		node.Destroy()
	}
	for _, node := range world.NodesWith(reflect.TypeFor[LockedPiece]()) {
		node.Destroy()
	}
}

func run(world *ecs.World, screen tcell.Screen) {
	events := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(events)
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(world.Settings().TickInterval)
	defer ticker.Stop()

	input := ecs.NewSingleton[InputState](world)
	timer := inspect.NewFrameTimer()
	var accumulator time.Duration

	world.Start()
	defer world.Exit()

	for {
		select {
		case ev, ok := <-events:
			if !ok || !handleEvent(world, screen, input.Get(), ev) {
				return
			}
		case <-ticker.C:
			accumulator = world.Tick(timer.Delta().Seconds(), accumulator)
		}
	}
}

// handleEvent applies one terminal event. It returns false when the player
// quits.
func handleEvent(world *ecs.World, screen tcell.Screen, input *InputState, ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() == tcell.KeyRune {
			switch ev.Rune() {
			case 'q':
				return false
			case 'p':
				if world.IsPaused() {
					world.Resume()
				} else {
					world.Pause()
				}
				return true
			case 'r':
				resetGame(world)
				return true
			}
		}

		if action, ok := keyAction(ev); ok && !world.IsPaused() {
			input.Actions = append(input.Actions, action)
		}

	case *tcell.EventResize:
		screen.Sync()
	}
	return true
}

func keyAction(ev *tcell.EventKey) (Action, bool) {
	switch ev.Key() {
	case tcell.KeyLeft:
		return MoveLeft, true
	case tcell.KeyRight:
		return MoveRight, true
	case tcell.KeyDown:
		return SoftDrop, true
	case tcell.KeyUp:
		return RotateClockwise, true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'h':
			return MoveLeft, true
		case 'l':
			return MoveRight, true
		case 'j':
			return SoftDrop, true
		case 'k', 'z':
			return RotateClockwise, true
		case 'x':
			return RotateCounterClockwise, true
		case ' ':
			return HardDrop, true
		}
	}
	return 0, false
}
