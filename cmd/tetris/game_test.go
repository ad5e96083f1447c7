package main

import (
	"reflect"
	"slices"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/ignite/ecs"
)

func activePieces(world *ecs.World) []*ecs.Node {
	return world.NodesWith(reflect.TypeFor[Tetromino]())
}

func lockedCells(world *ecs.World) [][2]int {
	var cells [][2]int
	for _, node := range world.NodesWith(reflect.TypeFor[LockedPiece]()) {
		pos, _ := ecs.Get[Position](node)
		cells = append(cells, [2]int{pos.X, pos.Y})
	}
	slices.SortFunc(cells, func(a, b [2]int) int {
		if a[1] != b[1] {
			return a[1] - b[1]
		}
		return a[0] - b[0]
	})
	return cells
}

func lockCell(world *ecs.World, x, y int) {
	world.NewNode("", &Position{X: x, Y: y}, &LockedPiece{Color: tcell.ColorGray})
}

func TestRotateShape(t *testing.T) {
	for i, shape := range tetrominoShapes {
		rotated := shape
		for range 4 {
			rotated = rotateShape(rotated, true)
		}
		assert.Equal(t, shape, rotated, "shape %d after a full turn", i)
		assert.Equal(t, shape, rotateShape(rotateShape(shape, true), false), "shape %d back and forth", i)
	}

	// The I piece stands upright after one clockwise turn.
	upright := rotateShape(tetrominoShapes[0], true)
	for _, row := range upright {
		assert.Equal(t, []bool{false, false, true, false}, row)
	}
}

func TestCheckCollision(t *testing.T) {
	grid := &Grid{Width: GridWidth, Height: GridHeight}
	collisionMap := &CollisionMap{OccupiedCells: map[[2]int]bool{{5, 10}: true}}
	square := tetrominoShapes[1]

	assert.False(t, checkCollision(square, Position{X: 0, Y: 0}, grid, collisionMap))
	assert.True(t, checkCollision(square, Position{X: -2, Y: 0}, grid, collisionMap), "left wall")
	assert.True(t, checkCollision(square, Position{X: 8, Y: 0}, grid, collisionMap), "right wall")
	assert.True(t, checkCollision(square, Position{X: 0, Y: 18}, grid, collisionMap), "floor")
	assert.False(t, checkCollision(square, Position{X: 0, Y: -2}, grid, collisionMap), "above the board")
	assert.True(t, checkCollision(square, Position{X: 4, Y: 8}, grid, collisionMap), "locked cell")

	assert.Equal(t, 17, dropDistance(square, Position{X: 0, Y: 0}, grid, collisionMap))
	assert.Equal(t, 7, dropDistance(square, Position{X: 4, Y: 0}, grid, collisionMap))
}

func TestSpawn(t *testing.T) {
	world := newGame(1, nil)
	world.Start()

	world.Update(0.05)
	assert.Empty(t, activePieces(world), "waits for the spawn delay")

	world.Update(0.1)
	pieces := activePieces(world)
	require.Len(t, pieces, 1)
	pos, _ := ecs.Get[Position](pieces[0])
	assert.Equal(t, Position{X: 3, Y: 0}, *pos)
	assert.True(t, ecs.Has[Velocity](pieces[0]))

	state := ecs.NewSingleton[GameState](world).Get()
	assert.Len(t, state.NextPieces, 6, "one piece taken from the bag")

	world.Update(0.2)
	assert.Len(t, activePieces(world), 1, "only one active piece")
}

func TestHardDropLocks(t *testing.T) {
	world := newGame(7, nil)
	world.Start()
	world.Update(0.2)
	require.Len(t, activePieces(world), 1)

	input := ecs.NewSingleton[InputState](world).Get()
	input.Actions = append(input.Actions, HardDrop)
	world.Update(0.01)
	assert.Empty(t, input.Actions, "actions are consumed")
	assert.Empty(t, lockedCells(world), "lock waits for the delay")

	world.Update(lockDelay)
	assert.Empty(t, activePieces(world))
	cells := lockedCells(world)
	require.Len(t, cells, 4)
	assert.Equal(t, GridHeight-1, cells[len(cells)-1][1], "landed on the floor")

	world.Update(0.01)
	assert.Len(t, activePieces(world), 1, "next piece follows")
}

func TestPlayerMoves(t *testing.T) {
	world := newGame(3, nil)
	world.Start()
	world.Update(0.2)
	pieces := activePieces(world)
	require.Len(t, pieces, 1)
	pos, _ := ecs.Get[Position](pieces[0])

	input := ecs.NewSingleton[InputState](world).Get()
	input.Actions = append(input.Actions, MoveLeft, MoveLeft, SoftDrop)
	world.Update(0.01)
	assert.Equal(t, Position{X: 1, Y: 1}, *pos)

	for range 10 {
		input.Actions = append(input.Actions, MoveLeft)
	}
	world.Update(0.01)
	assert.Less(t, pos.X, 1)
	tetromino, _ := ecs.Get[Tetromino](pieces[0])
	grid := ecs.NewSingleton[Grid](world).Get()
	assert.False(t, checkCollision(tetromino.Shape, *pos, grid, &CollisionMap{}), "stopped at the wall")
}

func TestLineClear(t *testing.T) {
	world := newGame(1, nil)
	for x := range GridWidth {
		lockCell(world, x, GridHeight-1)
	}
	lockCell(world, 0, GridHeight-2)
	lockCell(world, 4, GridHeight-3)

	world.Update(0.01)

	assert.Equal(t, [][2]int{{4, GridHeight - 2}, {0, GridHeight - 1}}, lockedCells(world))
	state := ecs.NewSingleton[GameState](world).Get()
	assert.Equal(t, 1, state.LinesCleared)
	assert.Equal(t, 100, state.Score)
	assert.Equal(t, 1, state.Level)
}

func TestGameOver(t *testing.T) {
	world := newGame(1, nil)
	for x := range GridWidth - 1 {
		lockCell(world, x, 1)
		lockCell(world, x, 2)
	}

	world.Update(0.2)
	state := ecs.NewSingleton[GameState](world).Get()
	assert.True(t, state.GameOver)
	assert.Empty(t, activePieces(world))

	resetGame(world)
	world.Update(0.2)
	assert.False(t, ecs.NewSingleton[GameState](world).Get().GameOver)
	assert.Empty(t, lockedCells(world))
}

func TestPauseHaltsGravity(t *testing.T) {
	world := newGame(1, nil)
	world.Start()
	world.Update(0.2)
	pieces := activePieces(world)
	require.Len(t, pieces, 1)
	pos, _ := ecs.Get[Position](pieces[0])

	world.Pause()
	world.Update(5)
	assert.Equal(t, 0, pos.Y)

	world.Resume()
	world.Update(0.95)
	assert.Equal(t, 1, pos.Y)
}

func TestHandleEvent(t *testing.T) {
	world := newGame(1, nil)
	input := ecs.NewSingleton[InputState](world).Get()

	assert.True(t, handleEvent(world, nil, input, tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone)))
	assert.True(t, handleEvent(world, nil, input, tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone)))
	assert.Equal(t, []Action{MoveLeft, HardDrop}, input.Actions)

	assert.True(t, handleEvent(world, nil, input, tcell.NewEventKey(tcell.KeyRune, 'p', tcell.ModNone)))
	assert.True(t, world.IsPaused())
	handleEvent(world, nil, input, tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone))
	assert.Len(t, input.Actions, 2, "input is dropped while paused")
	handleEvent(world, nil, input, tcell.NewEventKey(tcell.KeyRune, 'p', tcell.ModNone))
	assert.False(t, world.IsPaused())

	assert.False(t, handleEvent(world, nil, input, tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)))
	assert.False(t, handleEvent(world, nil, input, tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)))
}

func TestRenderSystem(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(60, 30)
	defer screen.Fini()

	world := newGame(1, screen)
	world.Start()
	world.Update(0.2)
	lockCell(world, 0, GridHeight-1)
	world.Render(0)

	readText := func(x, y, n int) string {
		var text []rune
		for i := range n {
			r, _, _, _ := screen.GetContent(x+i, y)
			text = append(text, r)
		}
		return string(text)
	}

	panelX := boardX + GridWidth*CellWidth + 1 + 3
	assert.Equal(t, "SCORE", readText(panelX, boardY+1, 5))
	assert.Equal(t, "┌──", readText(boardX, boardY, 3))

	_, _, style, _ := screen.GetContent(boardX+1, boardY+GridHeight)
	_, bg, _ := style.Decompose()
	assert.Equal(t, tcell.ColorGray, bg, "locked cell drawn in its color")

	world.Pause()
	world.Render(0)
	assert.Equal(t, "PAUSED", readText(panelX, boardY+1+9, 6))
}
