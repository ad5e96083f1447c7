package main

import (
	"github.com/gdamore/tcell/v2"
)

type Grid struct {
	Width  int
	Height int
}

type Position struct {
	X, Y int
}

type Tetromino struct {
	Type     int
	Shape    [][]bool
	Color    tcell.Color
	Rotation int
}

type Velocity struct {
	FallSpeed   float64
	Accumulator float64
}

type LockedPiece struct {
	Color tcell.Color
}

type GameState struct {
	Score        int
	Level        int
	LinesCleared int
	GameOver     bool
	SpawnTimer   float64
	LockDelay    float64
	NextPieces   []int
}

// Action is a player command decoded from a key press.
type Action uint8

const (
	MoveLeft Action = iota
	MoveRight
	SoftDrop
	RotateClockwise
	RotateCounterClockwise
	HardDrop
)

// InputState queues the actions received since the last Update. Terminals
// report key presses, not key state, so held keys arrive as repeated
// actions.
type InputState struct {
	Actions []Action
}

type CollisionMap struct {
	OccupiedCells map[[2]int]bool
}
