package main

import (
	"fmt"
	"math/rand/v2"
	"reflect"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"github.com/plus3/ignite/ecs"
)

const (
	GridWidth  = 10
	GridHeight = 20
	CellWidth  = 2

	lockDelay  = 0.5
	spawnDelay = 0.1
)

var tetrominoShapes = [][][]bool{
	{ // I
		{false, false, false, false},
		{true, true, true, true},
		{false, false, false, false},
		{false, false, false, false},
	},
	{ // O
		{false, false, false, false},
		{false, true, true, false},
		{false, true, true, false},
		{false, false, false, false},
	},
	{ // T
		{false, false, false, false},
		{false, true, false, false},
		{true, true, true, false},
		{false, false, false, false},
	},
	{ // S
		{false, false, false, false},
		{false, true, true, false},
		{true, true, false, false},
		{false, false, false, false},
	},
	{ // Z
		{false, false, false, false},
		{true, true, false, false},
		{false, true, true, false},
		{false, false, false, false},
	},
	{ // J
		{false, false, false, false},
		{true, false, false, false},
		{true, true, true, false},
		{false, false, false, false},
	},
	{ // L
		{false, false, false, false},
		{false, false, true, false},
		{true, true, true, false},
		{false, false, false, false},
	},
}

var tetrominoColors = []tcell.Color{
	tcell.ColorSkyblue,
	tcell.ColorGold,
	tcell.ColorViolet,
	tcell.ColorLime,
	tcell.ColorPink,
	tcell.ColorBlue,
	tcell.ColorOrange,
}

func rotateShape(shape [][]bool, clockwise bool) [][]bool {
	size := len(shape)
	rotated := make([][]bool, size)
	for i := range rotated {
		rotated[i] = make([]bool, size)
	}

	for i := range size {
		for j := range size {
			if clockwise {
				rotated[j][size-1-i] = shape[i][j]
			} else {
				rotated[size-1-j][i] = shape[i][j]
			}
		}
	}

	return rotated
}

func checkCollision(shape [][]bool, pos Position, grid *Grid, collisionMap *CollisionMap) bool {
	for i := range shape {
		for j, value := range shape[i] {
			if !value {
				continue
			}

			x := pos.X + j
			y := pos.Y + i

			if x < 0 || x >= grid.Width || y >= grid.Height {
				return true
			}

			if y >= 0 && collisionMap.OccupiedCells[[2]int{x, y}] {
				return true
			}
		}
	}

	return false
}

// dropDistance returns how far the shape can fall from pos.
func dropDistance(shape [][]bool, pos Position, grid *Grid, collisionMap *CollisionMap) int {
	distance := 0
	for !checkCollision(shape, Position{X: pos.X, Y: pos.Y + distance + 1}, grid, collisionMap) {
		distance++
	}
	return distance
}

type CollisionSystem struct {
	LockedPieces ecs.View[struct {
		*Position
		*LockedPiece
	}]
	CollisionMap ecs.Singleton[CollisionMap]
}

func (s *CollisionSystem) Update(frame *ecs.UpdateFrame) {
	collisionMap := s.CollisionMap.Get()
	if collisionMap == nil {
		return
	}

	collisionMap.OccupiedCells = make(map[[2]int]bool)
	for piece := range s.LockedPieces.Values() {
		collisionMap.OccupiedCells[[2]int{piece.Position.X, piece.Position.Y}] = true
	}
}

type InputSystem struct {
	ActivePiece ecs.View[struct {
		*Position
		*Tetromino
	}]
	Grid         ecs.Singleton[Grid]
	CollisionMap ecs.Singleton[CollisionMap]
	Input        ecs.Singleton[InputState]
}

func (s *InputSystem) Update(frame *ecs.UpdateFrame) {
	input := s.Input.Get()
	grid := s.Grid.Get()
	collisionMap := s.CollisionMap.Get()
	if input == nil || grid == nil || collisionMap == nil {
		return
	}

	for piece := range s.ActivePiece.Values() {
		for _, action := range input.Actions {
			applyAction(action, piece.Position, piece.Tetromino, grid, collisionMap)
		}
	}
	input.Actions = input.Actions[:0]
}

func applyAction(action Action, pos *Position, tetromino *Tetromino, grid *Grid, collisionMap *CollisionMap) {
	switch action {
	case MoveLeft, MoveRight, SoftDrop:
		next := *pos
		switch action {
		case MoveLeft:
			next.X--
		case MoveRight:
			next.X++
		case SoftDrop:
			next.Y++
		}
		if !checkCollision(tetromino.Shape, next, grid, collisionMap) {
			*pos = next
		}

	case RotateClockwise, RotateCounterClockwise:
		clockwise := action == RotateClockwise
		rotated := rotateShape(tetromino.Shape, clockwise)
		if checkCollision(rotated, *pos, grid, collisionMap) {
			return
		}
		tetromino.Shape = rotated
		if clockwise {
			tetromino.Rotation = (tetromino.Rotation + 1) % 4
		} else {
			tetromino.Rotation = (tetromino.Rotation + 3) % 4
		}

	case HardDrop:
		pos.Y += dropDistance(tetromino.Shape, *pos, grid, collisionMap)
	}
}

type GravitySystem struct {
	ActivePiece ecs.View[struct {
		*Position
		*Velocity
		*Tetromino
	}]
	Grid         ecs.Singleton[Grid]
	GameState    ecs.Singleton[GameState]
	CollisionMap ecs.Singleton[CollisionMap]
}

func (s *GravitySystem) Update(frame *ecs.UpdateFrame) {
	grid := s.Grid.Get()
	gameState := s.GameState.Get()
	collisionMap := s.CollisionMap.Get()
	if grid == nil || gameState == nil || collisionMap == nil || gameState.GameOver {
		return
	}

	for piece := range s.ActivePiece.Values() {
		piece.Velocity.Accumulator += frame.DeltaTime

		newPos := Position{X: piece.Position.X, Y: piece.Position.Y + 1}
		isGrounded := checkCollision(piece.Tetromino.Shape, newPos, grid, collisionMap)

		if isGrounded {
			gameState.LockDelay += frame.DeltaTime
		} else {
			gameState.LockDelay = 0
		}

		if piece.Velocity.Accumulator >= 1.0/piece.Velocity.FallSpeed {
			piece.Velocity.Accumulator = 0

			if !isGrounded {
				piece.Position.Y++
			}
		}
	}
}

type LockSystem struct {
	ActivePiece ecs.View[struct {
		*Position
		*Tetromino
	}]
	Grid      ecs.Singleton[Grid]
	GameState ecs.Singleton[GameState]
}

func (s *LockSystem) Update(frame *ecs.UpdateFrame) {
	grid := s.Grid.Get()
	gameState := s.GameState.Get()
	if grid == nil || gameState == nil || gameState.GameOver {
		return
	}

	for node, piece := range s.ActivePiece.Iter() {
		if gameState.LockDelay < lockDelay {
			continue
		}

		for i, row := range piece.Tetromino.Shape {
			for j, filled := range row {
				if !filled {
					continue
				}
				x := piece.Position.X + j
				y := piece.Position.Y + i
				if y >= 0 && y < grid.Height && x >= 0 && x < grid.Width {
					frame.Commands.Spawn(
						&Position{X: x, Y: y},
						&LockedPiece{Color: piece.Tetromino.Color},
					)
				}
			}
		}

		frame.Commands.Destroy(node)
		gameState.LockDelay = 0
		gameState.SpawnTimer = spawnDelay
	}
}

type LineClearSystem struct {
	Grid         ecs.Singleton[Grid]
	GameState    ecs.Singleton[GameState]
	LockedPieces ecs.View[struct {
		*Position
		*LockedPiece
	}]
}

func (s *LineClearSystem) Update(frame *ecs.UpdateFrame) {
	grid := s.Grid.Get()
	gameState := s.GameState.Get()
	if grid == nil || gameState == nil {
		return
	}

	rowCounts := make([]int, grid.Height)
	for piece := range s.LockedPieces.Values() {
		if piece.Position.Y >= 0 && piece.Position.Y < grid.Height {
			rowCounts[piece.Position.Y]++
		}
	}

	var completedLines []int
	for y, count := range rowCounts {
		if count == grid.Width {
			completedLines = append(completedLines, y)
		}
	}
	if len(completedLines) == 0 {
		return
	}

	for node, piece := range s.LockedPieces.Iter() {
		linesBelow := 0
		for _, clearedY := range completedLines {
			if clearedY == piece.Position.Y {
				frame.Commands.Destroy(node)
				linesBelow = 0
				break
			}
			if clearedY > piece.Position.Y {
				linesBelow++
			}
		}
		piece.Position.Y += linesBelow
	}

	gameState.LinesCleared += len(completedLines)
	gameState.Score += len(completedLines) * 100
	gameState.Level = gameState.LinesCleared/10 + 1
	frame.World.Logger().Debug("lines cleared",
		zap.Int("lines", len(completedLines)),
		zap.Int("score", gameState.Score),
	)
}

type SpawnSystem struct {
	ActivePiece ecs.View[struct {
		*Tetromino
	}]
	Grid         ecs.Singleton[Grid]
	GameState    ecs.Singleton[GameState]
	CollisionMap ecs.Singleton[CollisionMap]

	rng *rand.Rand
}

func (s *SpawnSystem) Update(frame *ecs.UpdateFrame) {
	if s.ActivePiece.Context().Count() > 0 {
		return
	}

	grid := s.Grid.Get()
	gameState := s.GameState.Get()
	collisionMap := s.CollisionMap.Get()
	if grid == nil || gameState == nil || collisionMap == nil || gameState.GameOver {
		return
	}

	gameState.SpawnTimer += frame.DeltaTime
	if gameState.SpawnTimer < spawnDelay {
		return
	}
	gameState.SpawnTimer = 0

	if len(gameState.NextPieces) == 0 {
		bag := []int{0, 1, 2, 3, 4, 5, 6}
		s.rng.Shuffle(len(bag), func(i, j int) {
			bag[i], bag[j] = bag[j], bag[i]
		})
		gameState.NextPieces = bag
	}

	pieceType := gameState.NextPieces[0]
	gameState.NextPieces = gameState.NextPieces[1:]

	shape := make([][]bool, len(tetrominoShapes[pieceType]))
	for i := range shape {
		shape[i] = make([]bool, len(tetrominoShapes[pieceType][i]))
		copy(shape[i], tetrominoShapes[pieceType][i])
	}

	pos := Position{X: 3, Y: 0}
	if checkCollision(shape, pos, grid, collisionMap) {
		gameState.GameOver = true
		frame.World.Logger().Info("game over", zap.Int("score", gameState.Score))
		return
	}

	frame.Commands.Spawn(
		&pos,
		&Tetromino{
			Type:  pieceType,
			Shape: shape,
			Color: tetrominoColors[pieceType],
		},
		&Velocity{FallSpeed: 1.0 + float64(gameState.Level)*0.1},
	)
}

// RenderSystem draws the board and side panel. Its single context holds the
// active piece and the locked cells.
type RenderSystem struct {
	Grid      ecs.Singleton[Grid]
	GameState ecs.Singleton[GameState]
	Collision ecs.Singleton[CollisionMap]
	Pieces    ecs.View[struct {
		*Position
		Active *Tetromino   `ecs:"optional"`
		Locked *LockedPiece `ecs:"optional"`
	}]

	screen tcell.Screen
}

func (s *RenderSystem) Filters() []ecs.FilterEntry {
	return []ecs.FilterEntry{
		ecs.NewFilter(ecs.AllOf, reflect.TypeFor[Position]()),
		ecs.NewFilter(ecs.AnyOf, reflect.TypeFor[Tetromino](), reflect.TypeFor[LockedPiece]()),
	}
}

const (
	boardX = 2
	boardY = 1
)

func (s *RenderSystem) Render(frame *ecs.UpdateFrame) {
	grid := s.Grid.Get()
	if grid == nil {
		return
	}
	s.screen.Clear()

	border := tcell.StyleDefault.Foreground(tcell.ColorGray)
	right := boardX + grid.Width*CellWidth + 1
	bottom := boardY + grid.Height + 1
	for x := boardX; x <= right; x++ {
		s.screen.SetContent(x, boardY, '─', nil, border)
		s.screen.SetContent(x, bottom, '─', nil, border)
	}
	for y := boardY; y <= bottom; y++ {
		s.screen.SetContent(boardX, y, '│', nil, border)
		s.screen.SetContent(right, y, '│', nil, border)
	}
	s.screen.SetContent(boardX, boardY, '┌', nil, border)
	s.screen.SetContent(right, boardY, '┐', nil, border)
	s.screen.SetContent(boardX, bottom, '└', nil, border)
	s.screen.SetContent(right, bottom, '┘', nil, border)

	collisionMap := s.Collision.Get()
	for _, piece := range s.Pieces.Iter() {
		switch {
		case piece.Locked != nil:
			s.drawCell(piece.Position.X, piece.Position.Y, tcell.StyleDefault.Background(piece.Locked.Color))

		case piece.Active != nil:
			shape := piece.Active.Shape
			if collisionMap != nil {
				ghostY := piece.Position.Y + dropDistance(shape, *piece.Position, grid, collisionMap)
				ghost := tcell.StyleDefault.Foreground(tcell.ColorDimGray)
				s.drawShape(shape, Position{X: piece.Position.X, Y: ghostY}, ghost, '░')
			}
			s.drawShape(shape, *piece.Position, tcell.StyleDefault.Background(piece.Active.Color), ' ')
		}
	}

	s.drawPanel(frame.World, right+3)
	s.screen.Show()
}

func (s *RenderSystem) drawShape(shape [][]bool, pos Position, style tcell.Style, fill rune) {
	for i, row := range shape {
		for j, filled := range row {
			if filled && pos.Y+i >= 0 {
				s.drawCellRune(pos.X+j, pos.Y+i, style, fill)
			}
		}
	}
}

func (s *RenderSystem) drawCell(x, y int, style tcell.Style) {
	s.drawCellRune(x, y, style, ' ')
}

func (s *RenderSystem) drawCellRune(x, y int, style tcell.Style, fill rune) {
	col := boardX + 1 + x*CellWidth
	row := boardY + 1 + y
	for i := range CellWidth {
		s.screen.SetContent(col+i, row, fill, nil, style)
	}
}

func (s *RenderSystem) drawPanel(world *ecs.World, x int) {
	gameState := s.GameState.Get()
	if gameState == nil {
		return
	}

	label := tcell.StyleDefault.Foreground(tcell.ColorGray)
	value := tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	y := boardY + 1
	for _, stat := range []struct {
		name  string
		value int
	}{
		{"SCORE", gameState.Score},
		{"LEVEL", gameState.Level},
		{"LINES", gameState.LinesCleared},
	} {
		drawText(s.screen, x, y, stat.name, label)
		drawText(s.screen, x, y+1, fmt.Sprintf("%d", stat.value), value)
		y += 3
	}

	switch {
	case gameState.GameOver:
		drawText(s.screen, x, y, "GAME OVER", tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true))
		drawText(s.screen, x, y+1, "Press R to restart", label)
	case world.IsPaused():
		drawText(s.screen, x, y, "PAUSED", tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true))
	}

	y += 3
	for _, help := range []string{
		"←/→  move",
		"↓    soft drop",
		"↑ z  rotate",
		"x    rotate back",
		"␣    hard drop",
		"p    pause",
		"r    restart",
		"q    quit",
	} {
		drawText(s.screen, x, y, help, label)
		y++
	}
}

func drawText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
}
