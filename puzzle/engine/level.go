package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Layout characters. 'S' places an agent on an empty tile, '*' places an
// agent directly on a finish tile.
const (
	charEmpty      = '.'
	charWall       = '#'
	charIce        = 'I'
	charRotatorCW  = 'R'
	charRotatorCCW = 'L'
	charFinish     = 'F'
	charStart      = 'S'
	charStartGoal  = '*'
)

// requiredLegend maps every layout character to its tile name. Level files
// carry the legend redundantly so they stay readable on their own.
var requiredLegend = map[string]string{
	".": "empty",
	"#": "wall",
	"I": "ice",
	"R": "rotator_cw",
	"L": "rotator_ccw",
	"F": "finish",
	"S": "start",
	"*": "start_on_finish",
}

// ValidateLevelConfig validates a level definition for structural correctness
// and basic solvability preconditions
func ValidateLevelConfig(config *LevelConfig) error {
	if config == nil {
		return fmt.Errorf("level validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("level validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("level validation: description is required")
	}

	rows := len(config.Layout)
	if rows < MinGridSize || rows > MaxGridSize {
		return fmt.Errorf("level validation: layout must have between %d and %d rows, got %d", MinGridSize, MaxGridSize, rows)
	}

	width := len(config.Layout[0])
	if width < MinGridSize || width > MaxGridSize {
		return fmt.Errorf("level validation: rows must have between %d and %d columns, got %d", MinGridSize, MaxGridSize, width)
	}

	agentCount := 0
	finishCount := 0
	for i, row := range config.Layout {
		if len(row) != width {
			return fmt.Errorf("level validation: row %d must have %d characters to match row 1, got %d", i+1, width, len(row))
		}
		for j, char := range row {
			switch char {
			case charEmpty, charWall, charIce, charRotatorCW, charRotatorCCW:
			case charFinish:
				finishCount++
			case charStart:
				agentCount++
			case charStartGoal:
				agentCount++
				finishCount++
			default:
				return fmt.Errorf("level validation: invalid character '%c' at row %d, col %d", char, i+1, j+1)
			}
		}
	}

	if agentCount == 0 {
		return fmt.Errorf("level validation: layout must contain at least one agent start (S or *)")
	}
	if finishCount == 0 {
		return fmt.Errorf("level validation: layout must contain at least one finish (F or *)")
	}
	if finishCount < agentCount {
		return fmt.Errorf("level validation: %d agents need at least %d finish tiles, layout has %d",
			agentCount, agentCount, finishCount)
	}

	for key, expectedValue := range requiredLegend {
		if value, ok := config.Legend[key]; !ok || value != expectedValue {
			return fmt.Errorf("level validation: legend['%s'] must be '%s', got '%s'", key, expectedValue, value)
		}
	}

	if config.MaxSteps < 0 || config.MaxSteps > MaxStepsLimit {
		return fmt.Errorf("level validation: max_steps must be between 0 and %d, got %d", MaxStepsLimit, config.MaxSteps)
	}
	if config.MaxRotations < 0 {
		return fmt.Errorf("level validation: max_rotations cannot be negative, got %d", config.MaxRotations)
	}

	if config.Messages.Welcome == "" {
		return fmt.Errorf("level validation: messages.welcome is required")
	}
	if config.Messages.Solved == "" {
		return fmt.Errorf("level validation: messages.solved is required")
	}

	return nil
}

// LoadLevelConfig loads a level definition from a JSON file
func LoadLevelConfig(filename string) (*LevelConfig, error) {
	path := filename
	if levelsDir := os.Getenv("LEVELS_DIR"); levelsDir != "" {
		if strings.HasPrefix(filename, "levels/") {
			path = filepath.Join(levelsDir, strings.TrimPrefix(filename, "levels/"))
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config LevelConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := ValidateLevelConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// BoardFromConfig builds the immutable board from a validated level
// definition. Start markers become empty or finish tiles with an agent
// start recorded on top.
func BoardFromConfig(config *LevelConfig) (*Board, error) {
	if err := ValidateLevelConfig(config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBoard, err)
	}
	return ParseBoard(config.Layout)
}

// ParseBoard parses the textual grid encoding (one character per tile, one
// string per row) into a Board. It is the fixture format used throughout the
// tests and the only persisted board shape.
func ParseBoard(rows []string) (*Board, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty layout", ErrInvalidBoard)
	}
	width := len(rows[0])

	grid := make([][]Tile, len(rows))
	var starts []Position

	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d characters, want %d", ErrInvalidBoard, y+1, len(row), width)
		}
		grid[y] = make([]Tile, width)
		for x, char := range row {
			switch char {
			case charEmpty:
				grid[y][x] = Tile{Type: Empty}
			case charWall:
				grid[y][x] = Tile{Type: Wall}
			case charIce:
				grid[y][x] = Tile{Type: Ice}
			case charRotatorCW:
				grid[y][x] = Tile{Type: RotatorCW}
			case charRotatorCCW:
				grid[y][x] = Tile{Type: RotatorCCW}
			case charFinish:
				grid[y][x] = Tile{Type: Finish}
			case charStart:
				grid[y][x] = Tile{Type: Empty}
				starts = append(starts, Position{X: x, Y: y})
			case charStartGoal:
				grid[y][x] = Tile{Type: Finish}
				starts = append(starts, Position{X: x, Y: y})
			default:
				return nil, fmt.Errorf("%w: unknown tile '%c' at row %d, col %d", ErrInvalidBoard, char, y+1, x+1)
			}
		}
	}

	board := &Board{Grid: grid, Starts: starts}
	if err := board.Validate(); err != nil {
		return nil, err
	}
	return board, nil
}

// Validate checks the structural invariants a board must satisfy before any
// simulation begins: a rectangular non-empty grid with defined tile types,
// and every agent start in bounds on a passable tile.
func (b *Board) Validate() error {
	if b == nil || len(b.Grid) == 0 || len(b.Grid[0]) == 0 {
		return fmt.Errorf("%w: empty grid", ErrInvalidBoard)
	}
	width := len(b.Grid[0])
	for y, row := range b.Grid {
		if len(row) != width {
			return fmt.Errorf("%w: ragged grid at row %d", ErrInvalidBoard, y+1)
		}
		for x, tile := range row {
			switch tile.Type {
			case Empty, Wall, Ice, RotatorCW, RotatorCCW, Finish:
			default:
				return fmt.Errorf("%w: undefined tile type %q at (%d,%d)", ErrInvalidBoard, tile.Type, x, y)
			}
		}
	}

	if len(b.Starts) == 0 {
		return fmt.Errorf("%w: no agent starts", ErrInvalidBoard)
	}
	for i, start := range b.Starts {
		if !b.InBounds(start) {
			return fmt.Errorf("%w: agent %d starts outside grid at (%d,%d)", ErrInvalidBoard, i, start.X, start.Y)
		}
		if b.TileAt(start).Type == Wall {
			return fmt.Errorf("%w: agent %d starts on a wall at (%d,%d)", ErrInvalidBoard, i, start.X, start.Y)
		}
	}
	return nil
}

// InBounds reports whether the position lies on the grid.
func (b *Board) InBounds(pos Position) bool {
	if pos.Y < 0 || pos.Y >= len(b.Grid) {
		return false
	}
	return pos.X >= 0 && pos.X < len(b.Grid[0])
}

// TileAt returns the tile at pos. Callers must bounds-check first.
func (b *Board) TileAt(pos Position) Tile {
	return b.Grid[pos.Y][pos.X]
}

// Blocked reports whether a move into pos is impossible: out of bounds or a
// wall. Both are the same no-op from the agent's perspective.
func (b *Board) Blocked(pos Position) bool {
	return !b.InBounds(pos) || b.TileAt(pos).Type == Wall
}

// Render produces the textual grid encoding of the board, with agent starts
// overlaid, suitable for logs and fixtures.
func (b *Board) Render() []string {
	startSet := make(map[Position]bool, len(b.Starts))
	for _, s := range b.Starts {
		startSet[s] = true
	}

	rows := make([]string, len(b.Grid))
	for y, row := range b.Grid {
		var sb strings.Builder
		for x, tile := range row {
			pos := Position{X: x, Y: y}
			if startSet[pos] {
				if tile.Type == Finish {
					sb.WriteByte(charStartGoal)
				} else {
					sb.WriteByte(charStart)
				}
				continue
			}
			switch tile.Type {
			case Wall:
				sb.WriteByte(charWall)
			case Ice:
				sb.WriteByte(charIce)
			case RotatorCW:
				sb.WriteByte(charRotatorCW)
			case RotatorCCW:
				sb.WriteByte(charRotatorCCW)
			case Finish:
				sb.WriteByte(charFinish)
			default:
				sb.WriteByte(charEmpty)
			}
		}
		rows[y] = sb.String()
	}
	return rows
}
