package engine

import "errors"

// TileType represents different kinds of grid tiles
type TileType string

const (
	Empty      TileType = "empty"
	Wall       TileType = "wall"
	Ice        TileType = "ice"
	RotatorCW  TileType = "rotator_cw"
	RotatorCCW TileType = "rotator_ccw"
	Finish     TileType = "finish"

	// Validation constants
	MinGridSize = 1
	MaxGridSize = 64

	// Simulation bounds
	DefaultMaxSteps     = 256
	MaxStepsLimit       = 100000
	DefaultMaxRotations = 4

	WebSocketBufferSize = 256
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidBoard    = errors.New("invalid board")
)

// Tile represents a single grid tile
type Tile struct {
	Type TileType `json:"type"`
}

// IsRotator reports whether the tile spins plans instead of admitting moves.
func (t Tile) IsRotator() bool {
	return t.Type == RotatorCW || t.Type == RotatorCCW
}

// Position represents x,y grid coordinates (y grows downward, row-major)
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Agent is a player token. Position is its current cell; Finished mirrors
// whether that cell is a finish tile at the latest recorded step.
type Agent struct {
	Start    Position `json:"start"`
	Position Position `json:"position"`
	Finished bool     `json:"finished"`
}

// Board is an immutable tile grid plus the agents' start cells. Simulation
// never mutates a Board; all run state lives in local working memory.
type Board struct {
	Grid   [][]Tile   `json:"grid"`
	Starts []Position `json:"starts"`
}

// Verdict is the terminal classification of a simulation run.
type Verdict string

const (
	// VerdictSolved means every agent stood on a finish tile at the same step.
	VerdictSolved Verdict = "solved"
	// VerdictUnsolved means max_steps elapsed without simultaneous finish.
	VerdictUnsolved Verdict = "unsolved"
	// VerdictStuck means a rotator exceeded its rotation bound; the plan can
	// never produce a move from that cell.
	VerdictStuck Verdict = "stuck"
)

// TraceStep is one global simulation step: the plan direction consumed and
// the position of every agent after the step resolved.
type TraceStep struct {
	Step      int        `json:"step"`
	Direction string     `json:"direction"`
	Positions []Position `json:"positions"`
}

// Trace is the ordered sequence of per-step snapshots produced by Simulate.
type Trace []TraceStep

// LevelConfig represents a level definition from JSON
type LevelConfig struct {
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Layout       []string          `json:"layout"`
	Legend       map[string]string `json:"legend"`
	MaxSteps     int               `json:"max_steps"`
	MaxRotations int               `json:"max_rotations"`
	Messages     struct {
		Welcome  string `json:"welcome"`
		Solved   string `json:"solved"`
		Unsolved string `json:"unsolved"`
		Stuck    string `json:"stuck"`
	} `json:"messages"`
}

// AttemptRecord is one evaluated plan in a runner's history.
type AttemptRecord struct {
	ID            string  `json:"id"`
	Plan          string  `json:"plan"`
	Canonical     string  `json:"canonical,omitempty"`
	Verdict       Verdict `json:"verdict"`
	StepsRecorded int     `json:"steps_recorded"`
	SolvedAtStep  int     `json:"solved_at_step,omitempty"`
	Timestamp     int64   `json:"timestamp"`
	AttemptNumber int     `json:"attempt_number"`
}

// RunnerState is the persistable portion of a Runner: cumulative attempt
// history plus the segment since the last reset.
type RunnerState struct {
	LevelName       string          `json:"level_name"`
	Attempts        []AttemptRecord `json:"attempts"`
	TotalAttempts   int             `json:"total_attempts"`
	CurrentAttempts []AttemptRecord `json:"current_attempts"`
	Solved          bool            `json:"solved"`
	BestSolvedStep  int             `json:"best_solved_step,omitempty"`
}
