package engine

import (
	"fmt"

	"github.com/DylanRJohnston/planloop/puzzle/plan"
)

// SimOptions bounds a simulation run.
type SimOptions struct {
	// MaxSteps is the global step budget; reaching it yields VerdictUnsolved.
	MaxSteps int
	// MaxRotations is the number of consecutive rotations an agent may absorb
	// on a rotator before the run is declared stuck. Zero means
	// DefaultMaxRotations.
	MaxRotations int
}

// agentState is the per-agent working memory of a run. The consecutive
// rotation counter resets as soon as the agent leaves its rotator.
type agentState struct {
	pos       Position
	armed     bool
	rotations int
}

// Simulate executes the cyclic plan against the board for at most maxSteps
// global steps and returns the trace and verdict. See SimulateWithOptions.
func Simulate(board *Board, p plan.Plan, maxSteps int) (Trace, Verdict, error) {
	return SimulateWithOptions(board, p, SimOptions{MaxSteps: maxSteps})
}

// SimulateWithOptions runs the full per-step semantics:
//
//  1. every agent consumes the shared cursor plan[step mod L] in lockstep;
//  2. a move into a wall or off the grid is a no-op that still consumes the
//     step;
//  3. an agent standing on a rotator rotates the whole remaining plan one
//     compass position (clockwise or counterclockwise per the tile) instead
//     of moving, and keeps rotating on following steps while its pending
//     move targets a wall; exceeding MaxRotations consecutive rotations ends
//     the run with VerdictStuck;
//  4. landing on ice re-applies the same direction without consuming plan
//     steps until the agent reaches non-ice or the next target is a wall;
//  5. the run is solved at the first recorded step where every agent stands
//     on a finish tile.
//
// The board and the input plan are never mutated; rotations act on a local
// working copy. The function is pure and retains no state between calls.
func SimulateWithOptions(board *Board, p plan.Plan, opts SimOptions) (Trace, Verdict, error) {
	if board == nil {
		return nil, "", fmt.Errorf("%w: nil board", ErrInvalidBoard)
	}
	if err := board.Validate(); err != nil {
		return nil, "", err
	}
	if len(p) == 0 {
		return nil, "", fmt.Errorf("%w: empty plan", ErrInvalidArgument)
	}
	if opts.MaxSteps <= 0 {
		return nil, "", fmt.Errorf("%w: max_steps must be positive, got %d", ErrInvalidArgument, opts.MaxSteps)
	}
	maxRotations := opts.MaxRotations
	if maxRotations == 0 {
		maxRotations = DefaultMaxRotations
	}

	working := p.Clone()
	agents := make([]agentState, len(board.Starts))
	for i, start := range board.Starts {
		agents[i] = agentState{pos: start}
	}

	trace := make(Trace, 0, opts.MaxSteps)

	for step := 0; step < opts.MaxSteps; step++ {
		cursor := step % len(working)
		recorded := working[cursor]
		stuck := false

		for i := range agents {
			a := &agents[i]
			tile := board.TileAt(a.pos)

			if tile.IsRotator() {
				// Re-read the cursor: an earlier agent's rotator may already
				// have turned the plan this step.
				pending := working[cursor]
				switch {
				case !a.armed:
					// Arrival on a rotator always spins once before any move.
					rotatePlan(working, tile.Type)
					a.armed = true
					a.rotations = 1
				case board.Blocked(neighbor(a.pos, pending)):
					rotatePlan(working, tile.Type)
					a.rotations++
					if a.rotations > maxRotations {
						stuck = true
					}
				default:
					a.pos = slide(board, a.pos, pending)
					a.armed = false
					a.rotations = 0
				}
				continue
			}

			a.pos = slide(board, a.pos, working[cursor])
		}

		snapshot := TraceStep{
			Step:      step + 1,
			Direction: recorded.String(),
			Positions: make([]Position, len(agents)),
		}
		for i, a := range agents {
			snapshot.Positions[i] = a.pos
		}
		trace = append(trace, snapshot)

		if stuck {
			return trace, VerdictStuck, nil
		}
		if allFinished(board, agents) {
			return trace, VerdictSolved, nil
		}
	}

	return trace, VerdictUnsolved, nil
}

// neighbor returns the cell one move from pos in direction d.
func neighbor(pos Position, d plan.Direction) Position {
	dx, dy := d.Delta()
	return Position{X: pos.X + dx, Y: pos.Y + dy}
}

// slide performs one normal move: wall no-op, then ice carry-through. The
// returned position is where the agent comes to rest this step.
func slide(board *Board, pos Position, d plan.Direction) Position {
	target := neighbor(pos, d)
	if board.Blocked(target) {
		return pos
	}
	pos = target

	for board.TileAt(pos).Type == Ice {
		next := neighbor(pos, d)
		if board.Blocked(next) {
			// The blocked continuation is absorbed, not counted as a step.
			break
		}
		pos = next
	}
	return pos
}

// rotatePlan turns every element of the working plan one compass position in
// the rotator's direction. The plan is cyclic, so rotating the whole
// sequence and rotating "the remainder" are indistinguishable to the agents.
func rotatePlan(working plan.Plan, rotator TileType) {
	turn := 1
	if rotator == RotatorCCW {
		turn = -1
	}
	for i, d := range working {
		working[i] = d.Rotated(turn)
	}
}

// allFinished reports whether every agent currently stands on a finish tile.
func allFinished(board *Board, agents []agentState) bool {
	for _, a := range agents {
		if board.TileAt(a.pos).Type != Finish {
			return false
		}
	}
	return true
}
