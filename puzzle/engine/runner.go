package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DylanRJohnston/planloop/puzzle/plan"
)

// Runner binds an immutable board to a growing attempt history. It is the
// stateful façade sessions hold on to: the board never changes, but every
// evaluated plan is recorded, and Reset starts a fresh segment while the
// cumulative history survives.
type Runner struct {
	board  *Board
	config *LevelConfig
	canon  *plan.Canonicalizer
	state  *RunnerState
}

// Evaluation is the outcome of running one plan against the runner's board.
type Evaluation struct {
	Plan         string   `json:"plan"`
	Canonical    string   `json:"canonical"`
	Verdict      Verdict  `json:"verdict"`
	Trace        Trace    `json:"trace"`
	SolvedAtStep int      `json:"solved_at_step,omitempty"`
	Message      string   `json:"message,omitempty"`
	Board        []string `json:"board,omitempty"`
}

// NewRunner creates a runner for the provided level definition.
func NewRunner(config *LevelConfig) (*Runner, error) {
	board, err := BoardFromConfig(config)
	if err != nil {
		return nil, err
	}
	return &Runner{
		board:  board,
		config: config,
		canon:  plan.NewCanonicalizer(),
		state: &RunnerState{
			LevelName:       config.Name,
			Attempts:        []AttemptRecord{},
			CurrentAttempts: []AttemptRecord{},
		},
	}, nil
}

// Board returns the runner's immutable board.
func (r *Runner) Board() *Board {
	return r.board
}

// Config returns the level definition the runner was built from.
func (r *Runner) Config() *LevelConfig {
	return r.config
}

// State returns the runner's attempt history.
func (r *Runner) State() *RunnerState {
	return r.state
}

// SetState replaces the attempt history (used when loading persisted
// sessions).
func (r *Runner) SetState(state *RunnerState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if state.Attempts == nil {
		state.Attempts = []AttemptRecord{}
	}
	if state.CurrentAttempts == nil {
		state.CurrentAttempts = []AttemptRecord{}
	}
	r.state = state
	return nil
}

// Evaluate simulates one plan against the board, records the attempt, and
// returns the full trace and verdict.
func (r *Runner) Evaluate(p plan.Plan, maxSteps int) (*Evaluation, error) {
	if maxSteps <= 0 {
		maxSteps = r.maxSteps()
	}

	trace, verdict, err := SimulateWithOptions(r.board, p, SimOptions{
		MaxSteps:     maxSteps,
		MaxRotations: r.config.MaxRotations,
	})
	if err != nil {
		return nil, err
	}

	canonical, err := r.canon.Canonicalize(p)
	if err != nil {
		return nil, err
	}

	solvedAt := 0
	if verdict == VerdictSolved {
		solvedAt = trace[len(trace)-1].Step
	}

	r.record(p, canonical, verdict, len(trace), solvedAt)

	return &Evaluation{
		Plan:         p.String(),
		Canonical:    canonical.String(),
		Verdict:      verdict,
		Trace:        trace,
		SolvedAtStep: solvedAt,
		Message:      r.verdictMessage(verdict),
		Board:        r.board.Render(),
	}, nil
}

// Reset clears the current attempt segment. Cumulative history and totals
// are preserved, mirroring how runs on the same level accumulate.
func (r *Runner) Reset() *RunnerState {
	r.state.CurrentAttempts = []AttemptRecord{}
	return r.state
}

// Solved reports whether any recorded attempt solved the level.
func (r *Runner) Solved() bool {
	return r.state.Solved
}

// BestSolvedStep returns the fewest steps any solving attempt needed, or 0
// when the level is unsolved.
func (r *Runner) BestSolvedStep() int {
	return r.state.BestSolvedStep
}

// Attempts returns the cumulative attempt history.
func (r *Runner) Attempts() []AttemptRecord {
	return r.state.Attempts
}

// LastAttempt returns the most recent attempt, or nil when none exist.
func (r *Runner) LastAttempt() *AttemptRecord {
	if len(r.state.Attempts) == 0 {
		return nil
	}
	return &r.state.Attempts[len(r.state.Attempts)-1]
}

func (r *Runner) record(p, canonical plan.Plan, verdict Verdict, steps, solvedAt int) {
	entry := AttemptRecord{
		ID:            uuid.NewString(),
		Plan:          p.String(),
		Canonical:     canonical.String(),
		Verdict:       verdict,
		StepsRecorded: steps,
		SolvedAtStep:  solvedAt,
		Timestamp:     time.Now().Unix(),
		AttemptNumber: r.state.TotalAttempts + 1,
	}
	r.state.Attempts = append(r.state.Attempts, entry)
	r.state.CurrentAttempts = append(r.state.CurrentAttempts, entry)
	r.state.TotalAttempts++

	if verdict == VerdictSolved {
		r.state.Solved = true
		if r.state.BestSolvedStep == 0 || solvedAt < r.state.BestSolvedStep {
			r.state.BestSolvedStep = solvedAt
		}
	}
}

func (r *Runner) maxSteps() int {
	if r.config.MaxSteps > 0 {
		return r.config.MaxSteps
	}
	return DefaultMaxSteps
}

func (r *Runner) verdictMessage(verdict Verdict) string {
	switch verdict {
	case VerdictSolved:
		if r.config.Messages.Solved != "" {
			return r.config.Messages.Solved
		}
		return "Solved!"
	case VerdictStuck:
		if r.config.Messages.Stuck != "" {
			return r.config.Messages.Stuck
		}
		return "Stuck on a rotator"
	default:
		if r.config.Messages.Unsolved != "" {
			return r.config.Messages.Unsolved
		}
		return "Not solved within the step budget"
	}
}
