package engine

import (
	"errors"
	"testing"

	"github.com/DylanRJohnston/planloop/puzzle/plan"
)

func mustBoard(t *testing.T, rows []string) *Board {
	t.Helper()
	board, err := ParseBoard(rows)
	if err != nil {
		t.Fatalf("ParseBoard(%v) failed: %v", rows, err)
	}
	return board
}

func mustPlan(t *testing.T, s string) plan.Plan {
	t.Helper()
	p, err := plan.ParsePlan(s)
	if err != nil {
		t.Fatalf("ParsePlan(%q) failed: %v", s, err)
	}
	return p
}

func TestSimulateInputValidation(t *testing.T) {
	board := mustBoard(t, []string{"S.F"})

	if _, _, err := Simulate(nil, mustPlan(t, "E"), 10); !errors.Is(err, ErrInvalidBoard) {
		t.Errorf("nil board: got %v, want ErrInvalidBoard", err)
	}
	if _, _, err := Simulate(board, plan.Plan{}, 10); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty plan: got %v, want ErrInvalidArgument", err)
	}
	if _, _, err := Simulate(board, mustPlan(t, "E"), 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("zero max steps: got %v, want ErrInvalidArgument", err)
	}

	bad := &Board{
		Grid:   [][]Tile{{{Type: Empty}}},
		Starts: []Position{{X: 5, Y: 5}},
	}
	if _, _, err := Simulate(bad, mustPlan(t, "E"), 10); !errors.Is(err, ErrInvalidBoard) {
		t.Errorf("malformed board: got %v, want ErrInvalidBoard", err)
	}
}

func TestSimulateStraightLineSolve(t *testing.T) {
	board := mustBoard(t, []string{"S..F"})

	trace, verdict, err := Simulate(board, mustPlan(t, "E"), 10)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if verdict != VerdictSolved {
		t.Fatalf("verdict = %s, want solved", verdict)
	}
	if len(trace) != 3 {
		t.Fatalf("trace has %d steps, want 3", len(trace))
	}
	want := []Position{{X: 1, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 0}}
	for i, step := range trace {
		if step.Step != i+1 {
			t.Errorf("step %d numbered %d", i, step.Step)
		}
		if step.Positions[0] != want[i] {
			t.Errorf("step %d: agent at %+v, want %+v", i+1, step.Positions[0], want[i])
		}
	}
}

// An agent boxed in by walls never moves, but every step still consumes the
// plan cursor and records a trace entry.
func TestSimulateWallIsNoOp(t *testing.T) {
	board := mustBoard(t, []string{
		"###",
		"#S#",
		"###",
	})

	trace, verdict, err := Simulate(board, mustPlan(t, "NESW"), 8)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if verdict != VerdictUnsolved {
		t.Errorf("verdict = %s, want unsolved", verdict)
	}
	if len(trace) != 8 {
		t.Fatalf("trace has %d steps, want 8", len(trace))
	}
	home := Position{X: 1, Y: 1}
	for _, step := range trace {
		if step.Positions[0] != home {
			t.Errorf("step %d: agent moved to %+v", step.Step, step.Positions[0])
		}
	}
}

func TestSimulateStartOnFinish(t *testing.T) {
	board := mustBoard(t, []string{
		"###",
		"#*#",
		"###",
	})

	trace, verdict, err := Simulate(board, mustPlan(t, "N"), 10)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if verdict != VerdictSolved {
		t.Errorf("verdict = %s, want solved", verdict)
	}
	if len(trace) != 1 {
		t.Errorf("trace has %d steps, want 1 (the first no-op move)", len(trace))
	}
}

// Two ice tiles between the start and open ground: a single plan step slides
// the agent across both and one cell beyond, three tiles of net movement.
func TestSimulateIceRun(t *testing.T) {
	board := mustBoard(t, []string{"SII.."})

	trace, verdict, err := Simulate(board, mustPlan(t, "E"), 1)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if verdict != VerdictUnsolved {
		t.Errorf("verdict = %s, want unsolved", verdict)
	}
	if got := trace[0].Positions[0]; got != (Position{X: 3, Y: 0}) {
		t.Errorf("after one step agent at %+v, want (3,0)", got)
	}
}

func TestSimulateIceStopsBeforeWall(t *testing.T) {
	board := mustBoard(t, []string{"SII#"})

	trace, _, err := Simulate(board, mustPlan(t, "E"), 1)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	// The slide is absorbed by the wall: the agent rests on the last ice tile.
	if got := trace[0].Positions[0]; got != (Position{X: 2, Y: 0}) {
		t.Errorf("agent at %+v, want (2,0)", got)
	}
}

func TestSimulateIceRunOntoFinish(t *testing.T) {
	board := mustBoard(t, []string{"SIIF"})

	trace, verdict, err := Simulate(board, mustPlan(t, "E"), 5)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if verdict != VerdictSolved {
		t.Fatalf("verdict = %s, want solved", verdict)
	}
	if len(trace) != 1 {
		t.Errorf("slide onto the finish should solve in 1 step, took %d", len(trace))
	}
}

// A counterclockwise rotator turns the plan's East into North, pointing the
// agent at the finish above it.
func TestSimulateRotatorRedirects(t *testing.T) {
	board := mustBoard(t, []string{
		"#####",
		"##F##",
		"#SL.#",
		"#####",
	})

	trace, verdict, err := Simulate(board, mustPlan(t, "E"), 10)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if verdict != VerdictSolved {
		t.Fatalf("verdict = %s, want solved", verdict)
	}
	want := []Position{
		{X: 2, Y: 2}, // step onto the rotator
		{X: 2, Y: 2}, // the rotator arms and spins E -> N
		{X: 2, Y: 1}, // the rotated plan walks onto the finish
	}
	if len(trace) != len(want) {
		t.Fatalf("trace has %d steps, want %d", len(trace), len(want))
	}
	for i, pos := range want {
		if trace[i].Positions[0] != pos {
			t.Errorf("step %d: agent at %+v, want %+v", i+1, trace[i].Positions[0], pos)
		}
	}
}

// The rotator keeps spinning while the pending move is blocked; an agent in a
// sealed cell cycles through all four directions and is declared stuck.
func TestSimulateRotatorStuck(t *testing.T) {
	board := &Board{
		Grid: [][]Tile{
			{{Type: Wall}, {Type: Wall}, {Type: Wall}},
			{{Type: Wall}, {Type: RotatorCW}, {Type: Wall}},
			{{Type: Wall}, {Type: Wall}, {Type: Wall}},
		},
		Starts: []Position{{X: 1, Y: 1}},
	}

	trace, verdict, err := Simulate(board, mustPlan(t, "N"), 20)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if verdict != VerdictStuck {
		t.Fatalf("verdict = %s, want stuck", verdict)
	}
	// Arming spin plus four blocked spins exhausts the default budget.
	if len(trace) != 5 {
		t.Errorf("stuck after %d steps, want 5", len(trace))
	}
}

func TestSimulateRotatorSpinsPastWall(t *testing.T) {
	board := &Board{
		Grid: [][]Tile{
			{{Type: Wall}, {Type: Wall}, {Type: Wall}, {Type: Wall}},
			{{Type: Wall}, {Type: RotatorCW}, {Type: Empty}, {Type: Wall}},
			{{Type: Wall}, {Type: Empty}, {Type: Empty}, {Type: Wall}},
			{{Type: Wall}, {Type: Wall}, {Type: Wall}, {Type: Wall}},
		},
		Starts: []Position{{X: 1, Y: 1}},
	}

	// W arms to N (blocked above), spins again to E (open), then moves east.
	trace, verdict, err := Simulate(board, mustPlan(t, "W"), 3)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if verdict != VerdictUnsolved {
		t.Errorf("verdict = %s, want unsolved", verdict)
	}
	want := []Position{
		{X: 1, Y: 1}, // arming spin, W -> N
		{X: 1, Y: 1}, // north is a wall, spin again, N -> E
		{X: 2, Y: 1}, // east is open, move off the rotator
	}
	for i, pos := range want {
		if trace[i].Positions[0] != pos {
			t.Errorf("step %d: agent at %+v, want %+v", i+1, trace[i].Positions[0], pos)
		}
	}
}

// Both agents consume the same cursor each step; the run only counts as
// solved at a step where every agent stands on a finish simultaneously.
func TestSimulateMultiAgentLockstep(t *testing.T) {
	board := mustBoard(t, []string{
		"#####",
		"#S.F#",
		"#S.F#",
		"#####",
	})

	trace, verdict, err := Simulate(board, mustPlan(t, "E"), 10)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if verdict != VerdictSolved {
		t.Fatalf("verdict = %s, want solved", verdict)
	}
	if len(trace) != 2 {
		t.Fatalf("trace has %d steps, want 2", len(trace))
	}
	for i, step := range trace {
		if len(step.Positions) != 2 {
			t.Fatalf("step %d records %d agents, want 2", i+1, len(step.Positions))
		}
		if step.Positions[0].X != step.Positions[1].X {
			t.Errorf("step %d: agents out of lockstep: %+v", i+1, step.Positions)
		}
	}
}

// One agent crosses its finish early and walks off; the other arrives later.
// They are never on finishes at the same recorded step, so the run stays
// unsolved.
func TestSimulateMultiAgentMustFinishTogether(t *testing.T) {
	board := mustBoard(t, []string{
		"######",
		"#.SF.#",
		"#S..F#",
		"######",
	})

	trace, verdict, err := Simulate(board, mustPlan(t, "E"), 6)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if verdict != VerdictUnsolved {
		t.Fatalf("verdict = %s, want unsolved", verdict)
	}

	// Step 1: the near agent is on its finish but the far agent is not.
	if got := trace[0].Positions[0]; got != (Position{X: 3, Y: 1}) {
		t.Errorf("step 1: near agent at %+v, want (3,1)", got)
	}
	if got := trace[0].Positions[1]; got != (Position{X: 2, Y: 2}) {
		t.Errorf("step 1: far agent at %+v, want (2,2)", got)
	}
	// Step 3: the far agent reaches its finish, the near agent has moved on.
	if got := trace[2].Positions[1]; got != (Position{X: 4, Y: 2}) {
		t.Errorf("step 3: far agent at %+v, want (4,2)", got)
	}
	if got := trace[2].Positions[0]; board.TileAt(got).Type == Finish {
		t.Errorf("step 3: near agent should have left its finish, at %+v", got)
	}
}

// The plan cycles: a two-step plan on a longer corridor wraps back to its
// first element on step three.
func TestSimulatePlanCycles(t *testing.T) {
	board := mustBoard(t, []string{
		"#######",
		"#S....#",
		"#.....#",
		"#....F#",
		"#######",
	})

	trace, verdict, err := Simulate(board, mustPlan(t, "ES"), 10)
	if err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if verdict != VerdictSolved {
		t.Fatalf("verdict = %s, want solved", verdict)
	}
	// Step six targets the wall at (4,4) and is a no-op; step seven's East
	// lands on the finish.
	want := []Position{
		{X: 2, Y: 1},
		{X: 2, Y: 2},
		{X: 3, Y: 2},
		{X: 3, Y: 3},
		{X: 4, Y: 3},
	}
	for i := 0; i < len(want); i++ {
		if trace[i].Positions[0] != want[i] {
			t.Errorf("step %d: agent at %+v, want %+v", i+1, trace[i].Positions[0], want[i])
		}
	}
	if got := trace[len(trace)-1].Positions[0]; got != (Position{X: 5, Y: 3}) {
		t.Errorf("final position %+v, want the finish (5,3)", got)
	}
}

func TestSimulateRespectsMaxRotationsOption(t *testing.T) {
	board := &Board{
		Grid: [][]Tile{
			{{Type: Wall}, {Type: Wall}, {Type: Wall}},
			{{Type: Wall}, {Type: RotatorCW}, {Type: Wall}},
			{{Type: Wall}, {Type: Wall}, {Type: Wall}},
		},
		Starts: []Position{{X: 1, Y: 1}},
	}

	trace, verdict, err := SimulateWithOptions(board, mustPlan(t, "N"), SimOptions{
		MaxSteps:     20,
		MaxRotations: 2,
	})
	if err != nil {
		t.Fatalf("SimulateWithOptions failed: %v", err)
	}
	if verdict != VerdictStuck {
		t.Fatalf("verdict = %s, want stuck", verdict)
	}
	if len(trace) != 3 {
		t.Errorf("stuck after %d steps, want 3", len(trace))
	}
}

func TestSimulateDoesNotMutateInputs(t *testing.T) {
	board := mustBoard(t, []string{
		"####",
		"#SR#",
		"#..#",
		"####",
	})
	p := mustPlan(t, "EE")

	if _, _, err := Simulate(board, p, 10); err != nil {
		t.Fatalf("Simulate failed: %v", err)
	}
	if p.String() != "EE" {
		t.Errorf("input plan mutated to %s", p.String())
	}
}
