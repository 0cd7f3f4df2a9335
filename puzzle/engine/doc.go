// Package engine provides the grid simulator for cyclic-plan puzzles.
//
// The engine package implements the board mechanics including:
//   - Grid parsing and structural validation of level definitions
//   - Deterministic execution of a cyclic plan against a board
//   - Wall no-ops, ice runs, plan rotators, and lockstep multi-agent play
//   - Attempt bookkeeping via the Runner, including persistence state
//
// Core Types:
//
// Board is an immutable tile grid plus agent start cells, built from a
// LevelConfig (JSON) or directly from the textual grid encoding via
// ParseBoard. Simulate executes a plan.Plan against a Board and produces a
// Trace of per-step agent snapshots and a Verdict. Runner wraps a Board with
// cumulative attempt history for session use.
//
// Usage:
//
//	board, err := engine.ParseBoard([]string{
//		"#####",
//		"#S.F#",
//		"#####",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	p, _ := plan.ParsePlan("E")
//	trace, verdict, err := engine.Simulate(board, p, 32)
//
// Game Rules:
//
// Agents repeat the shared plan forever, all advancing on the same global
// step counter. Moves into walls are skipped but still consume the step.
// Ice carries an agent onward without consuming plan steps. A rotator turns
// the whole remaining plan a quarter-turn instead of letting the agent move,
// and keeps turning while the pending move is blocked; too many consecutive
// turns means the run is stuck. The puzzle is solved at the first step where
// every agent stands on a finish tile simultaneously.
package engine
