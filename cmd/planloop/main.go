// Command planloop is the offline companion to the puzzle server. It
// canonicalizes and enumerates plans, simulates a plan against a level file,
// and prints quick human-readable heuristics about the levels directory:
// dimensions, agent and finish counts, and finishes that sit further from an
// agent than the step budget allows.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/DylanRJohnston/planloop/puzzle/engine"
	"github.com/DylanRJohnston/planloop/puzzle/plan"
)

func main() {
	if err := newRootCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newRootCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "planloop",
		Usage: "canonicalize, enumerate and simulate cyclic puzzle plans",
		Commands: []*cli.Command{
			{
				Name:      "canonicalize",
				Usage:     "reduce a plan to its canonical representative",
				ArgsUsage: "PLAN",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-phase-shift",
						Usage: "do not treat cyclic shifts as equivalent",
					},
					&cli.BoolFlag{
						Name:  "no-reduce-cycles",
						Usage: "do not reduce a repeated plan to its primitive period",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() == 0 {
						return fmt.Errorf("canonicalize: a plan argument is required")
					}
					opts := plan.DefaultOptions()
					opts.PhaseShift = !cmd.Bool("no-phase-shift")
					opts.ReduceCycles = !cmd.Bool("no-reduce-cycles")
					return runCanonicalize(out, cmd.Args().First(), opts)
				},
			},
			{
				Name:  "enumerate",
				Usage: "enumerate every canonical plan of a given length",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "length",
						Usage:    "plan length to enumerate",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "list",
						Usage: "print every representative, not just the count",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runEnumerate(out, int(cmd.Int("length")), cmd.Bool("list"))
				},
			},
			{
				Name:      "simulate",
				Usage:     "evaluate a plan against a level file",
				ArgsUsage: "PLAN",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "level",
						Usage:    "path to the level JSON file",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "max-steps",
						Usage: "override the level's step budget",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if cmd.Args().Len() == 0 {
						return fmt.Errorf("simulate: a plan argument is required")
					}
					return runSimulate(out, cmd.String("level"), cmd.Args().First(), int(cmd.Int("max-steps")))
				},
			},
			{
				Name:  "analyze",
				Usage: "print solvability heuristics for every level in a directory",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "levels-dir",
						Usage: "directory containing level JSON files",
						Value: "levels",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runAnalyze(out, cmd.String("levels-dir"))
				},
			},
		},
	}
}

func runCanonicalize(out io.Writer, planText string, opts plan.Options) error {
	p, err := plan.ParsePlan(planText)
	if err != nil {
		return err
	}

	canonical, err := plan.NewCanonicalizerWithOptions(opts).Canonicalize(p)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Plan:      %s\n", p)
	fmt.Fprintf(out, "Canonical: %s\n", canonical)
	if canonical.Equal(p) {
		fmt.Fprintln(out, "Already canonical.")
	} else {
		fmt.Fprintf(out, "Reduced from %d to %d moves.\n", len(p), len(canonical))
	}
	return nil
}

func runEnumerate(out io.Writer, length int, list bool) error {
	plans, err := plan.NewCanonicalizer().Enumerate(length)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Canonical plans of length %d: %d\n", length, len(plans))
	if list {
		for i, p := range plans {
			fmt.Fprintf(out, "%d. %s\n", i+1, p)
		}
	}
	return nil
}

func runSimulate(out io.Writer, levelPath, planText string, maxSteps int) error {
	level, err := engine.LoadLevelConfig(levelPath)
	if err != nil {
		return err
	}

	p, err := plan.ParsePlan(planText)
	if err != nil {
		return err
	}

	runner, err := engine.NewRunner(level)
	if err != nil {
		return err
	}

	eval, err := runner.Evaluate(p, maxSteps)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Level:     %s\n", level.Name)
	fmt.Fprintf(out, "Plan:      %s\n", eval.Plan)
	fmt.Fprintf(out, "Canonical: %s\n", eval.Canonical)
	switch eval.Verdict {
	case engine.VerdictSolved:
		fmt.Fprintf(out, "Verdict:   solved at step %d\n", eval.SolvedAtStep)
	default:
		fmt.Fprintf(out, "Verdict:   %s after %d steps\n", eval.Verdict, len(eval.Trace))
	}
	if eval.Message != "" {
		fmt.Fprintf(out, "Message:   %s\n", eval.Message)
	}

	fmt.Fprintln(out, "\nTrace:")
	for _, step := range eval.Trace {
		positions := make([]string, len(step.Positions))
		for i, pos := range step.Positions {
			positions[i] = fmt.Sprintf("(%d,%d)", pos.X, pos.Y)
		}
		fmt.Fprintf(out, "  %d. %s -> %s\n", step.Step, step.Direction, strings.Join(positions, " "))
	}

	fmt.Fprintln(out, "\nBoard:")
	for _, row := range eval.Board {
		fmt.Fprintf(out, "  %s\n", row)
	}
	return nil
}

func runAnalyze(out io.Writer, levelsDir string) error {
	entries, err := os.ReadDir(levelsDir)
	if err != nil {
		return fmt.Errorf("failed to read levels directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	if len(names) == 0 {
		fmt.Fprintf(out, "No level files found in %s\n", levelsDir)
		return nil
	}

	for _, name := range names {
		fmt.Fprintf(out, "\n=== Analyzing %s ===\n", name)
		analyzeLevel(out, filepath.Join(levelsDir, name))
	}
	return nil
}

// analyzeLevel prints heuristics for a single level file. Errors are reported
// inline rather than aborting the sweep, so one broken file does not hide the
// report for the rest.
func analyzeLevel(out io.Writer, path string) {
	level, err := engine.LoadLevelConfig(path)
	if err != nil {
		fmt.Fprintf(out, "Error loading level: %v\n", err)
		return
	}

	board, err := engine.BoardFromConfig(level)
	if err != nil {
		fmt.Fprintf(out, "Error parsing board: %v\n", err)
		return
	}

	width := 0
	if len(board.Grid) > 0 {
		width = len(board.Grid[0])
	}

	fmt.Fprintf(out, "Name: %s\n", level.Name)
	fmt.Fprintf(out, "Grid Size: %d x %d\n", width, len(board.Grid))
	fmt.Fprintf(out, "Step Budget: %d\n", level.MaxSteps)
	fmt.Fprintf(out, "Agents: %d\n", len(board.Starts))
	fmt.Fprintf(out, "Finish Tiles: %d\n", engine.CountTiles(board.Grid, engine.Finish))
	fmt.Fprintf(out, "Ice Tiles: %d\n", engine.CountTiles(board.Grid, engine.Ice))

	rotators := engine.CountTiles(board.Grid, engine.RotatorCW) + engine.CountTiles(board.Grid, engine.RotatorCCW)
	fmt.Fprintf(out, "Rotators: %d\n", rotators)

	// Manhattan distance is a lower bound on steps, so any agent further from
	// every finish than the step budget makes the level unsolvable.
	outOfReach := 0
	for _, start := range board.Starts {
		finish, dist, ok := engine.NearestFinish(board, start)
		if !ok {
			fmt.Fprintf(out, "⚠️  WARNING: no finish tiles on the board!\n")
			return
		}
		fmt.Fprintf(out, "Agent (%d,%d): nearest finish (%d,%d) at distance %d\n",
			start.X, start.Y, finish.X, finish.Y, dist)
		if dist > level.MaxSteps {
			outOfReach++
		}
	}

	if outOfReach > 0 {
		fmt.Fprintf(out, "⚠️  CRITICAL: %d agents start further from every finish than the step budget allows!\n", outOfReach)
	} else {
		fmt.Fprintf(out, "✅ Every agent has a finish within the step budget\n")
	}
}
