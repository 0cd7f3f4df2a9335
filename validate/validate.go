// Command validate provides a small CLI that validates level JSON files in
// the levels directory. It checks:
//   - JSON structure and required fields
//   - Grid consistency and allowed characters (. # I R L F S *)
//   - Presence of at least one agent start (S or *) and one finish (F or *)
//   - Step budget constraints (max_steps positive, max_rotations non-negative)
//   - Required message keys and a complete legend
//   - Connectivity: every agent can reach a finish via passable tiles
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Level mirrors the JSON schema for a level definition.
type Level struct {
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Layout       []string          `json:"layout"`
	Legend       map[string]string `json:"legend"`
	MaxSteps     int               `json:"max_steps"`
	MaxRotations int               `json:"max_rotations"`
	Messages     map[string]string `json:"messages"`
}

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateLevel loads and validates a single level JSON file. It performs
// structural checks, layout/legend validation, message presence, and
// reachability analysis for finishes.
func validateLevel(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		return result
	}

	var level Level
	if err := json.Unmarshal(data, &level); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Invalid JSON: %v", err))
		return result
	}

	if level.Name == "" {
		result.Valid = false
		result.Errors = append(result.Errors, "Missing level name")
	}

	// Validate layout
	if len(level.Layout) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "Layout is empty")
	}

	gridWidth := -1
	agentCount := 0
	finishCount := 0
	iceCount := 0
	rotatorCount := 0
	validChars := map[rune]bool{
		'.': true, // Empty
		'#': true, // Wall
		'I': true, // Ice
		'R': true, // Rotator (clockwise)
		'L': true, // Rotator (counter-clockwise)
		'F': true, // Finish
		'S': true, // Agent start
		'*': true, // Agent start on finish
	}

	for i, row := range level.Layout {
		if gridWidth == -1 {
			gridWidth = len(row)
		} else if len(row) != gridWidth {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Inconsistent grid width at row %d: expected %d, got %d", i+1, gridWidth, len(row)))
		}

		for j, char := range row {
			if !validChars[char] {
				result.Valid = false
				result.Errors = append(result.Errors, fmt.Sprintf("Invalid character '%c' at position [%d,%d]", char, i+1, j+1))
			}
			switch char {
			case 'S':
				agentCount++
			case '*':
				agentCount++
				finishCount++
			case 'F':
				finishCount++
			case 'I':
				iceCount++
			case 'R', 'L':
				rotatorCount++
			}
		}
	}

	// Validate board elements
	if agentCount == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "Must have at least 1 agent start (S or *)")
	}

	if finishCount == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "Must have at least 1 finish tile (F or *)")
	}

	// Validate budgets
	if level.MaxSteps <= 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("max_steps must be positive, got %d", level.MaxSteps))
	}

	if level.MaxRotations < 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("max_rotations cannot be negative, got %d", level.MaxRotations))
	}

	// Validate messages
	requiredMessages := []string{
		"welcome",
		"solved",
		"unsolved",
		"stuck",
	}
	for _, msg := range requiredMessages {
		if _, exists := level.Messages[msg]; !exists {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Missing required message: %s", msg))
		}
	}

	// Validate legend completeness
	for char := range validChars {
		if _, exists := level.Legend[string(char)]; !exists {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("Missing legend entry for '%c'", char))
		}
	}

	// Connectivity validation - check if every agent can reach a finish
	if result.Valid {
		reachabilityResult := validateConnectivity(level.Layout)
		if !reachabilityResult.Valid {
			result.Valid = false
		}
		result.Errors = append(result.Errors, reachabilityResult.Errors...)
	}

	// Add informational data
	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", level.Name))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Grid: %dx%d", gridWidth, len(level.Layout)))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Agents: %d", agentCount))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Finish tiles: %d", finishCount))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Ice: %d, Rotators: %d", iceCount, rotatorCount))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Step budget: %d", level.MaxSteps))
	}

	return result
}

// validateConnectivity ensures every agent can reach a finish tile using
// 4-directional movement over passable cells (anything but '#'). It reports
// agents boxed away from every finish and returns an aggregated result.
//
// Reachability here ignores ice slides and rotators, so it is a necessary
// condition only: a connected level can still be unsolvable.
func validateConnectivity(layout []string) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	if len(layout) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "Cannot validate connectivity: empty layout")
		return result
	}

	height := len(layout)
	width := len(layout[0])

	// Find all agents and finishes
	var agents [][]int
	finishes := make(map[string]bool)

	for y := 0; y < height; y++ {
		for x := 0; x < width && x < len(layout[y]); x++ {
			switch layout[y][x] {
			case 'S':
				agents = append(agents, []int{x, y})
			case '*':
				agents = append(agents, []int{x, y})
				finishes[fmt.Sprintf("%d,%d", x, y)] = true
			case 'F':
				finishes[fmt.Sprintf("%d,%d", x, y)] = true
			}
		}
	}

	if len(agents) == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, "No agent starts found for connectivity test")
		return result
	}

	if len(finishes) == 0 {
		// Already validated elsewhere, but just in case
		result.Valid = false
		result.Errors = append(result.Errors, "No finishes found for connectivity test")
		return result
	}

	isPassable := func(x, y int) bool {
		if x < 0 || y < 0 || y >= height || x >= width || x >= len(layout[y]) {
			return false
		}
		return layout[y][x] != '#'
	}

	// Flood fill from each agent and check it touches at least one finish
	boxedAgents := []string{}
	for _, agent := range agents {
		visited := make(map[string]bool)
		queue := [][]int{agent}
		reachesFinish := false

		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]

			x, y := current[0], current[1]
			key := fmt.Sprintf("%d,%d", x, y)

			if visited[key] {
				continue
			}
			visited[key] = true

			if finishes[key] {
				reachesFinish = true
				break
			}

			directions := [][]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
			for _, dir := range directions {
				nx, ny := x+dir[0], y+dir[1]
				nkey := fmt.Sprintf("%d,%d", nx, ny)

				if !visited[nkey] && isPassable(nx, ny) {
					queue = append(queue, []int{nx, ny})
				}
			}
		}

		if !reachesFinish {
			boxedAgents = append(boxedAgents, fmt.Sprintf("Agent at (%d,%d)", agent[0], agent[1]))
		}
	}

	if len(boxedAgents) > 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Connectivity failure: %d/%d agents cannot reach any finish", len(boxedAgents), len(agents)))
		for _, agent := range boxedAgents {
			result.Errors = append(result.Errors, fmt.Sprintf("Boxed in: %s", agent))
		}
	} else {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Connectivity: All %d agents can reach a finish", len(agents)))
	}

	return result
}

// main scans the levels directory for *.json files and validates each one,
// printing a concise report and exiting with non-zero status if any are
// invalid. An alternate directory can be given as the first argument.
func main() {
	levelsDir := "levels"
	if len(os.Args) > 1 {
		levelsDir = os.Args[1]
	}

	files, err := filepath.Glob(filepath.Join(levelsDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding level files: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateLevel(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All levels are valid!")
	} else {
		fmt.Println("❌ Some levels have errors")
		os.Exit(1)
	}
}
