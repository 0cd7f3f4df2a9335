package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/DylanRJohnston/planloop/puzzle/engine"
	"github.com/DylanRJohnston/planloop/puzzle/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Planloop Puzzle Engine",
		"2.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Planloop Puzzle Engine - MCP Interface

This is a thin client that proxies all requests to the REST API server.

PUZZLE OBJECTIVE:
Submit a short cyclic plan of moves (N/E/S/W) that steers every agent onto a
finish tile at the same step. The plan repeats from the start once exhausted,
so a 2-move plan evaluated over 10 steps executes NENENENENE.

AVAILABLE TOOLS:
- create_session: Create a new evaluation session on a level
- list_sessions: List all active sessions
- get_session: Get session details including the board and attempt state
- evaluate_plan: Evaluate a cyclic plan against the session's level
- reset_session: Clear the current attempt segment (cumulative history kept)
- attempt_history: View past attempts with pagination
- list_levels: List available level definitions
- canonicalize_plan: Reduce a plan to its canonical representative
- enumerate_plans: Count and list canonical plans of a given length
- describe_tile: Get detailed info about one board tile (helps verify I vs R vs L)
- puzzle_instructions: Get comprehensive rules and tile semantics

NOTE: The 'intent' parameter on evaluate_plan serves as rubber duck debugging - explain your reasoning!`),
	)

	// Register all tools
	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new evaluation session with optional level selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"level_id": map[string]interface{}{
					"type":        "string",
					"description": "Identifier of the level to load (optional, defaults to the server default)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active evaluation sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session, including the board and attempt state",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID to retrieve",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Plan evaluation
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "evaluate_plan",
		Description: "Evaluate a cyclic plan (e.g. \"NEES\") against the session's level. The plan repeats until every agent finishes, an agent gets stuck, or the step budget runs out.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
				"plan": map[string]interface{}{
					"type":        "string",
					"description": "Move sequence using N, E, S, W (separators optional)",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this plan (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"session_id", "plan"},
		},
	}, c.handleEvaluatePlan)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_session",
		Description: "Clear the session's current attempt segment. Cumulative attempt history is preserved.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleResetSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "attempt_history",
		Description: "Get attempt history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleAttemptHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_levels",
		Description: "List available level definitions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListLevels)

	// Plan analysis
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "canonicalize_plan",
		Description: "Reduce a plan to its canonical representative under rotation, reflection, cyclic shift and period reduction. Two plans with the same canonical form trace congruent paths.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"plan": map[string]interface{}{
					"type":        "string",
					"description": "Move sequence using N, E, S, W",
				},
				"phase_shift": map[string]interface{}{
					"type":        "boolean",
					"description": "Treat cyclic shifts of a plan as equivalent (default true)",
				},
				"reduce_cycles": map[string]interface{}{
					"type":        "boolean",
					"description": "Reduce a repeated plan to its primitive period (default true)",
				},
			},
			Required: []string{"plan"},
		},
	}, c.handleCanonicalizePlan)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "enumerate_plans",
		Description: "Enumerate every canonical plan of a given length. Useful for exhaustive sweeps over short plans.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"length": map[string]interface{}{
					"type":        "integer",
					"description": "Plan length to enumerate",
				},
			},
			Required: []string{"length"},
		},
	}, c.handleEnumeratePlans)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "puzzle_instructions",
		Description: "Get comprehensive puzzle instructions, tile semantics and plan mechanics",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handlePuzzleInstructions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_tile",
		Description: "Get detailed information about a specific tile on the session's board, including its exact layout character. Useful for verifying whether a tile is ice (I), a clockwise rotator (R) or a counter-clockwise one (L).",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID",
				},
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "X coordinate (column) of the tile to describe (0-based)",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Y coordinate (row) of the tile to describe (0-based)",
				},
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, c.handleDescribeTile)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	levelID, _ := args["level_id"].(string)

	body := map[string]string{}
	if levelID != "" {
		body["level_id"] = levelID
	}

	var session service.SessionInfo
	err := c.apiCall("POST", "/api/sessions", body, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nLevel: %s\n", session.ID, session.LevelName)
	if session.Level != nil {
		result += "\n" + formatBoardLayout(session.Level.Layout)
		if session.Level.Messages.Welcome != "" {
			result += "\n" + session.Level.Messages.Welcome + "\n"
		}
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	err := c.apiCall("GET", "/api/sessions", nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		solved := ""
		if s.State != nil && s.State.Solved {
			solved = ", solved"
		}
		result += fmt.Sprintf("- %s (Level: %s, Created: %s%s)\n",
			s.ID, s.LevelName, s.CreatedAt.Format("15:04:05"), solved)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	var session service.SessionInfo
	err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s", sessionID), nil, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatSessionInfo(&session)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleEvaluatePlan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)
	planText, _ := args["plan"].(string)
	intent, _ := args["intent"].(string)

	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	_ = intent

	body := map[string]interface{}{
		"plan": planText,
	}

	var result service.EvaluateResult
	err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/evaluate", sessionID), body, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	response := formatEvaluateResult(&result)
	return mcp.NewToolResultText(response), nil
}

func (c *Client) handleResetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	var response struct {
		Message string              `json:"message"`
		State   *engine.RunnerState `json:"state"`
	}

	err := c.apiCall("POST", fmt.Sprintf("/api/sessions/%s/reset", sessionID), nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatRunnerState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleAttemptHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	params := "?"
	if page, ok := args["page"].(float64); ok {
		params += fmt.Sprintf("page=%d&", int(page))
	}
	if limit, ok := args["limit"].(float64); ok {
		params += fmt.Sprintf("limit=%d&", int(limit))
	}

	var history service.HistoryResponse
	err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s/attempts%s", sessionID, params), nil, &history)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatHistory(&history)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListLevels(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var levels []service.LevelInfo
	err := c.apiCall("GET", "/api/levels", nil, &levels)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available Levels:\n\n"
	for _, level := range levels {
		result += fmt.Sprintf("• %s (%s)\n  %s\n  Grid: %dx%d, Agents: %d, Step budget: %d\n\n",
			level.Name, level.LevelID, level.Description,
			level.Width, level.Height, level.Agents, level.MaxSteps)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleCanonicalizePlan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	planText, _ := args["plan"].(string)

	body := map[string]interface{}{
		"plan": planText,
	}
	if v, ok := args["phase_shift"].(bool); ok {
		body["phase_shift"] = v
	}
	if v, ok := args["reduce_cycles"].(bool); ok {
		body["reduce_cycles"] = v
	}

	var result service.CanonicalResult
	err := c.apiCall("POST", "/api/plans/canonicalize", body, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	status := "already canonical"
	if !result.IsCanonical {
		status = "reduced"
	}
	response := fmt.Sprintf("Plan: %s\nCanonical: %s\nLength: %d (%s)\n",
		result.Plan, result.Canonical, result.Length, status)
	return mcp.NewToolResultText(response), nil
}

func (c *Client) handleEnumeratePlans(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	lengthRaw, ok := args["length"].(float64)
	if !ok {
		return mcp.NewToolResultError("length must be an integer"), nil
	}
	length := int(lengthRaw)

	var result service.EnumerateResult
	err := c.apiCall("GET", fmt.Sprintf("/api/plans/enumerate?length=%d", length), nil, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Canonical plans of length %d: %d\n\n", result.Length, result.Count))
	for i, p := range result.Plans {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, p))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handlePuzzleInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `🧩 Planloop Puzzle Engine - Complete Instructions

PUZZLE OBJECTIVE:
Steer every agent onto a finish tile at the same step by submitting one short
cyclic plan of moves. The plan repeats from its first move once exhausted, so
plan ES evaluated over six steps executes E S E S E S.

PLAN MECHANICS:
• Moves: N (up), E (right), S (down), W (left)
• Cyclic: the plan loops until solved, stuck, or the step budget runs out
• Lockstep: every agent executes the same move at the same step
• Verdicts: solved (all agents on finish simultaneously), stuck (a rotator
  spun past the rotation budget), unsolved (step budget exhausted)

BOARD LEGEND:
• . - Empty (passable)
• # - Wall (moving into it is a no-op, the agent stays put)
• I - Ice (the agent slides across consecutive ice tiles in one step)
• R - Rotator, clockwise (rotates every remaining move of the plan a quarter turn)
• L - Rotator, counter-clockwise ⚠️ CRITICAL: Can look similar to I in some fonts!
• F - Finish (all agents must stand here at the same step)
• S - Agent start position
• * - Agent start directly on a finish tile

ROTATOR MECHANICS (MOST COMMON CONFUSION POINT):
1. Stepping onto a rotator arms it; the plan rotates once immediately.
2. While armed, each further blocked step rotates the plan again.
3. A rotator that spins past its rotation budget leaves the agent stuck.
4. Sliding off the rotator disarms it and the plan keeps its rotated form.

ICE MECHANICS:
• A move onto ice carries the agent across every consecutive ice tile
  in a single step, stopping on the first non-ice tile.
• The slide stops early if the next tile is a wall or out of bounds.
• An ice run ending on a finish tile counts as standing on the finish.

🤖 AI AGENTS - CRITICAL SUCCESS STRATEGIES:

⚠️ CHARACTER RECOGNITION:
BEFORE any planning, parse each layout row character by character.
Common misreadings: "IIL" read as "III", "#R#" where the R is missed,
"L" and "I" confused in narrow fonts. Use describe_tile to verify any
tile you are not certain about.

🔁 THINK IN CYCLES, NOT PATHS:
- A plan is a loop, not a route. Short plans cover long distances through
  repetition: plan E walks an entire corridor.
- Canonicalize candidate plans first: ESE and NNE trace congruent paths,
  so testing both wastes an attempt.
- Use enumerate_plans to get the complete non-redundant candidate set for
  a given length before sweeping.

🗺️ MULTI-AGENT LEVELS:
- Every agent moves with the same plan. Look for geometry that lets the
  same loop shepherd all agents onto finishes at the same step.
- Walls are your friend: a blocked agent stays put while the others catch up.

📋 RECOMMENDED WORKFLOW:
1. create_session, then get_session to read the board
2. describe_tile on anything ambiguous
3. canonicalize_plan on each candidate before evaluating
4. evaluate_plan, read the trace, refine
5. enumerate_plans + a sweep when manual refinement stalls

SESSION MANAGEMENT:
- Multiple sessions can run simultaneously, each with independent state
- attempt_history shows every evaluation, paginated
- reset_session clears the working segment but keeps cumulative history

Remember: the most common failures are misreading the board and testing
plans that are cyclically equivalent to ones already tried. Verify tiles,
canonicalize first. Good luck! 🧩`

	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeTile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)
	x := int(args["x"].(float64))
	y := int(args["y"].(float64))

	// The level layout travels with the session info
	var session service.SessionInfo
	err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s", sessionID), nil, &session)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if session.Level == nil {
		return mcp.NewToolResultError("session has no level layout available"), nil
	}

	layout := session.Level.Layout
	height := len(layout)
	if y < 0 || y >= height || x < 0 || x >= len(layout[y]) {
		width := 0
		if height > 0 {
			width = len(layout[0])
		}
		return mcp.NewToolResultError(fmt.Sprintf("Coordinates (%d, %d) are out of bounds. Board is %dx%d (x 0-%d, y 0-%d)",
			x, y, width, height, width-1, height-1)), nil
	}

	tileChar := string(layout[y][x])
	tileType, passable, description := describeLayoutChar(layout[y][x])

	result := fmt.Sprintf(`Tile at position (%d, %d):
━━━━━━━━━━━━━━━━━━━━━━━━
Character: %s
Type: %s
Passable: %v
Description: %s

IMPORTANT: The character '%s' is what appears in the layout.
%s`,
		x, y,
		tileChar,
		tileType,
		passable,
		description,
		tileChar,
		getCharacterReminder(tileChar))

	return mcp.NewToolResultText(result), nil
}

func describeLayoutChar(ch byte) (tileType string, passable bool, description string) {
	switch ch {
	case '.':
		return "Empty", true, "Empty tile - agents pass through freely"
	case '#':
		return "Wall", false, "Wall - a move into it is a no-op, the agent stays put"
	case 'I':
		return "Ice", true, "Ice - agents slide across consecutive ice tiles in one step"
	case 'R':
		return "Rotator (clockwise)", true, "Rotator - rotates every remaining plan move a quarter turn clockwise"
	case 'L':
		return "Rotator (counter-clockwise)", true, "Rotator - rotates every remaining plan move a quarter turn counter-clockwise"
	case 'F':
		return "Finish", true, "Finish - every agent must stand here at the same step to solve"
	case 'S':
		return "Start", true, "Agent start position (empty tile underneath)"
	case '*':
		return "Start on finish", true, "Agent start position directly on a finish tile"
	default:
		return "Unknown", false, "Unknown layout character"
	}
}

func getCharacterReminder(char string) string {
	switch char {
	case "I":
		return "⚠️ REMINDER: 'I' (ice) is often confused with 'L' (counter-clockwise rotator). This is ICE - agents SLIDE across it!"
	case "L":
		return "⚠️ REMINDER: 'L' (counter-clockwise rotator) is often confused with 'I' (ice). This ROTATES the plan!"
	case "R":
		return "🔄 This is a clockwise rotator - stepping here rotates every remaining plan move a quarter turn."
	case "#":
		return "🧱 Moving into a wall is a no-op: the agent stays where it is and the step is consumed."
	case "F":
		return "🎯 This is a finish tile - all agents must stand on finishes at the same step to solve."
	case "S":
		return "🚩 This is where an agent starts."
	case "*":
		return "🚩 This agent starts already standing on a finish tile."
	default:
		return ""
	}
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	result := fmt.Sprintf("Session: %s\nLevel: %s\nCreated: %s\n",
		session.ID, session.LevelName,
		session.CreatedAt.Format("2006-01-02 15:04:05"))

	if session.Level != nil {
		result += "\n" + formatBoardLayout(session.Level.Layout)
		result += fmt.Sprintf("\nStep budget: %d\n", session.Level.MaxSteps)
	}

	result += "\n" + formatRunnerState(session.State)
	return result
}

func formatBoardLayout(layout []string) string {
	var b strings.Builder
	b.WriteString("Board:\n")
	for _, row := range layout {
		b.WriteString(row)
		b.WriteString("\n")
	}
	return b.String()
}

func formatRunnerState(state *engine.RunnerState) string {
	if state == nil {
		return "No session state available"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Attempts: %d (cumulative)", state.TotalAttempts))
	if state.Solved {
		b.WriteString(fmt.Sprintf(" | 🎉 SOLVED at step %d", state.BestSolvedStep))
	}
	b.WriteString("\n")

	if len(state.CurrentAttempts) > 0 {
		b.WriteString("\nCurrent segment:\n")
		for i := range state.CurrentAttempts {
			b.WriteString(formatAttemptLine(&state.CurrentAttempts[i]))
		}
	} else {
		b.WriteString("\n(no attempts in current segment)\n")
	}

	return b.String()
}

func formatAttemptLine(a *engine.AttemptRecord) string {
	status := verdictMark(a.Verdict)
	line := fmt.Sprintf("%d. %s %s [%s", a.AttemptNumber, a.Plan, status, a.Verdict)
	if a.Verdict == engine.VerdictSolved {
		line += fmt.Sprintf(" at step %d", a.SolvedAtStep)
	}
	line += "]"
	if a.Canonical != "" && a.Canonical != a.Plan {
		line += fmt.Sprintf(" (canonical: %s)", a.Canonical)
	}
	return line + "\n"
}

func formatEvaluateResult(result *service.EvaluateResult) string {
	ev := result.Evaluation
	if ev == nil {
		return "No evaluation returned"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s Plan: %s", verdictMark(ev.Verdict), ev.Plan))
	if ev.Canonical != "" && ev.Canonical != ev.Plan {
		b.WriteString(fmt.Sprintf(" (canonical: %s)", ev.Canonical))
	}
	b.WriteString("\n")

	switch ev.Verdict {
	case engine.VerdictSolved:
		b.WriteString(fmt.Sprintf("Verdict: solved at step %d\n", ev.SolvedAtStep))
	default:
		b.WriteString(fmt.Sprintf("Verdict: %s after %d steps\n", ev.Verdict, len(ev.Trace)))
	}
	if ev.Message != "" {
		b.WriteString(fmt.Sprintf("Message: %s\n", ev.Message))
	}

	// Trace, one compact line per step
	if len(ev.Trace) > 0 {
		b.WriteString("\nTrace:\n")
		for i := range ev.Trace {
			b.WriteString(formatTraceLine(&ev.Trace[i]))
		}
	}

	if len(ev.Board) > 0 {
		b.WriteString("\n")
		b.WriteString(formatBoardLayout(ev.Board))
	}

	b.WriteString(fmt.Sprintf("\nTotal attempts: %d", result.TotalAttempts))
	if result.Solved {
		b.WriteString(fmt.Sprintf(" | Best solve: step %d", result.BestSolvedStep))
	}
	b.WriteString("\n")

	return b.String()
}

func formatTraceLine(entry *engine.TraceStep) string {
	positions := make([]string, len(entry.Positions))
	for i, p := range entry.Positions {
		positions[i] = fmt.Sprintf("(%d,%d)", p.X, p.Y)
	}
	return fmt.Sprintf("%d. %s -> %s\n", entry.Step, entry.Direction, strings.Join(positions, " "))
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Attempt History (Page %d/%d) — Total (cumulative): %d\n\n",
		history.Page, history.TotalPages, history.TotalAttempts))

	if len(history.Attempts) == 0 {
		b.WriteString("(no attempts on this page)\n")
		return b.String()
	}

	for i := range history.Attempts {
		b.WriteString(formatAttemptLine(&history.Attempts[i]))
	}

	return b.String()
}

func verdictMark(v engine.Verdict) string {
	switch v {
	case engine.VerdictSolved:
		return "✓"
	case engine.VerdictStuck:
		return "⛔"
	default:
		return "✗"
	}
}
