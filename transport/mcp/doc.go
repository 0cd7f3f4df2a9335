// Package mcp provides a Model Context Protocol interface to the puzzle
// engine.
//
// The client is a thin proxy: every tool call is translated into a request
// against the REST API, so MCP clients and HTTP clients always observe the
// same session state. Tools cover session management (create_session,
// list_sessions, get_session), plan evaluation (evaluate_plan, reset_session,
// attempt_history), plan analysis (canonicalize_plan, enumerate_plans) and
// board inspection (describe_tile, list_levels, puzzle_instructions).
//
// Tool results are formatted as plain text with the board layout and a
// per-step trace, which keeps them readable for both humans and language
// models driving the tools.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
