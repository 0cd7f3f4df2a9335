// Package api provides HTTP REST API handlers for the plan loop engine.
//
// The api package implements:
//   - RESTful endpoints for plan evaluation
//   - Session management endpoints
//   - Stateless canonicalization and enumeration endpoints
//   - Level listing and creation
//   - WebSocket upgrade handling
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session
//   - GET /api/sessions - List all sessions
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// Plan Evaluation:
//   - GET /api/sessions/{id}/state - Get the runner state
//   - POST /api/sessions/{id}/evaluate - Run a plan against the level
//   - POST /api/sessions/{id}/reset - Clear the current attempt segment
//   - GET /api/sessions/{id}/attempts - Paginated attempt history
//
// Plan Operations:
//   - POST /api/plans/canonicalize - Canonical form of a plan
//   - GET /api/plans/enumerate?length=N - Canonical representatives of length N
//
// Levels:
//   - GET /api/levels - List available levels
//   - POST /api/levels - Save a level definition
//   - GET /api/levels/{name} - Get a level definition
//
// Request/Response Format:
//
// All endpoints accept and return JSON. Plans are written in the compact
// letter form, e.g. "NNEW". An evaluation request:
//
//	{
//	  "plan": "NNEW"
//	}
//
// Error Handling:
//
// Errors are returned as JSON with appropriate HTTP status codes. Invalid
// plans and boards map to 400, unknown sessions and levels to 404:
//
//	{
//	  "error": "error message"
//	}
package api
