// Package websocket provides real-time evaluation updates over WebSocket.
//
// The websocket package implements:
//   - A hub that tracks clients per session
//   - Broadcast of evaluation results and runner state to watchers
//   - Connection lifecycle with ping/pong keepalive
//
// Clients connect through the /ws endpoint with a session query parameter
// and receive a JSON Event for every evaluation or reset in that session.
// Incoming client messages are ignored; the socket is a one-way feed.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//
//	// In an HTTP handler:
//	hub.ServeWS(w, r, sessionID)
//
//	// After an evaluation:
//	hub.BroadcastEvaluation(sessionID, evaluation, state)
package websocket
