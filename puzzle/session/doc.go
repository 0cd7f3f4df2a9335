// Package session provides session management for the plan loop engine.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session lifecycle management and cleanup
//   - Optional file-based persistence of attempt histories
//
// Core Types:
//
// Manager is the main session manager that handles all session operations.
// Each session wraps its own runner instance with an independent attempt
// history and access metadata.
//
// Session Identifiers:
//
// Sessions are identified by UUIDs generated at creation. Lookups are
// case-insensitive.
//
// Persistence:
//
// A Manager built with NewManagerWithPersistence writes each session's
// attempt history to storage on save, and transparently loads persisted
// sessions that are not in memory. FilePersistence stores one JSON file per
// session; the board is rebuilt from the level definition on load, so only
// the runner state travels.
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", level)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sessionID)
//	sessions := manager.List()
package session
