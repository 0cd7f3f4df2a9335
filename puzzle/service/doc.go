// Package service provides the business logic layer for the plan loop engine.
//
// The service package implements:
//   - Multi-session evaluation management
//   - Level definition loading and listing
//   - Plan parsing, canonicalization and enumeration
//   - Attempt history tracking with pagination
//
// Core Interfaces:
//
// PuzzleService is the main service interface providing high-level plan and
// session operations. SessionManager handles session creation, retrieval,
// and lifecycle. LevelManager manages level definition loading and
// validation.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP)
// and the simulation engine, providing session isolation, level management,
// and business logic orchestration. Each session maintains its own runner
// instance with an independent attempt history. Canonicalization and
// enumeration are stateless and need no session.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	levelMgr := config.NewManager("levels")
//	svc := service.NewPuzzleService(sessionMgr, levelMgr)
//
//	// Create a new session
//	info, err := svc.CreateSession(ctx, "classic")
package service
