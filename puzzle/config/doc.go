// Package config provides level definition management for the plan loop
// engine.
//
// The config package implements:
//   - Level definition loading from JSON files
//   - Level validation and caching
//   - Default level selection
//   - Level listing and persistence
//
// Level files live in a directory of JSON documents, one level per file.
// The filename without extension is the level ID used when creating
// sessions. Loaded levels are cached; RefreshCache rereads the directory.
//
// Usage:
//
//	manager, err := config.NewManager("levels")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	level, err := manager.LoadLevel("classic")
//	levels, err := manager.ListLevels()
package config
