package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/DylanRJohnston/planloop/puzzle/engine"
	"github.com/DylanRJohnston/planloop/puzzle/service"
)

var (
	ErrLevelNotFound = errors.New("level not found")
	ErrInvalidLevel  = errors.New("invalid level")
)

// Manager handles level definition loading and caching
type Manager struct {
	levelsDir    string
	defaultLevel *engine.LevelConfig
	levels       map[string]*engine.LevelConfig
	mu           sync.RWMutex
}

// NewManager creates a new level manager
func NewManager(levelsDir string) (*Manager, error) {
	if _, err := os.Stat(levelsDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("levels directory does not exist: %s", levelsDir)
	}

	m := &Manager{
		levelsDir: levelsDir,
		levels:    make(map[string]*engine.LevelConfig),
	}

	if err := m.loadDefaultLevel(); err != nil {
		return nil, fmt.Errorf("failed to load default level: %w", err)
	}

	return m, nil
}

// LoadLevel loads a level definition by name
func (m *Manager) LoadLevel(name string) (*engine.LevelConfig, error) {
	m.mu.RLock()
	if level, exists := m.levels[name]; exists {
		m.mu.RUnlock()
		return level, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring the write lock
	if level, exists := m.levels[name]; exists {
		return level, nil
	}

	filename := name
	if !strings.HasSuffix(filename, ".json") {
		filename = name + ".json"
	}

	levelPath := filepath.Join(m.levelsDir, filename)

	data, err := os.ReadFile(levelPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrLevelNotFound
		}
		return nil, fmt.Errorf("failed to read level file: %w", err)
	}

	var level engine.LevelConfig
	if err := json.Unmarshal(data, &level); err != nil {
		return nil, fmt.Errorf("failed to parse level: %w", err)
	}

	if err := engine.ValidateLevelConfig(&level); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}

	m.levels[name] = &level
	return &level, nil
}

// ListLevels returns information about all available level definitions
func (m *Manager) ListLevels() ([]*service.LevelInfo, error) {
	entries, err := os.ReadDir(m.levelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read levels directory: %w", err)
	}

	var levels []*service.LevelInfo

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), ".json")

		level, err := m.LoadLevel(name)
		if err != nil {
			// Skip invalid level files
			continue
		}

		agents := 0
		for _, row := range level.Layout {
			agents += strings.Count(row, "S") + strings.Count(row, "*")
		}

		levels = append(levels, &service.LevelInfo{
			Filename:    entry.Name(),
			LevelID:     name, // This is the identifier to use for session creation
			Name:        level.Name,
			Description: level.Description,
			Width:       len(level.Layout[0]),
			Height:      len(level.Layout),
			Agents:      agents,
			MaxSteps:    level.MaxSteps,
		})
	}

	return levels, nil
}

// GetDefault returns the default level definition
func (m *Manager) GetDefault() *engine.LevelConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultLevel
}

// SetDefault sets the default level by name
func (m *Manager) SetDefault(name string) error {
	level, err := m.LoadLevel(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultLevel = level
	return nil
}

// RefreshCache reloads all cached level definitions from disk
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.levels = make(map[string]*engine.LevelConfig)
	m.mu.Unlock()

	return m.loadDefaultLevel()
}

// loadDefaultLevel loads the default level definition. The lock handling
// mirrors LoadLevel, so callers must not hold the mutex.
func (m *Manager) loadDefaultLevel() error {
	// Try classic.json first
	level, err := m.LoadLevel("classic")
	if err != nil {
		levels, listErr := m.ListLevels()
		if listErr != nil || len(levels) == 0 {
			m.defaultLevel = m.createMinimalLevel()
			return nil
		}

		level, err = m.LoadLevel(strings.TrimSuffix(levels[0].Filename, ".json"))
		if err != nil {
			m.defaultLevel = m.createMinimalLevel()
			return nil
		}
	}

	m.defaultLevel = level
	return nil
}

// SaveLevel saves a level definition to disk
func (m *Manager) SaveLevel(name string, level *engine.LevelConfig) error {
	if err := engine.ValidateLevelConfig(level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}

	filename := name
	if !strings.HasSuffix(filename, ".json") {
		filename = name + ".json"
	}

	levelPath := filepath.Join(m.levelsDir, filename)

	data, err := json.MarshalIndent(level, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal level: %w", err)
	}

	if err := os.WriteFile(levelPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write level file: %w", err)
	}

	m.mu.Lock()
	m.levels[name] = level
	m.mu.Unlock()

	return nil
}

// createMinimalLevel creates a minimal valid level definition
func (m *Manager) createMinimalLevel() *engine.LevelConfig {
	level := &engine.LevelConfig{
		Name:        "default",
		Description: "Default minimal level",
		Layout: []string{
			"#####",
			"#S..#",
			"#...#",
			"#..F#",
			"#####",
		},
		Legend: map[string]string{
			".": "empty",
			"#": "wall",
			"I": "ice",
			"R": "rotator_cw",
			"L": "rotator_ccw",
			"F": "finish",
			"S": "start",
			"*": "start_on_finish",
		},
		MaxSteps:     64,
		MaxRotations: engine.DefaultMaxRotations,
	}
	level.Messages.Welcome = "Find a looping plan that reaches the finish."
	level.Messages.Solved = "Solved!"
	level.Messages.Unsolved = "The plan never reached the finish."
	level.Messages.Stuck = "The plan got stuck on a rotator."
	return level
}
