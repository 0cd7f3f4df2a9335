package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/DylanRJohnston/planloop/puzzle/engine"
)

func createValidLevel(name string) *engine.LevelConfig {
	level := &engine.LevelConfig{
		Name:        name,
		Description: "Test level",
		Layout: []string{
			"#####",
			"#S..#",
			"#.I.#",
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
		MaxSteps:     32,
		MaxRotations: 4,
	}
	level.Messages.Welcome = "Welcome!"
	level.Messages.Solved = "Solved!"
	level.Messages.Unsolved = "Not solved"
	level.Messages.Stuck = "Stuck"
	return level
}

func writeLevelFile(t *testing.T, dir, name string, level *engine.LevelConfig) {
	t.Helper()
	data, err := json.MarshalIndent(level, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal level: %v", err)
	}

	filename := name
	if filepath.Ext(filename) == "" {
		filename = name + ".json"
	}

	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		t.Fatalf("Failed to write level file: %v", err)
	}
}

func TestNewManager(t *testing.T) {
	dir := t.TempDir()
	writeLevelFile(t, dir, "classic", createValidLevel("Classic"))

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	if manager.GetDefault() == nil {
		t.Fatal("manager has no default level")
	}
	if manager.GetDefault().Name != "Classic" {
		t.Errorf("default level = %q, want Classic", manager.GetDefault().Name)
	}

	if _, err := NewManager(filepath.Join(dir, "missing")); err == nil {
		t.Error("missing directory should be rejected")
	}
}

func TestNewManagerWithoutLevels(t *testing.T) {
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	// With no level files the manager falls back to a built-in level.
	def := manager.GetDefault()
	if def == nil {
		t.Fatal("expected a minimal default level")
	}
	if err := engine.ValidateLevelConfig(def); err != nil {
		t.Errorf("minimal default level is invalid: %v", err)
	}
}

func TestLoadLevel(t *testing.T) {
	dir := t.TempDir()
	writeLevelFile(t, dir, "glacier", createValidLevel("Glacier"))

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	level, err := manager.LoadLevel("glacier")
	if err != nil {
		t.Fatalf("LoadLevel failed: %v", err)
	}
	if level.Name != "Glacier" {
		t.Errorf("level name = %q, want Glacier", level.Name)
	}

	// Cached reload returns the same pointer.
	again, err := manager.LoadLevel("glacier")
	if err != nil {
		t.Fatalf("cached LoadLevel failed: %v", err)
	}
	if level != again {
		t.Error("cached load returned a different instance")
	}

	if _, err := manager.LoadLevel("missing"); !errors.Is(err, ErrLevelNotFound) {
		t.Errorf("missing level: got %v, want ErrLevelNotFound", err)
	}
}

func TestLoadLevelRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	broken := createValidLevel("Broken")
	broken.Layout[1] = "#...#" // no agent start
	writeLevelFile(t, dir, "broken", broken)

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if _, err := manager.LoadLevel("broken"); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("invalid level: got %v, want ErrInvalidLevel", err)
	}
}

func TestListLevels(t *testing.T) {
	dir := t.TempDir()
	writeLevelFile(t, dir, "classic", createValidLevel("Classic"))
	writeLevelFile(t, dir, "glacier", createValidLevel("Glacier"))

	broken := createValidLevel("Broken")
	broken.Name = ""
	writeLevelFile(t, dir, "broken", broken)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	levels, err := manager.ListLevels()
	if err != nil {
		t.Fatalf("ListLevels failed: %v", err)
	}
	// Invalid and non-JSON files are skipped.
	if len(levels) != 2 {
		t.Fatalf("listed %d levels, want 2", len(levels))
	}
	for _, info := range levels {
		if info.LevelID != "classic" && info.LevelID != "glacier" {
			t.Errorf("unexpected level ID %q", info.LevelID)
		}
		if info.Width != 5 || info.Height != 5 {
			t.Errorf("level %s dimensions %dx%d, want 5x5", info.LevelID, info.Width, info.Height)
		}
		if info.Agents != 1 {
			t.Errorf("level %s has %d agents, want 1", info.LevelID, info.Agents)
		}
	}
}

func TestSaveLevel(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	level := createValidLevel("Saved")
	if err := manager.SaveLevel("saved", level); err != nil {
		t.Fatalf("SaveLevel failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "saved.json")); err != nil {
		t.Errorf("saved file missing: %v", err)
	}

	loaded, err := manager.LoadLevel("saved")
	if err != nil {
		t.Fatalf("LoadLevel failed: %v", err)
	}
	if loaded.Name != "Saved" {
		t.Errorf("loaded level name = %q, want Saved", loaded.Name)
	}

	bad := createValidLevel("Bad")
	bad.Description = ""
	if err := manager.SaveLevel("bad", bad); !errors.Is(err, ErrInvalidLevel) {
		t.Errorf("invalid save: got %v, want ErrInvalidLevel", err)
	}
}

func TestSetDefaultAndRefresh(t *testing.T) {
	dir := t.TempDir()
	writeLevelFile(t, dir, "classic", createValidLevel("Classic"))
	writeLevelFile(t, dir, "glacier", createValidLevel("Glacier"))

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if err := manager.SetDefault("glacier"); err != nil {
		t.Fatalf("SetDefault failed: %v", err)
	}
	if manager.GetDefault().Name != "Glacier" {
		t.Errorf("default = %q, want Glacier", manager.GetDefault().Name)
	}

	if err := manager.RefreshCache(); err != nil {
		t.Fatalf("RefreshCache failed: %v", err)
	}
	// Refresh reloads classic.json as the default again.
	if manager.GetDefault().Name != "Classic" {
		t.Errorf("default after refresh = %q, want Classic", manager.GetDefault().Name)
	}
}

func TestManagerConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	writeLevelFile(t, dir, "classic", createValidLevel("Classic"))

	manager, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := manager.LoadLevel("classic"); err != nil {
				t.Errorf("concurrent LoadLevel failed: %v", err)
			}
			manager.GetDefault()
		}()
	}
	wg.Wait()
}
