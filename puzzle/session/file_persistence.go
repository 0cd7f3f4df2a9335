package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DylanRJohnston/planloop/puzzle/engine"
	"github.com/DylanRJohnston/planloop/puzzle/service"
)

// FilePersistence stores each session as <sessionsDir>/<id>.json. Only the
// runner state and level ID are written; the board is rebuilt from the level
// file on load, so level edits take effect on revival.
type FilePersistence struct {
	sessionsDir  string
	levelManager service.LevelManager
}

// NewFilePersistence creates the storage directory if needed and returns a
// persistence layer rooted there.
func NewFilePersistence(sessionsDir string, levelManager service.LevelManager) (*FilePersistence, error) {
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return &FilePersistence{sessionsDir: sessionsDir, levelManager: levelManager}, nil
}

// Save writes the session snapshot. The write goes through a temp file and
// rename so the sync loop never observes a half-written session.
func (fp *FilePersistence) Save(sess *service.Session) error {
	if sess == nil {
		return fmt.Errorf("session cannot be nil")
	}

	levelID, err := fp.levelIDFor(sess.Level.Name)
	if err != nil {
		return fmt.Errorf("failed to resolve level ID: %w", err)
	}

	snapshot := PersistedSessionData{
		ID:             sess.ID,
		LevelName:      levelID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		State:          sess.Runner.State(),
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	target := fp.path(sess.ID)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize session file: %w", err)
	}
	return nil
}

// Load rebuilds a session from its snapshot: resolve the level, construct a
// fresh runner, then restore the recorded runner state onto it.
func (fp *FilePersistence) Load(id string) (*service.Session, error) {
	raw, err := os.ReadFile(fp.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var snapshot PersistedSessionData
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}

	level, err := fp.levelManager.LoadLevel(snapshot.LevelName)
	if err != nil {
		return nil, fmt.Errorf("failed to load level '%s': %w", snapshot.LevelName, err)
	}

	runner, err := engine.NewRunner(level)
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}
	if snapshot.State != nil {
		if err := runner.SetState(snapshot.State); err != nil {
			return nil, fmt.Errorf("failed to restore runner state: %w", err)
		}
	}

	return &service.Session{
		ID:             snapshot.ID,
		Runner:         runner,
		Level:          level,
		CreatedAt:      snapshot.CreatedAt,
		LastAccessedAt: snapshot.LastAccessedAt,
	}, nil
}

// Delete removes the session file.
func (fp *FilePersistence) Delete(id string) error {
	if !fp.Exists(id) {
		return ErrSessionNotFound
	}
	if err := os.Remove(fp.path(id)); err != nil {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// ListAll returns the IDs of every persisted session.
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), ".json"))
	}
	return ids, nil
}

// Exists reports whether a session file is on disk.
func (fp *FilePersistence) Exists(id string) bool {
	_, err := os.Stat(fp.path(id))
	return err == nil
}

func (fp *FilePersistence) path(id string) string {
	return filepath.Join(fp.sessionsDir, id+".json")
}

// levelIDFor maps a level's display name back to its file-based ID. Snapshots
// store the ID so they survive display-name edits. Unknown names are assumed
// to already be IDs.
func (fp *FilePersistence) levelIDFor(displayName string) (string, error) {
	levels, err := fp.levelManager.ListLevels()
	if err != nil {
		return "", fmt.Errorf("failed to list levels: %w", err)
	}
	for _, level := range levels {
		if level.Name == displayName {
			return level.LevelID, nil
		}
	}
	return displayName, nil
}
