package service

import (
	"context"
	"time"

	"github.com/DylanRJohnston/planloop/puzzle/engine"
	"github.com/DylanRJohnston/planloop/puzzle/plan"
)

// PuzzleService defines all plan and session operations
type PuzzleService interface {
	// Session Management
	CreateSession(ctx context.Context, levelName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Plan Evaluation
	Evaluate(ctx context.Context, sessionID, planText string) (*EvaluateResult, error)
	Reset(ctx context.Context, sessionID string) (*engine.RunnerState, error)
	GetAttemptHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Canonical Forms
	Canonicalize(ctx context.Context, planText string, opts plan.Options) (*CanonicalResult, error)
	EnumerateCanonical(ctx context.Context, length int) (*EnumerateResult, error)

	// Levels
	ListLevels(ctx context.Context) ([]*LevelInfo, error)
	LoadLevel(ctx context.Context, levelName string) (*engine.LevelConfig, error)
	SaveLevel(ctx context.Context, levelName string, config *engine.LevelConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, level *engine.LevelConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, level *engine.LevelConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// LevelManager handles level definition loading
type LevelManager interface {
	LoadLevel(name string) (*engine.LevelConfig, error)
	ListLevels() ([]*LevelInfo, error)
	GetDefault() *engine.LevelConfig
	SaveLevel(name string, config *engine.LevelConfig) error
}

// Session binds a runner to its level and access metadata
type Session struct {
	ID             string
	Runner         *engine.Runner
	Level          *engine.LevelConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
