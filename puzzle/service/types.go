package service

import (
	"time"

	"github.com/DylanRJohnston/planloop/puzzle/engine"
)

// SessionInfo provides information about an evaluation session
type SessionInfo struct {
	ID             string              `json:"id"`
	LevelName      string              `json:"level_name"`
	CreatedAt      time.Time           `json:"created_at"`
	LastAccessedAt time.Time           `json:"last_accessed_at"`
	State          *engine.RunnerState `json:"state"`
	Level          *engine.LevelConfig `json:"level"`
}

// EvaluateResult contains the outcome of one plan evaluation within a session
type EvaluateResult struct {
	SessionID      string             `json:"session_id"`
	Evaluation     *engine.Evaluation `json:"evaluation"`
	TotalAttempts  int                `json:"total_attempts"`
	Solved         bool               `json:"solved"`
	BestSolvedStep int                `json:"best_solved_step,omitempty"`
}

// CanonicalResult is the outcome of a standalone canonicalization request
type CanonicalResult struct {
	Plan        string `json:"plan"`
	Canonical   string `json:"canonical"`
	Length      int    `json:"length"`
	IsCanonical bool   `json:"is_canonical"`
}

// EnumerateResult lists every canonical representative of a given length
type EnumerateResult struct {
	Length int      `json:"length"`
	Count  int      `json:"count"`
	Plans  []string `json:"plans"`
}

// HistoryOptions configures attempt history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated attempt history
type HistoryResponse struct {
	Attempts      []engine.AttemptRecord `json:"attempts"`
	TotalAttempts int                    `json:"total_attempts"`
	Page          int                    `json:"page"`
	PageSize      int                    `json:"page_size"`
	TotalPages    int                    `json:"total_pages"`
	HasNext       bool                   `json:"has_next"`
	HasPrevious   bool                   `json:"has_previous"`
}

// LevelInfo provides information about a level definition
type LevelInfo struct {
	Filename    string `json:"filename"`
	LevelID     string `json:"level_id"` // The identifier to use for session creation
	Name        string `json:"name"`     // Display name
	Description string `json:"description"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Agents      int    `json:"agents"`
	MaxSteps    int    `json:"max_steps"`
}
