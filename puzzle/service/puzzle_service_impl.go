package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/DylanRJohnston/planloop/puzzle/engine"
	"github.com/DylanRJohnston/planloop/puzzle/plan"
)

// puzzleServiceImpl implements the PuzzleService interface
type puzzleServiceImpl struct {
	sessions SessionManager
	levels   LevelManager
	mu       sync.RWMutex
}

// NewPuzzleService creates a new puzzle service instance
func NewPuzzleService(sessions SessionManager, levels LevelManager) PuzzleService {
	return &puzzleServiceImpl{
		sessions: sessions,
		levels:   levels,
	}
}

// getLevelID returns the level_id for a given level display name, used for
// consistent API responses
func (s *puzzleServiceImpl) getLevelID(levelName string) string {
	availableLevels, err := s.levels.ListLevels()
	if err == nil {
		for _, lvl := range availableLevels {
			if lvl.Name == levelName {
				return lvl.LevelID
			}
		}
	}
	if levelName == "" {
		return "default"
	}
	return levelName
}

// CreateSession creates a new evaluation session
func (s *puzzleServiceImpl) CreateSession(ctx context.Context, levelName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var level *engine.LevelConfig
	var err error
	if levelName != "" {
		level, err = s.levels.LoadLevel(levelName)
		if err != nil {
			if strings.Contains(err.Error(), "level not found") {
				availableLevels, listErr := s.levels.ListLevels()
				if listErr == nil && len(availableLevels) > 0 {
					var levelIDs []string
					for _, lvl := range availableLevels {
						levelIDs = append(levelIDs, lvl.LevelID)
					}
					return nil, fmt.Errorf("level '%s' not found. Available levels: %v", levelName, levelIDs)
				}
				return nil, fmt.Errorf("level '%s' not found. Use /api/levels to list available levels", levelName)
			}
			return nil, fmt.Errorf("failed to load level %s: %w", levelName, err)
		}
	} else {
		level = s.levels.GetDefault()
	}

	sess, err := s.sessions.Create("", level)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	levelID := levelName
	if levelID == "" {
		levelID = s.getLevelID(level.Name)
	}

	return &SessionInfo{
		ID:             sess.ID,
		LevelName:      levelID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		State:          sess.Runner.State(),
		Level:          sess.Level,
	}, nil
}

// GetSession retrieves session information
func (s *puzzleServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	return &SessionInfo{
		ID:             sess.ID,
		LevelName:      s.getLevelID(sess.Level.Name),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		State:          sess.Runner.State(),
		Level:          sess.Level,
	}, nil
}

// ListSessions returns all active sessions
func (s *puzzleServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))

	for _, sess := range sessions {
		result = append(result, &SessionInfo{
			ID:             sess.ID,
			LevelName:      s.getLevelID(sess.Level.Name),
			CreatedAt:      sess.CreatedAt,
			LastAccessedAt: sess.LastAccessedAt,
			State:          sess.Runner.State(),
			Level:          sess.Level,
		})
	}

	return result, nil
}

// DeleteSession removes a session
func (s *puzzleServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// Evaluate runs one plan against the session's level and records the attempt
func (s *puzzleServiceImpl) Evaluate(ctx context.Context, sessionID, planText string) (*EvaluateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)

	p, err := plan.ParsePlan(planText)
	if err != nil {
		return nil, err
	}

	evaluation, err := sess.Runner.Evaluate(p, 0)
	if err != nil {
		return nil, err
	}

	// Auto-save session after an evaluation
	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("[service] failed to persist session %s after evaluate: %v", sessionID, err)
	}

	state := sess.Runner.State()
	return &EvaluateResult{
		SessionID:      sessionID,
		Evaluation:     evaluation,
		TotalAttempts:  state.TotalAttempts,
		Solved:         state.Solved,
		BestSolvedStep: state.BestSolvedStep,
	}, nil
}

// Reset clears the session's current attempt segment
func (s *puzzleServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.RunnerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	state := sess.Runner.Reset()

	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("[service] failed to persist session %s after reset: %v", sessionID, err)
	}

	return state, nil
}

// GetAttemptHistory returns paginated attempt history
func (s *puzzleServiceImpl) GetAttemptHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.Runner.Attempts()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var attempts []engine.AttemptRecord
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			attempts = append(attempts, history[i])
		}
	} else {
		if start < total {
			attempts = history[start:end]
		}
	}

	if attempts == nil {
		attempts = []engine.AttemptRecord{}
	}

	return &HistoryResponse{
		Attempts:      attempts,
		TotalAttempts: total,
		Page:          opts.Page,
		PageSize:      opts.Limit,
		TotalPages:    totalPages,
		HasNext:       opts.Page < totalPages,
		HasPrevious:   opts.Page > 1,
	}, nil
}

// Canonicalize reduces a plan to its canonical representative without any
// session involvement
func (s *puzzleServiceImpl) Canonicalize(ctx context.Context, planText string, opts plan.Options) (*CanonicalResult, error) {
	p, err := plan.ParsePlan(planText)
	if err != nil {
		return nil, err
	}

	canon := plan.NewCanonicalizerWithOptions(opts)
	canonical, err := canon.Canonicalize(p)
	if err != nil {
		return nil, err
	}

	return &CanonicalResult{
		Plan:        p.String(),
		Canonical:   canonical.String(),
		Length:      len(canonical),
		IsCanonical: p.Equal(canonical),
	}, nil
}

// EnumerateCanonical lists every canonical representative of the given length
func (s *puzzleServiceImpl) EnumerateCanonical(ctx context.Context, length int) (*EnumerateResult, error) {
	plans, err := plan.NewCanonicalizer().Enumerate(length)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(plans))
	for i, p := range plans {
		texts[i] = p.String()
	}

	return &EnumerateResult{
		Length: length,
		Count:  len(texts),
		Plans:  texts,
	}, nil
}

// ListLevels returns available level definitions
func (s *puzzleServiceImpl) ListLevels(ctx context.Context) ([]*LevelInfo, error) {
	return s.levels.ListLevels()
}

// LoadLevel loads a specific level definition
func (s *puzzleServiceImpl) LoadLevel(ctx context.Context, levelName string) (*engine.LevelConfig, error) {
	return s.levels.LoadLevel(levelName)
}

// SaveLevel persists a level definition
func (s *puzzleServiceImpl) SaveLevel(ctx context.Context, levelName string, config *engine.LevelConfig) error {
	return s.levels.SaveLevel(levelName, config)
}
