package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DylanRJohnston/planloop/puzzle/engine"
	"github.com/DylanRJohnston/planloop/puzzle/plan"
	"github.com/DylanRJohnston/planloop/puzzle/service"
)

// MockPuzzleService implements service.PuzzleService for testing
type MockPuzzleService struct {
	CreateSessionFunc func(ctx context.Context, levelName string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	EvaluateFunc          func(ctx context.Context, sessionID, planText string) (*service.EvaluateResult, error)
	ResetFunc             func(ctx context.Context, sessionID string) (*engine.RunnerState, error)
	GetAttemptHistoryFunc func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error)

	CanonicalizeFunc       func(ctx context.Context, planText string, opts plan.Options) (*service.CanonicalResult, error)
	EnumerateCanonicalFunc func(ctx context.Context, length int) (*service.EnumerateResult, error)

	ListLevelsFunc func(ctx context.Context) ([]*service.LevelInfo, error)
	LoadLevelFunc  func(ctx context.Context, levelName string) (*engine.LevelConfig, error)
	SaveLevelFunc  func(ctx context.Context, levelName string, config *engine.LevelConfig) error
}

func (m *MockPuzzleService) CreateSession(ctx context.Context, levelName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, levelName)
	}
	return &service.SessionInfo{
		ID:        "test-session",
		LevelName: levelName,
		CreatedAt: time.Now(),
		State:     &engine.RunnerState{},
	}, nil
}

func (m *MockPuzzleService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{
		ID:        sessionID,
		LevelName: "classic",
		CreatedAt: time.Now(),
		State:     &engine.RunnerState{},
	}, nil
}

func (m *MockPuzzleService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockPuzzleService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

func (m *MockPuzzleService) Evaluate(ctx context.Context, sessionID, planText string) (*service.EvaluateResult, error) {
	if m.EvaluateFunc != nil {
		return m.EvaluateFunc(ctx, sessionID, planText)
	}
	return &service.EvaluateResult{
		SessionID: sessionID,
		Evaluation: &engine.Evaluation{
			Plan:      planText,
			Canonical: planText,
			Verdict:   engine.VerdictUnsolved,
		},
	}, nil
}

func (m *MockPuzzleService) Reset(ctx context.Context, sessionID string) (*engine.RunnerState, error) {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, sessionID)
	}
	return &engine.RunnerState{}, nil
}

func (m *MockPuzzleService) GetAttemptHistory(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
	if m.GetAttemptHistoryFunc != nil {
		return m.GetAttemptHistoryFunc(ctx, sessionID, opts)
	}
	return &service.HistoryResponse{Attempts: []engine.AttemptRecord{}}, nil
}

func (m *MockPuzzleService) Canonicalize(ctx context.Context, planText string, opts plan.Options) (*service.CanonicalResult, error) {
	if m.CanonicalizeFunc != nil {
		return m.CanonicalizeFunc(ctx, planText, opts)
	}
	return &service.CanonicalResult{Plan: planText, Canonical: planText}, nil
}

func (m *MockPuzzleService) EnumerateCanonical(ctx context.Context, length int) (*service.EnumerateResult, error) {
	if m.EnumerateCanonicalFunc != nil {
		return m.EnumerateCanonicalFunc(ctx, length)
	}
	return &service.EnumerateResult{Length: length}, nil
}

func (m *MockPuzzleService) ListLevels(ctx context.Context) ([]*service.LevelInfo, error) {
	if m.ListLevelsFunc != nil {
		return m.ListLevelsFunc(ctx)
	}
	return []*service.LevelInfo{}, nil
}

func (m *MockPuzzleService) LoadLevel(ctx context.Context, levelName string) (*engine.LevelConfig, error) {
	if m.LoadLevelFunc != nil {
		return m.LoadLevelFunc(ctx, levelName)
	}
	return &engine.LevelConfig{Name: levelName}, nil
}

func (m *MockPuzzleService) SaveLevel(ctx context.Context, levelName string, config *engine.LevelConfig) error {
	if m.SaveLevelFunc != nil {
		return m.SaveLevelFunc(ctx, levelName, config)
	}
	return nil
}

func newTestServer(mock *MockPuzzleService) *Server {
	return NewServer(mock, nil)
}

func doRequest(t *testing.T, server *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func TestHandleCreateSession(t *testing.T) {
	mock := &MockPuzzleService{}
	server := newTestServer(mock)

	rec := doRequest(t, server, "POST", "/api/sessions", map[string]string{"level_id": "classic"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	var info service.SessionInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if info.LevelName != "classic" {
		t.Errorf("level name = %q, want classic", info.LevelName)
	}
}

func TestHandleCreateSessionError(t *testing.T) {
	mock := &MockPuzzleService{
		CreateSessionFunc: func(ctx context.Context, levelName string) (*service.SessionInfo, error) {
			return nil, fmt.Errorf("level '%s' not found", levelName)
		},
	}
	server := newTestServer(mock)

	rec := doRequest(t, server, "POST", "/api/sessions", map[string]string{"level_id": "volcano"})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestHandleListSessionsSorting(t *testing.T) {
	now := time.Now()
	mock := &MockPuzzleService{
		ListSessionsFunc: func(ctx context.Context) ([]*service.SessionInfo, error) {
			return []*service.SessionInfo{
				{ID: "old", LastAccessedAt: now.Add(-time.Hour)},
				{ID: "new", LastAccessedAt: now},
			}, nil
		},
	}
	server := newTestServer(mock)

	rec := doRequest(t, server, "GET", "/api/sessions", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Count    int                    `json:"count"`
		Sessions []*service.SessionInfo `json:"sessions"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("count = %d, want 2", resp.Count)
	}
	// Default sort is most recently accessed first.
	if resp.Sessions[0].ID != "new" {
		t.Errorf("first session = %q, want new", resp.Sessions[0].ID)
	}

	rec = doRequest(t, server, "GET", "/api/sessions?limit=1", nil)
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("limited count = %d, want 1", resp.Count)
	}
}

func TestHandleGetSession(t *testing.T) {
	mock := &MockPuzzleService{}
	server := newTestServer(mock)

	rec := doRequest(t, server, "GET", "/api/sessions/abc", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	mock.GetSessionFunc = func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
		return nil, fmt.Errorf("session not found")
	}
	rec = doRequest(t, server, "GET", "/api/sessions/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleDeleteSession(t *testing.T) {
	deleted := ""
	mock := &MockPuzzleService{
		DeleteSessionFunc: func(ctx context.Context, sessionID string) error {
			deleted = sessionID
			return nil
		},
	}
	server := newTestServer(mock)

	rec := doRequest(t, server, "DELETE", "/api/sessions/abc", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if deleted != "abc" {
		t.Errorf("deleted session %q, want abc", deleted)
	}
}

func TestHandleEvaluate(t *testing.T) {
	mock := &MockPuzzleService{
		EvaluateFunc: func(ctx context.Context, sessionID, planText string) (*service.EvaluateResult, error) {
			return &service.EvaluateResult{
				SessionID: sessionID,
				Evaluation: &engine.Evaluation{
					Plan:      planText,
					Canonical: "NNEE",
					Verdict:   engine.VerdictSolved,
				},
				Solved: true,
			}, nil
		},
	}
	server := newTestServer(mock)

	rec := doRequest(t, server, "POST", "/api/sessions/abc/evaluate", map[string]string{"plan": "SWWS"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result service.EvaluateResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Evaluation.Canonical != "NNEE" {
		t.Errorf("canonical = %q, want NNEE", result.Evaluation.Canonical)
	}
	if result.Evaluation.Verdict != engine.VerdictSolved {
		t.Errorf("verdict = %s, want solved", result.Evaluation.Verdict)
	}
}

func TestHandleEvaluateBadPlan(t *testing.T) {
	mock := &MockPuzzleService{
		EvaluateFunc: func(ctx context.Context, sessionID, planText string) (*service.EvaluateResult, error) {
			return nil, fmt.Errorf("%w: unknown direction %q", plan.ErrInvalidArgument, planText)
		},
	}
	server := newTestServer(mock)

	rec := doRequest(t, server, "POST", "/api/sessions/abc/evaluate", map[string]string{"plan": "XYZ"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleEvaluateMissingSession(t *testing.T) {
	mock := &MockPuzzleService{
		EvaluateFunc: func(ctx context.Context, sessionID, planText string) (*service.EvaluateResult, error) {
			return nil, fmt.Errorf("session not found: %s", sessionID)
		},
	}
	server := newTestServer(mock)

	rec := doRequest(t, server, "POST", "/api/sessions/ghost/evaluate", map[string]string{"plan": "N"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleReset(t *testing.T) {
	mock := &MockPuzzleService{
		ResetFunc: func(ctx context.Context, sessionID string) (*engine.RunnerState, error) {
			return &engine.RunnerState{TotalAttempts: 3}, nil
		},
	}
	server := newTestServer(mock)

	rec := doRequest(t, server, "POST", "/api/sessions/abc/reset", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		State *engine.RunnerState `json:"state"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.State.TotalAttempts != 3 {
		t.Errorf("total attempts = %d, want 3", resp.State.TotalAttempts)
	}
}

func TestHandleGetAttemptsQueryParams(t *testing.T) {
	var got service.HistoryOptions
	mock := &MockPuzzleService{
		GetAttemptHistoryFunc: func(ctx context.Context, sessionID string, opts service.HistoryOptions) (*service.HistoryResponse, error) {
			got = opts
			return &service.HistoryResponse{Attempts: []engine.AttemptRecord{}}, nil
		},
	}
	server := newTestServer(mock)

	rec := doRequest(t, server, "GET", "/api/sessions/abc/attempts?page=2&limit=5&order=asc", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got.Page != 2 || got.Limit != 5 || got.Order != "asc" {
		t.Errorf("options = %+v, want page=2 limit=5 order=asc", got)
	}
}

func TestHandleCanonicalize(t *testing.T) {
	var gotOpts plan.Options
	mock := &MockPuzzleService{
		CanonicalizeFunc: func(ctx context.Context, planText string, opts plan.Options) (*service.CanonicalResult, error) {
			gotOpts = opts
			return &service.CanonicalResult{Plan: planText, Canonical: "NNE"}, nil
		},
	}
	server := newTestServer(mock)

	body := map[string]interface{}{"plan": "ESE", "reduce_cycles": false}
	rec := doRequest(t, server, "POST", "/api/plans/canonicalize", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !gotOpts.PhaseShift {
		t.Error("phase shift should default to true")
	}
	if gotOpts.ReduceCycles {
		t.Error("reduce_cycles=false not honored")
	}

	var result service.CanonicalResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Canonical != "NNE" {
		t.Errorf("canonical = %q, want NNE", result.Canonical)
	}
}

func TestHandleEnumerate(t *testing.T) {
	mock := &MockPuzzleService{
		EnumerateCanonicalFunc: func(ctx context.Context, length int) (*service.EnumerateResult, error) {
			if length != 4 {
				t.Errorf("length = %d, want 4", length)
			}
			return &service.EnumerateResult{Length: 4, Count: 11}, nil
		},
	}
	server := newTestServer(mock)

	rec := doRequest(t, server, "GET", "/api/plans/enumerate?length=4", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result service.EnumerateResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Count != 11 {
		t.Errorf("count = %d, want 11", result.Count)
	}

	rec = doRequest(t, server, "GET", "/api/plans/enumerate?length=abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric length: status = %d, want 400", rec.Code)
	}

	mock.EnumerateCanonicalFunc = func(ctx context.Context, length int) (*service.EnumerateResult, error) {
		return nil, fmt.Errorf("%w: length out of range", plan.ErrInvalidArgument)
	}
	rec = doRequest(t, server, "GET", "/api/plans/enumerate?length=99", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("oversized length: status = %d, want 400", rec.Code)
	}
}

func TestHandleLevels(t *testing.T) {
	mock := &MockPuzzleService{
		ListLevelsFunc: func(ctx context.Context) ([]*service.LevelInfo, error) {
			return []*service.LevelInfo{{LevelID: "classic", Name: "Classic Loop"}}, nil
		},
	}
	server := newTestServer(mock)

	rec := doRequest(t, server, "GET", "/api/levels", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var levels []*service.LevelInfo
	if err := json.NewDecoder(rec.Body).Decode(&levels); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(levels) != 1 || levels[0].LevelID != "classic" {
		t.Errorf("levels = %+v", levels)
	}

	// Extension is stripped before lookup.
	var gotName string
	mock.LoadLevelFunc = func(ctx context.Context, levelName string) (*engine.LevelConfig, error) {
		gotName = levelName
		return &engine.LevelConfig{Name: levelName}, nil
	}
	rec = doRequest(t, server, "GET", "/api/levels/classic.json", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotName != "classic" {
		t.Errorf("looked up %q, want classic", gotName)
	}
}

func TestHandleCreateLevel(t *testing.T) {
	saved := ""
	mock := &MockPuzzleService{
		SaveLevelFunc: func(ctx context.Context, levelName string, config *engine.LevelConfig) error {
			saved = levelName
			return nil
		},
	}
	server := newTestServer(mock)

	level := map[string]interface{}{"name": "custom", "description": "d", "layout": []string{"S F"}}
	rec := doRequest(t, server, "POST", "/api/levels", level)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if saved != "custom" {
		t.Errorf("saved level %q, want custom", saved)
	}

	rec = doRequest(t, server, "POST", "/api/levels", map[string]string{"description": "nameless"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("nameless level: status = %d, want 400", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	server := newTestServer(&MockPuzzleService{})

	rec := doRequest(t, server, "GET", "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("status = %q, want healthy", resp["status"])
	}
}

func TestHandleWebSocketRequiresSession(t *testing.T) {
	server := newTestServer(&MockPuzzleService{})

	req := httptest.NewRequest("GET", "/ws", nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
