package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/DylanRJohnston/planloop/puzzle/engine"
	"github.com/DylanRJohnston/planloop/puzzle/plan"
	"github.com/DylanRJohnston/planloop/puzzle/service"
	"github.com/DylanRJohnston/planloop/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.PuzzleService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server
func NewServer(puzzleService service.PuzzleService, hub *websocket.Hub) *Server {
	s := &Server{
		service: puzzleService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Plan evaluation
	api.HandleFunc("/sessions/{id}/state", s.handleGetState).Methods("GET")
	api.HandleFunc("/sessions/{id}/evaluate", s.handleEvaluate).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/attempts", s.handleGetAttempts).Methods("GET")

	// Stateless plan operations
	api.HandleFunc("/plans/canonicalize", s.handleCanonicalize).Methods("POST")
	api.HandleFunc("/plans/enumerate", s.handleEnumerate).Methods("GET")

	// Levels
	api.HandleFunc("/levels", s.handleListLevels).Methods("GET")
	api.HandleFunc("/levels", s.handleCreateLevel).Methods("POST")
	api.HandleFunc("/levels/{name}", s.handleGetLevel).Methods("GET")

	// Health
	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LevelID   string `json:"level_id,omitempty"`
		LevelName string `json:"level_name,omitempty"` // Deprecated, use level_id
	}

	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	levelID := req.LevelID
	if levelID == "" && req.LevelName != "" {
		levelID = req.LevelName
	}

	sess, err := s.service.CreateSession(r.Context(), levelID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else { // "accessed"
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj) // desc
	})

	limit := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			limit = l
		}
	}
	sessions = sessions[:limit]

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["id"]

	sess, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Evaluation Handlers

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["id"]

	sess, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, sess.State)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["id"]

	var req struct {
		Plan string `json:"plan"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := s.service.Evaluate(r.Context(), sessionID, req.Plan)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	// Broadcast to WebSocket clients
	if s.hub != nil {
		sess, getErr := s.service.GetSession(r.Context(), sessionID)
		if getErr == nil {
			s.hub.BroadcastEvaluation(sessionID, result.Evaluation, sess.State)
		}
	}

	// Compact server log for observability
	ev := result.Evaluation
	fmt.Printf("[EVAL] session=%s plan=%s canonical=%s verdict=%s steps=%d\n",
		sessionID, ev.Plan, ev.Canonical, ev.Verdict, len(ev.Trace))

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["id"]

	state, err := s.service.Reset(r.Context(), sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	if s.hub != nil {
		s.hub.BroadcastEvaluation(sessionID, nil, state)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Session reset successfully",
		"state":   state,
	})
}

func (s *Server) handleGetAttempts(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["id"]

	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetAttemptHistory(r.Context(), sessionID, opts)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// Plan Handlers

func (s *Server) handleCanonicalize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Plan         string `json:"plan"`
		PhaseShift   *bool  `json:"phase_shift,omitempty"`
		ReduceCycles *bool  `json:"reduce_cycles,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	opts := plan.DefaultOptions()
	if req.PhaseShift != nil {
		opts.PhaseShift = *req.PhaseShift
	}
	if req.ReduceCycles != nil {
		opts.ReduceCycles = *req.ReduceCycles
	}

	result, err := s.service.Canonicalize(r.Context(), req.Plan, opts)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleEnumerate(w http.ResponseWriter, r *http.Request) {
	lengthStr := r.URL.Query().Get("length")
	length, err := strconv.Atoi(lengthStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "length query parameter must be an integer")
		return
	}

	result, err := s.service.EnumerateCanonical(r.Context(), length)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	fmt.Printf("[ENUM] length=%d count=%d\n", result.Length, result.Count)

	respondJSON(w, http.StatusOK, result)
}

// Level Handlers

func (s *Server) handleListLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := s.service.ListLevels(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, levels)
}

func (s *Server) handleGetLevel(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	levelName := vars["name"]

	// Remove .json extension if present
	levelName = strings.TrimSuffix(levelName, ".json")

	level, err := s.service.LoadLevel(r.Context(), levelName)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, level)
}

func (s *Server) handleCreateLevel(w http.ResponseWriter, r *http.Request) {
	var level engine.LevelConfig

	if err := json.NewDecoder(r.Body).Decode(&level); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if level.Name == "" {
		respondError(w, http.StatusBadRequest, "Level name is required")
		return
	}

	if err := s.service.SaveLevel(r.Context(), level.Name, &level); err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to save level: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Level saved successfully",
		"level_id": level.Name,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	// Verify session exists
	if _, err := s.service.GetSession(context.Background(), sessionID); err != nil {
		http.Error(w, "Invalid session", http.StatusNotFound)
		return
	}

	s.hub.ServeWS(w, r, sessionID)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// statusForError maps validation failures to 400 and everything else to 500.
// Session lookups are handled per-route with 404.
func statusForError(err error) int {
	switch {
	case errors.Is(err, plan.ErrInvalidArgument), errors.Is(err, engine.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrInvalidBoard):
		return http.StatusBadRequest
	case strings.Contains(err.Error(), "session not found"):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
