// Command sweep drives an exhaustive plan search against a running puzzle
// server. It enumerates canonical plans locally, shortest first, and submits
// each one for evaluation until the session's level is solved or the length
// ceiling is reached. Because only canonical representatives are submitted,
// the sweep never wastes an attempt on a plan congruent to one already tried.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type TraceStep struct {
	Step      int        `json:"step"`
	Direction string     `json:"direction"`
	Positions []Position `json:"positions"`
}

type Evaluation struct {
	Plan         string      `json:"plan"`
	Canonical    string      `json:"canonical"`
	Verdict      string      `json:"verdict"`
	Trace        []TraceStep `json:"trace"`
	SolvedAtStep int         `json:"solved_at_step"`
	Message      string      `json:"message"`
	Board        []string    `json:"board"`
}

type EvaluateResponse struct {
	SessionID      string      `json:"session_id"`
	Evaluation     *Evaluation `json:"evaluation"`
	TotalAttempts  int         `json:"total_attempts"`
	Solved         bool        `json:"solved"`
	BestSolvedStep int         `json:"best_solved_step"`
}

type LevelConfig struct {
	Name     string   `json:"name"`
	Layout   []string `json:"layout"`
	MaxSteps int      `json:"max_steps"`
}

type SessionResponse struct {
	ID        string       `json:"id"`
	LevelName string       `json:"level_name"`
	Level     *LevelConfig `json:"level"`
}

type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) CreateSession(levelID string) (*SessionResponse, error) {
	var reqBody []byte
	var err error

	if levelID != "" {
		reqBody, err = json.Marshal(map[string]string{"level_id": levelID})
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
	}

	resp, err := c.client.Post(c.baseURL+"/api/sessions", "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("create session failed: %s - %s", resp.Status, string(body))
	}

	var session SessionResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, fmt.Errorf("parse session response: %w", err)
	}

	c.sessionID = session.ID
	return &session, nil
}

func (c *Client) GetSession() (*SessionResponse, error) {
	url := fmt.Sprintf("%s/api/sessions/%s", c.baseURL, c.sessionID)
	resp, err := c.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get session failed: %s - %s", resp.Status, string(body))
	}

	var session SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}

	return &session, nil
}

func (c *Client) Evaluate(planText string) (*EvaluateResponse, error) {
	body, err := json.Marshal(map[string]string{"plan": planText})
	if err != nil {
		return nil, fmt.Errorf("marshal plan: %w", err)
	}

	url := fmt.Sprintf("%s/api/sessions/%s/evaluate", c.baseURL, c.sessionID)
	resp, err := c.client.Post(url, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("evaluate failed: %s - %s", resp.Status, string(respBody))
	}

	var evalResp EvaluateResponse
	if err := json.NewDecoder(resp.Body).Decode(&evalResp); err != nil {
		return nil, fmt.Errorf("parse evaluate response: %w", err)
	}

	return &evalResp, nil
}

func (c *Client) Reset() error {
	url := fmt.Sprintf("%s/api/sessions/%s/reset", c.baseURL, c.sessionID)
	resp, err := c.client.Post(url, "application/json", nil)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("reset failed: %s - %s", resp.Status, string(body))
	}
	return nil
}

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "Puzzle server URL")
	levelID := flag.String("level", "", "Level identifier (default: server default level)")
	continueSession := flag.String("continue", "", "Resume an existing session by ID")
	minLength := flag.Int("min-length", 1, "Shortest plan length to try")
	maxLength := flag.Int("max-length", 6, "Longest plan length to try")
	verbose := flag.Bool("v", false, "Verbose output")
	delayMs := flag.Int("delay", 0, "Delay between evaluations in milliseconds (0 = no delay)")
	flag.Parse()

	log.Printf("Connecting to puzzle server at %s", *serverURL)
	client := NewClient(*serverURL)

	var session *SessionResponse
	var err error

	// Check for saved session ID
	sessionFile := ".session"
	savedSessionID := ""

	if *continueSession != "" {
		// Use explicitly provided session
		savedSessionID = *continueSession
	} else {
		// Try to load saved session
		if data, err := os.ReadFile(sessionFile); err == nil {
			savedSessionID = string(bytes.TrimSpace(data))
		}
	}

	if savedSessionID != "" {
		// Resume existing session
		client.sessionID = savedSessionID
		log.Printf("🔄 Resuming session: %s", client.sessionID)
		session, err = client.GetSession()
		if err != nil {
			log.Printf("⚠️  Failed to resume session (may be expired): %v", err)
			log.Printf("Creating new session...")
			savedSessionID = "" // Force create new
		}
	}

	if savedSessionID == "" {
		// Create new session
		session, err = client.CreateSession(*levelID)
		if err != nil {
			log.Fatalf("Failed to create session: %v", err)
		}
		log.Printf("✨ Session created: %s", client.sessionID)

		// Save session ID for next run
		if err := os.WriteFile(sessionFile, []byte(client.sessionID), 0644); err != nil {
			log.Printf("Warning: Failed to save session ID: %v", err)
		}
	}

	log.Printf("Level: %s", session.LevelName)
	if session.Level != nil {
		for _, row := range session.Level.Layout {
			log.Printf("  %s", row)
		}
		log.Printf("Step budget: %d", session.Level.MaxSteps)
	}

	// Reset the working segment so attempt numbers in the log line up
	log.Printf("🔄 Resetting session segment...")
	if err := client.Reset(); err != nil {
		log.Fatalf("Failed to reset session: %v", err)
	}

	strategy, err := NewSweepStrategy(*minLength, *maxLength)
	if err != nil {
		log.Fatalf("Invalid sweep bounds: %v", err)
	}
	log.Printf("📊 Sweep: %d candidate plans across lengths %d..%d",
		strategy.Remaining(), *minLength, *maxLength)

	for {
		candidate, ok := strategy.Next()
		if !ok {
			break
		}

		result, err := client.Evaluate(candidate)
		if err != nil {
			log.Printf("Evaluation of %s failed: %v", candidate, err)
			continue
		}
		strategy.Record(candidate, result)

		if *verbose && result.Evaluation != nil {
			log.Printf("Attempt %d: plan=%s verdict=%s steps=%d",
				result.TotalAttempts, candidate,
				result.Evaluation.Verdict, len(result.Evaluation.Trace))
		}

		if result.Solved && result.Evaluation != nil && result.Evaluation.Verdict == "solved" {
			log.Printf("\n🎉 SOLVED! Plan %s finishes at step %d (attempt %d)",
				candidate, result.Evaluation.SolvedAtStep, result.TotalAttempts)
			log.Printf("Session: %s", client.sessionID)
			strategy.Report()
			os.Exit(0)
		}

		if *delayMs > 0 {
			time.Sleep(time.Duration(*delayMs) * time.Millisecond)
		}
	}

	// Exhausted every canonical plan in range
	log.Printf("\n❌ No plan of length %d..%d solves this level", *minLength, *maxLength)
	log.Printf("Session: %s", client.sessionID)
	strategy.Report()
	os.Exit(1)
}
