package main

import (
	"log"

	"github.com/DylanRJohnston/planloop/puzzle/plan"
)

// SweepStrategy hands out canonical candidate plans in order of increasing
// length. Enumeration happens locally so the server only ever sees plans
// worth trying; anything congruent to an earlier candidate is never generated
// in the first place.
type SweepStrategy struct {
	candidates []string
	nextIdx    int

	// Result tracking
	verdicts map[string]int // verdict -> count
	stuck    []string       // plans that jammed a rotator
}

func NewSweepStrategy(minLength, maxLength int) (*SweepStrategy, error) {
	s := &SweepStrategy{
		verdicts: make(map[string]int),
	}

	c := plan.NewCanonicalizer()
	for length := minLength; length <= maxLength; length++ {
		plans, err := c.Enumerate(length)
		if err != nil {
			return nil, err
		}
		for _, p := range plans {
			s.candidates = append(s.candidates, p.String())
		}
	}

	return s, nil
}

// Next returns the next candidate plan, or false when the corpus is exhausted.
func (s *SweepStrategy) Next() (string, bool) {
	if s.nextIdx >= len(s.candidates) {
		return "", false
	}
	candidate := s.candidates[s.nextIdx]
	s.nextIdx++
	return candidate, true
}

// Remaining reports how many candidates have not been handed out yet.
func (s *SweepStrategy) Remaining() int {
	return len(s.candidates) - s.nextIdx
}

// Record tallies the server's verdict for a submitted candidate.
func (s *SweepStrategy) Record(candidate string, result *EvaluateResponse) {
	if result == nil || result.Evaluation == nil {
		return
	}
	s.verdicts[result.Evaluation.Verdict]++
	if result.Evaluation.Verdict == "stuck" {
		s.stuck = append(s.stuck, candidate)
	}
}

// Report logs a summary of the sweep so far.
func (s *SweepStrategy) Report() {
	log.Printf("Sweep summary: %d/%d candidates submitted", s.nextIdx, len(s.candidates))
	for verdict, count := range s.verdicts {
		log.Printf("  %s: %d", verdict, count)
	}
	if len(s.stuck) > 0 {
		limit := len(s.stuck)
		if limit > 5 {
			limit = 5
		}
		log.Printf("  stuck plans (first %d): %v", limit, s.stuck[:limit])
		if len(s.stuck) > 5 {
			log.Printf("  ... and %d more", len(s.stuck)-5)
		}
	}
}
