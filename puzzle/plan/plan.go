package plan

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidArgument = errors.New("invalid argument")

// Direction is one of the four compass moves. The numeric order
// (North < East < South < West) is the canonical alphabet used for
// lexicographic comparison, and adding 1 modulo 4 is a 90° clockwise turn.
type Direction uint8

const (
	North Direction = iota
	East
	South
	West

	// MaxEnumerateLength bounds Enumerate; 4^L candidates are generated, so
	// callers must keep L small.
	MaxEnumerateLength = 12
)

var directionNames = [4]string{"north", "east", "south", "west"}
var directionChars = [4]byte{'N', 'E', 'S', 'W'}

// String returns the long form ("north"), used in JSON and API payloads.
func (d Direction) String() string {
	if d > West {
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
	return directionNames[d]
}

// Char returns the compact single-letter form used in plan text ("NESW").
func (d Direction) Char() byte {
	return directionChars[d&3]
}

// Rotated turns the direction k quarter-turns clockwise.
func (d Direction) Rotated(k int) Direction {
	return Direction((int(d) + k%4 + 4) % 4)
}

/// Mirrored reflects across the vertical axis: East and West swap, North and
// South are fixed.
func (d Direction) Mirrored() Direction {
	switch d {
	case East:
		return West
	case West:
		return East
	default:
		return d
	}
}

// Delta returns the grid offset for one move in this direction. Y grows
// downward, matching the row-major layouts used by level files.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case North:
		return 0, -1
	case East:
		return 1, 0
	case South:
		return 0, 1
	default:
		return -1, 0
	}
}

// ParseDirection accepts both the long form ("north") and the single letter
// ("N"), case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n", "up":
		return North, nil
	case "east", "e", "right":
		return East, nil
	case "south", "s", "down":
		return South, nil
	case "west", "w", "left":
		return West, nil
	}
	return North, fmt.Errorf("%w: unknown direction %q", ErrInvalidArgument, s)
}

// Plan is a fixed-length sequence of directions executed as an infinitely
// repeating cycle. A Plan is value data: the transform methods below return
// fresh copies and never mutate the receiver.
type Plan []Direction

// ParsePlan parses compact plan text such as "NNEW". Whitespace and commas
// between letters are ignored so "N,N,E,W" works too.
func ParsePlan(s string) (Plan, error) {
	var p Plan
	for _, r := range s {
		switch r {
		case ' ', '\t', ',':
			continue
		}
		d, err := ParseDirection(string(r))
		if err != nil {
			return nil, err
		}
		p = append(p, d)
	}
	if len(p) == 0 {
		return nil, fmt.Errorf("%w: empty plan", ErrInvalidArgument)
	}
	return p, nil
}

// String renders the compact form, e.g. "NNEW".
func (p Plan) String() string {
	b := make([]byte, len(p))
	for i, d := range p {
		b[i] = d.Char()
	}
	return string(b)
}

// Strings renders the long form used by the REST API ("north", "east", ...).
func (p Plan) Strings() []string {
	out := make([]string, len(p))
	for i, d := range p {
		out[i] = d.String()
	}
	return out
}

// Clone returns an independent copy.
func (p Plan) Clone() Plan {
	out := make(Plan, len(p))
	copy(out, p)
	return out
}

// Rotated rotates every element k quarter-turns clockwise.
func (p Plan) Rotated(k int) Plan {
	out := make(Plan, len(p))
	for i, d := range p {
		out[i] = d.Rotated(k)
	}
	return out
}

// Mirrored reflects every element across the vertical axis.
func (p Plan) Mirrored() Plan {
	out := make(Plan, len(p))
	for i, d := range p {
		out[i] = d.Mirrored()
	}
	return out
}

// Shifted cyclically advances the start position by s elements.
func (p Plan) Shifted(s int) Plan {
	n := len(p)
	if n == 0 {
		return Plan{}
	}
	s = ((s % n) + n) % n
	out := make(Plan, 0, n)
	out = append(out, p[s:]...)
	out = append(out, p[:s]...)
	return out
}

// Reduced collapses the plan to its primitive period: the shortest prefix
// whose repetition reconstructs the plan. [N,N] reduces to [N]; a plan that
// is already primitive is returned unchanged (as a copy).
func (p Plan) Reduced() Plan {
	n := len(p)
	for d := 1; d < n; d++ {
		if n%d != 0 {
			continue
		}
		if p.isRepetitionOf(d) {
			return p[:d].Clone().Reduced()
		}
	}
	return p.Clone()
}

// isRepetitionOf reports whether the plan equals its length-d prefix repeated.
func (p Plan) isRepetitionOf(d int) bool {
	for i := d; i < len(p); i++ {
		if p[i] != p[i-d] {
			return false
		}
	}
	return true
}

// Less orders plans first by length, then lexicographically over the
// North < East < South < West alphabet. This is the total order that makes
// canonical representatives unique.
func (p Plan) Less(q Plan) bool {
	if len(p) != len(q) {
		return len(p) < len(q)
	}
	for i := range p {
		if p[i] != q[i] {
			return p[i] < q[i]
		}
	}
	return false
}

// Equal reports element-wise equality.
func (p Plan) Equal(q Plan) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}
