package plan

import "fmt"

// Options controls which symmetries the Canonicalizer merges.
//
// PhaseShift folds cyclic start-position shifts into the orbit. The source
// material justifies phase equivalence via wall-induced skipping, which not
// every board exhibits, so it is a flag rather than a hard-coded default.
// ReduceCycles collapses repeated cycles to their primitive period before
// orbit generation.
type Options struct {
	PhaseShift   bool
	ReduceCycles bool
}

// DefaultOptions enables every symmetry: rotation, reflection, phase shift,
// and cycle reduction.
func DefaultOptions() Options {
	return Options{PhaseShift: true, ReduceCycles: true}
}

// Canonicalizer maps plans to the unique minimal representative of their
// symmetry orbit. It is stateless beyond its options and safe for concurrent
// use.
type Canonicalizer struct {
	opts Options
}

// NewCanonicalizer builds a canonicalizer with all symmetries enabled.
func NewCanonicalizer() *Canonicalizer {
	return &Canonicalizer{opts: DefaultOptions()}
}

// NewCanonicalizerWithOptions builds a canonicalizer with explicit options.
func NewCanonicalizerWithOptions(opts Options) *Canonicalizer {
	return &Canonicalizer{opts: opts}
}

// Options returns the active options.
func (c *Canonicalizer) Options() Options {
	return c.opts
}

// Canonicalize returns the canonical representative of p's orbit: the minimal
// plan under the (length, lexicographic) order across all rotations,
// reflections, and (if enabled) cyclic shifts of the (if enabled) reduced
// plan. It is deterministic and idempotent, and every plan in the same orbit
// maps to the same output.
func (c *Canonicalizer) Canonicalize(p Plan) (Plan, error) {
	if len(p) == 0 {
		return nil, fmt.Errorf("%w: empty plan", ErrInvalidArgument)
	}

	base := p.Clone()
	if c.opts.ReduceCycles {
		base = base.Reduced()
	}

	shifts := 1
	if c.opts.PhaseShift {
		shifts = len(base)
	}

	var best Plan
	for rot := 0; rot < 4; rot++ {
		rotated := base.Rotated(rot)
		for _, mirrored := range []Plan{rotated, rotated.Mirrored()} {
			for s := 0; s < shifts; s++ {
				candidate := mirrored.Shifted(s)
				if best == nil || candidate.Less(best) {
					best = candidate
				}
			}
		}
	}
	return best, nil
}

// IsCanonical reports whether p is its own canonical representative.
func (c *Canonicalizer) IsCanonical(p Plan) (bool, error) {
	canon, err := c.Canonicalize(p)
	if err != nil {
		return false, err
	}
	return canon.Equal(p), nil
}
