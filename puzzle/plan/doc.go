// Package plan implements cyclic move sequences and their canonicalization
// under the puzzle's symmetry group.
//
// A Plan is a fixed-length sequence of compass Directions executed as an
// infinitely repeating cycle. Two plans are equivalent when one can be
// reached from the other by rotating every move by a fixed amount, mirroring
// across an axis, cyclically shifting the start position, or collapsing a
// repeated cycle to its primitive period. The Canonicalizer maps every plan
// in such an orbit to a single deterministic representative, which is how
// puzzle authoring avoids shipping two levels whose solutions are "the same
// idea pointed a different way".
//
// Usage:
//
//	c := plan.NewCanonicalizer()
//	p, _ := plan.ParsePlan("SWWS")
//	canon, _ := c.Canonicalize(p) // NNEE
//	reps, _ := c.Enumerate(4)     // the 11 canonical plans of length 4
//
// Everything in this package is pure computation: no I/O, no retained state,
// and all operations are safe for concurrent use.
package plan
