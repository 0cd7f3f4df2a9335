package plan

import (
	"fmt"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Enumerate returns every plan of exactly the given length that is its own
// canonical representative, one per orbit, sorted by the canonical order.
//
// All 4^length candidate plans are canonicalized. Each candidate is
// independent, so the index space is sharded across workers and the distinct
// representatives merged afterwards. Plans whose canonical form is shorter
// than length (reducible cycles, when reduction is enabled) are excluded.
func (c *Canonicalizer) Enumerate(length int) ([]Plan, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: length must be positive, got %d", ErrInvalidArgument, length)
	}
	if length > MaxEnumerateLength {
		return nil, fmt.Errorf("%w: length %d exceeds enumeration bound %d", ErrInvalidArgument, length, MaxEnumerateLength)
	}

	total := 1
	for i := 0; i < length; i++ {
		total *= 4
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > total {
		workers = total
	}
	chunk := (total + workers - 1) / workers

	var mu sync.Mutex
	seen := make(map[string]Plan)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > total {
			end = total
		}
		if start >= end {
			continue
		}
		g.Go(func() error {
			local := make(map[string]Plan)
			for idx := start; idx < end; idx++ {
				candidate := planFromIndex(idx, length)
				canon, err := c.Canonicalize(candidate)
				if err != nil {
					return err
				}
				if len(canon) != length {
					continue
				}
				key := canon.String()
				if _, ok := local[key]; !ok {
					local[key] = canon
				}
			}
			mu.Lock()
			for key, p := range local {
				if _, ok := seen[key]; !ok {
					seen[key] = p
				}
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Plan, 0, len(seen))
	for _, p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out, nil
}

// planFromIndex decodes idx as a base-4 numeral into a plan of the given
// length, most significant element first.
func planFromIndex(idx, length int) Plan {
	p := make(Plan, length)
	for i := length - 1; i >= 0; i-- {
		p[i] = Direction(idx & 3)
		idx >>= 2
	}
	return p
}
