package plan

import (
	"testing"
)

func TestEnumerateRejectsBadLength(t *testing.T) {
	c := NewCanonicalizer()
	for _, length := range []int{0, -1, MaxEnumerateLength + 1} {
		if _, err := c.Enumerate(length); err == nil {
			t.Errorf("Enumerate(%d) should fail", length)
		}
	}
}

func TestEnumerateKnownCounts(t *testing.T) {
	c := NewCanonicalizer()
	tests := []struct {
		length int
		want   int
	}{
		{1, 1},
		{2, 2},
		{3, 3},
		{4, 11},
		{5, 27},
		{6, 92},
	}
	for _, tt := range tests {
		got, err := c.Enumerate(tt.length)
		if err != nil {
			t.Fatalf("Enumerate(%d) failed: %v", tt.length, err)
		}
		if len(got) != tt.want {
			t.Errorf("Enumerate(%d) returned %d plans, want %d", tt.length, len(got), tt.want)
		}
	}
}

func TestEnumerateSmallRepresentatives(t *testing.T) {
	c := NewCanonicalizer()

	got, err := c.Enumerate(2)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"NE", "NS"}
	for i, p := range got {
		if p.String() != want[i] {
			t.Errorf("Enumerate(2)[%d] = %s, want %s", i, p, want[i])
		}
	}

	got4, err := c.Enumerate(4)
	if err != nil {
		t.Fatal(err)
	}
	want4 := []string{
		"NNNE", "NNNS", "NNEE", "NNES", "NNEW",
		"NNSE", "NNSS", "NENS", "NENW", "NESW", "NEWS",
	}
	if len(got4) != len(want4) {
		t.Fatalf("Enumerate(4) returned %d plans, want %d", len(got4), len(want4))
	}
	members := make(map[string]bool, len(got4))
	for _, p := range got4 {
		members[p.String()] = true
	}
	for _, w := range want4 {
		if !members[w] {
			t.Errorf("Enumerate(4) missing representative %s (got %v)", w, got4)
		}
	}
}

// Every enumerated plan must be its own canonical representative, and
// enumeration must never yield two plans from the same orbit.
func TestEnumerateYieldsCanonicalRepresentatives(t *testing.T) {
	c := NewCanonicalizer()
	got, err := c.Enumerate(5)
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[string]bool)
	for _, p := range got {
		ok, err := c.IsCanonical(p)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Errorf("enumerated plan %s is not canonical", p)
		}
		if seen[p.String()] {
			t.Errorf("duplicate representative %s", p)
		}
		seen[p.String()] = true
	}
}

func BenchmarkEnumerate8(b *testing.B) {
	c := NewCanonicalizer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Enumerate(8); err != nil {
			b.Fatal(err)
		}
	}
}
