package crdt

import "testing"

// between asserts the generator invariant: strictly greater than lower (if
// any) and strictly less than upper (if any).
func between(t *testing.T, lower, got, upper Position) {
	t.Helper()
	if lower != nil && Compare(lower, got) >= 0 {
		t.Errorf("got %v, not above lower bound %v", got, lower)
	}
	if upper != nil && Compare(got, upper) >= 0 {
		t.Errorf("got %v, not below upper bound %v", got, upper)
	}
}

func TestBetween(t *testing.T) {
	g := SiteGenerator{Site: 1}

	tests := []struct {
		description string
		lower       Position
		upper       Position
	}{
		{description: "empty document", lower: nil, upper: nil},
		{description: "append after last", lower: Position{{Ident: 0x8000, Site: 1}}, upper: nil},
		{description: "prepend before first", lower: nil, upper: Position{{Ident: 1, Site: 1}}},
		{description: "wide gap", lower: Position{{Ident: 10, Site: 1}}, upper: Position{{Ident: 100, Site: 1}}},
		{description: "adjacent idents", lower: Position{{Ident: 10, Site: 1}}, upper: Position{{Ident: 11, Site: 1}}},
		{description: "same ident different sites", lower: Position{{Ident: 10, Site: 1}}, upper: Position{{Ident: 10, Site: 2}}},
		{description: "bound under shared prefix",
			lower: Position{{Ident: 5, Site: 1}},
			upper: Position{{Ident: 5, Site: 1}, {Ident: 1, Site: 0}}},
		{description: "deep adjacent",
			lower: Position{{Ident: 5, Site: 1}, {Ident: 7, Site: 2}},
			upper: Position{{Ident: 5, Site: 1}, {Ident: 8, Site: 2}}},
	}

	for _, tc := range tests {
		got := g.Between(tc.lower, tc.upper)
		between(t, tc.lower, got, tc.upper)
	}
}

// TestBetweenRun mirrors how a multi-unit insert allocates: each position
// uses the previous one as the new lower bound against a fixed upper bound.
func TestBetweenRun(t *testing.T) {
	g := SiteGenerator{Site: 3}
	upper := Position{{Ident: 2, Site: 0}}

	var prev Position
	for i := 0; i < 100; i++ {
		next := g.Between(prev, upper)
		between(t, prev, next, upper)
		prev = next
	}
}

// TestBetweenDense squeezes positions into an ever-shrinking interval.
func TestBetweenDense(t *testing.T) {
	g := SiteGenerator{Site: 1}

	lower := g.Between(nil, nil)
	upper := g.Between(lower, nil)

	for i := 0; i < 100; i++ {
		mid := g.Between(lower, upper)
		between(t, lower, mid, upper)
		if i%2 == 0 {
			upper = mid
		} else {
			lower = mid
		}
	}
}

// TestBetweenSites checks that two replicas generating into the same gap
// produce distinct, ordered positions.
func TestBetweenSites(t *testing.T) {
	a := SiteGenerator{Site: 1}
	b := SiteGenerator{Site: 2}

	lower := Position{{Ident: 10, Site: 0}}
	upper := Position{{Ident: 11, Site: 0}}

	pa := a.Between(lower, upper)
	pb := b.Between(lower, upper)

	if Equal(pa, pb) {
		t.Fatalf("sites 1 and 2 generated the same position %v", pa)
	}
	between(t, lower, pa, upper)
	between(t, lower, pb, upper)
}
