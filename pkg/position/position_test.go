package position

import (
	"sort"
	"testing"

	"pgregory.net/rapid"
)

func TestCardinalAtOrigin8Bit(t *testing.T) {
	got := Cardinal{}.Adjacents(New(0, 0), Width8)
	want := []Position{{X: 1, Y: 0}, {X: 0, Y: 1}}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestCardinalAtMax(t *testing.T) {
	_, max := Width8.bounds()
	got := Cardinal{}.Adjacents(New(max, max), Width8)
	for _, p := range got {
		if p.X > max || p.Y > max {
			t.Errorf("adjacency %v exceeds max %d", p, max)
		}
	}
	// only the -1 neighbors on each axis should survive
	if len(got) != 2 {
		t.Fatalf("expected 2 neighbors at max corner, got %d: %v", len(got), got)
	}
}

func TestOctileBounded(t *testing.T) {
	got := Octile{}.Adjacents(New(0, 0), Width8)
	if len(got) != 3 {
		t.Fatalf("expected 3 in-range neighbors at origin, got %d: %v", len(got), got)
	}
}

func TestOctileInteriorHas8(t *testing.T) {
	got := Octile{}.Adjacents(New(10, 10), Width32)
	if len(got) != 8 {
		t.Fatalf("expected 8 neighbors in the interior, got %d", len(got))
	}
}

func TestOctileOrder(t *testing.T) {
	got := Octile{}.Adjacents(New(5, 5), Width32)
	want := []Position{
		{4, 4}, {4, 5}, {4, 6},
		{5, 4}, {5, 6},
		{6, 4}, {6, 5}, {6, 6},
	}
	if len(got) != len(want) {
		t.Fatalf("length mismatch: %v vs %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch at %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

// TestAdjacency_NeverExceedsBounds is a property test of invariants 9/10:
// no generator ever returns a coordinate outside the configured width.
func TestAdjacency_NeverExceedsBounds(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		w := Width(rapid.IntRange(0, 2).Draw(rt, "width"))
		min, max := w.bounds()
		x := rapid.Int64Range(min, max).Draw(rt, "x")
		y := rapid.Int64Range(min, max).Draw(rt, "y")
		p := New(x, y)

		for _, gen := range []Adjacency{Cardinal{}, Octile{}} {
			for _, n := range gen.Adjacents(p, w) {
				if n.X < min || n.X > max || n.Y < min || n.Y > max {
					rt.Fatalf("adjacency produced out-of-range position %v for width %v", n, w)
				}
			}
		}
	})
}

func TestPositionLess_TotalOrder(t *testing.T) {
	ps := []Position{{2, 0}, {1, 5}, {1, 1}, {0, 100}}
	sort.Slice(ps, func(i, j int) bool { return ps[i].Less(ps[j]) })
	want := []Position{{0, 100}, {1, 1}, {1, 5}, {2, 0}}
	for i := range want {
		if ps[i] != want[i] {
			t.Fatalf("sort order mismatch: got %v want %v", ps, want)
		}
	}
}
