package tilemap

import (
	"testing"

	"github.com/dshills/wfctile/pkg/distribution"
	"github.com/dshills/wfctile/pkg/position"
)

func uniform(labels ...distribution.Label) distribution.Distribution {
	return distribution.ConstructUniform(labels)
}

func TestFromTiles_Empty(t *testing.T) {
	g, err := FromTiles(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	min, max := g.Extents()
	if min != (position.Position{}) || max != (position.Position{}) {
		t.Fatalf("expected zero extents on empty grid, got min=%v max=%v", min, max)
	}
	if g.Len() != 0 || g.UndecidedLen() != 0 {
		t.Fatalf("expected empty grid to have no tiles")
	}
}

func TestFromTiles_Extents(t *testing.T) {
	tiles := []Tile{
		NewUndecided(position.New(2, 3), uniform(1)),
		NewUndecided(position.New(-1, 5), uniform(1)),
		NewUndecided(position.New(4, -2), uniform(1)),
	}
	g, err := FromTiles(tiles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	min, max := g.Extents()
	if min != position.New(-1, -2) {
		t.Errorf("expected min (-1,-2), got %v", min)
	}
	if max != position.New(4, 5) {
		t.Errorf("expected max (4,5), got %v", max)
	}
}

func TestFinalize_Idempotent(t *testing.T) {
	g, _ := FromTiles([]Tile{NewUndecided(position.New(0, 0), uniform(7))})
	if err := g.Finalize(0, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.Finalize(0, 7); err != nil {
		t.Fatalf("re-finalizing with the same label should be a no-op: %v", err)
	}
	if err := g.Finalize(0, 8); err == nil {
		t.Fatal("expected error re-finalizing with a different label")
	}
	if g.UndecidedLen() != 0 {
		t.Fatalf("expected undecided index to be empty after finalize")
	}
}

func TestEntropy_FinalizedIsInfinite(t *testing.T) {
	tile := NewFinalized(position.New(0, 0), 1)
	if !isPosInf(tile.Entropy()) {
		t.Fatalf("expected +Inf entropy for finalized tile, got %v", tile.Entropy())
	}
}

func isPosInf(f float64) bool {
	return f > 1e300
}

func buildGrid(t *testing.T, size int) *Grid {
	t.Helper()
	tiles := make([]Tile, 0, size*size)
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			tiles = append(tiles, NewUndecided(position.New(int64(x), int64(y)), uniform(1, 2, 3)))
		}
	}
	g, err := FromTiles(tiles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return g
}

// TestOctileNeighborCounts is invariant 8: interior=8, corner=3, edge=5.
func TestOctileNeighborCounts(t *testing.T) {
	g := buildGrid(t, 10)
	width := position.Width8

	interiorIdx, _ := g.Index(position.New(5, 5))
	if n := len(g.NeighborsOf(interiorIdx, position.Octile{}, width)); n != 8 {
		t.Errorf("expected 8 interior neighbors, got %d", n)
	}

	cornerIdx, _ := g.Index(position.New(0, 0))
	if n := len(g.NeighborsOf(cornerIdx, position.Octile{}, width)); n != 3 {
		t.Errorf("expected 3 corner neighbors, got %d", n)
	}

	edgeIdx, _ := g.Index(position.New(0, 5))
	if n := len(g.NeighborsOf(edgeIdx, position.Octile{}, width)); n != 5 {
		t.Errorf("expected 5 edge neighbors, got %d", n)
	}
}
