// Package tilemap implements the per-tile state machine and the grid
// arena that owns every tile. Per the redesign note in the specification
// this package models tile handles as arena indices (int offsets into a
// single []Tile slice) rather than shared references, eliminating any
// need for reference-counted or lock-wrapped tile cells.
package tilemap

import (
	"fmt"
	"math"

	"github.com/dshills/wfctile/pkg/distribution"
	"github.com/dshills/wfctile/pkg/position"
)

// State tags whether a tile is still undecided or has been finalized.
type State int

const (
	Undecided State = iota
	Finalized
)

// Tile holds a single cell's position and lifecycle state. A Tile is
// created Undecided and transitions to Finalized exactly once; its
// distribution may be rewritten any number of times before that
// transition (constraint tightening via Joint).
type Tile struct {
	Position position.Position
	state    State
	dist     distribution.Distribution
	label    distribution.Label
}

// NewUndecided creates a tile in the Undecided state with the given
// initial distribution.
func NewUndecided(pos position.Position, dist distribution.Distribution) Tile {
	return Tile{Position: pos, state: Undecided, dist: dist}
}

// NewFinalized creates a tile already in the Finalized state.
func NewFinalized(pos position.Position, label distribution.Label) Tile {
	return Tile{Position: pos, state: Finalized, label: label}
}

// State reports whether the tile is Undecided or Finalized.
func (t Tile) State() State {
	return t.state
}

// Distribution returns the tile's current distribution. Valid only while
// the tile is Undecided; callers must check State() first.
func (t Tile) Distribution() distribution.Distribution {
	return t.dist
}

// Label returns the tile's finalized label. Valid only once State() ==
// Finalized.
func (t Tile) Label() distribution.Label {
	return t.label
}

// Entropy returns the tile's priority-queue ordering key: the negation of
// the distribution's (unnegated) entropy while Undecided, or +Inf once
// Finalized, so a finalized tile always sorts after every undecided
// tile in a min-heap and, among undecided tiles, the most certain
// (smallest conventional entropy) tile sorts first. A singleton
// distribution has key 0; spreading weight over more labels increases
// the key (lower certainty, popped later).
func (t Tile) Entropy() float64 {
	if t.state == Finalized {
		return math.Inf(1)
	}
	return -t.dist.Entropy()
}

// setDistribution rewrites an undecided tile's distribution (constraint
// tightening).
func (t *Tile) setDistribution(d distribution.Distribution) {
	t.dist = d
}

// finalize transitions the tile to Finalized(label). Idempotent when the
// tile is already finalized at the same label.
func (t *Tile) finalize(label distribution.Label) error {
	if t.state == Finalized {
		if t.label == label {
			return nil
		}
		return fmt.Errorf("tilemap: tile at %v already finalized to %v, cannot re-finalize to %v", t.Position, t.label, label)
	}
	t.state = Finalized
	t.label = label
	return nil
}

// Grid owns every tile in an arena (a single slice) and maintains two
// index maps over it: positionIndex (total over all tiles, used for
// neighbor lookup) and undecidedIndex (the subset not yet finalized).
// minPos/maxPos are the coordinate-wise extents over all tiles.
type Grid struct {
	tiles          []Tile
	positionIndex  map[position.Position]int
	undecidedIndex map[position.Position]int
	minPos, maxPos position.Position
}

// FromTiles consumes tiles once, builds the position and undecided
// indices, and computes extents (defaulting to (0,0) when tiles is
// empty).
func FromTiles(tiles []Tile) (*Grid, error) {
	g := &Grid{
		tiles:          make([]Tile, 0, len(tiles)),
		positionIndex:  make(map[position.Position]int, len(tiles)),
		undecidedIndex: make(map[position.Position]int, len(tiles)),
	}

	first := true
	for _, t := range tiles {
		if _, exists := g.positionIndex[t.Position]; exists {
			return nil, fmt.Errorf("tilemap: duplicate tile position %v", t.Position)
		}
		idx := len(g.tiles)
		g.tiles = append(g.tiles, t)
		g.positionIndex[t.Position] = idx
		if t.state == Undecided {
			g.undecidedIndex[t.Position] = idx
		}

		if first {
			g.minPos, g.maxPos = t.Position, t.Position
			first = false
		} else {
			if t.Position.X < g.minPos.X {
				g.minPos.X = t.Position.X
			}
			if t.Position.Y < g.minPos.Y {
				g.minPos.Y = t.Position.Y
			}
			if t.Position.X > g.maxPos.X {
				g.maxPos.X = t.Position.X
			}
			if t.Position.Y > g.maxPos.Y {
				g.maxPos.Y = t.Position.Y
			}
		}
	}

	return g, nil
}

// Len returns the total number of tiles in the grid.
func (g *Grid) Len() int {
	return len(g.tiles)
}

// Extents returns the grid's coordinate-wise min and max positions.
func (g *Grid) Extents() (min, max position.Position) {
	return g.minPos, g.maxPos
}

// Index returns the arena index of the tile at pos, or (-1, false) if no
// tile occupies that position.
func (g *Grid) Index(pos position.Position) (int, bool) {
	idx, ok := g.positionIndex[pos]
	if !ok {
		return -1, false
	}
	return idx, true
}

// Tile returns the tile at the given arena index.
func (g *Grid) Tile(idx int) Tile {
	return g.tiles[idx]
}

// Get returns the tile at pos, if any.
func (g *Grid) Get(pos position.Position) (Tile, bool) {
	idx, ok := g.positionIndex[pos]
	if !ok {
		return Tile{}, false
	}
	return g.tiles[idx], true
}

// UndecidedLen returns the number of tiles not yet finalized.
func (g *Grid) UndecidedLen() int {
	return len(g.undecidedIndex)
}

// FirstUndecided returns the arena index of an arbitrary undecided tile,
// used to seed the collapse engine. Map iteration order is not
// deterministic; callers that need a specific tile should use Index
// directly. Returns (-1, false) if every tile is finalized.
func (g *Grid) FirstUndecided() (int, bool) {
	for _, idx := range g.undecidedIndex {
		return idx, true
	}
	return -1, false
}

// UndecidedPositions returns the positions of every undecided tile, in no
// particular order. Used to seed one tile per connected component.
func (g *Grid) UndecidedPositions() []position.Position {
	out := make([]position.Position, 0, len(g.undecidedIndex))
	for p := range g.undecidedIndex {
		out = append(out, p)
	}
	return out
}

// SetDistribution rewrites the distribution of the tile at idx. idx must
// refer to an undecided tile.
func (g *Grid) SetDistribution(idx int, d distribution.Distribution) {
	g.tiles[idx].setDistribution(d)
}

// Finalize transitions the tile at idx to Finalized(label) and removes it
// from the undecided index.
func (g *Grid) Finalize(idx int, label distribution.Label) error {
	if err := g.tiles[idx].finalize(label); err != nil {
		return err
	}
	delete(g.undecidedIndex, g.tiles[idx].Position)
	return nil
}

// Neighbor pairs a neighbor tile's arena index with the offset vector
// from the origin position to that neighbor, needed by directed rules.
type Neighbor struct {
	Index  int
	Offset position.Position // (dx, dy) from the origin tile
}

// NeighborsOf returns the neighbors of the tile at idx per adjacency,
// skipping any candidate position absent from the grid.
func (g *Grid) NeighborsOf(idx int, adjacency position.Adjacency, width position.Width) []Neighbor {
	origin := g.tiles[idx].Position
	candidates := adjacency.Adjacents(origin, width)
	out := make([]Neighbor, 0, len(candidates))
	for _, c := range candidates {
		nIdx, ok := g.positionIndex[c]
		if !ok {
			continue
		}
		out = append(out, Neighbor{
			Index:  nIdx,
			Offset: position.New(c.X-origin.X, c.Y-origin.Y),
		})
	}
	return out
}
