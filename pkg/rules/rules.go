// Package rules models the transition rule set applied during
// propagation: a per-label entry that is either a single undirected
// distribution or four direction-specific distributions.
package rules

import (
	"fmt"

	"github.com/dshills/wfctile/pkg/distribution"
	"github.com/dshills/wfctile/pkg/position"
)

// Direction is a cardinal compass direction used by directed rule
// entries.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// DirectionFromOffset maps an offset vector Δ=(dx,dy) to a cardinal
// direction per §4.F: (0,+)→N, (+,0)→E, (0,-)→S, (-,0)→W. Diagonal
// offsets (both dx and dy nonzero) have no single cardinal direction;
// the second return value is false in that case, and callers must treat
// it as "no constraint" per the Open Question 2 resolution, not guess a
// dominant axis.
func DirectionFromOffset(delta position.Position) (Direction, bool) {
	switch {
	case delta.X == 0 && delta.Y > 0:
		return North, true
	case delta.X > 0 && delta.Y == 0:
		return East, true
	case delta.X == 0 && delta.Y < 0:
		return South, true
	case delta.X < 0 && delta.Y == 0:
		return West, true
	default:
		return 0, false
	}
}

// Entry is one label's transition rule: either Undirected (a single
// distribution applied regardless of neighbor direction) or Directed
// (distinct distributions per cardinal direction). Preserved as an
// explicit tagged union rather than a "maybe-directed" struct with
// nullable fields, per the redesign note in the specification.
type Entry interface {
	isEntry()
	// Transition returns the applicable distribution for a neighbor at
	// offset delta from the tile carrying this rule. The second return
	// value is false when a Directed entry cannot resolve delta to a
	// cardinal direction (diagonal offset): callers must leave the
	// neighbor's distribution unconstrained in that case.
	Transition(delta position.Position) (distribution.Distribution, bool)
}

// Undirected applies the same distribution to every neighbor regardless
// of direction.
type Undirected struct {
	Distribution distribution.Distribution
}

func (Undirected) isEntry() {}

func (u Undirected) Transition(position.Position) (distribution.Distribution, bool) {
	return u.Distribution, true
}

// Directed applies a distinct distribution per cardinal direction.
// Diagonal offsets cannot be resolved to one of the four directions.
type Directed struct {
	North, East, South, West distribution.Distribution
}

func (Directed) isEntry() {}

func (d Directed) Transition(delta position.Position) (distribution.Distribution, bool) {
	dir, ok := DirectionFromOffset(delta)
	if !ok {
		return distribution.Distribution{}, false
	}
	switch dir {
	case North:
		return d.North, true
	case East:
		return d.East, true
	case South:
		return d.South, true
	case West:
		return d.West, true
	default:
		return distribution.Distribution{}, false
	}
}

// RuleSet maps a label to its transition entry.
type RuleSet map[distribution.Label]Entry

// Lookup returns the entry for label, if any.
func (rs RuleSet) Lookup(label distribution.Label) (Entry, bool) {
	e, ok := rs[label]
	return e, ok
}

// Validate checks that every entry is an Undirected or Directed value and
// reports any other entry type. The distributions inside the entries are
// not inspected. This is a shallow sanity check, not a constraint solver.
func (rs RuleSet) Validate() error {
	for label, entry := range rs {
		switch e := entry.(type) {
		case Undirected, Directed:
			_ = e
		default:
			return fmt.Errorf("rules: label %v has an unrecognized entry type %T", label, entry)
		}
	}
	return nil
}
