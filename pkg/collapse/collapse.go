// Package collapse implements the core constraint-propagation assignment
// loop: seed, pop lowest-entropy tile, sample a label, finalize, propagate
// the resulting constraint to neighbors, and re-enqueue affected
// neighbors, until every tile is finalized.
package collapse

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/dshills/wfctile/pkg/distribution"
	"github.com/dshills/wfctile/pkg/position"
	"github.com/dshills/wfctile/pkg/queue"
	"github.com/dshills/wfctile/pkg/rules"
	"github.com/dshills/wfctile/pkg/tilemap"
)

// ErrNoUndecidedTiles is returned by Assign when the grid still has
// undecided tiles but none of them could be seeded. A grid with no
// undecided tiles at all is returned unchanged with a nil error.
var ErrNoUndecidedTiles = errors.New("collapse: grid has no undecided tiles")

// Options configures a single Assign run.
type Options struct {
	// Adjacency selects the neighbor-generation strategy. Octile is the
	// default/fallback per §4.H if left as the zero value (nil).
	Adjacency position.Adjacency
	// Width bounds the coordinate space the adjacency generator checks
	// for underflow/overflow.
	Width position.Width
	// RNG is the source used for sampling. If nil, a new RNG seeded from
	// the Go runtime's default source is created.
	RNG *rand.Rand
}

func (o Options) adjacency() position.Adjacency {
	if o.Adjacency == nil {
		return position.Octile{}
	}
	return o.Adjacency
}

func (o Options) rng() *rand.Rand {
	if o.RNG == nil {
		return rand.New(rand.NewSource(rand.Int63()))
	}
	return o.RNG
}

// Report summarizes the outcome of an Assign run, in particular which
// positions were left stranded by the soft-leak condition documented in
// the specification's Open Question 1 resolution (a sampled label with no
// rule entry finalizes the tile but never propagates; see the !hasRule
// branch in Assign).
type Report struct {
	// Leaked lists positions whose tile was finalized without
	// propagating to neighbors because the sampled label had no rule
	// entry. This is the spec's §9.1 "soft leak", resolved here as
	// "finalize anyway, skip propagation" (decision (a)).
	Leaked []position.Position
	// Infeasible lists positions whose distribution became infeasible
	// (empty joint product) during propagation and were finalized with a
	// fallback label drawn from their pre-update distribution, per the
	// §7 "Empty joint distribution" policy. It also lists tiles whose
	// distribution was already dead when popped; those are not finalized
	// and stay undecided.
	Infeasible []position.Position
}

// Assign drives every tile in grid to Finalized, mutating grid in place
// and returning it alongside a Report of any soft-leak/infeasible
// conditions encountered. Assign is single-threaded: the grid and queue
// are exclusively owned for the duration of the call.
func Assign(grid *tilemap.Grid, rs rules.RuleSet, opts Options) (*tilemap.Grid, Report, error) {
	adjacency := opts.adjacency()
	rng := opts.rng()
	var report Report

	q := queue.New()

	// Seed one tile per connected component (§9 Open Question 3
	// resolution), so disconnected subregions are not stranded entirely
	// undecided.
	seeded := make(map[position.Position]bool)
	for {
		seedIdx, ok := nextUnseededUndecided(grid, seeded)
		if !ok {
			break
		}
		seedPos := grid.Tile(seedIdx).Position
		markComponentSeeded(grid, adjacency, opts.Width, seedPos, seeded)
		q.Push(queue.Item{
			Index:    seedIdx,
			Position: seedPos,
			Entropy:  grid.Tile(seedIdx).Entropy(),
		})
	}

	if q.Len() == 0 {
		if grid.UndecidedLen() == 0 {
			return grid, report, nil
		}
		return grid, report, ErrNoUndecidedTiles
	}

	for q.Len() > 0 {
		item := q.Pop()
		tile := grid.Tile(item.Index)

		if tile.State() == tilemap.Finalized {
			continue
		}

		dist := tile.Distribution()
		if !dist.IsLive() {
			// Infeasible distribution reached the front of the queue:
			// this tile cannot be assigned. Per §7's "Empty joint
			// distribution" policy, record it and move on rather than
			// crash on Sample.
			report.Infeasible = append(report.Infeasible, tile.Position)
			continue
		}

		label := dist.Sample(rng)

		entry, hasRule := rs.Lookup(label)
		if !hasRule {
			// §9 Open Question 1, decision (a): finalize anyway, skip
			// propagation.
			if err := grid.Finalize(item.Index, label); err != nil {
				return grid, report, fmt.Errorf("collapse: finalizing leaked tile: %w", err)
			}
			report.Leaked = append(report.Leaked, tile.Position)
			continue
		}

		if err := grid.Finalize(item.Index, label); err != nil {
			return grid, report, fmt.Errorf("collapse: finalizing tile: %w", err)
		}

		neighbors := grid.NeighborsOf(item.Index, adjacency, opts.Width)
		for _, n := range neighbors {
			neighborTile := grid.Tile(n.Index)
			if neighborTile.State() == tilemap.Finalized {
				continue
			}

			tr, constrained := entry.Transition(n.Offset)
			if !constrained {
				// §9 Open Question 2, "no constraint" resolution: leave
				// the neighbor's distribution unchanged and still
				// consider it for enqueueing, since its entropy has not
				// in fact changed (re-enqueueing is harmless — the
				// enqueued set dedupes — but avoids silently starving a
				// tile that was never otherwise reached).
				if !q.Enqueued(neighborTile.Position) {
					q.Push(queue.Item{
						Index:    n.Index,
						Position: neighborTile.Position,
						Entropy:  neighborTile.Entropy(),
					})
				}
				continue
			}

			joint := tr.Joint(neighborTile.Distribution())
			if !joint.IsLive() {
				// §7 "Empty joint distribution" policy: treat as
				// infeasible. Fall back to a default label drawn from
				// the neighbor's pre-update distribution rather than
				// storing the empty distribution and crashing on the
				// next Sample.
				fallback := neighborTile.Distribution().Sample(rng)
				if err := grid.Finalize(n.Index, fallback); err != nil {
					return grid, report, fmt.Errorf("collapse: finalizing infeasible neighbor: %w", err)
				}
				report.Infeasible = append(report.Infeasible, neighborTile.Position)
				continue
			}

			grid.SetDistribution(n.Index, joint)

			if !q.Enqueued(neighborTile.Position) {
				q.Push(queue.Item{
					Index:    n.Index,
					Position: neighborTile.Position,
					Entropy:  grid.Tile(n.Index).Entropy(),
				})
			}
		}
	}

	return grid, report, nil
}

// nextUnseededUndecided returns the arena index of an undecided tile
// whose position has not yet been marked seeded, or (-1, false) if none
// remain. Candidates are considered in position order (§4.A's tie-break:
// X then Y) rather than Go's non-deterministic map iteration order, so
// seed selection is reproducible across runs given the same grid.
func nextUnseededUndecided(grid *tilemap.Grid, seeded map[position.Position]bool) (int, bool) {
	candidates := grid.UndecidedPositions()
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Less(candidates[j]) })
	for _, p := range candidates {
		if !seeded[p] {
			idx, _ := grid.Index(p)
			return idx, true
		}
	}
	return -1, false
}

// markComponentSeeded performs a depth-first walk over undecided tiles
// reachable from start under adjacency, marking every visited position as
// seeded. This is what lets Assign seed one tile per connected component
// (§9 Open Question 3) instead of only the very first undecided tile
// found, which would strand disconnected subregions entirely undecided.
func markComponentSeeded(grid *tilemap.Grid, adjacency position.Adjacency, width position.Width, start position.Position, seeded map[position.Position]bool) {
	if seeded[start] {
		return
	}
	stack := []position.Position{start}
	seeded[start] = true

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		idx, ok := grid.Index(p)
		if !ok {
			continue
		}
		for _, n := range grid.NeighborsOf(idx, adjacency, width) {
			nTile := grid.Tile(n.Index)
			if nTile.State() != tilemap.Undecided {
				continue
			}
			if seeded[nTile.Position] {
				continue
			}
			seeded[nTile.Position] = true
			stack = append(stack, nTile.Position)
		}
	}
}

// LabelCount returns the number of distinct labels appearing anywhere in
// rs, a small convenience used by callers constructing default uniform
// distributions from a rule set's domain.
func LabelCount(rs rules.RuleSet) int {
	seen := make(map[distribution.Label]bool, len(rs))
	mark := func(d distribution.Distribution) {
		for _, l := range d.Labels() {
			seen[l] = true
		}
	}
	for l, entry := range rs {
		seen[l] = true
		switch e := entry.(type) {
		case rules.Undirected:
			mark(e.Distribution)
		case rules.Directed:
			mark(e.North)
			mark(e.East)
			mark(e.South)
			mark(e.West)
		}
	}
	return len(seen)
}
