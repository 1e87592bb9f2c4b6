// Package queue implements the min-entropy priority queue that drives the
// collapse engine's pop-lowest-entropy-tile step, plus the enqueued-set
// used to suppress duplicate pushes.
package queue

import (
	"container/heap"
	"math"

	"github.com/dshills/wfctile/pkg/position"
)

// Item is anything the queue can order: an entropy value and a position
// for tie-breaking.
type Item struct {
	Index    int // arena index into the grid's tile slice
	Position position.Position
	Entropy  float64
}

// less implements the total order from §4.A: smaller entropy first, ties
// broken by position (X then Y). Entropy comparison uses a bit-pattern
// total-ordering helper so NaN never corrupts heap invariants and +Inf
// (finalized tiles) always sorts last, per the floating-point redesign
// note in §9.
func less(a, b Item) bool {
	if a.Entropy != b.Entropy {
		return totalOrderKey(a.Entropy) < totalOrderKey(b.Entropy)
	}
	return a.Position.Less(b.Position)
}

// totalOrderKey maps a float64 onto a uint64 such that the induced
// ordering matches IEEE-754 total order for all non-NaN values, with +Inf
// sorting last. Inputs are assumed finite or +Inf; -Inf and NaN never
// occur in this package's usage (entropy is either a real number or the
// finalized sentinel +Inf).
func totalOrderKey(f float64) uint64 {
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		return ^bits
	}
	return bits ^ (1 << 63)
}

// innerHeap is the container/heap.Interface implementation backing Queue.
type innerHeap []Item

func (h innerHeap) Len() int            { return len(h) }
func (h innerHeap) Less(i, j int) bool  { return less(h[i], h[j]) }
func (h innerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *innerHeap) Push(x interface{}) { *h = append(*h, x.(Item)) }
func (h *innerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Queue is a min-entropy priority queue with an auxiliary enqueued set
// keyed by position, so a position already pending is never pushed twice.
type Queue struct {
	h        innerHeap
	enqueued map[position.Position]bool
}

// New creates an empty queue.
func New() *Queue {
	q := &Queue{
		h:        make(innerHeap, 0),
		enqueued: make(map[position.Position]bool),
	}
	heap.Init(&q.h)
	return q
}

// Push enqueues item unless its position is already pending. Returns
// whether the item was actually pushed.
func (q *Queue) Push(item Item) bool {
	if q.enqueued[item.Position] {
		return false
	}
	heap.Push(&q.h, item)
	q.enqueued[item.Position] = true
	return true
}

// Pop removes and returns the lowest-entropy item, clearing its position
// from the enqueued set. Pop panics if the queue is empty; callers must
// check Len() first.
func (q *Queue) Pop() Item {
	item := heap.Pop(&q.h).(Item)
	delete(q.enqueued, item.Position)
	return item
}

// Peek returns the lowest-entropy item without removing it. The second
// return value is false if the queue is empty.
func (q *Queue) Peek() (Item, bool) {
	if len(q.h) == 0 {
		return Item{}, false
	}
	return q.h[0], true
}

// Len returns the number of pending items.
func (q *Queue) Len() int {
	return len(q.h)
}

// Enqueued reports whether pos is currently pending in the queue.
func (q *Queue) Enqueued(pos position.Position) bool {
	return q.enqueued[pos]
}
