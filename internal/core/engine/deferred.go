package engine

import (
	"github.com/aquabend/aquabend/pkg/sequence"
)

type deferredItem struct {
	seq uint64
	fn  func()
}

// deferredQueue sequences cleanup work to the start of a later tick. The
// original design used wall-clock timer callbacks to delay physics-body
// removal after collisions; a tick-keyed queue gives the same settle
// window deterministically, with no real time involved.
//
// Ties on the due tick run in schedule order: the priority key packs the
// due tick above a running sequence number.
type deferredQueue struct {
	pq  *sequence.PriorityQueue[deferredItem]
	seq uint64
}

func newDeferredQueue() *deferredQueue {
	return &deferredQueue{pq: sequence.NewPriorityQueue[deferredItem]()}
}

// key orders by due tick first, schedule order second. Ticks stay well
// below 2^40 (580 years at 60 Hz), so the pack is safe.
func key(dueTick, seq uint64) int64 {
	return int64(dueTick<<24 | (seq & 0xFFFFFF))
}

func (q *deferredQueue) schedule(dueTick uint64, fn func()) {
	q.seq++
	q.pq.Enqueue(deferredItem{seq: q.seq, fn: fn}, key(dueTick, q.seq))
}

// runDue executes every item due at or before tick, in due order.
func (q *deferredQueue) runDue(tick uint64) {
	limit := key(tick+1, 0)
	for {
		p, ok := q.pq.PeekPriority()
		if !ok || p >= limit {
			return
		}
		item, _ := q.pq.Dequeue()
		item.fn()
	}
}

func (q *deferredQueue) pending() int { return q.pq.Len() }
