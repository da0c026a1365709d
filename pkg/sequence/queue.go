// Package sequence provides a generic min-priority queue, used by the
// engine to schedule deferred work by due tick.
package sequence

import "container/heap"

type item[T any] struct {
	value    T
	priority int64
	index    int
}

type minQueue[T any] struct {
	items []*item[T]
}

func (q *minQueue[T]) Len() int {
	return len(q.items)
}

func (q *minQueue[T]) Less(i, j int) bool {
	return q.items[i].priority < q.items[j].priority
}

func (q *minQueue[T]) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].index = i
	q.items[j].index = j
}

func (q *minQueue[T]) Push(x any) {
	it := x.(*item[T])
	it.index = len(q.items)
	q.items = append(q.items, it)
}

func (q *minQueue[T]) Pop() any {
	old := q.items
	n := len(old)
	it := old[n-1]
	old[n-1] = nil // avoid memory leak
	q.items = old[0 : n-1]
	return it
}

// PriorityQueue dequeues the lowest priority first. Equal priorities come
// out in heap order, not insertion order; callers needing stable order
// within one priority should disambiguate the key.
type PriorityQueue[T any] struct {
	q minQueue[T]
}

func NewPriorityQueue[T any]() *PriorityQueue[T] {
	pq := &PriorityQueue[T]{}
	heap.Init(&pq.q)
	return pq
}

// Enqueue adds a value with the given priority.
func (pq *PriorityQueue[T]) Enqueue(value T, priority int64) {
	heap.Push(&pq.q, &item[T]{value: value, priority: priority})
}

// Dequeue removes and returns the lowest-priority value.
func (pq *PriorityQueue[T]) Dequeue() (T, bool) {
	if pq.q.Len() == 0 {
		var zero T
		return zero, false
	}
	it := heap.Pop(&pq.q).(*item[T])
	return it.value, true
}

// PeekPriority returns the priority of the head without removing it.
func (pq *PriorityQueue[T]) PeekPriority() (int64, bool) {
	if pq.q.Len() == 0 {
		return 0, false
	}
	return pq.q.items[0].priority, true
}

func (pq *PriorityQueue[T]) Len() int { return pq.q.Len() }

func (pq *PriorityQueue[T]) IsEmpty() bool { return pq.q.Len() == 0 }
