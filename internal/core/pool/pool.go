// Package pool provides fixed-capacity arena pools with index handles.
// Entities are allocated once at construction and only toggled in/out of
// use afterwards, so the frame loop never allocates.
package pool

import (
	"github.com/aquabend/aquabend/internal/core/observability/log"
)

// Handle is an opaque index into a pool's arena. Handles are only
// meaningful to the pool that issued them.
type Handle int

// None is returned by Acquire when the pool is exhausted.
const None Handle = -1

// Pool is a fixed-capacity arena of reusable entities. Acquire and Release
// never allocate; exhaustion and invalid releases are non-fatal and only
// logged. Pools are not safe for concurrent use; the simulation is
// single-threaded by design.
type Pool[T any] struct {
	name   string
	items  []T
	inUse  []bool
	active int
	cursor int // scan start hint, wraps around the arena

	// reset parks a released entity in its hidden sentinel state.
	reset func(*T)

	logger log.Log

	// warnedExhausted suppresses repeat exhaustion warnings until a slot
	// frees up, so a full pool does not spam the log at 60 Hz.
	warnedExhausted bool
}

// New builds a pool of capacity entities. reset is invoked on every slot at
// construction and on each release; it may be nil.
func New[T any](name string, capacity int, reset func(*T), logger log.Log) *Pool[T] {
	p := &Pool[T]{
		name:   name,
		items:  make([]T, capacity),
		inUse:  make([]bool, capacity),
		reset:  reset,
		logger: logger.With(log.String("pool", name)),
	}
	if reset != nil {
		for i := range p.items {
			reset(&p.items[i])
		}
	}
	return p
}

// Acquire finds a free slot, marks it in use and returns its handle.
// It returns (None, false) when every slot is taken; callers must treat
// that as "skip this spawn".
func (p *Pool[T]) Acquire() (Handle, bool) {
	for i := 0; i < len(p.items); i++ {
		idx := (p.cursor + i) % len(p.items)
		if p.inUse[idx] {
			continue
		}
		p.inUse[idx] = true
		p.active++
		p.cursor = idx + 1
		p.warnedExhausted = false
		return Handle(idx), true
	}
	if !p.warnedExhausted {
		p.logger.Warn("pool exhausted, spawn request dropped",
			log.Int("capacity", len(p.items)))
		p.warnedExhausted = true
	}
	return None, false
}

// Release returns a handle's entity to the pool and resets it to the
// sentinel state. Releasing a foreign or already-free handle is a logged
// no-op; lifecycle bugs must not crash the frame loop.
func (p *Pool[T]) Release(h Handle) {
	if h < 0 || int(h) >= len(p.items) {
		p.logger.Warn("release of foreign handle ignored", log.Int("handle", int(h)))
		return
	}
	if !p.inUse[h] {
		p.logger.Warn("double release ignored", log.Int("handle", int(h)))
		return
	}
	if p.reset != nil {
		p.reset(&p.items[h])
	}
	p.inUse[h] = false
	p.active--
	p.warnedExhausted = false
}

// Get returns the entity behind h. It returns nil for handles the pool does
// not currently own.
func (p *Pool[T]) Get(h Handle) *T {
	if h < 0 || int(h) >= len(p.items) || !p.inUse[h] {
		return nil
	}
	return &p.items[h]
}

// InUse reports whether h currently addresses a live entity.
func (p *Pool[T]) InUse(h Handle) bool {
	return h >= 0 && int(h) < len(p.items) && p.inUse[h]
}

// ActiveCount returns the number of live entities.
func (p *Pool[T]) ActiveCount() int { return p.active }

// Capacity returns the fixed arena size.
func (p *Pool[T]) Capacity() int { return len(p.items) }

// ForEachActive visits every live entity in handle order. The visitor may
// release the visited handle but must not release other handles mid-walk.
func (p *Pool[T]) ForEachActive(fn func(h Handle, item *T)) {
	for i := range p.items {
		if p.inUse[i] {
			fn(Handle(i), &p.items[i])
		}
	}
}
