package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquabend/aquabend/internal/core/observability/log"
)

type testEntity struct {
	value int
	reset bool
}

func newTestPool(capacity int) *Pool[testEntity] {
	return New("test", capacity, func(e *testEntity) {
		e.value = 0
		e.reset = true
	}, log.Nop())
}

func TestAcquireUpToCapacity(t *testing.T) {
	p := newTestPool(5)

	handles := make([]Handle, 0, 5)
	for i := 0; i < 5; i++ {
		h, ok := p.Acquire()
		require.True(t, ok, "acquire %d", i)
		handles = append(handles, h)
	}
	assert.Equal(t, 5, p.ActiveCount())

	h, ok := p.Acquire()
	assert.False(t, ok)
	assert.Equal(t, None, h)
	assert.Equal(t, 5, p.ActiveCount())

	// releasing one slot makes acquire succeed again
	p.Release(handles[2])
	assert.Equal(t, 4, p.ActiveCount())
	_, ok = p.Acquire()
	assert.True(t, ok)
	assert.Equal(t, 5, p.ActiveCount())
}

func TestReleaseIsIdempotent(t *testing.T) {
	p := newTestPool(3)
	h, ok := p.Acquire()
	require.True(t, ok)

	p.Release(h)
	assert.Equal(t, 0, p.ActiveCount())

	assert.NotPanics(t, func() { p.Release(h) })
	assert.Equal(t, 0, p.ActiveCount())
}

func TestReleaseForeignHandleIsNoOp(t *testing.T) {
	p := newTestPool(3)
	_, ok := p.Acquire()
	require.True(t, ok)

	assert.NotPanics(t, func() { p.Release(Handle(99)) })
	assert.NotPanics(t, func() { p.Release(None) })
	assert.Equal(t, 1, p.ActiveCount())
}

func TestReleaseResetsEntity(t *testing.T) {
	p := newTestPool(2)
	h, _ := p.Acquire()
	p.Get(h).value = 42
	p.Get(h).reset = false

	p.Release(h)
	assert.Nil(t, p.Get(h), "released handle must not resolve")

	h2, _ := p.Acquire()
	assert.True(t, p.Get(h2).reset)
	assert.Equal(t, 0, p.Get(h2).value)
}

func TestGetRejectsStaleHandles(t *testing.T) {
	p := newTestPool(2)
	assert.Nil(t, p.Get(0))
	assert.Nil(t, p.Get(None))

	h, _ := p.Acquire()
	require.NotNil(t, p.Get(h))
	assert.False(t, p.InUse(None))
	assert.True(t, p.InUse(h))
}

func TestForEachActiveVisitsInHandleOrder(t *testing.T) {
	p := newTestPool(4)
	for i := 0; i < 4; i++ {
		h, _ := p.Acquire()
		p.Get(h).value = i
	}
	p.Release(Handle(1))

	var visited []int
	p.ForEachActive(func(h Handle, e *testEntity) {
		visited = append(visited, e.value)
	})
	assert.Equal(t, []int{0, 2, 3}, visited)
}
