package spear

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquabend/aquabend/internal/core/belt"
	"github.com/aquabend/aquabend/internal/core/config"
	"github.com/aquabend/aquabend/internal/core/observability/log"
	"github.com/aquabend/aquabend/internal/core/physics"
	"github.com/aquabend/aquabend/internal/core/pool"
)

// manualDeferrer collects deferred work; tests drain it explicitly.
type manualDeferrer struct {
	pending []func()
}

func (m *manualDeferrer) After(ticks int, fn func()) {
	m.pending = append(m.pending, fn)
}

func (m *manualDeferrer) drain() {
	for _, fn := range m.pending {
		fn()
	}
	m.pending = nil
}

type scatterRecorder struct {
	calls int
	drops int
	last  mgl64.Vec3
}

func (r *scatterRecorder) scatter(at mgl64.Vec3, n int, speed float64) int {
	r.calls++
	r.drops += n
	r.last = at
	return n
}

type harness struct {
	sys     *System
	belt    *belt.Belt
	scatter *scatterRecorder
	deferq  *manualDeferrer
}

func newHarness(t *testing.T, mutate func(*config.SpearConfig)) *harness {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg.Spears)
	}
	w := physics.NewKinematicWorld(func(x, z float64) float64 { return 0 }, log.Nop())
	h := &harness{
		belt:    belt.New(cfg.Belt),
		scatter: &scatterRecorder{},
		deferq:  &manualDeferrer{},
	}
	h.sys = NewSystem(cfg.Spears, w, h.belt, h.scatter.scatter, h.deferq, log.Nop())
	return h
}

func (h *harness) fireFrom(y float64, dir mgl64.Vec3) bool {
	return h.sys.Fire(mgl64.Vec3{0, y, 0}, dir)
}

func TestFireGatedOnBelt(t *testing.T) {
	h := newHarness(t, nil)
	h.belt.Credit(44)

	assert.False(t, h.fireFrom(10, mgl64.Vec3{0, 0, 1}))
	assert.Zero(t, h.sys.ActiveCount(), "no spear acquired")
	assert.Equal(t, 44, h.belt.Count(), "belt untouched")

	h.belt.Credit(1)
	assert.True(t, h.fireFrom(10, mgl64.Vec3{0, 0, 1}))
	assert.Equal(t, 1, h.sys.ActiveCount())
	assert.Equal(t, 0, h.belt.Count(), "debited exactly the firing cost")
}

func TestFirePoolExhaustionLeavesBeltAlone(t *testing.T) {
	h := newHarness(t, func(c *config.SpearConfig) { c.PoolSize = 1 })
	h.belt.Credit(450)

	require.True(t, h.fireFrom(10, mgl64.Vec3{0, 0, 1}))
	assert.False(t, h.fireFrom(10, mgl64.Vec3{0, 0, 1}), "pool exhausted")
	assert.Equal(t, 450-45, h.belt.Count(), "failed fire must not debit")
}

func TestFlightIsGravityExempt(t *testing.T) {
	h := newHarness(t, func(c *config.SpearConfig) { c.MaxTravel = 1e6; c.LifetimeSec = 1e6 })
	require.True(t, h.fireFrom(50, mgl64.Vec3{0, 0, 1}))

	var handle pool.Handle
	h.sys.ForEachActive(func(hh pool.Handle, _ *Spear) { handle = hh })

	for i := 0; i < 60; i++ {
		h.sys.Step(1.0 / 60)
	}
	sp := h.sys.Get(handle)
	require.NotNil(t, sp)
	assert.Equal(t, 50.0, sp.Position.Y(), "constant-speed ballistic, no drop")
	assert.InDelta(t, h.sys.cfg.MuzzleOffset+h.sys.cfg.Speed, sp.Position.Z(), 0.01)
}

func TestTerrainCollisionExplodesOnce(t *testing.T) {
	h := newHarness(t, nil)
	h.belt.Credit(45)
	require.True(t, h.fireFrom(5, mgl64.Vec3{0, -1, 0})) // straight down

	for i := 0; i < 30 && h.scatter.calls == 0; i++ {
		h.sys.Step(1.0 / 60)
	}
	assert.Equal(t, 1, h.scatter.calls)
	assert.InDelta(t, 0, h.scatter.last.Y(), 0.1, "scatter at the impact point")
	assert.Equal(t, 1, h.sys.ActiveCount(), "spear lives until the deferred release")

	// further ticks before the release must not re-explode
	h.sys.Step(1.0 / 60)
	h.sys.Step(1.0 / 60)
	assert.Equal(t, 1, h.scatter.calls)

	h.deferq.drain()
	assert.Zero(t, h.sys.ActiveCount(), "released back to the pool")
}

func TestDuplicateCollisionCallbacksExplodeOnce(t *testing.T) {
	h := newHarness(t, func(c *config.SpearConfig) { c.MaxTravel = 1e6; c.LifetimeSec = 1e6 })
	h.belt.Credit(45)
	require.True(t, h.fireFrom(50, mgl64.Vec3{0, 0, 1}))

	var handle pool.Handle
	h.sys.ForEachActive(func(hh pool.Handle, _ *Spear) { handle = hh })

	at := mgl64.Vec3{0, 50, 10}
	h.sys.HandleCollision(handle, at)
	h.sys.HandleCollision(handle, at) // duplicate callback in the same tick
	assert.Equal(t, 1, h.scatter.calls, "explosion is idempotent")

	h.deferq.drain()
	assert.Zero(t, h.sys.ActiveCount())

	// a callback arriving after release is a logged no-op
	assert.NotPanics(t, func() { h.sys.HandleCollision(handle, at) })
	assert.Equal(t, 1, h.scatter.calls)
}

func TestLifetimeExpiryExplodes(t *testing.T) {
	h := newHarness(t, func(c *config.SpearConfig) {
		c.LifetimeSec = 5.0
		c.MaxTravel = 1e6
	})
	h.belt.Credit(45)
	require.True(t, h.fireFrom(10, mgl64.Vec3{0, 1, 0})) // straight up, nothing to hit

	elapsed := 0.0
	for elapsed <= 5.0 {
		h.sys.Step(1.0 / 60)
		elapsed += 1.0 / 60
	}
	assert.Equal(t, 1, h.scatter.calls, "auto-explodes after its lifetime")

	h.deferq.drain()
	assert.Zero(t, h.sys.ActiveCount())
}

func TestMaxTravelExplodes(t *testing.T) {
	h := newHarness(t, func(c *config.SpearConfig) {
		c.MaxTravel = 10
		c.LifetimeSec = 1e6
	})
	h.belt.Credit(45)
	require.True(t, h.fireFrom(50, mgl64.Vec3{0, 0, 1}))

	for i := 0; i < 60 && h.scatter.calls == 0; i++ {
		h.sys.Step(1.0 / 60)
	}
	assert.Equal(t, 1, h.scatter.calls)
}

func TestTrailInvariant(t *testing.T) {
	h := newHarness(t, func(c *config.SpearConfig) {
		c.TrailLength = 4
		c.MaxTravel = 1e6
		c.LifetimeSec = 1e6
	})
	h.belt.Credit(45)
	require.True(t, h.fireFrom(50, mgl64.Vec3{0, 0, 1}))

	var sp *Spear
	h.sys.ForEachActive(func(_ pool.Handle, s *Spear) { sp = s })

	trail := h.sys.Trail(sp, nil)
	require.Len(t, trail, 4, "trail is valid-length from the first tick")
	for _, p := range trail {
		assert.Equal(t, sp.Position, p, "freshly fired trail collapses to the muzzle")
	}

	h.sys.Step(1.0 / 60)
	h.sys.Step(1.0 / 60)
	trail = h.sys.Trail(sp, trail)
	require.Len(t, trail, 4)
	assert.Equal(t, sp.Position, trail[3], "newest entry is the current position")
	assert.LessOrEqual(t, trail[2].Z(), trail[3].Z(), "oldest to newest ordering")
}
