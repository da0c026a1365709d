package engine

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquabend/aquabend/internal/core/config"
	"github.com/aquabend/aquabend/internal/core/events/bus"
	"github.com/aquabend/aquabend/internal/core/observability/log"
	"github.com/aquabend/aquabend/internal/core/world"
)

const frame = 1.0 / 60

// scriptedInput drives the engine from tests. FireRequested is consumed on
// read, mirroring the edge-triggered fire gesture.
type scriptedInput struct {
	absorbing bool
	fire      bool
	aim       mgl64.Vec3
	pos       mgl64.Vec3
	fwd       mgl64.Vec3
}

func (s *scriptedInput) IsAbsorbing() bool { return s.absorbing }
func (s *scriptedInput) FireRequested() bool {
	f := s.fire
	s.fire = false
	return f
}
func (s *scriptedInput) AimPoint() mgl64.Vec3          { return s.aim }
func (s *scriptedInput) CharacterPosition() mgl64.Vec3 { return s.pos }
func (s *scriptedInput) CameraForward() mgl64.Vec3     { return s.fwd }

func newTestEngine(t *testing.T, mutate func(*config.Config), sources *world.SourceRegistry) (*Engine, *scriptedInput) {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	in := &scriptedInput{
		aim: mgl64.Vec3{0, 1, 0},
		pos: mgl64.Vec3{0, 10, 0},
		fwd: mgl64.Vec3{0, 0, 1},
	}
	e, err := New(cfg, in, world.FlatTerrain{}, sources, log.Nop())
	require.NoError(t, err)
	return e, in
}

func TestConstructionFailsFast(t *testing.T) {
	cfg := config.Default()
	_, err := New(cfg, nil, world.FlatTerrain{}, nil, log.Nop())
	assert.Error(t, err, "nil input source is a programmer error")

	bad := config.Default()
	bad.Drops.PoolSize = 0
	_, err = New(bad, &scriptedInput{}, world.FlatTerrain{}, nil, log.Nop())
	assert.Error(t, err)

	_, err = New(cfg, &scriptedInput{}, nil, nil, log.Nop())
	assert.NoError(t, err, "missing terrain degrades to flat ground")
}

// Scenario: collect up to the firing threshold, then fire.
func TestCollectThenFire(t *testing.T) {
	e, in := newTestEngine(t, nil, nil)

	var collected, fired int
	e.Events().Subscribe(EventDropCollected, func(ev bus.Event) { collected += ev.Data.(int) })
	e.Events().Subscribe(EventSpearFired, func(bus.Event) { fired++ })

	// 44 drops in collection range: one short of the threshold
	for i := 0; i < 44; i++ {
		_, ok := e.drops.Spawn(mgl64.Vec3{0.2, 1, 0}, mgl64.Vec3{}, 0.35, 0)
		require.True(t, ok)
	}
	in.absorbing = true
	e.Step(frame)

	assert.Equal(t, 44, e.CurrentWaterCount())
	assert.Equal(t, 44, collected)
	assert.False(t, e.CanFire())

	// the fire request must be swallowed, nothing debited
	in.fire = true
	e.Step(frame)
	assert.Zero(t, fired)
	assert.Equal(t, 44, e.CurrentWaterCount())

	// one more drop tips the threshold
	_, ok := e.drops.Spawn(mgl64.Vec3{0.2, 1, 0}, mgl64.Vec3{}, 0.35, 0)
	require.True(t, ok)
	e.Step(frame)
	require.True(t, e.CanFire())

	in.fire = true
	e.Step(frame)
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, e.CurrentWaterCount(), "firing debits exactly the threshold")
	assert.Equal(t, 1, e.spears.ActiveCount())
}

// Scenario: a spear that never hits anything explodes on lifetime expiry,
// scatters drops, and is returned to its pool after the settle delay.
func TestSpearLifetimeLoop(t *testing.T) {
	e, in := newTestEngine(t, func(c *config.Config) {
		c.Spears.LifetimeSec = 5.0
		c.Spears.MaxTravel = 1e6
	}, nil)

	explosions := 0
	scattered := 0
	e.Events().Subscribe(EventSpearExploded, func(ev bus.Event) {
		explosions++
		scattered = ev.Data.(int)
	})

	e.belt.Credit(45)
	in.fire = true
	in.fwd = mgl64.Vec3{0, 1, 0} // straight up, nothing to hit
	e.Step(frame)
	require.Equal(t, 1, e.spears.ActiveCount())
	require.Equal(t, 0, e.CurrentWaterCount())

	for e.SimTime() < 5.1 {
		e.Step(frame)
	}
	assert.Equal(t, 1, explosions, "exactly one explosion despite many ticks past expiry")
	assert.Equal(t, 8, scattered)
	assert.Equal(t, 8, e.drops.ActiveCount(), "explosion scatters free drops")

	for i := 0; i < 4; i++ {
		e.Step(frame)
	}
	assert.Zero(t, e.spears.ActiveCount(), "spear returned to pool after the settle delay")
}

func TestAmbientCollectionRequiresSource(t *testing.T) {
	pond := world.Source{Name: "pond", Position: mgl64.Vec3{0, 0, 0}, Radius: 5}

	withSource, in := newTestEngine(t, func(c *config.Config) {
		c.Drops.AmbientChance = 1.0
	}, world.NewSourceRegistry(pond))
	in.absorbing = true
	in.aim = mgl64.Vec3{15, 1, 0} // near the pond, but outside collect range
	withSource.Step(frame)
	assert.Positive(t, withSource.drops.ActiveCount(), "aiming at a pond emits particles")

	noSource, in2 := newTestEngine(t, func(c *config.Config) {
		c.Drops.AmbientChance = 1.0
	}, nil)
	in2.absorbing = true
	noSource.Step(frame)
	assert.Zero(t, noSource.drops.ActiveCount(), "no free water away from sources")
}

func TestBeltFullAnnouncedOnce(t *testing.T) {
	e, in := newTestEngine(t, func(c *config.Config) {
		c.Belt.Capacity = 3
		c.Belt.RequiredToFire = 2
	}, nil)

	fullEvents := 0
	e.Events().Subscribe(EventBeltFull, func(bus.Event) { fullEvents++ })

	for i := 0; i < 5; i++ {
		e.drops.Spawn(mgl64.Vec3{0.2, 1, 0}, mgl64.Vec3{}, 0.35, 0)
	}
	in.absorbing = true
	e.Step(frame)
	e.Step(frame)
	e.Step(frame)

	assert.Equal(t, 3, e.CurrentWaterCount(), "saturated at capacity")
	assert.Equal(t, 1, fullEvents, "edge-triggered, not repeated while full")
}

func TestDeferredRunsAtStartOfDueTick(t *testing.T) {
	e, _ := newTestEngine(t, nil, nil)
	e.Step(frame) // tick 1

	var ranAt uint64
	e.After(2, func() { ranAt = e.Tick() })

	e.Step(frame) // tick 2: not due yet
	assert.Zero(t, ranAt)
	e.Step(frame) // tick 3: due
	assert.Equal(t, uint64(3), ranAt)
}

func TestDeferredPreservesScheduleOrder(t *testing.T) {
	e, _ := newTestEngine(t, nil, nil)
	var order []string
	e.After(1, func() { order = append(order, "first") })
	e.After(1, func() { order = append(order, "second") })
	e.Step(frame)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestRegisteredHooksRunAfterCoreSystems(t *testing.T) {
	e, _ := newTestEngine(t, nil, nil)

	var sawTick uint64
	e.Register("hud-poll", func(dt float64) { sawTick = e.Snapshot().Tick })

	e.Step(frame)
	assert.Equal(t, uint64(1), sawTick, "hook sees the already-published snapshot")

	e.Deregister("hud-poll")
	e.Step(frame)
	assert.Equal(t, uint64(1), sawTick, "deregistered hook no longer runs")
}

func TestSnapshotTracksWorldState(t *testing.T) {
	e, in := newTestEngine(t, nil, nil)
	e.drops.Spawn(mgl64.Vec3{5, 3, 0}, mgl64.Vec3{}, 0.5, 0)
	e.belt.Credit(45)
	in.fire = true
	e.Step(frame)

	s := e.Snapshot()
	assert.Equal(t, uint64(1), s.Tick)
	require.Len(t, s.Drops, 1)
	assert.Equal(t, 0.5, s.Drops[0].Scale)
	require.Len(t, s.Spears, 1)
	assert.Len(t, s.Spears[0].Trail, e.cfg.Spears.TrailLength)
	assert.Equal(t, 0, s.WaterCount)
	assert.Empty(t, s.BeltRing, "empty belt renders no indicator spheres")
}

func TestSameSeedSameRun(t *testing.T) {
	pond := world.Source{Name: "pond", Position: mgl64.Vec3{0, 0, 0}, Radius: 5}
	run := func() []DropState {
		e, in := newTestEngine(t, func(c *config.Config) {
			c.Drops.AmbientChance = 0.5
		}, world.NewSourceRegistry(pond))
		in.absorbing = true
		for i := 0; i < 120; i++ {
			e.Step(frame)
		}
		return append([]DropState(nil), e.Snapshot().Drops...)
	}
	assert.Equal(t, run(), run(), "identical seed and script reproduce the run")
}
