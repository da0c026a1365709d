// Package drop simulates the free water drops: per-drop kinematics, the
// absorb gesture, collection into the belt, and the merge/split engine
// that keeps nearby drops reading as one blob.
package drop

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/aquabend/aquabend/internal/core/config"
	"github.com/aquabend/aquabend/internal/core/observability/log"
	"github.com/aquabend/aquabend/internal/core/physics"
	"github.com/aquabend/aquabend/internal/core/pool"
	"github.com/aquabend/aquabend/internal/core/world"
)

// bodyOwner tags drop bodies in the physics world; no other subsystem may
// touch them.
const bodyOwner = "drops"

// parkedY is the off-world sentinel height for inactive drops.
const parkedY = -1000.0

// referenceFrame is the frame duration the ambient-collection chance is
// tuned against; Field.rollAmbient rescales it to the actual dt.
const referenceFrame = 1.0 / 60.0

// Drop is one pooled water particle. Volume is derived from the visual
// scale (scale³); active drops always hold a valid position while parked
// drops sit at the sentinel with their body asleep.
type Drop struct {
	Position mgl64.Vec3
	Velocity mgl64.Vec3
	Scale    float64
	Body     physics.BodyID

	// SpawnedAt is sim-time; Lifetime > 0 marks a transient effect drop
	// that expires Lifetime seconds after spawning.
	SpawnedAt float64
	Lifetime  float64

	// merged marks a drop already combined this frame so a single merge
	// pass never touches it twice.
	merged bool
}

// Radius is the drop's collision radius for merge testing.
func (d *Drop) Radius() float64 { return d.Scale * 0.5 }

// Volume is the conserved quantity of the merge engine.
func (d *Drop) Volume() float64 { return d.Scale * d.Scale * d.Scale }

// Collector banks collected drops. *belt.Belt satisfies it.
type Collector interface {
	Credit(n int) int
}

// Input is the per-frame gesture state sampled from the input layer.
type Input struct {
	Absorbing bool
	Target    mgl64.Vec3
}

// Field owns the drop pool and every drop body in the physics world.
type Field struct {
	cfg      config.DropConfig
	mergeCfg config.MergeConfig

	pool      *pool.Pool[Drop]
	world     physics.World
	terrain   world.TerrainProvider
	collector Collector
	rng       *rand.Rand
	logger    log.Log

	simTime    float64
	mergeFrame int

	// scratch avoids per-frame allocation in the merge pass.
	scratch []pool.Handle
}

// NewField wires the drop simulation. A nil terrain provider falls back to
// flat ground at height zero rather than failing.
func NewField(cfg config.DropConfig, mergeCfg config.MergeConfig, w physics.World,
	terrain world.TerrainProvider, collector Collector, rng *rand.Rand, logger log.Log) *Field {

	logger = logger.With(log.String("component", "drops"))
	if terrain == nil {
		logger.Warn("no terrain provider, drops rest at height zero")
		terrain = world.FlatTerrain{}
	}
	f := &Field{
		cfg:       cfg,
		mergeCfg:  mergeCfg,
		world:     w,
		terrain:   terrain,
		collector: collector,
		rng:       rng,
		logger:    logger,
		scratch:   make([]pool.Handle, 0, cfg.PoolSize),
	}
	f.pool = pool.New("drops", cfg.PoolSize, func(d *Drop) {
		d.Position = mgl64.Vec3{0, parkedY, 0}
		d.Velocity = mgl64.Vec3{}
		d.Scale = 0
		d.Body = physics.NoBody
		d.SpawnedAt = 0
		d.Lifetime = 0
		d.merged = false
	}, logger)
	return f
}

// Spawn activates one drop. It returns false when the pool is exhausted;
// the spawn is silently skipped in that case.
func (f *Field) Spawn(at, velocity mgl64.Vec3, scale, lifetime float64) (pool.Handle, bool) {
	h, ok := f.pool.Acquire()
	if !ok {
		return pool.None, false
	}
	d := f.pool.Get(h)
	d.Position = at
	d.Velocity = velocity
	d.Scale = scale
	d.SpawnedAt = f.simTime
	d.Lifetime = lifetime
	d.Body = f.world.AddBody(bodyOwner, at)
	return h, true
}

// SpawnBurst scatters n drops outward from an impact point and returns how
// many the pool could supply. Used by spear explosions.
func (f *Field) SpawnBurst(at mgl64.Vec3, n int, speed float64) int {
	spawned := 0
	for i := 0; i < n; i++ {
		angle := 2 * math.Pi * float64(i) / float64(n)
		vel := mgl64.Vec3{
			math.Cos(angle) * speed,
			speed * (0.8 + 0.4*f.rng.Float64()),
			math.Sin(angle) * speed,
		}
		offset := mgl64.Vec3{math.Cos(angle) * 0.3, 0.2, math.Sin(angle) * 0.3}
		if _, ok := f.Spawn(at.Add(offset), vel, f.cfg.SpawnScale, 0); !ok {
			break
		}
		spawned++
	}
	return spawned
}

// TryAmbient rolls the ambient-emission chance for one frame near a water
// source and spawns a transient effect drop on success. The per-frame
// probability is rescaled to dt so emission rate does not depend on frame
// rate.
func (f *Field) TryAmbient(dt float64, src *world.Source) bool {
	p := 1 - math.Pow(1-f.cfg.AmbientChance, dt/referenceFrame)
	if f.rng.Float64() >= p {
		return false
	}
	angle := 2 * math.Pi * f.rng.Float64()
	dist := f.cfg.AmbientRadius * math.Sqrt(f.rng.Float64())
	at := src.Position.Add(mgl64.Vec3{
		math.Cos(angle) * dist,
		0.5 + f.rng.Float64(),
		math.Sin(angle) * dist,
	})
	rise := mgl64.Vec3{0, 1.5 + f.rng.Float64(), 0}
	_, ok := f.Spawn(at, rise, f.cfg.SpawnScale, f.cfg.EffectLifetimeSec)
	return ok
}

// Step advances every active drop by dt and applies the absorb gesture.
// Collection happens here, before any merge pass, and a collected drop is
// released immediately so it can never be counted twice in one frame.
// Returns the number of drops collected this frame.
func (f *Field) Step(dt float64, in Input) int {
	f.simTime += dt
	collected := 0

	f.pool.ForEachActive(func(h pool.Handle, d *Drop) {
		d.merged = false

		// transient effect drops decay by elapsed sim-time
		if d.Lifetime > 0 && f.simTime-d.SpawnedAt > d.Lifetime {
			f.release(h, d)
			return
		}

		if in.Absorbing {
			toTarget := in.Target.Sub(d.Position)
			distSq := toTarget.LenSqr()

			collectR := f.cfg.CollectRadius
			if distSq < collectR*collectR {
				collected += f.collector.Credit(1)
				f.release(h, d)
				return
			}

			attractR := f.cfg.AttractionRadius
			if distSq < attractR*attractR {
				dist := math.Sqrt(distSq)
				// linear falloff: full pull at the target, zero at the rim
				pull := f.cfg.AttractionStrength * (1 - dist/attractR)
				d.Velocity = d.Velocity.Add(toTarget.Mul(pull * dt / dist))
			}
		} else {
			d.Velocity = mgl64.Vec3{d.Velocity.X(), d.Velocity.Y() - f.cfg.Gravity*dt, d.Velocity.Z()}
		}

		d.Position = d.Position.Add(d.Velocity.Mul(dt))

		// rest on the terrain: kill the fall, bleed horizontal speed
		ground := f.terrain.HeightAt(d.Position.X(), d.Position.Z()) + d.Radius()
		if d.Position.Y() <= ground+f.cfg.RestEpsilon {
			d.Position = mgl64.Vec3{d.Position.X(), ground, d.Position.Z()}
			vy := d.Velocity.Y()
			if vy < 0 {
				vy = 0
			}
			d.Velocity = mgl64.Vec3{
				d.Velocity.X() * f.cfg.Friction,
				vy,
				d.Velocity.Z() * f.cfg.Friction,
			}
		}

		f.world.MoveBody(bodyOwner, d.Body, d.Position)
	})

	return collected
}

// ActiveCount returns the number of live drops.
func (f *Field) ActiveCount() int { return f.pool.ActiveCount() }

// Capacity returns the drop pool size.
func (f *Field) Capacity() int { return f.pool.Capacity() }

// Get resolves a handle for inspection. Nil for released handles.
func (f *Field) Get(h pool.Handle) *Drop { return f.pool.Get(h) }

// ForEachActive visits live drops in handle order, e.g. to build a render
// snapshot.
func (f *Field) ForEachActive(fn func(h pool.Handle, d *Drop)) {
	f.pool.ForEachActive(fn)
}

// SimTime returns accumulated simulation time in seconds.
func (f *Field) SimTime() float64 { return f.simTime }

// release retires a drop: the physics body is removed before the slot is
// returned so the world never holds a body for a parked drop.
func (f *Field) release(h pool.Handle, d *Drop) {
	if d.Body != physics.NoBody {
		f.world.RemoveBody(bodyOwner, d.Body)
	}
	f.pool.Release(h)
}
