// Package spear implements the pooled ballistic projectile: constant-speed
// gravity-exempt flight, terrain collision by ray casting, lifetime and
// travel limits, and a single guaranteed explosion that scatters free
// drops at the impact point.
package spear

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/aquabend/aquabend/internal/core/config"
	"github.com/aquabend/aquabend/internal/core/observability/log"
	"github.com/aquabend/aquabend/internal/core/physics"
	"github.com/aquabend/aquabend/internal/core/pool"
)

// bodyOwner tags spear bodies in the physics world.
const bodyOwner = "spears"

// parkedY is the off-world sentinel height for pooled spears.
const parkedY = -1000.0

// forward is the model axis a spear's orientation is aligned from.
var forward = mgl64.Vec3{0, 0, 1}

// Spear is one pooled projectile. The trail ring buffer always holds
// TrailLength valid positions, sentinel or not, so a renderer can read it
// without length checks.
type Spear struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
	Velocity    mgl64.Vec3
	Origin      mgl64.Vec3
	Body        physics.BodyID

	FiredAt  float64
	exploded bool

	trail     []mgl64.Vec3
	trailHead int
}

// Exploded reports whether this spear has already detonated.
func (s *Spear) Exploded() bool { return s.exploded }

// Ammo gates firing on the water belt. *belt.Belt satisfies it.
type Ammo interface {
	CanFire() bool
	Debit(n int) bool
	RequiredToFire() int
}

// Scatter spawns free drops at an explosion site and reports how many the
// drop pool could supply. drop.Field.SpawnBurst satisfies it.
type Scatter func(at mgl64.Vec3, n int, speed float64) int

// Deferrer queues work for a later tick. The engine backs it with its
// deferred-work queue; releasing a spear a few ticks after its explosion
// lets any still-pending collision callbacks settle against a live handle.
type Deferrer interface {
	After(ticks int, fn func())
}

// System owns the spear pool and every spear body in the physics world.
type System struct {
	cfg     config.SpearConfig
	pool    *pool.Pool[Spear]
	world   physics.World
	ammo    Ammo
	scatter Scatter
	deferq  Deferrer
	logger  log.Log

	simTime float64
}

// NewSystem wires the projectile engine.
func NewSystem(cfg config.SpearConfig, w physics.World, ammo Ammo, scatter Scatter,
	deferq Deferrer, logger log.Log) *System {

	s := &System{
		cfg:     cfg,
		world:   w,
		ammo:    ammo,
		scatter: scatter,
		deferq:  deferq,
		logger:  logger.With(log.String("component", "spears")),
	}
	s.pool = pool.New("spears", cfg.PoolSize, func(sp *Spear) {
		sp.Position = mgl64.Vec3{0, parkedY, 0}
		sp.Orientation = mgl64.QuatIdent()
		sp.Velocity = mgl64.Vec3{}
		sp.Origin = mgl64.Vec3{}
		sp.Body = physics.NoBody
		sp.FiredAt = 0
		sp.exploded = false
		if sp.trail == nil {
			sp.trail = make([]mgl64.Vec3, cfg.TrailLength)
		}
		for i := range sp.trail {
			sp.trail[i] = mgl64.Vec3{0, parkedY, 0}
		}
		sp.trailHead = 0
	}, logger)
	return s
}

// Fire launches a spear from origin along dir (unit length). It re-validates
// the belt rather than trusting the caller and debits exactly
// RequiredToFire atomically with a successful acquire. Insufficient water
// or an exhausted pool return false with no state change.
func (s *System) Fire(origin, dir mgl64.Vec3) bool {
	if !s.ammo.CanFire() {
		return false
	}
	h, ok := s.pool.Acquire()
	if !ok {
		return false
	}
	if !s.ammo.Debit(s.ammo.RequiredToFire()) {
		// belt drained between CanFire and Debit cannot happen single-
		// threaded, but the pool slot must not leak if it ever does
		s.pool.Release(h)
		return false
	}

	sp := s.pool.Get(h)
	sp.Position = origin.Add(dir.Mul(s.cfg.MuzzleOffset))
	sp.Orientation = mgl64.QuatBetweenVectors(forward, dir)
	sp.Velocity = dir.Mul(s.cfg.Speed)
	sp.Origin = sp.Position
	sp.FiredAt = s.simTime
	sp.Body = s.world.AddBody(bodyOwner, sp.Position)
	for i := range sp.trail {
		sp.trail[i] = sp.Position
	}
	return true
}

// Step advances every spear in flight by dt. Ballistic flight is constant
// velocity: spears are deliberately gravity-exempt, unlike drops.
func (s *System) Step(dt float64) {
	s.simTime += dt

	s.pool.ForEachActive(func(h pool.Handle, sp *Spear) {
		if sp.exploded {
			// waiting out the release delay; keep the trail moving
			s.pushTrail(sp)
			return
		}

		travel := sp.Velocity.Mul(dt)
		dir := sp.Velocity.Normalize()

		// look one step ahead so a fast spear cannot tunnel through
		// terrain between two ticks
		if hit, ok := s.world.Raycast(sp.Position, dir, travel.Len()+0.1); ok {
			sp.Position = hit.Point
			s.pushTrail(sp)
			s.explode(h, sp, hit.Point)
			return
		}

		sp.Position = sp.Position.Add(travel)
		s.pushTrail(sp)
		s.world.MoveBody(bodyOwner, sp.Body, sp.Position)

		if s.simTime-sp.FiredAt > s.cfg.LifetimeSec {
			s.explode(h, sp, sp.Position)
			return
		}
		if sp.Position.Sub(sp.Origin).LenSqr() > s.cfg.MaxTravel*s.cfg.MaxTravel {
			s.explode(h, sp, sp.Position)
		}
	})
}

// HandleCollision is the physics-engine collision callback entry point.
// Duplicate callbacks for the same spear are safe: the explosion is
// idempotent.
func (s *System) HandleCollision(h pool.Handle, at mgl64.Vec3) {
	sp := s.pool.Get(h)
	if sp == nil {
		s.logger.Warn("collision callback for retired spear ignored",
			log.Int("handle", int(h)))
		return
	}
	s.explode(h, sp, at)
}

// explode detonates a spear exactly once: the exploded flag is checked and
// set before any side effect, so duplicate collision callbacks or a
// hit-plus-timeout in the same tick cannot scatter drops twice.
func (s *System) explode(h pool.Handle, sp *Spear, at mgl64.Vec3) {
	if sp.exploded {
		return
	}
	sp.exploded = true
	sp.Velocity = mgl64.Vec3{}

	s.scatter(at, s.cfg.ScatterDrops, s.cfg.ScatterSpeed)

	// body removal happens-before pool release, both deferred past any
	// callbacks still in flight this tick
	body := sp.Body
	s.deferq.After(s.cfg.ReleaseDelayTicks, func() {
		s.world.RemoveBody(bodyOwner, body)
		s.pool.Release(h)
	})
}

// ActiveCount returns the number of spears currently owned by callers,
// including exploded spears waiting out their release delay.
func (s *System) ActiveCount() int { return s.pool.ActiveCount() }

// Capacity returns the spear pool size.
func (s *System) Capacity() int { return s.pool.Capacity() }

// Get resolves a handle for inspection. Nil once the spear is released.
func (s *System) Get(h pool.Handle) *Spear { return s.pool.Get(h) }

// ForEachActive visits live spears in handle order.
func (s *System) ForEachActive(fn func(h pool.Handle, sp *Spear)) {
	s.pool.ForEachActive(fn)
}

// Trail copies a spear's tail positions into dst, oldest first, and
// returns it. dst is grown as needed; pass a reused buffer to avoid
// allocation.
func (s *System) Trail(sp *Spear, dst []mgl64.Vec3) []mgl64.Vec3 {
	dst = dst[:0]
	n := len(sp.trail)
	for i := 0; i < n; i++ {
		dst = append(dst, sp.trail[(sp.trailHead+i)%n])
	}
	return dst
}

func (s *System) pushTrail(sp *Spear) {
	sp.trail[sp.trailHead] = sp.Position
	sp.trailHead = (sp.trailHead + 1) % len(sp.trail)
}
