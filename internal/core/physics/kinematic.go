package physics

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/aquabend/aquabend/internal/core/observability/log"
)

// raycastStride is the coarse march step for terrain rays. Crossings are
// refined by bisection, so the stride only bounds how thin a ridge can be
// before a ray tunnels through it.
const raycastStride = 0.25

type body struct {
	owner    string
	position mgl64.Vec3
	sleeping bool
	live     bool
}

// KinematicWorld is the built-in World implementation: a flat registry of
// kinematic bodies over a terrain heightfield. It resolves queries only;
// bodies are advanced by whichever system owns them.
type KinematicWorld struct {
	height  HeightFunc
	bodies  []body
	free    []BodyID
	steps   uint64
	simTime float64
	logger  log.Log
}

var _ World = (*KinematicWorld)(nil)

// NewKinematicWorld builds a world over the given heightfield. A nil height
// function falls back to flat ground at height zero.
func NewKinematicWorld(height HeightFunc, logger log.Log) *KinematicWorld {
	if height == nil {
		logger.Warn("no terrain height provider, falling back to flat ground")
		height = func(x, z float64) float64 { return 0 }
	}
	return &KinematicWorld{
		height: height,
		logger: logger.With(log.String("component", "physics")),
	}
}

func (w *KinematicWorld) AddBody(owner string, position mgl64.Vec3) BodyID {
	if n := len(w.free); n > 0 {
		id := w.free[n-1]
		w.free = w.free[:n-1]
		w.bodies[id] = body{owner: owner, position: position, live: true}
		return id
	}
	w.bodies = append(w.bodies, body{owner: owner, position: position, live: true})
	return BodyID(len(w.bodies) - 1)
}

func (w *KinematicWorld) RemoveBody(owner string, id BodyID) {
	b := w.checked(owner, id, "remove")
	if b == nil {
		return
	}
	b.live = false
	w.free = append(w.free, id)
}

func (w *KinematicWorld) MoveBody(owner string, id BodyID, position mgl64.Vec3) {
	if b := w.checked(owner, id, "move"); b != nil {
		b.position = position
	}
}

func (w *KinematicWorld) SleepBody(owner string, id BodyID) {
	if b := w.checked(owner, id, "sleep"); b != nil {
		b.sleeping = true
	}
}

func (w *KinematicWorld) WakeBody(owner string, id BodyID) {
	if b := w.checked(owner, id, "wake"); b != nil {
		b.sleeping = false
	}
}

// BodyCount returns the number of live bodies. Exposed for tests and the
// demo's frame stats.
func (w *KinematicWorld) BodyCount() int {
	n := 0
	for i := range w.bodies {
		if w.bodies[i].live {
			n++
		}
	}
	return n
}

func (w *KinematicWorld) Raycast(origin, dir mgl64.Vec3, maxDist float64) (Hit, bool) {
	if maxDist <= 0 {
		return Hit{}, false
	}
	prev := origin
	prevAbove := origin.Y() > w.height(origin.X(), origin.Z())
	for travelled := raycastStride; travelled <= maxDist; travelled += raycastStride {
		point := origin.Add(dir.Mul(travelled))
		above := point.Y() > w.height(point.X(), point.Z())
		if prevAbove && !above {
			hit := w.bisect(prev, point)
			return Hit{Point: hit, Distance: hit.Sub(origin).Len()}, true
		}
		prev, prevAbove = point, above
	}
	// cover the fractional tail of the ray
	end := origin.Add(dir.Mul(maxDist))
	if prevAbove && end.Y() <= w.height(end.X(), end.Z()) {
		hit := w.bisect(prev, end)
		return Hit{Point: hit, Distance: hit.Sub(origin).Len()}, true
	}
	return Hit{}, false
}

func (w *KinematicWorld) Step(dt float64) {
	w.steps++
	w.simTime += dt
}

// bisect narrows an above/below crossing between a and b to the surface.
func (w *KinematicWorld) bisect(a, b mgl64.Vec3) mgl64.Vec3 {
	for i := 0; i < 12; i++ {
		mid := a.Add(b).Mul(0.5)
		if mid.Y() > w.height(mid.X(), mid.Z()) {
			a = mid
		} else {
			b = mid
		}
	}
	return b
}

func (w *KinematicWorld) checked(owner string, id BodyID, op string) *body {
	if id < 0 || int(id) >= len(w.bodies) || !w.bodies[id].live {
		w.logger.Warn("body op on unknown body ignored",
			log.String("op", op), log.Int("body", int(id)))
		return nil
	}
	b := &w.bodies[id]
	if b.owner != owner {
		w.logger.Warn("body op by non-owner ignored",
			log.String("op", op), log.String("owner", b.owner), log.String("caller", owner))
		return nil
	}
	return b
}
