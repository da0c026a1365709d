// Package physics defines the physics-world collaborator the simulation
// talks to. The core only needs body bookkeeping and ray queries; velocity
// integration is explicit Euler inside the owning systems.
package physics

import (
	"github.com/go-gl/mathgl/mgl64"
)

// BodyID identifies a body registered with a World.
type BodyID int

// NoBody is the zero-value sentinel for an unregistered body.
const NoBody BodyID = -1

// Hit describes a raycast intersection.
type Hit struct {
	Point    mgl64.Vec3
	Distance float64
}

// HeightFunc answers terrain height queries at (x, z).
type HeightFunc func(x, z float64) float64

// World is the shared physics collaborator. Each subsystem registers its
// bodies under an owner tag; only the owning subsystem may move, sleep or
// remove a body. The convention is enforced at the API, not by locking:
// the simulation is single-threaded.
type World interface {
	AddBody(owner string, position mgl64.Vec3) BodyID
	RemoveBody(owner string, id BodyID)
	MoveBody(owner string, id BodyID, position mgl64.Vec3)
	SleepBody(owner string, id BodyID)
	WakeBody(owner string, id BodyID)

	// Raycast marches from origin along dir (unit length) up to maxDist
	// and reports the first terrain intersection.
	Raycast(origin, dir mgl64.Vec3, maxDist float64) (Hit, bool)

	// Step advances the world clock. The kinematic implementation only
	// bumps bookkeeping, but callers must invoke it once per frame before
	// the gameplay systems run, matching the engine's frame order.
	Step(dt float64)
}
