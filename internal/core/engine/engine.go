// Package engine drives the simulation: one Step per render frame, with a
// fixed, documented system order so credit/debit flows and test outputs
// stay deterministic.
package engine

import (
	"errors"
	"math/rand"

	"github.com/cespare/xxhash/v2"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/aquabend/aquabend/internal/core/belt"
	"github.com/aquabend/aquabend/internal/core/config"
	"github.com/aquabend/aquabend/internal/core/drop"
	"github.com/aquabend/aquabend/internal/core/events/bus"
	"github.com/aquabend/aquabend/internal/core/observability/log"
	"github.com/aquabend/aquabend/internal/core/physics"
	"github.com/aquabend/aquabend/internal/core/spear"
	"github.com/aquabend/aquabend/internal/core/world"
)

// Gameplay event types published on the engine's bus.
const (
	EventDropCollected = "drop.collected" // Data: drops banked this frame (int)
	EventSpearFired    = "spear.fired"    // Data: remaining water count (int)
	EventSpearExploded = "spear.exploded" // Data: drops scattered (int)
	EventBeltFull      = "belt.full"      // Data: belt capacity (int)
)

// InputSource is the gesture/input collaborator sampled once per frame.
// IsAbsorbing is level-triggered; FireRequested is edge-triggered by the
// input layer and may be reported on at most one frame per press.
type InputSource interface {
	IsAbsorbing() bool
	FireRequested() bool
	AimPoint() mgl64.Vec3
	CharacterPosition() mgl64.Vec3
	CameraForward() mgl64.Vec3
}

// UpdateFunc is a per-frame hook invoked by the engine's dispatcher.
type UpdateFunc func(dt float64)

type namedUpdate struct {
	name string
	fn   UpdateFunc
}

// Engine owns the simulation clock and wires the subsystems together.
type Engine struct {
	cfg    config.Config
	logger log.Log
	events *bus.Bus

	world   *physics.KinematicWorld
	sources *world.SourceRegistry
	belt    *belt.Belt
	drops   *drop.Field
	spears  *spear.System
	input   InputSource
	rng     *rand.Rand

	tick    uint64
	simTime float64
	in      drop.Input
	fire    bool

	// deferred work runs at the start of the tick it becomes due,
	// before any system touches the pools.
	deferred *deferredQueue

	updates  []namedUpdate
	beltFull bool

	snapshot  Snapshot
	trailBufs [][]mgl64.Vec3
}

// New wires an engine. The input source is mandatory: a nil collaborator
// here is a programmer error and fails at construction, not mid-frame.
// A nil terrain provider degrades to flat ground; a nil source registry
// degrades to an empty one.
func New(cfg config.Config, input InputSource, terrain world.TerrainProvider,
	sources *world.SourceRegistry, logger log.Log) (*Engine, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if input == nil {
		return nil, errors.New("engine: nil input source")
	}
	if logger == nil {
		return nil, errors.New("engine: nil logger")
	}
	if terrain == nil {
		logger.Warn("engine: no terrain provider, using flat ground")
		terrain = world.FlatTerrain{}
	}
	if sources == nil {
		sources = world.NewSourceRegistry()
	}

	e := &Engine{
		cfg:      cfg,
		logger:   logger.With(log.String("component", "engine")),
		events:   bus.New(),
		sources:  sources,
		input:    input,
		rng:      rand.New(rand.NewSource(int64(xxhash.Sum64String(cfg.WorldSeed)))),
		deferred: newDeferredQueue(),
	}
	e.world = physics.NewKinematicWorld(terrain.HeightAt, logger)
	e.belt = belt.New(cfg.Belt)
	e.drops = drop.NewField(cfg.Drops, cfg.Merge, e.world, terrain, e.belt, e.rng, logger)
	e.spears = spear.NewSystem(cfg.Spears, e.world, e.belt, e.scatter, e, logger)

	// core frame order: deferred cleanup, then input, then collection
	// before merge before spawn
	e.register("deferred", e.updateDeferred)
	e.register("input", e.updateInput)
	e.register("ambient", e.updateAmbient)
	e.register("drops", e.updateDrops)
	e.register("merge", e.updateMerge)
	e.register("spears", e.updateSpears)
	e.register("snapshot", e.updateSnapshot)

	e.snapshot.Drops = make([]DropState, 0, cfg.Drops.PoolSize)
	e.snapshot.Spears = make([]SpearState, 0, cfg.Spears.PoolSize)
	return e, nil
}

// Step advances the simulation by dt seconds. Call once per render frame,
// after the physics world's own step.
func (e *Engine) Step(dt float64) {
	e.tick++
	e.simTime += dt
	e.world.Step(dt)
	for _, u := range e.updates {
		u.fn(dt)
	}
}

// Register adds an external per-frame hook, invoked after the core systems
// each frame in registration order. The name identifies the hook for
// Deregister and for diagnostics.
func (e *Engine) Register(name string, fn UpdateFunc) {
	e.register(name, fn)
}

// Deregister removes a hook by name. Unknown names are ignored.
func (e *Engine) Deregister(name string) {
	for i := range e.updates {
		if e.updates[i].name == name {
			e.updates = append(e.updates[:i], e.updates[i+1:]...)
			return
		}
	}
}

// After schedules fn to run at the start of the tick `ticks` frames from
// now. It implements spear.Deferrer.
func (e *Engine) After(ticks int, fn func()) {
	e.deferred.schedule(e.tick+uint64(ticks), fn)
}

// Events returns the gameplay event bus for HUD and sound collaborators.
func (e *Engine) Events() *bus.Bus { return e.events }

// HUD surface, polled once per frame by the meter widget.

func (e *Engine) CurrentWaterCount() int { return e.belt.Count() }
func (e *Engine) MaxWaterCapacity() int  { return e.belt.Capacity() }
func (e *Engine) RequiredToFire() int    { return e.belt.RequiredToFire() }
func (e *Engine) CanFire() bool          { return e.belt.CanFire() }

// SimTime returns accumulated simulation time in seconds.
func (e *Engine) SimTime() float64 { return e.simTime }

// Tick returns the current frame number.
func (e *Engine) Tick() uint64 { return e.tick }

func (e *Engine) register(name string, fn UpdateFunc) {
	e.updates = append(e.updates, namedUpdate{name: name, fn: fn})
}

func (e *Engine) updateDeferred(dt float64) {
	e.deferred.runDue(e.tick)
}

func (e *Engine) updateInput(dt float64) {
	e.in = drop.Input{
		Absorbing: e.input.IsAbsorbing(),
		Target:    e.input.AimPoint(),
	}
	e.fire = e.input.FireRequested()
}

func (e *Engine) updateAmbient(dt float64) {
	if !e.in.Absorbing {
		return
	}
	src, ok := e.sources.WithinRadius(e.in.Target, e.cfg.Sources.SearchRadius)
	if !ok {
		return
	}
	e.drops.TryAmbient(dt, src)
}

func (e *Engine) updateDrops(dt float64) {
	collected := e.drops.Step(dt, e.in)
	if collected > 0 {
		e.events.Publish(bus.NewEvent(EventDropCollected, "drops", collected))
	}
	full := e.belt.Count() == e.belt.Capacity()
	if full && !e.beltFull {
		e.events.Publish(bus.NewEvent(EventBeltFull, "belt", e.belt.Capacity()))
	}
	e.beltFull = full
}

func (e *Engine) updateMerge(dt float64) {
	e.drops.MergePass()
}

func (e *Engine) updateSpears(dt float64) {
	if e.fire {
		origin := e.input.CharacterPosition()
		dir := e.input.CameraForward()
		if e.spears.Fire(origin, dir) {
			e.events.Publish(bus.NewEvent(EventSpearFired, "spears", e.belt.Count()))
		}
	}
	e.spears.Step(dt)
}

// scatter is handed to the spear system as its explosion effect: spawn
// free drops at the impact point and announce the explosion.
func (e *Engine) scatter(at mgl64.Vec3, n int, speed float64) int {
	spawned := e.drops.SpawnBurst(at, n, speed)
	e.events.Publish(bus.NewEvent(EventSpearExploded, "spears", spawned))
	return spawned
}
