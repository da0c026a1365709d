package engine

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/aquabend/aquabend/internal/core/drop"
	"github.com/aquabend/aquabend/internal/core/pool"
	"github.com/aquabend/aquabend/internal/core/spear"
)

// DropState is one drop's render transform.
type DropState struct {
	Position mgl64.Vec3
	Scale    float64
}

// SpearState is one spear's render transform plus its tail positions,
// oldest first.
type SpearState struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
	Trail       []mgl64.Vec3
}

// Snapshot is the per-frame render surface: every transform a renderer
// needs, rebuilt at the end of each Step. The slices are reused between
// frames; consumers must not hold them across Step calls.
type Snapshot struct {
	Tick       uint64
	Time       float64
	Drops      []DropState
	Spears     []SpearState
	BeltRing   []mgl64.Vec3
	WaterCount int
	CanFire    bool
}

// Snapshot returns the most recent frame snapshot.
func (e *Engine) Snapshot() *Snapshot { return &e.snapshot }

func (e *Engine) updateSnapshot(dt float64) {
	s := &e.snapshot
	s.Tick = e.tick
	s.Time = e.simTime
	s.WaterCount = e.belt.Count()
	s.CanFire = e.belt.CanFire()

	s.Drops = s.Drops[:0]
	e.drops.ForEachActive(func(_ pool.Handle, d *drop.Drop) {
		s.Drops = append(s.Drops, DropState{Position: d.Position, Scale: d.Scale})
	})

	spearIdx := 0
	s.Spears = s.Spears[:0]
	e.spears.ForEachActive(func(_ pool.Handle, sp *spear.Spear) {
		var trail []mgl64.Vec3
		if spearIdx < len(e.trailBufs) {
			trail = e.trailBufs[spearIdx]
		}
		trail = e.spears.Trail(sp, trail)
		if spearIdx < len(e.trailBufs) {
			e.trailBufs[spearIdx] = trail
		} else {
			e.trailBufs = append(e.trailBufs, trail)
		}
		spearIdx++
		s.Spears = append(s.Spears, SpearState{
			Position:    sp.Position,
			Orientation: sp.Orientation,
			Trail:       trail,
		})
	})

	s.BeltRing = e.belt.RingLayout(e.input.CharacterPosition(), e.simTime)
}
