package drop

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/aquabend/aquabend/internal/core/pool"
)

// MergePass combines overlapping drops and splits oversized ones. It is
// throttled to every FrameStride-th call: merging is a gameplay-feel
// mechanic, and half-rate is indistinguishable at 60 Hz. Returns how many
// merges and splits happened.
func (f *Field) MergePass() (merges, splits int) {
	f.mergeFrame++
	if f.mergeFrame%f.mergeCfg.FrameStride != 0 {
		return 0, 0
	}

	f.scratch = f.scratch[:0]
	f.pool.ForEachActive(func(h pool.Handle, d *Drop) {
		f.scratch = append(f.scratch, h)
	})

	for i := 0; i < len(f.scratch); i++ {
		for j := i + 1; j < len(f.scratch); j++ {
			survivor, ok := f.tryMerge(f.scratch[i], f.scratch[j])
			if !ok {
				continue
			}
			merges++
			if f.trySplit(survivor) {
				splits++
			}
		}
	}
	return merges, splits
}

// tryMerge combines two drops when they overlap. The merge conserves
// volume (scale³ sums) and mass-weights position and velocity, so the
// heavier drop dominates. Survivor selection is deterministic: larger
// volume wins, ties favor the lower handle index.
func (f *Field) tryMerge(a, b pool.Handle) (pool.Handle, bool) {
	da, db := f.pool.Get(a), f.pool.Get(b)
	if da == nil || db == nil || da.merged || db.merged {
		return pool.None, false
	}

	combined := f.mergeCfg.OverlapFactor * (da.Radius() + db.Radius())
	if da.Position.Sub(db.Position).LenSqr() >= combined*combined {
		return pool.None, false
	}

	survivor, absorbed := a, b
	if db.Volume() > da.Volume() {
		survivor, absorbed = b, a
	}
	sd, ad := f.pool.Get(survivor), f.pool.Get(absorbed)

	vs, va := sd.Volume(), ad.Volume()
	total := vs + va
	sd.Position = sd.Position.Mul(vs / total).Add(ad.Position.Mul(va / total))
	sd.Velocity = sd.Velocity.Mul(vs / total).Add(ad.Velocity.Mul(va / total))
	sd.Scale = math.Cbrt(total)
	sd.merged = true

	f.world.MoveBody(bodyOwner, sd.Body, sd.Position)
	f.release(absorbed, ad)
	return survivor, true
}

// trySplit sheds volume from a drop that outgrew the split ceiling:
// half the volume stays, half seeds a new drop at a randomized offset with
// outward velocity. When the pool has no free slot the split silently does
// not happen and the oversized drop persists.
func (f *Field) trySplit(h pool.Handle) bool {
	d := f.pool.Get(h)
	if d == nil || d.Scale <= f.mergeCfg.SplitCeiling {
		return false
	}

	halfScale := d.Scale / math.Cbrt(2)
	angle := 2 * math.Pi * f.rng.Float64()
	dir := mgl64.Vec3{math.Cos(angle), 0.3, math.Sin(angle)}

	nh, ok := f.Spawn(
		d.Position.Add(dir.Mul(f.mergeCfg.SplitOffset)),
		d.Velocity.Add(dir.Mul(f.mergeCfg.SplitKick)),
		halfScale, 0)
	if !ok {
		return false
	}
	f.pool.Get(nh).merged = true
	d.Scale = halfScale
	return true
}
