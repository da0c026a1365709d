// Package belt implements the water belt: the bounded counter of collected
// drops that gates firing, plus the orbit-ring layout its indicator spheres
// are rendered from.
package belt

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/aquabend/aquabend/internal/core/config"
)

// Belt is the single source of truth for the water resource economy.
// Count stays inside [0, capacity] at all times.
type Belt struct {
	count    int
	capacity int
	required int

	maxVisible int
	ringRadius float64
	orbitRate  float64

	// layout is reused across frames so RingLayout never allocates.
	layout []mgl64.Vec3
}

// New builds an empty belt from the tuning config.
func New(cfg config.BeltConfig) *Belt {
	return &Belt{
		capacity:   cfg.Capacity,
		required:   cfg.RequiredToFire,
		maxVisible: cfg.MaxVisible,
		ringRadius: cfg.RingRadius,
		orbitRate:  cfg.OrbitRate,
		layout:     make([]mgl64.Vec3, 0, cfg.MaxVisible),
	}
}

// Credit adds n collected drops, clamping at capacity, and returns how many
// were actually banked.
func (b *Belt) Credit(n int) int {
	if n <= 0 {
		return 0
	}
	room := b.capacity - b.count
	if n > room {
		n = room
	}
	b.count += n
	return n
}

// Debit removes n drops all-or-nothing. It reports false and leaves the
// count unchanged when fewer than n are banked.
func (b *Belt) Debit(n int) bool {
	if n < 0 || n > b.count {
		return false
	}
	b.count -= n
	return true
}

// CanFire reports whether enough water is banked for one spear.
func (b *Belt) CanFire() bool { return b.count >= b.required }

func (b *Belt) Count() int          { return b.count }
func (b *Belt) Capacity() int       { return b.capacity }
func (b *Belt) RequiredToFire() int { return b.required }

// Fill returns the belt's fill ratio in [0, 1], which also drives the
// indicator intensity.
func (b *Belt) Fill() float64 {
	return float64(b.count) / float64(b.capacity)
}

// RingLayout returns world positions for the visible indicator spheres
// orbiting the anchor. The visual count is capped at maxVisible regardless
// of the logical count; the orbit radius grows with the fill ratio. The
// returned slice is reused on the next call.
func (b *Belt) RingLayout(anchor mgl64.Vec3, simTime float64) []mgl64.Vec3 {
	visible := b.count
	if visible > b.maxVisible {
		visible = b.maxVisible
	}
	b.layout = b.layout[:0]
	if visible == 0 {
		return b.layout
	}
	radius := b.ringRadius * (0.5 + 0.5*b.Fill())
	phase := simTime * b.orbitRate * 2 * math.Pi
	for i := 0; i < visible; i++ {
		angle := phase + 2*math.Pi*float64(i)/float64(visible)
		b.layout = append(b.layout, mgl64.Vec3{
			anchor.X() + radius*math.Cos(angle),
			anchor.Y() + 0.15*math.Sin(angle*2+phase),
			anchor.Z() + radius*math.Sin(angle),
		})
	}
	return b.layout
}
