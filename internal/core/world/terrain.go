// Package world supplies the scene-side collaborators the simulation
// consumes: a terrain height provider and the registry of water sources.
package world

import (
	"math"

	"github.com/cespare/xxhash/v2"
)

// TerrainProvider answers height queries for drop rest clamping and spear
// collision. Implementations must be pure and cheap; the drop loop calls
// HeightAt for every active drop every frame.
type TerrainProvider interface {
	HeightAt(x, z float64) float64
}

// FlatTerrain is the fallback provider used when no real terrain has been
// wired up yet. The zero value is flat ground at height zero.
type FlatTerrain struct {
	Height float64
}

func (f FlatTerrain) HeightAt(x, z float64) float64 { return f.Height }

// Heightfield is a square grid of generated heights with bilinear sampling
// between grid points. Generation is fractal value noise seeded by hashing
// the world name, so equal names produce equal terrain.
type Heightfield struct {
	size     int
	cellSize float64
	heights  []float64
	seed     uint64
}

var _ TerrainProvider = (*Heightfield)(nil)

// noise octaves: coarse rolling hills down to fine surface detail.
var (
	octaveScales     = []float64{1.0, 0.5, 0.25, 0.125}
	octaveAmplitudes = []float64{0.5, 0.25, 0.125, 0.0625}
)

// NewHeightfield generates a size×size grid with the given world-space cell
// spacing and height range, seeded from name.
func NewHeightfield(name string, size int, cellSize, minHeight, maxHeight float64) *Heightfield {
	h := &Heightfield{
		size:     size,
		cellSize: cellSize,
		heights:  make([]float64, size*size),
		seed:     xxhash.Sum64String(name),
	}
	span := maxHeight - minHeight
	for j := 0; j < size; j++ {
		for i := 0; i < size; i++ {
			nx := float64(i) / float64(size-1)
			nz := float64(j) / float64(size-1)
			elevation := 0.0
			for o := range octaveScales {
				elevation += h.smoothNoise(nx*octaveScales[o]*10, nz*octaveScales[o]*10) * octaveAmplitudes[o]
			}
			// octave sum lands roughly in [0, 0.94]; stretch to the range
			h.heights[j*size+i] = minHeight + elevation/0.9375*span
		}
	}
	return h
}

// HeightAt samples the grid bilinearly. Points outside the grid clamp to
// the border, so the world effectively extends flat beyond its edges.
func (h *Heightfield) HeightAt(x, z float64) float64 {
	gx := x/h.cellSize + float64(h.size)/2
	gz := z/h.cellSize + float64(h.size)/2

	gx = clamp(gx, 0, float64(h.size-1))
	gz = clamp(gz, 0, float64(h.size-1))

	x0, z0 := int(gx), int(gz)
	x1, z1 := min(x0+1, h.size-1), min(z0+1, h.size-1)
	tx, tz := gx-float64(x0), gz-float64(z0)

	h00 := h.heights[z0*h.size+x0]
	h10 := h.heights[z0*h.size+x1]
	h01 := h.heights[z1*h.size+x0]
	h11 := h.heights[z1*h.size+x1]

	return lerp(lerp(h00, h10, tx), lerp(h01, h11, tx), tz)
}

// CarveBasin presses a smooth radial depression into the grid, used to sink
// a pond under a water source. depth is how far the center drops.
func (h *Heightfield) CarveBasin(centerX, centerZ, radius, depth float64) {
	for j := 0; j < h.size; j++ {
		for i := 0; i < h.size; i++ {
			wx := (float64(i) - float64(h.size)/2) * h.cellSize
			wz := (float64(j) - float64(h.size)/2) * h.cellSize
			d := math.Hypot(wx-centerX, wz-centerZ)
			if d >= radius {
				continue
			}
			falloff := 1 - d/radius
			h.heights[j*h.size+i] -= depth * smoothstep(falloff)
		}
	}
}

// cellNoise hashes integer grid coordinates with the world seed into [0, 1).
func (h *Heightfield) cellNoise(xi, zi int64) float64 {
	v := h.seed
	v ^= uint64(xi) * 0x9E3779B97F4A7C15
	v ^= uint64(zi) * 0xC2B2AE3D27D4EB4F
	v ^= v >> 33
	v *= 0xFF51AFD7ED558CCD
	v ^= v >> 33
	return float64(v>>11) / float64(1<<53)
}

// smoothNoise is value noise: smoothstep-blended bilinear interpolation of
// the four surrounding cell hashes.
func (h *Heightfield) smoothNoise(x, z float64) float64 {
	x0, z0 := math.Floor(x), math.Floor(z)
	sx, sz := smoothstep(x-x0), smoothstep(z-z0)

	xi, zi := int64(x0), int64(z0)
	n00 := h.cellNoise(xi, zi)
	n10 := h.cellNoise(xi+1, zi)
	n01 := h.cellNoise(xi, zi+1)
	n11 := h.cellNoise(xi+1, zi+1)

	return lerp(lerp(n00, n10, sx), lerp(n01, n11, sx), sz)
}

func lerp(a, b, t float64) float64 { return a + t*(b-a) }

func smoothstep(t float64) float64 { return t * t * (3 - 2*t) }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
