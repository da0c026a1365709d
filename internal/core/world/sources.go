package world

import (
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Color is a normalized RGB triple in [0, 1].
type Color struct {
	R, G, B float64
}

// Source is a scene object that may act as a water source. The rendering
// adapter maps its native node type into this struct; the core never
// introspects scene-graph objects directly.
type Source struct {
	Name     string
	Position mgl64.Vec3
	Radius   float64
	Color    *Color // material color, if the adapter knows one
	Tagged   bool   // explicit water tag set by the scene author
}

var waterKeywords = []string{"water", "lake", "river", "pond"}

// IsWaterSource classifies a scene object as water. Any of the three
// signals is enough: a watery name, a blue-dominant material, or an
// explicit tag. The color rule is a heuristic, not a physical test.
func IsWaterSource(s Source) bool {
	if s.Tagged {
		return true
	}
	name := strings.ToLower(s.Name)
	for _, kw := range waterKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	if c := s.Color; c != nil {
		if c.B > 0.5 && c.B > c.R && c.B > c.G {
			return true
		}
	}
	return false
}

// SourceRegistry holds the water sources of the current scene. It is
// read-only to the simulation; the scene layer populates it at load time.
type SourceRegistry struct {
	sources []Source
}

// NewSourceRegistry builds a registry from the given scene objects,
// keeping only those that classify as water.
func NewSourceRegistry(objects ...Source) *SourceRegistry {
	r := &SourceRegistry{}
	for _, o := range objects {
		r.Add(o)
	}
	return r
}

// Add registers the object if it classifies as a water source and reports
// whether it was accepted.
func (r *SourceRegistry) Add(s Source) bool {
	if !IsWaterSource(s) {
		return false
	}
	r.sources = append(r.sources, s)
	return true
}

// WithinRadius reports the first source whose influence sphere overlaps a
// sphere of the given radius around point. It short-circuits on the first
// match; callers only need a yes/no plus an emission anchor.
func (r *SourceRegistry) WithinRadius(point mgl64.Vec3, radius float64) (*Source, bool) {
	for i := range r.sources {
		s := &r.sources[i]
		reach := radius + s.Radius
		if point.Sub(s.Position).LenSqr() < reach*reach {
			return s, true
		}
	}
	return nil, false
}

// Len returns the number of registered sources.
func (r *SourceRegistry) Len() int { return len(r.sources) }
