package host

import (
	"math"

	"active-terrain/internal/core"
	"active-terrain/internal/terrain"
)

// RegisterGlower implements terrain.Lighting.
func (w *World) RegisterGlower(l *terrain.LightSource) { w.lights.Put(l) }

// DeregisterGlower implements terrain.Lighting.
func (w *World) DeregisterGlower(l *terrain.LightSource) { w.lights.Remove(l) }

// Lights returns the registered light sources.
func (w *World) Lights() []*terrain.LightSource {
	out := make([]*terrain.LightSource, 0, w.lights.Size())
	w.lights.Each(func(l *terrain.LightSource) {
		out = append(out, l)
	})
	return out
}

// LightAt returns the brightness at c in [0, 1]: full inside a source's
// overlight radius, fading linearly to zero at its glow radius.
func (w *World) LightAt(c core.Cell) float64 {
	var best float64
	w.lights.Each(func(l *terrain.LightSource) {
		if l.GlowRadius <= 0 {
			return
		}
		d := math.Hypot(float64(c.X-l.Cell.X), float64(c.Y-l.Cell.Y))
		var v float64
		switch {
		case d <= l.OverlightRadius:
			v = 1
		case d < l.GlowRadius:
			v = 1 - (d-l.OverlightRadius)/(l.GlowRadius-l.OverlightRadius)
		}
		best = max(best, v)
	})
	return best
}
