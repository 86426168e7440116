// Package render converts terrain worlds into RGBA pixel buffers. The
// ebiten painter is only built with the ebiten tag; everything else is
// plain buffer math.
package render

import (
	"image/color"
	"math"
)

// fillPaletteRGBA converts cell values into RGBA pixels using a palette. When
// the palette is empty the buffer is cleared to transparent black.
func fillPaletteRGBA(buf []byte, cells []uint8, palette []color.RGBA) {
	if len(palette) == 0 {
		clear(buf[:4*len(cells)])
		return
	}

	last := len(palette) - 1
	for i, c := range cells {
		idx := int(c)
		if idx > last {
			idx = last
		}
		col := palette[idx]
		base := i * 4
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}

// blendMask tints buf towards tint where mask is non-zero. Intensities are
// clamped to [0, 1]; brighter cells get a stronger, lighter tint.
func blendMask(buf []byte, mask []float32, tint color.RGBA) {
	const (
		maxAlpha      = 0.55
		glowBase      = 0.35
		glowRange     = 0.65
		intensityBias = 0.75
	)
	for i, v := range mask {
		intensity := clamp01(float64(v))
		if intensity == 0 {
			continue
		}
		alpha := maxAlpha * math.Pow(intensity, intensityBias)
		glow := glowBase + glowRange*math.Sqrt(intensity)
		col := color.RGBA{
			R: scaleColorComponent(tint.R, glow),
			G: scaleColorComponent(tint.G, glow),
			B: scaleColorComponent(tint.B, glow),
			A: 255,
		}
		blendPixel(buf[i*4:i*4+4], col, alpha)
	}
}

// blendColors mixes a per-cell color into buf at a fixed alpha.
func blendColors(buf []byte, cols []color.RGBA, alpha float64) {
	for i, col := range cols {
		blendPixel(buf[i*4:i*4+4], col, alpha)
	}
}

func blendPixel(px []byte, col color.RGBA, alpha float64) {
	px[0] = lerpComponent(px[0], col.R, alpha)
	px[1] = lerpComponent(px[1], col.G, alpha)
	px[2] = lerpComponent(px[2], col.B, alpha)
	if px[3] < 255 {
		px[3] = lerpComponent(px[3], 255, alpha)
	}
}

// temperatureColor maps t in [0, 1] from cold blue to hot red.
func temperatureColor(t float64) color.RGBA {
	t = clamp01(t)
	stops := []struct {
		t   float64
		col color.RGBA
	}{
		{0.0, color.RGBA{R: 40, G: 70, B: 200, A: 255}},
		{0.35, color.RGBA{R: 110, G: 190, B: 230, A: 255}},
		{0.5, color.RGBA{R: 235, G: 235, B: 220, A: 255}},
		{0.75, color.RGBA{R: 240, G: 170, B: 60, A: 255}},
		{1.0, color.RGBA{R: 210, G: 40, B: 30, A: 255}},
	}
	for i := 1; i < len(stops); i++ {
		curr := stops[i]
		if t <= curr.t {
			prev := stops[i-1]
			span := curr.t - prev.t
			var local float64
			if span > 0 {
				local = (t - prev.t) / span
			}
			return lerpRGBA(prev.col, curr.col, local)
		}
	}
	return stops[len(stops)-1].col
}

func lerpRGBA(a, b color.RGBA, t float64) color.RGBA {
	t = clamp01(t)
	return color.RGBA{
		R: lerpComponent(a.R, b.R, t),
		G: lerpComponent(a.G, b.G, t),
		B: lerpComponent(a.B, b.B, t),
		A: lerpComponent(a.A, b.A, t),
	}
}

func lerpComponent(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

func scaleColorComponent(value uint8, factor float64) uint8 {
	scaled := math.Round(float64(value) * factor)
	if scaled < 0 {
		return 0
	}
	if scaled > 255 {
		return 255
	}
	return uint8(scaled)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
