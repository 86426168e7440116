package host

import (
	"image/color"

	"active-terrain/internal/core"
	"active-terrain/internal/terrain"
)

// Cells exposes the display buffer: one palette index per cell, which is
// the top terrain kind id.
func (w *World) Cells() []uint8 { return w.display }

// Palette maps display values to colors. Index 0 is bare ground.
func (w *World) Palette() []color.RGBA {
	kinds := w.catalog.Kinds()
	palette := make([]color.RGBA, len(kinds)+1)
	palette[0] = color.RGBA{R: 16, G: 16, B: 20, A: 255}
	for _, k := range kinds {
		if int(k.ID) < len(palette) {
			palette[k.ID] = k.Color.RGBA()
		}
	}
	return palette
}

// SnowColor is blended over cells proportionally to their snow depth.
var SnowColor = color.RGBA{R: 240, G: 244, B: 250, A: 255}

func (w *World) refreshCell(c core.Cell) {
	w.display[w.size.Index(c)] = displayValue(w.top.At(c))
}

func (w *World) rebuildDisplay() {
	for i, id := range w.top.Cells() {
		w.display[i] = displayValue(id)
	}
}

func displayValue(id terrain.KindID) uint8 {
	if id > 0xff {
		return 0
	}
	return uint8(id)
}
