package render

import (
	"fmt"
	"image/color"

	"active-terrain/internal/core"
)

// Overlay selects the field drawn over the terrain colors.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayTemperature
	OverlayLight
	OverlaySnow
	overlayCount
)

var overlayNames = [...]string{"none", "temperature", "light", "snow"}

func (o Overlay) String() string {
	if o < 0 || o >= overlayCount {
		return fmt.Sprintf("overlay(%d)", int(o))
	}
	return overlayNames[o]
}

// Next cycles to the following overlay.
func (o Overlay) Next() Overlay { return (o + 1) % overlayCount }

// Temperature range mapped onto the overlay gradient.
const (
	ColdTemperature = -20.0
	HotTemperature  = 40.0
)

var (
	LightTint = color.RGBA{R: 255, G: 230, B: 140, A: 255}
	SnowTint  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Fields is the per-cell read side of a world used by overlays.
type Fields interface {
	Size() core.Size
	TemperatureAt(c core.Cell) float64
	LightAt(c core.Cell) float64
	SnowDepth(c core.Cell) float64
}

// Frame owns the pixel buffer for one grid.
type Frame struct {
	size core.Size
	buf  []byte

	mask []float32
	cols []color.RGBA
}

// NewFrame allocates a frame for a grid of the given size.
func NewFrame(size core.Size) *Frame {
	f := &Frame{}
	f.Resize(size)
	return f
}

// Resize reallocates the buffers when the grid size changed.
func (f *Frame) Resize(size core.Size) {
	if size == f.size && f.buf != nil {
		return
	}
	f.size = size
	f.buf = make([]byte, 4*size.Area())
	f.mask = make([]float32, size.Area())
	f.cols = make([]color.RGBA, size.Area())
}

// Size returns the grid size of the frame.
func (f *Frame) Size() core.Size { return f.size }

// Pixels returns the RGBA buffer, row-major.
func (f *Frame) Pixels() []byte { return f.buf }

// Compose paints cells through palette and blends the selected overlay.
// Cells whose length does not match the frame are ignored.
func (f *Frame) Compose(cells []uint8, palette []color.RGBA, fields Fields, mode Overlay) {
	if len(cells) != f.size.Area() {
		return
	}
	fillPaletteRGBA(f.buf, cells, palette)
	if fields == nil || fields.Size() != f.size {
		return
	}

	switch mode {
	case OverlayTemperature:
		for i := range f.cols {
			t := fields.TemperatureAt(f.size.CellAt(i))
			f.cols[i] = temperatureColor((t - ColdTemperature) / (HotTemperature - ColdTemperature))
		}
		blendColors(f.buf, f.cols, 0.6)
	case OverlayLight:
		for i := range f.mask {
			f.mask[i] = float32(fields.LightAt(f.size.CellAt(i)))
		}
		blendMask(f.buf, f.mask, LightTint)
	case OverlaySnow:
		for i := range f.mask {
			f.mask[i] = float32(fields.SnowDepth(f.size.CellAt(i)))
		}
		blendMask(f.buf, f.mask, SnowTint)
	}
}
