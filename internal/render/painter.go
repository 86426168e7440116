//go:build ebiten

package render

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"active-terrain/internal/core"
)

// GridPainter uploads a composed frame to a single image and draws it scaled.
type GridPainter struct {
	frame *Frame
	img   *ebiten.Image
}

// NewGridPainter allocates a painter for a grid of the given size.
func NewGridPainter(size core.Size) *GridPainter {
	return &GridPainter{frame: NewFrame(size), img: ebiten.NewImage(size.W, size.H)}
}

// Blit composes cells and the overlay and draws them onto dst.
func (gp *GridPainter) Blit(dst *ebiten.Image, cells []uint8, palette []color.RGBA, fields Fields, mode Overlay, scale int) {
	if scale <= 0 {
		scale = 1
	}
	gp.frame.Compose(cells, palette, fields, mode)
	gp.img.WritePixels(gp.frame.Pixels())

	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(float64(scale), float64(scale))
	dst.DrawImage(gp.img, op)
}

// Size returns the grid dimensions of the painter.
func (gp *GridPainter) Size() core.Size { return gp.frame.Size() }
