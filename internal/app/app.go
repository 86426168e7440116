//go:build ebiten

package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"active-terrain/internal/render"
	"active-terrain/internal/sim"
)

// Options configures a Game.
type Options struct {
	Scale         int
	FramesPerTick int
	// Saver and SaveName enable quick-save on F5.
	Saver    Saver
	SaveName string
	Logger   *slog.Logger
}

// Game adapts a terrain session to the ebiten.Game interface.
type Game struct {
	session *sim.Session
	painter *render.GridPainter
	brush   *Brush
	overlay render.Overlay
	opts    Options

	frames   int
	paused   bool
	tickOnce bool
	seed     int64
}

// New constructs a Game for the provided session.
func New(session *sim.Session, opts Options) *Game {
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.FramesPerTick <= 0 {
		opts.FramesPerTick = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Game{
		session: session,
		painter: render.NewGridPainter(session.Size()),
		brush:   NewBrush(session.Registry().Catalog()),
		opts:    opts,
		seed:    session.Seed(),
	}
}

// Reset rebuilds the session with the provided seed.
func (g *Game) Reset(seed int64) {
	g.seed = seed
	g.session.Reset(seed)
	g.tickOnce = false
}

// Update handles input, runs the frame hook and advances the simulation.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyN) {
		g.tickOnce = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.Reset(g.seed)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		g.Reset(time.Now().UnixNano())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyO) {
		g.overlay = g.overlay.Next()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		if ebiten.IsKeyPressed(ebiten.KeyShift) {
			g.brush.Prev()
		} else {
			g.brush.Next()
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) && g.opts.Saver != nil {
		if err := QuickSave(context.Background(), g.session, g.opts.Saver, g.opts.SaveName); err != nil {
			g.opts.Logger.Error("quick save failed", "name", g.opts.SaveName, "err", err)
		}
	}
	g.handleMouse()

	g.session.Frame()
	g.frames++
	if (!g.paused && g.frames%g.opts.FramesPerTick == 0) || g.tickOnce {
		g.session.Step()
		g.tickOnce = false
	}
	g.session.World().TakeDirty()
	return nil
}

func (g *Game) handleMouse() {
	w := g.session.World()
	x, y := ebiten.CursorPosition()
	c, ok := CellAt(x, y, g.opts.Scale, w.Size())
	if !ok {
		return
	}
	switch {
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		if k := g.brush.Kind(); k != nil && w.TerrainAt(c) != k.ID {
			if err := w.SetTerrain(c, k); err != nil {
				g.opts.Logger.Warn("paint failed", "cell", c.String(), "err", err)
			}
		}
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonRight):
		if err := w.RemoveTopLayer(c); err != nil {
			g.opts.Logger.Debug("remove top layer", "cell", c.String(), "err", err)
		}
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonMiddle):
		w.SetPowered(c, !w.Powered(c))
	}
}

// Draw renders the terrain, the active overlay and the status line.
func (g *Game) Draw(screen *ebiten.Image) {
	s := g.session
	g.painter.Blit(screen, s.Cells(), s.Palette(), s.World(), g.overlay, g.opts.Scale)
	ebitenutil.DebugPrint(screen, statusLine(s, g.brush, g.overlay, g.paused))
}

// Layout returns the logical screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	s := g.session.Size()
	return s.W * g.opts.Scale, s.H * g.opts.Scale
}
