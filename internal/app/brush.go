package app

import (
	"context"
	"fmt"

	"active-terrain/internal/core"
	"active-terrain/internal/sim"
	"active-terrain/internal/store"
	"active-terrain/internal/terrain"
)

// Brush is the kind placed by clicking in the viewer.
type Brush struct {
	kinds []*terrain.Kind
	idx   int
}

// NewBrush cycles over every kind in the catalog, starting at the first
// special one.
func NewBrush(cat *terrain.Catalog) *Brush {
	b := &Brush{kinds: cat.Kinds()}
	for i, k := range b.kinds {
		if k.Special() {
			b.idx = i
			break
		}
	}
	return b
}

// Kind returns the selected kind, or nil for an empty catalog.
func (b *Brush) Kind() *terrain.Kind {
	if len(b.kinds) == 0 {
		return nil
	}
	return b.kinds[b.idx]
}

// Next selects the following kind.
func (b *Brush) Next() {
	if len(b.kinds) > 0 {
		b.idx = (b.idx + 1) % len(b.kinds)
	}
}

// Prev selects the preceding kind.
func (b *Brush) Prev() {
	if len(b.kinds) > 0 {
		b.idx = (b.idx + len(b.kinds) - 1) % len(b.kinds)
	}
}

// CellAt converts screen coordinates into a grid cell.
func CellAt(x, y, scale int, size core.Size) (core.Cell, bool) {
	if scale <= 0 {
		scale = 1
	}
	if x < 0 || y < 0 {
		return core.Cell{}, false
	}
	c := core.Cell{X: x / scale, Y: y / scale}
	return c, size.Contains(c)
}

// Saver persists region saves.
type Saver interface {
	SaveRegion(ctx context.Context, save *store.Save) error
}

// QuickSave snapshots the session and writes it under name.
func QuickSave(ctx context.Context, s *sim.Session, saver Saver, name string) error {
	st, err := s.Snapshot()
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	return saver.SaveRegion(ctx, &store.Save{
		Name:    name,
		Seed:    st.Seed,
		World:   st.World,
		Terrain: st.Terrain,
	})
}

// statusLine summarises the session for the on-screen HUD.
func statusLine(s *sim.Session, brush *Brush, overlay fmt.Stringer, paused bool) string {
	w := s.World()
	state := "running"
	if paused {
		state = "paused"
	}
	label := "-"
	if k := brush.Kind(); k != nil {
		label = k.Label
	}
	return fmt.Sprintf("tick %d  %s  terrain %d  lights %d  draw %.0fW  filth %d\nbrush: %s  overlay: %s",
		w.Ticks(), state, s.Registry().Len(), len(w.Lights()), w.TotalDraw(), w.TotalFilth(),
		label, overlay)
}
