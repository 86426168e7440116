package host

import (
	"errors"
	"fmt"

	"active-terrain/internal/core"
	"active-terrain/internal/terrain"
)

var (
	// ErrOutOfBounds is returned for mutations outside the grid.
	ErrOutOfBounds = errors.New("cell out of bounds")
	// ErrNoUnderLayer is returned by RemoveTopLayer when nothing lies below.
	ErrNoUnderLayer = errors.New("no under layer")
)

// TerrainAt implements terrain.Grid.
func (w *World) TerrainAt(c core.Cell) terrain.KindID { return w.top.At(c) }

// UnderAt returns the kind kept below a layerable top, or terrain.NoKind.
func (w *World) UnderAt(c core.Cell) terrain.KindID { return w.under.At(c) }

// Subscribe implements terrain.Grid. Observers are notified in
// subscription order.
func (w *World) Subscribe(o terrain.GridObserver) func() {
	w.nextObsID++
	id := w.nextObsID
	w.observers = append(w.observers, observer{id: id, o: o})
	return func() {
		for i, ob := range w.observers {
			if ob.id == id {
				w.observers = append(w.observers[:i], w.observers[i+1:]...)
				return
			}
		}
	}
}

// SetTerrain places kind at c, notifying observers before and after. A
// layerable kind placed over a non-layerable one keeps it as the under
// layer; anything else replaces the cell outright.
func (w *World) SetTerrain(c core.Cell, kind *terrain.Kind) error {
	if kind == nil {
		return errors.New("set terrain: nil kind")
	}
	if !w.size.Contains(c) {
		return fmt.Errorf("set terrain %s at %v: %w", kind.Name, c, ErrOutOfBounds)
	}

	for _, ob := range w.observers {
		ob.o.BeforeSetTerrain(c, kind.ID)
	}
	current := w.catalog.Kind(w.top.At(c))
	switch {
	case kind.Layerable && current != nil && !current.Layerable:
		w.under.Set(c, current.ID)
	case !kind.Layerable:
		w.under.Set(c, terrain.NoKind)
	}
	w.top.Set(c, kind.ID)
	w.refreshCell(c)
	for _, ob := range w.observers {
		ob.o.AfterSetTerrain(c, kind.ID)
	}

	w.log.Debug("terrain set", "cell", c.String(), "kind", kind.Name)
	return nil
}

// RemoveTopLayer removes a layerable top and exposes the terrain beneath.
func (w *World) RemoveTopLayer(c core.Cell) error {
	if !w.size.Contains(c) {
		return fmt.Errorf("remove top layer at %v: %w", c, ErrOutOfBounds)
	}
	below := w.under.At(c)
	if below == terrain.NoKind {
		return fmt.Errorf("remove top layer at %v: %w", c, ErrNoUnderLayer)
	}

	for _, ob := range w.observers {
		ob.o.BeforeRemoveTopLayer(c)
	}
	w.top.Set(c, below)
	w.under.Set(c, terrain.NoKind)
	w.refreshCell(c)
	for _, ob := range w.observers {
		ob.o.AfterRemoveTopLayer(c)
	}

	w.log.Debug("top layer removed", "cell", c.String())
	return nil
}

// Place writes terrain without notifying observers. Loaders use it to
// build a region before its registry is rescanned.
func (w *World) Place(c core.Cell, top, under *terrain.Kind) {
	if !w.size.Contains(c) {
		return
	}
	w.top.Set(c, kindID(top))
	w.under.Set(c, kindID(under))
	w.refreshCell(c)
}

// Fill places kind on every cell without notifying observers.
func (w *World) Fill(kind *terrain.Kind) {
	w.top.Fill(kindID(kind))
	w.under.Clear()
	w.rebuildDisplay()
}

func kindID(k *terrain.Kind) terrain.KindID {
	if k == nil {
		return terrain.NoKind
	}
	return k.ID
}
