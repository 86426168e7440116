package host

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/zyedidia/generic/mapset"

	"active-terrain/internal/core"
	"active-terrain/internal/terrain"
)

// Filth is a pile of dirt on one cell. Each thinning step removes one
// thickness level; it is destroyed when none remain.
type Filth struct {
	w *World

	id        string
	cell      core.Cell
	thickness int
	work      float64
	hasWork   bool
	seq       uint64
}

// ID implements terrain.Filth.
func (f *Filth) ID() string { return f.id }

// Cell returns the filth position.
func (f *Filth) Cell() core.Cell { return f.cell }

// Thickness returns the remaining thickness levels.
func (f *Filth) Thickness() int { return f.thickness }

// CleaningWork implements terrain.Filth.
func (f *Filth) CleaningWork() (float64, bool) { return f.work, f.hasWork }

// Thin implements terrain.Filth.
func (f *Filth) Thin() {
	if f.thickness <= 0 {
		return
	}
	f.thickness--
	if f.thickness == 0 {
		f.w.removeFilth(f)
	}
}

// Destroyed implements terrain.Filth.
func (f *Filth) Destroyed() bool { return f.thickness <= 0 }

// SpawnFilth drops filth of the given thickness on c using the configured
// cleaning work.
func (w *World) SpawnFilth(c core.Cell, thickness int) (*Filth, error) {
	return w.addFilth(uuid.NewString(), c, thickness, w.cfg.FilthWork, true)
}

// SpawnFilthWithoutWork drops filth that carries no cleaning data.
func (w *World) SpawnFilthWithoutWork(c core.Cell, thickness int) (*Filth, error) {
	return w.addFilth(uuid.NewString(), c, thickness, 0, false)
}

func (w *World) addFilth(id string, c core.Cell, thickness int, work float64, hasWork bool) (*Filth, error) {
	if !w.size.Contains(c) {
		return nil, fmt.Errorf("spawn filth at %v: %w", c, ErrOutOfBounds)
	}
	if thickness <= 0 {
		return nil, fmt.Errorf("spawn filth at %v: thickness %d must be positive", c, thickness)
	}
	if _, dup := w.filth[id]; dup {
		return nil, fmt.Errorf("spawn filth at %v: duplicate id %s", c, id)
	}
	w.filthSeq++
	f := &Filth{w: w, id: id, cell: c, thickness: thickness, work: work, hasWork: hasWork, seq: w.filthSeq}
	w.filth[id] = f
	set, ok := w.filthAt[c]
	if !ok {
		set = mapset.New[string]()
		w.filthAt[c] = set
	}
	set.Put(id)
	return f, nil
}

func (w *World) removeFilth(f *Filth) {
	delete(w.filth, f.id)
	set, ok := w.filthAt[f.cell]
	if !ok {
		return
	}
	set.Remove(f.id)
	if set.Size() == 0 {
		delete(w.filthAt, f.cell)
	}
}

// FilthAt implements terrain.Things. The oldest filth on the cell is
// returned first.
func (w *World) FilthAt(c core.Cell) (terrain.Filth, bool) {
	f := w.oldestFilthAt(c)
	if f == nil {
		return nil, false
	}
	return f, true
}

func (w *World) oldestFilthAt(c core.Cell) *Filth {
	set, ok := w.filthAt[c]
	if !ok {
		return nil
	}
	var oldest *Filth
	set.Each(func(id string) {
		f := w.filth[id]
		if f == nil || f.Destroyed() {
			return
		}
		if oldest == nil || f.seq < oldest.seq {
			oldest = f
		}
	})
	return oldest
}

// FilthByID implements terrain.Things.
func (w *World) FilthByID(id string) (terrain.Filth, bool) {
	f, ok := w.filth[id]
	if !ok {
		return nil, false
	}
	return f, true
}

// FilthCount returns the number of filth piles on c.
func (w *World) FilthCount(c core.Cell) int {
	set, ok := w.filthAt[c]
	if !ok {
		return 0
	}
	return set.Size()
}

// TotalFilth returns the number of filth piles in the world.
func (w *World) TotalFilth() int { return len(w.filth) }
