package host

import (
	"fmt"
	"image"
	"sort"

	"active-terrain/internal/core"
	"active-terrain/internal/terrain"
)

// Snapshot is the persisted form of a world. Power draw and registered
// lights are owned by terrain instances and rebuilt when they load.
type Snapshot struct {
	Width   int      `json:"width"`
	Height  int      `json:"height"`
	Ticks   int      `json:"ticks"`
	Outdoor float64  `json:"outdoor"`
	Kinds   []string `json:"kinds"`

	// Top and Under index into Kinds; -1 means no terrain.
	Top     []int        `json:"top"`
	Under   []int        `json:"under"`
	Rooms   []RoomState  `json:"rooms,omitempty"`
	Powered []core.Cell  `json:"powered,omitempty"`
	Snow    []SnowState  `json:"snow,omitempty"`
	Filth   []FilthState `json:"filth,omitempty"`
}

// RoomState is one persisted room.
type RoomState struct {
	Bounds      image.Rectangle `json:"bounds"`
	Temperature float64         `json:"temperature"`
	Thermostat  *float64        `json:"thermostat,omitempty"`
}

// SnowState is the depth of one snowy cell.
type SnowState struct {
	Cell  core.Cell `json:"cell"`
	Depth float64   `json:"depth"`
}

// FilthState is one persisted filth pile.
type FilthState struct {
	ID        string    `json:"id"`
	Cell      core.Cell `json:"cell"`
	Thickness int       `json:"thickness"`
	Work      *float64  `json:"work"`
}

// Snapshot captures the world state.
func (w *World) Snapshot() Snapshot {
	s := Snapshot{
		Width:   w.size.W,
		Height:  w.size.H,
		Ticks:   w.ticks,
		Outdoor: w.outdoor,
	}
	for _, k := range w.catalog.Kinds() {
		s.Kinds = append(s.Kinds, k.Name)
	}
	s.Top = kindIndexes(w.top.Cells())
	s.Under = kindIndexes(w.under.Cells())

	for _, r := range w.rooms {
		rs := RoomState{Bounds: r.Bounds, Temperature: r.Temperature}
		if t, ok := r.Thermostat(); ok {
			target := t.Target
			rs.Thermostat = &target
		}
		s.Rooms = append(s.Rooms, rs)
	}
	for i, on := range w.powered.Cells() {
		if on {
			s.Powered = append(s.Powered, w.size.CellAt(i))
		}
	}
	for i, depth := range w.snow.Cells() {
		if depth > 0 {
			s.Snow = append(s.Snow, SnowState{Cell: w.size.CellAt(i), Depth: depth})
		}
	}

	piles := make([]*Filth, 0, len(w.filth))
	for _, f := range w.filth {
		piles = append(piles, f)
	}
	sort.Slice(piles, func(a, b int) bool { return piles[a].seq < piles[b].seq })
	for _, f := range piles {
		fs := FilthState{ID: f.id, Cell: f.cell, Thickness: f.thickness}
		if f.hasWork {
			work := f.work
			fs.Work = &work
		}
		s.Filth = append(s.Filth, fs)
	}
	return s
}

func kindIndexes(ids []terrain.KindID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id) - 1
	}
	return out
}

// RestoreSnapshot replaces the world state without notifying observers.
// Kinds are matched by name, so catalogs may be reordered between saves.
func (w *World) RestoreSnapshot(s Snapshot) error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("restore world: invalid size %dx%d", s.Width, s.Height)
	}
	area := s.Width * s.Height
	if len(s.Top) != area || len(s.Under) != area {
		return fmt.Errorf("restore world: layer length mismatch for %dx%d", s.Width, s.Height)
	}
	ids := make([]terrain.KindID, len(s.Kinds))
	for i, name := range s.Kinds {
		k, ok := w.catalog.Lookup(name)
		if !ok {
			w.log.Warn("restore world: unknown terrain kind, cells left bare", "kind", name)
			continue
		}
		ids[i] = k.ID
	}
	resolve := func(idx int) terrain.KindID {
		if idx < 0 || idx >= len(ids) {
			return 0
		}
		return ids[idx]
	}

	if s.Width != w.size.W || s.Height != w.size.H {
		w.allocate(s.Width, s.Height)
	} else {
		w.roomAt.Clear()
		w.powered.Clear()
		w.snow.Clear()
		w.clearState()
	}
	w.cfg.Width, w.cfg.Height = s.Width, s.Height
	w.ticks = s.Ticks
	w.outdoor = s.Outdoor

	top, under := w.top.Cells(), w.under.Cells()
	for i := range top {
		top[i] = resolve(s.Top[i])
		under[i] = resolve(s.Under[i])
	}
	for _, rs := range s.Rooms {
		room, err := w.AddRoom(rs.Bounds)
		if err != nil {
			return fmt.Errorf("restore world: %w", err)
		}
		room.Temperature = rs.Temperature
		if rs.Thermostat != nil {
			room.InstallThermostat(*rs.Thermostat)
		}
	}
	for _, c := range s.Powered {
		w.powered.Set(c, true)
	}
	for _, ss := range s.Snow {
		w.SetSnowDepth(ss.Cell, ss.Depth)
	}
	for _, fs := range s.Filth {
		work, hasWork := 0.0, fs.Work != nil
		if hasWork {
			work = *fs.Work
		}
		if _, err := w.addFilth(fs.ID, fs.Cell, fs.Thickness, work, hasWork); err != nil {
			return fmt.Errorf("restore world: %w", err)
		}
	}
	w.rebuildDisplay()
	return nil
}
