package terrain

import (
	"encoding/json"
	"fmt"

	"active-terrain/internal/core"
)

// RegionStateVersion is the current persisted layout version.
const RegionStateVersion = 1

// RegionState is the persisted form of a registry.
type RegionState struct {
	Version   int             `json:"version"`
	Instances []InstanceState `json:"instances"`
}

// InstanceState is one persisted terrain instance.
type InstanceState struct {
	X          int              `json:"x"`
	Y          int              `json:"y"`
	Kind       string           `json:"kind"`
	Components []ComponentState `json:"components,omitempty"`
}

// Cell returns the instance position.
func (s InstanceState) Cell() core.Cell { return core.Cell{X: s.X, Y: s.Y} }

// ComponentState is the persisted field subset of one component, in
// declaration order. Components without persisted fields are omitted.
type ComponentState struct {
	Index int             `json:"index"`
	Type  CompType        `json:"type"`
	State json.RawMessage `json:"state"`
}

// Snapshot captures every instance in row-major order.
func (r *Registry) Snapshot() (RegionState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := RegionState{Version: RegionStateVersion}
	for _, c := range r.sortedCellsLocked() {
		inst := r.terrains[c]
		is := InstanceState{X: c.X, Y: c.Y, Kind: inst.kind.Name}
		for idx, comp := range inst.comps {
			p, ok := comp.(Persistent)
			if !ok {
				continue
			}
			data, err := p.SaveState()
			if err != nil {
				return RegionState{}, fmt.Errorf("snapshot %s at %v: %w", comp.Type(), c, err)
			}
			is.Components = append(is.Components, ComponentState{Index: idx, Type: comp.Type(), State: data})
		}
		state.Instances = append(state.Instances, is)
	}
	return state, nil
}

// Restore recreates instances from a snapshot without running Init. Call
// RescanRegion and then PostLoadFixup afterwards to bring them live.
//
// Unknown kinds and already tracked cells are skipped. When the grid holds
// a different kind than recorded, the recorded kind wins.
func (r *Registry) Restore(state RegionState) error {
	if state.Version > RegionStateVersion {
		return fmt.Errorf("restore: unsupported region state version %d", state.Version)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	size := r.grid.Size()
	for _, is := range state.Instances {
		c := is.Cell()
		kind, ok := r.catalog.Lookup(is.Kind)
		if !ok || !kind.Special() {
			r.log.Error("restore: unknown special terrain kind", "cell", c.String(), "kind", is.Kind)
			continue
		}
		if !size.Contains(c) {
			r.log.Error("restore: terrain outside region", "cell", c.String(), "kind", is.Kind)
			continue
		}
		if _, ok := r.terrains[c]; ok {
			r.log.Error("restore: terrain already registered at cell", "cell", c.String(), "kind", is.Kind)
			continue
		}
		if grid := r.catalog.Kind(r.grid.TerrainAt(c)); grid != kind {
			r.log.Warn("restore: grid terrain differs from saved instance; keeping the saved kind",
				"cell", c.String(), "kind", kind.Name, "grid", kindName(grid))
		}

		inst := newInstance(r, kind, c)
		for _, cs := range is.Components {
			if err := loadComponent(inst, cs); err != nil {
				r.log.Warn("restore: component state dropped", "cell", c.String(), "kind", kind.Name, "err", err)
			}
		}
		r.terrains[c] = inst
	}
	return nil
}

func loadComponent(inst *Instance, cs ComponentState) error {
	if cs.Index < 0 || cs.Index >= len(inst.comps) {
		return fmt.Errorf("component index %d out of range", cs.Index)
	}
	comp := inst.comps[cs.Index]
	if comp.Type() != cs.Type {
		return fmt.Errorf("component %d is %s, saved as %s", cs.Index, comp.Type(), cs.Type)
	}
	p, ok := comp.(Persistent)
	if !ok {
		return fmt.Errorf("component %s has no persisted state", cs.Type)
	}
	return p.LoadState(cs.State)
}
