package terrain

import "active-terrain/internal/core"

// Bridge keeps a Registry in step with its host grid by translating grid
// mutation notifications into registrations and removals.
type Bridge struct {
	reg   *Registry
	unsub func()
}

// Attach subscribes a new bridge to the registry's grid.
func Attach(reg *Registry) *Bridge {
	b := &Bridge{reg: reg}
	b.unsub = reg.grid.Subscribe(b)
	return b
}

// Detach stops forwarding notifications. It is safe to call more than once.
func (b *Bridge) Detach() {
	if b.unsub == nil {
		return
	}
	b.unsub()
	b.unsub = nil
}

// BeforeSetTerrain drops the instance about to be covered or replaced.
func (b *Bridge) BeforeSetTerrain(c core.Cell, _ KindID) { b.removeIfSpecial(c) }

// AfterSetTerrain registers the new terrain when it is special.
func (b *Bridge) AfterSetTerrain(c core.Cell, next KindID) { b.registerIfSpecial(c, next) }

// BeforeRemoveTopLayer drops the instance about to be removed.
func (b *Bridge) BeforeRemoveTopLayer(c core.Cell) { b.removeIfSpecial(c) }

// AfterRemoveTopLayer registers the exposed under layer when it is special.
func (b *Bridge) AfterRemoveTopLayer(c core.Cell) {
	b.registerIfSpecial(c, b.reg.grid.TerrainAt(c))
}

func (b *Bridge) removeIfSpecial(c core.Cell) {
	if !b.reg.catalog.IsSpecial(b.reg.grid.TerrainAt(c)) {
		return
	}
	// Untracked cells are reported by the registry itself.
	_ = b.reg.NotifyRemoved(c)
}

func (b *Bridge) registerIfSpecial(c core.Cell, id KindID) {
	kind := b.reg.catalog.Kind(id)
	if !kind.Special() {
		return
	}
	b.reg.RegisterAt(kind, c)
}
