package terrain

import "active-terrain/internal/core"

// Instance is the live occupant of one special terrain cell. It owns its
// components and routes lifecycle calls to them in declaration order.
type Instance struct {
	reg   *Registry
	cell  core.Cell
	kind  *Kind
	comps []Component

	postLoaded bool
	removed    bool
}

func newInstance(reg *Registry, kind *Kind, cell core.Cell) *Instance {
	inst := &Instance{reg: reg, cell: cell, kind: kind}
	inst.comps = make([]Component, 0, len(kind.Comps))
	for _, spec := range kind.Comps {
		ctor, ok := lookupConstructor(spec.Type)
		if !ok {
			reg.log.Error("unknown terrain component", "cell", cell.String(), "kind", kind.Name, "comp", string(spec.Type))
			continue
		}
		inst.comps = append(inst.comps, ctor(Base{inst: inst, spec: spec}))
	}
	return inst
}

// Cell returns the occupied cell.
func (i *Instance) Cell() core.Cell { return i.cell }

// Kind returns the terrain kind.
func (i *Instance) Kind() *Kind { return i.kind }

// Components returns the owned components in declaration order.
func (i *Instance) Components() []Component { return i.comps }

// Removed reports whether PostRemove has run.
func (i *Instance) Removed() bool { return i.removed }

// Init runs every component's placement hook. Placement leaves the
// instance fully live, so a later PostLoad is skipped.
func (i *Instance) Init() {
	if i.removed {
		return
	}
	for _, c := range i.comps {
		c.Init()
	}
	i.postLoaded = true
}

// PostLoad lets components rebuild transient state after a restore. It runs
// at most once.
func (i *Instance) PostLoad() {
	if i.removed || i.postLoaded {
		return
	}
	i.postLoaded = true
	for _, c := range i.comps {
		c.PostLoad()
	}
}

// Tick runs every component's tick hook.
func (i *Instance) Tick() {
	if i.removed {
		return
	}
	for _, c := range i.comps {
		c.Tick()
	}
}

// Update runs every component's frame hook.
func (i *Instance) Update() {
	if i.removed {
		return
	}
	for _, c := range i.comps {
		c.Update()
	}
}

// PostRemove tears down every component. The instance is inert afterwards.
func (i *Instance) PostRemove() {
	if i.removed {
		return
	}
	for _, c := range i.comps {
		c.Teardown()
	}
	i.removed = true
}

// Signal delivers sig to every component that receives signals.
func (i *Instance) Signal(sig Signal) {
	if i.removed {
		return
	}
	for _, c := range i.comps {
		if r, ok := c.(SignalReceiver); ok {
			r.ReceiveSignal(sig)
		}
	}
}

// Label is the kind label as decorated by the components.
func (i *Instance) Label() string {
	label := i.kind.Label
	for _, c := range i.comps {
		if t, ok := c.(LabelTransformer); ok {
			label = t.TransformLabel(label)
		}
	}
	return label
}

// Comp returns the first component of inst assignable to T.
func Comp[T any](inst *Instance) (T, bool) {
	var zero T
	if inst == nil {
		return zero, false
	}
	for _, c := range inst.comps {
		if t, ok := c.(T); ok {
			return t, true
		}
	}
	return zero, false
}
