package terrain

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"active-terrain/internal/core"
)

// Options configures a Registry.
type Options struct {
	Logger *slog.Logger
	// Debug turns consistency violations and component panics into panics
	// instead of error logs.
	Debug bool
}

// Registry tracks the live terrain instances of one region. Its key set
// mirrors the cells whose host terrain is special, apart from the window
// between a before-mutation and after-mutation notification.
//
// All methods lock a single mutex. Components run under that lock and must
// not mutate the host grid synchronously.
type Registry struct {
	mu sync.Mutex

	catalog *Catalog
	grid    Grid
	svc     Services
	log     *slog.Logger
	debug   bool

	terrains map[core.Cell]*Instance
}

// NewRegistry creates an empty registry for a region.
func NewRegistry(catalog *Catalog, grid Grid, svc Services, opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		catalog:  catalog,
		grid:     grid,
		svc:      svc.withDefaults(),
		log:      logger,
		debug:    opts.Debug,
		terrains: make(map[core.Cell]*Instance),
	}
}

// Catalog returns the kind catalog.
func (r *Registry) Catalog() *Catalog { return r.catalog }

// Grid returns the host grid.
func (r *Registry) Grid() Grid { return r.grid }

// RegisterAt places a new instance of kind at c and runs its Init. An
// existing instance is left untouched and the double registration is
// logged, since it means a removal notification was missed.
func (r *Registry) RegisterAt(kind *Kind, c core.Cell) *Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerLocked(kind, c)
}

func (r *Registry) registerLocked(kind *Kind, c core.Cell) *Instance {
	if !kind.Special() {
		r.log.Warn("refusing to register non-special terrain", "cell", c.String(), "kind", kindName(kind))
		return nil
	}
	if !r.grid.Size().Contains(c) {
		r.log.Warn("refusing to register terrain outside region", "cell", c.String(), "kind", kind.Name)
		return nil
	}
	if existing, ok := r.terrains[c]; ok {
		r.log.Error("terrain already registered at cell",
			"cell", c.String(), "kind", kind.Name, "existing", existing.kind.Name)
		return existing
	}
	inst := newInstance(r, kind, c)
	r.guard(inst, "init", inst.Init)
	r.terrains[c] = inst
	return inst
}

// NotifyRemoved drops the instance at c and tears it down. It must be called
// while the old terrain is still on the grid. A *LookupError is returned
// (or raised in debug mode) when c is not tracked.
func (r *Registry) NotifyRemoved(c core.Cell) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removeLocked(c)
}

func (r *Registry) removeLocked(c core.Cell) error {
	inst, ok := r.terrains[c]
	if !ok {
		err := &LookupError{Cell: c, Kind: kindName(r.catalog.Kind(r.grid.TerrainAt(c)))}
		if r.debug {
			panic(err)
		}
		r.log.Error("terrain removal for untracked cell", "cell", c.String(), "kind", err.Kind, "err", err)
		return err
	}
	delete(r.terrains, c)
	r.guard(inst, "post_remove", inst.PostRemove)
	return nil
}

// RescanRegion registers every special cell that is not yet tracked and
// returns how many were added. Running it again is a no-op.
func (r *Registry) RescanRegion() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := r.grid.Size()
	added := 0
	for i := 0; i < size.Area(); i++ {
		c := size.CellAt(i)
		if _, ok := r.terrains[c]; ok {
			continue
		}
		kind := r.catalog.Kind(r.grid.TerrainAt(c))
		if !kind.Special() {
			continue
		}
		if r.registerLocked(kind, c) != nil {
			added++
		}
	}
	if added > 0 {
		r.log.Debug("rescan registered terrain", "added", added, "total", len(r.terrains))
	}
	return added
}

// PostLoadFixup runs PostLoad on restored instances.
func (r *Registry) PostLoadFixup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.sortedCellsLocked() {
		inst := r.terrains[c]
		r.guard(inst, "post_load", inst.PostLoad)
	}
}

// Tick runs one simulation step over every instance in row-major order.
func (r *Registry) Tick() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.sortedCellsLocked() {
		inst := r.terrains[c]
		r.guard(inst, "tick", inst.Tick)
	}
}

// FrameUpdate runs the per-frame hook over every instance in row-major order.
func (r *Registry) FrameUpdate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.sortedCellsLocked() {
		inst := r.terrains[c]
		r.guard(inst, "update", inst.Update)
	}
}

// Unload tears down every instance, as when the region goes away.
func (r *Registry) Unload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.sortedCellsLocked() {
		inst := r.terrains[c]
		delete(r.terrains, c)
		r.guard(inst, "post_remove", inst.PostRemove)
	}
}

// Label returns the display label for c given the grid's kind there.
func (r *Registry) Label(c core.Cell, id KindID) string {
	kind := r.catalog.Kind(id)
	if kind == nil {
		return ""
	}
	if !kind.Special() {
		return kind.Label
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.terrains[c]
	if !ok {
		return kind.Label
	}
	if inst.kind != kind {
		r.log.Warn("label query kind differs from terrain instance; using the instance",
			"cell", c.String(), "kind", kind.Name, "instance", inst.kind.Name)
	}
	return inst.Label()
}

// At returns the instance at c.
func (r *Registry) At(c core.Cell) (*Instance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst, ok := r.terrains[c]
	return inst, ok
}

// Len returns the number of tracked instances.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.terrains)
}

// Cells returns the tracked cells in row-major order.
func (r *Registry) Cells() []core.Cell {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedCellsLocked()
}

// Each calls fn for every instance in row-major order.
func (r *Registry) Each(fn func(*Instance)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.sortedCellsLocked() {
		fn(r.terrains[c])
	}
}

func (r *Registry) sortedCellsLocked() []core.Cell {
	cells := make([]core.Cell, 0, len(r.terrains))
	for c := range r.terrains {
		cells = append(cells, c)
	}
	sort.Slice(cells, func(a, b int) bool {
		if cells[a].Y != cells[b].Y {
			return cells[a].Y < cells[b].Y
		}
		return cells[a].X < cells[b].X
	})
	return cells
}

// guard runs fn so that a panic in one instance cannot stop the others.
func (r *Registry) guard(inst *Instance, hook string, fn func()) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if r.debug {
			panic(rec)
		}
		r.log.Error("terrain hook panicked",
			"hook", hook, "cell", inst.cell.String(), "kind", inst.kind.Name, "panic", fmt.Sprint(rec))
	}()
	fn()
}

func kindName(k *Kind) string {
	if k == nil {
		return ""
	}
	return k.Name
}
