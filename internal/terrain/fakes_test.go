package terrain

import (
	"bytes"
	"log/slog"
	"testing"

	"active-terrain/internal/core"
)

// fakeGrid is a two-layer grid that fires observer hooks around mutations.
type fakeGrid struct {
	size      core.Size
	top       []KindID
	under     []KindID
	observers []GridObserver
}

func newFakeGrid(w, h int) *fakeGrid {
	size := core.Size{W: w, H: h}
	return &fakeGrid{size: size, top: make([]KindID, size.Area()), under: make([]KindID, size.Area())}
}

func (g *fakeGrid) Size() core.Size { return g.size }

func (g *fakeGrid) TerrainAt(c core.Cell) KindID {
	if !g.size.Contains(c) {
		return NoKind
	}
	return g.top[g.size.Index(c)]
}

func (g *fakeGrid) Subscribe(o GridObserver) func() {
	g.observers = append(g.observers, o)
	return func() {
		for i, cur := range g.observers {
			if cur == o {
				g.observers = append(g.observers[:i], g.observers[i+1:]...)
				return
			}
		}
	}
}

// place writes terrain without notifying, as a save loader would.
func (g *fakeGrid) place(c core.Cell, k *Kind) { g.top[g.size.Index(c)] = k.ID }

func (g *fakeGrid) set(c core.Cell, k *Kind, layer bool) {
	for _, o := range g.observers {
		o.BeforeSetTerrain(c, k.ID)
	}
	i := g.size.Index(c)
	if layer {
		g.under[i] = g.top[i]
	}
	g.top[i] = k.ID
	for _, o := range g.observers {
		o.AfterSetTerrain(c, k.ID)
	}
}

func (g *fakeGrid) removeTop(c core.Cell) {
	for _, o := range g.observers {
		o.BeforeRemoveTopLayer(c)
	}
	i := g.size.Index(c)
	g.top[i] = g.under[i]
	g.under[i] = NoKind
	for _, o := range g.observers {
		o.AfterRemoveTopLayer(c)
	}
}

type fakeClock struct{ ticks int }

func (c *fakeClock) Ticks() int { return c.ticks }

type heatPush struct {
	Cell   core.Cell
	Energy float64
}

type fakeTemperature struct {
	ambient map[core.Cell]float64
	pushes  []heatPush
	// change answers ControlTemperatureChange; nil returns the limit.
	change    func(c core.Cell, limit, target float64) float64
	lastLimit float64
}

func newFakeTemperature() *fakeTemperature {
	return &fakeTemperature{ambient: map[core.Cell]float64{}}
}

func (t *fakeTemperature) TemperatureAt(c core.Cell) float64 {
	if v, ok := t.ambient[c]; ok {
		return v
	}
	return 10
}

func (t *fakeTemperature) PushHeat(c core.Cell, e float64) {
	t.pushes = append(t.pushes, heatPush{Cell: c, Energy: e})
}

func (t *fakeTemperature) ControlTemperatureChange(c core.Cell, limit, target float64) float64 {
	t.lastLimit = limit
	if t.change != nil {
		return t.change(c, limit, target)
	}
	return limit
}

type fakePower struct {
	on        map[core.Cell]bool
	connected map[core.Cell]bool
	draw      map[core.Cell]float64
}

func newFakePower() *fakePower {
	return &fakePower{on: map[core.Cell]bool{}, connected: map[core.Cell]bool{}, draw: map[core.Cell]float64{}}
}

func (p *fakePower) Connect(c core.Cell)            { p.connected[c] = true }
func (p *fakePower) PowerOn(c core.Cell) bool       { return p.connected[c] && p.on[c] }
func (p *fakePower) SetDraw(c core.Cell, w float64) { p.draw[c] = w }

func (p *fakePower) Disconnect(c core.Cell) {
	delete(p.connected, c)
	delete(p.draw, c)
}

type fakeLighting struct {
	lights       map[*LightSource]bool
	registered   int
	deregistered int
}

func newFakeLighting() *fakeLighting { return &fakeLighting{lights: map[*LightSource]bool{}} }

func (l *fakeLighting) RegisterGlower(s *LightSource) {
	l.registered++
	l.lights[s] = true
}

func (l *fakeLighting) DeregisterGlower(s *LightSource) {
	l.deregistered++
	delete(l.lights, s)
}

type fakeThermostat struct {
	target float64
	gone   bool
}

func (t *fakeThermostat) TargetTemperature() float64 { return t.target }
func (t *fakeThermostat) Active() bool               { return !t.gone }

type fakeRooms struct {
	thermostat *fakeThermostat
	lookups    int
	indoors    bool
}

func (r *fakeRooms) ThermostatFor(core.Cell) (Thermostat, bool) {
	r.lookups++
	if r.thermostat == nil {
		return nil, false
	}
	return r.thermostat, true
}

func (r *fakeRooms) InRoomGroup(core.Cell) bool { return r.indoors }

type fakeSnow struct{ depth map[core.Cell]float64 }

func (s *fakeSnow) SnowDepth(c core.Cell) float64           { return s.depth[c] }
func (s *fakeSnow) SetSnowDepth(c core.Cell, depth float64) { s.depth[c] = depth }

type fakeFilth struct {
	id        string
	thickness int
	work      float64
	noWork    bool
	thinned   int
}

func (f *fakeFilth) ID() string { return f.id }

func (f *fakeFilth) CleaningWork() (float64, bool) {
	if f.noWork {
		return 0, false
	}
	return f.work, true
}

func (f *fakeFilth) Thin() {
	f.thinned++
	if f.thickness > 0 {
		f.thickness--
	}
}

func (f *fakeFilth) Destroyed() bool { return f.thickness <= 0 }

type fakeThings struct{ filth map[core.Cell]*fakeFilth }

func (t *fakeThings) FilthAt(c core.Cell) (Filth, bool) {
	f, ok := t.filth[c]
	if !ok || f.Destroyed() {
		return nil, false
	}
	return f, true
}

func (t *fakeThings) FilthByID(id string) (Filth, bool) {
	for _, f := range t.filth {
		if f.id == id {
			return f, true
		}
	}
	return nil, false
}

type fakeMesh struct{ dirty []core.Cell }

func (m *fakeMesh) MarkMeshDirty(c core.Cell) { m.dirty = append(m.dirty, c) }

// harness bundles a registry over fakes.
type harness struct {
	catalog  *Catalog
	grid     *fakeGrid
	clock    *fakeClock
	temp     *fakeTemperature
	power    *fakePower
	lighting *fakeLighting
	rooms    *fakeRooms
	snow     *fakeSnow
	things   *fakeThings
	mesh     *fakeMesh
	logs     *bytes.Buffer
	reg      *Registry
}

func newHarness(t *testing.T, debug bool) *harness {
	t.Helper()
	h := &harness{
		catalog:  DefaultCatalog(),
		grid:     newFakeGrid(8, 8),
		clock:    &fakeClock{},
		temp:     newFakeTemperature(),
		power:    newFakePower(),
		lighting: newFakeLighting(),
		rooms:    &fakeRooms{indoors: true},
		snow:     &fakeSnow{depth: map[core.Cell]float64{}},
		things:   &fakeThings{filth: map[core.Cell]*fakeFilth{}},
		mesh:     &fakeMesh{},
		logs:     &bytes.Buffer{},
	}
	h.reg = h.newRegistry(debug)
	return h
}

func (h *harness) newRegistry(debug bool) *Registry {
	logger := slog.New(slog.NewTextHandler(h.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewRegistry(h.catalog, h.grid, Services{
		Clock:       h.clock,
		Temperature: h.temp,
		Power:       h.power,
		Lighting:    h.lighting,
		Rooms:       h.rooms,
		Snow:        h.snow,
		Things:      h.things,
		Mesh:        h.mesh,
	}, Options{Logger: logger, Debug: debug})
}

func (h *harness) kind(name string) *Kind { return h.catalog.MustLookup(name) }

// step advances the clock and ticks the registry, as the host loop does.
func (h *harness) step(n int) {
	for i := 0; i < n; i++ {
		h.clock.ticks++
		h.reg.Tick()
	}
}

// assertMirrorsGrid checks that tracked cells equal the special cells.
func (h *harness) assertMirrorsGrid(t *testing.T) {
	t.Helper()
	size := h.grid.Size()
	for i := 0; i < size.Area(); i++ {
		c := size.CellAt(i)
		kind := h.catalog.Kind(h.grid.TerrainAt(c))
		inst, tracked := h.reg.At(c)
		if kind.Special() != tracked {
			t.Fatalf("cell %v: special=%v tracked=%v", c, kind.Special(), tracked)
		}
		if tracked && inst.Kind() != kind {
			t.Fatalf("cell %v: instance kind %s, grid kind %s", c, inst.Kind().Name, kind.Name)
		}
	}
}
