package host

import (
	"log/slog"
	"math"

	"github.com/zyedidia/generic/mapset"

	"active-terrain/internal/core"
	"active-terrain/internal/terrain"
)

// World is an in-memory host region. It owns the terrain grid and every
// service special terrain talks to.
type World struct {
	cfg     Config
	catalog *terrain.Catalog
	log     *slog.Logger
	size    core.Size

	top       *core.Layer[terrain.KindID]
	under     *core.Layer[terrain.KindID]
	observers []observer
	nextObsID int

	ticks int

	outdoor float64
	rooms   []*Room
	roomAt  *core.Layer[int]

	powered   *core.Layer[bool]
	consumers map[core.Cell]float64

	lights mapset.Set[*terrain.LightSource]

	snow *core.Layer[float64]

	filth     map[string]*Filth
	filthAt   map[core.Cell]mapset.Set[string]
	filthSeq  uint64
	pushedOut float64

	dirty   []core.Cell
	display []uint8
}

type observer struct {
	id int
	o  terrain.GridObserver
}

// New returns an empty world. Every cell starts without terrain.
func New(cfg Config, catalog *terrain.Catalog, logger *slog.Logger) *World {
	if logger == nil {
		logger = slog.Default()
	}
	w := &World{
		cfg:     cfg,
		catalog: catalog,
		log:     logger,
	}
	w.allocate(cfg.Width, cfg.Height)
	return w
}

func (w *World) allocate(width, height int) {
	w.top = core.NewLayer[terrain.KindID](width, height)
	w.under = core.NewLayer[terrain.KindID](width, height)
	w.size = w.top.Size()
	w.roomAt = core.NewLayer[int](w.size.W, w.size.H)
	w.powered = core.NewLayer[bool](w.size.W, w.size.H)
	w.snow = core.NewLayer[float64](w.size.W, w.size.H)
	w.display = make([]uint8, w.size.Area())
	w.clearState()
}

func (w *World) clearState() {
	w.ticks = 0
	w.outdoor = w.cfg.OutdoorTemperature
	w.rooms = nil
	w.consumers = make(map[core.Cell]float64)
	w.lights = mapset.New[*terrain.LightSource]()
	w.filth = make(map[string]*Filth)
	w.filthAt = make(map[core.Cell]mapset.Set[string])
	w.filthSeq = 0
	w.pushedOut = 0
	w.dirty = nil
}

// Clear removes all terrain and state but keeps subscriptions.
func (w *World) Clear() {
	w.top.Clear()
	w.under.Clear()
	w.roomAt.Clear()
	w.powered.Clear()
	w.snow.Clear()
	w.clearState()
	w.rebuildDisplay()
}

// Config returns the configuration the world was built with.
func (w *World) Config() Config { return w.cfg }

// Catalog returns the terrain kind catalog.
func (w *World) Catalog() *terrain.Catalog { return w.catalog }

// Size reports the grid dimensions.
func (w *World) Size() core.Size { return w.size }

// Ticks implements terrain.Clock.
func (w *World) Ticks() int { return w.ticks }

// Step advances host time by one tick: rooms drift toward the outdoor
// temperature and snow falls outside while it is freezing.
func (w *World) Step() {
	w.ticks++
	for _, r := range w.rooms {
		r.Temperature += (w.outdoor - r.Temperature) * w.cfg.RoomLeak
	}
	if w.outdoor < 0 && w.cfg.SnowRate > 0 {
		cells := w.snow.Cells()
		rooms := w.roomAt.Cells()
		for i := range cells {
			if rooms[i] == 0 {
				cells[i] = math.Min(cells[i]+w.cfg.SnowRate, 1)
			}
		}
	}
}

// Services bundles the world as the collaborator set for a registry.
func (w *World) Services() terrain.Services {
	return terrain.Services{
		Clock:       w,
		Temperature: w,
		Power:       w,
		Lighting:    w,
		Rooms:       w,
		Snow:        w,
		Things:      w,
		Mesh:        w,
	}
}

// MarkMeshDirty implements terrain.MeshNotifier.
func (w *World) MarkMeshDirty(c core.Cell) {
	w.dirty = append(w.dirty, c)
}

// TakeDirty returns and clears the cells marked dirty since the last call.
func (w *World) TakeDirty() []core.Cell {
	out := w.dirty
	w.dirty = nil
	return out
}
