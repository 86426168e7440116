package sim

import (
	"fmt"
	"image/color"
	"log/slog"

	"active-terrain/internal/core"
	"active-terrain/internal/host"
	"active-terrain/internal/terrain"
	pcore "active-terrain/pkg/core"
)

// Name is the key the session factory is registered under in core.Sims.
const Name = "terrain"

// Session runs one region: a host world, its terrain registry and the
// bridge keeping them consistent.
type Session struct {
	cfg    Config
	log    *slog.Logger
	world  *host.World
	reg    *terrain.Registry
	bridge *terrain.Bridge
	seed   int64
}

// State is everything needed to resume a session.
type State struct {
	Seed    int64               `json:"seed"`
	World   host.Snapshot       `json:"world"`
	Terrain terrain.RegionState `json:"terrain"`
}

// NewSession wires a world and registry and attaches the bridge. The world
// starts empty; call Reset or Activate to populate it.
func NewSession(cfg Config, catalog *terrain.Catalog, logger *slog.Logger) *Session {
	if catalog == nil {
		catalog = terrain.DefaultCatalog()
	}
	if logger == nil {
		logger = slog.Default()
	}
	world := host.New(cfg.Host, catalog, logger.With("component", "host"))
	reg := terrain.NewRegistry(catalog, world, world.Services(), terrain.Options{
		Logger: logger.With("component", "terrain"),
		Debug:  cfg.Debug,
	})
	return &Session{
		cfg:    cfg,
		log:    logger,
		world:  world,
		reg:    reg,
		bridge: terrain.Attach(reg),
		seed:   cfg.Seed,
	}
}

// Name returns the simulation identifier.
func (s *Session) Name() string { return Name }

// Size reports the grid dimensions.
func (s *Session) Size() core.Size { return s.world.Size() }

// Cells exposes the display buffer.
func (s *Session) Cells() []uint8 { return s.world.Cells() }

// Palette maps display values to colors.
func (s *Session) Palette() []color.RGBA { return s.world.Palette() }

// World returns the host world.
func (s *Session) World() *host.World { return s.world }

// Registry returns the terrain registry.
func (s *Session) Registry() *terrain.Registry { return s.reg }

// Seed returns the seed of the current layout.
func (s *Session) Seed() int64 { return s.seed }

// Reset rebuilds the world from the configured scenario. A zero seed reuses
// the configured one.
func (s *Session) Reset(seed int64) {
	if err := s.ResetScenario(s.cfg.Scenario, seed); err != nil {
		s.log.Error("reset failed", "scenario", s.cfg.Scenario, "err", err)
	}
}

// ResetScenario tears down every instance, clears the world and runs the
// named scenario.
func (s *Session) ResetScenario(name string, seed int64) error {
	scenario, err := lookupScenario(name)
	if err != nil {
		return err
	}
	if seed == 0 {
		seed = s.cfg.Seed
	}
	s.reg.Unload()
	s.world.Clear()
	s.seed = seed
	if err := scenario(s.world, pcore.NewRNG(seed)); err != nil {
		return fmt.Errorf("scenario %s: %w", name, err)
	}
	s.world.TakeDirty()
	s.log.Info("scenario ready", "scenario", name, "seed", seed, "terrain", s.reg.Len())
	return nil
}

// Step advances host time and ticks every terrain instance.
func (s *Session) Step() {
	s.world.Step()
	s.reg.Tick()
}

// Frame runs the per-frame terrain hook.
func (s *Session) Frame() { s.reg.FrameUpdate() }

// Snapshot captures the session for saving.
func (s *Session) Snapshot() (State, error) {
	terrainState, err := s.reg.Snapshot()
	if err != nil {
		return State{}, err
	}
	return State{Seed: s.seed, World: s.world.Snapshot(), Terrain: terrainState}, nil
}

// Activate replaces the session with a saved state: the world is restored,
// instances are recreated from the save, any special cell the save missed
// is registered, and every restored instance rebuilds its transient state.
func (s *Session) Activate(st State) error {
	s.reg.Unload()
	if err := s.world.RestoreSnapshot(st.World); err != nil {
		return err
	}
	if err := s.reg.Restore(st.Terrain); err != nil {
		return err
	}
	if added := s.reg.RescanRegion(); added > 0 {
		s.log.Warn("registered terrain missing from save", "added", added)
	}
	s.reg.PostLoadFixup()
	s.world.TakeDirty()
	s.seed = st.Seed
	s.log.Info("session restored", "tick", s.world.Ticks(), "terrain", s.reg.Len())
	return nil
}

// Close detaches the bridge and tears down every instance.
func (s *Session) Close() {
	s.bridge.Detach()
	s.reg.Unload()
}

// Parameters renders the session configuration and the kind catalog.
func (s *Session) Parameters() core.ParameterSnapshot {
	h := s.cfg.Host
	groups := []core.ParameterGroup{{
		Name: "World",
		Params: []core.Parameter{
			core.IntParam("w", "Width", s.world.Size().W),
			core.IntParam("h", "Height", s.world.Size().H),
			core.StringParam("seed", "Seed", fmt.Sprint(s.seed)),
			core.StringParam("scenario", "Scenario", s.cfg.Scenario),
			core.FloatParam("outdoor_temp", "Outdoor temperature", s.world.OutdoorTemperature()),
			core.FloatParam("room_leak", "Room leak", h.RoomLeak),
			core.FloatParam("snow_rate", "Snow rate", h.SnowRate),
			core.FloatParam("filth_work", "Filth work", h.FilthWork),
		},
	}}
	groups = append(groups, s.reg.Catalog().Parameters().Groups...)
	return core.ParameterSnapshot{Groups: groups}
}

// catalogFromMap loads the catalog named by the "kinds" key. A missing key
// or an unreadable file yields the built-in kinds.
func catalogFromMap(cfg map[string]string) *terrain.Catalog {
	path := cfg["kinds"]
	if path == "" {
		return terrain.DefaultCatalog()
	}
	cat, err := terrain.LoadCatalog(path)
	if err != nil {
		slog.Error("load kind catalog failed; using built-in kinds", "path", path, "err", err)
		return terrain.DefaultCatalog()
	}
	return cat
}

func init() {
	core.Register(Name, func(cfg map[string]string) core.Sim {
		return NewSession(FromMap(cfg), catalogFromMap(cfg), nil)
	})
}
