package terrain

import "active-terrain/internal/core"

// Grid is the host terrain grid. The registry reads it but never writes it.
type Grid interface {
	Size() core.Size
	// TerrainAt returns the top-layer kind at c.
	TerrainAt(c core.Cell) KindID
	// Subscribe registers o for mutation notifications and returns a
	// function that removes the subscription.
	Subscribe(o GridObserver) (unsubscribe func())
}

// GridObserver receives synchronous notifications around host terrain
// mutations. Before hooks run while the old terrain is still in place.
type GridObserver interface {
	BeforeSetTerrain(c core.Cell, next KindID)
	AfterSetTerrain(c core.Cell, next KindID)
	BeforeRemoveTopLayer(c core.Cell)
	AfterRemoveTopLayer(c core.Cell)
}

// Clock reports the host's simulation tick counter.
type Clock interface {
	Ticks() int
}

// Temperature is the host's ambient temperature pool.
type Temperature interface {
	TemperatureAt(c core.Cell) float64
	PushHeat(c core.Cell, energy float64)
	// ControlTemperatureChange returns how much heat energy, limited by
	// energyLimit, is needed to move the ambient temperature at c toward
	// target. Zero means no change is possible or needed.
	ControlTemperatureChange(c core.Cell, energyLimit, target float64) float64
}

// Power is the host power grid as seen by one cell occupant.
type Power interface {
	Connect(c core.Cell)
	Disconnect(c core.Cell)
	PowerOn(c core.Cell) bool
	// SetDraw reports the occupant's current consumption in watts.
	SetDraw(c core.Cell, watts float64)
}

// Lighting is the host light grid.
type Lighting interface {
	RegisterGlower(l *LightSource)
	DeregisterGlower(l *LightSource)
}

// Thermostat is a room's temperature controller.
type Thermostat interface {
	TargetTemperature() float64
	// Active reports whether the thermostat still exists in the world.
	Active() bool
}

// Rooms is the host room/zone service.
type Rooms interface {
	ThermostatFor(c core.Cell) (Thermostat, bool)
	// InRoomGroup reports whether c belongs to a connected, enclosed room group.
	InRoomGroup(c core.Cell) bool
}

// Snow is the host snow depth grid.
type Snow interface {
	SnowDepth(c core.Cell) float64
	SetSnowDepth(c core.Cell, depth float64)
}

// Filth is a surface dirt object that cleaning work thins out.
type Filth interface {
	ID() string
	// CleaningWork returns the work needed to remove one thickness step.
	// ok is false when the filth type has no cleaning data.
	CleaningWork() (work float64, ok bool)
	Thin()
	Destroyed() bool
}

// Things enumerates objects resting on cells.
type Things interface {
	FilthAt(c core.Cell) (Filth, bool)
	FilthByID(id string) (Filth, bool)
}

// MeshNotifier invalidates cached visuals for a cell.
type MeshNotifier interface {
	MarkMeshDirty(c core.Cell)
}

// LightSource is the value the lighting service registers. Glower owns one
// per instance and keeps it in sync with its configuration.
type LightSource struct {
	Cell            core.Cell
	Color           Color
	GlowRadius      float64
	OverlightRadius float64
}

// Services bundles the host collaborators components read and write. Nil
// fields are replaced with no-op implementations by NewRegistry.
type Services struct {
	Clock       Clock
	Temperature Temperature
	Power       Power
	Lighting    Lighting
	Rooms       Rooms
	Snow        Snow
	Things      Things
	Mesh        MeshNotifier
}

func (s Services) withDefaults() Services {
	var n nopService
	if s.Clock == nil {
		s.Clock = n
	}
	if s.Temperature == nil {
		s.Temperature = n
	}
	if s.Power == nil {
		s.Power = n
	}
	if s.Lighting == nil {
		s.Lighting = n
	}
	if s.Rooms == nil {
		s.Rooms = n
	}
	if s.Snow == nil {
		s.Snow = n
	}
	if s.Things == nil {
		s.Things = n
	}
	if s.Mesh == nil {
		s.Mesh = n
	}
	return s
}

type nopService struct{}

func (nopService) Ticks() int                                                   { return 0 }
func (nopService) TemperatureAt(core.Cell) float64                              { return 21 }
func (nopService) PushHeat(core.Cell, float64)                                  {}
func (nopService) ControlTemperatureChange(core.Cell, float64, float64) float64 { return 0 }
func (nopService) Connect(core.Cell)                                            {}
func (nopService) Disconnect(core.Cell)                                         {}
func (nopService) PowerOn(core.Cell) bool                                       { return false }
func (nopService) SetDraw(core.Cell, float64)                                   {}
func (nopService) RegisterGlower(*LightSource)                                  {}
func (nopService) DeregisterGlower(*LightSource)                                {}
func (nopService) ThermostatFor(core.Cell) (Thermostat, bool)                   { return nil, false }
func (nopService) InRoomGroup(core.Cell) bool                                   { return false }
func (nopService) SnowDepth(core.Cell) float64                                  { return 0 }
func (nopService) SetSnowDepth(core.Cell, float64)                              {}
func (nopService) FilthAt(core.Cell) (Filth, bool)                              { return nil, false }
func (nopService) FilthByID(string) (Filth, bool)                               { return nil, false }
func (nopService) MarkMeshDirty(core.Cell)                                      {}
