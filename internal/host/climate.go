package host

import (
	"errors"
	"fmt"
	"image"

	"active-terrain/internal/core"
	"active-terrain/internal/terrain"
)

// ErrRoomOverlap is returned when a new room intersects an existing one.
var ErrRoomOverlap = errors.New("room overlaps an existing room")

// Room is an enclosed rectangle sharing one ambient temperature.
type Room struct {
	ID          int
	Bounds      image.Rectangle
	Temperature float64

	thermostat *Thermostat
}

// CellCount returns the number of cells in the room.
func (r *Room) CellCount() int { return r.Bounds.Dx() * r.Bounds.Dy() }

// Thermostat returns the room thermostat, if one is installed.
func (r *Room) Thermostat() (*Thermostat, bool) {
	return r.thermostat, r.thermostat != nil
}

// InstallThermostat puts a thermostat with the given target in the room,
// replacing any existing one.
func (r *Room) InstallThermostat(target float64) *Thermostat {
	r.RemoveThermostat()
	r.thermostat = &Thermostat{Target: target, active: true}
	return r.thermostat
}

// RemoveThermostat uninstalls the room thermostat.
func (r *Room) RemoveThermostat() {
	if r.thermostat != nil {
		r.thermostat.active = false
		r.thermostat = nil
	}
}

// Thermostat implements terrain.Thermostat.
type Thermostat struct {
	Target float64
	active bool
}

// TargetTemperature implements terrain.Thermostat.
func (t *Thermostat) TargetTemperature() float64 { return t.Target }

// Active implements terrain.Thermostat.
func (t *Thermostat) Active() bool { return t.active }

// AddRoom encloses bounds as a new room at the configured room temperature.
func (w *World) AddRoom(bounds image.Rectangle) (*Room, error) {
	bounds = bounds.Canon()
	grid := image.Rect(0, 0, w.size.W, w.size.H)
	if bounds.Empty() || !bounds.In(grid) {
		return nil, fmt.Errorf("add room %v: %w", bounds, ErrOutOfBounds)
	}
	for _, r := range w.rooms {
		if r.Bounds.Overlaps(bounds) {
			return nil, fmt.Errorf("add room %v: %w (room %d)", bounds, ErrRoomOverlap, r.ID)
		}
	}
	room := &Room{ID: len(w.rooms) + 1, Bounds: bounds, Temperature: w.cfg.RoomTemperature}
	w.rooms = append(w.rooms, room)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			w.roomAt.Set(core.Cell{X: x, Y: y}, room.ID)
		}
	}
	return room, nil
}

// Rooms returns the rooms in creation order.
func (w *World) Rooms() []*Room { return w.rooms }

// RoomAt returns the room containing c.
func (w *World) RoomAt(c core.Cell) (*Room, bool) {
	id := w.roomAt.At(c)
	if id == 0 || id > len(w.rooms) {
		return nil, false
	}
	return w.rooms[id-1], true
}

// OutdoorTemperature returns the temperature outside rooms.
func (w *World) OutdoorTemperature() float64 { return w.outdoor }

// SetOutdoorTemperature changes the temperature outside rooms.
func (w *World) SetOutdoorTemperature(t float64) { w.outdoor = t }

// OutdoorHeat returns the total energy pushed into outdoor cells. It is
// dissipated without effect.
func (w *World) OutdoorHeat() float64 { return w.pushedOut }

// TemperatureAt implements terrain.Temperature.
func (w *World) TemperatureAt(c core.Cell) float64 {
	if r, ok := w.RoomAt(c); ok {
		return r.Temperature
	}
	return w.outdoor
}

// PushHeat implements terrain.Temperature. Energy is spread over the room.
func (w *World) PushHeat(c core.Cell, energy float64) {
	r, ok := w.RoomAt(c)
	if !ok {
		w.pushedOut += energy
		return
	}
	r.Temperature += energy / float64(r.CellCount())
}

// ControlTemperatureChange implements terrain.Temperature. It returns the
// energy that moves the room toward target without overshooting, capped by
// energyLimit. Outdoor cells cannot be controlled.
func (w *World) ControlTemperatureChange(c core.Cell, energyLimit, target float64) float64 {
	r, ok := w.RoomAt(c)
	if !ok {
		return 0
	}
	cells := float64(r.CellCount())
	want := target - r.Temperature
	limit := energyLimit / cells
	var change float64
	if energyLimit > 0 {
		change = max(min(want, limit), 0)
	} else {
		change = min(max(want, limit), 0)
	}
	return change * cells
}

// ThermostatFor implements terrain.Rooms.
func (w *World) ThermostatFor(c core.Cell) (terrain.Thermostat, bool) {
	r, ok := w.RoomAt(c)
	if !ok || r.thermostat == nil {
		return nil, false
	}
	return r.thermostat, true
}

// InRoomGroup implements terrain.Rooms.
func (w *World) InRoomGroup(c core.Cell) bool {
	_, ok := w.RoomAt(c)
	return ok
}

// SnowDepth implements terrain.Snow.
func (w *World) SnowDepth(c core.Cell) float64 { return w.snow.At(c) }

// SetSnowDepth implements terrain.Snow. Depth is clamped to [0, 1].
func (w *World) SetSnowDepth(c core.Cell, depth float64) {
	w.snow.Set(c, min(max(depth, 0), 1))
}
