package terrain

import "math"

const (
	// DefaultTargetTemperature applies when the room has no thermostat.
	DefaultTargetTemperature = 21.0

	// TicksToSecondsFactor scales energy per second to one push interval.
	TicksToSecondsFactor = 4.16666651

	efficiencyFullBelow = 20.0
	efficiencyZeroAbove = 120.0
)

// HeatPushEfficiency returns 1 below 20 degrees, 0 above 120, and a linear
// falloff between.
func HeatPushEfficiency(ambient float64) float64 {
	switch {
	case ambient < efficiencyFullBelow:
		return 1
	case ambient > efficiencyZeroAbove:
		return 0
	}
	return (efficiencyZeroAbove - ambient) / (efficiencyZeroAbove - efficiencyFullBelow)
}

// TempControl heats its room toward the room thermostat's target and melts
// snow on its cell. It drives an inner HeatPush with itself as the policy.
type TempControl struct {
	Base

	pusher    *HeatPush
	highPower bool

	thermostat Thermostat
}

func newTempControl(base Base) Component {
	tc := &TempControl{Base: base}
	tc.pusher = &HeatPush{Base: base, policy: tc}
	return tc
}

// HighPower reports whether the last interval did useful work.
func (tc *TempControl) HighPower() bool { return tc.highPower }

// Thermostat returns the cached room thermostat, refreshing it when the
// cached one is gone.
func (tc *TempControl) Thermostat() (Thermostat, bool) {
	if tc.thermostat != nil && tc.thermostat.Active() {
		return tc.thermostat, true
	}
	tc.thermostat = nil
	t, ok := tc.Services().Rooms.ThermostatFor(tc.Cell())
	if !ok || t == nil {
		return nil, false
	}
	tc.thermostat = t
	return t, true
}

// TargetTemperature is the thermostat target or DefaultTargetTemperature.
func (tc *TempControl) TargetTemperature() float64 {
	if t, ok := tc.Thermostat(); ok {
		return t.TargetTemperature()
	}
	return DefaultTargetTemperature
}

// PowerConsumptionNow is the draw for the current power state.
func (tc *TempControl) PowerConsumptionNow() float64 {
	pc, ok := tc.powerConsumer()
	if !ok {
		return 0
	}
	base := pc.BaseConsumption()
	if tc.highPower {
		return base
	}
	return base * tc.spec.LowPowerConsumptionFactor
}

// ShouldPushHeat implements HeatPolicy.
func (tc *TempControl) ShouldPushHeat() bool { return true }

// PushAmount implements HeatPolicy. It also settles the power state.
func (tc *TempControl) PushAmount() float64 {
	if tc.spec.ReliesOnPower {
		if pc, ok := tc.powerConsumer(); ok && !pc.PowerOn() {
			tc.highPower = false
			tc.UpdatePowerConsumption()
			return 0
		}
	}

	svc := tc.Services()
	cell := tc.Cell()
	efficiency := HeatPushEfficiency(svc.Temperature.TemperatureAt(cell))
	energyLimit := tc.spec.EnergyPerSecond * efficiency * TicksToSecondsFactor
	change := svc.Temperature.ControlTemperatureChange(cell, energyLimit, tc.TargetTemperature())

	tc.highPower = !approximately(change, 0) && svc.Rooms.InRoomGroup(cell)
	tc.UpdatePowerConsumption()
	if !tc.highPower {
		return 0
	}
	return change
}

// Tick runs the heat interval and then the snow interval.
func (tc *TempControl) Tick() {
	tc.pusher.Tick()
	if tc.spec.CleansSnow && tc.Ticks()%HeatPushInterval == 0 {
		tc.CleanSnow()
		tc.UpdatePowerConsumption()
	}
}

// CleanSnow melts snow on the cell, switching to high power while it does.
func (tc *TempControl) CleanSnow() {
	snow := tc.Services().Snow
	depth := snow.SnowDepth(tc.Cell())
	if approximately(depth, 0) {
		return
	}
	tc.highPower = true
	snow.SetSnowDepth(tc.Cell(), math.Max(depth-tc.spec.SnowMeltPerSecond, 0))
}

// UpdatePowerConsumption reports the current draw to the power sibling.
func (tc *TempControl) UpdatePowerConsumption() {
	if pc, ok := tc.powerConsumer(); ok {
		pc.SetPowerDraw(tc.PowerConsumptionNow())
	}
}

// PostLoad drops cached room state; power state settles on the next interval.
func (tc *TempControl) PostLoad() {
	tc.thermostat = nil
	tc.highPower = false
	tc.UpdatePowerConsumption()
}

// TransformLabel appends the power state.
func (tc *TempControl) TransformLabel(label string) string {
	if tc.highPower {
		return label + " (high power)"
	}
	return label + " (low power)"
}

func init() {
	RegisterComponent(CompTempControl, newTempControl)
}
