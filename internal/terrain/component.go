package terrain

import (
	"encoding/json"
	"log/slog"
	"math"

	"active-terrain/internal/core"
)

// Component is one behavior module of a terrain instance.
type Component interface {
	Type() CompType
	// Init runs once when the instance is placed.
	Init()
	// PostLoad runs once after the instance is restored from a save.
	PostLoad()
	// Tick runs once per simulation step.
	Tick()
	// Update runs once per frame.
	Update()
	// Teardown releases host registrations when the instance is removed.
	Teardown()
}

// Signal is a cross-component notification within one instance.
type Signal string

const (
	SignalPowerTurnedOn  Signal = "PowerTurnedOn"
	SignalPowerTurnedOff Signal = "PowerTurnedOff"
)

// PowerConsumer is implemented by components that draw from the power grid.
type PowerConsumer interface {
	PowerOn() bool
	SetPowerDraw(watts float64)
	BaseConsumption() float64
}

// SignalReceiver is implemented by components that react to sibling signals.
type SignalReceiver interface {
	ReceiveSignal(sig Signal)
}

// LabelTransformer is implemented by components that decorate the cell label.
type LabelTransformer interface {
	TransformLabel(label string) string
}

// Persistent is implemented by components with fields that survive a save.
// Everything else is transient and rebuilt in PostLoad.
type Persistent interface {
	SaveState() (json.RawMessage, error)
	LoadState(data json.RawMessage) error
}

// Constructor builds a component around its base.
type Constructor func(base Base) Component

var constructors = map[CompType]Constructor{}

// RegisterComponent adds a component type. Built-in types register
// themselves at init.
func RegisterComponent(t CompType, ctor Constructor) {
	if t == "" || ctor == nil {
		return
	}
	constructors[t] = ctor
}

func lookupConstructor(t CompType) (Constructor, bool) {
	ctor, ok := constructors[t]
	return ctor, ok
}

// Base carries what every component needs and supplies no-op hooks.
type Base struct {
	inst *Instance
	spec CompSpec
}

// Instance returns the owning instance.
func (b Base) Instance() *Instance { return b.inst }

// Spec returns the component's static parameters.
func (b Base) Spec() CompSpec { return b.spec }

// Type returns the spec's type tag.
func (b Base) Type() CompType { return b.spec.Type }

// Cell returns the owning instance's cell.
func (b Base) Cell() core.Cell { return b.inst.cell }

// Services returns the host collaborators.
func (b Base) Services() Services { return b.inst.reg.svc }

// Ticks returns the host tick counter.
func (b Base) Ticks() int { return b.inst.reg.svc.Clock.Ticks() }

// Logger returns a logger scoped to the cell and kind.
func (b Base) Logger() *slog.Logger {
	return b.inst.reg.log.With("cell", b.inst.cell.String(), "kind", b.inst.kind.Name, "comp", string(b.spec.Type))
}

func (Base) Init()     {}
func (Base) PostLoad() {}
func (Base) Tick()     {}
func (Base) Update()   {}
func (Base) Teardown() {}

// powerConsumer finds the sibling power capability, if any.
func (b Base) powerConsumer() (PowerConsumer, bool) {
	return Comp[PowerConsumer](b.inst)
}

const approxEpsilon = 1e-6

func approximately(a, b float64) bool {
	return math.Abs(a-b) < math.Max(approxEpsilon*math.Max(math.Abs(a), math.Abs(b)), approxEpsilon)
}
