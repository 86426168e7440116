package terrain

// HeatPushInterval is the number of ticks between heat pushes, about one
// simulated second.
const HeatPushInterval = 60

// HeatPolicy decides whether and how much heat a HeatPush emits.
type HeatPolicy interface {
	ShouldPushHeat() bool
	PushAmount() float64
}

// HeatPush emits heat into the cell's ambient pool every HeatPushInterval
// ticks, regardless of the ambient temperature unless its policy says so.
type HeatPush struct {
	Base
	policy HeatPolicy
}

func newHeatPush(base Base) Component {
	h := &HeatPush{Base: base}
	h.policy = fixedHeat{amount: base.spec.PushAmount}
	return h
}

// SetPolicy replaces the push policy.
func (h *HeatPush) SetPolicy(p HeatPolicy) { h.policy = p }

// Tick pushes heat on interval ticks.
func (h *HeatPush) Tick() {
	if h.Ticks()%HeatPushInterval != 0 {
		return
	}
	h.push()
}

func (h *HeatPush) push() {
	if !h.policy.ShouldPushHeat() {
		return
	}
	amount := h.policy.PushAmount()
	if amount == 0 {
		return
	}
	h.Services().Temperature.PushHeat(h.Cell(), amount)
}

type fixedHeat struct{ amount float64 }

func (f fixedHeat) ShouldPushHeat() bool { return true }
func (f fixedHeat) PushAmount() float64  { return f.amount }

func init() {
	RegisterComponent(CompHeatPush, newHeatPush)
}
