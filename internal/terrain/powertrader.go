package terrain

// PowerTrader connects its cell to the host power grid. It polls power
// availability every tick and signals its siblings on each change.
type PowerTrader struct {
	Base

	on   bool
	draw float64
}

func newPowerTrader(base Base) Component {
	return &PowerTrader{Base: base, draw: base.spec.BasePowerConsumption}
}

// PowerOn queries the grid directly so siblings initialized before this
// component still see the live state.
func (p *PowerTrader) PowerOn() bool { return p.Services().Power.PowerOn(p.Cell()) }

// BaseConsumption implements PowerConsumer.
func (p *PowerTrader) BaseConsumption() float64 { return p.spec.BasePowerConsumption }

// Draw returns the last reported consumption.
func (p *PowerTrader) Draw() float64 { return p.draw }

// SetPowerDraw implements PowerConsumer.
func (p *PowerTrader) SetPowerDraw(watts float64) {
	p.draw = watts
	p.Services().Power.SetDraw(p.Cell(), watts)
}

// Init connects to the grid.
func (p *PowerTrader) Init() { p.connect() }

// PostLoad reconnects after a restore.
func (p *PowerTrader) PostLoad() { p.connect() }

// connect joins the grid. Siblings that initialized earlier saw the cell
// disconnected, so coming up powered is announced like any other transition.
func (p *PowerTrader) connect() {
	pw := p.Services().Power
	pw.Connect(p.Cell())
	pw.SetDraw(p.Cell(), p.draw)
	p.on = pw.PowerOn(p.Cell())
	if p.on {
		p.inst.Signal(SignalPowerTurnedOn)
	}
}

// Tick broadcasts power transitions.
func (p *PowerTrader) Tick() {
	now := p.PowerOn()
	if now == p.on {
		return
	}
	p.on = now
	if now {
		p.inst.Signal(SignalPowerTurnedOn)
	} else {
		p.inst.Signal(SignalPowerTurnedOff)
	}
}

// Teardown disconnects from the grid.
func (p *PowerTrader) Teardown() {
	p.Services().Power.Disconnect(p.Cell())
}

func init() {
	RegisterComponent(CompPowerTrader, newPowerTrader)
}
