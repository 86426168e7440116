package host

import "active-terrain/internal/core"

// SetPowered marks whether the power net reaches c.
func (w *World) SetPowered(c core.Cell, on bool) { w.powered.Set(c, on) }

// Powered reports whether the power net reaches c.
func (w *World) Powered(c core.Cell) bool { return w.powered.At(c) }

// Connect implements terrain.Power.
func (w *World) Connect(c core.Cell) {
	if _, ok := w.consumers[c]; !ok {
		w.consumers[c] = 0
	}
}

// Disconnect implements terrain.Power.
func (w *World) Disconnect(c core.Cell) { delete(w.consumers, c) }

// PowerOn implements terrain.Power. Only connected cells draw power.
func (w *World) PowerOn(c core.Cell) bool {
	_, ok := w.consumers[c]
	return ok && w.powered.At(c)
}

// SetDraw implements terrain.Power.
func (w *World) SetDraw(c core.Cell, watts float64) {
	if _, ok := w.consumers[c]; ok {
		w.consumers[c] = watts
	}
}

// Draw returns the consumption reported for c.
func (w *World) Draw(c core.Cell) float64 { return w.consumers[c] }

// Consumers returns the number of connected cells.
func (w *World) Consumers() int { return len(w.consumers) }

// TotalDraw sums the consumption of powered consumers.
func (w *World) TotalDraw() float64 {
	var total float64
	for c, watts := range w.consumers {
		if w.powered.At(c) {
			total += watts
		}
	}
	return total
}
