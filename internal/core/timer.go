package core

import "time"

// FixedStep paces simulation ticks at a steady ticks-per-second rate while the
// caller's loop runs at frame rate.
type FixedStep struct {
	step        time.Duration
	accumulator time.Duration
	last        time.Time
	maxCatchUp  int

	now func() time.Time
}

// NewFixedStep constructs a FixedStep controller targeting the given TPS.
func NewFixedStep(tps int) *FixedStep {
	fs := &FixedStep{maxCatchUp: 5, now: time.Now}
	fs.SetTPS(tps)
	fs.accumulator = fs.step
	return fs
}

// SetTPS changes the tick rate. It is safe to call from the main loop.
func (f *FixedStep) SetTPS(tps int) {
	if tps <= 0 {
		tps = 60
	}
	f.step = time.Second / time.Duration(tps)
}

// Interval returns the duration of one tick.
func (f *FixedStep) Interval() time.Duration { return f.step }

// Pending consumes elapsed time and returns how many ticks are due, capped so
// a stalled frame does not trigger an unbounded catch-up burst.
func (f *FixedStep) Pending() int {
	now := f.now()
	if f.last.IsZero() {
		f.last = now
	}
	f.accumulator += now.Sub(f.last)
	f.last = now

	n := 0
	for f.accumulator >= f.step && n < f.maxCatchUp {
		f.accumulator -= f.step
		n++
	}
	if n == f.maxCatchUp {
		f.accumulator = 0
	}
	return n
}
