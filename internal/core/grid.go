package core

// Layer stores a 2D grid of values in row-major order.
type Layer[T any] struct {
	W, H int
	data []T
}

// NewLayer allocates a layer with the given dimensions.
func NewLayer[T any](w, h int) *Layer[T] {
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = 1
	}
	return &Layer[T]{W: w, H: h, data: make([]T, w*h)}
}

// Cells exposes the backing slice so callers can read/write values directly.
func (l *Layer[T]) Cells() []T { return l.data }

// Index returns the linear slice index for coordinates (x, y).
func (l *Layer[T]) Index(x, y int) int { return y*l.W + x }

// Size reports the layer dimensions.
func (l *Layer[T]) Size() Size { return Size{W: l.W, H: l.H} }

// InBounds reports whether c addresses a value in the layer.
func (l *Layer[T]) InBounds(c Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < l.W && c.Y < l.H
}

// At returns the value at c, or the zero value when c is out of bounds.
func (l *Layer[T]) At(c Cell) T {
	if !l.InBounds(c) {
		var zero T
		return zero
	}
	return l.data[l.Index(c.X, c.Y)]
}

// Set writes v at c. Out-of-bounds writes are ignored.
func (l *Layer[T]) Set(c Cell, v T) {
	if !l.InBounds(c) {
		return
	}
	l.data[l.Index(c.X, c.Y)] = v
}

// Fill writes v into every cell.
func (l *Layer[T]) Fill(v T) {
	for i := range l.data {
		l.data[i] = v
	}
}

// Clear fills the layer with zero values.
func (l *Layer[T]) Clear() {
	var zero T
	l.Fill(zero)
}
