package core

import "fmt"

// Cell addresses a single grid position.
type Cell struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// String formats the cell as "(x, y)".
func (c Cell) String() string { return fmt.Sprintf("(%d, %d)", c.X, c.Y) }

// Size describes the dimensions of a simulation grid.
type Size struct {
	W int
	H int
}

// Contains reports whether the cell lies inside the grid.
func (s Size) Contains(c Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < s.W && c.Y < s.H
}

// Index returns the row-major index of c.
func (s Size) Index(c Cell) int { return c.Y*s.W + c.X }

// CellAt converts a row-major index back into a cell.
func (s Size) CellAt(i int) Cell { return Cell{X: i % s.W, Y: i / s.W} }

// Area returns W*H.
func (s Size) Area() int { return s.W * s.H }

// Sim defines the minimal contract a runnable simulation must implement.
type Sim interface {
	Name() string
	Size() Size
	Reset(seed int64)
	Step()
	Cells() []uint8
}

// Factory constructs a Sim using an optional configuration map.
type Factory func(cfg map[string]string) Sim

var sims = map[string]Factory{}

// Register adds a simulation factory under the provided name.
func Register(name string, f Factory) {
	if name == "" || f == nil {
		return
	}
	sims[name] = f
}

// Sims exposes the registry of available simulation factories.
func Sims() map[string]Factory {
	return sims
}
