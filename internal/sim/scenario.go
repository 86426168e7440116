package sim

import (
	"fmt"
	"image"
	"sort"

	"active-terrain/internal/core"
	"active-terrain/internal/host"
	pcore "active-terrain/pkg/core"
)

// Scenario lays out a freshly cleared world. Terrain must be placed with
// SetTerrain so the attached registry sees it.
type Scenario func(w *host.World, rng *pcore.RNG) error

var scenarios = map[string]Scenario{}

// RegisterScenario adds a scenario under name.
func RegisterScenario(name string, s Scenario) {
	if name == "" || s == nil {
		return
	}
	scenarios[name] = s
}

// Scenarios lists the registered scenario names in sorted order.
func Scenarios() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupScenario(name string) (Scenario, error) {
	s, ok := scenarios[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q", name)
	}
	return s, nil
}

// emptyScenario covers the world in soil.
func emptyScenario(w *host.World, _ *pcore.RNG) error {
	w.Fill(w.Catalog().MustLookup("Soil"))
	return nil
}

// demoScenario builds a heated, lit and self-cleaning room on a snowy field.
func demoScenario(w *host.World, rng *pcore.RNG) error {
	cat := w.Catalog()
	if err := emptyScenario(w, rng); err != nil {
		return err
	}
	size := w.Size()
	if size.W < 12 || size.H < 10 {
		return fmt.Errorf("demo scenario needs at least 12x10 cells, got %dx%d", size.W, size.H)
	}

	bounds := image.Rect(2, 2, size.W/2, size.H-2)
	room, err := w.AddRoom(bounds)
	if err != nil {
		return err
	}
	room.InstallThermostat(21)

	concrete := cat.MustLookup("Concrete")
	heated := cat.MustLookup("HeatedFloor")
	sterile := cat.MustLookup("SterileTile")
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := core.Cell{X: x, Y: y}
			if err := w.SetTerrain(c, concrete); err != nil {
				return err
			}
			switch {
			case y == bounds.Min.Y+1 && x > bounds.Min.X && x < bounds.Max.X-1:
				err = w.SetTerrain(c, heated)
				w.SetPowered(c, true)
			case y == bounds.Max.Y-2 && x > bounds.Min.X && x < bounds.Max.X-1:
				err = w.SetTerrain(c, sterile)
			}
			if err != nil {
				return err
			}
		}
	}

	// Dirt the sterile row.
	for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
		if !rng.Chance(0.5) {
			continue
		}
		if _, err := w.SpawnFilth(core.Cell{X: x, Y: bounds.Max.Y - 2}, 1+rng.IntN(3)); err != nil {
			return err
		}
	}

	// A glowing path leads east from the room; only its first half is wired.
	glow := cat.MustLookup("GlowPath")
	pathY := (bounds.Min.Y + bounds.Max.Y) / 2
	for x := bounds.Max.X; x < size.W-1; x++ {
		c := core.Cell{X: x, Y: pathY}
		if err := w.SetTerrain(c, glow); err != nil {
			return err
		}
		w.SetPowered(c, x < (bounds.Max.X+size.W)/2)
	}

	warm := cat.MustLookup("WarmStone")
	moon := cat.MustLookup("Moonstone")
	for i := 0; i < 6; i++ {
		c := core.Cell{X: size.W/2 + 1 + rng.IntN(size.W/2-2), Y: rng.IntN(size.H)}
		if c.Y == pathY {
			continue
		}
		kind := moon
		if rng.Bool() {
			kind = warm
		}
		if err := w.SetTerrain(c, kind); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	RegisterScenario("empty", emptyScenario)
	RegisterScenario("demo", demoScenario)
}
