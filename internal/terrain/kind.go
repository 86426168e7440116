package terrain

import (
	_ "embed"
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"active-terrain/internal/core"
)

// KindID is the compact per-catalog index the host grid stores for a cell.
// Zero means "no terrain" and is used for an empty under-layer.
type KindID uint16

// NoKind marks a cell layer without terrain.
const NoKind KindID = 0

// CompType tags a component specification.
type CompType string

const (
	CompHeatPush    CompType = "heat_push"
	CompSelfClean   CompType = "self_clean"
	CompTempControl CompType = "temp_control"
	CompGlower      CompType = "glower"
	CompPowerTrader CompType = "power_trader"
)

// Color is an RGBA color that reads and writes as "#rrggbb" or "#rrggbbaa".
type Color struct {
	R, G, B, A uint8
}

// RGBA converts the color for image and render code.
func (c Color) RGBA() color.RGBA { return color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A} }

// String formats the color as a hex string.
func (c Color) String() string {
	if c.A == 0xff {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// ParseColor parses "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return Color{}, fmt.Errorf("color %q: want #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	if len(hex) == 6 {
		v = v<<8 | 0xff
	}
	return Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (c Color) MarshalYAML() (any, error) { return c.String(), nil }

// CompSpec is the static parameter set of one behavior module. Only the
// fields relevant to Type are read.
type CompSpec struct {
	Type CompType `yaml:"type"`

	// heat_push
	PushAmount float64 `yaml:"push_amount,omitempty"`

	// self_clean
	CleanRate float64 `yaml:"clean_rate,omitempty"`

	// temp_control
	EnergyPerSecond           float64 `yaml:"energy_per_second,omitempty"`
	ReliesOnPower             bool    `yaml:"relies_on_power,omitempty"`
	LowPowerConsumptionFactor float64 `yaml:"low_power_consumption_factor,omitempty"`
	CleansSnow                bool    `yaml:"cleans_snow,omitempty"`
	SnowMeltPerSecond         float64 `yaml:"snow_melt_per_second,omitempty"`

	// glower
	GlowRadius      float64 `yaml:"glow_radius,omitempty"`
	OverlightRadius float64 `yaml:"overlight_radius,omitempty"`
	GlowColor       Color   `yaml:"glow_color,omitempty"`
	Powered         bool    `yaml:"powered,omitempty"`

	// power_trader
	BasePowerConsumption float64 `yaml:"base_power_consumption,omitempty"`
}

func (s *CompSpec) applyDefaults() {
	switch s.Type {
	case CompSelfClean:
		if s.CleanRate <= 0 {
			s.CleanRate = 1
		}
	case CompTempControl:
		if s.LowPowerConsumptionFactor <= 0 {
			s.LowPowerConsumptionFactor = 0.1
		}
	case CompGlower:
		if s.GlowColor == (Color{}) {
			s.GlowColor = Color{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
		}
	}
}

// Kind is the static definition of a terrain type.
type Kind struct {
	ID        KindID     `yaml:"-"`
	Name      string     `yaml:"name"`
	Label     string     `yaml:"label"`
	Layerable bool       `yaml:"layerable,omitempty"`
	Color     Color      `yaml:"color"`
	Comps     []CompSpec `yaml:"components,omitempty"`
}

// Special reports whether instances of this kind carry live behavior.
func (k *Kind) Special() bool { return k != nil && len(k.Comps) > 0 }

// CompSpec returns the first spec of the given type.
func (k *Kind) CompSpec(t CompType) (CompSpec, bool) {
	if k == nil {
		return CompSpec{}, false
	}
	for _, s := range k.Comps {
		if s.Type == t {
			return s, true
		}
	}
	return CompSpec{}, false
}

// Catalog is the immutable set of terrain kinds loaded at startup.
type Catalog struct {
	kinds  []*Kind
	byName map[string]*Kind
}

type catalogFile struct {
	Kinds []*Kind `yaml:"kinds"`
}

//go:embed kinds.yaml
var defaultCatalogYAML []byte

// DefaultCatalog parses the embedded catalog. It panics on a malformed
// embedded file since that is a build defect.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("terrain: embedded catalog: %v", err))
	}
	return c
}

// LoadCatalog reads a YAML catalog from disk.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	return NewCatalog(f.Kinds...)
}

// NewCatalog assigns ids in argument order and validates the kinds.
func NewCatalog(kinds ...*Kind) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]*Kind, len(kinds))}
	for i, k := range kinds {
		if k == nil || k.Name == "" {
			return nil, fmt.Errorf("kind #%d: missing name", i)
		}
		if _, dup := c.byName[k.Name]; dup {
			return nil, fmt.Errorf("kind %q: duplicate name", k.Name)
		}
		if i+1 > int(^KindID(0)) {
			return nil, fmt.Errorf("too many kinds (%d)", len(kinds))
		}
		for j := range k.Comps {
			spec := &k.Comps[j]
			if _, ok := lookupConstructor(spec.Type); !ok {
				return nil, fmt.Errorf("kind %q: component #%d: unknown type %q", k.Name, j, spec.Type)
			}
			spec.applyDefaults()
		}
		if k.Label == "" {
			k.Label = k.Name
		}
		k.ID = KindID(i + 1)
		c.kinds = append(c.kinds, k)
		c.byName[k.Name] = k
	}
	return c, nil
}

// Kind resolves an id. It returns nil for NoKind and unknown ids.
func (c *Catalog) Kind(id KindID) *Kind {
	if id == NoKind || int(id) > len(c.kinds) {
		return nil
	}
	return c.kinds[id-1]
}

// Lookup resolves a stable kind name.
func (c *Catalog) Lookup(name string) (*Kind, bool) {
	k, ok := c.byName[name]
	return k, ok
}

// MustLookup resolves a name and panics when it is unknown.
func (c *Catalog) MustLookup(name string) *Kind {
	k, ok := c.byName[name]
	if !ok {
		panic(fmt.Sprintf("terrain: unknown kind %q", name))
	}
	return k
}

// IsSpecial reports whether id names a special kind.
func (c *Catalog) IsSpecial(id KindID) bool { return c.Kind(id).Special() }

// Kinds returns the kinds in id order.
func (c *Catalog) Kinds() []*Kind { return c.kinds }

// Parameters renders every kind and its component parameters for display.
func (c *Catalog) Parameters() core.ParameterSnapshot {
	groups := make([]core.ParameterGroup, 0, len(c.kinds))
	for _, k := range c.kinds {
		g := core.ParameterGroup{
			Name: k.Name,
			Params: []core.Parameter{
				core.StringParam("label", "Label", k.Label),
				core.BoolParam("special", "Special", k.Special()),
				core.BoolParam("layerable", "Layerable", k.Layerable),
			},
		}
		for _, s := range k.Comps {
			g.Params = append(g.Params, specParams(s)...)
		}
		if k.Special() {
			names := make([]string, len(k.Comps))
			for i, s := range k.Comps {
				names[i] = string(s.Type)
			}
			g.Summary = strings.Join(names, ", ")
		}
		groups = append(groups, g)
	}
	return core.ParameterSnapshot{Groups: groups}
}

func specParams(s CompSpec) []core.Parameter {
	prefix := string(s.Type) + "."
	switch s.Type {
	case CompHeatPush:
		return []core.Parameter{core.FloatParam(prefix+"push_amount", "Push amount", s.PushAmount)}
	case CompSelfClean:
		return []core.Parameter{core.FloatParam(prefix+"clean_rate", "Clean rate", s.CleanRate)}
	case CompTempControl:
		return []core.Parameter{
			core.FloatParam(prefix+"energy_per_second", "Energy per second", s.EnergyPerSecond),
			core.BoolParam(prefix+"relies_on_power", "Relies on power", s.ReliesOnPower),
			core.FloatParam(prefix+"low_power_consumption_factor", "Low power factor", s.LowPowerConsumptionFactor),
			core.BoolParam(prefix+"cleans_snow", "Cleans snow", s.CleansSnow),
			core.FloatParam(prefix+"snow_melt_per_second", "Snow melt per second", s.SnowMeltPerSecond),
		}
	case CompGlower:
		return []core.Parameter{
			core.FloatParam(prefix+"glow_radius", "Glow radius", s.GlowRadius),
			core.FloatParam(prefix+"overlight_radius", "Overlight radius", s.OverlightRadius),
			core.StringParam(prefix+"glow_color", "Glow color", s.GlowColor.String()),
			core.BoolParam(prefix+"powered", "Powered", s.Powered),
		}
	case CompPowerTrader:
		return []core.Parameter{core.FloatParam(prefix+"base_power_consumption", "Base power consumption", s.BasePowerConsumption)}
	}
	return nil
}
