// Package config loads terrain tool configuration from YAML files and
// environment variables.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"active-terrain/internal/core"
	"active-terrain/internal/host"
	"active-terrain/internal/logging"
	"active-terrain/internal/sim"
	"active-terrain/internal/terrain"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TERRAIN_"

// Config contains every setting of the terrain tools.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	World   WorldConfig   `yaml:"world"`
	Climate ClimateConfig `yaml:"climate"`
	Sim     SimConfig     `yaml:"sim"`
	Save    SaveConfig    `yaml:"save"`
	Kinds   KindsConfig   `yaml:"kinds"`

	// Debug makes registry consistency violations panic.
	Debug bool `yaml:"debug"`
}

// LoggingConfig configures the operational logger.
type LoggingConfig struct {
	// Level is one of error, warn, info, debug or trace.
	Level string `yaml:"level"`
}

// WorldConfig describes the generated region.
type WorldConfig struct {
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	Seed     int64  `yaml:"seed"`
	Scenario string `yaml:"scenario"`
}

// ClimateConfig tunes the host world.
type ClimateConfig struct {
	OutdoorTemperature float64 `yaml:"outdoor_temp"`
	RoomTemperature    float64 `yaml:"room_temp"`
	RoomLeak           float64 `yaml:"room_leak"`
	SnowRate           float64 `yaml:"snow_rate"`
	FilthWork          float64 `yaml:"filth_work"`
}

// SimConfig selects the simulation and paces the run loop.
type SimConfig struct {
	// Name is looked up in the core simulation registry.
	Name string `yaml:"name"`
	// TPS is the tick rate used with --realtime.
	TPS int `yaml:"tps"`
	// FramesPerTick is how often FrameUpdate runs relative to ticks.
	FramesPerTick int `yaml:"frames_per_tick"`
}

// SaveConfig locates the save database.
type SaveConfig struct {
	Path string `yaml:"path"`
}

// KindsConfig locates an optional kind catalog. Empty means the built-in one.
type KindsConfig struct {
	Path string `yaml:"path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	h := host.DefaultConfig()
	s := sim.DefaultConfig()
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		World: WorldConfig{
			Width:    h.Width,
			Height:   h.Height,
			Seed:     s.Seed,
			Scenario: s.Scenario,
		},
		Climate: ClimateConfig{
			OutdoorTemperature: h.OutdoorTemperature,
			RoomTemperature:    h.RoomTemperature,
			RoomLeak:           h.RoomLeak,
			SnowRate:           h.SnowRate,
			FilthWork:          h.FilthWork,
		},
		Sim:  SimConfig{Name: sim.Name, TPS: 60, FramesPerTick: 1},
		Save: SaveConfig{Path: "terrain.db"},
	}
}

// Load reads path when it is non-empty, then applies TERRAIN_* environment
// overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.World.Width <= 0 || c.World.Height <= 0 {
		return fmt.Errorf("world size must be positive, got %dx%d", c.World.Width, c.World.Height)
	}
	if c.World.Scenario == "" {
		return fmt.Errorf("world scenario is empty")
	}
	if c.Climate.RoomLeak < 0 || c.Climate.RoomLeak > 1 {
		return fmt.Errorf("room_leak must be between 0 and 1, got %g", c.Climate.RoomLeak)
	}
	if c.Climate.SnowRate < 0 {
		return fmt.Errorf("snow_rate must be non-negative, got %g", c.Climate.SnowRate)
	}
	if c.Climate.FilthWork <= 0 {
		return fmt.Errorf("filth_work must be positive, got %g", c.Climate.FilthWork)
	}
	if _, ok := core.Sims()[c.Sim.Name]; !ok {
		return fmt.Errorf("unknown sim %q", c.Sim.Name)
	}
	if c.Sim.TPS <= 0 {
		return fmt.Errorf("tps must be positive, got %d", c.Sim.TPS)
	}
	if c.Sim.FramesPerTick <= 0 {
		return fmt.Errorf("frames_per_tick must be positive, got %d", c.Sim.FramesPerTick)
	}
	validLevels := map[string]bool{"error": true, "warn": true, "info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: error, warn, info, debug, trace)", c.Logging.Level)
	}
	return nil
}

// ApplyOverrides sets fields from key=value pairs such as those passed with
// --set. Keys use the dotted YAML path, e.g. "world.width".
func (c *Config) ApplyOverrides(kv map[string]string) error {
	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := c.set(k, kv[k]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) set(key, v string) error {
	var err error
	switch key {
	case "logging.level":
		c.Logging.Level = strings.ToLower(v)
	case "world.width":
		c.World.Width, err = strconv.Atoi(v)
	case "world.height":
		c.World.Height, err = strconv.Atoi(v)
	case "world.seed":
		c.World.Seed, err = strconv.ParseInt(v, 10, 64)
	case "world.scenario":
		c.World.Scenario = v
	case "climate.outdoor_temp":
		c.Climate.OutdoorTemperature, err = strconv.ParseFloat(v, 64)
	case "climate.room_temp":
		c.Climate.RoomTemperature, err = strconv.ParseFloat(v, 64)
	case "climate.room_leak":
		c.Climate.RoomLeak, err = strconv.ParseFloat(v, 64)
	case "climate.snow_rate":
		c.Climate.SnowRate, err = strconv.ParseFloat(v, 64)
	case "climate.filth_work":
		c.Climate.FilthWork, err = strconv.ParseFloat(v, 64)
	case "sim.name":
		c.Sim.Name = v
	case "sim.tps":
		c.Sim.TPS, err = strconv.Atoi(v)
	case "sim.frames_per_tick":
		c.Sim.FramesPerTick, err = strconv.Atoi(v)
	case "save.path":
		c.Save.Path = v
	case "kinds.path":
		c.Kinds.Path = v
	case "debug":
		c.Debug, err = strconv.ParseBool(v)
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	if err != nil {
		return fmt.Errorf("config key %s: %w", key, err)
	}
	return nil
}

// applyEnvOverrides maps TERRAIN_WORLD_WIDTH style variables onto keys.
func applyEnvOverrides(c *Config) error {
	for _, key := range Keys() {
		name := EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if v, ok := os.LookupEnv(name); ok && v != "" {
			if err := c.set(key, v); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	return nil
}

// Keys lists every key accepted by ApplyOverrides.
func Keys() []string {
	return []string{
		"logging.level",
		"world.width", "world.height", "world.seed", "world.scenario",
		"climate.outdoor_temp", "climate.room_temp", "climate.room_leak", "climate.snow_rate", "climate.filth_work",
		"sim.name", "sim.tps", "sim.frames_per_tick",
		"save.path", "kinds.path",
		"debug",
	}
}

// Session converts the configuration into a session config.
func (c *Config) Session() sim.Config {
	return sim.Config{
		Host: host.Config{
			Width:              c.World.Width,
			Height:             c.World.Height,
			OutdoorTemperature: c.Climate.OutdoorTemperature,
			RoomTemperature:    c.Climate.RoomTemperature,
			RoomLeak:           c.Climate.RoomLeak,
			SnowRate:           c.Climate.SnowRate,
			FilthWork:          c.Climate.FilthWork,
		},
		Scenario: c.World.Scenario,
		Seed:     c.World.Seed,
		Debug:    c.Debug,
	}
}

// SimParams renders the session settings as the key/value map taken by the
// factories in core.Sims. Keys follow sim.FromMap.
func (c *Config) SimParams() map[string]string {
	float := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return map[string]string{
		"w":            strconv.Itoa(c.World.Width),
		"h":            strconv.Itoa(c.World.Height),
		"seed":         strconv.FormatInt(c.World.Seed, 10),
		"scenario":     c.World.Scenario,
		"debug":        strconv.FormatBool(c.Debug),
		"outdoor_temp": float(c.Climate.OutdoorTemperature),
		"room_temp":    float(c.Climate.RoomTemperature),
		"room_leak":    float(c.Climate.RoomLeak),
		"snow_rate":    float(c.Climate.SnowRate),
		"filth_work":   float(c.Climate.FilthWork),
		"kinds":        c.Kinds.Path,
	}
}

// Catalog loads the configured kind catalog.
func (c *Config) Catalog() (*terrain.Catalog, error) {
	if c.Kinds.Path == "" {
		return terrain.DefaultCatalog(), nil
	}
	return terrain.LoadCatalog(c.Kinds.Path)
}

// Logger builds the configured logger writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	return logging.NewLogger(c.Logging.Level, w)
}
