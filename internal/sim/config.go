package sim

import (
	"strconv"

	"active-terrain/internal/host"
)

// Config controls a session.
type Config struct {
	Host host.Config

	// Scenario names the generator used by Reset.
	Scenario string
	Seed     int64
	// Debug makes registry consistency violations panic.
	Debug bool
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Host:     host.DefaultConfig(),
		Scenario: "demo",
		Seed:     1337,
	}
}

// FromMap populates the config from a string map (flag-style key/value pairs).
// Host keys are read by host.FromMap.
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	c.Host = host.FromMap(cfg)
	if v, ok := cfg["scenario"]; ok && v != "" {
		c.Scenario = v
	}
	if v, ok := cfg["seed"]; ok {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = parsed
		}
	}
	if v, ok := cfg["debug"]; ok {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.Debug = parsed
		}
	}
	return c
}
