package host

import "strconv"

// Config controls a host world.
type Config struct {
	Width  int
	Height int

	// OutdoorTemperature is the ambient temperature outside rooms.
	OutdoorTemperature float64
	// RoomTemperature is the starting temperature of new rooms.
	RoomTemperature float64
	// RoomLeak is the fraction of the indoor/outdoor difference a room
	// loses per tick.
	RoomLeak float64
	// SnowRate is the depth added per tick to outdoor cells while the
	// outdoor temperature is below freezing.
	SnowRate float64
	// FilthWork is the cleaning work per thickness step of new filth.
	FilthWork float64
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Width:              48,
		Height:             32,
		OutdoorTemperature: -5,
		RoomTemperature:    12,
		RoomLeak:           0.0005,
		SnowRate:           0.0002,
		FilthWork:          70,
	}
}

// FromMap populates the config from a string map (flag-style key/value pairs).
func FromMap(cfg map[string]string) Config {
	c := DefaultConfig()
	if cfg == nil {
		return c
	}
	if v, ok := cfg["w"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Width = parsed
		}
	}
	if v, ok := cfg["h"]; ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.Height = parsed
		}
	}
	if v, ok := cfg["outdoor_temp"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			c.OutdoorTemperature = parsed
		}
	}
	if v, ok := cfg["room_temp"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			c.RoomTemperature = parsed
		}
	}
	if v, ok := cfg["room_leak"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 && parsed <= 1 {
			c.RoomLeak = parsed
		}
	}
	if v, ok := cfg["snow_rate"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 {
			c.SnowRate = parsed
		}
	}
	if v, ok := cfg["filth_work"]; ok {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			c.FilthWork = parsed
		}
	}
	return c
}
