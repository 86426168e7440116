package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"active-terrain/internal/core"
	"active-terrain/internal/sim"
)

func TestDefaultMatchesSessionDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, sim.DefaultConfig(), cfg.Session())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "terrain.db", cfg.Save.Path)
	assert.Equal(t, sim.Name, cfg.Sim.Name)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terrain.yaml")
	data := []byte(`
logging:
  level: debug
world:
  width: 20
  scenario: empty
climate:
  outdoor_temp: 3.5
sim:
  tps: 30
debug: true
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 20, cfg.World.Width)
	// Unset keys keep their defaults.
	assert.Equal(t, Default().World.Height, cfg.World.Height)
	assert.Equal(t, "empty", cfg.World.Scenario)
	assert.Equal(t, 3.5, cfg.Climate.OutdoorTemperature)
	assert.Equal(t, 30, cfg.Sim.TPS)
	assert.True(t, cfg.Debug)
	assert.True(t, cfg.Session().Debug)
	assert.Equal(t, 20, cfg.Session().Host.Width)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("world: [1, 2"), 0o600))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("TERRAIN_WORLD_SEED", "42")
	t.Setenv("TERRAIN_SAVE_PATH", "/tmp/x.db")
	t.Setenv("TERRAIN_DEBUG", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.World.Seed)
	assert.Equal(t, "/tmp/x.db", cfg.Save.Path)
	assert.True(t, cfg.Debug)

	t.Setenv("TERRAIN_SIM_TPS", "fast")
	_, err = Load("")
	assert.ErrorContains(t, err, "TERRAIN_SIM_TPS")
}

func TestApplyOverrides(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyOverrides(map[string]string{
		"world.width":       "12",
		"world.height":      "10",
		"climate.room_leak": "0.25",
		"kinds.path":        "kinds.yaml",
		"logging.level":     "TRACE",
	}))
	assert.Equal(t, 12, cfg.World.Width)
	assert.Equal(t, 10, cfg.World.Height)
	assert.Equal(t, 0.25, cfg.Climate.RoomLeak)
	assert.Equal(t, "kinds.yaml", cfg.Kinds.Path)
	assert.Equal(t, "trace", cfg.Logging.Level)

	assert.ErrorContains(t, cfg.ApplyOverrides(map[string]string{"world.depth": "3"}), "unknown config key")
	assert.Error(t, cfg.ApplyOverrides(map[string]string{"world.width": "wide"}))

	for _, key := range Keys() {
		err := Default().ApplyOverrides(map[string]string{key: "1"})
		if err != nil {
			assert.NotContains(t, err.Error(), "unknown config key", key)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.World.Width = 0 }},
		{"empty scenario", func(c *Config) { c.World.Scenario = "" }},
		{"leak above one", func(c *Config) { c.Climate.RoomLeak = 1.5 }},
		{"negative snow", func(c *Config) { c.Climate.SnowRate = -1 }},
		{"zero filth work", func(c *Config) { c.Climate.FilthWork = 0 }},
		{"unknown sim", func(c *Config) { c.Sim.Name = "volcano" }},
		{"zero tps", func(c *Config) { c.Sim.TPS = 0 }},
		{"zero frames per tick", func(c *Config) { c.Sim.FramesPerTick = 0 }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestCatalogAndLogger(t *testing.T) {
	cfg := Default()
	cat, err := cfg.Catalog()
	require.NoError(t, err)
	_, ok := cat.Lookup("HeatedFloor")
	assert.True(t, ok)

	cfg.Kinds.Path = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = cfg.Catalog()
	assert.Error(t, err)

	var buf bytes.Buffer
	cfg.Logging.Level = "warn"
	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestSimParamsBuildTheConfiguredSession(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ApplyOverrides(map[string]string{
		"world.width":          "31",
		"world.seed":           "-4",
		"world.scenario":       "empty",
		"climate.outdoor_temp": "-7.25",
		"climate.room_leak":    "0.1",
		"climate.filth_work":   "3.3",
		"debug":                "true",
	}))
	assert.Equal(t, cfg.Session(), sim.FromMap(cfg.SimParams()))

	factory, ok := core.Sims()[cfg.Sim.Name]
	require.True(t, ok)
	session, ok := factory(cfg.SimParams()).(*sim.Session)
	require.True(t, ok)
	defer session.Close()
	require.NoError(t, session.ResetScenario(cfg.World.Scenario, cfg.World.Seed))
	assert.Equal(t, core.Size{W: 31, H: cfg.World.Height}, session.Size())
}
