package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"active-terrain/internal/core"
	"active-terrain/internal/logging"
	"active-terrain/internal/sim"
	"active-terrain/internal/store"
	"active-terrain/internal/terrain"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func smallWorld(db string) []string {
	return []string{"--db", db, "--log-level", "error", "--set", "world.width=24", "--set", "world.height=16"}
}

func TestKindsCommand(t *testing.T) {
	out, err := execute(t, "kinds", "--db", filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	assert.Contains(t, out, "HeatedFloor")
	assert.Contains(t, out, "power_trader, temp_control")
}

func TestMigrateCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "saves.db")
	out, err := execute(t, "migrate", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 2")

	out, err = execute(t, "migrate", "--down", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 1")
}

func TestRunSaveResumeInspect(t *testing.T) {
	db := filepath.Join(t.TempDir(), "saves.db")

	out, err := execute(t, append(smallWorld(db), "run", "--ticks", "120", "--save", "north", "--json")...)
	require.NoError(t, err)
	var first Summary
	require.NoError(t, json.Unmarshal([]byte(out), &first))
	assert.Equal(t, 120, first.Ticks)
	assert.Equal(t, 120, first.WorldTick)
	assert.Greater(t, first.Terrain, 0)
	assert.Contains(t, first.TerrainKinds, "HeatedFloor")

	out, err = execute(t, append(smallWorld(db), "run", "--ticks", "10", "--resume", "north", "--json")...)
	require.NoError(t, err)
	var resumed Summary
	require.NoError(t, json.Unmarshal([]byte(out), &resumed))
	assert.Equal(t, 130, resumed.WorldTick)
	assert.Equal(t, first.Terrain, resumed.Terrain)

	out, err = execute(t, append(smallWorld(db), "inspect", "north", "--json")...)
	require.NoError(t, err)
	var rows []instanceReport
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Len(t, rows, first.Terrain)
	for _, r := range rows {
		assert.NotEmpty(t, r.Label)
		assert.NotEmpty(t, r.Components)
	}

	out, err = execute(t, append(smallWorld(db), "inspect", "north")...)
	require.NoError(t, err)
	assert.Contains(t, out, "north: 24x16 at tick 120")
	assert.Contains(t, out, "CELL")

	out, err = execute(t, append(smallWorld(db), "saves", "list")...)
	require.NoError(t, err)
	assert.Contains(t, out, "north")

	_, err = execute(t, append(smallWorld(db), "saves", "delete", "north")...)
	require.NoError(t, err)
	_, err = execute(t, append(smallWorld(db), "inspect", "north")...)
	assert.ErrorIs(t, err, store.ErrNotFound)

	out, err = execute(t, append(smallWorld(db), "saves", "list")...)
	require.NoError(t, err)
	assert.Contains(t, out, "No saves.")
}

func TestInvalidOverrides(t *testing.T) {
	_, err := execute(t, "kinds", "--set", "world.width=-1")
	assert.ErrorContains(t, err, "invalid config")

	_, err = execute(t, "kinds", "--set", "world.colour=red")
	assert.ErrorContains(t, err, "unknown config key")
}

func newTestSession(t *testing.T) *sim.Session {
	t.Helper()
	cfg := sim.DefaultConfig()
	cfg.Host.Width, cfg.Host.Height = 24, 16
	s := sim.NewSession(cfg, terrain.DefaultCatalog(), logging.Discard())
	t.Cleanup(s.Close)
	require.NoError(t, s.ResetScenario("demo", 0))
	return s
}

func TestRunTicks(t *testing.T) {
	s := newTestSession(t)
	ran, err := runTicks(context.Background(), s, 30, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 30, ran)
	assert.Equal(t, 30, s.World().Ticks())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ran, err = runTicks(ctx, s, 30, 1, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, ran)
	assert.Equal(t, 30, s.World().Ticks())

	ran, err = runTicks(context.Background(), s, 5, 1, core.NewFixedStep(1000))
	require.NoError(t, err)
	assert.Equal(t, 5, ran)
	assert.Equal(t, 35, s.World().Ticks())
}

func TestSweep(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.Host.Width, cfg.Host.Height = 24, 16
	sets := []sweepParams{
		{outdoor: -20, leak: 0.002, seed: 1},
		{outdoor: 10, leak: 0.0005, seed: 1},
		{outdoor: 10, leak: 0.0005, seed: 2},
	}
	// Stop before the first heat push so only the climate separates rooms.
	results := sweep(cfg, terrain.DefaultCatalog(), sets, terrain.HeatPushInterval-1, 2)
	require.Len(t, results, len(sets))
	for _, r := range results {
		require.NoError(t, r.err)
		assert.Greater(t, r.peakDraw, 0.0)
	}
	assert.GreaterOrEqual(t, results[0].finalTemp, results[1].finalTemp)
	assert.Equal(t, -20.0, results[2].params.outdoor)

	var buf bytes.Buffer
	printSweep(&buf, results, 0)
	assert.Contains(t, buf.String(), "outdoor=-20.0")
}
