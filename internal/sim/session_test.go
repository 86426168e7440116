package sim

import (
	"encoding/json"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"active-terrain/internal/core"
	"active-terrain/internal/terrain"
)

func newTestSession(t *testing.T, scenario string) *Session {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Host.Width, cfg.Host.Height = 24, 16
	cfg.Scenario = scenario
	cfg.Debug = true
	s := NewSession(cfg, terrain.DefaultCatalog(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(s.Close)
	require.NoError(t, s.ResetScenario(scenario, 0))
	return s
}

// assertConsistent checks that tracked cells are exactly the special cells.
func assertConsistent(t *testing.T, s *Session) {
	t.Helper()
	w := s.World()
	cat := w.Catalog()
	size := w.Size()
	var special []core.Cell
	for i := 0; i < size.Area(); i++ {
		c := size.CellAt(i)
		if cat.IsSpecial(w.TerrainAt(c)) {
			special = append(special, c)
		}
	}
	if diff := cmp.Diff(special, s.Registry().Cells()); diff != "" {
		t.Fatalf("registry out of step with grid (-grid +registry):\n%s", diff)
	}
}

func TestDemoScenarioRegistersSpecialTerrain(t *testing.T) {
	s := newTestSession(t, "demo")
	assertConsistent(t, s)
	assert.Greater(t, s.Registry().Len(), 10)

	// Resetting replaces everything without leaking instances.
	require.NoError(t, s.ResetScenario("demo", 99))
	assertConsistent(t, s)
	require.NoError(t, s.ResetScenario("empty", 0))
	assert.Equal(t, 0, s.Registry().Len())
	assert.Empty(t, s.World().Lights())
	assert.Equal(t, 0, s.World().Consumers())

	assert.Error(t, s.ResetScenario("volcano", 0))
}

func TestScenarioIsDeterministic(t *testing.T) {
	a := newTestSession(t, "demo")
	b := newTestSession(t, "demo")
	assert.Equal(t, a.Cells(), b.Cells())
	assert.Equal(t, a.World().TotalFilth(), b.World().TotalFilth())
}

func TestHeatedFloorWarmsRoom(t *testing.T) {
	s := newTestSession(t, "demo")
	w := s.World()
	room := w.Rooms()[0]
	start := room.Temperature

	for i := 0; i < 10*terrain.HeatPushInterval; i++ {
		s.Step()
	}
	assert.Greater(t, room.Temperature, start)
	assert.LessOrEqual(t, room.Temperature, 21.0+1e-6)
	assert.Greater(t, w.TotalDraw(), 0.0)
}

func TestSelfCleaningTilesRemoveFilth(t *testing.T) {
	s := newTestSession(t, "empty")
	w := s.World()
	c := core.Cell{X: 3, Y: 3}
	require.NoError(t, w.SetTerrain(c, w.Catalog().MustLookup("SterileTile")))
	f, err := w.SpawnFilth(c, 2)
	require.NoError(t, err)

	work, _ := f.CleaningWork()
	for i := 0; i < int(work); i++ {
		s.Step()
	}
	assert.Equal(t, 1, f.Thickness())
	for i := 0; i < int(work); i++ {
		s.Step()
	}
	assert.True(t, f.Destroyed())
	assert.Equal(t, 0, w.TotalFilth())
}

func TestGlowPathFollowsPowerNet(t *testing.T) {
	s := newTestSession(t, "empty")
	w := s.World()
	c := core.Cell{X: 5, Y: 5}
	require.NoError(t, w.SetTerrain(c, w.Catalog().MustLookup("GlowPath")))
	assert.Empty(t, w.Lights())

	w.SetPowered(c, true)
	s.Step()
	require.Len(t, w.Lights(), 1)
	assert.Equal(t, []core.Cell{c}, w.TakeDirty())
	assert.Equal(t, 1.0, w.LightAt(c))

	// Covering the path with plain floor turns the light off.
	require.NoError(t, w.SetTerrain(c, w.Catalog().MustLookup("Concrete")))
	assert.Empty(t, w.Lights())
	assert.Equal(t, 0, w.Consumers())
	assertConsistent(t, s)
}

func TestRemovingFloorExposesSpecialTerrain(t *testing.T) {
	s := newTestSession(t, "empty")
	w := s.World()
	cat := w.Catalog()
	c := core.Cell{X: 2, Y: 2}
	require.NoError(t, w.SetTerrain(c, cat.MustLookup("Concrete")))
	require.NoError(t, w.SetTerrain(c, cat.MustLookup("HeatedFloor")))
	assertConsistent(t, s)

	require.NoError(t, w.RemoveTopLayer(c))
	assertConsistent(t, s)
	assert.Equal(t, 0, s.Registry().Len())
}

func TestSnapshotActivateRoundTrip(t *testing.T) {
	s := newTestSession(t, "demo")
	for i := 0; i < 150; i++ {
		s.Step()
	}
	st, err := s.Snapshot()
	require.NoError(t, err)
	data, err := json.Marshal(st)
	require.NoError(t, err)

	var decoded State
	require.NoError(t, json.Unmarshal(data, &decoded))
	other := newTestSession(t, "empty")
	require.NoError(t, other.Activate(decoded))
	assertConsistent(t, other)

	again, err := other.Snapshot()
	require.NoError(t, err)
	if diff := cmp.Diff(st, again); diff != "" {
		t.Fatalf("state after activate differs (-saved +restored):\n%s", diff)
	}
	assert.Equal(t, len(s.World().Lights()), len(other.World().Lights()))
	assert.Equal(t, s.World().Consumers(), other.World().Consumers())

	// Both sessions evolve identically from here.
	for i := 0; i < 120; i++ {
		s.Step()
		other.Step()
	}
	assert.InDelta(t, s.World().Rooms()[0].Temperature, other.World().Rooms()[0].Temperature, 1e-9)
	assert.Equal(t, s.World().TotalFilth(), other.World().TotalFilth())
}

func TestActivateRegistersTerrainMissingFromSave(t *testing.T) {
	s := newTestSession(t, "empty")
	w := s.World()
	_, err := w.AddRoom(image.Rect(0, 0, 4, 4))
	require.NoError(t, err)
	require.NoError(t, w.SetTerrain(core.Cell{X: 1, Y: 1}, w.Catalog().MustLookup("WarmStone")))

	st, err := s.Snapshot()
	require.NoError(t, err)
	st.Terrain.Instances = nil

	require.NoError(t, s.Activate(st))
	assert.Equal(t, 1, s.Registry().Len())
	assertConsistent(t, s)
}

func TestRegisteredAsSim(t *testing.T) {
	factory, ok := core.Sims()[Name]
	require.True(t, ok)
	sim := factory(map[string]string{"w": "20", "h": "12", "scenario": "empty"})
	sim.Reset(0)
	assert.Equal(t, core.Size{W: 20, H: 12}, sim.Size())
	assert.Len(t, sim.Cells(), 240)
	sim.Step()
}

func TestFromMap(t *testing.T) {
	cfg := FromMap(map[string]string{"scenario": "empty", "seed": "7", "debug": "true", "w": "30"})
	assert.Equal(t, "empty", cfg.Scenario)
	assert.Equal(t, int64(7), cfg.Seed)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 30, cfg.Host.Width)
	assert.Contains(t, Scenarios(), "demo")
}

func TestParametersIncludeCatalog(t *testing.T) {
	s := newTestSession(t, "empty")
	snap := s.Parameters()
	require.NotEmpty(t, snap.Groups)
	assert.Equal(t, "World", snap.Groups[0].Name)
	assert.Len(t, snap.Groups, 1+len(s.Registry().Catalog().Kinds()))
}

func TestFactoryLoadsKindsFromMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kinds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kinds:\n  - name: Ember\n    components:\n      - type: heat_push\n        push_amount: 7\n"), 0o644))

	session, ok := core.Sims()[Name](map[string]string{"kinds": path, "scenario": "empty"}).(*Session)
	require.True(t, ok)
	defer session.Close()
	_, found := session.Registry().Catalog().Lookup("Ember")
	assert.True(t, found)

	// An unreadable catalog falls back to the built-in kinds.
	fallback := core.Sims()[Name](map[string]string{"kinds": filepath.Join(t.TempDir(), "missing.yaml")}).(*Session)
	defer fallback.Close()
	_, found = fallback.Registry().Catalog().Lookup("HeatedFloor")
	assert.True(t, found)
}
