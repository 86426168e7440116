package host

import (
	"encoding/json"
	"errors"
	"image"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"active-terrain/internal/core"
	"active-terrain/internal/terrain"
)

func newTestWorld(t *testing.T, w, h int) *World {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = w, h
	return New(cfg, terrain.DefaultCatalog(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type event struct {
	Hook string
	Cell core.Cell
	Top  terrain.KindID
}

// recorder captures hook calls along with the top terrain seen at the time.
type recorder struct {
	w      *World
	events []event
}

func (r *recorder) add(hook string, c core.Cell) {
	r.events = append(r.events, event{Hook: hook, Cell: c, Top: r.w.TerrainAt(c)})
}

func (r *recorder) BeforeSetTerrain(c core.Cell, _ terrain.KindID) { r.add("before_set", c) }
func (r *recorder) AfterSetTerrain(c core.Cell, _ terrain.KindID)  { r.add("after_set", c) }
func (r *recorder) BeforeRemoveTopLayer(c core.Cell)               { r.add("before_remove", c) }
func (r *recorder) AfterRemoveTopLayer(c core.Cell)                { r.add("after_remove", c) }

func TestSetTerrainNotifiesAroundMutation(t *testing.T) {
	w := newTestWorld(t, 4, 4)
	cat := w.Catalog()
	rec := &recorder{w: w}
	unsub := w.Subscribe(rec)

	c := core.Cell{X: 1, Y: 2}
	concrete := cat.MustLookup("Concrete")
	floor := cat.MustLookup("HeatedFloor")

	require.NoError(t, w.SetTerrain(c, concrete))
	require.NoError(t, w.SetTerrain(c, floor))
	assert.Equal(t, floor.ID, w.TerrainAt(c))
	assert.Equal(t, concrete.ID, w.UnderAt(c))

	require.NoError(t, w.RemoveTopLayer(c))
	assert.Equal(t, concrete.ID, w.TerrainAt(c))
	assert.Equal(t, terrain.NoKind, w.UnderAt(c))

	want := []event{
		{Hook: "before_set", Cell: c, Top: terrain.NoKind},
		{Hook: "after_set", Cell: c, Top: concrete.ID},
		{Hook: "before_set", Cell: c, Top: concrete.ID},
		{Hook: "after_set", Cell: c, Top: floor.ID},
		{Hook: "before_remove", Cell: c, Top: floor.ID},
		{Hook: "after_remove", Cell: c, Top: concrete.ID},
	}
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Fatalf("hook sequence mismatch (-want +got):\n%s", diff)
	}

	unsub()
	require.NoError(t, w.SetTerrain(c, floor))
	assert.Len(t, rec.events, len(want))
}

func TestLayerableOverLayerableReplacesTop(t *testing.T) {
	w := newTestWorld(t, 2, 2)
	cat := w.Catalog()
	c := core.Cell{}
	require.NoError(t, w.SetTerrain(c, cat.MustLookup("Soil")))
	require.NoError(t, w.SetTerrain(c, cat.MustLookup("WoodFloor")))
	require.NoError(t, w.SetTerrain(c, cat.MustLookup("SterileTile")))
	assert.Equal(t, cat.MustLookup("Soil").ID, w.UnderAt(c))

	require.NoError(t, w.SetTerrain(c, cat.MustLookup("Concrete")))
	assert.Equal(t, terrain.NoKind, w.UnderAt(c))
}

func TestGridMutationErrors(t *testing.T) {
	w := newTestWorld(t, 2, 2)
	rec := &recorder{w: w}
	w.Subscribe(rec)

	err := w.SetTerrain(core.Cell{X: 5, Y: 0}, w.Catalog().MustLookup("Soil"))
	assert.True(t, errors.Is(err, ErrOutOfBounds))

	err = w.RemoveTopLayer(core.Cell{X: 1, Y: 1})
	assert.True(t, errors.Is(err, ErrNoUnderLayer))
	assert.Empty(t, rec.events)
}

func TestControlTemperatureChange(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	room, err := w.AddRoom(image.Rect(0, 0, 5, 2))
	require.NoError(t, err)
	inside := core.Cell{X: 1, Y: 1}

	room.Temperature = 10
	assert.InDelta(t, 50, w.ControlTemperatureChange(inside, 50, 21), 1e-9)

	room.Temperature = 20.5
	assert.InDelta(t, 5, w.ControlTemperatureChange(inside, 50, 21), 1e-9)

	room.Temperature = 25
	assert.Equal(t, 0.0, w.ControlTemperatureChange(inside, 50, 21))

	assert.Equal(t, 0.0, w.ControlTemperatureChange(core.Cell{X: 8, Y: 8}, 50, 21))

	room.Temperature = 10
	w.PushHeat(inside, 50)
	assert.InDelta(t, 15, w.TemperatureAt(inside), 1e-9)

	w.PushHeat(core.Cell{X: 8, Y: 8}, 7)
	assert.Equal(t, 7.0, w.OutdoorHeat())
	assert.Equal(t, w.OutdoorTemperature(), w.TemperatureAt(core.Cell{X: 8, Y: 8}))
}

func TestRoomsAndThermostats(t *testing.T) {
	w := newTestWorld(t, 10, 10)
	room, err := w.AddRoom(image.Rect(2, 2, 6, 6))
	require.NoError(t, err)

	_, err = w.AddRoom(image.Rect(5, 5, 8, 8))
	assert.True(t, errors.Is(err, ErrRoomOverlap))
	_, err = w.AddRoom(image.Rect(8, 8, 12, 12))
	assert.True(t, errors.Is(err, ErrOutOfBounds))

	c := core.Cell{X: 3, Y: 3}
	assert.True(t, w.InRoomGroup(c))
	assert.False(t, w.InRoomGroup(core.Cell{X: 0, Y: 0}))

	_, ok := w.ThermostatFor(c)
	assert.False(t, ok)

	th := room.InstallThermostat(19)
	got, ok := w.ThermostatFor(c)
	require.True(t, ok)
	assert.Equal(t, 19.0, got.TargetTemperature())
	assert.True(t, got.Active())

	room.RemoveThermostat()
	assert.False(t, th.Active())
	_, ok = w.ThermostatFor(c)
	assert.False(t, ok)
}

func TestStepLeaksHeatAndSnows(t *testing.T) {
	w := newTestWorld(t, 4, 4)
	room, err := w.AddRoom(image.Rect(0, 0, 2, 2))
	require.NoError(t, err)
	room.Temperature = 20
	w.SetOutdoorTemperature(-10)

	w.Step()
	assert.Equal(t, 1, w.Ticks())
	assert.Less(t, room.Temperature, 20.0)
	assert.Equal(t, 0.0, w.SnowDepth(core.Cell{X: 0, Y: 0}))
	assert.InDelta(t, w.Config().SnowRate, w.SnowDepth(core.Cell{X: 3, Y: 3}), 1e-12)

	w.SetSnowDepth(core.Cell{X: 3, Y: 3}, 4)
	assert.Equal(t, 1.0, w.SnowDepth(core.Cell{X: 3, Y: 3}))
}

func TestPowerConsumers(t *testing.T) {
	w := newTestWorld(t, 4, 4)
	c := core.Cell{X: 2, Y: 2}
	w.SetPowered(c, true)
	assert.False(t, w.PowerOn(c), "unconnected cells draw nothing")

	w.Connect(c)
	w.SetDraw(c, 120)
	assert.True(t, w.PowerOn(c))
	assert.Equal(t, 120.0, w.TotalDraw())

	w.SetPowered(c, false)
	assert.False(t, w.PowerOn(c))
	assert.Equal(t, 0.0, w.TotalDraw())

	w.Disconnect(c)
	w.SetDraw(c, 50)
	assert.Equal(t, 0, w.Consumers())
}

func TestFilthLifecycle(t *testing.T) {
	w := newTestWorld(t, 4, 4)
	c := core.Cell{X: 1, Y: 1}
	first, err := w.SpawnFilth(c, 2)
	require.NoError(t, err)
	second, err := w.SpawnFilth(c, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, w.FilthCount(c))

	got, ok := w.FilthAt(c)
	require.True(t, ok)
	assert.Equal(t, first.ID(), got.ID())

	first.Thin()
	first.Thin()
	assert.True(t, first.Destroyed())
	_, ok = w.FilthByID(first.ID())
	assert.False(t, ok)

	got, ok = w.FilthAt(c)
	require.True(t, ok)
	assert.Equal(t, second.ID(), got.ID())

	second.Thin()
	_, ok = w.FilthAt(c)
	assert.False(t, ok)
	assert.Equal(t, 0, w.TotalFilth())

	_, err = w.SpawnFilth(c, 0)
	assert.Error(t, err)
}

func TestLightAt(t *testing.T) {
	w := newTestWorld(t, 20, 1)
	l := &terrain.LightSource{Cell: core.Cell{X: 0, Y: 0}, GlowRadius: 6, OverlightRadius: 2}
	w.RegisterGlower(l)
	w.RegisterGlower(l)
	require.Len(t, w.Lights(), 1)

	assert.Equal(t, 1.0, w.LightAt(core.Cell{X: 2, Y: 0}))
	assert.InDelta(t, 0.5, w.LightAt(core.Cell{X: 4, Y: 0}), 1e-9)
	assert.Equal(t, 0.0, w.LightAt(core.Cell{X: 10, Y: 0}))

	w.DeregisterGlower(l)
	assert.Equal(t, 0.0, w.LightAt(core.Cell{X: 2, Y: 0}))
}

func TestSnapshotRoundTrip(t *testing.T) {
	w := newTestWorld(t, 6, 4)
	cat := w.Catalog()
	w.Fill(cat.MustLookup("Soil"))
	require.NoError(t, w.SetTerrain(core.Cell{X: 1, Y: 1}, cat.MustLookup("SterileTile")))
	room, err := w.AddRoom(image.Rect(0, 0, 3, 3))
	require.NoError(t, err)
	room.InstallThermostat(22)
	w.SetPowered(core.Cell{X: 2, Y: 2}, true)
	w.SetSnowDepth(core.Cell{X: 5, Y: 3}, 0.25)
	_, err = w.SpawnFilth(core.Cell{X: 1, Y: 1}, 3)
	require.NoError(t, err)
	_, err = w.SpawnFilthWithoutWork(core.Cell{X: 4, Y: 0}, 1)
	require.NoError(t, err)
	w.Step()

	snap := w.Snapshot()
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	var decoded Snapshot
	require.NoError(t, json.Unmarshal(data, &decoded))

	other := newTestWorld(t, 2, 2)
	require.NoError(t, other.RestoreSnapshot(decoded))
	if diff := cmp.Diff(snap, other.Snapshot()); diff != "" {
		t.Fatalf("world snapshot mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, w.Cells(), other.Cells())

	bad := decoded
	bad.Top = bad.Top[:3]
	assert.Error(t, other.RestoreSnapshot(bad))
}

func TestPaletteFollowsCatalog(t *testing.T) {
	w := newTestWorld(t, 2, 2)
	cat := w.Catalog()
	palette := w.Palette()
	require.Len(t, palette, len(cat.Kinds())+1)

	glow := cat.MustLookup("GlowPath")
	assert.Equal(t, glow.Color.RGBA(), palette[glow.ID])

	require.NoError(t, w.SetTerrain(core.Cell{X: 1, Y: 0}, glow))
	assert.Equal(t, uint8(glow.ID), w.Cells()[1])
}

func TestFromMap(t *testing.T) {
	cfg := FromMap(map[string]string{
		"w":            "12",
		"h":            "-3",
		"outdoor_temp": "4.5",
		"room_leak":    "2",
		"filth_work":   "30",
	})
	assert.Equal(t, 12, cfg.Width)
	assert.Equal(t, DefaultConfig().Height, cfg.Height)
	assert.Equal(t, 4.5, cfg.OutdoorTemperature)
	assert.Equal(t, DefaultConfig().RoomLeak, cfg.RoomLeak)
	assert.Equal(t, 30.0, cfg.FilthWork)
}
