package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"active-terrain/internal/core"
	"active-terrain/internal/host"
	"active-terrain/internal/terrain"
)

// ErrNotFound is returned when no save has the requested name.
var ErrNotFound = errors.New("save not found")

// Save is one named region save.
type Save struct {
	ID      string
	Name    string
	Seed    int64
	SavedAt time.Time

	World   host.Snapshot
	Terrain terrain.RegionState
}

// Summary describes a save without loading it.
type Summary struct {
	ID        string
	Name      string
	Width     int
	Height    int
	Tick      int
	Seed      int64
	Instances int
	SavedAt   time.Time
}

// SaveRegion writes save under its name, replacing any previous save with
// that name. A new ID is assigned on every write.
func (s *Store) SaveRegion(ctx context.Context, save *Save) error {
	if save.Name == "" {
		return errors.New("save region: empty name")
	}
	save.ID = uuid.NewString()
	if save.SavedAt.IsZero() {
		save.SavedAt = time.Now()
	}
	world, err := json.Marshal(save.World)
	if err != nil {
		return fmt.Errorf("encode world snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if err := deleteRegion(ctx, tx, save.Name); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO regions (id, name, width, height, tick, seed, state_version, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		save.ID, save.Name, save.World.Width, save.World.Height, save.World.Ticks,
		save.Seed, save.Terrain.Version, save.SavedAt.UnixNano(),
	); err != nil {
		return fmt.Errorf("insert region: %w", err)
	}

	instStmt, err := tx.PrepareContext(ctx, `INSERT INTO terrain_instances (region_id, x, y, kind) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare instance insert: %w", err)
	}
	defer instStmt.Close()
	compStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO terrain_components (region_id, x, y, idx, type, state)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare component insert: %w", err)
	}
	defer compStmt.Close()

	for _, inst := range save.Terrain.Instances {
		if _, err := instStmt.ExecContext(ctx, save.ID, inst.X, inst.Y, inst.Kind); err != nil {
			return fmt.Errorf("insert terrain at %v: %w", inst.Cell(), err)
		}
		for _, comp := range inst.Components {
			if _, err := compStmt.ExecContext(ctx, save.ID, inst.X, inst.Y, comp.Index, string(comp.Type), string(comp.State)); err != nil {
				return fmt.Errorf("insert %s state at %v: %w", comp.Type, inst.Cell(), err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO host_snapshots (region_id, data) VALUES (?, ?)`, save.ID, string(world)); err != nil {
		return fmt.Errorf("insert world snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}

	s.log.Info("region saved", "name", save.Name, "id", save.ID, "terrain", len(save.Terrain.Instances))
	return nil
}

// LoadRegion reads the save with the given name.
func (s *Store) LoadRegion(ctx context.Context, name string) (*Save, error) {
	save := &Save{Name: name}
	var savedAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, seed, state_version, saved_at FROM regions WHERE name = ?`, name,
	).Scan(&save.ID, &save.Seed, &save.Terrain.Version, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}
	save.SavedAt = time.Unix(0, savedAt)

	var world string
	if err := s.db.QueryRowContext(ctx, `SELECT data FROM host_snapshots WHERE region_id = ?`, save.ID).Scan(&world); err != nil {
		return nil, fmt.Errorf("load %q world snapshot: %w", name, err)
	}
	if err := json.Unmarshal([]byte(world), &save.World); err != nil {
		return nil, fmt.Errorf("decode %q world snapshot: %w", name, err)
	}

	instances, err := s.loadInstances(ctx, save.ID)
	if err != nil {
		return nil, fmt.Errorf("load %q terrain: %w", name, err)
	}
	save.Terrain.Instances = instances
	return save, nil
}

func (s *Store) loadInstances(ctx context.Context, regionID string) ([]terrain.InstanceState, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT x, y, kind FROM terrain_instances
		WHERE region_id = ?
		ORDER BY y, x`, regionID)
	if err != nil {
		return nil, fmt.Errorf("query instances: %w", err)
	}
	defer rows.Close()

	var instances []terrain.InstanceState
	index := make(map[core.Cell]int)
	for rows.Next() {
		var inst terrain.InstanceState
		if err := rows.Scan(&inst.X, &inst.Y, &inst.Kind); err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		index[inst.Cell()] = len(instances)
		instances = append(instances, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	comps, err := s.db.QueryContext(ctx, `
		SELECT x, y, idx, type, state FROM terrain_components
		WHERE region_id = ?
		ORDER BY y, x, idx`, regionID)
	if err != nil {
		return nil, fmt.Errorf("query components: %w", err)
	}
	defer comps.Close()

	for comps.Next() {
		var (
			c     core.Cell
			cs    terrain.ComponentState
			typ   string
			state string
		)
		if err := comps.Scan(&c.X, &c.Y, &cs.Index, &typ, &state); err != nil {
			return nil, fmt.Errorf("scan component: %w", err)
		}
		i, ok := index[c]
		if !ok {
			continue
		}
		cs.Type = terrain.CompType(typ)
		cs.State = json.RawMessage(state)
		instances[i].Components = append(instances[i].Components, cs)
	}
	return instances, comps.Err()
}

// ListRegions returns every save, most recent first.
func (s *Store) ListRegions(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.name, r.width, r.height, r.tick, r.seed, r.saved_at,
		       (SELECT COUNT(*) FROM terrain_instances i WHERE i.region_id = r.id)
		FROM regions r
		ORDER BY r.saved_at DESC, r.name`)
	if err != nil {
		return nil, fmt.Errorf("query regions: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var savedAt int64
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Width, &sum.Height, &sum.Tick, &sum.Seed, &savedAt, &sum.Instances); err != nil {
			return nil, fmt.Errorf("scan region: %w", err)
		}
		sum.SavedAt = time.Unix(0, savedAt)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// DeleteRegion removes the save with the given name.
func (s *Store) DeleteRegion(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()
	if err := deleteRegion(ctx, tx, name); err != nil {
		return err
	}
	return tx.Commit()
}

// deleteRegion removes child rows explicitly so it does not depend on the
// foreign_keys pragma.
func deleteRegion(ctx context.Context, tx *sql.Tx, name string) error {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM regions WHERE name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("delete %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	for _, q := range []string{
		`DELETE FROM terrain_components WHERE region_id = ?`,
		`DELETE FROM terrain_instances WHERE region_id = ?`,
		`DELETE FROM host_snapshots WHERE region_id = ?`,
		`DELETE FROM regions WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("delete %q: %w", name, err)
		}
	}
	return nil
}
