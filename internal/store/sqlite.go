// Package store persists exposure tables and curve registries to SQLite so
// scenario runs can be exported, inspected, and reloaded.
package store

import (
	"context"
	"database/sql"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/wkb"
	_ "modernc.org/sqlite"

	"github.com/floodscope/exposure-cli/internal/exposure"
	"github.com/floodscope/exposure-cli/internal/geo"
	"github.com/floodscope/exposure-cli/internal/vulnerability"
)

// SQLiteStore persists exposure data using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS assets (
	object_id             INTEGER PRIMARY KEY,
	object_name           TEXT NOT NULL DEFAULT '',
	primary_object_type   TEXT NOT NULL DEFAULT '',
	secondary_object_type TEXT NOT NULL DEFAULT '',
	extract_method        TEXT NOT NULL DEFAULT 'centroid',
	ground_flht           REAL NOT NULL DEFAULT 0,
	ground_elevtn         REAL NOT NULL DEFAULT 0,
	segment_length        REAL NOT NULL DEFAULT 0,
	lanes                 INTEGER NOT NULL DEFAULT 0,
	geometry              BLOB
);

CREATE TABLE IF NOT EXISTS asset_damages (
	object_id   INTEGER NOT NULL REFERENCES assets(object_id) ON DELETE CASCADE,
	damage_type TEXT NOT NULL,
	max_damage  REAL,
	fn_damage   TEXT,
	PRIMARY KEY (object_id, damage_type)
);

CREATE TABLE IF NOT EXISTS asset_aggregations (
	object_id INTEGER NOT NULL REFERENCES assets(object_id) ON DELETE CASCADE,
	label     TEXT NOT NULL,
	value     TEXT NOT NULL,
	PRIMARY KEY (object_id, label)
);

CREATE TABLE IF NOT EXISTS curve_points (
	curve_id TEXT NOT NULL,
	depth    REAL NOT NULL,
	factor   REAL NOT NULL,
	PRIMARY KEY (curve_id, depth)
);

CREATE INDEX IF NOT EXISTS idx_assets_primary_type ON assets(primary_object_type);
CREATE INDEX IF NOT EXISTS idx_asset_damages_type ON asset_damages(damage_type);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveExposure replaces the stored exposure table with the given set.
// Geometries are stored as WKB with the CRS recorded in the meta table.
func (s *SQLiteStore) SaveExposure(ctx context.Context, set *exposure.Set) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	for _, table := range []string{"asset_aggregations", "asset_damages", "assets"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return eris.Wrapf(err, "sqlite: clear %s", table)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES ('srid', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		strconv.Itoa(set.CRS.Code),
	); err != nil {
		return eris.Wrap(err, "sqlite: save srid")
	}

	insertAsset, err := tx.PrepareContext(ctx, `
		INSERT INTO assets (object_id, object_name, primary_object_type,
			secondary_object_type, extract_method, ground_flht, ground_elevtn,
			segment_length, lanes, geometry)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert asset")
	}
	defer insertAsset.Close()

	insertDamage, err := tx.PrepareContext(ctx, `
		INSERT INTO asset_damages (object_id, damage_type, max_damage, fn_damage)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert damage")
	}
	defer insertDamage.Close()

	insertAgg, err := tx.PrepareContext(ctx, `
		INSERT INTO asset_aggregations (object_id, label, value) VALUES (?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert aggregation")
	}
	defer insertAgg.Close()

	for _, a := range set.Assets() {
		var blob []byte
		if a.Geom != nil {
			blob, err = wkb.Marshal(a.Geom, wkb.NDR)
			if err != nil {
				return eris.Wrapf(err, "sqlite: encode geometry %d", a.ObjectID)
			}
		}
		if _, err := insertAsset.ExecContext(ctx,
			a.ObjectID, a.Name, a.PrimaryType, a.SecondaryType, string(a.Extract),
			a.GroundFloorHeight, a.GroundElevation, a.SegmentLength, a.Lanes, blob,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert asset %d", a.ObjectID)
		}

		for _, dt := range damageTypesOf(a) {
			var maxDamage any
			if v, ok := a.MaxDamage[dt]; ok {
				maxDamage = v
			}
			var fn any
			if v, ok := a.DamageFunc[dt]; ok {
				fn = v
			}
			if _, err := insertDamage.ExecContext(ctx, a.ObjectID, dt, maxDamage, fn); err != nil {
				return eris.Wrapf(err, "sqlite: insert damage %d/%s", a.ObjectID, dt)
			}
		}
		for label, value := range a.Aggregation {
			if _, err := insertAgg.ExecContext(ctx, a.ObjectID, label, value); err != nil {
				return eris.Wrapf(err, "sqlite: insert aggregation %d/%s", a.ObjectID, label)
			}
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit exposure")
}

// SaveCurves replaces the stored curve catalog with the registry's contents.
func (s *SQLiteStore) SaveCurves(ctx context.Context, reg *vulnerability.Registry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM curve_points"); err != nil {
		return eris.Wrap(err, "sqlite: clear curve_points")
	}

	insert, err := tx.PrepareContext(ctx,
		`INSERT INTO curve_points (curve_id, depth, factor) VALUES (?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert curve point")
	}
	defer insert.Close()

	for _, id := range reg.IDs() {
		c, _ := reg.Get(id)
		for _, p := range c.Points {
			if _, err := insert.ExecContext(ctx, id, p.Depth, p.Factor); err != nil {
				return eris.Wrapf(err, "sqlite: insert curve point %s", id)
			}
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit curves")
}

// LoadCurves reads the stored curve catalog back into a registry.
func (s *SQLiteStore) LoadCurves(ctx context.Context) (*vulnerability.Registry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT curve_id, depth, factor FROM curve_points ORDER BY curve_id, depth`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: select curve points")
	}
	defer rows.Close()

	reg := vulnerability.NewRegistry()
	var cur *vulnerability.Curve
	for rows.Next() {
		var id string
		var p vulnerability.Point
		if err := rows.Scan(&id, &p.Depth, &p.Factor); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan curve point")
		}
		if cur == nil || cur.ID != id {
			if cur != nil {
				reg.Add(cur)
			}
			cur = &vulnerability.Curve{ID: id}
		}
		cur.Points = append(cur.Points, p)
	}
	if cur != nil {
		reg.Add(cur)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate curve points")
	}
	return reg, nil
}

// LoadExposure reads the stored exposure table back into memory.
func (s *SQLiteStore) LoadExposure(ctx context.Context) (*exposure.Set, error) {
	var sridText string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'srid'`).Scan(&sridText)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load srid")
	}
	srid, err := strconv.Atoi(sridText)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: parse srid")
	}

	set := exposure.NewSet(geo.CRS{Code: srid})
	rows, err := s.db.QueryContext(ctx, `
		SELECT object_id, object_name, primary_object_type, secondary_object_type,
			extract_method, ground_flht, ground_elevtn, segment_length, lanes, geometry
		FROM assets ORDER BY object_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: select assets")
	}
	defer rows.Close()

	for rows.Next() {
		a := &exposure.Asset{}
		var extract string
		var blob []byte
		if err := rows.Scan(
			&a.ObjectID, &a.Name, &a.PrimaryType, &a.SecondaryType, &extract,
			&a.GroundFloorHeight, &a.GroundElevation, &a.SegmentLength, &a.Lanes, &blob,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan asset")
		}
		a.Extract = exposure.ExtractMethod(extract)
		if len(blob) > 0 {
			g, err := wkb.Unmarshal(blob)
			if err != nil {
				return nil, eris.Wrapf(err, "sqlite: decode geometry %d", a.ObjectID)
			}
			a.Geom = g
		}
		if err := set.Add(a); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate assets")
	}

	if err := s.loadDamages(ctx, set); err != nil {
		return nil, err
	}
	if err := s.loadAggregations(ctx, set); err != nil {
		return nil, err
	}

	set.MarkColumn(exposure.ColObjectID, exposure.ColObjectName, exposure.ColExtractMethod,
		exposure.ColPrimaryType, exposure.ColSecondaryType,
		exposure.ColGroundFloor, exposure.ColGroundElevation)
	for _, dt := range set.DamageTypes() {
		set.MarkColumn(exposure.MaxDamageColumn(dt), exposure.DamageFuncColumn(dt))
	}
	for _, n := range set.AggregationNames() {
		set.MarkColumn(exposure.AggregationColumn(n))
	}
	return set, nil
}

func (s *SQLiteStore) loadDamages(ctx context.Context, set *exposure.Set) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT object_id, damage_type, max_damage, fn_damage FROM asset_damages`)
	if err != nil {
		return eris.Wrap(err, "sqlite: select damages")
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var dt string
		var maxDamage sql.NullFloat64
		var fn sql.NullString
		if err := rows.Scan(&id, &dt, &maxDamage, &fn); err != nil {
			return eris.Wrap(err, "sqlite: scan damage")
		}
		a, ok := set.Get(id)
		if !ok {
			continue
		}
		if maxDamage.Valid {
			a.SetMaxDamage(dt, maxDamage.Float64)
		}
		if fn.Valid {
			a.SetDamageFunc(dt, fn.String)
		}
	}
	return eris.Wrap(rows.Err(), "sqlite: iterate damages")
}

func (s *SQLiteStore) loadAggregations(ctx context.Context, set *exposure.Set) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT object_id, label, value FROM asset_aggregations`)
	if err != nil {
		return eris.Wrap(err, "sqlite: select aggregations")
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var label, value string
		if err := rows.Scan(&id, &label, &value); err != nil {
			return eris.Wrap(err, "sqlite: scan aggregation")
		}
		if a, ok := set.Get(id); ok {
			a.SetAggregation(label, value)
		}
	}
	return eris.Wrap(rows.Err(), "sqlite: iterate aggregations")
}

func damageTypesOf(a *exposure.Asset) []string {
	seen := map[string]struct{}{}
	for t := range a.MaxDamage {
		seen[t] = struct{}{}
	}
	for t := range a.DamageFunc {
		seen[t] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
