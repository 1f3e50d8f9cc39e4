package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"waste-dispatch-service/internal/domain"
)

// InitSchema creates the archive tables when missing.
func InitSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS hotspots (
			id TEXT PRIMARY KEY,
			area_name TEXT NOT NULL DEFAULT '',
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL,
			volume_m3 DOUBLE PRECISION NOT NULL,
			waste_types JSONB NOT NULL,
			priority_score DOUBLE PRECISION NOT NULL,
			priority_tier TEXT NOT NULL,
			status TEXT NOT NULL,
			nearest_zone_id TEXT,
			nearest_zone_meters DOUBLE PRECISION,
			estimated_weight_kg DOUBLE PRECISION NOT NULL,
			needs_manual_review BOOLEAN NOT NULL,
			source_detections JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS route_plans (
			id TEXT PRIMARY KEY,
			worker_id TEXT NOT NULL,
			version INTEGER NOT NULL,
			leg INTEGER NOT NULL,
			event_kind TEXT NOT NULL,
			triggered_by TEXT,
			vehicle_capacity_m3 DOUBLE PRECISION NOT NULL,
			waypoints JSONB NOT NULL,
			total_meters DOUBLE PRECISION NOT NULL,
			total_volume_m3 DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL,
			recalculation_count INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sensitive_zones (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL,
			radius_meters DOUBLE PRECISION NOT NULL,
			category TEXT NOT NULL,
			active_start_hour INTEGER,
			active_end_hour INTEGER,
			created_at TIMESTAMPTZ NOT NULL
		);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

type zoneSeed struct {
	Name         string  `json:"name"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	RadiusMeters float64 `json:"radius_meters"`
	Category     string  `json:"category"`
}

// SeedZonesFromJSON loads sensitive zones from a seed file into the
// database. Existing rows with the same name are left untouched.
func SeedZonesFromJSON(db *sql.DB, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("seed zones: read %q: %w", path, err)
	}

	var seeds []zoneSeed
	if err := json.Unmarshal(raw, &seeds); err != nil {
		return fmt.Errorf("seed zones: parse %q: %w", path, err)
	}

	stmt, err := db.Prepare(`
	INSERT INTO sensitive_zones (id, name, lat, lng, radius_meters, category, created_at)
	VALUES (gen_random_uuid()::text, $1, $2, $3, $4, $5, now())
	ON CONFLICT (name) DO NOTHING;
	`)
	if err != nil {
		return fmt.Errorf("seed zones: prepare: %w", err)
	}
	defer stmt.Close()

	for _, z := range seeds {
		radius := z.RadiusMeters
		if radius <= 0 {
			radius = domain.DefaultZoneRadiusMeters
		}
		if _, err := stmt.Exec(z.Name, z.Lat, z.Lng, radius, z.Category); err != nil {
			return fmt.Errorf("seed zones: insert %q: %w", z.Name, err)
		}
	}
	return nil
}
