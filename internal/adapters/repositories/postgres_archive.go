package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/ports"

	"github.com/google/uuid"
)

// PostgresArchive is the persistence collaborator: it records every hotspot
// change and every committed route version. Implements both the HotspotSink
// and RouteNotifier ports.
type PostgresArchive struct{ DB *sql.DB }

func NewPostgresArchive(db *sql.DB) *PostgresArchive {
	return &PostgresArchive{DB: db}
}

// HotspotChanged upserts the full hotspot record.
func (a *PostgresArchive) HotspotChanged(ctx context.Context, ev ports.HotspotEvent) error {
	if a.DB == nil {
		return errors.New("postgres archive: db is nil")
	}
	h := ev.Hotspot

	wasteTypes, err := json.Marshal(h.WasteTypes)
	if err != nil {
		return fmt.Errorf("archive hotspot %s: marshal waste types: %w", h.ID, err)
	}
	detections, err := json.Marshal(h.SourceDetections)
	if err != nil {
		return fmt.Errorf("archive hotspot %s: marshal detections: %w", h.ID, err)
	}

	var zoneID *string
	var zoneMeters *float64
	if h.NearestZone != nil {
		id := h.NearestZone.ZoneID.String()
		zoneID = &id
		zoneMeters = &h.NearestZone.DistanceMeters
	}

	q := `
	INSERT INTO hotspots (
		id, area_name, lat, lng, volume_m3, waste_types,
		priority_score, priority_tier, status,
		nearest_zone_id, nearest_zone_meters,
		estimated_weight_kg, needs_manual_review, source_detections,
		created_at, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (id) DO UPDATE SET
		area_name = EXCLUDED.area_name,
		lat = EXCLUDED.lat,
		lng = EXCLUDED.lng,
		volume_m3 = EXCLUDED.volume_m3,
		waste_types = EXCLUDED.waste_types,
		priority_score = EXCLUDED.priority_score,
		priority_tier = EXCLUDED.priority_tier,
		status = EXCLUDED.status,
		nearest_zone_id = EXCLUDED.nearest_zone_id,
		nearest_zone_meters = EXCLUDED.nearest_zone_meters,
		estimated_weight_kg = EXCLUDED.estimated_weight_kg,
		needs_manual_review = EXCLUDED.needs_manual_review,
		source_detections = EXCLUDED.source_detections,
		updated_at = EXCLUDED.updated_at;
	`

	_, err = a.DB.ExecContext(ctx, q,
		h.ID.String(), h.AreaName, h.Location.Lat, h.Location.Lng, h.VolumeM3, wasteTypes,
		h.PriorityScore, string(h.PriorityTier), string(h.Status),
		zoneID, zoneMeters,
		h.EstimatedWeightKg(), h.NeedsManualReview, detections,
		h.CreatedAt, h.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("archive hotspot %s: upsert: %w", h.ID, err)
	}
	return nil
}

// RouteChanged inserts one committed plan version.
func (a *PostgresArchive) RouteChanged(ctx context.Context, ev ports.RouteEvent) error {
	if a.DB == nil {
		return errors.New("postgres archive: db is nil")
	}
	p := ev.Plan

	waypoints, err := json.Marshal(p.Waypoints)
	if err != nil {
		return fmt.Errorf("archive plan %s: marshal waypoints: %w", p.ID, err)
	}

	var triggeredBy *string
	if ev.TriggeredBy != nil {
		id := ev.TriggeredBy.String()
		triggeredBy = &id
	}

	q := `
	INSERT INTO route_plans (
		id, worker_id, version, leg, event_kind, triggered_by,
		vehicle_capacity_m3, waypoints, total_meters, total_volume_m3,
		status, recalculation_count, created_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (id) DO UPDATE SET
		status = EXCLUDED.status,
		event_kind = EXCLUDED.event_kind;
	`

	_, err = a.DB.ExecContext(ctx, q,
		p.ID.String(), p.WorkerID, p.Version, p.Leg, string(ev.Kind), triggeredBy,
		p.VehicleCapacityM3, waypoints, p.TotalMeters, p.TotalVolumeM3,
		string(p.Status), p.RecalculationCount, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("archive plan %s: insert: %w", p.ID, err)
	}
	return nil
}

// LoadZones reads all archived sensitive zones, used to rebuild the
// in-memory zone index on startup.
func (a *PostgresArchive) LoadZones(ctx context.Context) ([]domain.SensitiveZone, error) {
	if a.DB == nil {
		return nil, errors.New("postgres archive: db is nil")
	}

	q := `
	SELECT id, name, lat, lng, radius_meters, category,
		active_start_hour, active_end_hour, created_at
	FROM sensitive_zones
	ORDER BY id;
	`
	rows, err := a.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("load zones: query: %w", err)
	}
	defer rows.Close()

	zones := make([]domain.SensitiveZone, 0, 16)
	for rows.Next() {
		var z domain.SensitiveZone
		var id, category string
		var startHour, endHour sql.NullInt64
		if err := rows.Scan(&id, &z.Name, &z.Location.Lat, &z.Location.Lng,
			&z.RadiusMeters, &category, &startHour, &endHour, &z.CreatedAt); err != nil {
			return nil, fmt.Errorf("load zones: scan: %w", err)
		}
		z.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("load zones: parse id %q: %w", id, err)
		}
		z.Category = domain.ZoneCategory(category)
		if startHour.Valid && endHour.Valid {
			z.ActiveHours = &domain.ActiveHours{
				StartHour: int(startHour.Int64),
				EndHour:   int(endHour.Int64),
			}
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load zones: row iteration: %w", err)
	}
	return zones, nil
}
