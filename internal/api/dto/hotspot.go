package dto

import "time"

type HotspotResponse struct {
	ID                string    `json:"id"`
	AreaName          string    `json:"area_name,omitempty"`
	Lat               float64   `json:"lat"`
	Lng               float64   `json:"lng"`
	VolumeM3          float64   `json:"volume_m3"`
	WasteTypes        []string  `json:"waste_types"`
	PriorityScore     float64   `json:"priority_score"`
	PriorityTier      string    `json:"priority_tier"`
	Status            string    `json:"status"`
	NearestZoneID     *string   `json:"nearest_zone_id,omitempty"`
	NearestZoneMeters *float64  `json:"nearest_zone_meters,omitempty"`
	EstimatedWeightKg float64   `json:"estimated_weight_kg"`
	Vehicle           string    `json:"recommended_vehicle"`
	Action            string    `json:"recommended_action"`
	AfterPhoto        bool      `json:"requires_after_photo"`
	NeedsManualReview bool      `json:"needs_manual_review"`
	DetectionCount    int       `json:"detection_count"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type ListHotspotsResponse struct {
	Hotspots []HotspotResponse `json:"hotspots"`
}

// One heatmap sample: [lat, lng, weight].
type HeatmapPoint [3]float64

type HeatmapResponse struct {
	Points []HeatmapPoint `json:"points"`
}

type StatusUpdateRequest struct {
	HotspotID string `json:"hotspot_id"`
	Status    string `json:"status"`
}
