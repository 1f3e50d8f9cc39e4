package dto

import "time"

type ShiftRequest struct {
	WorkerID   string  `json:"worker_id"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	MinLat     float64 `json:"min_lat"`
	MinLng     float64 `json:"min_lng"`
	MaxLat     float64 `json:"max_lat"`
	MaxLng     float64 `json:"max_lng"`
	CapacityM3 float64 `json:"capacity_m3"`
}

type PositionRequest struct {
	WorkerID        string `json:"worker_id"`
	VisitedSequence int    `json:"visited_sequence"`
}

type CancelRequest struct {
	WorkerID string `json:"worker_id"`
}

type WaypointResponse struct {
	HotspotID        string  `json:"hotspot_id"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	Tier             string  `json:"tier"`
	VolumeM3         float64 `json:"volume_m3"`
	Sequence         int     `json:"sequence"`
	CumulativeMeters float64 `json:"cumulative_meters"`
}

type PlanResponse struct {
	ID                 string             `json:"id"`
	WorkerID           string             `json:"worker_id"`
	Version            int                `json:"version"`
	Leg                int                `json:"leg"`
	VehicleCapacityM3  float64            `json:"vehicle_capacity_m3"`
	Waypoints          []WaypointResponse `json:"waypoints"`
	TotalMeters        float64            `json:"total_meters"`
	TotalVolumeM3      float64            `json:"total_volume_m3"`
	Status             string             `json:"status"`
	RecalculationCount int                `json:"recalculation_count"`
	CreatedAt          time.Time          `json:"created_at"`
}

type ListPlansResponse struct {
	Plans []PlanResponse `json:"plans"`
}
