package dto

import "time"

type DetectionRequest struct {
	AreaName          string    `json:"area_name"`
	Lat               float64   `json:"lat"`
	Lng               float64   `json:"lng"`
	WasteTypes        []string  `json:"waste_types"`
	VolumeM3          float64   `json:"volume_m3"`
	Confidence        float64   `json:"confidence"`
	StagnantWater     bool      `json:"stagnant_water"`
	Burning           bool      `json:"burning"`
	Medical           bool      `json:"medical"`
	Hazardous         bool      `json:"hazardous"`
	NeedsManualReview bool      `json:"needs_manual_review"`
	Timestamp         time.Time `json:"timestamp"`
}

type IngestResponse struct {
	Merged  bool            `json:"merged"`
	Hotspot HotspotResponse `json:"hotspot"`
}
