package dto

type ZoneRequest struct {
	Name         string  `json:"name"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	RadiusMeters float64 `json:"radius_meters"`
	Category     string  `json:"category"`
	StartHour    *int    `json:"active_start_hour"`
	EndHour      *int    `json:"active_end_hour"`
}

type ZoneResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	RadiusMeters float64 `json:"radius_meters"`
	Category     string  `json:"category"`
}
