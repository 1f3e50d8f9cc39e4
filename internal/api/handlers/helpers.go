package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"waste-dispatch-service/internal/api/dto"
	"waste-dispatch-service/internal/domain"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode failed: method=%s path=%s err=%v", r.Method, r.URL.Path, err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// decodeBody parses a single strict JSON object from the request body.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func hotspotToDTO(h domain.Hotspot) dto.HotspotResponse {
	types := make([]string, 0, len(h.WasteTypes))
	for _, t := range h.WasteTypes {
		types = append(types, string(t))
	}

	res := dto.HotspotResponse{
		ID:                h.ID.String(),
		AreaName:          h.AreaName,
		Lat:               h.Location.Lat,
		Lng:               h.Location.Lng,
		VolumeM3:          h.VolumeM3,
		WasteTypes:        types,
		PriorityScore:     h.PriorityScore,
		PriorityTier:      string(h.PriorityTier),
		Status:            string(h.Status),
		EstimatedWeightKg: h.EstimatedWeightKg(),
		Vehicle:           string(h.RecommendedVehicle()),
		Action:            string(h.RecommendedAction()),
		AfterPhoto:        h.RequiresAfterPhoto(),
		NeedsManualReview: h.NeedsManualReview,
		DetectionCount:    len(h.SourceDetections),
		CreatedAt:         h.CreatedAt,
		UpdatedAt:         h.UpdatedAt,
	}
	if h.NearestZone != nil {
		id := h.NearestZone.ZoneID.String()
		res.NearestZoneID = &id
		res.NearestZoneMeters = &h.NearestZone.DistanceMeters
	}
	return res
}

func planToDTO(p domain.RoutePlan) dto.PlanResponse {
	waypoints := make([]dto.WaypointResponse, 0, len(p.Waypoints))
	for _, wp := range p.Waypoints {
		waypoints = append(waypoints, dto.WaypointResponse{
			HotspotID:        wp.HotspotID.String(),
			Lat:              wp.Location.Lat,
			Lng:              wp.Location.Lng,
			Tier:             string(wp.Tier),
			VolumeM3:         wp.VolumeM3,
			Sequence:         wp.Sequence,
			CumulativeMeters: wp.CumulativeMeters,
		})
	}
	return dto.PlanResponse{
		ID:                 p.ID.String(),
		WorkerID:           p.WorkerID,
		Version:            p.Version,
		Leg:                p.Leg,
		VehicleCapacityM3:  p.VehicleCapacityM3,
		Waypoints:          waypoints,
		TotalMeters:        p.TotalMeters,
		TotalVolumeM3:      p.TotalVolumeM3,
		Status:             string(p.Status),
		RecalculationCount: p.RecalculationCount,
		CreatedAt:          p.CreatedAt,
	}
}
