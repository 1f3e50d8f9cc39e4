package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"waste-dispatch-service/internal/api/dto"
	"waste-dispatch-service/internal/dispatch"
	"waste-dispatch-service/internal/domain"
	"waste-dispatch-service/internal/store"

	"github.com/google/uuid"
)

// HotspotHandler exposes hotspot queries and status transitions.
type HotspotHandler struct {
	Store       *store.HotspotStore
	Coordinator *dispatch.Coordinator
}

// List returns non-terminal hotspots within the bounding box given by
// min_lat/min_lng/max_lat/max_lng query params.
func (h *HotspotHandler) List(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	bounds, ok := boundsFromQuery(w, r)
	if !ok {
		return
	}

	hotspots := h.Store.QueryArea(bounds)
	res := dto.ListHotspotsResponse{
		Hotspots: make([]dto.HotspotResponse, 0, len(hotspots)),
	}
	for _, hs := range hotspots {
		res.Hotspots = append(res.Hotspots, hotspotToDTO(hs))
	}
	writeJSON(w, r, http.StatusOK, res)
}

// Heatmap returns [lat, lng, weight] triples for non-terminal hotspots,
// weighted by estimated collection weight.
func (h *HotspotHandler) Heatmap(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	bounds, ok := boundsFromQuery(w, r)
	if !ok {
		return
	}

	hotspots := h.Store.QueryArea(bounds)
	res := dto.HeatmapResponse{Points: make([]dto.HeatmapPoint, 0, len(hotspots))}
	for _, hs := range hotspots {
		res.Points = append(res.Points, dto.HeatmapPoint{
			hs.Location.Lat, hs.Location.Lng, hs.EstimatedWeightKg(),
		})
	}
	writeJSON(w, r, http.StatusOK, res)
}

// UpdateStatus applies one lifecycle transition.
func (h *HotspotHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req dto.StatusUpdateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	id, err := uuid.Parse(req.HotspotID)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid hotspot_id")
		return
	}

	hs, err := h.Coordinator.UpdateHotspotStatus(r.Context(), id, domain.Status(req.Status))
	switch {
	case errors.Is(err, domain.ErrUnknownHotspot):
		writeError(w, r, http.StatusNotFound, "hotspot not found")
		return
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, r, http.StatusConflict, "invalid status transition")
		return
	case err != nil:
		log.Printf("update hotspot status failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, hotspotToDTO(hs))
}

func boundsFromQuery(w http.ResponseWriter, r *http.Request) (domain.BoundingBox, bool) {
	q := r.URL.Query()
	parse := func(key string, fallback float64) (float64, bool) {
		v := q.Get(key)
		if v == "" {
			return fallback, true
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid "+key)
			return 0, false
		}
		return f, true
	}

	var bounds domain.BoundingBox
	var ok bool
	if bounds.MinLat, ok = parse("min_lat", -90); !ok {
		return domain.BoundingBox{}, false
	}
	if bounds.MinLng, ok = parse("min_lng", -180); !ok {
		return domain.BoundingBox{}, false
	}
	if bounds.MaxLat, ok = parse("max_lat", 90); !ok {
		return domain.BoundingBox{}, false
	}
	if bounds.MaxLng, ok = parse("max_lng", 180); !ok {
		return domain.BoundingBox{}, false
	}
	return bounds, true
}
