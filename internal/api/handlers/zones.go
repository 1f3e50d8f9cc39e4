package handlers

import (
	"errors"
	"log"
	"net/http"

	"waste-dispatch-service/internal/api/dto"
	"waste-dispatch-service/internal/dispatch"
	"waste-dispatch-service/internal/domain"
)

// ZoneHandler accepts sensitive-zone registrations from the zone-admin
// collaborator.
type ZoneHandler struct {
	Coordinator *dispatch.Coordinator
}

func (h *ZoneHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req dto.ZoneRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, r, http.StatusBadRequest, "name is required")
		return
	}

	zone := domain.SensitiveZone{
		Name:         req.Name,
		Location:     domain.Coordinates{Lat: req.Lat, Lng: req.Lng},
		RadiusMeters: req.RadiusMeters,
		Category:     domain.ZoneCategory(req.Category),
	}
	if req.StartHour != nil && req.EndHour != nil {
		zone.ActiveHours = &domain.ActiveHours{StartHour: *req.StartHour, EndHour: *req.EndHour}
	}

	stored, err := h.Coordinator.HandleZone(r.Context(), zone)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidLocation) {
			writeError(w, r, http.StatusBadRequest, "invalid location")
			return
		}
		log.Printf("create zone failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.ZoneResponse{
		ID:           stored.ID.String(),
		Name:         stored.Name,
		Lat:          stored.Location.Lat,
		Lng:          stored.Location.Lng,
		RadiusMeters: stored.RadiusMeters,
		Category:     string(stored.Category),
	})
}
