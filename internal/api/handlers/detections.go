package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"waste-dispatch-service/internal/api/dto"
	"waste-dispatch-service/internal/dispatch"
	"waste-dispatch-service/internal/domain"

	"github.com/google/uuid"
)

// DetectionHandler accepts structured classifier results at the ingestion
// boundary.
type DetectionHandler struct {
	Coordinator *dispatch.Coordinator
}

func (h *DetectionHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req dto.DetectionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	types := make([]domain.WasteType, 0, len(req.WasteTypes))
	for _, t := range req.WasteTypes {
		types = append(types, domain.WasteType(t))
	}

	ts := req.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	det := domain.DetectionResult{
		ID:         uuid.New(),
		AreaName:   req.AreaName,
		Location:   domain.Coordinates{Lat: req.Lat, Lng: req.Lng},
		WasteTypes: types,
		VolumeM3:   req.VolumeM3,
		Confidence: req.Confidence,
		Hazards: domain.HazardFlags{
			StagnantWater: req.StagnantWater,
			Burning:       req.Burning,
			Medical:       req.Medical,
			Hazardous:     req.Hazardous,
		},
		NeedsManualReview: req.NeedsManualReview,
		Timestamp:         ts,
	}

	res, err := h.Coordinator.HandleDetection(r.Context(), det)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidLocation) {
			writeError(w, r, http.StatusBadRequest, "invalid location")
			return
		}
		log.Printf("ingest detection failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, dto.IngestResponse{
		Merged:  res.Merged,
		Hotspot: hotspotToDTO(res.Hotspot),
	})
}
