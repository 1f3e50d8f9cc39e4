package handlers

import (
	"errors"
	"log"
	"net/http"

	"waste-dispatch-service/internal/api/dto"
	"waste-dispatch-service/internal/dispatch"
	"waste-dispatch-service/internal/domain"
)

// ShiftHandler drives the worker-session collaborator boundary: shift
// start, position updates and cancellation.
type ShiftHandler struct {
	Coordinator *dispatch.Coordinator
}

// Start plans routes for a new worker shift.
func (h *ShiftHandler) Start(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req dto.ShiftRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.WorkerID == "" {
		writeError(w, r, http.StatusBadRequest, "worker_id is required")
		return
	}

	plans, err := h.Coordinator.StartShift(r.Context(), dispatch.ShiftRequest{
		WorkerID:   req.WorkerID,
		Start:      domain.Coordinates{Lat: req.Lat, Lng: req.Lng},
		Area:       domain.BoundingBox{MinLat: req.MinLat, MinLng: req.MinLng, MaxLat: req.MaxLat, MaxLng: req.MaxLng},
		CapacityM3: req.CapacityM3,
	})
	if err != nil {
		log.Printf("start shift failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	res := dto.ListPlansResponse{Plans: make([]dto.PlanResponse, 0, len(plans))}
	for _, p := range plans {
		res.Plans = append(res.Plans, planToDTO(p))
	}
	writeJSON(w, r, http.StatusOK, res)
}

// Position records the worker's reported progress along the active route.
func (h *ShiftHandler) Position(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req dto.PositionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.Coordinator.UpdatePosition(r.Context(), req.WorkerID, req.VisitedSequence)
	if errors.Is(err, domain.ErrUnknownWorker) {
		writeError(w, r, http.StatusNotFound, "no active shift for worker")
		return
	}
	if err != nil {
		log.Printf("update position failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	plan, ok := h.Coordinator.ActivePlan(req.WorkerID)
	if !ok {
		writeError(w, r, http.StatusNotFound, "no active shift for worker")
		return
	}
	writeJSON(w, r, http.StatusOK, planToDTO(plan))
}

// Cancel ends the worker's shift, abandoning any in-flight repair.
func (h *ShiftHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}

	var req dto.CancelRequest
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.Coordinator.CancelShift(r.Context(), req.WorkerID)
	if errors.Is(err, domain.ErrUnknownWorker) {
		writeError(w, r, http.StatusNotFound, "no active shift for worker")
		return
	}
	if err != nil {
		log.Printf("cancel shift failed: %v", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]string{"status": "cancelled"})
}
