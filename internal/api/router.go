package api

import (
	"net/http"

	"waste-dispatch-service/internal/api/handlers"
	"waste-dispatch-service/internal/dispatch"
	"waste-dispatch-service/internal/store"
)

// NewRouter wires HTTP handlers with their dependencies and returns an
// http.Handler. This is the API composition root: handlers stay unaware of
// concrete collaborator adapters, which hang off the coordinator.
func NewRouter(st *store.HotspotStore, coord *dispatch.Coordinator) http.Handler {
	mux := http.NewServeMux()

	detectionHandler := &handlers.DetectionHandler{Coordinator: coord}
	zoneHandler := &handlers.ZoneHandler{Coordinator: coord}
	hotspotHandler := &handlers.HotspotHandler{Store: st, Coordinator: coord}
	shiftHandler := &handlers.ShiftHandler{Coordinator: coord}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/detections", detectionHandler.Ingest)
	mux.HandleFunc("/zones", zoneHandler.Create)
	mux.HandleFunc("/hotspots", hotspotHandler.List)
	mux.HandleFunc("/hotspots/heatmap", hotspotHandler.Heatmap)
	mux.HandleFunc("/hotspots/status", hotspotHandler.UpdateStatus)
	mux.HandleFunc("/shifts", shiftHandler.Start)
	mux.HandleFunc("/shifts/position", shiftHandler.Position)
	mux.HandleFunc("/shifts/cancel", shiftHandler.Cancel)

	return loggingMiddleware(mux)
}
