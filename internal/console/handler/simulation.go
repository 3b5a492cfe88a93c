package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/txguard-prototype/internal/console/service"
)

type SimulationHandler struct {
	service *service.RecordsService
}

func NewSimulationHandler(s *service.RecordsService) *SimulationHandler {
	return &SimulationHandler{service: s}
}

func (h *SimulationHandler) List(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.ListSimulations(r.Context())
	if err != nil {
		http.Error(w, "Failed to fetch simulations", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reports)
}

// GetByRun — сохраненный отчет симуляции конкретного прогона.
// GET /v1/simulations/{runID}
func (h *SimulationHandler) GetByRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	rep, err := h.service.GetSimulation(r.Context(), runID)
	if err != nil {
		http.Error(w, "Failed to retrieve simulation", http.StatusInternalServerError)
		return
	}
	if rep == nil {
		http.Error(w, "Simulation not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rep)
}
