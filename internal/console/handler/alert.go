package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/txguard-prototype/internal/console/service"
)

type AlertHandler struct {
	service *service.RecordsService
}

func NewAlertHandler(s *service.RecordsService) *AlertHandler {
	return &AlertHandler{service: s}
}

// List — алерты monitor-режима. Фильтр ?unacked=true для необработанных.
func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	unackedOnly := r.URL.Query().Get("unacked") == "true"
	alerts, err := h.service.ListAlerts(r.Context(), unackedOnly)
	if err != nil {
		http.Error(w, "Failed to fetch alerts", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(alerts)
}

// Ack помечает алерт обработанным оператором.
// POST /v1/alerts/{id}/ack
func (h *AlertHandler) Ack(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.AcknowledgeAlert(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
