package handler

import (
	"encoding/json"
	"net/http"

	"github.com/xela07ax/txguard-prototype/internal/console/service"
)

type DashboardHandler struct {
	service *service.RecordsService
}

func NewDashboardHandler(s *service.RecordsService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetStats — агрегат для главного экрана: активность, риски, инциденты.
// GET /api/v1/dashboard/stats
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetDashboard(r.Context())
	if err != nil {
		http.Error(w, "Failed to fetch stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
