package handler

import (
	"encoding/json"
	"net/http"

	"github.com/xela07ax/txguard-prototype/internal/console/service"
)

type AuditHandler struct {
	service *service.RecordsService
}

func NewAuditHandler(s *service.RecordsService) *AuditHandler {
	return &AuditHandler{service: s}
}

// GetLogs — журнал аудита с фильтрами ?runId= и ?action=.
func (h *AuditHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.FetchAuditLogs(r.Context(),
		r.URL.Query().Get("runId"), r.URL.Query().Get("action"))
	if err != nil {
		http.Error(w, "Failed to fetch audit logs", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}
