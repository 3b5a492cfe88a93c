package handler

import (
	"encoding/json"
	"net/http"

	"github.com/xela07ax/txguard-prototype/internal/console/service"
)

type AllowanceHandler struct {
	service *service.RecordsService
}

func NewAllowanceHandler(s *service.RecordsService) *AllowanceHandler {
	return &AllowanceHandler{service: s}
}

// List — бухгалтерия выданных аппрувов для ревью оператором.
func (h *AllowanceHandler) List(w http.ResponseWriter, r *http.Request) {
	allowances, err := h.service.ListAllowances(r.Context())
	if err != nil {
		http.Error(w, "Failed to fetch allowances", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(allowances)
}
