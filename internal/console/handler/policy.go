package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/txguard-prototype/internal/console/service"
	"github.com/xela07ax/txguard-prototype/internal/domain"
)

type PolicyHandler struct {
	service *service.PolicyService
}

func NewPolicyHandler(s *service.PolicyService) *PolicyHandler {
	return &PolicyHandler{service: s}
}

// Get возвращает детали конкретной политики по её ID.
// GET /v1/policies/{id}
func (h *PolicyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Policy ID is required", http.StatusBadRequest)
		return
	}

	policy, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to retrieve policy: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Если политика не найдена (nil), возвращаем 404
	if policy == nil {
		http.Error(w, "Policy not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(policy); err != nil {
		http.Error(w, "Encoding error", http.StatusInternalServerError)
	}
}

// List возвращает все политики для консоли
func (h *PolicyHandler) List(w http.ResponseWriter, r *http.Request) {
	policies, err := h.service.GetAll(r.Context())
	if err != nil {
		http.Error(w, "Failed to fetch policies", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(policies)
}

// Create создает новую политику
func (h *PolicyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p domain.Policy
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.Create(r.Context(), &p); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(p)
}

// Update обновляет существующую политику (mode/enabled/severity)
func (h *PolicyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var p domain.Policy
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	p.ID = id

	if err := h.service.Update(r.Context(), &p); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete удаляет политику и инициирует пересчет режима
func (h *PolicyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetMode отдает текущий глобальный режим, выведенный из набора политик.
// GET /v1/policies/mode
func (h *PolicyHandler) GetMode(w http.ResponseWriter, r *http.Request) {
	mode, err := h.service.GlobalMode(r.Context())
	if err != nil {
		http.Error(w, "Failed to compute mode", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]domain.PolicyMode{"mode": mode})
}

// SetMode — bulk-переключение: все политики разом в enforce или monitor.
// POST /v1/policies/mode {"mode": "ENFORCE"|"MONITOR"}
func (h *PolicyHandler) SetMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode domain.PolicyMode `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Mode != domain.ModeEnforce && req.Mode != domain.ModeMonitor {
		http.Error(w, "Mode must be ENFORCE or MONITOR", http.StatusBadRequest)
		return
	}

	if err := h.service.SetGlobalMode(r.Context(), req.Mode); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
