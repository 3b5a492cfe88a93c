package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/txguard-prototype/internal/console/service"
	"github.com/xela07ax/txguard-prototype/internal/domain"
)

type ContractHandler struct {
	service *service.RecordsService
}

func NewContractHandler(s *service.RecordsService) *ContractHandler {
	return &ContractHandler{service: s}
}

// List — известные консоли контракты (токены, спендеры, кошельки).
func (h *ContractHandler) List(w http.ResponseWriter, r *http.Request) {
	contracts, err := h.service.ListContracts(r.Context())
	if err != nil {
		http.Error(w, "Failed to fetch contracts", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(contracts)
}

// Upsert регистрирует контракт вручную (дескриптор чейна грузится на старте).
// POST /v1/contracts
func (h *ContractHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var c domain.ContractRef
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil || c.Address == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	if err := h.service.UpsertContract(r.Context(), &c); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(c)
}
