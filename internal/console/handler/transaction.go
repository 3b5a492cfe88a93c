package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/txguard-prototype/internal/console/service"
	"github.com/xela07ax/txguard-prototype/internal/domain"
)

type TransactionHandler struct {
	service *service.RecordsService
}

func NewTransactionHandler(s *service.RecordsService) *TransactionHandler {
	return &TransactionHandler{service: s}
}

// List — очередь транзакций, свежие сверху. Фильтр ?status=PENDING и т.п.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	txs, err := h.service.ListTransactions(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		http.Error(w, "Failed to fetch transactions", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(txs)
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tx, err := h.service.GetTransaction(r.Context(), id)
	if err != nil {
		http.Error(w, "Failed to retrieve transaction", http.StatusInternalServerError)
		return
	}
	if tx == nil {
		http.Error(w, "Transaction not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tx)
}

// PatchStatus меняет статус транзакции (например, после justification).
// PATCH /v1/transactions/{id}/status {"status": "ALLOWED"}
func (h *TransactionHandler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Status domain.TransactionStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.SetTransactionStatus(r.Context(), id, req.Status); err != nil {
		if errors.Is(err, service.ErrInvalidStatus) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PostHash фиксирует он-чейн хэш подписанной клиентом транзакции.
// POST /v1/transactions/{id}/hash {"hash": "0x..."}
func (h *TransactionHandler) PostHash(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Hash string `json:"hash"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Hash == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.AttachHash(r.Context(), id, req.Hash); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
