package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/xela07ax/txguard-prototype/internal/domain"
	"github.com/xela07ax/txguard-prototype/internal/infra"
	"github.com/xela07ax/txguard-prototype/internal/run"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// PaymentVerifier — контракт Payment Gate для входной точки.
type PaymentVerifier interface {
	Verify(ctx context.Context, txHash string) domain.PaymentCheck
}

// IntentPreviewer разбирает сообщение до оплаты: превью бесплатное,
// клиент видит, за что с него просят деньги.
type IntentPreviewer interface {
	Parse(message string) (*domain.Intent, error)
}

type ChatHandler struct {
	orch    *run.Orchestrator
	parser  IntentPreviewer
	gate    PaymentVerifier
	limiter *rate.Limiter
	payCfg  infra.PaymentConfig
	chainID int64
	logger  *zap.Logger
}

func NewChatHandler(
	orch *run.Orchestrator,
	parser IntentPreviewer,
	gate PaymentVerifier,
	cfg *infra.Config,
	logger *zap.Logger,
) *ChatHandler {
	return &ChatHandler{
		orch:    orch,
		parser:  parser,
		gate:    gate,
		limiter: rate.NewLimiter(rate.Limit(cfg.Server.ChatRateLimit), cfg.Server.ChatRateBurst),
		payCfg:  cfg.Payment,
		chainID: cfg.Chain.ChainID,
		logger:  logger.Named("chat-handler"),
	}
}

type chatRequest struct {
	Message string `json:"message"`
}

// Post принимает свободный текст и стартует прогон.
// POST /chat, опциональный заголовок X-Payment-Tx.
// 400 — intent не распознан; 402 — платеж отсутствует/невалиден; 202 — run_id.
func (h *ChatHandler) Post(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow() {
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Превью intent'а до оплаты. Ошибка разбора — 400, денег не просим.
	preview, err := h.parser.Parse(req.Message)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	txHash := r.Header.Get("X-Payment-Tx")
	if h.payCfg.Enabled {
		var reason domain.PaymentReason
		if txHash == "" {
			reason = domain.PayTxNotFound
		} else if check := h.gate.Verify(r.Context(), txHash); !check.OK {
			reason = check.Reason
		}

		if reason != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusPaymentRequired)
			json.NewEncoder(w).Encode(domain.PaymentRequired{
				PriceWei:   h.payCfg.PriceWei,
				ChainID:    h.chainID,
				PayTo:      h.payCfg.PayTo,
				Memo:       h.payCfg.Memo,
				Reason:     reason,
				RunPreview: preview,
			})
			return
		}
	} else {
		// Demo-режим: платеж не требуем и не показываем стадию верификации
		txHash = ""
	}

	runID := h.orch.StartRun(req.Message, txHash)
	h.logger.Info("run started", zap.String("run_id", runID))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"run_id": runID})
}

// Get — polling-вариант получения статуса прогона.
// GET /chat?runId=...
func (h *ChatHandler) Get(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("runId")
	if runID == "" {
		http.Error(w, "runId query parameter is required", http.StatusBadRequest)
		return
	}

	rn, ok := h.orch.Registry().Get(runID)
	if !ok {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	// Завершенный прогон отдает терминальное событие целиком
	if rn.Result != nil {
		json.NewEncoder(w).Encode(rn.Result)
		return
	}

	resp := map[string]interface{}{"status": "PROCESSING"}
	if rn.CurrentStage != nil {
		resp["current_stage"] = rn.CurrentStage
	}
	json.NewEncoder(w).Encode(resp)
}
