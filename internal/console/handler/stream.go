package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/txguard-prototype/internal/domain"
	"github.com/xela07ax/txguard-prototype/internal/run"
	"go.uber.org/zap"
)

type StreamHandler struct {
	orch   *run.Orchestrator
	logger *zap.Logger
}

func NewStreamHandler(orch *run.Orchestrator, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		orch:   orch,
		logger: logger.Named("stream-handler"),
	}
}

// Stream отдает стадии прогона как Server-Sent Events.
// GET /stream/{runID}
//
// Контракт доставки — at-most-once, без реплея: поздний подписчик получает
// снапшот текущей стадии из реестра и живые события дальше. Пропущенные
// стадии не доигрываются.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if runID == "" {
		http.Error(w, "Run ID is required", http.StatusBadRequest)
		return
	}

	rn, ok := h.orch.Registry().Get(runID)
	if !ok {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Завершенный прогон: одно терминальное событие и закрытие
	if rn.Result != nil {
		h.writeEvent(w, *rn.Result)
		flusher.Flush()
		return
	}

	// Буфер с запасом на все стадии; при переполнении событие теряется,
	// что контракт at-most-once допускает. Горутину прогона не блокируем.
	events := make(chan domain.StageEvent, 16)
	sub := h.orch.Bus().Subscribe(runID, func(ev domain.StageEvent) {
		select {
		case events <- ev:
		default:
		}
	})
	defer h.orch.Bus().Unsubscribe(runID, sub)

	// Снапшот текущей стадии для позднего подписчика
	if rn.CurrentStage != nil {
		h.writeEvent(w, *rn.CurrentStage)
		flusher.Flush()
	}

	keepAlive := time.NewTicker(15 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			// Клиент отвалился: отписка в defer, прогон продолжает жить
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev := <-events:
			h.writeEvent(w, ev)
			flusher.Flush()
			if ev.Stage == domain.StageFinal || ev.Stage == domain.StageError {
				return
			}
		}
	}
}

func (h *StreamHandler) writeEvent(w http.ResponseWriter, ev domain.StageEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("failed to marshal stage event", zap.Error(err))
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}
