package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/xela07ax/txguard-prototype/internal/domain"
	"go.uber.org/zap"
)

func newStreamRouter(h *StreamHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/stream/{runID}", h.Stream)
	return r
}

func TestStreamFinishedRunEmitsTerminalEvent(t *testing.T) {
	orch := newTestOrchestrator()
	h := NewStreamHandler(orch, zap.NewNop())

	runID := orch.StartRun("approve 100 USDT to "+safeSpender, "")

	deadline := time.After(3 * time.Second)
	for {
		rn, ok := orch.Registry().Get(runID)
		if ok && rn.Result != nil {
			break
		}
		select {
		case <-deadline:
			t.Fatal("run did not finish")
		case <-time.After(10 * time.Millisecond):
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/stream/"+runID, nil)
	rec := httptest.NewRecorder()
	newStreamRouter(h).ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("wrong content type: %s", ct)
	}

	body := rec.Body.String()
	if !strings.HasPrefix(body, "data: ") {
		t.Fatalf("not an SSE frame: %q", body)
	}

	var ev domain.StageEvent
	payload := strings.TrimSpace(strings.TrimPrefix(body, "data: "))
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		t.Fatalf("invalid event JSON: %v", err)
	}
	if ev.Stage != domain.StageFinal {
		t.Fatalf("expected the terminal event, got %s", ev.Stage)
	}
}

func TestStreamUnknownRun(t *testing.T) {
	orch := newTestOrchestrator()
	h := NewStreamHandler(orch, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/stream/nope", nil)
	rec := httptest.NewRecorder()
	newStreamRouter(h).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
