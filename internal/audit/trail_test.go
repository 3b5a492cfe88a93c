package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

type captureStorage struct {
	mu      sync.Mutex
	batches [][]Record
}

func (s *captureStorage) WriteBatch(_ context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]Record, len(records))
	copy(cp, records)
	s.batches = append(s.batches, cp)
	return nil
}

func (s *captureStorage) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

func TestTrailFlushesOnStop(t *testing.T) {
	storage := &captureStorage{}
	trail := NewTrail(storage, zap.NewNop())
	trail.Start()

	for i := 0; i < 5; i++ {
		trail.Log(Record{ID: "rec", Action: "run_final"})
	}
	trail.Stop()

	if storage.total() != 5 {
		t.Fatalf("expected 5 records after drain, got %d", storage.total())
	}
}

func TestTrailSetsTimestamp(t *testing.T) {
	storage := &captureStorage{}
	trail := NewTrail(storage, zap.NewNop())
	trail.Start()

	trail.Log(Record{ID: "rec"})
	trail.Stop()

	if storage.total() != 1 {
		t.Fatalf("expected one record, got %d", storage.total())
	}
	if storage.batches[0][0].Timestamp.IsZero() {
		t.Fatal("timestamp must be filled on log")
	}
}

func TestTrailDropsAfterStop(t *testing.T) {
	storage := &captureStorage{}
	trail := NewTrail(storage, zap.NewNop())
	trail.Start()
	trail.Stop()

	// Запись после остановки молча отбрасывается, паники нет
	trail.Log(Record{ID: "late"})

	if storage.total() != 0 {
		t.Fatalf("late record must be dropped, got %d", storage.total())
	}
}

func TestTrailPeriodicFlush(t *testing.T) {
	storage := &captureStorage{}
	trail := NewTrail(storage, zap.NewNop())
	trail.Start()
	defer trail.Stop()

	trail.Log(Record{ID: "rec"})

	// Тикер воркера — 500ms; даем ему два интервала
	deadline := time.After(2 * time.Second)
	for storage.total() == 0 {
		select {
		case <-deadline:
			t.Fatal("worker did not flush on ticker")
		case <-time.After(50 * time.Millisecond):
		}
	}
}
