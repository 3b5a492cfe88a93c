package run

import (
	"context"
	"testing"
	"time"

	"github.com/xela07ax/txguard-prototype/internal/domain"
)

func TestRegistryPutGet(t *testing.T) {
	r := NewRegistry(time.Minute)

	r.Put(&domain.Run{ID: "run-1", Message: "hello"})

	got, ok := r.Get("run-1")
	if !ok {
		t.Fatal("expected run to be present")
	}
	if got.Message != "hello" {
		t.Fatalf("wrong run: %+v", got)
	}
	if _, ok := r.Get("missing"); ok {
		t.Fatal("unknown id must not resolve")
	}
}

// Get отдает копию: мутация снапшота не видна другим читателям.
func TestRegistryGetReturnsSnapshot(t *testing.T) {
	r := NewRegistry(time.Minute)
	r.Put(&domain.Run{ID: "run-1", Message: "original"})

	first, _ := r.Get("run-1")
	first.Message = "mutated"

	second, _ := r.Get("run-1")
	if second.Message != "original" {
		t.Fatal("registry snapshot leaked a shared pointer")
	}
}

func TestRegistryExpiry(t *testing.T) {
	r := NewRegistry(30 * time.Millisecond)
	r.Put(&domain.Run{ID: "run-1"})

	if _, ok := r.Get("run-1"); !ok {
		t.Fatal("run must be visible before expiry")
	}

	time.Sleep(50 * time.Millisecond)
	if _, ok := r.Get("run-1"); ok {
		t.Fatal("expired run must not resolve even without the janitor")
	}
}

func TestRegistryJanitorEvicts(t *testing.T) {
	r := NewRegistry(20 * time.Millisecond)
	r.Put(&domain.Run{ID: "run-1"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.StartJanitor(ctx)

	deadline := time.After(3 * time.Second)
	for r.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("janitor did not evict the expired run")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestRegistrySetResultExtendsTTL(t *testing.T) {
	r := NewRegistry(40 * time.Millisecond)
	r.Put(&domain.Run{ID: "run-1"})

	time.Sleep(25 * time.Millisecond)
	r.SetResult("run-1", domain.StageEvent{Stage: domain.StageFinal, Message: "done"})

	// Без продления запись бы уже истекла
	time.Sleep(25 * time.Millisecond)
	got, ok := r.Get("run-1")
	if !ok {
		t.Fatal("terminal result must extend the retention window")
	}
	if got.Result == nil || got.Result.Stage != domain.StageFinal {
		t.Fatalf("result not recorded: %+v", got)
	}
}

func TestRegistryStagesAccumulate(t *testing.T) {
	r := NewRegistry(time.Minute)
	r.Put(&domain.Run{ID: "run-1"})

	r.SetStage("run-1", domain.StageEvent{Stage: domain.StageIntentParse})
	r.SetStage("run-1", domain.StageEvent{Stage: domain.StageSimulate})

	got, _ := r.Get("run-1")
	if got.CurrentStage == nil || got.CurrentStage.Stage != domain.StageSimulate {
		t.Fatalf("current stage not tracked: %+v", got.CurrentStage)
	}
	if got.Result != nil {
		t.Fatal("non-terminal stage must not set the result")
	}
}
