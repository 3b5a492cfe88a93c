package policy

import (
	"context"
	"testing"

	"github.com/xela07ax/txguard-prototype/internal/domain"
	"github.com/xela07ax/txguard-prototype/internal/repository/memory"
	"go.uber.org/zap"
)

// Без Redis менеджер живет на одном L1: Init и Recompute работают локально.
func TestEnforceModeInitFromRepository(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	store.CreatePolicy(ctx, &domain.Policy{ID: "p1", Enabled: true, Mode: domain.ModeMonitor})

	m := NewEnforceModeManager(store, nil, zap.NewNop())
	if !m.IsEnforcing() {
		t.Fatal("manager must default to enforce before the first sync")
	}

	if err := m.Init(ctx); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if m.IsEnforcing() {
		t.Fatal("a monitor policy must flip the global mode off enforce")
	}
}

func TestEnforceModeRecompute(t *testing.T) {
	m := NewEnforceModeManager(memory.NewStore(), nil, zap.NewNop())
	ctx := context.Background()

	m.Recompute(ctx, []domain.Policy{{Enabled: true, Mode: domain.ModeMonitor}})
	if m.IsEnforcing() {
		t.Fatal("recompute must pick up the monitor policy")
	}

	m.Recompute(ctx, []domain.Policy{{Enabled: true, Mode: domain.ModeEnforce}})
	if !m.IsEnforcing() {
		t.Fatal("recompute must restore enforce")
	}

	// Пустой набор — Zero Trust
	m.Recompute(ctx, nil)
	if !m.IsEnforcing() {
		t.Fatal("empty policy set must be enforcing")
	}
}
