package chain

import (
	"context"
	"testing"

	"github.com/xela07ax/txguard-prototype/internal/domain"
	"go.uber.org/zap"
)

const (
	testWallet  = "0x3333333333333333333333333333333333333333"
	safeSpender = "0x1111111111111111111111111111111111111111"
	riskSpender = "0x2222222222222222222222222222222222222222"
)

func newTestMock() *MockBackend {
	token := domain.TokenRef{Symbol: "USDT", Address: "0x9999999999999999999999999999999999999999"}
	return NewMockBackend(token, testWallet, "1000000000", []string{riskSpender}, zap.NewNop())
}

func TestMockSimulateRegularApprove(t *testing.T) {
	m := newTestMock()

	it := &domain.Intent{Spender: safeSpender, Amount: "100000000"}
	res, err := m.Simulate(context.Background(), it)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.BeforeState.Balance != "1000000000" || res.AfterState.Balance != "1000000000" {
		t.Fatalf("approve must not move the balance: %+v", res)
	}
	if res.BeforeState.Allowance != "0" || res.AfterState.Allowance != "100000000" {
		t.Fatalf("allowance transition wrong: %+v", res)
	}
	if len(res.Timeline) != 1 {
		t.Fatalf("expected a single timeline step, got %d", len(res.Timeline))
	}
	if res.TxRequest.To != m.token.Address || res.TxRequest.Data == "" {
		t.Fatalf("tx request not populated: %+v", res.TxRequest)
	}
}

func TestMockSimulateScriptedDrain(t *testing.T) {
	m := newTestMock()

	it := &domain.Intent{Spender: riskSpender, Amount: domain.MaxUint256, IsUnlimited: true}
	res, err := m.Simulate(context.Background(), it)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.AfterState.Balance != "0" {
		t.Fatalf("unlimited approve to risky spender must drain, got %s", res.AfterState.Balance)
	}
	if len(res.Timeline) != 2 {
		t.Fatalf("drain must add a timeline step, got %d", len(res.Timeline))
	}
}

// Дрейн требует обоих условий: unlimited И рискованный спендер.
func TestMockDrainNeedsBothConditions(t *testing.T) {
	m := newTestMock()

	// Unlimited, но спендер безопасный
	it := &domain.Intent{Spender: safeSpender, Amount: domain.MaxUint256, IsUnlimited: true}
	res, _ := m.Simulate(context.Background(), it)
	if res.AfterState.Balance != "1000000000" {
		t.Fatal("unlimited approve to safe spender must not drain")
	}

	// Рискованный спендер, но сумма ограничена
	it = &domain.Intent{Spender: riskSpender, Amount: "100000000"}
	res, _ = m.Simulate(context.Background(), it)
	if res.AfterState.Balance != "1000000000" {
		t.Fatal("limited approve to risky spender must not drain")
	}
}
