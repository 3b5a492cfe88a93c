package delta

import (
	"testing"

	"github.com/xela07ax/txguard-prototype/internal/domain"
)

const (
	testWallet       = "0x3333333333333333333333333333333333333333"
	safeSpender      = "0x1111111111111111111111111111111111111111"
	maliciousSpender = "0x2222222222222222222222222222222222222222"
)

func newTestAnalyzer() *Analyzer {
	token := domain.TokenRef{Symbol: "USDT", Address: "0x9999999999999999999999999999999999999999"}
	return NewAnalyzer(testWallet, token, 6, maliciousSpender, 0.20)
}

func simResult(balanceBefore, balanceAfter, allowanceAfter string) *domain.SimulationResult {
	return &domain.SimulationResult{
		BeforeState: domain.ChainState{Balance: balanceBefore, Allowance: "0"},
		AfterState:  domain.ChainState{Balance: balanceAfter, Allowance: allowanceAfter},
	}
}

func TestExtractRescalesBalancesKeepsAllowancesRaw(t *testing.T) {
	a := newTestAnalyzer()

	it := &domain.Intent{Spender: safeSpender, Amount: "100000000"}
	d := a.Extract(simResult("1000000000", "1000000000", "100000000"), it)

	if d.Delta.BalanceBefore != "1000.000000" || d.Delta.BalanceAfter != "1000.000000" {
		t.Fatalf("balances not rescaled to display units: %+v", d.Delta)
	}
	// Allowance остается в base units
	if d.Delta.AllowanceAfter != "100000000" {
		t.Fatalf("allowance must stay raw: %s", d.Delta.AllowanceAfter)
	}
	if len(d.RiskFlags) != 0 {
		t.Fatalf("clean approval must carry no flags: %v", d.RiskFlags)
	}
	if d.Irreversible {
		t.Fatal("clean approval is reversible")
	}
	if d.Wallet != testWallet {
		t.Fatalf("wrong wallet: %s", d.Wallet)
	}
}

func TestExtractUnlimitedFlagAndIrreversible(t *testing.T) {
	a := newTestAnalyzer()

	it := &domain.Intent{Spender: safeSpender, Amount: domain.MaxUint256, IsUnlimited: true}
	d := a.Extract(simResult("1000000000", "1000000000", domain.MaxUint256), it)

	if !d.HasFlag(domain.FlagUnlimitedApproval) {
		t.Fatal("expected UNLIMITED_APPROVAL flag")
	}
	if !d.Irreversible {
		t.Fatal("unlimited approval is irreversible")
	}
}

func TestExtractDrainedFlag(t *testing.T) {
	a := newTestAnalyzer()

	it := &domain.Intent{Spender: safeSpender, Amount: domain.MaxUint256, IsUnlimited: true}
	d := a.Extract(simResult("1000000000", "0", domain.MaxUint256), it)

	if !d.HasFlag(domain.FlagBalanceDrained) {
		t.Fatal("expected BALANCE_DRAINED flag")
	}
	if d.Delta.BalanceAfter != "0.000000" {
		t.Fatalf("drained balance not rescaled: %s", d.Delta.BalanceAfter)
	}
	if !d.Irreversible {
		t.Fatal("drain is irreversible")
	}
}

func TestExtractMaliciousSpenderFlag(t *testing.T) {
	a := newTestAnalyzer()

	it := &domain.Intent{Spender: maliciousSpender, Amount: "1000000"}
	d := a.Extract(simResult("1000000000", "1000000000", "1000000"), it)

	if !d.HasFlag(domain.FlagMaliciousSpender) {
		t.Fatal("expected MALICIOUS_SPENDER flag")
	}
}

func TestExtractLargeApprovalBoundary(t *testing.T) {
	a := newTestAnalyzer()

	// Ровно 20% баланса — еще не LARGE_APPROVAL (строго больше)
	it := &domain.Intent{Spender: safeSpender, Amount: "200000000"}
	d := a.Extract(simResult("1000000000", "1000000000", "200000000"), it)
	if d.HasFlag(domain.FlagLargeApproval) {
		t.Fatal("exactly ratio*balance must not trip LARGE_APPROVAL")
	}

	// Чуть больше порога — флаг есть
	it = &domain.Intent{Spender: safeSpender, Amount: "200000001"}
	d = a.Extract(simResult("1000000000", "1000000000", "200000001"), it)
	if !d.HasFlag(domain.FlagLargeApproval) {
		t.Fatal("expected LARGE_APPROVAL above the ratio threshold")
	}
}

// Без intent'а вычисляются только флаги, видимые из самой симуляции.
func TestExtractWithoutIntent(t *testing.T) {
	a := newTestAnalyzer()

	d := a.Extract(simResult("1000000000", "500000000", "900000000"), nil)
	if !d.HasFlag(domain.FlagBalanceDrained) {
		t.Fatal("drain flag must not depend on intent")
	}
	if d.HasFlag(domain.FlagMaliciousSpender) || d.HasFlag(domain.FlagLargeApproval) {
		t.Fatalf("intent-derived flags must be absent: %v", d.RiskFlags)
	}
}
