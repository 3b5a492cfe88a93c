package delta

import (
	"math/big"
	"strings"

	"github.com/xela07ax/txguard-prototype/internal/domain"
)

// Analyzer сравнивает before/after симуляции и выводит нормализованную
// RealityDelta с флагами риска. Чистый компонент, без I/O.
type Analyzer struct {
	wallet           string
	token            domain.TokenRef
	decimals         int
	maliciousSpender string

	// largeApprovalRatio — доля баланса, выше которой не-безлимитный
	// аппрув считается LARGE_APPROVAL (по умолчанию 0.20).
	largeApprovalRatio float64
}

func NewAnalyzer(wallet string, token domain.TokenRef, decimals int, maliciousSpender string, largeApprovalRatio float64) *Analyzer {
	return &Analyzer{
		wallet:             wallet,
		token:              token,
		decimals:           decimals,
		maliciousSpender:   maliciousSpender,
		largeApprovalRatio: largeApprovalRatio,
	}
}

// Extract строит RealityDelta. Intent опционален: без него флаги
// MALICIOUS_SPENDER и LARGE_APPROVAL не вычисляются (нет данных).
func (a *Analyzer) Extract(sim *domain.SimulationResult, it *domain.Intent) *domain.RealityDelta {
	d := &domain.RealityDelta{
		Wallet: a.wallet,
		Token:  a.token,
		Delta: domain.BalanceDelta{
			// Балансы — в display units с 6 знаками.
			BalanceBefore: a.toDisplay(sim.BeforeState.Balance),
			BalanceAfter:  a.toDisplay(sim.AfterState.Balance),
			// Allowance остается в сырых base units: точное сравнение
			// с MaxUint256 при рескейле было бы потеряно.
			AllowanceBefore: sim.BeforeState.Allowance,
			AllowanceAfter:  sim.AfterState.Allowance,
		},
	}

	// Флаги — независимые предикаты; порядок добавления фиксирован только для стабильного JSON.
	if sim.AfterState.Allowance == domain.MaxUint256 {
		d.RiskFlags = append(d.RiskFlags, domain.FlagUnlimitedApproval)
	}
	if balanceDropped(sim.BeforeState.Balance, sim.AfterState.Balance) {
		d.RiskFlags = append(d.RiskFlags, domain.FlagBalanceDrained)
	}
	if it != nil && strings.EqualFold(it.Spender, a.maliciousSpender) {
		d.RiskFlags = append(d.RiskFlags, domain.FlagMaliciousSpender)
	}
	if it != nil && !it.IsUnlimited && a.isLargeApproval(it.Amount, sim.BeforeState.Balance) {
		d.RiskFlags = append(d.RiskFlags, domain.FlagLargeApproval)
	}

	d.Irreversible = d.HasFlag(domain.FlagBalanceDrained) || d.HasFlag(domain.FlagUnlimitedApproval)
	return d
}

// toDisplay переводит base units в display units: raw / 10^decimals, 6 знаков.
func (a *Analyzer) toDisplay(raw string) string {
	n, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return "0.000000"
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(a.decimals)), nil)
	return new(big.Rat).SetFrac(n, scale).FloatString(6)
}

// isLargeApproval: amount > ratio * beforeBalance, оба в base units.
func (a *Analyzer) isLargeApproval(amountRaw, balanceRaw string) bool {
	amount, ok1 := new(big.Int).SetString(amountRaw, 10)
	balance, ok2 := new(big.Int).SetString(balanceRaw, 10)
	if !ok1 || !ok2 || balance.Sign() <= 0 {
		return false
	}

	threshold := new(big.Rat).Mul(
		new(big.Rat).SetInt(balance),
		new(big.Rat).SetFloat64(a.largeApprovalRatio),
	)
	return new(big.Rat).SetInt(amount).Cmp(threshold) > 0
}

func balanceDropped(before, after string) bool {
	b, ok1 := new(big.Int).SetString(before, 10)
	a, ok2 := new(big.Int).SetString(after, 10)
	if !ok1 || !ok2 {
		return false
	}
	return a.Cmp(b) < 0
}
