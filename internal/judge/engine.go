package judge

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/xela07ax/txguard-prototype/internal/domain"
)

// Thresholds — бизнес-пороги движка. Вынесены в конфиг сознательно:
// 500/800/0.20 — настраиваемые константы, а не зашитая логика.
type Thresholds struct {
	AutoApproveLimit   float64 // display units, меньше — автоматический ALLOW
	HardDenyLimit      float64 // display units, >= — жесткий DENY без override
	LargeApprovalRatio float64
}

// Engine — детерминированная таблица правил (intent, delta) -> Judgment.
// Никакого I/O и скрытого состояния: одинаковые входы дают байт-в-байт
// одинаковый результат, на этом стоят тесты.
type Engine struct {
	maliciousSpender string
	decimals         int
	thresholds       Thresholds
}

func NewEngine(maliciousSpender string, decimals int, t Thresholds) *Engine {
	return &Engine{
		maliciousSpender: maliciousSpender,
		decimals:         decimals,
		thresholds:       t,
	}
}

// Judge применяет таблицу решений в строгом порядке, первое совпадение выигрывает:
//  1. жесткий DENY (malicious / unlimited / amount >= hard limit), override запрещен;
//  2. ALLOW при amount < auto limit;
//  3. PENDING (DENY + override_allowed) в полосе [auto, hard);
//  4. fallback risky-DENY с override для всего остального.
func (e *Engine) Judge(it *domain.Intent, d *domain.RealityDelta, _ *domain.SimulationResult) *domain.Judgment {
	amount := e.displayAmount(it)

	malicious := strings.EqualFold(it.Spender, e.maliciousSpender)
	unlimited := it.IsUnlimited || d.Delta.AllowanceAfter == domain.MaxUint256
	overLimit := !it.IsUnlimited && amount >= e.thresholds.HardDenyLimit

	// 1. Жесткий DENY. Нарратив выбирается по фиксированному приоритету:
	// превышение лимита > злонамеренный спендер > безлимитный аппрув.
	if malicious || unlimited || overLimit {
		j := &domain.Judgment{
			Judgment:        domain.VerdictDeny,
			OverrideAllowed: false,
		}
		switch {
		case overLimit:
			j.ReasoningBullets = []string{
				fmt.Sprintf("Requested amount %.2f exceeds the hard limit of %.0f tokens", amount, e.thresholds.HardDenyLimit),
				"Approvals above the hard limit are blocked without an override path",
			}
			j.AdversarialQuestion = "What single operation legitimately needs an approval this large?"
		case malicious:
			j.ReasoningBullets = []string{
				"Spender address matches a known malicious actor",
				"Simulation shows the spender can drain the entire balance immediately",
			}
			j.AdversarialQuestion = "Do you know who controls this address?"
			j.Warning = "complete balance drain observed in simulation"
		default: // unlimited
			j.ReasoningBullets = []string{
				"Unlimited approval grants the spender permanent access to the full balance",
				"The allowance equals max uint256 and never expires",
			}
			j.AdversarialQuestion = "Why does this spender need access to more than the amount you intend to spend?"
		}
		return j
	}

	// 2. Автоматический ALLOW в безопасной полосе. Необратимая дельта
	// (задокументированный дрейн) выводит из этой ветки в fallback.
	if amount < e.thresholds.AutoApproveLimit && !d.Irreversible {
		return &domain.Judgment{
			Judgment:        domain.VerdictAllow,
			OverrideAllowed: true,
			ReasoningBullets: []string{
				fmt.Sprintf("Amount %.2f is below the auto-approve threshold of %.0f tokens", amount, e.thresholds.AutoApproveLimit),
				"No malicious spender or unlimited allowance detected",
			},
			AdversarialQuestion: "Is this the exact spender contract you intended to authorize?",
		}
	}

	// 3. Полоса ручного ревью [auto, hard): PENDING как DENY с правом override.
	if amount >= e.thresholds.AutoApproveLimit && amount < e.thresholds.HardDenyLimit && !d.Irreversible {
		return &domain.Judgment{
			Judgment:        domain.VerdictDeny,
			OverrideAllowed: true,
			ReasoningBullets: []string{
				fmt.Sprintf("Amount %.2f falls in the manual-review band [%.0f, %.0f)", amount, e.thresholds.AutoApproveLimit, e.thresholds.HardDenyLimit),
				"A justification is required before this approval can proceed",
			},
			AdversarialQuestion: "Can you split this into smaller approvals closer to actual spending?",
		}
	}

	// 4. Fallback risky-DENY. Нарратив: дрейн важнее крупного аппрува.
	j := &domain.Judgment{
		Judgment:        domain.VerdictDeny,
		OverrideAllowed: true,
	}
	switch {
	case d.HasFlag(domain.FlagBalanceDrained):
		j.ReasoningBullets = []string{
			"Simulation shows the balance decreasing after this approval",
			"The resulting state change is irreversible",
		}
		j.AdversarialQuestion = "Why would an approval move funds out of your wallet?"
	case d.HasFlag(domain.FlagLargeApproval):
		j.ReasoningBullets = []string{
			fmt.Sprintf("Approval exceeds %.0f%% of the current balance", e.thresholds.LargeApprovalRatio*100),
			"Large allowances widen the blast radius of a spender compromise",
		}
		j.AdversarialQuestion = "Does the spender really need this share of your balance?"
	default:
		j.ReasoningBullets = []string{
			"Request did not match any safe pattern in the rule table",
		}
		j.AdversarialQuestion = "What makes this approval safe?"
	}
	return j
}

// displayAmount переводит base units intent'а в display units для сравнения с порогами.
func (e *Engine) displayAmount(it *domain.Intent) float64 {
	n, ok := new(big.Int).SetString(it.Amount, 10)
	if !ok {
		return 0
	}
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(e.decimals)), nil)
	f, _ := new(big.Rat).SetFrac(n, scale).Float64()
	return f
}
