package domain

// RiskFlag — независимые предикаты риска. Порядок вычисления на состав набора не влияет.
type RiskFlag string

const (
	FlagUnlimitedApproval RiskFlag = "UNLIMITED_APPROVAL"
	FlagBalanceDrained    RiskFlag = "BALANCE_DRAINED"
	FlagMaliciousSpender  RiskFlag = "MALICIOUS_SPENDER"
	FlagLargeApproval     RiskFlag = "LARGE_APPROVAL"
)

// BalanceDelta хранит балансы в display units (строки с 6 знаками),
// а allowance — сырыми base units, чтобы точное сравнение с MaxUint256 не ломалось.
type BalanceDelta struct {
	BalanceBefore   string `json:"balance_before"`
	BalanceAfter    string `json:"balance_after"`
	AllowanceBefore string `json:"allowance_before"`
	AllowanceAfter  string `json:"allowance_after"`
}

// RealityDelta — нормализованное сравнение "до/после" + выведенные флаги риска.
type RealityDelta struct {
	Wallet       string       `json:"wallet"`
	Token        TokenRef     `json:"token"`
	Delta        BalanceDelta `json:"delta"`
	RiskFlags    []RiskFlag   `json:"risk_flags"`
	Irreversible bool         `json:"irreversible"`
}

// HasFlag — хелпер для движка правил и тестов.
func (d *RealityDelta) HasFlag(f RiskFlag) bool {
	for _, have := range d.RiskFlags {
		if have == f {
			return true
		}
	}
	return false
}
