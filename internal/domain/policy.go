package domain

import "time"

// PolicyMode определяет реакцию на нарушение: блокировать или только алертить.
type PolicyMode string

const (
	ModeEnforce PolicyMode = "ENFORCE" // Нарушения блокируют транзакции
	ModeMonitor PolicyMode = "MONITOR" // Нарушения пишутся как алерты, но пропускаются
)

type PolicySeverity string

const (
	SeverityCritical PolicySeverity = "CRITICAL"
	SeverityHigh     PolicySeverity = "HIGH"
	SeverityMedium   PolicySeverity = "MEDIUM"
	SeverityLow      PolicySeverity = "LOW"
)

// Policy — персистентный дескриптор правила безопасности.
// Глобальный режим enforce не хранится напрямую: он выводится из всего набора.
type Policy struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Enabled     bool           `json:"enabled"`
	Mode        PolicyMode     `json:"mode"`
	RuleType    string         `json:"rule_type"`
	Severity    PolicySeverity `json:"severity"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// IsEnforcing — инвариант глобального режима: система в enforce iff
// КАЖДАЯ включенная политика имеет mode=ENFORCE. Пустой набор тоже enforce
// (Zero Trust: отсутствие правил не ослабляет контроль).
func IsEnforcing(policies []Policy) bool {
	for _, p := range policies {
		if p.Enabled && p.Mode != ModeEnforce {
			return false
		}
	}
	return true
}
