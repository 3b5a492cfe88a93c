package domain

// UnifiedDashboard — агрегат для главного экрана консоли.
type UnifiedDashboard struct {
	Activity  ActivityStats `json:"activity"`  // Нагрузка и трафик
	Risks     RiskStats     `json:"risks"`     // Сработки правил
	Incidents IncidentStats `json:"incidents"` // Блокировки и сбои
}

type ActivityStats struct {
	TotalRuns         int64 `json:"total_runs"`
	TotalTransactions int64 `json:"total_transactions"`
	ActiveAllowances  int64 `json:"active_allowances"`
}

type RiskStats struct {
	PendingTransactions int64 `json:"pending_transactions"` // Ждут justification
	OpenAlerts          int64 `json:"open_alerts"`          // Неподтвержденные алерты
}

type IncidentStats struct {
	BlockedTransactions int64 `json:"blocked_transactions"`
	FailedRuns          int64 `json:"failed_runs"`
}
