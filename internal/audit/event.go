package audit

import "time"

// Record — одна строка аудита пайплайна. Пишется на каждом терминальном
// состоянии прогона (final/error) и на мутациях политик.
type Record struct {
	ID      string `json:"id"`       // UUID события
	TraceID string `json:"trace_id"` // Сквозной ID запроса
	RunID   string `json:"run_id"`   // Прогон, к которому относится событие
	Actor   string `json:"actor"`    // Плейсхолдер идентичности (см. контракт консоли)
	Action  string `json:"action"`   // run_final, run_error, policy_update, ...

	// Контекст решения
	Wallet  string `json:"wallet"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"` // base units
	Verdict string `json:"verdict"`
	Status  string `json:"status"` // ALLOWED / PENDING / DENIED / ERROR

	Detail     string    `json:"detail"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms"`
}
