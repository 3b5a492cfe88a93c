package domain

import "time"

// Stage — состояния конечного автомата прогона, в строгом линейном порядке.
type Stage string

const (
	StagePaymentVerified Stage = "payment_verified"
	StageIntentParse     Stage = "intent_parse"
	StageForkChain       Stage = "fork_chain"
	StageSimulate        Stage = "simulate"
	StageExtractDelta    Stage = "extract_delta"
	StageJudge           Stage = "judge"
	StageFinal           Stage = "final"
	StageError           Stage = "error" // терминальное, возможно из любого состояния
)

// RunStatus — итоговый статус прогона после сверки с глобальным режимом политик.
type RunStatus string

const (
	RunAllowed RunStatus = "ALLOWED"
	RunPending RunStatus = "PENDING"
	RunDenied  RunStatus = "DENIED"
)

// NextStep подсказывает клиенту, что делать дальше.
type NextStep string

const (
	StepReadyToSign       NextStep = "READY_TO_SIGN"
	StepNeedJustification NextStep = "NEED_JUSTIFICATION"
	StepBlocked           NextStep = "BLOCKED"
)

// StageEvent — одно событие прогресса, уходящее подписчикам стрима.
type StageEvent struct {
	Stage   Stage       `json:"stage"`
	Message string      `json:"message"`
	Payload interface{} `json:"payload,omitempty"`
}

// RunResult — полезная нагрузка финального события.
type RunResult struct {
	RunID        string            `json:"run_id"`
	Status       RunStatus         `json:"status"`
	NextStep     NextStep          `json:"next_step"`
	Intent       *Intent           `json:"intent"`
	Simulation   *SimulationResult `json:"simulation"`
	RealityDelta *RealityDelta     `json:"reality_delta"`
	Judgment     *Judgment         `json:"judgment"`
}

// Run — запись оркестрации. Мутируется только горутиной своего прогона.
type Run struct {
	ID            string      `json:"id"`
	Message       string      `json:"message"`
	PaymentTxHash string      `json:"payment_tx_hash,omitempty"`
	CurrentStage  *StageEvent `json:"current_stage,omitempty"`
	Result        *StageEvent `json:"result,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}
