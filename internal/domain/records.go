package domain

import "time"

// Статусы персистентной записи Transaction (очередь на подпись).
type TransactionStatus string

const (
	TxAllowed TransactionStatus = "ALLOWED"
	TxPending TransactionStatus = "PENDING"
	TxDenied  TransactionStatus = "DENIED"
	TxSigned  TransactionStatus = "SIGNED"
)

// Transaction — итоговая запись решенного прогона. Append-mostly,
// сортировка по created_at DESC для выдачи в консоль.
type Transaction struct {
	ID          string            `json:"id"`
	RunID       string            `json:"run_id"`
	Wallet      string            `json:"wallet"`
	TokenSymbol string            `json:"token_symbol"`
	Spender     string            `json:"spender"`
	Amount      string            `json:"amount"` // base units
	Status      TransactionStatus `json:"status"`
	OnchainHash string            `json:"onchain_hash,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Alert — запись о нарушении, пропущенном в monitor-режиме (или о сработке правила).
type Alert struct {
	ID           string         `json:"id"`
	RunID        string         `json:"run_id"`
	Title        string         `json:"title"`
	Detail       string         `json:"detail"`
	Severity     PolicySeverity `json:"severity"`
	Acknowledged bool           `json:"acknowledged"`
	CreatedAt    time.Time      `json:"created_at"`
}

// SimulationReport — сохраненный отчет симуляции для просмотра в консоли.
type SimulationReport struct {
	ID        string            `json:"id"`
	RunID     string            `json:"run_id"`
	Result    *SimulationResult `json:"result"`
	CreatedAt time.Time         `json:"created_at"`
}

// Allowance — бухгалтерия выданных аппрувов (для дашборда и ревью).
type Allowance struct {
	ID        string    `json:"id"`
	Wallet    string    `json:"wallet"`
	Token     TokenRef  `json:"token"`
	Spender   string    `json:"spender"`
	Amount    string    `json:"amount"` // base units, MaxUint256 для unlimited
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContractRef — известный консоли контракт (из дескриптора чейна или добавленный руками).
type ContractRef struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Decimals  int       `json:"decimals"`
	Kind      string    `json:"kind"` // token, spender, wallet
	CreatedAt time.Time `json:"created_at"`
}
