package domain

// TxRequest — сырой запрос транзакции, который ушел (или ушел бы) в сеть.
type TxRequest struct {
	To    string `json:"to"`
	Data  string `json:"data"`
	Value string `json:"value"`
}

// TimelineStep — одна строка хронологии симуляции для фронтенда.
type TimelineStep struct {
	Block       int    `json:"block"`
	Description string `json:"description"`
	Timestamp   int64  `json:"timestamp"` // epoch ms
}

// ChainState — снимок баланса и allowance кошелька в base units.
type ChainState struct {
	Balance   string `json:"balance"`
	Allowance string `json:"allowance"`
}

// SimulationResult — результат прогона approve против чейна (живого или мокового).
// Оба бэкенда обязаны возвращать структурно идентичный результат.
type SimulationResult struct {
	TxRequest   TxRequest      `json:"tx_request"`
	Timeline    []TimelineStep `json:"timeline"`
	BeforeState ChainState     `json:"before_state"`
	AfterState  ChainState     `json:"after_state"`
	Logs        []string       `json:"logs"`
}
