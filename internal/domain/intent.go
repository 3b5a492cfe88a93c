package domain

import "errors"

// Ошибки разбора intent'а. Поднимаются парсером до вызова платного пайплайна,
// поэтому хендлер отдает их как 4xx (пользователь должен переформулировать).
var (
	ErrUnsupportedIntent = errors.New("intent: message does not contain an approval request")
	ErrMissingSpender    = errors.New("intent: spender address or known alias not found")
)

// MaxUint256 — строковый сентинел "unlimited" аппрува (2^256 - 1).
// Сравниваем именно строки, чтобы не терять точность на float.
const MaxUint256 = "115792089237316195423570985008687907853269984665640564039457584007913129639935"

type TokenRef struct {
	Symbol  string `json:"symbol"`
	Address string `json:"address"`
}

// Intent — структурированный запрос на ERC-20 approve, извлеченный из свободного текста.
// Иммутабелен после создания парсером.
type Intent struct {
	Type            string   `json:"type"` // всегда "erc20_approve"
	Token           TokenRef `json:"token"`
	Spender         string   `json:"spender"`
	Amount          string   `json:"amount"` // base units, десятичная строка
	AmountFormatted string   `json:"amount_formatted"`
	IsUnlimited     bool     `json:"is_unlimited"`
}
