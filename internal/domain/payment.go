package domain

// PaymentReason — структурированные причины отказа верификации платежа.
type PaymentReason string

const (
	PayTxNotFound         PaymentReason = "TX_NOT_FOUND"
	PayTxReverted         PaymentReason = "TX_REVERTED"
	PayInvalidReceiver    PaymentReason = "INVALID_RECEIVER"
	PayInsufficientAmount PaymentReason = "INSUFFICIENT_AMOUNT"
	PayVerificationError  PaymentReason = "VERIFICATION_ERROR"
)

// PaymentCheck — результат verify(txHash). Любой не-OK результат
// оркестратор трактует одинаково: "платежа нет".
type PaymentCheck struct {
	OK        bool          `json:"ok"`
	Payer     string        `json:"payer,omitempty"`
	AmountWei string        `json:"amount_wei,omitempty"`
	Reason    PaymentReason `json:"reason,omitempty"`
}

// PaymentRequired — тело ответа 402 для POST /chat без валидного платежа.
type PaymentRequired struct {
	PriceWei   string        `json:"price_wei"`
	ChainID    int64         `json:"chain_id"`
	PayTo      string        `json:"pay_to"`
	Memo       string        `json:"memo"`
	Reason     PaymentReason `json:"reason,omitempty"`
	RunPreview *Intent       `json:"run_preview,omitempty"`
}
