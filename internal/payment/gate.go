package payment

import (
	"context"
	"errors"
	"math/big"
	"strings"

	"github.com/xela07ax/txguard-prototype/internal/chain"
	"github.com/xela07ax/txguard-prototype/internal/domain"
	"go.uber.org/zap"
)

// Gate проверяет он-чейн платеж перед платными стадиями пайплайна.
// Контракт: любой не-OK результат вызывающий трактует как "платежа нет".
type Gate struct {
	rpc      *chain.RPCClient
	payTo    string
	priceWei *big.Int
	logger   *zap.Logger
}

func NewGate(rpc *chain.RPCClient, payTo, priceWei string, logger *zap.Logger) *Gate {
	price, ok := new(big.Int).SetString(priceWei, 10)
	if !ok {
		price = big.NewInt(0)
	}
	return &Gate{
		rpc:      rpc,
		payTo:    payTo,
		priceWei: price,
		logger:   logger.Named("payment-gate"),
	}
}

// Verify сверяет транзакцию с контрактом оплаты: найдена, не reverted,
// на наш адрес, сумма не меньше цены.
func (g *Gate) Verify(ctx context.Context, txHash string) domain.PaymentCheck {
	receipt, err := g.rpc.GetReceipt(ctx, txHash)
	if err != nil {
		g.logger.Warn("payment verification failed", zap.String("tx", txHash), zap.Error(err))
		return domain.PaymentCheck{Reason: domain.PayVerificationError}
	}
	if receipt == nil {
		return domain.PaymentCheck{Reason: domain.PayTxNotFound}
	}
	if receipt.Status != "0x1" {
		return domain.PaymentCheck{Reason: domain.PayTxReverted}
	}

	tx, err := g.rpc.GetTransaction(ctx, txHash)
	if err != nil || tx == nil {
		return domain.PaymentCheck{Reason: domain.PayVerificationError}
	}
	if !strings.EqualFold(tx.To, g.payTo) {
		return domain.PaymentCheck{Reason: domain.PayInvalidReceiver}
	}

	value, err := hexValue(tx.Value)
	if err != nil {
		return domain.PaymentCheck{Reason: domain.PayVerificationError}
	}
	if value.Cmp(g.priceWei) < 0 {
		return domain.PaymentCheck{Reason: domain.PayInsufficientAmount}
	}

	return domain.PaymentCheck{
		OK:        true,
		Payer:     tx.From,
		AmountWei: value.String(),
	}
}

func hexValue(raw string) (*big.Int, error) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	if s == "" {
		return big.NewInt(0), nil
	}
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, errors.New("payment: invalid hex value")
	}
	return n, nil
}
