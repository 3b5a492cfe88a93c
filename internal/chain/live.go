package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/xela07ax/txguard-prototype/internal/domain"
	"go.uber.org/zap"
)

// LiveBackend исполняет approve против живого (форкнутого) чейна через
// unlocked-аккаунты локальной ноды. Side effects выполняются максимум один раз
// за прогон: сбой посреди последовательности approve+drain не ретраится,
// а всплывает ошибкой прогона.
type LiveBackend struct {
	rpc              *RPCClient
	token            domain.TokenRef
	wallet           string
	maliciousSpender string
	logger           *zap.Logger
}

func NewLiveBackend(rpc *RPCClient, token domain.TokenRef, wallet, maliciousSpender string, logger *zap.Logger) *LiveBackend {
	return &LiveBackend{
		rpc:              rpc,
		token:            token,
		wallet:           wallet,
		maliciousSpender: maliciousSpender,
		logger:           logger.Named("live-backend"),
	}
}

func (l *LiveBackend) Name() string { return "live" }

func (l *LiveBackend) Simulate(ctx context.Context, it *domain.Intent) (*domain.SimulationResult, error) {
	amount, ok := new(big.Int).SetString(it.Amount, 10)
	if !ok {
		return nil, fmt.Errorf("live: invalid intent amount %q", it.Amount)
	}

	// 1. Состояние "до"
	before, err := l.readState(ctx, it.Spender)
	if err != nil {
		return nil, fmt.Errorf("live: read before-state: %w", err)
	}

	data, err := ApproveCalldata(it.Spender, amount)
	if err != nil {
		return nil, err
	}

	res := &domain.SimulationResult{
		TxRequest:   domain.TxRequest{To: l.token.Address, Data: data, Value: "0"},
		BeforeState: *before,
	}

	// 2. Сам approve — от имени кошелька пользователя
	approveHash, err := l.sendTx(ctx, l.wallet, l.token.Address, data)
	if err != nil {
		return nil, fmt.Errorf("live: send approve: %w", err)
	}
	receipt, err := l.rpc.WaitReceipt(ctx, approveHash)
	if err != nil {
		return nil, fmt.Errorf("live: approve not mined: %w", err)
	}
	if receipt.Status != "0x1" {
		return nil, fmt.Errorf("live: approve reverted (tx %s)", approveHash)
	}

	res.Timeline = append(res.Timeline, domain.TimelineStep{
		Block:       blockOf(receipt),
		Description: fmt.Sprintf("approve(%s, %s) executed", it.Spender, it.AmountFormatted),
		Timestamp:   time.Now().UnixMilli(),
	})
	res.Logs = append(res.Logs, "live: approve tx "+approveHash)

	// 3. Скриптованный drain: только для злонамеренного спендера + unlimited.
	// Демонстрирует, что именно безлимитный аппрув делает возможным вывод средств.
	if it.IsUnlimited && strings.EqualFold(it.Spender, l.maliciousSpender) {
		balance, ok := new(big.Int).SetString(before.Balance, 10)
		if !ok {
			return nil, fmt.Errorf("live: invalid before balance %q", before.Balance)
		}

		drainData, err := packCall(selTransferFrom, l.wallet, l.maliciousSpender, balance)
		if err != nil {
			return nil, err
		}
		drainHash, err := l.sendTx(ctx, l.maliciousSpender, l.token.Address, drainData)
		if err != nil {
			return nil, fmt.Errorf("live: send drain: %w", err)
		}
		drainReceipt, err := l.rpc.WaitReceipt(ctx, drainHash)
		if err != nil {
			return nil, fmt.Errorf("live: drain not mined: %w", err)
		}

		res.Timeline = append(res.Timeline, domain.TimelineStep{
			Block:       blockOf(drainReceipt),
			Description: "drain detected: spender transferred entire balance",
			Timestamp:   time.Now().UnixMilli(),
		})
		res.Logs = append(res.Logs, "live: drain tx "+drainHash)
	}

	// 4. Состояние "после"
	after, err := l.readState(ctx, it.Spender)
	if err != nil {
		return nil, fmt.Errorf("live: read after-state: %w", err)
	}
	res.AfterState = *after

	return res, nil
}

// readState читает balance и allowance кошелька через eth_call.
func (l *LiveBackend) readState(ctx context.Context, spender string) (*domain.ChainState, error) {
	balance, err := l.callUint(ctx, selBalanceOf, l.wallet)
	if err != nil {
		return nil, err
	}
	allowance, err := l.callUint(ctx, selAllowance, l.wallet, spender)
	if err != nil {
		return nil, err
	}
	return &domain.ChainState{
		Balance:   balance.String(),
		Allowance: allowance.String(),
	}, nil
}

func (l *LiveBackend) callUint(ctx context.Context, selector string, args ...interface{}) (*big.Int, error) {
	data, err := packCall(selector, args...)
	if err != nil {
		return nil, err
	}

	raw, err := l.rpc.Call(ctx, "eth_call", map[string]string{
		"to":   l.token.Address,
		"data": data,
	}, "latest")
	if err != nil {
		return nil, err
	}

	var hexResult string
	if err := json.Unmarshal(raw, &hexResult); err != nil {
		return nil, fmt.Errorf("live: invalid eth_call result: %w", err)
	}
	return decodeQuantity(hexResult)
}

// sendTx отправляет транзакцию от unlocked-аккаунта локальной ноды.
func (l *LiveBackend) sendTx(ctx context.Context, from, to, data string) (string, error) {
	raw, err := l.rpc.Call(ctx, "eth_sendTransaction", map[string]string{
		"from": from,
		"to":   to,
		"data": data,
	})
	if err != nil {
		return "", err
	}

	var hash string
	if err := json.Unmarshal(raw, &hash); err != nil {
		return "", fmt.Errorf("live: invalid tx hash response: %w", err)
	}
	return hash, nil
}

func blockOf(r *Receipt) int {
	n, err := decodeQuantity(r.BlockNumber)
	if err != nil {
		return 0
	}
	return int(n.Int64())
}
