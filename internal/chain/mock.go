package chain

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/xela07ax/txguard-prototype/internal/domain"
	"go.uber.org/zap"
)

// MockBackend фабрикует симуляцию, когда чейн недоступен.
// Состояние фиксированное: стартовый баланс из конфига, нулевой allowance.
type MockBackend struct {
	token        domain.TokenRef
	wallet       string
	startBalance string
	// riskySpenders — адреса, для которых unlimited approve "дренирует" баланс в моке.
	riskySpenders []string
	logger        *zap.Logger
}

func NewMockBackend(token domain.TokenRef, wallet, startBalance string, riskySpenders []string, logger *zap.Logger) *MockBackend {
	return &MockBackend{
		token:         token,
		wallet:        wallet,
		startBalance:  startBalance,
		riskySpenders: riskySpenders,
		logger:        logger.Named("mock-backend"),
	}
}

func (m *MockBackend) Name() string { return "mock" }

func (m *MockBackend) Simulate(_ context.Context, it *domain.Intent) (*domain.SimulationResult, error) {
	now := time.Now().UnixMilli()

	amount, ok := new(big.Int).SetString(it.Amount, 10)
	if !ok {
		amount = big.NewInt(0)
	}

	data, err := ApproveCalldata(it.Spender, amount)
	if err != nil {
		return nil, err
	}

	res := &domain.SimulationResult{
		TxRequest: domain.TxRequest{
			To:    m.token.Address,
			Data:  data,
			Value: "0",
		},
		BeforeState: domain.ChainState{
			Balance:   m.startBalance,
			Allowance: "0",
		},
		AfterState: domain.ChainState{
			Balance:   m.startBalance,
			Allowance: it.Amount,
		},
		Timeline: []domain.TimelineStep{
			{Block: 1, Description: "approve transaction simulated (mock chain)", Timestamp: now},
		},
		Logs: []string{"mock: chain endpoint unreachable, state fabricated"},
	}

	// Сценарий дрейна: рискованный спендер + безлимитный аппрув
	if it.IsUnlimited && m.isRisky(it.Spender) {
		res.AfterState.Balance = "0"
		res.Timeline = append(res.Timeline, domain.TimelineStep{
			Block:       2,
			Description: "drain detected: spender transferred entire balance",
			Timestamp:   now + 1,
		})
		res.Logs = append(res.Logs, "mock: scripted drain triggered")
	}

	return res, nil
}

func (m *MockBackend) isRisky(spender string) bool {
	for _, r := range m.riskySpenders {
		if strings.EqualFold(r, spender) {
			return true
		}
	}
	return false
}
