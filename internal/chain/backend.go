package chain

import (
	"context"
	"time"

	"github.com/xela07ax/txguard-prototype/internal/domain"
	"go.uber.org/zap"
)

// Backend — capability симуляции, выбираемый через один узкий шов.
// Оба варианта (live/mock) обязаны отдавать структурно идентичный результат.
type Backend interface {
	// Simulate исполняет approve intent'а против состояния чейна
	// и возвращает before/after снимки с таймлайном.
	Simulate(ctx context.Context, it *domain.Intent) (*domain.SimulationResult, error)
	Name() string
}

// Selector решает один раз на прогон, каким бэкендом симулировать.
// Liveness probe ограничен таймаутом; недоступный чейн — документированный
// деградированный путь, а не ошибка прогона.
type Selector struct {
	rpc          *RPCClient
	live         *LiveBackend
	mock         *MockBackend
	probeTimeout time.Duration
	logger       *zap.Logger
}

func NewSelector(rpc *RPCClient, live *LiveBackend, mock *MockBackend, probeTimeout time.Duration, logger *zap.Logger) *Selector {
	return &Selector{
		rpc:          rpc,
		live:         live,
		mock:         mock,
		probeTimeout: probeTimeout,
		logger:       logger.Named("backend-selector"),
	}
}

// Mock отдает моковый бэкенд напрямую: оркестратор деградирует в него,
// если live-симуляция упала уже после успешного probe.
func (s *Selector) Mock() Backend { return s.mock }

// Select пробует чейн и возвращает live либо mock бэкенд.
func (s *Selector) Select(ctx context.Context) Backend {
	if s.rpc == nil || s.live == nil {
		return s.mock
	}
	if err := s.rpc.Probe(ctx, s.probeTimeout); err != nil {
		return s.mock
	}
	s.logger.Debug("chain endpoint is live, using live backend")
	return s.live
}
