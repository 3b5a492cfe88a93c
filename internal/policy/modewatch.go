package policy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/txguard-prototype/internal/domain"
	"github.com/xela07ax/txguard-prototype/internal/infra"
	"go.uber.org/zap"
)

// Provider описывает требования менеджера к хранилищу политик.
type Provider interface {
	GetAllPolicies(ctx context.Context) ([]domain.Policy, error)
}

// EnforceModeManager материализует глобальный режим политик в один бит.
// Вместо скана всей таблицы на каждом прогоне оркестратор читает L1 (RAM),
// а бит пересчитывается на каждой мутации политик и разносится через Redis.
// Это закрывает гонку "конкурентное редактирование политик vs reconciliation
// идущего прогона": чтение атомарно.
type EnforceModeManager struct {
	repo   Provider
	rdb    *redis.Client
	logger *zap.Logger

	mu        sync.RWMutex
	enforcing bool
}

func NewEnforceModeManager(repo Provider, rdb *redis.Client, logger *zap.Logger) *EnforceModeManager {
	return &EnforceModeManager{
		repo:      repo,
		rdb:       rdb,
		logger:    logger.Named("mode-watch"),
		enforcing: true, // Zero Trust до первой синхронизации
	}
}

// Init выполняет холодную загрузку: скан политик из БД + прогрев Redis.
func (m *EnforceModeManager) Init(ctx context.Context) error {
	policies, err := m.repo.GetAllPolicies(ctx)
	if err != nil {
		return fmt.Errorf("mode-watch: failed to fetch policies: %w", err)
	}

	enforcing := domain.IsEnforcing(policies)

	m.mu.Lock()
	m.enforcing = enforcing
	m.mu.Unlock()

	if m.rdb == nil {
		return nil
	}

	// Распределенная блокировка (SetNX): только один инстанс греет Redis
	ok, err := m.rdb.SetNX(ctx, infra.RedisKeyLockModeWarmup, "processing", 30*time.Second).Result()
	if err != nil || !ok {
		return nil // Либо сеть, либо другой инстанс уже греет
	}

	val := "0"
	if enforcing {
		val = "1"
	}
	if err := m.rdb.Set(ctx, infra.RedisKeyEnforceMode, val, 0).Err(); err != nil {
		m.logger.Warn("could not warm up enforce-mode bit in Redis", zap.Error(err))
	}

	m.logger.Info("enforce mode initialized", zap.Bool("enforcing", enforcing))
	return nil
}

// StartListener держит живучую подписку на сигналы смены режима.
// Переподключение к Redis вызывает повторную синхронизацию с БД.
func (m *EnforceModeManager) StartListener(ctx context.Context) {
	if m.rdb == nil {
		return
	}

	for {
		pubsub := m.rdb.Subscribe(ctx, infra.RedisChanPolicyMode)

		if _, err := pubsub.Receive(ctx); err != nil {
			m.logger.Error("failed to subscribe", zap.String("chan", infra.RedisChanPolicyMode), zap.Error(err))
			pubsub.Close()
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		// Синхронизация при каждом успешном коннекте
		if err := m.Init(ctx); err != nil {
			m.logger.Error("sync failed on reconnect", zap.Error(err))
		}

		ch := pubsub.Channel()

	loop:
		for {
			select {
			case <-ctx.Done():
				pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					break loop // Канал закрыт, идем на переподключение
				}
				enforcing := msg.Payload == "1" || msg.Payload == "on"

				m.mu.Lock()
				m.enforcing = enforcing
				m.mu.Unlock()

				m.logger.Info("enforce mode updated via signal", zap.Bool("enforcing", enforcing))
			}
		}

		pubsub.Close()
		time.Sleep(1 * time.Second)
	}
}

// IsEnforcing — максимально быстрое чтение для hot path оркестратора.
func (m *EnforceModeManager) IsEnforcing() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enforcing
}

// Recompute пересчитывает бит из свежего набора политик и публикует сигнал.
// Вызывается PolicyService после каждой мутации.
func (m *EnforceModeManager) Recompute(ctx context.Context, policies []domain.Policy) {
	enforcing := domain.IsEnforcing(policies)

	m.mu.Lock()
	m.enforcing = enforcing
	m.mu.Unlock()

	if m.rdb == nil {
		return
	}

	val := "0"
	if enforcing {
		val = "1"
	}
	if err := m.rdb.Set(ctx, infra.RedisKeyEnforceMode, val, 0).Err(); err != nil {
		m.logger.Warn("failed to persist enforce-mode bit", zap.Error(err))
	}
	if err := m.rdb.Publish(ctx, infra.RedisChanPolicyMode, val).Err(); err != nil {
		m.logger.Warn("enforce-mode signal delivery failed", zap.Error(err))
	}
}
