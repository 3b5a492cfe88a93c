package audit

/*
Файл trail.go реализует движок сбора и персистентности аудита пайплайна.

Ключевые особенности архитектуры:
- Non-blocking Logging: неблокирующий канал между hot path оркестратора и
  воркером записи. Задержки БД не влияют на время ответа клиенту.
- Batching: накопление записей в памяти и пакетная вставка в PostgreSQL
  по таймеру или при достижении лимита.
- Drain Pattern: при остановке сервиса канал закрывается, воркер вычитывает
  остатки и делает финальный flush — записи не теряются при перезагрузке.
*/

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// StorageInterface определяет, куда физически сохраняются записи аудита.
type StorageInterface interface {
	// WriteBatch сохраняет пачку записей за один раз
	WriteBatch(ctx context.Context, records []Record) error
}

type Auditor interface {
	Log(rec Record)
}

type Trail struct {
	ch     chan Record
	repo   StorageInterface
	logger *zap.Logger
	wg     sync.WaitGroup

	isClosed int32 // Атомарный флаг (0 - открыт, 1 - закрыт)
}

func NewTrail(repo StorageInterface, logger *zap.Logger) *Trail {
	return &Trail{
		ch:     make(chan Record, 10000),
		repo:   repo,
		logger: logger.With(zap.String("mod", "audit-trail")),
	}
}

func (t *Trail) Start() {
	t.wg.Add(1)
	go t.worker()
}

// Stop запирает вход в канал и ждет, пока воркер всё допишет.
func (t *Trail) Stop() {
	atomic.StoreInt32(&t.isClosed, 1)

	// Крошечная пауза, чтобы текущие Log успели проскочить
	time.Sleep(10 * time.Millisecond)

	t.logger.Info("stopping audit trail: closing channel and flushing buffer...")
	close(t.ch)
	t.wg.Wait()
	t.logger.Info("audit trail stopped gracefully")
}

func (t *Trail) Log(rec Record) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	if atomic.LoadInt32(&t.isClosed) == 1 {
		t.logger.Warn("audit record dropped: trail is stopping", zap.String("run_id", rec.RunID))
		return
	}

	// Load Shedding: переполненный буфер не блокирует пайплайн,
	// запись уходит хотя бы в структурный лог.
	select {
	case t.ch <- rec:
	default:
		t.logger.Error("audit_buffer_overflow",
			zap.String("run_id", rec.RunID),
			zap.String("action", rec.Action),
		)
	}
}

func (t *Trail) worker() {
	defer t.wg.Done()

	batch := make([]Record, 0, 100)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	flush := func() {
		if len(batch) > 0 {
			// Background: основной контекст на shutdown уже может быть закрыт
			if err := t.repo.WriteBatch(context.Background(), batch); err != nil {
				t.logger.Error("audit flush failed", zap.Error(err))
			}
			batch = batch[:0]
		}
	}

	for {
		select {
		case rec, ok := <-t.ch:
			if !ok {
				// Закрытие канала в Stop() — самодостаточный сигнал завершения:
				// воркер сначала вычитает очередь, потом сделает финальный flush.
				flush()
				t.logger.Info("audit worker finished")
				return
			}
			batch = append(batch, rec)
			if len(batch) >= 100 {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}
