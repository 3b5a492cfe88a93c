package run

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/txguard-prototype/internal/audit"
	"github.com/xela07ax/txguard-prototype/internal/chain"
	"github.com/xela07ax/txguard-prototype/internal/domain"
	"go.uber.org/zap"
)

// IntentParser — контракт парсера (см. internal/intent).
type IntentParser interface {
	Parse(message string) (*domain.Intent, error)
}

// DeltaAnalyzer — контракт анализатора (см. internal/delta).
type DeltaAnalyzer interface {
	Extract(sim *domain.SimulationResult, it *domain.Intent) *domain.RealityDelta
}

// JudgeEngine — контракт движка правил (см. internal/judge).
type JudgeEngine interface {
	Judge(it *domain.Intent, d *domain.RealityDelta, sim *domain.SimulationResult) *domain.Judgment
}

// ModeProvider отдает материализованный глобальный режим политик.
type ModeProvider interface {
	IsEnforcing() bool
}

// BackendSelector выбирает live/mock бэкенд симуляции один раз на прогон.
type BackendSelector interface {
	Select(ctx context.Context) chain.Backend
	Mock() chain.Backend
}

// Persistence — коллаборатор записи побочных эффектов решенного прогона.
// Ошибки записи здесь логируются и глотаются: вердикт уже вычислен и
// отстримлен клиенту, ронять прогон из-за БД поздно.
type Persistence interface {
	SaveTransaction(ctx context.Context, tx *domain.Transaction) error
	SaveAlert(ctx context.Context, a *domain.Alert) error
	SaveSimulation(ctx context.Context, rep *domain.SimulationReport) error
	UpsertAllowance(ctx context.Context, al *domain.Allowance) error
}

// Orchestrator — конечный автомат пайплайна:
// payment_verified? -> intent_parse -> fork_chain -> simulate ->
// extract_delta -> judge -> final, с терминальным error из любой стадии.
type Orchestrator struct {
	parser   IntentParser
	selector BackendSelector
	analyzer DeltaAnalyzer
	engine   JudgeEngine
	mode     ModeProvider
	store    Persistence
	auditor  audit.Auditor

	registry *Registry
	bus      *Bus
	metrics  *Metrics
	logger   *zap.Logger
}

func NewOrchestrator(
	parser IntentParser,
	selector BackendSelector,
	analyzer DeltaAnalyzer,
	engine JudgeEngine,
	mode ModeProvider,
	store Persistence,
	auditor audit.Auditor,
	registry *Registry,
	bus *Bus,
	metrics *Metrics,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		parser:   parser,
		selector: selector,
		analyzer: analyzer,
		engine:   engine,
		mode:     mode,
		store:    store,
		auditor:  auditor,
		registry: registry,
		bus:      bus,
		metrics:  metrics,
		logger:   logger.Named("orchestrator"),
	}
}

// Registry отдает реестр транспортному слою (GET /chat, стрим).
func (o *Orchestrator) Registry() *Registry { return o.registry }

// Bus отдает шину подписок транспортному слою.
func (o *Orchestrator) Bus() *Bus { return o.bus }

// StartRun синхронно создает запись прогона и сразу возвращает id;
// сам пайплайн исполняется асинхронно.
func (o *Orchestrator) StartRun(message, paymentTxHash string) string {
	r := &domain.Run{
		ID:            uuid.New().String(),
		Message:       message,
		PaymentTxHash: paymentTxHash,
		CreatedAt:     time.Now(),
	}
	o.registry.Put(r)
	o.metrics.ActiveRuns.Set(float64(o.registry.Len()))

	go o.ProcessRun(r.ID)
	return r.ID
}

// ProcessRun исполняет пайплайн одного прогона. Любая необработанная
// паника конвертируется в одиночное терминальное error-событие:
// процесс не падает никогда.
func (o *Orchestrator) ProcessRun(runID string) {
	ctx := context.Background()
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			o.logger.Error("run panicked", zap.String("run_id", runID), zap.Any("panic", rec))
			o.emitError(runID, domain.StageError, fmt.Sprintf("internal error: %v", rec))
		}
		o.metrics.RunDuration.Observe(time.Since(start).Seconds())
		o.metrics.ActiveRuns.Set(float64(o.registry.Len()))
	}()

	r, ok := o.registry.Get(runID)
	if !ok {
		o.logger.Error("run not found in registry", zap.String("run_id", runID))
		return
	}

	// 0. Платеж уже проверен на входе (Payment Gate в хендлере) —
	// стадия существует, чтобы клиент видел полную хронологию.
	if r.PaymentTxHash != "" {
		o.emit(runID, domain.StagePaymentVerified, "payment verified: "+r.PaymentTxHash, nil)
	}

	// 1. Разбор intent'а
	it, err := o.parser.Parse(r.Message)
	if err != nil {
		o.emitError(runID, domain.StageIntentParse, err.Error())
		return
	}
	o.emit(runID, domain.StageIntentParse, "intent parsed: approve "+it.AmountFormatted+" to "+it.Spender, it)

	// 2. Выбор бэкенда (liveness probe с таймаутом, fallback в мок)
	backend := o.selector.Select(ctx)
	o.emit(runID, domain.StageForkChain, "chain backend selected: "+backend.Name(), nil)

	// 3. Симуляция. Сбой live-пути деградирует в мок; сбой самого мока —
	// терминальная ошибка прогона, ретраев нет.
	sim, err := backend.Simulate(ctx, it)
	if err != nil && backend.Name() != "mock" {
		o.logger.Warn("live simulation failed, degrading to mock",
			zap.String("run_id", runID), zap.Error(err))
		sim, err = o.selector.Mock().Simulate(ctx, it)
	}
	if err != nil {
		o.emitError(runID, domain.StageSimulate, "simulation failed: "+err.Error())
		return
	}
	o.emit(runID, domain.StageSimulate, "simulation complete", sim)

	// 4. Извлечение дельты
	d := o.analyzer.Extract(sim, it)
	o.emit(runID, domain.StageExtractDelta, "reality delta extracted", d)

	// 5. Вердикт движка правил
	j := o.engine.Judge(it, d, sim)
	o.emit(runID, domain.StageJudge, "judgment: "+string(j.Judgment), j)

	// 6. Сверка с глобальным режимом политик и финализация
	result := o.reconcile(ctx, runID, it, sim, d, j)

	finalEv := domain.StageEvent{
		Stage:   domain.StageFinal,
		Message: "run complete: " + string(result.Status),
		Payload: result,
	}
	o.registry.SetResult(runID, finalEv)
	o.bus.Publish(runID, finalEv)
	o.bus.Drop(runID)

	o.metrics.RunsTotal.WithLabelValues(string(result.Status)).Inc()
	o.auditor.Log(audit.Record{
		ID:         uuid.New().String(),
		RunID:      runID,
		Action:     "run_final",
		Wallet:     d.Wallet,
		Spender:    it.Spender,
		Amount:     it.Amount,
		Verdict:    string(j.Judgment),
		Status:     string(result.Status),
		Detail:     r.Message,
		DurationMs: time.Since(start).Milliseconds(),
	})
}

// reconcile вычисляет итоговый статус и применяет monitor-mode override.
func (o *Orchestrator) reconcile(
	ctx context.Context,
	runID string,
	it *domain.Intent,
	sim *domain.SimulationResult,
	d *domain.RealityDelta,
	j *domain.Judgment,
) *domain.RunResult {
	// Начальный статус из вердикта
	status := domain.RunDenied
	nextStep := domain.StepBlocked
	switch {
	case j.Judgment == domain.VerdictAllow:
		status = domain.RunAllowed
		nextStep = domain.StepReadyToSign
	case j.OverrideAllowed:
		status = domain.RunPending
		nextStep = domain.StepNeedJustification
	}

	monitorOverride := false
	if !o.mode.IsEnforcing() && (status == domain.RunDenied || status == domain.RunPending) {
		// Monitor-режим: нарушение пропускается, но фиксируется алертом.
		// Judgment мутируется ровно один раз — здесь.
		monitorOverride = true
		status = domain.RunAllowed
		nextStep = domain.StepReadyToSign
		j.MonitorModeOverride = true
		j.Warning = "policy violation allowed by monitor mode"
	}

	// Заблокированная транзакция не должна показывать потраченные средства:
	// абстрактно она не исполнялась.
	if nextStep == domain.StepBlocked {
		d.Delta.BalanceAfter = d.Delta.BalanceBefore
	}

	// Персистентные побочные эффекты. Ошибки здесь не прерывают прогон.
	rep := &domain.SimulationReport{
		ID:        uuid.New().String(),
		RunID:     runID,
		Result:    sim,
		CreatedAt: time.Now(),
	}
	if err := o.store.SaveSimulation(ctx, rep); err != nil {
		o.logger.Error("failed to persist simulation report", zap.String("run_id", runID), zap.Error(err))
	}

	if monitorOverride {
		// Роутинг-развилка: алерт вместо записи в очередь транзакций
		alert := &domain.Alert{
			ID:        uuid.New().String(),
			RunID:     runID,
			Title:     "policy violation allowed in monitor mode",
			Detail:    fmt.Sprintf("approve %s to %s would have been %s", it.AmountFormatted, it.Spender, domain.RunDenied),
			Severity:  domain.SeverityHigh,
			CreatedAt: time.Now(),
		}
		if err := o.store.SaveAlert(ctx, alert); err != nil {
			o.logger.Error("failed to persist alert", zap.String("run_id", runID), zap.Error(err))
		}
	} else {
		tx := &domain.Transaction{
			ID:          uuid.New().String(),
			RunID:       runID,
			Wallet:      d.Wallet,
			TokenSymbol: it.Token.Symbol,
			Spender:     it.Spender,
			Amount:      it.Amount,
			Status:      domain.TransactionStatus(status),
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		if err := o.store.SaveTransaction(ctx, tx); err != nil {
			o.logger.Error("failed to persist transaction", zap.String("run_id", runID), zap.Error(err))
		}

		// Бухгалтерия allowance ведется только для честных ALLOW
		if status == domain.RunAllowed {
			al := &domain.Allowance{
				ID:        uuid.New().String(),
				Wallet:    d.Wallet,
				Token:     it.Token,
				Spender:   it.Spender,
				Amount:    it.Amount,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}
			if err := o.store.UpsertAllowance(ctx, al); err != nil {
				o.logger.Error("failed to upsert allowance", zap.String("run_id", runID), zap.Error(err))
			}
		}
	}

	return &domain.RunResult{
		RunID:        runID,
		Status:       status,
		NextStep:     nextStep,
		Intent:       it,
		Simulation:   sim,
		RealityDelta: d,
		Judgment:     j,
	}
}

// emit фиксирует стадию в реестре и раздает событие подписчикам.
func (o *Orchestrator) emit(runID string, stage domain.Stage, message string, payload interface{}) {
	ev := domain.StageEvent{Stage: stage, Message: message, Payload: payload}
	o.registry.SetStage(runID, ev)
	o.bus.Publish(runID, ev)
}

// emitError — одиночное терминальное событие ошибки, без ретраев.
func (o *Orchestrator) emitError(runID string, failedStage domain.Stage, message string) {
	o.metrics.StageErrors.WithLabelValues(string(failedStage)).Inc()

	ev := domain.StageEvent{
		Stage:   domain.StageError,
		Message: message,
		Payload: map[string]string{"failed_stage": string(failedStage)},
	}
	o.registry.SetResult(runID, ev)
	o.bus.Publish(runID, ev)
	o.bus.Drop(runID)

	o.auditor.Log(audit.Record{
		ID:     uuid.New().String(),
		RunID:  runID,
		Action: "run_error",
		Status: "ERROR",
		Detail: message,
	})
}
