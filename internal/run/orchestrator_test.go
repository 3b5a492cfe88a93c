package run

import (
	"context"
	"testing"
	"time"

	"github.com/xela07ax/txguard-prototype/internal/audit"
	"github.com/xela07ax/txguard-prototype/internal/chain"
	"github.com/xela07ax/txguard-prototype/internal/delta"
	"github.com/xela07ax/txguard-prototype/internal/domain"
	"github.com/xela07ax/txguard-prototype/internal/intent"
	"github.com/xela07ax/txguard-prototype/internal/judge"
	"github.com/xela07ax/txguard-prototype/internal/repository/memory"
	"go.uber.org/zap"
)

const (
	testWallet       = "0x3333333333333333333333333333333333333333"
	safeSpender      = "0x1111111111111111111111111111111111111111"
	maliciousSpender = "0x2222222222222222222222222222222222222222"
)

// stubSelector всегда отдает моковый бэкенд: сеть в тестах не нужна.
type stubSelector struct {
	backend chain.Backend
}

func (s stubSelector) Select(context.Context) chain.Backend { return s.backend }
func (s stubSelector) Mock() chain.Backend                  { return s.backend }

type stubMode struct {
	enforcing bool
}

func (m stubMode) IsEnforcing() bool { return m.enforcing }

type recordingAuditor struct {
	records []audit.Record
}

func (a *recordingAuditor) Log(rec audit.Record) {
	a.records = append(a.records, rec)
}

type fixture struct {
	orch    *Orchestrator
	store   *memory.Store
	auditor *recordingAuditor
}

func newFixture(t *testing.T, enforcing bool) *fixture {
	t.Helper()

	token := domain.TokenRef{Symbol: "USDT", Address: "0x9999999999999999999999999999999999999999"}
	logger := zap.NewNop()

	mock := chain.NewMockBackend(token, testWallet, "1000000000", []string{maliciousSpender}, logger)
	parser := intent.NewParser(token, 6)
	analyzer := delta.NewAnalyzer(testWallet, token, 6, maliciousSpender, 0.20)
	engine := judge.NewEngine(maliciousSpender, 6, judge.Thresholds{
		AutoApproveLimit:   500,
		HardDenyLimit:      800,
		LargeApprovalRatio: 0.20,
	})

	store := memory.NewStore()
	auditor := &recordingAuditor{}

	orch := NewOrchestrator(
		parser,
		stubSelector{backend: mock},
		analyzer,
		engine,
		stubMode{enforcing: enforcing},
		store,
		auditor,
		NewRegistry(time.Minute),
		NewBus(),
		NewMetrics(nil),
		logger,
	)
	return &fixture{orch: orch, store: store, auditor: auditor}
}

// runSync кладет прогон в реестр и исполняет пайплайн в текущей горутине.
func (f *fixture) runSync(message string) *domain.Run {
	r := &domain.Run{ID: "run-1", Message: message, CreatedAt: time.Now()}
	f.orch.registry.Put(r)
	f.orch.ProcessRun(r.ID)

	got, _ := f.orch.registry.Get(r.ID)
	return got
}

func finalResult(t *testing.T, rn *domain.Run) *domain.RunResult {
	t.Helper()
	if rn == nil || rn.Result == nil {
		t.Fatal("run did not reach a terminal state")
	}
	res, ok := rn.Result.Payload.(*domain.RunResult)
	if !ok {
		t.Fatalf("terminal payload is not a RunResult: %+v", rn.Result)
	}
	return res
}

func TestRunHappyPathAllowed(t *testing.T) {
	f := newFixture(t, true)

	rn := f.runSync("approve 100 USDT to " + safeSpender)
	res := finalResult(t, rn)

	if res.Status != domain.RunAllowed || res.NextStep != domain.StepReadyToSign {
		t.Fatalf("expected ALLOWED/READY_TO_SIGN, got %s/%s", res.Status, res.NextStep)
	}
	if res.Judgment.MonitorModeOverride {
		t.Fatal("enforce mode must not set the monitor override")
	}

	ctx := context.Background()
	txs, _ := f.store.ListTransactions(ctx, "")
	if len(txs) != 1 || txs[0].Status != domain.TxAllowed {
		t.Fatalf("expected one ALLOWED transaction, got %+v", txs)
	}
	allowances, _ := f.store.ListAllowances(ctx)
	if len(allowances) != 1 || allowances[0].Spender != safeSpender {
		t.Fatalf("allowance bookkeeping missing: %+v", allowances)
	}
	if rep, _ := f.store.GetSimulationByRunID(ctx, "run-1"); rep == nil {
		t.Fatal("simulation report must be persisted")
	}
}

func TestRunUnlimitedMaliciousBlocked(t *testing.T) {
	f := newFixture(t, true)

	rn := f.runSync("approve unlimited USDT to " + maliciousSpender)
	res := finalResult(t, rn)

	if res.Status != domain.RunDenied || res.NextStep != domain.StepBlocked {
		t.Fatalf("expected DENIED/BLOCKED, got %s/%s", res.Status, res.NextStep)
	}
	if res.Judgment.OverrideAllowed {
		t.Fatal("hard deny must not offer an override")
	}

	// Заблокированная транзакция не исполнялась: баланс визуально не тронут
	if res.RealityDelta.Delta.BalanceAfter != res.RealityDelta.Delta.BalanceBefore {
		t.Fatalf("blocked run must reset balance_after: %+v", res.RealityDelta.Delta)
	}

	ctx := context.Background()
	txs, _ := f.store.ListTransactions(ctx, "")
	if len(txs) != 1 || txs[0].Status != domain.TxDenied {
		t.Fatalf("expected one DENIED transaction, got %+v", txs)
	}
	if allowances, _ := f.store.ListAllowances(ctx); len(allowances) != 0 {
		t.Fatalf("denied run must not record an allowance: %+v", allowances)
	}
}

func TestRunReviewBandPending(t *testing.T) {
	f := newFixture(t, true)

	rn := f.runSync("approve 600 USDT to " + safeSpender)
	res := finalResult(t, rn)

	if res.Status != domain.RunPending || res.NextStep != domain.StepNeedJustification {
		t.Fatalf("expected PENDING/NEED_JUSTIFICATION, got %s/%s", res.Status, res.NextStep)
	}

	txs, _ := f.store.ListTransactions(context.Background(), "")
	if len(txs) != 1 || txs[0].Status != domain.TxPending {
		t.Fatalf("expected one PENDING transaction, got %+v", txs)
	}
}

func TestRunMonitorModeOverride(t *testing.T) {
	f := newFixture(t, false) // monitor

	rn := f.runSync("approve 600 USDT to " + safeSpender)
	res := finalResult(t, rn)

	if res.Status != domain.RunAllowed || res.NextStep != domain.StepReadyToSign {
		t.Fatalf("monitor mode must let the violation through, got %s/%s", res.Status, res.NextStep)
	}
	if !res.Judgment.MonitorModeOverride || res.Judgment.Warning == "" {
		t.Fatalf("override must be visible in the judgment: %+v", res.Judgment)
	}

	// Роутинг: алерт вместо записи в очередь транзакций
	ctx := context.Background()
	alerts, _ := f.store.ListAlerts(ctx, false)
	if len(alerts) != 1 {
		t.Fatalf("expected one alert, got %d", len(alerts))
	}
	if txs, _ := f.store.ListTransactions(ctx, ""); len(txs) != 0 {
		t.Fatalf("monitor override must not enqueue a transaction: %+v", txs)
	}
	if allowances, _ := f.store.ListAllowances(ctx); len(allowances) != 0 {
		t.Fatal("monitor override must not record an allowance")
	}
}

func TestRunStageOrder(t *testing.T) {
	f := newFixture(t, true)

	r := &domain.Run{ID: "run-1", Message: "approve 100 USDT to " + safeSpender, CreatedAt: time.Now()}
	f.orch.registry.Put(r)

	var stages []domain.Stage
	f.orch.bus.Subscribe(r.ID, func(ev domain.StageEvent) {
		stages = append(stages, ev.Stage)
	})

	f.orch.ProcessRun(r.ID)

	want := []domain.Stage{
		domain.StageIntentParse,
		domain.StageForkChain,
		domain.StageSimulate,
		domain.StageExtractDelta,
		domain.StageJudge,
		domain.StageFinal,
	}
	if len(stages) != len(want) {
		t.Fatalf("expected %d stage events, got %v", len(want), stages)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Fatalf("stage %d: expected %s, got %s", i, want[i], stages[i])
		}
	}
}

// Прогон с платежом показывает стадию верификации первой.
func TestRunPaymentStageEmitted(t *testing.T) {
	f := newFixture(t, true)

	r := &domain.Run{ID: "run-1", Message: "approve 100 USDT to " + safeSpender, PaymentTxHash: "0xfee", CreatedAt: time.Now()}
	f.orch.registry.Put(r)

	var first domain.Stage
	f.orch.bus.Subscribe(r.ID, func(ev domain.StageEvent) {
		if first == "" {
			first = ev.Stage
		}
	})
	f.orch.ProcessRun(r.ID)

	if first != domain.StagePaymentVerified {
		t.Fatalf("expected payment_verified first, got %s", first)
	}
}

func TestRunParseFailureIsTerminal(t *testing.T) {
	f := newFixture(t, true)

	rn := f.runSync("what is the weather today")
	if rn.Result == nil || rn.Result.Stage != domain.StageError {
		t.Fatalf("expected terminal error event, got %+v", rn.Result)
	}

	if len(f.auditor.records) != 1 || f.auditor.records[0].Action != "run_error" {
		t.Fatalf("error must be audited: %+v", f.auditor.records)
	}

	// Побочных эффектов у упавшего прогона нет
	if txs, _ := f.store.ListTransactions(context.Background(), ""); len(txs) != 0 {
		t.Fatal("failed run must not persist a transaction")
	}
}

func TestRunFinalIsAudited(t *testing.T) {
	f := newFixture(t, true)

	f.runSync("approve 100 USDT to " + safeSpender)

	if len(f.auditor.records) != 1 {
		t.Fatalf("expected one audit record, got %d", len(f.auditor.records))
	}
	rec := f.auditor.records[0]
	if rec.Action != "run_final" || rec.Verdict != string(domain.VerdictAllow) {
		t.Fatalf("unexpected audit record: %+v", rec)
	}
}

func TestStartRunIsAsync(t *testing.T) {
	f := newFixture(t, true)

	id := f.orch.StartRun("approve 100 USDT to "+safeSpender, "")
	if id == "" {
		t.Fatal("StartRun must return a run id immediately")
	}

	deadline := time.After(3 * time.Second)
	for {
		rn, ok := f.orch.Registry().Get(id)
		if ok && rn.Result != nil {
			return
		}
		select {
		case <-deadline:
			t.Fatal("async run did not finish")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
