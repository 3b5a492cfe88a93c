package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/txguard-prototype/internal/audit"
	"github.com/xela07ax/txguard-prototype/internal/domain"
)

func TestTransactionLifecycle(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	tx := &domain.Transaction{
		ID: "tx-1", RunID: "run-1", Wallet: "0xw", TokenSymbol: "USDT",
		Spender: "0xs", Amount: "100000000", Status: domain.TxPending,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(t, s.SaveTransaction(ctx, tx))

	got, err := s.GetTransactionByID(ctx, "tx-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.TxPending, got.Status)

	require.NoError(t, s.UpdateTransactionStatus(ctx, "tx-1", domain.TxAllowed))
	require.NoError(t, s.SetTransactionHash(ctx, "tx-1", "0xhash"))

	got, _ = s.GetTransactionByID(ctx, "tx-1")
	assert.Equal(t, domain.TxSigned, got.Status)
	assert.Equal(t, "0xhash", got.OnchainHash)

	missing, err := s.GetTransactionByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing) // nil-для-404, как у postgres-реализации
}

func TestTransactionStatusFilter(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	s.SaveTransaction(ctx, &domain.Transaction{ID: "a", Status: domain.TxAllowed})
	s.SaveTransaction(ctx, &domain.Transaction{ID: "b", Status: domain.TxDenied})

	denied, err := s.ListTransactions(ctx, "DENIED")
	require.NoError(t, err)
	require.Len(t, denied, 1)
	assert.Equal(t, "b", denied[0].ID)

	all, _ := s.ListTransactions(ctx, "")
	assert.Len(t, all, 2)
}

func TestAllowanceUpsertDeduplicates(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	token := domain.TokenRef{Symbol: "USDT", Address: "0xt"}

	first := &domain.Allowance{ID: "al-1", Wallet: "0xw", Token: token, Spender: "0xs", Amount: "100"}
	second := &domain.Allowance{ID: "al-2", Wallet: "0xw", Token: token, Spender: "0xs", Amount: "500"}

	require.NoError(t, s.UpsertAllowance(ctx, first))
	require.NoError(t, s.UpsertAllowance(ctx, second))

	allowances, err := s.ListAllowances(ctx)
	require.NoError(t, err)
	require.Len(t, allowances, 1, "same (wallet, token, spender) must collapse into one row")
	assert.Equal(t, "500", allowances[0].Amount)
}

func TestAlertAcknowledge(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	s.SaveAlert(ctx, &domain.Alert{ID: "al-1", Title: "drain"})
	s.SaveAlert(ctx, &domain.Alert{ID: "al-2", Title: "large"})

	require.NoError(t, s.AcknowledgeAlert(ctx, "al-1"))

	unacked, err := s.ListAlerts(ctx, true)
	require.NoError(t, err)
	require.Len(t, unacked, 1)
	assert.Equal(t, "al-2", unacked[0].ID)

	assert.Error(t, s.AcknowledgeAlert(ctx, "missing"))
}

func TestAuditFilters(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	require.NoError(t, s.WriteBatch(ctx, []audit.Record{
		{ID: "1", RunID: "run-1", Action: "run_final", Timestamp: time.Now()},
		{ID: "2", RunID: "run-2", Action: "run_error", Timestamp: time.Now()},
		{ID: "3", RunID: "run-1", Action: "run_error", Timestamp: time.Now()},
	}))

	byRun, err := s.FetchLogs(ctx, "run-1", "")
	require.NoError(t, err)
	assert.Len(t, byRun, 2)

	byBoth, _ := s.FetchLogs(ctx, "run-1", "run_error")
	require.Len(t, byBoth, 1)
	assert.Equal(t, "3", byBoth[0].ID)
}

func TestDashboardAggregates(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	s.SaveTransaction(ctx, &domain.Transaction{ID: "a", Status: domain.TxPending})
	s.SaveTransaction(ctx, &domain.Transaction{ID: "b", Status: domain.TxDenied})
	s.SaveAlert(ctx, &domain.Alert{ID: "al-1"})
	s.UpsertAllowance(ctx, &domain.Allowance{ID: "x", Wallet: "0xw", Spender: "0xs"})
	s.WriteBatch(ctx, []audit.Record{
		{ID: "1", Action: "run_final"},
		{ID: "2", Action: "run_error"},
	})

	d, err := s.GetDashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), d.Activity.TotalRuns)
	assert.Equal(t, int64(2), d.Activity.TotalTransactions)
	assert.Equal(t, int64(1), d.Activity.ActiveAllowances)
	assert.Equal(t, int64(1), d.Risks.PendingTransactions)
	assert.Equal(t, int64(1), d.Risks.OpenAlerts)
	assert.Equal(t, int64(1), d.Incidents.BlockedTransactions)
	assert.Equal(t, int64(1), d.Incidents.FailedRuns)
}
