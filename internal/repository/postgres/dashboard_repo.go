package postgres

import (
	"context"
	"fmt"

	"github.com/xela07ax/txguard-prototype/internal/domain"
)

// GetDashboard собирает агрегат для главного экрана одним проходом по счетчикам.
func (s *Store) GetDashboard(ctx context.Context) (*domain.UnifiedDashboard, error) {
	d := &domain.UnifiedDashboard{}

	query := `
		SELECT
			(SELECT COUNT(*) FROM audit_logs WHERE action = 'run_final'),
			(SELECT COUNT(*) FROM transactions),
			(SELECT COUNT(*) FROM allowances),
			(SELECT COUNT(*) FROM transactions WHERE status = 'PENDING'),
			(SELECT COUNT(*) FROM alerts WHERE acknowledged = FALSE),
			(SELECT COUNT(*) FROM transactions WHERE status = 'DENIED'),
			(SELECT COUNT(*) FROM audit_logs WHERE action = 'run_error')`

	err := s.db.QueryRowContext(ctx, query).Scan(
		&d.Activity.TotalRuns,
		&d.Activity.TotalTransactions,
		&d.Activity.ActiveAllowances,
		&d.Risks.PendingTransactions,
		&d.Risks.OpenAlerts,
		&d.Incidents.BlockedTransactions,
		&d.Incidents.FailedRuns,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to build dashboard: %w", err)
	}
	return d, nil
}
