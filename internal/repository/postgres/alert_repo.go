package postgres

import (
	"context"
	"fmt"

	"github.com/xela07ax/txguard-prototype/internal/domain"
)

func (s *Store) SaveAlert(ctx context.Context, a *domain.Alert) error {
	query := `
		INSERT INTO alerts (id, run_id, title, detail, severity, acknowledged, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.RunID, a.Title, a.Detail, a.Severity, a.Acknowledged, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: failed to save alert: %w", err)
	}
	return nil
}

func (s *Store) ListAlerts(ctx context.Context, unackedOnly bool) ([]*domain.Alert, error) {
	query := `
		SELECT id, run_id, title, detail, severity, acknowledged, created_at
		FROM alerts`
	if unackedOnly {
		query += " WHERE acknowledged = FALSE"
	}
	query += " ORDER BY created_at DESC LIMIT 100"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query alerts: %w", err)
	}
	defer rows.Close()

	results := make([]*domain.Alert, 0)
	for rows.Next() {
		a := &domain.Alert{}
		if err := rows.Scan(&a.ID, &a.RunID, &a.Title, &a.Detail, &a.Severity, &a.Acknowledged, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan alert: %w", err)
		}
		results = append(results, a)
	}
	return results, rows.Err()
}

// AcknowledgeAlert помечает алерт обработанным оператором.
func (s *Store) AcknowledgeAlert(ctx context.Context, id string) error {
	ct, err := s.db.ExecContext(ctx, `UPDATE alerts SET acknowledged = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to acknowledge alert: %w", err)
	}
	rows, _ := ct.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("postgres: alert not found")
	}
	return nil
}
