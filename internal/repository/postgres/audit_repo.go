package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/xela07ax/txguard-prototype/internal/audit"
)

// WriteBatch — пакетная вставка записей аудита (вызывается воркером Trail).
func (s *Store) WriteBatch(ctx context.Context, records []audit.Record) error {
	if len(records) == 0 {
		return nil
	}

	// Количество колонок в таблице audit_logs
	numFields := 13
	placeholderStr := ""
	vals := make([]interface{}, 0, len(records)*numFields)

	// Динамически строим запрос для пакетной вставки
	for i, rec := range records {
		p := i * numFields
		placeholderStr += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d),",
			p+1, p+2, p+3, p+4, p+5, p+6, p+7, p+8, p+9, p+10, p+11, p+12, p+13)

		vals = append(vals,
			rec.ID, rec.TraceID, rec.RunID, rec.Actor, rec.Action,
			rec.Wallet, rec.Spender, rec.Amount, rec.Verdict, rec.Status,
			rec.Detail, rec.Timestamp, rec.DurationMs,
		)
	}

	query := fmt.Sprintf(
		"INSERT INTO audit_logs (id, trace_id, run_id, actor, action, wallet, spender, amount, verdict, status, detail, timestamp, duration_ms) VALUES %s",
		strings.TrimSuffix(placeholderStr, ","),
	)

	_, err := s.db.ExecContext(ctx, query, vals...)
	return err
}

// FetchLogs — выборка для консоли с опциональной фильтрацией по прогону/действию.
func (s *Store) FetchLogs(ctx context.Context, runID, action string) ([]audit.Record, error) {
	query := `
		SELECT id, trace_id, run_id, actor, action, wallet, spender, amount, verdict, status, detail, timestamp, duration_ms
		FROM audit_logs`

	var conds []string
	var args []interface{}
	if runID != "" {
		args = append(args, runID)
		conds = append(conds, fmt.Sprintf("run_id = $%d", len(args)))
	}
	if action != "" {
		args = append(args, action)
		conds = append(conds, fmt.Sprintf("action = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY timestamp DESC LIMIT 200"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query audit logs: %w", err)
	}
	defer rows.Close()

	results := make([]audit.Record, 0)
	for rows.Next() {
		var rec audit.Record
		if err := rows.Scan(&rec.ID, &rec.TraceID, &rec.RunID, &rec.Actor, &rec.Action,
			&rec.Wallet, &rec.Spender, &rec.Amount, &rec.Verdict, &rec.Status,
			&rec.Detail, &rec.Timestamp, &rec.DurationMs); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan audit record: %w", err)
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}
