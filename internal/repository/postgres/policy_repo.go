package postgres

/*
Файл policy_repo.go отвечает за хранение правил безопасности (Policies).
Глобальный режим enforce из таблицы не читается напрямую в hot path —
его материализует EnforceModeManager при каждой мутации.
*/

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xela07ax/txguard-prototype/internal/domain"
)

func (s *Store) GetPolicyByID(ctx context.Context, id string) (*domain.Policy, error) {
	query := `
		SELECT id, name, description, enabled, mode, rule_type, severity, created_at, updated_at
		FROM policies
		WHERE id = $1`

	p := &domain.Policy{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.Enabled, &p.Mode,
		&p.RuleType, &p.Severity, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // nil для 404 в хендлере
		}
		return nil, err
	}
	return p, nil
}

// GetAllPolicies — холодная загрузка всего набора (для вычисления режима и списка в консоли).
func (s *Store) GetAllPolicies(ctx context.Context) ([]domain.Policy, error) {
	query := `
		SELECT id, name, description, enabled, mode, rule_type, severity, created_at, updated_at
		FROM policies
		ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.Policy, 0)
	for rows.Next() {
		var p domain.Policy
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Enabled, &p.Mode,
			&p.RuleType, &p.Severity, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

func (s *Store) CreatePolicy(ctx context.Context, p *domain.Policy) error {
	query := `
		INSERT INTO policies (id, name, description, enabled, mode, rule_type, severity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query, p.ID, p.Name, p.Description, p.Enabled, p.Mode, p.RuleType, p.Severity)
	if err != nil {
		return fmt.Errorf("postgres: failed to create policy: %w", err)
	}
	return nil
}

func (s *Store) UpdatePolicy(ctx context.Context, p *domain.Policy) error {
	query := `
		UPDATE policies
		SET name = $1, description = $2, enabled = $3, mode = $4, rule_type = $5, severity = $6, updated_at = NOW()
		WHERE id = $7`

	ct, err := s.db.ExecContext(ctx, query, p.Name, p.Description, p.Enabled, p.Mode, p.RuleType, p.Severity, p.ID)
	if err != nil {
		return fmt.Errorf("postgres: failed to update policy: %w", err)
	}
	rows, _ := ct.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("postgres: policy not found")
	}
	return nil
}

func (s *Store) DeletePolicy(ctx context.Context, id string) error {
	ct, err := s.db.ExecContext(ctx, `DELETE FROM policies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to delete policy: %w", err)
	}
	rows, _ := ct.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("postgres: policy not found")
	}
	return nil
}

// SetAllPoliciesMode — bulk-операция "set global mode": переводит все политики разом.
func (s *Store) SetAllPoliciesMode(ctx context.Context, mode domain.PolicyMode) error {
	_, err := s.db.ExecContext(ctx, `UPDATE policies SET mode = $1, updated_at = NOW()`, mode)
	if err != nil {
		return fmt.Errorf("postgres: failed to set policies mode: %w", err)
	}
	return nil
}
