package postgres

import (
	"context"
	"fmt"

	"github.com/xela07ax/txguard-prototype/internal/domain"
)

// UpsertAllowance держит одну актуальную строку на (wallet, token, spender):
// повторный аппрув тому же спендеру перезаписывает сумму, а не плодит записи.
func (s *Store) UpsertAllowance(ctx context.Context, al *domain.Allowance) error {
	query := `
		INSERT INTO allowances (id, wallet, token_symbol, token_address, spender, amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (wallet, token_address, spender)
		DO UPDATE SET amount = EXCLUDED.amount, updated_at = EXCLUDED.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		al.ID, al.Wallet, al.Token.Symbol, al.Token.Address, al.Spender, al.Amount, al.CreatedAt, al.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: failed to upsert allowance: %w", err)
	}
	return nil
}

func (s *Store) ListAllowances(ctx context.Context) ([]*domain.Allowance, error) {
	query := `
		SELECT id, wallet, token_symbol, token_address, spender, amount, created_at, updated_at
		FROM allowances ORDER BY updated_at DESC LIMIT 100`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query allowances: %w", err)
	}
	defer rows.Close()

	results := make([]*domain.Allowance, 0)
	for rows.Next() {
		al := &domain.Allowance{}
		if err := rows.Scan(&al.ID, &al.Wallet, &al.Token.Symbol, &al.Token.Address,
			&al.Spender, &al.Amount, &al.CreatedAt, &al.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan allowance: %w", err)
		}
		results = append(results, al)
	}
	return results, rows.Err()
}
