package postgres

import (
	"context"
	"fmt"

	"github.com/xela07ax/txguard-prototype/internal/domain"
)

// UpsertContract регистрирует известный контракт (из дескриптора чейна или вручную).
func (s *Store) UpsertContract(ctx context.Context, c *domain.ContractRef) error {
	query := `
		INSERT INTO contracts (id, name, address, decimals, kind, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (address)
		DO UPDATE SET name = EXCLUDED.name, decimals = EXCLUDED.decimals, kind = EXCLUDED.kind`

	_, err := s.db.ExecContext(ctx, query, c.ID, c.Name, c.Address, c.Decimals, c.Kind, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: failed to upsert contract: %w", err)
	}
	return nil
}

func (s *Store) ListContracts(ctx context.Context) ([]*domain.ContractRef, error) {
	query := `SELECT id, name, address, decimals, kind, created_at FROM contracts ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query contracts: %w", err)
	}
	defer rows.Close()

	results := make([]*domain.ContractRef, 0)
	for rows.Next() {
		c := &domain.ContractRef{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &c.Decimals, &c.Kind, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan contract: %w", err)
		}
		results = append(results, c)
	}
	return results, rows.Err()
}
