package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xela07ax/txguard-prototype/internal/domain"
)

func (s *Store) SaveTransaction(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (id, run_id, wallet, token_symbol, spender, amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := s.db.ExecContext(ctx, query,
		tx.ID, tx.RunID, tx.Wallet, tx.TokenSymbol, tx.Spender, tx.Amount, tx.Status, tx.CreatedAt, tx.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: failed to save transaction: %w", err)
	}
	return nil
}

func (s *Store) GetTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `
		SELECT id, run_id, wallet, token_symbol, spender, amount, status, COALESCE(onchain_hash, ''), created_at, updated_at
		FROM transactions WHERE id = $1`

	tx := &domain.Transaction{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&tx.ID, &tx.RunID, &tx.Wallet, &tx.TokenSymbol, &tx.Spender,
		&tx.Amount, &tx.Status, &tx.OnchainHash, &tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return tx, nil
}

// ListTransactions — выдача в консоль, свежие сверху.
func (s *Store) ListTransactions(ctx context.Context, status string) ([]*domain.Transaction, error) {
	query := `
		SELECT id, run_id, wallet, token_symbol, spender, amount, status, COALESCE(onchain_hash, ''), created_at, updated_at
		FROM transactions`

	var args []interface{}
	if status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC LIMIT 100"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query transactions: %w", err)
	}
	defer rows.Close()

	// Пустой слайс, чтобы в JSON был [] вместо null
	results := make([]*domain.Transaction, 0)
	for rows.Next() {
		tx := &domain.Transaction{}
		if err := rows.Scan(&tx.ID, &tx.RunID, &tx.Wallet, &tx.TokenSymbol, &tx.Spender,
			&tx.Amount, &tx.Status, &tx.OnchainHash, &tx.CreatedAt, &tx.UpdatedAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan transaction: %w", err)
		}
		results = append(results, tx)
	}
	return results, rows.Err()
}

// UpdateTransactionStatus — PATCH статуса (например, после justification).
func (s *Store) UpdateTransactionStatus(ctx context.Context, id string, status domain.TransactionStatus) error {
	ct, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to update transaction status: %w", err)
	}
	rows, _ := ct.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("postgres: transaction not found")
	}
	return nil
}

// SetTransactionHash фиксирует он-чейн хэш после подписи клиентом.
func (s *Store) SetTransactionHash(ctx context.Context, id, hash string) error {
	ct, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET onchain_hash = $1, status = $2, updated_at = NOW() WHERE id = $3`,
		hash, domain.TxSigned, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to set transaction hash: %w", err)
	}
	rows, _ := ct.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("postgres: transaction not found")
	}
	return nil
}
