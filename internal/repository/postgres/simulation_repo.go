package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/xela07ax/txguard-prototype/internal/domain"
)

// SaveSimulation кладет отчет симуляции целиком как JSONB:
// структура таймлайна нужна только фронтенду, реляционная развертка избыточна.
func (s *Store) SaveSimulation(ctx context.Context, rep *domain.SimulationReport) error {
	payload, err := json.Marshal(rep.Result)
	if err != nil {
		return fmt.Errorf("postgres: marshal simulation: %w", err)
	}

	query := `INSERT INTO simulations (id, run_id, result, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := s.db.ExecContext(ctx, query, rep.ID, rep.RunID, payload, rep.CreatedAt); err != nil {
		return fmt.Errorf("postgres: failed to save simulation: %w", err)
	}
	return nil
}

func (s *Store) GetSimulationByRunID(ctx context.Context, runID string) (*domain.SimulationReport, error) {
	query := `SELECT id, run_id, result, created_at FROM simulations WHERE run_id = $1`

	rep := &domain.SimulationReport{}
	var payload []byte
	err := s.db.QueryRowContext(ctx, query, runID).Scan(&rep.ID, &rep.RunID, &payload, &rep.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(payload, &rep.Result); err != nil {
		return nil, fmt.Errorf("postgres: corrupt simulation payload: %w", err)
	}
	return rep, nil
}

func (s *Store) ListSimulations(ctx context.Context) ([]*domain.SimulationReport, error) {
	query := `SELECT id, run_id, result, created_at FROM simulations ORDER BY created_at DESC LIMIT 100`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query simulations: %w", err)
	}
	defer rows.Close()

	results := make([]*domain.SimulationReport, 0)
	for rows.Next() {
		rep := &domain.SimulationReport{}
		var payload []byte
		if err := rows.Scan(&rep.ID, &rep.RunID, &payload, &rep.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan simulation: %w", err)
		}
		if err := json.Unmarshal(payload, &rep.Result); err != nil {
			return nil, fmt.Errorf("postgres: corrupt simulation payload: %w", err)
		}
		results = append(results, rep)
	}
	return results, rows.Err()
}
