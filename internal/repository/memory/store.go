package memory

/*
Пакет memory — хранилище в памяти с тем же набором методов, что и postgres.Store.
Используется в demo-режиме (без поднятой базы) и в тестах сервисов/оркестратора.
Все коллекции защищены одним RWMutex: контеншн здесь не проблема.
*/

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/xela07ax/txguard-prototype/internal/audit"
	"github.com/xela07ax/txguard-prototype/internal/domain"
)

var ErrNotFound = errors.New("memory: not found")

type Store struct {
	mu           sync.RWMutex
	policies     map[string]domain.Policy
	transactions map[string]*domain.Transaction
	alerts       map[string]*domain.Alert
	simulations  map[string]*domain.SimulationReport // ключ — run_id
	allowances   map[string]*domain.Allowance        // ключ — wallet|token|spender
	contracts    map[string]*domain.ContractRef      // ключ — address
	auditLog     []audit.Record
}

func NewStore() *Store {
	return &Store{
		policies:     make(map[string]domain.Policy),
		transactions: make(map[string]*domain.Transaction),
		alerts:       make(map[string]*domain.Alert),
		simulations:  make(map[string]*domain.SimulationReport),
		allowances:   make(map[string]*domain.Allowance),
		contracts:    make(map[string]*domain.ContractRef),
	}
}

// ---- Policies ----

func (s *Store) GetPolicyByID(_ context.Context, id string) (*domain.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.policies[id]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

func (s *Store) GetAllPolicies(_ context.Context) ([]domain.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]domain.Policy, 0, len(s.policies))
	for _, p := range s.policies {
		results = append(results, p)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return results, nil
}

func (s *Store) CreatePolicy(_ context.Context, p *domain.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[p.ID] = *p
	return nil
}

func (s *Store) UpdatePolicy(_ context.Context, p *domain.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policies[p.ID]; !ok {
		return ErrNotFound
	}
	p.UpdatedAt = time.Now()
	s.policies[p.ID] = *p
	return nil
}

func (s *Store) DeletePolicy(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.policies[id]; !ok {
		return ErrNotFound
	}
	delete(s.policies, id)
	return nil
}

func (s *Store) SetAllPoliciesMode(_ context.Context, mode domain.PolicyMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.policies {
		p.Mode = mode
		p.UpdatedAt = time.Now()
		s.policies[id] = p
	}
	return nil
}

// ---- Transactions ----

func (s *Store) SaveTransaction(_ context.Context, tx *domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *tx
	s.transactions[tx.ID] = &cp
	return nil
}

func (s *Store) GetTransactionByID(_ context.Context, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *tx
	return &cp, nil
}

func (s *Store) ListTransactions(_ context.Context, status string) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]*domain.Transaction, 0)
	for _, tx := range s.transactions {
		if status != "" && string(tx.Status) != status {
			continue
		}
		cp := *tx
		results = append(results, &cp)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return results, nil
}

func (s *Store) UpdateTransactionStatus(_ context.Context, id string, status domain.TransactionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok {
		return ErrNotFound
	}
	tx.Status = status
	tx.UpdatedAt = time.Now()
	return nil
}

func (s *Store) SetTransactionHash(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok {
		return ErrNotFound
	}
	tx.OnchainHash = hash
	tx.Status = domain.TxSigned
	tx.UpdatedAt = time.Now()
	return nil
}

// ---- Alerts ----

func (s *Store) SaveAlert(_ context.Context, a *domain.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.alerts[a.ID] = &cp
	return nil
}

func (s *Store) ListAlerts(_ context.Context, unackedOnly bool) ([]*domain.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]*domain.Alert, 0)
	for _, a := range s.alerts {
		if unackedOnly && a.Acknowledged {
			continue
		}
		cp := *a
		results = append(results, &cp)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return results, nil
}

func (s *Store) AcknowledgeAlert(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.alerts[id]
	if !ok {
		return ErrNotFound
	}
	a.Acknowledged = true
	return nil
}

// ---- Simulations ----

func (s *Store) SaveSimulation(_ context.Context, rep *domain.SimulationReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rep
	s.simulations[rep.RunID] = &cp
	return nil
}

func (s *Store) GetSimulationByRunID(_ context.Context, runID string) (*domain.SimulationReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rep, ok := s.simulations[runID]
	if !ok {
		return nil, nil
	}
	cp := *rep
	return &cp, nil
}

func (s *Store) ListSimulations(_ context.Context) ([]*domain.SimulationReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]*domain.SimulationReport, 0, len(s.simulations))
	for _, rep := range s.simulations {
		cp := *rep
		results = append(results, &cp)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return results, nil
}

// ---- Allowances ----

func allowanceKey(wallet, token, spender string) string {
	return wallet + "|" + token + "|" + spender
}

func (s *Store) UpsertAllowance(_ context.Context, al *domain.Allowance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := allowanceKey(al.Wallet, al.Token.Address, al.Spender)
	if prev, ok := s.allowances[key]; ok {
		prev.Amount = al.Amount
		prev.UpdatedAt = al.UpdatedAt
		return nil
	}
	cp := *al
	s.allowances[key] = &cp
	return nil
}

func (s *Store) ListAllowances(_ context.Context) ([]*domain.Allowance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]*domain.Allowance, 0, len(s.allowances))
	for _, al := range s.allowances {
		cp := *al
		results = append(results, &cp)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].UpdatedAt.After(results[j].UpdatedAt)
	})
	return results, nil
}

// ---- Contracts ----

func (s *Store) UpsertContract(_ context.Context, c *domain.ContractRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.contracts[c.Address] = &cp
	return nil
}

func (s *Store) ListContracts(_ context.Context) ([]*domain.ContractRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]*domain.ContractRef, 0, len(s.contracts))
	for _, c := range s.contracts {
		cp := *c
		results = append(results, &cp)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return results, nil
}

// ---- Audit ----

func (s *Store) WriteBatch(_ context.Context, records []audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditLog = append(s.auditLog, records...)
	return nil
}

func (s *Store) FetchLogs(_ context.Context, runID, action string) ([]audit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]audit.Record, 0)
	for _, rec := range s.auditLog {
		if runID != "" && rec.RunID != runID {
			continue
		}
		if action != "" && rec.Action != action {
			continue
		}
		results = append(results, rec)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Timestamp.After(results[j].Timestamp)
	})
	return results, nil
}

// ---- Dashboard ----

func (s *Store) GetDashboard(_ context.Context) (*domain.UnifiedDashboard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := &domain.UnifiedDashboard{}
	for _, rec := range s.auditLog {
		switch rec.Action {
		case "run_final":
			d.Activity.TotalRuns++
		case "run_error":
			d.Incidents.FailedRuns++
		}
	}
	d.Activity.TotalTransactions = int64(len(s.transactions))
	d.Activity.ActiveAllowances = int64(len(s.allowances))
	for _, tx := range s.transactions {
		switch tx.Status {
		case domain.TxPending:
			d.Risks.PendingTransactions++
		case domain.TxDenied:
			d.Incidents.BlockedTransactions++
		}
	}
	for _, a := range s.alerts {
		if !a.Acknowledged {
			d.Risks.OpenAlerts++
		}
	}
	return d, nil
}

// Ping и Close — для совместимости с postgres.Store в точке сборки.
func (s *Store) Ping(_ context.Context) error { return nil }
func (s *Store) Close() error                 { return nil }
