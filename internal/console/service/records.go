package service

import (
	"context"
	"errors"

	"github.com/xela07ax/txguard-prototype/internal/audit"
	"github.com/xela07ax/txguard-prototype/internal/domain"
)

var ErrInvalidStatus = errors.New("service: invalid transaction status")

// RecordsRepository — чтение/правка решенных записей консоли.
// Реализуется и postgres.Store, и memory.Store.
type RecordsRepository interface {
	GetTransactionByID(ctx context.Context, id string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, status string) ([]*domain.Transaction, error)
	UpdateTransactionStatus(ctx context.Context, id string, status domain.TransactionStatus) error
	SetTransactionHash(ctx context.Context, id, hash string) error

	ListAlerts(ctx context.Context, unackedOnly bool) ([]*domain.Alert, error)
	AcknowledgeAlert(ctx context.Context, id string) error

	GetSimulationByRunID(ctx context.Context, runID string) (*domain.SimulationReport, error)
	ListSimulations(ctx context.Context) ([]*domain.SimulationReport, error)

	ListAllowances(ctx context.Context) ([]*domain.Allowance, error)

	UpsertContract(ctx context.Context, c *domain.ContractRef) error
	ListContracts(ctx context.Context) ([]*domain.ContractRef, error)

	FetchLogs(ctx context.Context, runID, action string) ([]audit.Record, error)

	GetDashboard(ctx context.Context) (*domain.UnifiedDashboard, error)
}

// RecordsService — тонкая прослойка над хранилищем для read-плоскости консоли.
// Бизнес-логики тут минимум: валидация статусов и нормализация входа.
type RecordsService struct {
	repo RecordsRepository
}

func NewRecordsService(repo RecordsRepository) *RecordsService {
	return &RecordsService{repo: repo}
}

func (s *RecordsService) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.repo.GetTransactionByID(ctx, id)
}

func (s *RecordsService) ListTransactions(ctx context.Context, status string) ([]*domain.Transaction, error) {
	return s.repo.ListTransactions(ctx, status)
}

// SetTransactionStatus — PATCH статуса оператором (например, PENDING -> ALLOWED
// после justification). Допустимые целевые статусы перечислены явно.
func (s *RecordsService) SetTransactionStatus(ctx context.Context, id string, status domain.TransactionStatus) error {
	switch status {
	case domain.TxAllowed, domain.TxPending, domain.TxDenied:
	default:
		return ErrInvalidStatus
	}
	return s.repo.UpdateTransactionStatus(ctx, id, status)
}

// AttachHash фиксирует он-чейн хэш после подписи клиентом.
func (s *RecordsService) AttachHash(ctx context.Context, id, hash string) error {
	return s.repo.SetTransactionHash(ctx, id, hash)
}

func (s *RecordsService) ListAlerts(ctx context.Context, unackedOnly bool) ([]*domain.Alert, error) {
	return s.repo.ListAlerts(ctx, unackedOnly)
}

func (s *RecordsService) AcknowledgeAlert(ctx context.Context, id string) error {
	return s.repo.AcknowledgeAlert(ctx, id)
}

func (s *RecordsService) GetSimulation(ctx context.Context, runID string) (*domain.SimulationReport, error) {
	return s.repo.GetSimulationByRunID(ctx, runID)
}

func (s *RecordsService) ListSimulations(ctx context.Context) ([]*domain.SimulationReport, error) {
	return s.repo.ListSimulations(ctx)
}

func (s *RecordsService) ListAllowances(ctx context.Context) ([]*domain.Allowance, error) {
	return s.repo.ListAllowances(ctx)
}

func (s *RecordsService) UpsertContract(ctx context.Context, c *domain.ContractRef) error {
	return s.repo.UpsertContract(ctx, c)
}

func (s *RecordsService) ListContracts(ctx context.Context) ([]*domain.ContractRef, error) {
	return s.repo.ListContracts(ctx)
}

func (s *RecordsService) FetchAuditLogs(ctx context.Context, runID, action string) ([]audit.Record, error) {
	return s.repo.FetchLogs(ctx, runID, action)
}

func (s *RecordsService) GetDashboard(ctx context.Context) (*domain.UnifiedDashboard, error) {
	return s.repo.GetDashboard(ctx)
}
