package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/xela07ax/txguard-prototype/internal/domain"
)

// PolicyRepository описывает требования сервиса к хранилищу политик
type PolicyRepository interface {
	GetPolicyByID(ctx context.Context, id string) (*domain.Policy, error)
	GetAllPolicies(ctx context.Context) ([]domain.Policy, error)
	CreatePolicy(ctx context.Context, p *domain.Policy) error
	UpdatePolicy(ctx context.Context, p *domain.Policy) error
	DeletePolicy(ctx context.Context, id string) error
	SetAllPoliciesMode(ctx context.Context, mode domain.PolicyMode) error
}

// ModeNotifier пересчитывает материализованный enforce-бит по свежему
// набору политик и разносит сигнал остальным инстансам (см. EnforceModeManager).
type ModeNotifier interface {
	Recompute(ctx context.Context, policies []domain.Policy)
}

type PolicyService struct {
	repo PolicyRepository
	mode ModeNotifier
}

func NewPolicyService(repo PolicyRepository, mode ModeNotifier) *PolicyService {
	return &PolicyService{
		repo: repo,
		mode: mode,
	}
}

func (s *PolicyService) GetByID(ctx context.Context, id string) (*domain.Policy, error) {
	return s.repo.GetPolicyByID(ctx, id)
}

// GetAll возвращает все политики из БД
func (s *PolicyService) GetAll(ctx context.Context) ([]domain.Policy, error) {
	return s.repo.GetAllPolicies(ctx)
}

// GlobalMode выводит глобальный режим из полного набора (для консоли).
func (s *PolicyService) GlobalMode(ctx context.Context) (domain.PolicyMode, error) {
	policies, err := s.repo.GetAllPolicies(ctx)
	if err != nil {
		return "", err
	}
	if domain.IsEnforcing(policies) {
		return domain.ModeEnforce, nil
	}
	return domain.ModeMonitor, nil
}

// Create сохраняет политику и инициирует пересчет enforce-бита
func (s *PolicyService) Create(ctx context.Context, p *domain.Policy) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.Mode == "" {
		p.Mode = domain.ModeEnforce
	}
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt

	if err := s.repo.CreatePolicy(ctx, p); err != nil {
		return err
	}
	return s.notifyUpdate(ctx)
}

// Update обновляет политику и инициирует пересчет enforce-бита
func (s *PolicyService) Update(ctx context.Context, p *domain.Policy) error {
	if err := s.repo.UpdatePolicy(ctx, p); err != nil {
		return err
	}
	return s.notifyUpdate(ctx)
}

// Delete удаляет политику
func (s *PolicyService) Delete(ctx context.Context, id string) error {
	if err := s.repo.DeletePolicy(ctx, id); err != nil {
		return err
	}
	return s.notifyUpdate(ctx)
}

// SetGlobalMode переводит все политики разом в enforce либо monitor.
func (s *PolicyService) SetGlobalMode(ctx context.Context, mode domain.PolicyMode) error {
	if err := s.repo.SetAllPoliciesMode(ctx, mode); err != nil {
		return err
	}
	return s.notifyUpdate(ctx)
}

// notifyUpdate перечитывает набор политик и передает его менеджеру режима.
// Менеджер обновит свой L1, запишет бит в Redis и опубликует сигнал —
// все консоли, подписанные на канал, подхватят новый режим.
func (s *PolicyService) notifyUpdate(ctx context.Context) error {
	policies, err := s.repo.GetAllPolicies(ctx)
	if err != nil {
		return err
	}
	s.mode.Recompute(ctx, policies)
	return nil
}
