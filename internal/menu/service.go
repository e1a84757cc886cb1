// Package menu implements the typed menu operations shared by the public and
// admin APIs.
package menu

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gosuda/menuboard/internal/domain"
	"github.com/gosuda/menuboard/internal/metrics"
)

// Recorder captures a before/after pair for each mutation.
type Recorder interface {
	Record(ctx context.Context, actor *domain.Identity, action domain.AuditAction, before, after *domain.MenuItem)
}

type Service struct {
	repo            domain.MenuRepository
	recorder        Recorder
	metrics         *metrics.Metrics
	bestSellerLimit int
}

// NewService returns a Service. A bestSellerLimit of 0 leaves the best-seller
// list uncapped.
func NewService(repo domain.MenuRepository, recorder Recorder, m *metrics.Metrics, bestSellerLimit int) *Service {
	return &Service{
		repo:            repo,
		recorder:        recorder,
		metrics:         m,
		bestSellerLimit: bestSellerLimit,
	}
}

func (s *Service) ListActive(ctx context.Context) ([]*domain.MenuItem, error) {
	items, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("menu.ListActive: %w", err)
	}
	return items, nil
}

func (s *Service) ListBestSellers(ctx context.Context) ([]*domain.MenuItem, error) {
	items, err := s.repo.ListBestSellers(ctx, s.bestSellerLimit)
	if err != nil {
		return nil, fmt.Errorf("menu.ListBestSellers: %w", err)
	}
	return items, nil
}

func (s *Service) ListAll(ctx context.Context) ([]*domain.MenuItem, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("menu.ListAll: %w", err)
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.MenuItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("menu.Get: %w", err)
	}
	return item, nil
}

func (s *Service) Create(ctx context.Context, actor *domain.Identity, fields domain.MenuItemFields) (*domain.MenuItem, error) {
	item, err := domain.NewMenuItem(fields)
	if err != nil {
		return nil, fmt.Errorf("menu.Create: %w", err)
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("menu.Create: %w", err)
	}

	s.recorder.Record(ctx, actor, domain.AuditActionCreate, nil, item)
	s.metrics.MenuMutation(string(domain.AuditActionCreate))
	return item, nil
}

// Update reads the current row, applies patch and writes the result. The read
// and the write are separate statements, so a concurrent writer between them
// is overwritten and the audit "before" reflects the earlier read.
func (s *Service) Update(ctx context.Context, actor *domain.Identity, id uuid.UUID, patch domain.MenuItemPatch) (*domain.MenuItem, error) {
	before, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("menu.Update: %w", err)
	}

	after := before.Apply(patch)
	if err := after.Validate(); err != nil {
		return nil, fmt.Errorf("menu.Update: %w", err)
	}

	if err := s.repo.Update(ctx, after); err != nil {
		return nil, fmt.Errorf("menu.Update: %w", err)
	}

	s.recorder.Record(ctx, actor, domain.AuditActionUpdate, before, after)
	s.metrics.MenuMutation(string(domain.AuditActionUpdate))
	return after, nil
}

func (s *Service) Delete(ctx context.Context, actor *domain.Identity, id uuid.UUID) error {
	before, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("menu.Delete: %w", err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("menu.Delete: %w", err)
	}

	s.recorder.Record(ctx, actor, domain.AuditActionDelete, before, nil)
	s.metrics.MenuMutation(string(domain.AuditActionDelete))
	return nil
}
