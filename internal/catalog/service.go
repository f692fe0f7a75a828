package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/entreprenapp/backoffice/internal/apperr"
	"github.com/entreprenapp/backoffice/internal/audit"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=catalog
type Repository interface {
	CreateItems(ctx context.Context, items []*Item) error
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
	ListItems(ctx context.Context, filter ListFilter) ([]*Item, error)
	UpdateItem(ctx context.Context, item *Item) error
	SetItemActive(ctx context.Context, item *Item) error
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

type CreateParams struct {
	Label         string
	Description   string
	PriceDutyFree decimal.Decimal
	TaxRate       decimal.Decimal
}

type ListFilter struct {
	Search          string
	IncludeInactive bool
}

func (s *Service) Create(ctx context.Context, who audit.Identity, params CreateParams) (*Item, error) {
	items, err := s.CreateBatch(ctx, who, []CreateParams{params})
	if err != nil {
		return nil, err
	}

	return items[0], nil
}

// CreateBatch validates every row before writing any of them; the store
// inserts them in one transaction.
func (s *Service) CreateBatch(ctx context.Context, who audit.Identity, params []CreateParams) ([]*Item, error) {
	if len(params) == 0 {
		return nil, apperr.Invalid("items", "at least one item is required")
	}

	now := s.now()
	items := make([]*Item, len(params))

	for i, p := range params {
		item := &Item{
			Label:         strings.TrimSpace(p.Label),
			Description:   p.Description,
			PriceDutyFree: p.PriceDutyFree,
			TaxRate:       p.TaxRate,
			Record:        audit.New(who, now),
		}
		if err := item.Validate(); err != nil {
			if len(params) > 1 {
				return nil, fmt.Errorf("item %d: %w", i+1, err)
			}

			return nil, err
		}

		items[i] = item
	}

	if err := s.repo.CreateItems(ctx, items); err != nil {
		return nil, err
	}

	return items, nil
}

func (s *Service) Get(ctx context.Context, who audit.Identity, id uuid.UUID) (*Item, error) {
	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if !item.VisibleTo(who) {
		return nil, apperr.ErrNotFound
	}

	return item, nil
}

func (s *Service) List(ctx context.Context, who audit.Identity, filter ListFilter) ([]*Item, error) {
	filter.IncludeInactive = filter.IncludeInactive && who.Superuser
	return s.repo.ListItems(ctx, filter)
}

func (s *Service) Update(ctx context.Context, who audit.Identity, id uuid.UUID, params CreateParams) (*Item, error) {
	item, err := s.Get(ctx, who, id)
	if err != nil {
		return nil, err
	}

	item.Label = strings.TrimSpace(params.Label)
	item.Description = params.Description
	item.PriceDutyFree = params.PriceDutyFree
	item.TaxRate = params.TaxRate

	if err := item.Validate(); err != nil {
		return nil, err
	}

	item.Touch(who, s.now())

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}

// Deactivate soft-deletes an item. Order lines keep referencing it.
func (s *Service) Deactivate(ctx context.Context, who audit.Identity, id uuid.UUID) error {
	item, err := s.Get(ctx, who, id)
	if err != nil {
		return err
	}

	item.Deactivate(who, s.now())

	return s.repo.SetItemActive(ctx, item)
}

func (s *Service) Restore(ctx context.Context, who audit.Identity, id uuid.UUID) (*Item, error) {
	if !who.Superuser {
		return nil, apperr.ErrForbidden
	}

	item, err := s.repo.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	item.Restore(who, s.now())

	if err := s.repo.SetItemActive(ctx, item); err != nil {
		return nil, err
	}

	return item, nil
}
