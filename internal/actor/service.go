package actor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/entreprenapp/backoffice/internal/apperr"
	"github.com/entreprenapp/backoffice/internal/audit"
	"github.com/entreprenapp/backoffice/internal/validation"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=actor
type Repository interface {
	CreateActor(ctx context.Context, a *Actor) error
	GetActor(ctx context.Context, kind Kind, id uuid.UUID) (*Actor, error)
	ListActors(ctx context.Context, kind Kind, filter ListFilter) ([]*Actor, error)
	UpdateActor(ctx context.Context, a *Actor) error
	SetActorActive(ctx context.Context, a *Actor) error
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

type ListFilter struct {
	Search          string
	IncludeInactive bool
}

func (s *Service) Create(ctx context.Context, who audit.Identity, kind Kind, params Params) (*Actor, error) {
	params = normalize(params)
	if err := validation.Struct(params); err != nil {
		return nil, err
	}

	a := &Actor{Kind: kind, Record: audit.New(who, s.now())}
	a.apply(params)

	if err := s.repo.CreateActor(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}

func (s *Service) Get(ctx context.Context, who audit.Identity, kind Kind, id uuid.UUID) (*Actor, error) {
	a, err := s.repo.GetActor(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	if !a.VisibleTo(who) {
		return nil, apperr.ErrNotFound
	}

	return a, nil
}

func (s *Service) List(ctx context.Context, who audit.Identity, kind Kind, filter ListFilter) ([]*Actor, error) {
	filter.IncludeInactive = filter.IncludeInactive && who.Superuser
	return s.repo.ListActors(ctx, kind, filter)
}

// Update replaces the editable fields. Numbering counters are left alone.
func (s *Service) Update(ctx context.Context, who audit.Identity, kind Kind, id uuid.UUID, params Params) (*Actor, error) {
	params = normalize(params)
	if err := validation.Struct(params); err != nil {
		return nil, err
	}

	a, err := s.Get(ctx, who, kind, id)
	if err != nil {
		return nil, err
	}

	a.apply(params)
	a.Touch(who, s.now())

	if err := s.repo.UpdateActor(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}

func (s *Service) Deactivate(ctx context.Context, who audit.Identity, kind Kind, id uuid.UUID) error {
	a, err := s.Get(ctx, who, kind, id)
	if err != nil {
		return err
	}

	a.Deactivate(who, s.now())

	return s.repo.SetActorActive(ctx, a)
}

func (s *Service) Restore(ctx context.Context, who audit.Identity, kind Kind, id uuid.UUID) (*Actor, error) {
	if !who.Superuser {
		return nil, apperr.ErrForbidden
	}

	a, err := s.repo.GetActor(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	a.Restore(who, s.now())

	if err := s.repo.SetActorActive(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}
