// Package app wires stores and services from configuration. Every binary
// builds its services through New so they share the same behaviour.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/entreprenapp/backoffice/internal/actor"
	actorStore "github.com/entreprenapp/backoffice/internal/actor/store"
	"github.com/entreprenapp/backoffice/internal/catalog"
	"github.com/entreprenapp/backoffice/internal/catalog/importer"
	catalogStore "github.com/entreprenapp/backoffice/internal/catalog/store"
	"github.com/entreprenapp/backoffice/internal/config"
	"github.com/entreprenapp/backoffice/internal/render"
	"github.com/entreprenapp/backoffice/internal/sales"
	salesStore "github.com/entreprenapp/backoffice/internal/sales/store"
	"github.com/entreprenapp/backoffice/internal/user"
	"github.com/entreprenapp/backoffice/internal/user/lockout"
	userStore "github.com/entreprenapp/backoffice/internal/user/store"
)

type Services struct {
	Actors   *actor.Service
	Catalog  *catalog.Service
	Importer *importer.Service
	Sales    *sales.Service
	Users    *user.Service
	Renderer *render.Renderer
	Tokens   *user.TokenIssuer

	closers []func() error
}

func New(ctx context.Context, cfg *config.Config, db *sql.DB) (*Services, error) {
	mode, err := sales.ParseConversionMode(cfg.Sales.ConversionMode)
	if err != nil {
		return nil, fmt.Errorf("parsing conversion mode: %w", err)
	}

	locks, closers, err := newLockout(ctx, cfg)
	if err != nil {
		return nil, err
	}

	catalogService := catalog.NewService(catalogStore.New(db))
	tokens := user.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)

	return &Services{
		Actors:   actor.NewService(actorStore.New(db)),
		Catalog:  catalogService,
		Importer: importer.NewService(catalogService),
		Sales:    sales.NewService(salesStore.New(db), sales.WithConversionMode(mode)),
		Users: user.NewService(
			userStore.New(db),
			locks,
			user.LogNotifier{BaseURL: cfg.App.BaseURL},
			tokens,
			cfg.Auth.ResetTokenTTL,
		),
		Renderer: render.New(render.Config{
			ChromiumPath: cfg.PDF.ChromiumPath,
			PDFTimeout:   cfg.PDF.Timeout,
		}),
		Tokens:  tokens,
		closers: closers,
	}, nil
}

// Close releases connections opened by New. The database is owned by the
// caller.
func (s *Services) Close() error {
	for _, c := range s.closers {
		if err := c(); err != nil {
			return err
		}
	}

	return nil
}

func newLockout(ctx context.Context, cfg *config.Config) (user.Lockout, []func() error, error) {
	policy := lockout.Policy{
		Threshold: cfg.Auth.LockoutThreshold,
		Window:    cfg.Auth.LockoutWindow,
	}

	if cfg.Redis.URL == "" {
		slog.Info("login lockout kept in memory")
		return lockout.NewMemory(policy), nil, nil
	}

	client, err := lockout.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return lockout.NewRedis(client, policy), []func() error{client.Close}, nil
}
