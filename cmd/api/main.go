package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/entreprenapp/backoffice/internal/actor"
	"github.com/entreprenapp/backoffice/internal/app"
	"github.com/entreprenapp/backoffice/internal/config"
	"github.com/entreprenapp/backoffice/internal/database"
	apiHttp "github.com/entreprenapp/backoffice/internal/http"
	actorHandler "github.com/entreprenapp/backoffice/internal/http/actor"
	authHandler "github.com/entreprenapp/backoffice/internal/http/auth"
	documentHandler "github.com/entreprenapp/backoffice/internal/http/document"
	itemHandler "github.com/entreprenapp/backoffice/internal/http/item"
	"github.com/entreprenapp/backoffice/internal/sales"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := cfg.NewLogger(os.Stderr)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}

	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	svc, err := app.New(ctx, cfg, db)
	if err != nil {
		return err
	}
	defer svc.Close()

	router := apiHttp.New(apiHttp.Handlers{
		Auth:      authHandler.NewHandler(svc.Users),
		Salers:    actorHandler.NewHandler(svc.Actors, actor.KindSaler),
		Customers: actorHandler.NewHandler(svc.Actors, actor.KindCustomer),
		Items:     itemHandler.NewHandler(svc.Catalog, svc.Importer),
		Estimates: documentHandler.NewHandler(svc.Sales, sales.KindEstimate, svc.Renderer),
		Invoices:  documentHandler.NewHandler(svc.Sales, sales.KindInvoice, svc.Renderer),
	}, svc.Users, cfg.Server.CORSOrigins)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		// PDF rendering happens inside the request.
		WriteTimeout: cfg.Server.Timeout + cfg.PDF.Timeout,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("starting server", "addr", server.Addr, "app", cfg.App.Name)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving: %w", err)
		}

		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
