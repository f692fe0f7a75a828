package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/entreprenapp/backoffice/internal/http/actor"
	"github.com/entreprenapp/backoffice/internal/http/auth"
	"github.com/entreprenapp/backoffice/internal/http/document"
	"github.com/entreprenapp/backoffice/internal/http/item"
	authmw "github.com/entreprenapp/backoffice/internal/http/middleware"
)

type Handlers struct {
	Auth      *auth.Handler
	Salers    *actor.Handler
	Customers *actor.Handler
	Items     *item.Handler
	Estimates *document.Handler
	Invoices  *document.Handler
}

func New(h Handlers, authenticator authmw.Authenticator, corsOrigins []string) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Auth.Routes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(authmw.Authenticate(authenticator))

			r.Route("/users", h.Auth.UserRoutes)
			r.Route("/salers", h.Salers.Routes)
			r.Route("/customers", h.Customers.Routes)
			r.Route("/items", h.Items.Routes)
			r.Route("/estimates", h.Estimates.Routes)
			r.Route("/invoices", h.Invoices.Routes)
		})
	})

	return router
}
