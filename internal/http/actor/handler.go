package actor

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/entreprenapp/backoffice/internal/actor"
	"github.com/entreprenapp/backoffice/internal/http/middleware"
	"github.com/entreprenapp/backoffice/internal/http/respond"
)

// Handler serves one kind of actor: salers or customers.
type Handler struct {
	svc  *actor.Service
	kind actor.Kind
}

func NewHandler(svc *actor.Service, kind actor.Kind) *Handler {
	return &Handler{svc: svc, kind: kind}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.With(middleware.RequireSuperuser).Post("/{id}/restore", h.restore)
}

type actorResponse struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Address        string     `json:"address"`
	City           string     `json:"city"`
	PostalCode     string     `json:"postal_code"`
	Country        string     `json:"country,omitempty"`
	Email          string     `json:"email,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	EstimateNumber *int64     `json:"estimate_number,omitempty"`
	InvoiceNumber  *int64     `json:"invoice_number,omitempty"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
	ModifiedAt     *time.Time `json:"modified_at,omitempty"`
}

func toResponse(a *actor.Actor) actorResponse {
	resp := actorResponse{
		ID:         a.ID,
		Name:       a.Name,
		Address:    a.Address,
		City:       a.City,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Email:      a.Email,
		Phone:      a.Phone,
		IsActive:   a.Active,
		CreatedAt:  a.CreatedAt,
		ModifiedAt: a.ModifiedAt,
	}

	if a.Kind == actor.KindSaler {
		resp.EstimateNumber = new(a.EstimateNumber)
		resp.InvoiceNumber = new(a.InvoiceNumber)
	}

	return resp
}

func toResponseList(actors []*actor.Actor) []actorResponse {
	resp := make([]actorResponse, len(actors))
	for i, a := range actors {
		resp[i] = toResponse(a)
	}

	return resp
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req actor.Params
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	a, err := h.svc.Create(r.Context(), middleware.Identity(r.Context()), h.kind, req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(a))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := actor.ListFilter{Search: r.URL.Query().Get("search")}

	inactive, err := respond.QueryBool(r, "include_inactive")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if inactive != nil {
		filter.IncludeInactive = *inactive
	}

	actors, err := h.svc.List(r.Context(), middleware.Identity(r.Context()), h.kind, filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(actors))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	a, err := h.svc.Get(r.Context(), middleware.Identity(r.Context()), h.kind, id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(a))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req actor.Params
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	a, err := h.svc.Update(r.Context(), middleware.Identity(r.Context()), h.kind, id, req)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(a))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.svc.Deactivate(r.Context(), middleware.Identity(r.Context()), h.kind, id); err != nil {
		respond.Error(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	a, err := h.svc.Restore(r.Context(), middleware.Identity(r.Context()), h.kind, id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(a))
}
