package document

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/entreprenapp/backoffice/internal/apperr"
	"github.com/entreprenapp/backoffice/internal/http/middleware"
	"github.com/entreprenapp/backoffice/internal/http/respond"
	"github.com/entreprenapp/backoffice/internal/render"
	"github.com/entreprenapp/backoffice/internal/sales"
)

// Renderer prints a document.
type Renderer interface {
	PDF(ctx context.Context, doc *sales.Document) ([]byte, error)
}

// Handler serves one kind of document: estimates or invoices.
type Handler struct {
	svc      *sales.Service
	kind     sales.Kind
	renderer Renderer
}

func NewHandler(svc *sales.Service, kind sales.Kind, renderer Renderer) *Handler {
	return &Handler{svc: svc, kind: kind, renderer: renderer}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.With(middleware.RequireSuperuser).Post("/{id}/restore", h.restore)
	r.Get("/{id}/totals", h.totals)
	r.Get("/{id}/pdf", h.pdf)

	switch h.kind {
	case sales.KindEstimate:
		r.Post("/{id}/invoice", h.convert)
	case sales.KindInvoice:
		r.Patch("/{id}/paid", h.setPaid)
	}
}

type lineRequest struct {
	LineID   *uuid.UUID `json:"line_id,omitempty"`
	ItemID   uuid.UUID  `json:"item_id"`
	Quantity int        `json:"quantity"`
}

type documentRequest struct {
	SalerID      uuid.UUID     `json:"saler_id"`
	CustomerID   uuid.UUID     `json:"customer_id"`
	Date         string        `json:"date"`
	ValidityDate string        `json:"validity_date,omitempty"`
	IsPaid       bool          `json:"is_paid,omitempty"`
	Lines        []lineRequest `json:"lines"`
}

func parseDate(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}

	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return nil, apperr.Invalid(field, "must be a YYYY-MM-DD date")
	}

	return &t, nil
}

func (req documentRequest) params() (sales.Params, error) {
	p := sales.Params{
		SalerID:    req.SalerID,
		CustomerID: req.CustomerID,
		IsPaid:     req.IsPaid,
		Lines:      make([]sales.LineInput, len(req.Lines)),
	}

	date, err := parseDate("date", req.Date)
	if err != nil {
		return sales.Params{}, err
	}

	if date != nil {
		p.Date = *date
	}

	if p.ValidityDate, err = parseDate("validity_date", req.ValidityDate); err != nil {
		return sales.Params{}, err
	}

	for i, l := range req.Lines {
		p.Lines[i] = sales.LineInput{LineID: l.LineID, ItemID: l.ItemID, Quantity: l.Quantity}
	}

	return p, nil
}

func (h *Handler) decodeParams(r *http.Request) (sales.Params, error) {
	var req documentRequest
	if err := respond.Decode(r, &req); err != nil {
		return sales.Params{}, err
	}

	return req.params()
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	p, err := h.decodeParams(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	doc, err := h.svc.Create(r.Context(), middleware.Identity(r.Context()), h.kind, p)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(doc))
}

func (h *Handler) listFilter(r *http.Request) (sales.ListFilter, error) {
	var (
		filter sales.ListFilter
		err    error
	)

	if filter.SalerID, err = respond.QueryID(r, "saler_id"); err != nil {
		return filter, err
	}

	if filter.CustomerID, err = respond.QueryID(r, "customer_id"); err != nil {
		return filter, err
	}

	if h.kind == sales.KindInvoice {
		if filter.IsPaid, err = respond.QueryBool(r, "is_paid"); err != nil {
			return filter, err
		}
	}

	if filter.From, err = respond.QueryDate(r, "from"); err != nil {
		return filter, err
	}

	if filter.To, err = respond.QueryDate(r, "to"); err != nil {
		return filter, err
	}

	inactive, err := respond.QueryBool(r, "include_inactive")
	if err != nil {
		return filter, err
	}

	filter.IncludeInactive = inactive != nil && *inactive

	return filter, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := h.listFilter(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	docs, err := h.svc.List(r.Context(), middleware.Identity(r.Context()), h.kind, filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(docs))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	doc, err := h.svc.Get(r.Context(), middleware.Identity(r.Context()), h.kind, id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(doc))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	p, err := h.decodeParams(r)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	doc, err := h.svc.Update(r.Context(), middleware.Identity(r.Context()), h.kind, id, p)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(doc))
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

	doc, err := h.svc.Restore(r.Context(), middleware.Identity(r.Context()), h.kind, id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(doc))
}

func (h *Handler) totals(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	totals, err := h.svc.Totals(r.Context(), middleware.Identity(r.Context()), h.kind, id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toTotals(totals))
}

func (h *Handler) pdf(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	doc, err := h.svc.Get(r.Context(), middleware.Identity(r.Context()), h.kind, id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	pdf, err := h.renderer.PDF(r.Context(), doc)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	name := render.FileName(doc)

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"; filename*=UTF-8''%s`,
		fmt.Sprintf("%s-%08d", doc.Kind, doc.Number), url.PathEscape(name)))
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(pdf); err != nil {
		slog.Error("failed to write pdf", "error", err)
	}
}

func (h *Handler) convert(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	invoice, err := h.svc.ConvertEstimate(r.Context(), middleware.Identity(r.Context()), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(invoice))
}

type paidRequest struct {
	IsPaid bool `json:"is_paid"`
}

func (h *Handler) setPaid(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req paidRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	doc, err := h.svc.SetPaid(r.Context(), middleware.Identity(r.Context()), id, req.IsPaid)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(doc))
}
