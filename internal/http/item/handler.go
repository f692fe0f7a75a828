package item

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/entreprenapp/backoffice/internal/apperr"
	"github.com/entreprenapp/backoffice/internal/catalog"
	"github.com/entreprenapp/backoffice/internal/catalog/importer"
	"github.com/entreprenapp/backoffice/internal/http/middleware"
	"github.com/entreprenapp/backoffice/internal/http/respond"
)

const maxUploadBytes = 10 << 20

type Handler struct {
	svc      *catalog.Service
	importer *importer.Service
}

func NewHandler(svc *catalog.Service, imp *importer.Service) *Handler {
	return &Handler{svc: svc, importer: imp}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Post("/import", h.importCSV)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.With(middleware.RequireSuperuser).Post("/{id}/restore", h.restore)
}

type itemRequest struct {
	Label         string          `json:"label"`
	Description   string          `json:"description"`
	PriceDutyFree decimal.Decimal `json:"price_duty_free"`
	TaxRate       decimal.Decimal `json:"tax_rate"`
}

func (req itemRequest) params() catalog.CreateParams {
	return catalog.CreateParams{
		Label:         req.Label,
		Description:   req.Description,
		PriceDutyFree: req.PriceDutyFree,
		TaxRate:       req.TaxRate,
	}
}

type itemResponse struct {
	ID                uuid.UUID       `json:"id"`
	Label             string          `json:"label"`
	Description       string          `json:"description"`
	PriceDutyFree     decimal.Decimal `json:"price_duty_free"`
	TaxRate           decimal.Decimal `json:"tax_rate"`
	TaxAmount         decimal.Decimal `json:"tax_amount"`
	PriceIncludingTax decimal.Decimal `json:"price_including_tax"`
	IsActive          bool            `json:"is_active"`
	CreatedAt         time.Time       `json:"created_at"`
	ModifiedAt        *time.Time      `json:"modified_at,omitempty"`
}

func toResponse(i *catalog.Item) itemResponse {
	return itemResponse{
		ID:                i.ID,
		Label:             i.Label,
		Description:       i.Description,
		PriceDutyFree:     i.PriceDutyFree,
		TaxRate:           i.TaxRate,
		TaxAmount:         i.TaxAmount(),
		PriceIncludingTax: i.PriceIncludingTax(),
		IsActive:          i.Active,
		CreatedAt:         i.CreatedAt,
		ModifiedAt:        i.ModifiedAt,
	}
}

func toResponseList(items []*catalog.Item) []itemResponse {
	resp := make([]itemResponse, len(items))
	for i, item := range items {
		resp[i] = toResponse(item)
	}

	return resp
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	item, err := h.svc.Create(r.Context(), middleware.Identity(r.Context()), req.params())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toResponse(item))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := catalog.ListFilter{Search: r.URL.Query().Get("search")}

	inactive, err := respond.QueryBool(r, "include_inactive")
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if inactive != nil {
		filter.IncludeInactive = *inactive
	}

	items, err := h.svc.List(r.Context(), middleware.Identity(r.Context()), filter)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(items))
}

type importResponse struct {
	Imported int            `json:"imported"`
	Items    []itemResponse `json:"items"`
}

// importCSV stores every row of the uploaded "file" field, or none.
func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respond.Error(w, r, apperr.Invalid("file", "failed to parse form: "+err.Error()))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, r, apperr.Invalid("file", "required"))
		return
	}
	defer file.Close()

	items, err := h.importer.Import(r.Context(), middleware.Identity(r.Context()), file)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, importResponse{Imported: len(items), Items: toResponseList(items)})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	item, err := h.svc.Get(r.Context(), middleware.Identity(r.Context()), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(item))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	var req itemRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	item, err := h.svc.Update(r.Context(), middleware.Identity(r.Context()), id, req.params())
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(item))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := respond.ID(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	if err := h.svc.Deactivate(r.Context(), middleware.Identity(r.Context()), id); err != nil {
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

	item, err := h.svc.Restore(r.Context(), middleware.Identity(r.Context()), id)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResponse(item))
}
