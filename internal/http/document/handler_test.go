package document_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entreprenapp/backoffice/internal/actor"
	"github.com/entreprenapp/backoffice/internal/audit"
	"github.com/entreprenapp/backoffice/internal/catalog"
	"github.com/entreprenapp/backoffice/internal/http/document"
	"github.com/entreprenapp/backoffice/internal/http/middleware"
	"github.com/entreprenapp/backoffice/internal/sales"
	"github.com/entreprenapp/backoffice/internal/sales/memstore"
)

var (
	clerk = audit.Identity{UserID: uuid.New()}
	now   = time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
)

type fakeRenderer struct {
	err error
}

func (f fakeRenderer) PDF(_ context.Context, doc *sales.Document) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}

	return []byte("%PDF-" + doc.Title()), nil
}

type env struct {
	router   http.Handler
	store    *memstore.Store
	saler    *actor.Actor
	customer *actor.Actor
	itemA    *catalog.Item
	itemB    *catalog.Item
}

func newEnv(t *testing.T, renderer document.Renderer) *env {
	t.Helper()

	store := memstore.New()
	svc := sales.NewService(store, sales.WithClock(func() time.Time { return now }))

	e := &env{
		store:    store,
		saler:    &actor.Actor{Kind: actor.KindSaler, Name: "Computer Corporation", Record: audit.New(clerk, now)},
		customer: &actor.Actor{Kind: actor.KindCustomer, Name: "ACME", Record: audit.New(clerk, now)},
		itemA: &catalog.Item{
			Label:         "Workstation",
			PriceDutyFree: decimal.RequireFromString("4000"),
			TaxRate:       decimal.RequireFromString("5"),
			Record:        audit.New(clerk, now),
		},
		itemB: &catalog.Item{
			Label:         "Monitor",
			PriceDutyFree: decimal.RequireFromString("3800"),
			TaxRate:       decimal.RequireFromString("15"),
			Record:        audit.New(clerk, now),
		},
	}

	store.PutActor(e.saler)
	store.PutActor(e.customer)
	store.PutItem(e.itemA)
	store.PutItem(e.itemB)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithIdentity(r.Context(), clerk)))
		})
	})
	r.Route("/estimates", document.NewHandler(svc, sales.KindEstimate, renderer).Routes)
	r.Route("/invoices", document.NewHandler(svc, sales.KindInvoice, renderer).Routes)

	e.router = r

	return e
}

func (e *env) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	return rec
}

func (e *env) estimateBody() string {
	return fmt.Sprintf(`{
		"saler_id": %q,
		"customer_id": %q,
		"date": "2024-06-03",
		"validity_date": "2024-07-03",
		"lines": [
			{"item_id": %q, "quantity": 5},
			{"item_id": %q, "quantity": 5}
		]
	}`, e.saler.ID, e.customer.ID, e.itemA.ID, e.itemB.ID)
}

type docResponse struct {
	ID     uuid.UUID `json:"id"`
	Number int64     `json:"number"`
	Title  string    `json:"title"`
	IsPaid *bool     `json:"is_paid"`
	Lines  []struct {
		ID uuid.UUID `json:"id"`
	} `json:"lines"`
	Totals struct {
		TotalDutyFree     string `json:"total_duty_free"`
		TotalIncludingTax string `json:"total_including_tax"`
		TaxAmount         string `json:"tax_amount"`
	} `json:"totals"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) docResponse {
	t.Helper()

	var resp docResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())

	return resp
}

func TestEstimateToPaidInvoice(t *testing.T) {
	e := newEnv(t, fakeRenderer{})

	rec := e.do(t, http.MethodPost, "/estimates/", e.estimateBody())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	est := decode(t, rec)
	assert.Equal(t, int64(1), est.Number)
	assert.Equal(t, "Estimate n° 00000001", est.Title)
	assert.Equal(t, "39000.00", est.Totals.TotalDutyFree)
	assert.Equal(t, "42850.00", est.Totals.TotalIncludingTax)
	assert.Equal(t, "3850.00", est.Totals.TaxAmount)
	assert.Nil(t, est.IsPaid)

	rec = e.do(t, http.MethodGet, "/estimates/"+est.ID.String()+"/totals", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"total_duty_free": "39000.00",
		"total_tax": "42850.00",
		"total_including_tax": "42850.00",
		"tax_amount": "3850.00"
	}`, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/estimates/"+est.ID.String()+"/invoice", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	inv := decode(t, rec)
	assert.Equal(t, int64(1), inv.Number)
	require.NotNil(t, inv.IsPaid)
	assert.False(t, *inv.IsPaid)
	require.Len(t, inv.Lines, 2)
	assert.Equal(t, est.Lines[0].ID, inv.Lines[0].ID)

	rec = e.do(t, http.MethodPatch, "/invoices/"+inv.ID.String()+"/paid", `{"is_paid": true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *decode(t, rec).IsPaid)

	rec = e.do(t, http.MethodGet, "/invoices/?is_paid=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), inv.ID.String())

	rec = e.do(t, http.MethodGet, "/invoices/?is_paid=false", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), inv.ID.String())
}

func TestCreate_ValidationConsumesNoNumber(t *testing.T) {
	e := newEnv(t, fakeRenderer{})

	body := fmt.Sprintf(`{"saler_id": %q, "customer_id": %q, "date": "2024-06-03", "lines": []}`, e.saler.ID, e.customer.ID)

	rec := e.do(t, http.MethodPost, "/estimates/", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"validity_date"`)

	rec = e.do(t, http.MethodPost, "/estimates/", strings.Replace(e.estimateBody(), "2024-07-03", "03/07/2024", 1))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	saler, ok := e.store.Saler(e.saler.ID)
	require.True(t, ok)
	assert.Zero(t, saler.EstimateNumber)

	rec = e.do(t, http.MethodPost, "/estimates/", e.estimateBody())
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(1), decode(t, rec).Number)
}

func TestUpdate_KeepsNumber(t *testing.T) {
	e := newEnv(t, fakeRenderer{})

	rec := e.do(t, http.MethodPost, "/estimates/", e.estimateBody())
	require.Equal(t, http.StatusCreated, rec.Code)

	est := decode(t, rec)

	body := fmt.Sprintf(`{
		"saler_id": %q, "customer_id": %q, "date": "2024-06-04", "validity_date": "2024-07-04",
		"lines": [{"line_id": %q, "item_id": %q, "quantity": 1}]
	}`, e.saler.ID, e.customer.ID, est.Lines[0].ID, e.itemA.ID)

	rec = e.do(t, http.MethodPut, "/estimates/"+est.ID.String(), body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	updated := decode(t, rec)
	assert.Equal(t, int64(1), updated.Number)
	require.Len(t, updated.Lines, 1)
	assert.Equal(t, "4200.00", updated.Totals.TotalIncludingTax)
}

func TestPDF(t *testing.T) {
	t.Run("attachment", func(t *testing.T) {
		e := newEnv(t, fakeRenderer{})

		rec := e.do(t, http.MethodPost, "/estimates/", e.estimateBody())
		require.Equal(t, http.StatusCreated, rec.Code)

		est := decode(t, rec)

		rec = e.do(t, http.MethodGet, "/estimates/"+est.ID.String()+"/pdf", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "Estimate%20n%C2%B0%2000000001.pdf")
		assert.Equal(t, "%PDF-Estimate n° 00000001", rec.Body.String())
	})

	t.Run("renderer failure", func(t *testing.T) {
		e := newEnv(t, fakeRenderer{err: errors.New("chromium missing")})

		rec := e.do(t, http.MethodPost, "/estimates/", e.estimateBody())
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = e.do(t, http.MethodGet, "/estimates/"+decode(t, rec).ID.String()+"/pdf", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestRoutesByKind(t *testing.T) {
	e := newEnv(t, fakeRenderer{})
	id := uuid.New().String()

	rec := e.do(t, http.MethodPatch, "/estimates/"+id+"/paid", `{"is_paid": true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodPost, "/invoices/"+id+"/invoice", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodGet, "/invoices/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
