package store_test

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entreprenapp/backoffice/internal/actor"
	actorStore "github.com/entreprenapp/backoffice/internal/actor/store"
	"github.com/entreprenapp/backoffice/internal/audit"
	"github.com/entreprenapp/backoffice/internal/catalog"
	catalogStore "github.com/entreprenapp/backoffice/internal/catalog/store"
	"github.com/entreprenapp/backoffice/internal/config"
	"github.com/entreprenapp/backoffice/internal/database"
	"github.com/entreprenapp/backoffice/internal/sales"
	"github.com/entreprenapp/backoffice/internal/sales/store"
)

var today = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

type env struct {
	db       *sql.DB
	svc      *sales.Service
	saler    *actor.Actor
	customer *actor.Actor
	itemA    *catalog.Item
	itemB    *catalog.Item
}

// newEnv connects to the database named by the DB_* variables and creates
// a fresh saler, so counters start at zero in every test.
func newEnv(t *testing.T, opts ...sales.Option) *env {
	t.Helper()

	if os.Getenv("DB_HOST") == "" {
		t.Skip("DB_HOST not set")
	}

	if os.Getenv("JWT_SECRET") == "" {
		t.Setenv("JWT_SECRET", "unused")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	db, err := database.New(cfg.ConnectionString())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, database.Migrate(ctx, db))

	actors := actor.NewService(actorStore.New(db))
	party := actor.Params{Name: "computer corporation " + uuid.NewString(), Address: "1 rue de la Paix", City: "Paris", PostalCode: "75002"}

	saler, err := actors.Create(ctx, audit.System, actor.KindSaler, party)
	require.NoError(t, err)

	party.Name = "ACME " + uuid.NewString()
	customer, err := actors.Create(ctx, audit.System, actor.KindCustomer, party)
	require.NoError(t, err)

	items := catalog.NewService(catalogStore.New(db))

	itemA, err := items.Create(ctx, audit.System, catalog.CreateParams{
		Label:         "Workstation",
		PriceDutyFree: decimal.RequireFromString("4000"),
		TaxRate:       decimal.RequireFromString("5"),
	})
	require.NoError(t, err)

	itemB, err := items.Create(ctx, audit.System, catalog.CreateParams{
		Label:         "Monitor",
		PriceDutyFree: decimal.RequireFromString("3800"),
		TaxRate:       decimal.RequireFromString("15"),
	})
	require.NoError(t, err)

	return &env{
		db:       db,
		svc:      sales.NewService(store.New(db), opts...),
		saler:    saler,
		customer: customer,
		itemA:    itemA,
		itemB:    itemB,
	}
}

func (e *env) params(lines ...sales.LineInput) sales.Params {
	return sales.Params{
		SalerID:      e.saler.ID,
		CustomerID:   e.customer.ID,
		Date:         today,
		ValidityDate: new(today.AddDate(0, 0, 30)),
		Lines:        lines,
	}
}

func (e *env) counters(t *testing.T) (estimates, invoices int64) {
	t.Helper()

	err := e.db.QueryRow(`SELECT estimate_number, invoice_number FROM salers WHERE id = $1`, e.saler.ID).Scan(&estimates, &invoices)
	require.NoError(t, err)

	return estimates, invoices
}

func (e *env) lineExists(t *testing.T, id uuid.UUID) bool {
	t.Helper()

	var n int
	require.NoError(t, e.db.QueryRow(`SELECT COUNT(*) FROM order_lines WHERE id = $1`, id).Scan(&n))

	return n == 1
}

func TestStore_Scenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	est, err := e.svc.Create(ctx, audit.System, sales.KindEstimate, e.params(
		sales.LineInput{ItemID: e.itemA.ID, Quantity: 5},
		sales.LineInput{ItemID: e.itemB.ID, Quantity: 5},
	))
	require.NoError(t, err)
	assert.Equal(t, int64(1), est.Number)

	totals, err := e.svc.Totals(ctx, audit.System, sales.KindEstimate, est.ID)
	require.NoError(t, err)
	assert.Equal(t, "42850.00", totals.IncludingTax.StringFixed(2))

	inv, err := e.svc.ConvertEstimate(ctx, audit.System, est.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), inv.Number)
	assert.False(t, inv.IsPaid)

	estimates, invoices := e.counters(t)
	assert.Equal(t, int64(1), estimates)
	assert.Equal(t, int64(1), invoices)
}

func TestStore_NumberingConcurrent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	const n = 8

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = make(map[int64]bool, n)
	)

	for range n {
		wg.Add(1)

		go func() {
			defer wg.Done()

			doc, err := e.svc.Create(ctx, audit.System, sales.KindInvoice, e.params(sales.LineInput{ItemID: e.itemA.ID, Quantity: 1}))
			if !assert.NoError(t, err) {
				return
			}

			mu.Lock()
			numbers[doc.Number] = true
			mu.Unlock()
		}()
	}

	wg.Wait()

	require.Len(t, numbers, n)

	for i := int64(1); i <= n; i++ {
		assert.True(t, numbers[i], "number %d missing", i)
	}

	_, invoices := e.counters(t)
	assert.Equal(t, int64(n), invoices)
}

func TestStore_FailedCreateKeepsCounter(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.Create(ctx, audit.System, sales.KindInvoice, e.params(sales.LineInput{ItemID: uuid.New(), Quantity: 1}))
	require.Error(t, err)

	_, invoices := e.counters(t)
	assert.Equal(t, int64(0), invoices)
}

func TestStore_UpdateReplacesLines(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	doc, err := e.svc.Create(ctx, audit.System, sales.KindInvoice, e.params(sales.LineInput{ItemID: e.itemA.ID, Quantity: 1}))
	require.NoError(t, err)
	require.Len(t, doc.Lines, 1)

	dropped := doc.Lines[0].ID

	updated, err := e.svc.Update(ctx, audit.System, sales.KindInvoice, doc.ID, e.params(
		sales.LineInput{ItemID: e.itemB.ID, Quantity: 2},
		sales.LineInput{ItemID: e.itemA.ID, Quantity: 3},
	))
	require.NoError(t, err)
	assert.Equal(t, doc.Number, updated.Number)

	got, err := e.svc.Get(ctx, audit.System, sales.KindInvoice, doc.ID)
	require.NoError(t, err)
	assert.Len(t, got.Lines, 2)
	assert.False(t, e.lineExists(t, dropped))

	_, invoices := e.counters(t)
	assert.Equal(t, int64(1), invoices)
}

func TestStore_SharedLineSurvivesDetach(t *testing.T) {
	e := newEnv(t, sales.WithConversionMode(sales.ConversionShared))
	ctx := context.Background()

	est, err := e.svc.Create(ctx, audit.System, sales.KindEstimate, e.params(
		sales.LineInput{ItemID: e.itemA.ID, Quantity: 5},
		sales.LineInput{ItemID: e.itemB.ID, Quantity: 5},
	))
	require.NoError(t, err)

	inv, err := e.svc.ConvertEstimate(ctx, audit.System, est.ID)
	require.NoError(t, err)
	require.Len(t, inv.Lines, 2)

	kept, dropped := inv.Lines[0], inv.Lines[1]

	_, err = e.svc.Update(ctx, audit.System, sales.KindInvoice, inv.ID, e.params(
		sales.LineInput{LineID: &kept.ID, ItemID: kept.ItemID, Quantity: kept.Quantity},
	))
	require.NoError(t, err)

	assert.True(t, e.lineExists(t, dropped.ID))

	got, err := e.svc.Get(ctx, audit.System, sales.KindEstimate, est.ID)
	require.NoError(t, err)
	assert.Len(t, got.Lines, 2)
}
