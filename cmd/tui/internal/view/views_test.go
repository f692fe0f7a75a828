package view

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entreprenapp/backoffice/internal/actor"
	"github.com/entreprenapp/backoffice/internal/audit"
	"github.com/entreprenapp/backoffice/internal/catalog"
	"github.com/entreprenapp/backoffice/internal/sales"
)

func testInvoice(number int64, paid bool) *sales.Document {
	item := &catalog.Item{
		ID:            uuid.New(),
		Label:         "Audit",
		PriceDutyFree: decimal.RequireFromString("100"),
		TaxRate:       decimal.RequireFromString("20"),
	}

	return &sales.Document{
		ID:       uuid.New(),
		Kind:     sales.KindInvoice,
		Number:   number,
		Date:     time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		IsPaid:   paid,
		Saler:    &actor.Actor{Name: "ACME"},
		Customer: &actor.Actor{Name: "Globex"},
		Lines:    []*sales.OrderLine{{ID: uuid.New(), Item: item, ItemID: item.ID, Quantity: 2}},
		Record:   audit.Record{Active: true},
	}
}

func TestDocumentsModel_Rows(t *testing.T) {
	m := NewDocumentsModel(nil, sales.KindInvoice, CommonModel{})

	updated, cmd := m.Update(loadDocumentsMsg{docs: []*sales.Document{
		testInvoice(1, false),
		testInvoice(2, true),
	}})
	assert.Nil(t, cmd)

	rows := updated.(DocumentsModel).table.Rows()
	require.Len(t, rows, 2)

	assert.Equal(t, "00000001", rows[0][0])
	assert.Equal(t, "2024-05-02", rows[0][1])
	assert.Equal(t, "ACME", rows[0][2])
	assert.Equal(t, "Globex", rows[0][3])
	assert.Equal(t, "unpaid", rows[0][5])
	assert.Equal(t, "paid", rows[1][5])
}

func TestDocumentsModel_MissingParty(t *testing.T) {
	doc := testInvoice(3, false)
	doc.Customer = nil

	m := NewDocumentsModel(nil, sales.KindInvoice, CommonModel{})
	updated, _ := m.Update(loadDocumentsMsg{docs: []*sales.Document{doc}})

	rows := updated.(DocumentsModel).table.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "-", rows[0][3])
}

func TestDocumentsModel_EscGoesBack(t *testing.T) {
	m := NewDocumentsModel(nil, sales.KindEstimate, CommonModel{})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, BackMsg{}, cmd())
}

func TestDocumentsModel_UnpaidFilter(t *testing.T) {
	m := NewDocumentsModel(nil, sales.KindInvoice, CommonModel{})
	assert.Nil(t, m.filter().IsPaid)

	m.unpaid = true
	f := m.filter()
	require.NotNil(t, f.IsPaid)
	assert.False(t, *f.IsPaid)
}

func TestCatalogModel(t *testing.T) {
	m := NewCatalogModel(nil, nil, CommonModel{})

	updated, _ := m.Update(loadItemsMsg{items: []*catalog.Item{{
		Label:         "Audit",
		PriceDutyFree: decimal.RequireFromString("1999.99"),
		TaxRate:       decimal.RequireFromString("20"),
	}}})

	cm := updated.(CatalogModel)
	rows := cm.table.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "Audit", rows[0][0])
	assert.Equal(t, "20 %", rows[0][2])

	updated, _ = cm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	cm = updated.(CatalogModel)
	assert.Equal(t, catalogStateForm, cm.state)

	updated, cmd := cm.Update(tea.KeyMsg{Type: tea.KeyEsc})
	cm = updated.(CatalogModel)
	assert.Equal(t, catalogStateList, cm.state)
	assert.Nil(t, cmd)
}

func TestValidDecimal(t *testing.T) {
	assert.NoError(t, validDecimal("12.50"))
	assert.NoError(t, validDecimal(" 20 "))
	assert.Error(t, validDecimal("twelve"))
	assert.Error(t, validDecimal(""))
}
