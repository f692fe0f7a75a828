// Package sales composes catalog items into order lines, estimates and
// invoices. It owns per-saler document numbering, totals aggregation,
// line-set replacement and estimate to invoice conversion.
package sales

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/entreprenapp/backoffice/internal/actor"
	"github.com/entreprenapp/backoffice/internal/apperr"
	"github.com/entreprenapp/backoffice/internal/audit"
	"github.com/entreprenapp/backoffice/internal/catalog"
	"github.com/entreprenapp/backoffice/internal/money"
)

// Kind discriminates the two document shapes sharing one record.
type Kind string

const (
	KindEstimate Kind = "estimate"
	KindInvoice  Kind = "invoice"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindEstimate, KindInvoice:
		return k, nil
	}

	return "", fmt.Errorf("unknown document kind: %q", s)
}

func (k Kind) Label() string {
	if k == KindInvoice {
		return "Invoice"
	}

	return "Estimate"
}

// MaxQuantity is the largest quantity order_lines.quantity (integer) holds.
const MaxQuantity = math.MaxInt32

// OrderLine is a quantity of a catalog item. Subtotals are computed from the
// item's current price, so editing an item changes every line using it.
type OrderLine struct {
	ID       uuid.UUID
	ItemID   uuid.UUID
	Item     *catalog.Item
	Quantity int

	audit.Record
}

// NewOrderLine builds an unsaved line for item.
func NewOrderLine(item *catalog.Item, quantity int) (*OrderLine, error) {
	if item == nil {
		return nil, apperr.Invalid("item_id", "required")
	}

	line := &OrderLine{ItemID: item.ID, Item: item, Quantity: quantity}
	if err := line.Validate(); err != nil {
		return nil, err
	}

	return line, nil
}

func (l *OrderLine) Validate() error {
	if l.ItemID == uuid.Nil {
		return apperr.Invalid("item_id", "required")
	}

	if l.Quantity < 1 {
		return apperr.Invalid("quantity", "must be at least 1")
	}

	if l.Quantity > MaxQuantity {
		return apperr.Invalidf("quantity", "must be at most %d", MaxQuantity)
	}

	return nil
}

func (l *OrderLine) qty() decimal.Decimal {
	return decimal.NewFromInt(int64(l.Quantity))
}

func (l *OrderLine) SubtotalDutyFree() decimal.Decimal {
	return l.Item.PriceDutyFree.Mul(l.qty())
}

func (l *OrderLine) SubtotalTax() decimal.Decimal {
	return l.Item.TaxAmount().Mul(l.qty())
}

func (l *OrderLine) SubtotalIncludingTax() decimal.Decimal {
	return l.Item.PriceIncludingTax().Mul(l.qty())
}

// Document is an estimate or an invoice. Number is zero until the document
// is first stored, then never changes.
type Document struct {
	ID         uuid.UUID
	Kind       Kind
	SalerID    uuid.UUID
	CustomerID uuid.UUID
	Saler      *actor.Actor
	Customer   *actor.Actor
	Date       time.Time
	Number     int64

	// ValidityDate is set on estimates only.
	ValidityDate *time.Time
	// IsPaid is meaningful on invoices only.
	IsPaid bool

	Lines []*OrderLine

	audit.Record
}

// Numbered reports whether the document already holds its per-saler number.
func (d *Document) Numbered() bool {
	return d.Number > 0
}

// Title is the human reference of a document, e.g. "Invoice n° 00000042".
func (d *Document) Title() string {
	return fmt.Sprintf("%s n° %08d", d.Kind.Label(), d.Number)
}

// Totals of a document.
//
// Tax is the sum of the tax-inclusive subtotals, the figure existing
// documents have always printed as "total tax". TaxAmount is the actual sum
// of the tax charged.
type Totals struct {
	DutyFree     decimal.Decimal
	Tax          decimal.Decimal
	IncludingTax decimal.Decimal
	TaxAmount    decimal.Decimal
}

// Totals aggregates the current line set. An empty set yields zero totals.
func (d *Document) Totals() Totals {
	return ComputeTotals(d.Lines)
}

func ComputeTotals(lines []*OrderLine) Totals {
	t := Totals{
		DutyFree:     decimal.Zero,
		Tax:          decimal.Zero,
		IncludingTax: decimal.Zero,
		TaxAmount:    decimal.Zero,
	}

	for _, l := range lines {
		incl := l.SubtotalIncludingTax()

		t.DutyFree = t.DutyFree.Add(l.SubtotalDutyFree())
		t.Tax = t.Tax.Add(incl)
		t.IncludingTax = t.IncludingTax.Add(incl)
		t.TaxAmount = t.TaxAmount.Add(l.SubtotalTax())
	}

	t.DutyFree = money.Round2(t.DutyFree)
	t.Tax = money.Round2(t.Tax)
	t.IncludingTax = money.Round2(t.IncludingTax)
	t.TaxAmount = money.Round2(t.TaxAmount)

	return t
}
