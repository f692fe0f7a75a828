package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/entreprenapp/backoffice/internal/apperr"
	"github.com/entreprenapp/backoffice/internal/audit"
	"github.com/entreprenapp/backoffice/internal/money"
)

const maxLabelLength = 254

// Item is a priced catalog entry. Tax figures are derived on demand from the
// current price and rate, so order lines always reflect the latest values.
type Item struct {
	ID            uuid.UUID
	Label         string
	Description   string
	PriceDutyFree decimal.Decimal
	TaxRate       decimal.Decimal // percentage, e.g. 20 for 20%
	audit.Record
}

// Validate checks the invariants enforced on create and update.
func (i *Item) Validate() error {
	label := strings.TrimSpace(i.Label)
	if label == "" {
		return apperr.Invalid("label", "required")
	}

	if len(label) > maxLabelLength {
		return apperr.Invalidf("label", "must be at most %d characters", maxLabelLength)
	}

	return money.Validate(i.PriceDutyFree, i.TaxRate)
}

// TaxAmount is the tax charged on one unit.
func (i *Item) TaxAmount() decimal.Decimal {
	return money.Tax(i.PriceDutyFree, i.TaxRate)
}

// PriceIncludingTax is the price of one unit with tax.
func (i *Item) PriceIncludingTax() decimal.Decimal {
	return money.WithTax(i.PriceDutyFree, i.TaxRate)
}
