package catalog_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/entreprenapp/backoffice/internal/apperr"
	"github.com/entreprenapp/backoffice/internal/catalog"
)

func TestItem_TaxFigures(t *testing.T) {
	item := &catalog.Item{
		Label:         "Server rack",
		PriceDutyFree: decimal.NewFromInt(1000),
		TaxRate:       decimal.NewFromInt(15),
	}

	assert.Equal(t, "150.00", item.TaxAmount().StringFixed(2))
	assert.Equal(t, "1150.00", item.PriceIncludingTax().StringFixed(2))

	// Derived values follow edits to the item.
	item.PriceDutyFree = decimal.NewFromInt(2000)
	assert.Equal(t, "2300.00", item.PriceIncludingTax().StringFixed(2))
}

func TestItem_Validate(t *testing.T) {
	tests := []struct {
		name    string
		item    catalog.Item
		wantErr bool
	}{
		{
			name: "Valid",
			item: catalog.Item{Label: "Keyboard", PriceDutyFree: decimal.RequireFromString("49.90"), TaxRate: decimal.NewFromInt(20)},
		},
		{
			name:    "MissingLabel",
			item:    catalog.Item{Label: "   ", PriceDutyFree: decimal.NewFromInt(1), TaxRate: decimal.Zero},
			wantErr: true,
		},
		{
			name:    "LabelTooLong",
			item:    catalog.Item{Label: strings.Repeat("x", 255), PriceDutyFree: decimal.NewFromInt(1), TaxRate: decimal.Zero},
			wantErr: true,
		},
		{
			name:    "NegativePrice",
			item:    catalog.Item{Label: "Refund", PriceDutyFree: decimal.NewFromInt(-5), TaxRate: decimal.Zero},
			wantErr: true,
		},
		{
			name:    "NegativeTax",
			item:    catalog.Item{Label: "Odd", PriceDutyFree: decimal.NewFromInt(5), TaxRate: decimal.NewFromInt(-1)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantErr {
				assert.True(t, apperr.IsValidation(err))
				return
			}

			assert.NoError(t, err)
		})
	}
}
