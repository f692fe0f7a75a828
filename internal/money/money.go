// Package money implements the tax arithmetic used by catalog items and
// order lines. Amounts are shopspring decimals; binary floats never enter a
// computation.
package money

import (
	"github.com/shopspring/decimal"

	"github.com/entreprenapp/backoffice/internal/apperr"
)

// Places is the number of decimal places kept for prices and tax rates.
const Places = 2

var (
	hundred = decimal.NewFromInt(100)

	// MaxPrice is the first duty-free price that no longer fits the
	// numeric(10,2) price column.
	MaxPrice = decimal.New(1, 8)
	// MaxRate is the first tax rate that no longer fits numeric(5,2).
	MaxRate = decimal.New(1, 3)
)

// Round2 rounds half away from zero to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Tax returns round2(price * rate / 100). Inputs are assumed valid; use
// TaxAmount when they come from outside.
func Tax(price, rate decimal.Decimal) decimal.Decimal {
	return Round2(price.Mul(rate).Div(hundred))
}

// WithTax returns price + Tax(price, rate).
func WithTax(price, rate decimal.Decimal) decimal.Decimal {
	return price.Add(Tax(price, rate))
}

// TaxAmount is Tax with input validation.
func TaxAmount(price, rate decimal.Decimal) (decimal.Decimal, error) {
	if err := Validate(price, rate); err != nil {
		return decimal.Zero, err
	}

	return Tax(price, rate), nil
}

// PriceIncludingTax is WithTax with input validation.
func PriceIncludingTax(price, rate decimal.Decimal) (decimal.Decimal, error) {
	if err := Validate(price, rate); err != nil {
		return decimal.Zero, err
	}

	return WithTax(price, rate), nil
}

// Validate checks a duty-free price and a percentage tax rate against the
// storage precision.
func Validate(price, rate decimal.Decimal) error {
	if err := ValidatePrice(price); err != nil {
		return err
	}

	return ValidateRate(rate)
}

func ValidatePrice(price decimal.Decimal) error {
	switch {
	case price.IsNegative():
		return apperr.Invalid("price_duty_free", "must not be negative")
	case !price.Equal(Round2(price)):
		return apperr.Invalid("price_duty_free", "must have at most 2 decimal places")
	case price.GreaterThanOrEqual(MaxPrice):
		return apperr.Invalidf("price_duty_free", "must be lower than %s", MaxPrice)
	}

	return nil
}

func ValidateRate(rate decimal.Decimal) error {
	switch {
	case rate.IsNegative():
		return apperr.Invalid("tax_rate", "must not be negative")
	case !rate.Equal(Round2(rate)):
		return apperr.Invalid("tax_rate", "must have at most 2 decimal places")
	case rate.GreaterThanOrEqual(MaxRate):
		return apperr.Invalidf("tax_rate", "must be lower than %s", MaxRate)
	}

	return nil
}

// Sum adds amounts; an empty input yields zero.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}

	return total
}

// Format renders an amount with exactly two decimals, e.g. "42850.00".
func Format(d decimal.Decimal) string {
	return d.StringFixed(Places)
}
