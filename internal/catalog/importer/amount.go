package importer

import (
	"strings"

	"github.com/shopspring/decimal"
)

// parseAmount reads a price or rate written either the European way
// ("1.234,56", "19,6") or with a dot decimal separator ("1234.56").
// When both separators appear the rightmost one is the decimal separator.
// Currency and percent signs are ignored.
func parseAmount(s string) (decimal.Decimal, error) {
	clean := strings.NewReplacer("€", "", "%", "", " ", "", "\u00a0", "", "\u202f", "").Replace(s)

	comma := strings.LastIndex(clean, ",")
	dot := strings.LastIndex(clean, ".")

	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.Replace(clean, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		clean = strings.ReplaceAll(clean, ",", "")
	case comma >= 0:
		clean = strings.Replace(clean, ",", ".", 1)
	}

	return decimal.NewFromString(clean)
}
