package importer

import "strings"

// field is one of the columns an item row carries.
type field int

const (
	fieldLabel field = iota
	fieldDescription
	fieldPrice
	fieldTax
)

// aliases lists the header names accepted for each field, lower-cased.
// Label and price are mandatory, description and tax are optional.
var aliases = map[field][]string{
	fieldLabel:       {"label", "libellé", "libelle", "name", "désignation", "designation"},
	fieldDescription: {"description", "desc"},
	fieldPrice:       {"price", "prix", "prix ht", "price_duty_free", "unit price"},
	fieldTax:         {"tax", "tva", "tax_rate", "vat", "taux tva"},
}

var required = []field{fieldLabel, fieldPrice}

// columns maps each recognised field to its cell index in a row.
type columns map[field]int

// matchHeader returns the column layout described by row, or false when
// row lacks a mandatory column.
func matchHeader(row []string) (columns, bool) {
	cols := make(columns)

	for i, cell := range row {
		name := strings.ToLower(strings.TrimSpace(cell))
		if name == "" {
			continue
		}

		for f, names := range aliases {
			if _, seen := cols[f]; seen {
				continue
			}

			for _, alias := range names {
				if name == alias {
					cols[f] = i
				}
			}
		}
	}

	for _, f := range required {
		if _, ok := cols[f]; !ok {
			return nil, false
		}
	}

	return cols, true
}

// cell returns the trimmed value of f in row, or "" when the column is
// absent from the layout or the row is short.
func (c columns) cell(row []string, f field) string {
	idx, ok := c[f]
	if !ok || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
