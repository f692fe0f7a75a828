// Package importer reads catalog items from spreadsheet CSV exports.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/entreprenapp/backoffice/internal/apperr"
	"github.com/entreprenapp/backoffice/internal/audit"
	"github.com/entreprenapp/backoffice/internal/catalog"
	enc "github.com/entreprenapp/backoffice/internal/encoding"
)

var ErrNoHeader = errors.New("no header row with label and price columns")

// Parser turns a CSV file into item creation params. The delimiter is
// sniffed from the header line (";" "," or tab) and the encoding is
// detected, so files saved by French spreadsheet tools work unchanged.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(r io.Reader) ([]catalog.CreateParams, error) {
	utf8r, _, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	raw, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	reader := csv.NewReader(strings.NewReader(string(raw)))
	reader.Comma = sniffDelimiter(string(raw))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperr.Invalidf("file", "malformed csv: %v", err)
	}

	for idx, row := range rows {
		cols, ok := matchHeader(row)
		if !ok {
			continue
		}

		return parseRows(cols, rows[idx+1:], idx+1)
	}

	return nil, apperr.Invalid("file", ErrNoHeader.Error())
}

// sniffDelimiter picks the separator occurring most on the first
// non-empty line.
func sniffDelimiter(text string) rune {
	var line string

	for l := range strings.SplitSeq(text, "\n") {
		if strings.TrimSpace(l) != "" {
			line = l
			break
		}
	}

	best, bestCount := ';', 0

	for _, d := range []rune{';', ',', '\t'} {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}

	return best
}

// parseRows converts data rows. headerRowNum is the 0-based index of the
// header so that reported row numbers match what a spreadsheet shows.
func parseRows(cols columns, rows [][]string, headerRowNum int) ([]catalog.CreateParams, error) {
	var params []catalog.CreateParams

	for i, row := range rows {
		rowNum := headerRowNum + i + 1

		if blank(row) {
			continue
		}

		p, err := parseRow(cols, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		params = append(params, p)
	}

	if len(params) == 0 {
		return nil, apperr.Invalid("file", "no items found")
	}

	return params, nil
}

func parseRow(cols columns, row []string) (catalog.CreateParams, error) {
	label := cols.cell(row, fieldLabel)
	if label == "" {
		return catalog.CreateParams{}, apperr.Invalid("label", "required")
	}

	price, err := parseAmount(cols.cell(row, fieldPrice))
	if err != nil {
		return catalog.CreateParams{}, apperr.Invalidf("price_duty_free", "not a number: %q", cols.cell(row, fieldPrice))
	}

	rate := decimal.Zero

	if s := cols.cell(row, fieldTax); s != "" {
		rate, err = parseAmount(s)
		if err != nil {
			return catalog.CreateParams{}, apperr.Invalidf("tax_rate", "not a number: %q", s)
		}
	}

	p := catalog.CreateParams{
		Label:         label,
		Description:   cols.cell(row, fieldDescription),
		PriceDutyFree: price,
		TaxRate:       rate,
	}

	item := catalog.Item{Label: p.Label, PriceDutyFree: p.PriceDutyFree, TaxRate: p.TaxRate}
	if err := item.Validate(); err != nil {
		return catalog.CreateParams{}, err
	}

	return p, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}

	return true
}

// Creator is the subset of the catalog service an import needs.
type Creator interface {
	CreateBatch(ctx context.Context, who audit.Identity, params []catalog.CreateParams) ([]*catalog.Item, error)
}

// Service parses a file and stores every item in one batch. Nothing is
// stored when any row is invalid.
type Service struct {
	parser  *Parser
	catalog Creator
}

func NewService(c Creator) *Service {
	return &Service{parser: NewParser(), catalog: c}
}

func (s *Service) Import(ctx context.Context, who audit.Identity, r io.Reader) ([]*catalog.Item, error) {
	params, err := s.parser.Parse(r)
	if err != nil {
		return nil, err
	}

	items, err := s.catalog.CreateBatch(ctx, who, params)
	if err != nil {
		return nil, fmt.Errorf("storing items: %w", err)
	}

	return items, nil
}
