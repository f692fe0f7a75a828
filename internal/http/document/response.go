package document

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/entreprenapp/backoffice/internal/actor"
	"github.com/entreprenapp/backoffice/internal/sales"
)

type partyResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	City       string    `json:"city"`
	PostalCode string    `json:"postal_code"`
}

type lineResponse struct {
	ID                   uuid.UUID       `json:"id"`
	ItemID               uuid.UUID       `json:"item_id"`
	Label                string          `json:"label"`
	Quantity             int             `json:"quantity"`
	PriceDutyFree        decimal.Decimal `json:"price_duty_free"`
	TaxRate              decimal.Decimal `json:"tax_rate"`
	SubtotalDutyFree     decimal.Decimal `json:"subtotal_duty_free"`
	SubtotalTax          decimal.Decimal `json:"subtotal_tax"`
	SubtotalIncludingTax decimal.Decimal `json:"subtotal_including_tax"`
}

type totalsResponse struct {
	TotalDutyFree     string `json:"total_duty_free"`
	TotalTax          string `json:"total_tax"`
	TotalIncludingTax string `json:"total_including_tax"`
	TaxAmount         string `json:"tax_amount"`
}

type documentResponse struct {
	ID           uuid.UUID      `json:"id"`
	Kind         sales.Kind     `json:"kind"`
	Number       int64          `json:"number"`
	Title        string         `json:"title"`
	Date         string         `json:"date"`
	ValidityDate *string        `json:"validity_date,omitempty"`
	IsPaid       *bool          `json:"is_paid,omitempty"`
	Saler        *partyResponse `json:"saler,omitempty"`
	Customer     *partyResponse `json:"customer,omitempty"`
	SalerID      uuid.UUID      `json:"saler_id"`
	CustomerID   uuid.UUID      `json:"customer_id"`
	Lines        []lineResponse `json:"lines"`
	Totals       totalsResponse `json:"totals"`
	IsActive     bool           `json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
	ModifiedAt   *time.Time     `json:"modified_at,omitempty"`
}

func toTotals(t sales.Totals) totalsResponse {
	return totalsResponse{
		TotalDutyFree:     t.DutyFree.StringFixed(2),
		TotalTax:          t.Tax.StringFixed(2),
		TotalIncludingTax: t.IncludingTax.StringFixed(2),
		TaxAmount:         t.TaxAmount.StringFixed(2),
	}
}

func toParty(a *actor.Actor) *partyResponse {
	if a == nil {
		return nil
	}

	return &partyResponse{ID: a.ID, Name: a.Name, Address: a.Address, City: a.City, PostalCode: a.PostalCode}
}

func toResponse(d *sales.Document) documentResponse {
	resp := documentResponse{
		ID:         d.ID,
		Kind:       d.Kind,
		Number:     d.Number,
		Title:      d.Title(),
		Date:       d.Date.Format(time.DateOnly),
		Saler:      toParty(d.Saler),
		Customer:   toParty(d.Customer),
		SalerID:    d.SalerID,
		CustomerID: d.CustomerID,
		Lines:      make([]lineResponse, 0, len(d.Lines)),
		Totals:     toTotals(d.Totals()),
		IsActive:   d.Active,
		CreatedAt:  d.CreatedAt,
		ModifiedAt: d.ModifiedAt,
	}

	switch d.Kind {
	case sales.KindEstimate:
		if d.ValidityDate != nil {
			resp.ValidityDate = new(d.ValidityDate.Format(time.DateOnly))
		}
	case sales.KindInvoice:
		resp.IsPaid = new(d.IsPaid)
	}

	for _, l := range d.Lines {
		line := lineResponse{ID: l.ID, ItemID: l.ItemID, Quantity: l.Quantity}

		if l.Item != nil {
			line.Label = l.Item.Label
			line.PriceDutyFree = l.Item.PriceDutyFree
			line.TaxRate = l.Item.TaxRate
			line.SubtotalDutyFree = l.SubtotalDutyFree()
			line.SubtotalTax = l.SubtotalTax()
			line.SubtotalIncludingTax = l.SubtotalIncludingTax()
		}

		resp.Lines = append(resp.Lines, line)
	}

	return resp
}

func toResponseList(docs []*sales.Document) []documentResponse {
	resp := make([]documentResponse, len(docs))
	for i, d := range docs {
		resp[i] = toResponse(d)
	}

	return resp
}
