package sales

import (
	"github.com/google/uuid"

	"github.com/entreprenapp/backoffice/internal/apperr"
	"github.com/entreprenapp/backoffice/internal/catalog"
)

// LineInput is one submitted line. LineID names an existing line of the
// document being updated; it is nil for a new line.
type LineInput struct {
	LineID   *uuid.UUID
	ItemID   uuid.UUID
	Quantity int
}

// linePlan is what an update does to a document's line set. Final holds
// every line in submission order.
type linePlan struct {
	Final   []*OrderLine
	Created []*OrderLine
	Changed []*OrderLine
	Removed []uuid.UUID
}

func validateLines(inputs []LineInput) error {
	seen := make(map[uuid.UUID]bool, len(inputs))

	for _, in := range inputs {
		if in.ItemID == uuid.Nil {
			return apperr.Invalid("item_id", "required")
		}

		if in.Quantity < 1 {
			return apperr.Invalid("quantity", "must be at least 1")
		}

		if in.Quantity > MaxQuantity {
			return apperr.Invalidf("quantity", "must be at most %d", MaxQuantity)
		}

		if in.LineID == nil {
			continue
		}

		if seen[*in.LineID] {
			return apperr.Invalidf("line_id", "line %s submitted twice", *in.LineID)
		}

		seen[*in.LineID] = true
	}

	return nil
}

func itemIDs(inputs []LineInput) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(inputs))
	ids := make([]uuid.UUID, 0, len(inputs))

	for _, in := range inputs {
		if !seen[in.ItemID] {
			seen[in.ItemID] = true
			ids = append(ids, in.ItemID)
		}
	}

	return ids
}

// planLines matches inputs against the current lines. Retained lines take
// the submitted item and quantity, unmatched inputs become new lines and
// current lines nobody submitted are removed.
func planLines(current []*OrderLine, inputs []LineInput, items map[uuid.UUID]*catalog.Item) (linePlan, error) {
	byID := make(map[uuid.UUID]*OrderLine, len(current))
	for _, l := range current {
		byID[l.ID] = l
	}

	var plan linePlan

	kept := make(map[uuid.UUID]bool, len(inputs))

	for _, in := range inputs {
		item := items[in.ItemID]

		if in.LineID == nil {
			line, err := NewOrderLine(item, in.Quantity)
			if err != nil {
				return linePlan{}, err
			}

			plan.Created = append(plan.Created, line)
			plan.Final = append(plan.Final, line)

			continue
		}

		line, ok := byID[*in.LineID]
		if !ok {
			return linePlan{}, apperr.Invalidf("line_id", "line %s is not part of this document", *in.LineID)
		}

		kept[line.ID] = true

		if line.ItemID != in.ItemID || line.Quantity != in.Quantity {
			line.ItemID = in.ItemID
			line.Item = item
			line.Quantity = in.Quantity
			plan.Changed = append(plan.Changed, line)
		}

		plan.Final = append(plan.Final, line)
	}

	for _, l := range current {
		if !kept[l.ID] {
			plan.Removed = append(plan.Removed, l.ID)
		}
	}

	return plan, nil
}
