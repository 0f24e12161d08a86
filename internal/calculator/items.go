package calculator

import (
	"fmt"

	"github.com/mmynk/settleup/internal/models"
	"github.com/shopspring/decimal"
)

// PersonItem is one participant's part of a line item.
type PersonItem struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// PersonSplit is one participant's item-wise breakdown.
type PersonSplit struct {
	Participant models.Participant `json:"participant"`
	Subtotal    decimal.Decimal    `json:"subtotal"`
	Tax         decimal.Decimal    `json:"tax"`
	Total       decimal.Decimal    `json:"total"`
	Items       []PersonItem       `json:"items"`
}

// CalculateItemBreakdown computes what each participant consumed on an item-wise
// expense. It is informational: item-wise expenses are settled as fully covered
// by the payer and this breakdown never feeds balances.
//
// Based on: person_total = person_subtotal × (1 + (total - subtotal) / subtotal),
// where subtotal is Σ item amounts and the difference is tax, tips and fees.
// An item assigned to several participants is split equally among them.
func CalculateItemBreakdown(items []models.Item, total decimal.Decimal) ([]PersonSplit, error) {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Amount)
	}
	if subtotal.IsZero() {
		return nil, fmt.Errorf("%w: item subtotal cannot be zero", models.ErrInvalidAllocation)
	}

	tax := total.Sub(subtotal)
	index := make(map[models.Participant]int)
	var splits []PersonSplit

	for _, item := range items {
		if len(item.AssignedTo) == 0 {
			continue
		}

		perPerson := item.Amount.Div(decimal.NewFromInt(int64(len(item.AssignedTo))))
		for _, p := range item.AssignedTo {
			i, ok := index[p]
			if !ok {
				i = len(splits)
				index[p] = i
				splits = append(splits, PersonSplit{Participant: p, Subtotal: decimal.Zero})
			}
			splits[i].Subtotal = splits[i].Subtotal.Add(perPerson)
			splits[i].Items = append(splits[i].Items, PersonItem{
				Description: item.Description,
				Amount:      perPerson.Round(2),
			})
		}
	}

	// Apply proportional tax and finalize at cents
	for i := range splits {
		s := &splits[i]
		s.Tax = s.Subtotal.Mul(tax).Div(subtotal).Round(2)
		s.Subtotal = s.Subtotal.Round(2)
		s.Total = s.Subtotal.Add(s.Tax)
	}
	return splits, nil
}
