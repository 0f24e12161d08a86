package calculator

import (
	"sort"

	"github.com/mmynk/settleup/internal/models"
	"github.com/shopspring/decimal"
)

// Transfer is a suggested payment that clears part of the group's debts.
type Transfer struct {
	From   models.Participant `json:"from"`
	To     models.Participant `json:"to"`
	Amount decimal.Decimal    `json:"amount"`
}

// SimplifyDebts suggests transfers that clear the given net balances.
// This is a report over net positions and never replaces the per-expense edges
// of CalculatePairwiseDebts.
//
// Algorithm: greedy matching of the largest debtor with the largest creditor
// until one side is exhausted. Amounts under Epsilon are treated as settled.
func SimplifyDebts(balances []MemberBalance) []Transfer {
	type position struct {
		who    models.Participant
		amount decimal.Decimal
	}

	var creditors, debtors []position
	for _, bal := range balances {
		switch {
		case bal.NetBalance.GreaterThan(Epsilon):
			creditors = append(creditors, position{bal.Participant, bal.NetBalance})
		case bal.NetBalance.LessThan(Epsilon.Neg()):
			debtors = append(debtors, position{bal.Participant, bal.NetBalance.Neg()}) // Make positive
		}
	}

	byAmount := func(ps []position) func(i, j int) bool {
		return func(i, j int) bool {
			if c := ps[i].amount.Cmp(ps[j].amount); c != 0 {
				return c > 0
			}
			return ps[i].who.String() < ps[j].who.String()
		}
	}
	sort.Slice(creditors, byAmount(creditors))
	sort.Slice(debtors, byAmount(debtors))

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor := &debtors[i]
		creditor := &creditors[j]

		// Amount to settle is minimum of what debtor owes and creditor is owed
		amount := decimal.Min(debtor.amount, creditor.amount)
		if amount.GreaterThanOrEqual(Epsilon) {
			transfers = append(transfers, Transfer{From: debtor.who, To: creditor.who, Amount: amount})
		}

		debtor.amount = debtor.amount.Sub(amount)
		creditor.amount = creditor.amount.Sub(amount)

		if debtor.amount.LessThan(Epsilon) {
			i++
		}
		if creditor.amount.LessThan(Epsilon) {
			j++
		}
	}
	return transfers
}
