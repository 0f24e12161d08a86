package calculator

import (
	"sort"

	"github.com/mmynk/settleup/internal/models"
	"github.com/shopspring/decimal"
)

// MemberBalance represents the balance information for one participant.
type MemberBalance struct {
	Participant models.Participant `json:"participant"`
	TotalOwed   decimal.Decimal    `json:"total_owed"`
	TotalPaid   decimal.Decimal    `json:"total_paid"`
	NetBalance  decimal.Decimal    `json:"net_balance"` // Positive = owed money, Negative = owes money
}

// DebtEdge is one outstanding share: From owes To the share amount for one expense.
type DebtEdge struct {
	From      models.Participant `json:"from"`
	To        models.Participant `json:"to"`
	Amount    decimal.Decimal    `json:"amount"`
	ExpenseID string             `json:"expense_id"`
	ShareID   string             `json:"share_id"`
	State     models.ShareState  `json:"state"`
}

// PairwiseDebts splits a participant's outstanding edges by direction.
type PairwiseDebts struct {
	Owes   []DebtEdge `json:"owes"`
	OwedTo []DebtEdge `json:"owed_to"`
}

// SettlementEdge is one share of a single expense, settled or not.
type SettlementEdge struct {
	From   models.Participant `json:"from"`
	To     models.Participant `json:"to"`
	Amount decimal.Decimal    `json:"amount"`
	Paid   bool               `json:"paid"`
}

// CalculateMemberBalance aggregates the expenses of one group for member.
//
// Algorithm:
//   - Item-wise expense: the payer is credited the full amount, nobody owes anything
//   - Other expenses: the payer is credited the full amount, the member owes their share
//   - net_balance = total_paid - total_owed
//
// Payments do not enter the balance: a paid, pending or rejected share counts
// the same. CalculateOutstandingBalance is the view with settlements applied.
func CalculateMemberBalance(expenses []models.Expense, member models.Participant) MemberBalance {
	return memberBalance(expenses, member, false)
}

// CalculateOutstandingBalance is CalculateMemberBalance with paid shares folded
// in as settlements: a paid share (owner != payer) grows the owner's paid total
// and the payer's owed total by the share amount. Pending and rejected payments
// settle nothing.
func CalculateOutstandingBalance(expenses []models.Expense, member models.Participant) MemberBalance {
	return memberBalance(expenses, member, true)
}

func memberBalance(expenses []models.Expense, member models.Participant, settle bool) MemberBalance {
	bal := MemberBalance{
		Participant: member,
		TotalOwed:   decimal.Zero,
		TotalPaid:   decimal.Zero,
	}

	for i := range expenses {
		e := &expenses[i]
		isPayer := e.Payer == member

		if isPayer {
			bal.TotalPaid = bal.TotalPaid.Add(e.Amount)
		}
		if e.Policy == models.PolicyItemwise {
			continue
		}

		for j := range e.Shares {
			s := &e.Shares[j]
			settled := settle && s.Participant != e.Payer && s.IsPaid()

			switch {
			case s.Participant == member:
				bal.TotalOwed = bal.TotalOwed.Add(s.Amount)
				if settled {
					bal.TotalPaid = bal.TotalPaid.Add(s.Amount)
				}
			case isPayer && settled:
				// The payer received this share back.
				bal.TotalOwed = bal.TotalOwed.Add(s.Amount)
			}
		}
	}

	bal.NetBalance = bal.TotalPaid.Sub(bal.TotalOwed)
	return bal
}

// CalculateGroupBalances returns one balance per participant. The given
// participants come first in order; anyone else appearing in the expenses
// (a payer or share owner no longer registered) follows, sorted.
func CalculateGroupBalances(expenses []models.Expense, participants []models.Participant) []MemberBalance {
	return groupBalances(expenses, participants, CalculateMemberBalance)
}

// CalculateOutstandingBalances is CalculateGroupBalances with settlements
// applied, see CalculateOutstandingBalance.
func CalculateOutstandingBalances(expenses []models.Expense, participants []models.Participant) []MemberBalance {
	return groupBalances(expenses, participants, CalculateOutstandingBalance)
}

func groupBalances(
	expenses []models.Expense,
	participants []models.Participant,
	balance func([]models.Expense, models.Participant) MemberBalance,
) []MemberBalance {
	seen := make(map[models.Participant]bool, len(participants))
	ordered := make([]models.Participant, 0, len(participants))
	for _, p := range participants {
		if !seen[p] {
			seen[p] = true
			ordered = append(ordered, p)
		}
	}

	var extra []models.Participant
	note := func(p models.Participant) {
		if !p.IsZero() && !seen[p] {
			seen[p] = true
			extra = append(extra, p)
		}
	}
	for i := range expenses {
		note(expenses[i].Payer)
		for j := range expenses[i].Shares {
			note(expenses[i].Shares[j].Participant)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i].String() < extra[j].String() })
	ordered = append(ordered, extra...)

	balances := make([]MemberBalance, len(ordered))
	for i, p := range ordered {
		balances[i] = balance(expenses, p)
	}
	return balances
}

// CalculatePairwiseDebts lists every unpaid share edge touching member.
// Each expense yields its own edge; edges between the same two participants are
// not netted.
func CalculatePairwiseDebts(expenses []models.Expense, member models.Participant) PairwiseDebts {
	debts := PairwiseDebts{Owes: []DebtEdge{}, OwedTo: []DebtEdge{}}

	for i := range expenses {
		e := &expenses[i]

		if e.Payer != member {
			if s := e.ShareOf(member); s != nil && !s.IsPaid() {
				debts.Owes = append(debts.Owes, edgeFor(e, s))
			}
			continue
		}

		for j := range e.Shares {
			s := &e.Shares[j]
			if s.Participant != member && !s.IsPaid() {
				debts.OwedTo = append(debts.OwedTo, edgeFor(e, s))
			}
		}
	}
	return debts
}

func edgeFor(e *models.Expense, s *models.ExpenseShare) DebtEdge {
	return DebtEdge{
		From:      s.Participant,
		To:        e.Payer,
		Amount:    s.Amount,
		ExpenseID: e.ID,
		ShareID:   s.ID,
		State:     s.State(),
	}
}

// CalculateExpenseSettlement lists who pays whom for a single expense.
// The payer's own share produces no edge.
func CalculateExpenseSettlement(e *models.Expense) []SettlementEdge {
	edges := make([]SettlementEdge, 0, len(e.Shares))
	for i := range e.Shares {
		s := &e.Shares[i]
		if s.Participant == e.Payer {
			continue
		}
		edges = append(edges, SettlementEdge{
			From:   s.Participant,
			To:     e.Payer,
			Amount: s.Amount,
			Paid:   s.IsPaid(),
		})
	}
	return edges
}
