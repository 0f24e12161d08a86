package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense represents one shared cost event inside a group.
// The engine never creates an Expense itself; it consumes it and writes Status.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group owning this expense.
	GroupID string

	// Description is a free-text label (e.g., "Groceries").
	Description string

	// Payer is the participant who fronted the money.
	Payer Participant

	// Amount is the total cost. Always positive.
	Amount decimal.Decimal

	// Policy is the splitting policy the shares were derived with.
	Policy SplitPolicy

	// Status is pending until every share has a paid Payment.
	Status ExpenseStatus

	// Date is the day the expense happened.
	Date time.Time

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64

	// Items are the line items of an item-wise expense. Empty for other policies.
	Items []Item

	// Shares is the allocated share set, ordered by Position.
	Shares []ExpenseShare
}

// Locked reports whether the expense can no longer be edited.
func (e *Expense) Locked() bool {
	return e.Status == ExpenseFullyPaid
}

// ShareOf returns the share owned by p, or nil.
func (e *Expense) ShareOf(p Participant) *ExpenseShare {
	for i := range e.Shares {
		if e.Shares[i].Participant == p {
			return &e.Shares[i]
		}
	}
	return nil
}

// ExpenseShare is the portion of an expense's amount assigned to one participant.
type ExpenseShare struct {
	ID        string
	ExpenseID string

	// Participant owns the share.
	Participant Participant

	// Amount has two fraction digits.
	Amount decimal.Decimal

	// Percentage is only set for percentage-policy shares.
	Percentage decimal.NullDecimal

	// Position is the creation order inside the batch. Position 0 absorbs the
	// rounding residual.
	Position int

	// Payment is nil while nobody has acted on the share.
	Payment *Payment
}

// State derives the ledger state from the share's payment.
func (s *ExpenseShare) State() ShareState {
	if s.Payment == nil {
		return ShareUnpaid
	}
	switch s.Payment.Status {
	case PaymentPaid:
		return SharePaid
	case PaymentRejected:
		return ShareRejected
	default:
		return SharePending
	}
}

// IsPaid reports whether the share has a Payment with status paid.
func (s *ExpenseShare) IsPaid() bool {
	return s.State() == SharePaid
}

// Payment is the settlement record for one share.
type Payment struct {
	ID      string
	ShareID string

	// PaidBy is who performed the payment.
	PaidBy Participant

	Status PaymentStatus

	// PaidDate is zero until the payment is marked paid.
	PaidDate time.Time

	// Note is free text; a rejection stores its reason here.
	Note string

	// UpdatedAt is the Unix timestamp of the last transition.
	UpdatedAt int64
}

// Item is a single line item of an item-wise expense.
// Items shared among several participants are split equally among them.
type Item struct {
	ID          string
	Description string
	Amount      decimal.Decimal
	AssignedTo  []Participant
}
