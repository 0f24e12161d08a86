// Package ledger is the payment state machine of expense shares.
//
// A share moves UNPAID (no Payment) → PENDING → PAID, and a payment can be
// REJECTED. Functions here mutate the in-memory records they are given and do
// no I/O; callers persist the result inside their own transaction.
package ledger

import (
	"fmt"
	"time"

	"github.com/mmynk/settleup/internal/models"
)

// PaidOptions are the optional attributes of a MarkPaid call.
type PaidOptions struct {
	// PaidDate defaults to the day of the call.
	PaidDate time.Time
	Note     string
}

// MarkPaid records that payer settled share. The Payment is created when
// absent, otherwise updated in place. Any prior state is accepted, including
// rejected: re-marking after a rejection is a fresh transition.
//
// MarkPaid does not recompute the owning expense's status.
func MarkPaid(share *models.ExpenseShare, payer models.Participant, opts PaidOptions, now time.Time) (*models.Payment, error) {
	if err := checkShare(share); err != nil {
		return nil, err
	}

	p := paymentFor(share, payer)
	p.Status = models.PaymentPaid
	p.PaidDate = opts.PaidDate
	if p.PaidDate.IsZero() {
		p.PaidDate = day(now)
	}
	p.Note = opts.Note
	p.UpdatedAt = now.Unix()
	return p, nil
}

// RequestPayment creates or resets the pending placeholder of share. A paid
// or rejected share cannot go back to pending; after a rejection only MarkPaid
// moves the share again.
func RequestPayment(share *models.ExpenseShare, payer models.Participant, note string, now time.Time) (*models.Payment, error) {
	if err := checkShare(share); err != nil {
		return nil, err
	}
	switch share.State() {
	case models.SharePaid:
		return nil, fmt.Errorf("%w: share %s is already paid", models.ErrInvalidTransition, share.ID)
	case models.ShareRejected:
		return nil, fmt.Errorf("%w: payment of share %s was rejected", models.ErrInvalidTransition, share.ID)
	}

	p := paymentFor(share, payer)
	p.Status = models.PaymentPending
	p.PaidDate = time.Time{}
	p.Note = note
	p.UpdatedAt = now.Unix()
	return p, nil
}

// RejectPayment marks payment rejected and keeps reason as its note.
// Nothing moves a rejected payment automatically afterwards.
func RejectPayment(payment *models.Payment, reason string, now time.Time) error {
	if payment == nil {
		return fmt.Errorf("%w: payment", models.ErrResourceNotFound)
	}
	payment.Status = models.PaymentRejected
	payment.Note = reason
	payment.UpdatedAt = now.Unix()
	return nil
}

// RecomputeExpenseStatus sets e fully paid when it has at least one share and
// every share has a paid Payment. It reports whether the status changed.
//
// The status never goes back to pending, so calling it again on the same state
// is a no-op.
func RecomputeExpenseStatus(e *models.Expense) bool {
	if e.Status == models.ExpenseFullyPaid || !AllSharesPaid(e) {
		return false
	}
	e.Status = models.ExpenseFullyPaid
	return true
}

// AllSharesPaid reports whether e has shares and all of them are paid.
func AllSharesPaid(e *models.Expense) bool {
	if len(e.Shares) == 0 {
		return false
	}
	for i := range e.Shares {
		if !e.Shares[i].IsPaid() {
			return false
		}
	}
	return true
}

// CheckEditable fails with ErrLockedForEditing once e is fully paid.
func CheckEditable(e *models.Expense) error {
	if e.Locked() {
		return fmt.Errorf("%w: expense %s is fully paid", models.ErrLockedForEditing, e.ID)
	}
	return nil
}

// CheckMembership fails with ErrResourceNotFound unless e belongs to groupID
// and share belongs to e.
func CheckMembership(groupID string, e *models.Expense, share *models.ExpenseShare) error {
	if e.GroupID != groupID {
		return fmt.Errorf("%w: expense %s in group %s", models.ErrResourceNotFound, e.ID, groupID)
	}
	if share.ExpenseID != e.ID {
		return fmt.Errorf("%w: share %s on expense %s", models.ErrResourceNotFound, share.ID, e.ID)
	}
	return nil
}

func checkShare(share *models.ExpenseShare) error {
	if share == nil {
		return fmt.Errorf("%w: share", models.ErrResourceNotFound)
	}
	if share.ExpenseID == "" {
		return fmt.Errorf("%w: share %s has no owning expense", models.ErrResourceNotFound, share.ID)
	}
	return nil
}

// paymentFor returns the payment of share, attaching a new one when absent.
// An empty payer means the share owner paid.
func paymentFor(share *models.ExpenseShare, payer models.Participant) *models.Payment {
	if payer.IsZero() {
		payer = share.Participant
	}
	if share.Payment == nil {
		share.Payment = &models.Payment{ShareID: share.ID}
	}
	share.Payment.PaidBy = payer
	return share.Payment
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
