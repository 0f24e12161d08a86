package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/settleup/internal/events"
	"github.com/mmynk/settleup/internal/ledger"
	"github.com/mmynk/settleup/internal/lock"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// MarkPaidInput identifies the share to settle and how it was settled.
type MarkPaidInput struct {
	GroupID string
	ShareID string

	// Payer defaults to the share owner.
	Payer models.Participant

	// PaidDate defaults to today.
	PaidDate time.Time
	Note     string

	// RecomputeStatus promotes the expense to fully paid in the same
	// transaction when this was its last unpaid share.
	RecomputeStatus bool
}

// PaymentResult is the outcome of a payment transition.
type PaymentResult struct {
	Share   *models.ExpenseShare
	Payment *models.Payment

	// FullyPaid is set when the transition made the expense fully paid.
	FullyPaid bool
}

// MarkPaid confirms that a share has been settled. Concurrent calls on the
// same share are serialized and leave exactly one payment record.
func (s *LedgerService) MarkPaid(ctx context.Context, in MarkPaidInput) (*PaymentResult, error) {
	var (
		res     PaymentResult
		expense *models.Expense
	)

	err := s.locker.WithLock(ctx, lock.ShareKey(in.ShareID), func(ctx context.Context) error {
		return s.store.InTx(ctx, func(tx storage.Store) error {
			share, e, err := loadShare(ctx, tx, in.GroupID, in.ShareID)
			if err != nil {
				return err
			}
			if err := ledger.CheckEditable(e); err != nil {
				return err
			}
			if err := s.checkPayer(ctx, tx, in.GroupID, in.Payer); err != nil {
				return err
			}

			payment, err := ledger.MarkPaid(share, in.Payer, ledger.PaidOptions{PaidDate: in.PaidDate, Note: in.Note}, s.now())
			if err != nil {
				return err
			}
			if err := tx.UpsertPayment(ctx, payment); err != nil {
				return err
			}
			res.Share, res.Payment = share, payment

			if !in.RecomputeStatus {
				return nil
			}
			// Re-read so shares paid by other calls are seen.
			expense, err = tx.GetExpense(ctx, e.ID)
			if err != nil {
				return err
			}
			res.FullyPaid, err = recompute(ctx, tx, expense)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Share marked paid",
		"share_id", res.Share.ID,
		"expense_id", res.Share.ExpenseID,
		"paid_by", res.Payment.PaidBy,
		"amount", res.Share.Amount,
	)
	s.metrics.ObservePayment(models.PaymentPaid.String())
	s.publish(ctx, paymentEvent(events.PaymentPaid, in.GroupID, res.Share, res.Payment, s.now()))
	if res.FullyPaid {
		s.announceFullyPaid(ctx, expense)
	}
	return &res, nil
}

// RequestPayment creates the pending placeholder of a share, or resets a
// rejected one. A paid share fails with ErrInvalidTransition.
func (s *LedgerService) RequestPayment(ctx context.Context, groupID, shareID string, payer models.Participant, note string) (*PaymentResult, error) {
	var res PaymentResult

	err := s.locker.WithLock(ctx, lock.ShareKey(shareID), func(ctx context.Context) error {
		return s.store.InTx(ctx, func(tx storage.Store) error {
			share, e, err := loadShare(ctx, tx, groupID, shareID)
			if err != nil {
				return err
			}
			if err := ledger.CheckEditable(e); err != nil {
				return err
			}
			if err := s.checkPayer(ctx, tx, groupID, payer); err != nil {
				return err
			}

			payment, err := ledger.RequestPayment(share, payer, note, s.now())
			if err != nil {
				return err
			}
			if err := tx.UpsertPayment(ctx, payment); err != nil {
				return err
			}
			res.Share, res.Payment = share, payment
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Payment requested", "share_id", shareID, "payment_id", res.Payment.ID)
	s.metrics.ObservePayment(models.PaymentPending.String())
	s.publish(ctx, paymentEvent(events.PaymentRequested, groupID, res.Share, res.Payment, s.now()))
	return &res, nil
}

// RejectPayment marks a payment rejected with reason as its note. The share
// keeps counting as owed.
func (s *LedgerService) RejectPayment(ctx context.Context, groupID, paymentID, reason string) (*PaymentResult, error) {
	payment, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	var res PaymentResult
	err = s.locker.WithLock(ctx, lock.ShareKey(payment.ShareID), func(ctx context.Context) error {
		return s.store.InTx(ctx, func(tx storage.Store) error {
			share, e, err := loadShare(ctx, tx, groupID, payment.ShareID)
			if err != nil {
				return err
			}
			if err := ledger.CheckEditable(e); err != nil {
				return err
			}
			if share.Payment == nil || share.Payment.ID != paymentID {
				return fmt.Errorf("%w: payment %s", models.ErrResourceNotFound, paymentID)
			}

			if err := ledger.RejectPayment(share.Payment, reason, s.now()); err != nil {
				return err
			}
			if err := tx.UpsertPayment(ctx, share.Payment); err != nil {
				return err
			}
			res.Share, res.Payment = share, share.Payment
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Payment rejected", "payment_id", paymentID, "share_id", res.Share.ID, "reason", reason)
	s.metrics.ObservePayment(models.PaymentRejected.String())
	s.publish(ctx, paymentEvent(events.PaymentRejected, groupID, res.Share, res.Payment, s.now()))
	return &res, nil
}

// RecomputeExpenseStatus promotes an expense to fully paid once every share
// is paid. Calling it again on the same state changes nothing.
func (s *LedgerService) RecomputeExpenseStatus(ctx context.Context, groupID, expenseID string) (*models.Expense, error) {
	var (
		expense *models.Expense
		changed bool
	)

	err := s.locker.WithLock(ctx, lock.ExpenseKey(expenseID), func(ctx context.Context) error {
		return s.store.InTx(ctx, func(tx storage.Store) error {
			var err error
			expense, err = loadExpense(ctx, tx, groupID, expenseID)
			if err != nil {
				return err
			}
			changed, err = recompute(ctx, tx, expense)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.announceFullyPaid(ctx, expense)
	}
	return expense, nil
}

func (s *LedgerService) announceFullyPaid(ctx context.Context, e *models.Expense) {
	slog.Info("Expense fully paid", "expense_id", e.ID, "group_id", e.GroupID, "amount", e.Amount)
	s.metrics.ObserveFullyPaid()
	s.publish(ctx, events.Event{
		Type:      events.ExpenseFullyPaid,
		GroupID:   e.GroupID,
		ExpenseID: e.ID,
		Amount:    e.Amount,
		Timestamp: s.now(),
	})
}

// checkPayer requires an explicit payer to belong to the group.
func (s *LedgerService) checkPayer(ctx context.Context, tx storage.Store, groupID string, payer models.Participant) error {
	if payer.IsZero() {
		return nil
	}
	group, err := tx.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	return checkInGroup(group, payer)
}

func recompute(ctx context.Context, tx storage.Store, e *models.Expense) (bool, error) {
	if !ledger.RecomputeExpenseStatus(e) {
		return false, nil
	}
	if err := tx.UpdateExpenseStatus(ctx, e.ID, e.Status); err != nil {
		return false, fmt.Errorf("failed to update expense status: %w", err)
	}
	return true, nil
}

// loadShare fetches a share with its owning expense and checks both belong to
// groupID.
func loadShare(ctx context.Context, tx storage.Store, groupID, shareID string) (*models.ExpenseShare, *models.Expense, error) {
	share, err := tx.GetShare(ctx, shareID)
	if err != nil {
		return nil, nil, err
	}
	e, err := tx.GetExpense(ctx, share.ExpenseID)
	if err != nil {
		return nil, nil, err
	}
	if err := ledger.CheckMembership(groupID, e, share); err != nil {
		return nil, nil, err
	}
	return share, e, nil
}

func paymentEvent(t events.Type, groupID string, share *models.ExpenseShare, p *models.Payment, now time.Time) events.Event {
	return events.Event{
		Type:        t,
		GroupID:     groupID,
		ExpenseID:   share.ExpenseID,
		ShareID:     share.ID,
		Participant: share.Participant,
		Amount:      share.Amount,
		Note:        p.Note,
		Timestamp:   now,
	}
}
