package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/models"
)

// GetPayment retrieves a payment by ID.
func (s *SQLiteStore) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	payment := &models.Payment{}
	var (
		status   string
		paidDate sql.NullString
	)

	err := s.q.QueryRowContext(ctx,
		`SELECT id, share_id, paid_by, status, paid_date, note, updated_at
		 FROM payments WHERE id = ?`,
		paymentID,
	).Scan(&payment.ID, &payment.ShareID, participant(&payment.PaidBy), &status,
		&paidDate, &payment.Note, &payment.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("payment", paymentID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	if payment.Status, err = models.ParsePaymentStatus(status); err != nil {
		return nil, err
	}
	if payment.PaidDate, err = parseOptionalDate(paidDate); err != nil {
		return nil, err
	}
	return payment, nil
}

// UpsertPayment creates the payment of a share, or updates it when the share
// already has one.
func (s *SQLiteStore) UpsertPayment(ctx context.Context, payment *models.Payment) error {
	return upsertPayment(ctx, s.q, payment)
}

func upsertPayment(ctx context.Context, q querier, payment *models.Payment) error {
	// Generate ID if not set
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}
	if payment.UpdatedAt == 0 {
		payment.UpdatedAt = time.Now().Unix()
	}

	var paidDate any
	if !payment.PaidDate.IsZero() {
		paidDate = payment.PaidDate.Format(time.DateOnly)
	}

	// The share keeps the ID of its first payment.
	err := q.QueryRowContext(ctx,
		`INSERT INTO payments (id, share_id, paid_by, status, paid_date, note, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (share_id) DO UPDATE SET
		     paid_by = excluded.paid_by,
		     status = excluded.status,
		     paid_date = excluded.paid_date,
		     note = excluded.note,
		     updated_at = excluded.updated_at
		 RETURNING id`,
		payment.ID, payment.ShareID, participant(&payment.PaidBy), payment.Status.String(),
		paidDate, payment.Note, payment.UpdatedAt,
	).Scan(&payment.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert payment: %w", err)
	}
	return nil
}

func parseOptionalDate(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s.String, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s.String, err)
	}
	return t, nil
}
