package ledger

import (
	"testing"
	"time"

	"github.com/mmynk/settleup/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	now   = time.Date(2024, time.March, 9, 17, 45, 0, 0, time.UTC)
	alice = models.Member("alice")
	bob   = models.Member("bob")
)

func newShare(id string, owner models.Participant) *models.ExpenseShare {
	return &models.ExpenseShare{
		ID:          id,
		ExpenseID:   "e1",
		Participant: owner,
		Amount:      decimal.RequireFromString("45.00"),
	}
}

func TestMarkPaid(t *testing.T) {
	t.Run("creates the payment and defaults the date to today", func(t *testing.T) {
		s := newShare("s1", bob)

		p, err := MarkPaid(s, bob, PaidOptions{Note: "cash"}, now)
		require.NoError(t, err)

		assert.Same(t, s.Payment, p)
		assert.Equal(t, "s1", p.ShareID)
		assert.Equal(t, bob, p.PaidBy)
		assert.Equal(t, models.PaymentPaid, p.Status)
		assert.Equal(t, time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC), p.PaidDate)
		assert.Equal(t, "cash", p.Note)
		assert.Equal(t, now.Unix(), p.UpdatedAt)
		assert.Equal(t, models.SharePaid, s.State())
	})

	t.Run("keeps an explicit paid date", func(t *testing.T) {
		paid := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)

		p, err := MarkPaid(newShare("s1", bob), bob, PaidOptions{PaidDate: paid}, now)
		require.NoError(t, err)
		assert.Equal(t, paid, p.PaidDate)
	})

	t.Run("updates an existing payment in place", func(t *testing.T) {
		s := newShare("s1", bob)
		s.Payment = &models.Payment{ID: "p1", ShareID: "s1", PaidBy: bob, Status: models.PaymentPending}

		p, err := MarkPaid(s, alice, PaidOptions{}, now)
		require.NoError(t, err)
		assert.Equal(t, "p1", p.ID)
		assert.Equal(t, alice, p.PaidBy, "someone else may settle the share")
	})

	t.Run("re-marking after rejection is allowed", func(t *testing.T) {
		s := newShare("s1", bob)
		s.Payment = &models.Payment{ID: "p1", ShareID: "s1", PaidBy: bob, Status: models.PaymentRejected, Note: "wrong amount"}

		p, err := MarkPaid(s, bob, PaidOptions{Note: "second try"}, now)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentPaid, p.Status)
		assert.Equal(t, "second try", p.Note)
	})

	t.Run("empty payer means the owner paid", func(t *testing.T) {
		p, err := MarkPaid(newShare("s1", bob), models.Participant{}, PaidOptions{}, now)
		require.NoError(t, err)
		assert.Equal(t, bob, p.PaidBy)
	})

	t.Run("share without expense", func(t *testing.T) {
		s := newShare("s1", bob)
		s.ExpenseID = ""

		_, err := MarkPaid(s, bob, PaidOptions{}, now)
		require.ErrorIs(t, err, models.ErrResourceNotFound)
		assert.Nil(t, s.Payment, "a failed call must not attach a payment")
	})

	t.Run("nil share", func(t *testing.T) {
		_, err := MarkPaid(nil, bob, PaidOptions{}, now)
		assert.ErrorIs(t, err, models.ErrResourceNotFound)
	})
}

func TestRequestPayment(t *testing.T) {
	tests := []struct {
		name    string
		prior   *models.Payment
		wantErr error
	}{
		{name: "unpaid"},
		{name: "pending", prior: &models.Payment{Status: models.PaymentPending}},
		{name: "rejected", prior: &models.Payment{Status: models.PaymentRejected, Note: "no"}, wantErr: models.ErrInvalidTransition},
		{name: "paid", prior: &models.Payment{Status: models.PaymentPaid}, wantErr: models.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newShare("s1", bob)
			s.Payment = tt.prior

			p, err := RequestPayment(s, bob, "sent via bank", now)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.prior.Status, s.Payment.Status, "state is unchanged")
				assert.NotEqual(t, "sent via bank", s.Payment.Note)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.PaymentPending, p.Status)
			assert.True(t, p.PaidDate.IsZero())
			assert.Equal(t, "sent via bank", p.Note)
			assert.Equal(t, models.SharePending, s.State())
		})
	}
}

func TestRejectPayment(t *testing.T) {
	s := newShare("s1", bob)
	p, err := MarkPaid(s, bob, PaidOptions{Note: "cash"}, now)
	require.NoError(t, err)

	require.NoError(t, RejectPayment(p, "never arrived", now.Add(time.Hour)))
	assert.Equal(t, models.PaymentRejected, p.Status)
	assert.Equal(t, "never arrived", p.Note)
	assert.Equal(t, models.ShareRejected, s.State())
	assert.False(t, s.IsPaid())

	assert.ErrorIs(t, RejectPayment(nil, "x", now), models.ErrResourceNotFound)
}

func TestRecomputeExpenseStatus(t *testing.T) {
	paid := func(id string, owner models.Participant) models.ExpenseShare {
		s := newShare(id, owner)
		s.Payment = &models.Payment{ShareID: id, Status: models.PaymentPaid}
		return *s
	}
	unpaid := func(id string, owner models.Participant) models.ExpenseShare { return *newShare(id, owner) }
	withStatus := func(id string, owner models.Participant, st models.PaymentStatus) models.ExpenseShare {
		s := newShare(id, owner)
		s.Payment = &models.Payment{ShareID: id, Status: st}
		return *s
	}

	tests := []struct {
		name        string
		shares      []models.ExpenseShare
		wantStatus  models.ExpenseStatus
		wantChanged bool
	}{
		{name: "no shares never becomes fully paid", wantStatus: models.ExpensePending},
		{
			name:        "all shares paid",
			shares:      []models.ExpenseShare{paid("s1", alice), paid("s2", bob)},
			wantStatus:  models.ExpenseFullyPaid,
			wantChanged: true,
		},
		{
			name:       "one share without payment",
			shares:     []models.ExpenseShare{paid("s1", alice), unpaid("s2", bob)},
			wantStatus: models.ExpensePending,
		},
		{
			name:       "one share pending",
			shares:     []models.ExpenseShare{paid("s1", alice), withStatus("s2", bob, models.PaymentPending)},
			wantStatus: models.ExpensePending,
		},
		{
			name:       "one share rejected",
			shares:     []models.ExpenseShare{paid("s1", alice), withStatus("s2", bob, models.PaymentRejected)},
			wantStatus: models.ExpensePending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &models.Expense{ID: "e1", Status: models.ExpensePending, Shares: tt.shares}

			assert.Equal(t, tt.wantChanged, RecomputeExpenseStatus(e))
			assert.Equal(t, tt.wantStatus, e.Status)

			// Idempotent: the second call sees the same state and changes nothing.
			assert.False(t, RecomputeExpenseStatus(e))
			assert.Equal(t, tt.wantStatus, e.Status)
		})
	}

	t.Run("never downgrades", func(t *testing.T) {
		e := &models.Expense{ID: "e1", Status: models.ExpenseFullyPaid, Shares: []models.ExpenseShare{unpaid("s1", bob)}}
		assert.False(t, RecomputeExpenseStatus(e))
		assert.Equal(t, models.ExpenseFullyPaid, e.Status)
	})
}

func TestCheckEditable(t *testing.T) {
	e := &models.Expense{ID: "e1", Status: models.ExpensePending}
	assert.NoError(t, CheckEditable(e))

	e.Status = models.ExpenseFullyPaid
	assert.ErrorIs(t, CheckEditable(e), models.ErrLockedForEditing)
}

func TestCheckMembership(t *testing.T) {
	e := &models.Expense{ID: "e1", GroupID: "g1"}
	s := newShare("s1", bob)

	assert.NoError(t, CheckMembership("g1", e, s))
	assert.ErrorIs(t, CheckMembership("g2", e, s), models.ErrResourceNotFound)

	s.ExpenseID = "e2"
	assert.ErrorIs(t, CheckMembership("g1", e, s), models.ErrResourceNotFound)
}
