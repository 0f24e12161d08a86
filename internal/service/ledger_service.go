package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/events"
	"github.com/mmynk/settleup/internal/ledger"
	"github.com/mmynk/settleup/internal/lock"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// LedgerService records expenses, allocates their shares, tracks payments and
// reports balances. It is the entry point the expense-creation,
// payment-confirmation and reporting workflows call into.
type LedgerService struct {
	store     storage.Store
	locker    lock.Locker
	publisher events.Publisher
	metrics   *metrics.Metrics
	equalMode calculator.EqualSplitMode
	now       func() time.Time
}

// Option configures a LedgerService.
type Option func(*LedgerService)

// WithLocker serializes mutations through l instead of an in-process lock.
func WithLocker(l lock.Locker) Option {
	return func(s *LedgerService) { s.locker = l }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *LedgerService) { s.metrics = m }
}

// WithEqualSplitMode sets how equal splits treat rounding drift.
func WithEqualSplitMode(mode calculator.EqualSplitMode) Option {
	return func(s *LedgerService) { s.equalMode = mode }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *LedgerService) { s.now = now }
}

// NewLedgerService creates a new LedgerService with the given storage backend.
func NewLedgerService(store storage.Store, opts ...Option) *LedgerService {
	s := &LedgerService{
		store:     store,
		locker:    lock.NewLocalLocker(),
		publisher: events.NopPublisher{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SplitInput selects the split policy and its policy-specific input.
type SplitInput struct {
	Policy models.SplitPolicy

	// Participants of an equal split. Empty means every member and contact of
	// the group. Weights come from the group.
	Participants []models.Participant

	// Percentages of a percentage split, in share order.
	Percentages []calculator.PercentageShare

	// Amounts of a custom split, in share order.
	Amounts []calculator.CustomShare

	// ValidateTotal makes a custom split fail unless it adds up to the amount.
	ValidateTotal bool
}

// ExpenseInput describes an expense to record or the new state of an edited one.
type ExpenseInput struct {
	Description string
	Payer       models.Participant
	Amount      decimal.Decimal

	// Date defaults to today.
	Date  time.Time
	Items []models.Item
	Split SplitInput
}

// RawSplit is one entry of a caller-specified share set. Key is a share ID of
// the expense, a user ID of the group or a contact ID of the group, tried in
// that order.
type RawSplit struct {
	Key        string
	Amount     decimal.Decimal
	Percentage decimal.NullDecimal
}

// CreateExpense records an expense and allocates its shares. Allocation
// errors are returned before anything is written.
func (s *LedgerService) CreateExpense(ctx context.Context, groupID string, in ExpenseInput) (*models.Expense, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := checkExpenseInput(group, in); err != nil {
		return nil, err
	}

	alloc, err := s.allocate(group, in.Amount, in.Split)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		GroupID:     groupID,
		Description: in.Description,
		Payer:       in.Payer,
		Amount:      in.Amount,
		Policy:      in.Split.Policy,
		Status:      models.ExpensePending,
		Date:        s.dateOrToday(in.Date),
		Items:       in.Items,
		Shares:      toShares(alloc.Shares),
	}

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	s.logDrift(expense, alloc)
	slog.Info("Expense created",
		"expense_id", expense.ID,
		"group_id", groupID,
		"policy", expense.Policy,
		"amount", expense.Amount,
		"shares", len(expense.Shares),
	)
	s.publish(ctx, sharesAllocated(expense, s.now()))
	return expense, nil
}

// UpdateExpense edits an expense and re-allocates its shares as a whole. Old
// shares and their payments are discarded. A fully paid expense cannot be
// edited.
func (s *LedgerService) UpdateExpense(ctx context.Context, groupID, expenseID string, in ExpenseInput) (*models.Expense, error) {
	var (
		expense *models.Expense
		alloc   *calculator.Allocation
	)

	err := s.locker.WithLock(ctx, lock.ExpenseKey(expenseID), func(ctx context.Context) error {
		return s.store.InTx(ctx, func(tx storage.Store) error {
			var err error
			expense, err = loadExpense(ctx, tx, groupID, expenseID)
			if err != nil {
				return err
			}
			if err := ledger.CheckEditable(expense); err != nil {
				return err
			}

			group, err := tx.GetGroup(ctx, groupID)
			if err != nil {
				return err
			}
			if err := checkExpenseInput(group, in); err != nil {
				return err
			}
			alloc, err = s.allocate(group, in.Amount, in.Split)
			if err != nil {
				return err
			}

			expense.Description = in.Description
			expense.Payer = in.Payer
			expense.Amount = in.Amount
			expense.Policy = in.Split.Policy
			expense.Date = s.dateOrToday(in.Date)
			expense.Items = in.Items
			expense.Shares = toShares(alloc.Shares)

			if err := tx.UpdateExpense(ctx, expense); err != nil {
				return fmt.Errorf("failed to update expense: %w", err)
			}
			if err := tx.ReplaceShares(ctx, expense.ID, expense.Shares); err != nil {
				return fmt.Errorf("failed to replace shares: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logDrift(expense, alloc)
	slog.Info("Expense updated", "expense_id", expense.ID, "policy", expense.Policy, "shares", len(expense.Shares))
	s.publish(ctx, sharesAllocated(expense, s.now()))
	return expense, nil
}

// SplitBySpecifiedShares replaces the shares of an expense with caller-given
// amounts. Keys that resolve to nothing are skipped. The result is a custom
// split, or a percentage split when every entry carries a percentage.
func (s *LedgerService) SplitBySpecifiedShares(ctx context.Context, groupID, expenseID string, raw []RawSplit, validateTotal bool) (*models.Expense, error) {
	var expense *models.Expense

	err := s.locker.WithLock(ctx, lock.ExpenseKey(expenseID), func(ctx context.Context) error {
		return s.store.InTx(ctx, func(tx storage.Store) error {
			var err error
			expense, err = loadExpense(ctx, tx, groupID, expenseID)
			if err != nil {
				return err
			}
			if err := ledger.CheckEditable(expense); err != nil {
				return err
			}
			group, err := tx.GetGroup(ctx, groupID)
			if err != nil {
				return err
			}

			entries, pcts := resolveRawSplits(expense, group, raw)
			alloc, err := calculator.AllocateCustom(expense.Amount, entries, validateTotal)
			s.metrics.ObserveAllocation(models.PolicyCustom.String(), err)
			if err != nil {
				return err
			}

			shares := toShares(alloc.Shares)
			policy := models.PolicyCustom
			if len(shares) > 0 && len(pcts) == len(shares) {
				policy = models.PolicyPercentage
			}
			for i := range shares {
				if pct, ok := pcts[i]; ok {
					shares[i].Percentage = decimal.NewNullDecimal(pct)
				}
			}

			if policy != expense.Policy {
				expense.Policy = policy
				if err := tx.UpdateExpense(ctx, expense); err != nil {
					return fmt.Errorf("failed to update expense: %w", err)
				}
			}
			expense.Shares = shares
			if err := tx.ReplaceShares(ctx, expense.ID, expense.Shares); err != nil {
				return fmt.Errorf("failed to replace shares: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	slog.Info("Expense split by specified shares", "expense_id", expense.ID, "requested", len(raw), "shares", len(expense.Shares))
	s.publish(ctx, sharesAllocated(expense, s.now()))
	return expense, nil
}

// DeleteExpense removes an expense with its shares and payments. A fully paid
// expense cannot be deleted.
func (s *LedgerService) DeleteExpense(ctx context.Context, groupID, expenseID string) error {
	var expense *models.Expense

	err := s.locker.WithLock(ctx, lock.ExpenseKey(expenseID), func(ctx context.Context) error {
		return s.store.InTx(ctx, func(tx storage.Store) error {
			var err error
			expense, err = loadExpense(ctx, tx, groupID, expenseID)
			if err != nil {
				return err
			}
			if err := ledger.CheckEditable(expense); err != nil {
				return err
			}
			return tx.DeleteExpense(ctx, expenseID)
		})
	})
	if err != nil {
		return err
	}

	slog.Info("Expense deleted", "expense_id", expenseID, "group_id", groupID)
	s.publish(ctx, events.Event{
		Type:      events.ExpenseDeleted,
		GroupID:   groupID,
		ExpenseID: expenseID,
		Amount:    expense.Amount,
		Timestamp: s.now(),
	})
	return nil
}

// GetExpense returns an expense of the group with its shares and payments.
func (s *LedgerService) GetExpense(ctx context.Context, groupID, expenseID string) (*models.Expense, error) {
	return loadExpense(ctx, s.store, groupID, expenseID)
}

// allocate runs the split policy against the group registry.
func (s *LedgerService) allocate(group *models.Group, amount decimal.Decimal, in SplitInput) (*calculator.Allocation, error) {
	req := calculator.Request{
		Policy:        in.Policy,
		Amount:        amount,
		Percentages:   in.Percentages,
		Amounts:       in.Amounts,
		ValidateTotal: in.ValidateTotal,
	}

	var err error
	switch in.Policy {
	case models.PolicyEqual:
		req.Participants, err = weightedParticipants(group, in.Participants)
	case models.PolicyPercentage:
		for _, p := range in.Percentages {
			err = errors.Join(err, checkInGroup(group, p.Participant))
		}
	case models.PolicyCustom:
		for _, a := range in.Amounts {
			err = errors.Join(err, checkInGroup(group, a.Participant))
		}
	}
	if err != nil {
		return nil, err
	}

	alloc, err := calculator.Allocate(req, calculator.WithEqualSplitMode(s.equalMode))
	s.metrics.ObserveAllocation(in.Policy.String(), err)
	if err != nil {
		return nil, err
	}
	return alloc, nil
}

// logDrift reports an equal split left off by rounding. Custom splits without
// validation leave the payer's part implicit and are not reported.
func (s *LedgerService) logDrift(e *models.Expense, alloc *calculator.Allocation) {
	if e.Policy != models.PolicyEqual || !alloc.Drifted() {
		return
	}
	slog.Warn("Equal split does not reconcile",
		"expense_id", e.ID,
		"amount", e.Amount,
		"allocated", alloc.Total(),
		"drift", alloc.Drift,
		"mode", s.equalMode,
	)
	s.metrics.ObserveDrift(e.Policy.String(), alloc.Drift)
}

func (s *LedgerService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		slog.Warn("Failed to publish event", "type", e.Type, "expense_id", e.ExpenseID, "error", err)
	}
}

func (s *LedgerService) dateOrToday(d time.Time) time.Time {
	if d.IsZero() {
		d = s.now()
	}
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// loadExpense fetches an expense and checks it belongs to groupID.
func loadExpense(ctx context.Context, store storage.Store, groupID, expenseID string) (*models.Expense, error) {
	expense, err := store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense.GroupID != groupID {
		return nil, fmt.Errorf("%w: expense %s in group %s", models.ErrResourceNotFound, expenseID, groupID)
	}
	return expense, nil
}

func checkExpenseInput(group *models.Group, in ExpenseInput) error {
	if !in.Split.Policy.Valid() {
		return fmt.Errorf("%w: unknown split policy %s", models.ErrInvalidAllocation, in.Split.Policy)
	}
	if in.Payer.IsZero() {
		return fmt.Errorf("%w: payer is required", models.ErrInvalidArgument)
	}
	if err := checkInGroup(group, in.Payer); err != nil {
		return err
	}
	for _, item := range in.Items {
		for _, p := range item.AssignedTo {
			if err := checkInGroup(group, p); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkInGroup(group *models.Group, p models.Participant) error {
	if !group.Has(p) {
		return fmt.Errorf("%w: %s in group %s", models.ErrResourceNotFound, p, group.ID)
	}
	return nil
}

func weightedParticipants(group *models.Group, ps []models.Participant) ([]calculator.WeightedParticipant, error) {
	if len(ps) == 0 {
		ps = group.Participants()
	}
	out := make([]calculator.WeightedParticipant, 0, len(ps))
	for _, p := range ps {
		w, ok := group.WeightOf(p)
		if !ok {
			return nil, checkInGroup(group, p)
		}
		out = append(out, calculator.WeightedParticipant{Participant: p, Weight: w})
	}
	return out, nil
}

// resolveRawSplits maps raw keys to participants. pcts holds the percentage of
// each resolved entry that carries one, by entry index.
func resolveRawSplits(expense *models.Expense, group *models.Group, raw []RawSplit) ([]calculator.CustomShare, map[int]decimal.Decimal) {
	entries := make([]calculator.CustomShare, 0, len(raw))
	pcts := make(map[int]decimal.Decimal)

	for _, r := range raw {
		p, ok := resolveKey(expense, group, r.Key)
		if !ok {
			slog.Warn("Skipping unresolved split key", "expense_id", expense.ID, "key", r.Key)
			continue
		}
		if r.Percentage.Valid {
			pcts[len(entries)] = r.Percentage.Decimal
		}
		entries = append(entries, calculator.CustomShare{Participant: p, Amount: r.Amount})
	}
	return entries, pcts
}

func resolveKey(expense *models.Expense, group *models.Group, key string) (models.Participant, bool) {
	for _, share := range expense.Shares {
		if share.ID == key {
			return share.Participant, true
		}
	}
	if p := models.Member(key); group.Has(p) {
		return p, true
	}
	if p := models.Contact(key); group.Has(p) {
		return p, true
	}
	return models.Participant{}, false
}

func toShares(allocated []calculator.ShareAllocation) []models.ExpenseShare {
	shares := make([]models.ExpenseShare, len(allocated))
	for i, a := range allocated {
		shares[i] = models.ExpenseShare{
			Participant: a.Participant,
			Amount:      a.Amount,
			Percentage:  a.Percentage,
			Position:    i,
		}
	}
	return shares
}

func sharesAllocated(e *models.Expense, now time.Time) events.Event {
	return events.Event{
		Type:      events.SharesAllocated,
		GroupID:   e.GroupID,
		ExpenseID: e.ID,
		Amount:    e.Amount,
		Timestamp: now,
	}
}
