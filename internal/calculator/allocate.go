// Package calculator implements the split allocator and the balance calculator.
// Everything here is pure computation over data passed in; nothing is persisted.
package calculator

import (
	"fmt"

	"github.com/mmynk/settleup/internal/models"
	"github.com/shopspring/decimal"
)

// ShareAllocation is one computed share, not yet persisted.
type ShareAllocation struct {
	Participant models.Participant  `json:"participant"`
	Amount      decimal.Decimal     `json:"amount"`
	Percentage  decimal.NullDecimal `json:"percentage"`
}

// Allocation is the output of a split: the share set in creation order.
type Allocation struct {
	Policy models.SplitPolicy
	Shares []ShareAllocation

	// Residual is what reconciliation moved onto the first share.
	Residual decimal.Decimal

	// Drift is amount minus Σ shares after allocation. Zero whenever the policy reconciles.
	Drift decimal.Decimal
}

// Total returns Σ share amounts.
func (a *Allocation) Total() decimal.Decimal {
	return sumShares(a.Shares)
}

// Drifted reports whether the shares miss the amount by more than Epsilon.
func (a *Allocation) Drifted() bool {
	return a.Drift.Abs().GreaterThan(Epsilon)
}

// WeightedParticipant is an equal-split input.
type WeightedParticipant struct {
	Participant models.Participant `json:"participant"`
	Weight      int                `json:"weight"`
}

// PercentageShare is a percentage-split input.
type PercentageShare struct {
	Participant models.Participant `json:"participant"`
	Percentage  decimal.Decimal    `json:"percentage"`
}

// CustomShare is a custom-split input.
type CustomShare struct {
	Participant models.Participant `json:"participant"`
	Amount      decimal.Decimal    `json:"amount"`
}

// EqualSplitMode decides what the equal split does with its rounding residual.
type EqualSplitMode uint8

const (
	// EqualPreserve leaves the residual in place and only reports it through Allocation.Drift.
	EqualPreserve EqualSplitMode = iota
	// EqualReconcile moves the residual onto the first share like the other policies.
	EqualReconcile
	// EqualStrict fails with ErrReconciliationDrift when the residual exceeds Epsilon.
	EqualStrict
)

func (m EqualSplitMode) String() string {
	switch m {
	case EqualPreserve:
		return "preserve"
	case EqualReconcile:
		return "reconcile"
	case EqualStrict:
		return "strict"
	default:
		return fmt.Sprintf("EqualSplitMode(%d)", uint8(m))
	}
}

// ParseEqualSplitMode parses "preserve", "reconcile" or "strict". Empty means preserve.
func ParseEqualSplitMode(s string) (EqualSplitMode, error) {
	switch s {
	case "", "preserve":
		return EqualPreserve, nil
	case "reconcile":
		return EqualReconcile, nil
	case "strict":
		return EqualStrict, nil
	default:
		return 0, fmt.Errorf("unknown equal split mode %q", s)
	}
}

type options struct {
	equalMode EqualSplitMode
}

// Option configures an allocation.
type Option func(*options)

// WithEqualSplitMode sets the equal split residual handling.
func WithEqualSplitMode(m EqualSplitMode) Option {
	return func(o *options) { o.equalMode = m }
}

// Request carries the policy-specific input for Allocate. Only the slice matching
// Policy is read.
type Request struct {
	Policy        models.SplitPolicy
	Amount        decimal.Decimal
	Participants  []WeightedParticipant
	Percentages   []PercentageShare
	Amounts       []CustomShare
	ValidateTotal bool
}

// Allocate dispatches to the allocation function of req.Policy.
// Item-wise expenses produce no shares.
func Allocate(req Request, opts ...Option) (*Allocation, error) {
	switch req.Policy {
	case models.PolicyEqual:
		return AllocateEqual(req.Amount, req.Participants, opts...)
	case models.PolicyPercentage:
		return AllocatePercentage(req.Amount, req.Percentages)
	case models.PolicyCustom:
		return AllocateCustom(req.Amount, req.Amounts, req.ValidateTotal)
	case models.PolicyItemwise:
		if err := checkAmount(req.Amount); err != nil {
			return nil, err
		}
		return &Allocation{Policy: models.PolicyItemwise, Residual: decimal.Zero, Drift: decimal.Zero}, nil
	default:
		return nil, fmt.Errorf("%w: unknown policy %s", models.ErrInvalidAllocation, req.Policy)
	}
}

// AllocateEqual splits amount by head count.
//
//	totalWeight = Σ max(weight, 1)
//	share       = round(amount / totalWeight × weight, 2)
//
// By default the residual is not reconciled (see EqualSplitMode).
func AllocateEqual(amount decimal.Decimal, participants []WeightedParticipant, opts ...Option) (*Allocation, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		return nil, fmt.Errorf("%w: must have at least one participant", models.ErrInvalidAllocation)
	}

	keys := make([]models.Participant, len(participants))
	totalWeight := int64(0)
	for i, p := range participants {
		keys[i] = p.Participant
		totalWeight += int64(models.EffectiveWeight(p.Weight))
	}
	if err := checkParticipants(keys); err != nil {
		return nil, err
	}

	perHead := amount.Div(decimal.NewFromInt(totalWeight))
	shares := make([]ShareAllocation, len(participants))
	for i, p := range participants {
		weight := decimal.NewFromInt(int64(models.EffectiveWeight(p.Weight)))
		shares[i] = ShareAllocation{
			Participant: p.Participant,
			Amount:      perHead.Mul(weight).Round(2),
		}
	}

	alloc := &Allocation{Policy: models.PolicyEqual, Shares: shares, Residual: decimal.Zero}
	if o.equalMode == EqualReconcile {
		residual, err := reconcile(amount, shares, residualTarget)
		if err != nil {
			return nil, err
		}
		alloc.Residual = residual
	}
	alloc.Drift = amount.Sub(alloc.Total())

	if o.equalMode == EqualStrict && alloc.Drifted() {
		return nil, fmt.Errorf("%w: equal split of %s leaves %s unallocated",
			models.ErrReconciliationDrift, amount.StringFixed(2), alloc.Drift.StringFixed(2))
	}
	return alloc, nil
}

// AllocatePercentage splits amount by percentages that must add up to 100 (±Epsilon).
// The residual is absorbed by the first share that stays non-negative.
func AllocatePercentage(amount decimal.Decimal, entries []PercentageShare) (*Allocation, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: must have at least one participant", models.ErrInvalidAllocation)
	}

	keys := make([]models.Participant, len(entries))
	total := decimal.Zero
	for i, e := range entries {
		if e.Percentage.IsNegative() {
			return nil, fmt.Errorf("%w: negative percentage %s for %s",
				models.ErrInvalidAllocation, e.Percentage, e.Participant)
		}
		keys[i] = e.Participant
		total = total.Add(e.Percentage)
	}
	if err := checkParticipants(keys); err != nil {
		return nil, err
	}
	if !WithinEpsilon(total, hundred) {
		return nil, fmt.Errorf("%w: percentages add up to %s, want 100", models.ErrInvalidAllocation, total)
	}

	shares := make([]ShareAllocation, len(entries))
	for i, e := range entries {
		shares[i] = ShareAllocation{
			Participant: e.Participant,
			Amount:      amount.Mul(e.Percentage).Div(hundred).Round(2),
			Percentage:  decimal.NewNullDecimal(e.Percentage),
		}
	}

	residual, err := reconcile(amount, shares, residualTarget)
	if err != nil {
		return nil, err
	}
	alloc := &Allocation{Policy: models.PolicyPercentage, Shares: shares, Residual: residual}
	alloc.Drift = amount.Sub(alloc.Total())
	return alloc, nil
}

// AllocateCustom uses explicit amounts, one share per entry, rounded to cents.
// With validateTotal the amounts must add up to amount (±Epsilon) and the residual
// is absorbed by the first share that stays non-negative. Without it the entries are taken as given; the
// payer's own share may be left implicit.
func AllocateCustom(amount decimal.Decimal, entries []CustomShare, validateTotal bool) (*Allocation, error) {
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: must have at least one participant", models.ErrInvalidAllocation)
	}

	keys := make([]models.Participant, len(entries))
	shares := make([]ShareAllocation, len(entries))
	for i, e := range entries {
		if e.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: negative amount %s for %s",
				models.ErrInvalidAllocation, e.Amount, e.Participant)
		}
		keys[i] = e.Participant
		shares[i] = ShareAllocation{Participant: e.Participant, Amount: e.Amount.Round(2)}
	}
	if err := checkParticipants(keys); err != nil {
		return nil, err
	}

	alloc := &Allocation{Policy: models.PolicyCustom, Shares: shares, Residual: decimal.Zero}
	if validateTotal {
		if total := alloc.Total(); !WithinEpsilon(total, amount) {
			return nil, fmt.Errorf("%w: custom amounts add up to %s, want %s",
				models.ErrInvalidAllocation, total.StringFixed(2), amount.StringFixed(2))
		}
		residual, err := reconcile(amount, shares, residualTarget)
		if err != nil {
			return nil, err
		}
		alloc.Residual = residual
	}
	alloc.Drift = amount.Sub(alloc.Total())
	return alloc, nil
}

// checkAmount requires a positive amount with at most two fraction digits.
func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", models.ErrInvalidAllocation, amount)
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: amount %s has more than two fraction digits", models.ErrInvalidAllocation, amount)
	}
	return nil
}

func checkParticipants(ps []models.Participant) error {
	seen := make(map[models.Participant]bool, len(ps))
	for _, p := range ps {
		if p.IsZero() {
			return fmt.Errorf("%w: empty participant", models.ErrInvalidAllocation)
		}
		if seen[p] {
			return fmt.Errorf("%w: duplicate participant %s", models.ErrInvalidAllocation, p)
		}
		seen[p] = true
	}
	return nil
}
