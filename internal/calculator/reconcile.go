package calculator

import (
	"fmt"

	"github.com/mmynk/settleup/internal/models"
	"github.com/shopspring/decimal"
)

// Epsilon is the tolerance for every "does this reconcile" comparison: one cent.
var Epsilon = decimal.New(1, -2)

var hundred = decimal.NewFromInt(100)

// residualTarget is the share that preferably absorbs the rounding residual: the first one created.
const residualTarget = 0

// reconcile moves amount - Σ shares onto one share so the set adds up exactly.
// shares[target] takes it unless that would make it negative, in which case the
// first share that stays non-negative does. It returns the residual that was
// moved. Every policy that reconciles goes through here.
func reconcile(amount decimal.Decimal, shares []ShareAllocation, target int) (decimal.Decimal, error) {
	if len(shares) == 0 || target < 0 || target >= len(shares) {
		return decimal.Zero, nil
	}
	diff := amount.Sub(sumShares(shares))
	if diff.IsZero() {
		return diff, nil
	}

	absorbs := func(i int) bool { return !shares[i].Amount.Add(diff).IsNegative() }
	if !absorbs(target) {
		target = -1
		for i := range shares {
			if absorbs(i) {
				target = i
				break
			}
		}
		if target < 0 {
			return decimal.Zero, fmt.Errorf("%w: no share can absorb a residual of %s",
				models.ErrInvalidAllocation, diff.StringFixed(2))
		}
	}
	shares[target].Amount = shares[target].Amount.Add(diff)
	return diff, nil
}

func sumShares(shares []ShareAllocation) decimal.Decimal {
	total := decimal.Zero
	for _, s := range shares {
		total = total.Add(s.Amount)
	}
	return total
}

// Drift returns amount minus the sum of the given share amounts.
func Drift(amount decimal.Decimal, amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return amount.Sub(total)
}

// WithinEpsilon reports whether a and b differ by at most one cent.
func WithinEpsilon(a, b decimal.Decimal) bool {
	return !a.Sub(b).Abs().GreaterThan(Epsilon)
}
