/*
policy.go - Allocation policies

PURPOSE:
  An AllocationPolicy decides how the distributable remainder (income minus
  base expenses) becomes category money. Three policies exist; one is chosen
  when the Engine is constructed and never switched per call.

POLICIES:
  FixedSplit (fixed_split):
    - Explicit distribute. The first category receives remainder × 0.5, every
      other category receives remainder × 0.5 × share/100 (not renormalised).
    - Each distribute adds the allocation again. Callers guard repeats.

  CappedPercent (capped_percent):
    - Explicit distribute. Every category receives remainder × share/100.
    - At most Limit (default 2) successful distributions per active month.

  AutoAccrual (auto_accrual):
    - No distribute action. A category's allocation for the active month is
      remainder × share/100, computed on demand.
    - Monthly income is cleared at rollover.

COMMON RULE:
  available = persistedBalance + AllocatedThisMonth - spentThisMonth

EXAMPLE:
  income 3000, base expenses 1000, share 20, persisted 100, nothing spent:
    remainder = 2000, allocated = 400, available = 500

SEE ALSO:
  - balance.go: Inputs and balance math
  - engine.go: applies Distribute results
  - factory/policy.go: builds policies from configuration
*/
package budget

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// POLICY INTERFACE
// =============================================================================

type PolicyName string

const (
	PolicyFixedSplit    PolicyName = "fixed_split"
	PolicyCappedPercent PolicyName = "capped_percent"
	PolicyAutoAccrual   PolicyName = "auto_accrual"
)

// AllocationPolicy is the strategy behind the allocation engine.
type AllocationPolicy interface {
	Name() PolicyName

	// Share is what the category at index earns from one allocation of
	// remainder. Used by Distribute and as the goal accrual rate.
	Share(remainder decimal.Decimal, categories []Category, index int) decimal.Decimal

	// AllocatedThisMonth is the category's allocation in the active month.
	AllocatedThisMonth(in Inputs, index int) decimal.Decimal

	// Distribute computes per-category allocations keyed by category id.
	// It never mutates its inputs.
	Distribute(in Inputs) (map[string]decimal.Decimal, error)

	// ResetsIncomeAtRollover reports whether monthly income is cleared when
	// the month advances.
	ResetsIncomeAtRollover() bool

	// ShareWarnings validates share totals. Over or under allocation is
	// tolerated, so this only produces advisory messages.
	ShareWarnings(categories []Category) []string
}

var hundred = decimal.NewFromInt(100)

func percentOf(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(hundred)
}

// =============================================================================
// POLICY A - FIXED SPLIT
// =============================================================================

// FixedSplit gives the first category a fixed fraction of the remainder and
// splits the rest by share.
type FixedSplit struct {
	// FirstShare is the fraction reserved for the first category. Unset means 0.5.
	FirstShare decimal.NullDecimal
}

func (p FixedSplit) Name() PolicyName { return PolicyFixedSplit }

func (p FixedSplit) firstShare() decimal.Decimal {
	if !p.FirstShare.Valid {
		return decimal.NewFromFloat(0.5)
	}
	return p.FirstShare.Decimal
}

func (p FixedSplit) Share(remainder decimal.Decimal, categories []Category, index int) decimal.Decimal {
	if index < 0 || index >= len(categories) {
		return decimal.Zero
	}
	first := remainder.Mul(p.firstShare())
	if index == 0 {
		return first
	}
	return percentOf(remainder.Sub(first), categories[index].PercentShare)
}

func (p FixedSplit) AllocatedThisMonth(in Inputs, index int) decimal.Decimal {
	return in.Categories[index].Allocated
}

func (p FixedSplit) Distribute(in Inputs) (map[string]decimal.Decimal, error) {
	remainder, err := in.requirePositiveRemainder()
	if err != nil {
		return nil, err
	}
	return distributeShares(p, remainder, in.Categories), nil
}

func (p FixedSplit) ResetsIncomeAtRollover() bool { return false }

func (p FixedSplit) ShareWarnings(categories []Category) []string {
	if len(categories) < 2 {
		return negativeShareWarnings(categories)
	}
	warnings := negativeShareWarnings(categories)
	return append(warnings, shareTotalWarning(categories[1:], "categories after the first")...)
}

// =============================================================================
// POLICY B - CAPPED PERCENT OF REMAINDER
// =============================================================================

// DefaultDistributionLimit is the CappedPercent limit when none is configured.
const DefaultDistributionLimit = 2

// CappedPercent distributes remainder × share/100 to every category, at
// most Limit times per month.
type CappedPercent struct {
	Limit int
}

func (p CappedPercent) Name() PolicyName { return PolicyCappedPercent }

func (p CappedPercent) limit() int {
	if p.Limit <= 0 {
		return DefaultDistributionLimit
	}
	return p.Limit
}

func (p CappedPercent) Share(remainder decimal.Decimal, categories []Category, index int) decimal.Decimal {
	if index < 0 || index >= len(categories) {
		return decimal.Zero
	}
	return percentOf(remainder, categories[index].PercentShare)
}

func (p CappedPercent) AllocatedThisMonth(in Inputs, index int) decimal.Decimal {
	return in.Categories[index].Allocated
}

func (p CappedPercent) Distribute(in Inputs) (map[string]decimal.Decimal, error) {
	previous := in.Ledger.DistributionCountForMonth(in.Month)
	if previous >= p.limit() {
		return nil, &DistributionLimitExceededError{
			Month:     in.Month,
			Previous:  previous,
			Attempted: previous + 1,
			Limit:     p.limit(),
		}
	}
	remainder, err := in.requirePositiveRemainder()
	if err != nil {
		return nil, err
	}
	return distributeShares(p, remainder, in.Categories), nil
}

func (p CappedPercent) ResetsIncomeAtRollover() bool { return false }

func (p CappedPercent) ShareWarnings(categories []Category) []string {
	warnings := negativeShareWarnings(categories)
	return append(warnings, shareTotalWarning(categories, "all categories")...)
}

// =============================================================================
// POLICY C - CONTINUOUS AUTO ACCRUAL
// =============================================================================

// AutoAccrual accrues remainder × share/100 to every category continuously.
type AutoAccrual struct{}

func (p AutoAccrual) Name() PolicyName { return PolicyAutoAccrual }

func (p AutoAccrual) Share(remainder decimal.Decimal, categories []Category, index int) decimal.Decimal {
	if index < 0 || index >= len(categories) {
		return decimal.Zero
	}
	return percentOf(remainder, categories[index].PercentShare)
}

func (p AutoAccrual) AllocatedThisMonth(in Inputs, index int) decimal.Decimal {
	return p.Share(in.Remainder(), in.Categories, index)
}

func (p AutoAccrual) Distribute(Inputs) (map[string]decimal.Decimal, error) {
	return nil, ErrDistributeUnsupported
}

func (p AutoAccrual) ResetsIncomeAtRollover() bool { return true }

func (p AutoAccrual) ShareWarnings(categories []Category) []string {
	warnings := negativeShareWarnings(categories)
	return append(warnings, shareTotalWarning(categories, "all categories")...)
}

// =============================================================================
// HELPERS
// =============================================================================

func distributeShares(p AllocationPolicy, remainder decimal.Decimal, categories []Category) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(categories))
	for i, c := range categories {
		out[c.ID] = p.Share(remainder, categories, i)
	}
	return out
}

func shareTotalWarning(categories []Category, scope string) []string {
	if len(categories) == 0 {
		return nil
	}
	total := decimal.Zero
	for _, c := range categories {
		total = total.Add(c.PercentShare)
	}
	if total.Equal(hundred) {
		return nil
	}
	if total.GreaterThan(hundred) {
		return []string{fmt.Sprintf("shares of %s add up to %s%%: over-allocated by %s%%", scope, total, total.Sub(hundred))}
	}
	return []string{fmt.Sprintf("shares of %s add up to %s%%: %s%% of the remainder is unallocated", scope, total, hundred.Sub(total))}
}

func negativeShareWarnings(categories []Category) []string {
	var out []string
	for _, c := range categories {
		if c.PercentShare.IsNegative() {
			out = append(out, fmt.Sprintf("category %q has a negative share (%s%%)", c.Name, c.PercentShare))
		}
	}
	return out
}
