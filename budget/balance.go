/*
balance.go - Distributable remainder and category balances

PURPOSE:
  Answers "how much can I spend from this category right now?" from the
  income, the base expenses, the category and the ledger. Nothing here
  mutates state.

BALANCE COMPONENTS:
  Persisted:  Balance carried in from closed months (may be negative)
  Allocated:  This month's allocation (policy dependent)
  Spent:      Expense total recorded against the active month

AVAILABILITY:
  Available = Persisted + Allocated - Spent

  Negative values are deficits and stay negative. Only aggregate views
  (TotalSavings) clamp with max(0, ...).

SEE ALSO:
  - policy.go: AllocatedThisMonth per policy
  - engine.go: views built on these helpers
*/
package budget

import "github.com/shopspring/decimal"

// =============================================================================
// INPUTS - Everything a policy may look at
// =============================================================================

// Inputs is a read-only view of the state handed to policies.
type Inputs struct {
	Income       decimal.Decimal
	BaseExpenses []BaseExpense
	Categories   []Category
	Ledger       *Ledger
	Month        Month
}

// TotalBaseExpenses sums base expense amounts.
func (in Inputs) TotalBaseExpenses() decimal.Decimal {
	total := decimal.Zero
	for _, e := range in.BaseExpenses {
		total = total.Add(e.Amount)
	}
	return total
}

// Remainder is income minus base expenses. It may be negative.
func (in Inputs) Remainder() decimal.Decimal {
	return in.Income.Sub(in.TotalBaseExpenses())
}

func (in Inputs) requirePositiveRemainder() (decimal.Decimal, error) {
	remainder := in.Remainder()
	if !remainder.IsPositive() {
		return decimal.Zero, &InsufficientIncomeError{
			Income:       in.Income,
			BaseExpenses: in.TotalBaseExpenses(),
			Remainder:    remainder,
		}
	}
	return remainder, nil
}

// =============================================================================
// CATEGORY BALANCE
// =============================================================================

// CategoryBalance is the computed balance of one category in the active month.
type CategoryBalance struct {
	CategoryID string
	Name       string
	Persisted  decimal.Decimal
	Allocated  decimal.Decimal
	Spent      decimal.Decimal
}

// Available returns Persisted + Allocated - Spent.
func (b CategoryBalance) Available() decimal.Decimal {
	return b.Persisted.Add(b.Allocated).Sub(b.Spent)
}

// MonthlyRemainder is what the month added to the category: Allocated - Spent.
func (b CategoryBalance) MonthlyRemainder() decimal.Decimal {
	return b.Allocated.Sub(b.Spent)
}

// IsDeficit reports a negative available balance.
func (b CategoryBalance) IsDeficit() bool {
	return b.Available().IsNegative()
}

// computeBalance builds the balance of the category at index.
func computeBalance(p AllocationPolicy, in Inputs, index int) CategoryBalance {
	c := in.Categories[index]
	return CategoryBalance{
		CategoryID: c.ID,
		Name:       c.Name,
		Persisted:  c.PersistedBalance,
		Allocated:  p.AllocatedThisMonth(in, index),
		Spent:      in.Ledger.SpentThisMonth(in.Month, c.ID),
	}
}

// computeBalances builds balances for every category in order.
func computeBalances(p AllocationPolicy, in Inputs) []CategoryBalance {
	out := make([]CategoryBalance, len(in.Categories))
	for i := range in.Categories {
		out[i] = computeBalance(p, in, i)
	}
	return out
}

// positivePart returns max(0, d).
func positivePart(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
