package budget

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// ROLLOVER - Close the active month, open the next
// =============================================================================

// CategoryClose is the closing snapshot of one category at rollover.
type CategoryClose struct {
	CategoryID    string
	Name          string
	Allocated     decimal.Decimal
	Spent         decimal.Decimal
	Remainder     decimal.Decimal // Allocated - Spent
	CarriedOver   bool
	BalanceBefore decimal.Decimal // persisted balance before the close
	BalanceAfter  decimal.Decimal // persisted balance after the close
}

// RolloverResult describes a completed month advance.
type RolloverResult struct {
	ClosedMonth Month
	NewMonth    Month
	Categories  []CategoryClose
	IncomeReset bool
}

// AdvanceMonth closes the active month and makes the next one active.
//
// Carry-over categories fold the month's remainder (which may be negative)
// into their persisted balance. Other categories keep their persisted
// balance, so the unspent allocation is dropped. Every category's
// materialised allocation is cleared. Auto accrual also clears the income.
//
// The close is computed for all categories before anything is written: a
// single failing category aborts the whole rollover.
func (e *Engine) AdvanceMonth() (*RolloverResult, error) {
	e.mu.Lock()
	in := e.inputsLocked()

	result := &RolloverResult{
		ClosedMonth: in.Month,
		NewMonth:    in.Month.Next(),
		IncomeReset: e.policy.ResetsIncomeAtRollover(),
	}

	next := make([]Category, len(e.categories))
	for i, c := range e.categories {
		if err := validateForClose(c); err != nil {
			e.mu.Unlock()
			e.logger.Warn("rollover aborted", "month", in.Month.String(), "error", err)
			return nil, err
		}

		bal := computeBalance(e.policy, in, i)
		remainder := bal.MonthlyRemainder()

		closed := c
		closed.Allocated = decimal.Zero
		if c.CarryOver {
			closed.PersistedBalance = c.PersistedBalance.Add(remainder)
		}
		next[i] = closed

		result.Categories = append(result.Categories, CategoryClose{
			CategoryID:    c.ID,
			Name:          c.Name,
			Allocated:     bal.Allocated,
			Spent:         bal.Spent,
			Remainder:     remainder,
			CarriedOver:   c.CarryOver,
			BalanceBefore: c.PersistedBalance,
			BalanceAfter:  closed.PersistedBalance,
		})
	}

	e.categories = next
	e.period.ActiveMonth = result.NewMonth
	if result.IncomeReset {
		e.period.MonthlyIncome = decimal.NullDecimal{}
	}
	snap := e.snapshotLocked()
	e.unlockAndPublish(snap)

	e.logger.Info("month advanced",
		"closed", result.ClosedMonth.String(),
		"active", result.NewMonth.String(),
		"income_reset", result.IncomeReset)
	return result, nil
}

func validateForClose(c Category) error {
	switch {
	case c.ID == "":
		return &RolloverError{Name: c.Name, Reason: "category has no id"}
	case c.PercentShare.IsNegative():
		return &RolloverError{CategoryID: c.ID, Name: c.Name, Reason: "negative percent share"}
	}
	return nil
}
