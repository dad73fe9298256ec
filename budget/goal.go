/*
goal.go - Goal progress

PURPOSE:
  Derives how far a savings goal has come from its bound category's
  available balance and the baseline recorded when the goal was created.

FORMULAS:
  progress   = max(0, available - startBalance)
  remaining  = max(0, target - progress)
  percent    = target > 0 ? min(progress / target × 100, 100) : 0
  daysLeft   = max(0, ceil((targetDate - today) / 24h))
  months     = remaining <= 0 ? 0
             : accrual <= 0   ? unreachable
             : ceil(remaining / accrual)

  The monthly accrual is the category's policy share of one month's
  remainder.

DELETED CATEGORY:
  A goal whose category no longer exists yields a neutral result with
  CategoryFound=false instead of an error.
*/
package budget

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// GoalProgress is the derived progress of one goal.
type GoalProgress struct {
	GoalID          string
	CategoryFound   bool
	Available       decimal.Decimal
	Progress        decimal.Decimal
	Remaining       decimal.Decimal
	PercentComplete decimal.Decimal
	DaysLeft        int
	MonthlyAccrual  decimal.Decimal

	// MonthsToCompletion is meaningless when Unreachable is set.
	MonthsToCompletion int
	Unreachable        bool
}

// ComputeGoalProgress derives progress from the bound category's available
// balance and monthly accrual.
func ComputeGoalProgress(g Goal, available, accrual decimal.Decimal, today time.Time) GoalProgress {
	progress := positivePart(available.Sub(g.StartBalance))
	remaining := positivePart(g.TargetAmount.Sub(progress))

	gp := GoalProgress{
		GoalID:          g.ID,
		CategoryFound:   true,
		Available:       available,
		Progress:        progress,
		Remaining:       remaining,
		PercentComplete: percentComplete(progress, g.TargetAmount),
		DaysLeft:        daysLeft(g.TargetDate, today),
		MonthlyAccrual:  accrual,
	}

	switch {
	case !remaining.IsPositive():
		gp.MonthsToCompletion = 0
	case !accrual.IsPositive():
		gp.Unreachable = true
	default:
		gp.MonthsToCompletion = int(remaining.Div(accrual).Ceil().IntPart())
	}
	return gp
}

// NeutralGoalProgress is the result for a goal whose category was deleted.
func NeutralGoalProgress(g Goal, today time.Time) GoalProgress {
	return GoalProgress{
		GoalID:          g.ID,
		Available:       decimal.Zero,
		Progress:        decimal.Zero,
		Remaining:       decimal.Zero,
		PercentComplete: decimal.Zero,
		DaysLeft:        daysLeft(g.TargetDate, today),
		MonthlyAccrual:  decimal.Zero,
	}
}

func percentComplete(progress, target decimal.Decimal) decimal.Decimal {
	if !target.IsPositive() {
		return decimal.Zero
	}
	pct := progress.Div(target).Mul(hundred)
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}

func daysLeft(target, today time.Time) int {
	if target.IsZero() {
		return 0
	}
	days := math.Ceil(target.Sub(today).Hours() / 24)
	if days <= 0 {
		return 0
	}
	return int(days)
}
