/*
errors.go - Centralized error types for the budget engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Every user-facing rejection leaves state unchanged; these errors describe
  why.

ERROR CATEGORIES:
  1. Allocation errors - distribute rejected (income, cap, policy)
  2. Lookup errors - missing category or goal
  3. Rollover errors - month close could not be computed

NOT AN ERROR:
  Non-numeric amount or percent input is coerced to zero by the money
  package and only logged. Persistence failures are logged by the persist
  package and never reach the engine.

USAGE:
  if errors.Is(err, budget.ErrDistributionLimitExceeded) {
      var limitErr *budget.DistributionLimitExceededError
      errors.As(err, &limitErr)
  }
*/
package budget

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInsufficientIncome is returned when distribute is requested with a
	// non-positive remainder.
	ErrInsufficientIncome = errors.New("insufficient income")

	// ErrDistributionLimitExceeded is returned when a capped policy has
	// already distributed the maximum number of times this month.
	ErrDistributionLimitExceeded = errors.New("distribution limit exceeded")

	// ErrDistributeUnsupported is returned by policies without an explicit
	// distribute action (auto accrual).
	ErrDistributeUnsupported = errors.New("policy does not support explicit distribution")

	// ErrMissingCategory is returned when an operation references an unknown category.
	ErrMissingCategory = errors.New("category not found")

	// ErrGoalNotFound is returned when a goal id is unknown.
	ErrGoalNotFound = errors.New("goal not found")

	// ErrRolloverFailed is returned when a month close cannot be computed.
	ErrRolloverFailed = errors.New("month rollover failed")

	// ErrInvalidMonth is returned for malformed YYYY-MM keys.
	ErrInvalidMonth = errors.New("invalid month")

	// ErrInvalidGoal is returned when a goal is created with unusable fields.
	ErrInvalidGoal = errors.New("invalid goal")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientIncomeError reports the remainder that blocked a distribution.
type InsufficientIncomeError struct {
	Income       decimal.Decimal
	BaseExpenses decimal.Decimal
	Remainder    decimal.Decimal
}

func (e *InsufficientIncomeError) Error() string {
	return fmt.Sprintf("insufficient income: income %s minus base expenses %s leaves %s to distribute",
		e.Income, e.BaseExpenses, e.Remainder)
}

func (e *InsufficientIncomeError) Unwrap() error {
	return ErrInsufficientIncome
}

// DistributionLimitExceededError reports the attempted distribution count.
type DistributionLimitExceededError struct {
	Month     Month
	Previous  int // successful distributions already recorded this month
	Attempted int // the rejected attempt's ordinal (Previous + 1)
	Limit     int
}

func (e *DistributionLimitExceededError) Error() string {
	return fmt.Sprintf("distribution limit exceeded for %s: attempt %d, limit %d (%d already distributed)",
		e.Month, e.Attempted, e.Limit, e.Previous)
}

func (e *DistributionLimitExceededError) Unwrap() error {
	return ErrDistributionLimitExceeded
}

// MissingCategoryError names the category id that could not be found.
type MissingCategoryError struct {
	CategoryID string
}

func (e *MissingCategoryError) Error() string {
	return fmt.Sprintf("category not found: %q", e.CategoryID)
}

func (e *MissingCategoryError) Unwrap() error {
	return ErrMissingCategory
}

// RolloverError names the category whose month close failed.
type RolloverError struct {
	CategoryID string
	Name       string
	Reason     string
}

func (e *RolloverError) Error() string {
	return fmt.Sprintf("month rollover failed at category %q (%s): %s", e.Name, e.CategoryID, e.Reason)
}

func (e *RolloverError) Unwrap() error {
	return ErrRolloverFailed
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to a rejected user action.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInsufficientIncome) ||
		errors.Is(err, ErrDistributionLimitExceeded) ||
		errors.Is(err, ErrDistributeUnsupported) ||
		errors.Is(err, ErrRolloverFailed) ||
		errors.Is(err, ErrInvalidMonth) ||
		errors.Is(err, ErrInvalidGoal)
}

// IsNotFound returns true if the error indicates a missing category or goal.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrMissingCategory) ||
		errors.Is(err, ErrGoalNotFound)
}
