/*
Package budget provides the budget allocation and balance-reconciliation engine.

PURPOSE:
  Turns a monthly income, fixed base expenses and percentage-share categories
  into spendable category balances, tracks spending through an append-only
  transaction ledger, closes months, and measures savings goals.

KEY CONCEPTS IN THIS FILE (types.go):
  - Category: a named bucket with a percentage share and a persisted balance
  - BaseExpense: a fixed monthly cost subtracted before distribution
  - Transaction: an immutable ledger entry (expense, income, distribution)
  - Goal: a savings target bound to a category
  - PeriodState / State: the explicitly owned budget snapshot

DESIGN PRINCIPLES:
  1. Explicit ownership: State is passed around, there is no global budget
  2. Precision: decimal.Decimal for every amount
  3. Append-only ledger: transactions are never edited or deleted
  4. Deficits are real: balances may go negative and are never clamped

USAGE:
  engine := budget.NewEngine(state, budget.AutoAccrual{})
  engine.SetIncome("3000")
  available, _ := engine.AvailableBalance(categoryID)

SEE ALSO:
  - policy.go: allocation policies (fixed split, capped, auto accrual)
  - engine.go: operations and views
  - rollover.go: month close
  - goal.go: goal progress
*/
package budget

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

// OwnerKey scopes every storage and ledger operation to one user. It is
// supplied by the caller and never computed here.
type OwnerKey string

type TransactionID string

// =============================================================================
// CATEGORY
// =============================================================================

// Category is a spending or savings bucket.
//
// PersistedBalance is the balance carried in from closed months. Allocated is
// the allocation materialised in the active month by an explicit distribute
// (fixed split and capped policies); auto accrual never touches it.
type Category struct {
	ID               string
	Name             string
	PercentShare     decimal.Decimal
	PersistedBalance decimal.Decimal
	Allocated        decimal.Decimal
	CarryOver        bool
	IsSavingsOnly    bool
}

// =============================================================================
// BASE EXPENSE
// =============================================================================

// BaseExpense is a fixed monthly cost. The sum of base expenses is not
// validated against income; the remainder may go negative.
type BaseExpense struct {
	ID     string
	Name   string
	Amount decimal.Decimal
}

// =============================================================================
// TRANSACTION
// =============================================================================

type TransactionType string

const (
	TxExpense      TransactionType = "expense"      // Money spent from a category
	TxIncome       TransactionType = "income"       // Extra income entry (informational)
	TxDistribution TransactionType = "distribution" // Explicit distribute of the remainder
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TxExpense, TxIncome, TxDistribution:
		return true
	}
	return false
}

// Transaction is an immutable ledger entry. Amount is a non-negative
// magnitude; the direction follows from Type.
//
// Month is the active month when the entry was recorded, which can differ
// from the calendar month of Date.
type Transaction struct {
	ID           TransactionID
	Type         TransactionType
	Date         time.Time
	Month        Month
	CategoryID   string // expense only
	CategoryName string // snapshot at write time
	Amount       decimal.Decimal
	Description  string

	// Seq is the insertion sequence, the canonical ledger order.
	Seq int64
}

// =============================================================================
// GOAL
// =============================================================================

// Goal is a savings target bound to a category by id.
//
// StartBalance is the category's available balance when the goal was
// created. It is the progress baseline and is never recomputed.
type Goal struct {
	ID           string
	Name         string
	Description  string
	Icon         string
	CategoryID   string
	TargetAmount decimal.Decimal
	TargetDate   time.Time
	StartBalance decimal.Decimal
	CreatedAt    time.Time
}

// =============================================================================
// STATE
// =============================================================================

// PeriodState is the period-scoped part of the budget. MonthlyIncome is
// NULL (Valid == false) when no income has been entered for the period.
type PeriodState struct {
	MonthlyIncome decimal.NullDecimal
	ActiveMonth   Month
}

// Income returns the monthly income, treating an empty value as zero.
func (p PeriodState) Income() decimal.Decimal {
	if !p.MonthlyIncome.Valid {
		return decimal.Zero
	}
	return p.MonthlyIncome.Decimal
}

// State is the complete budget of one owner.
type State struct {
	PeriodState
	BaseExpenses []BaseExpense
	Categories   []Category
	Transactions []Transaction
	Goals        []Goal
}

// IsEmpty reports whether the state carries no user data at all.
func (s *State) IsEmpty() bool {
	return s == nil || (s.ActiveMonth.IsZero() &&
		len(s.BaseExpenses) == 0 &&
		len(s.Categories) == 0 &&
		len(s.Transactions) == 0 &&
		len(s.Goals) == 0)
}

// Clone returns a deep copy of the state's slices.
func (s State) Clone() State {
	out := s
	out.BaseExpenses = append([]BaseExpense(nil), s.BaseExpenses...)
	out.Categories = append([]Category(nil), s.Categories...)
	out.Transactions = append([]Transaction(nil), s.Transactions...)
	out.Goals = append([]Goal(nil), s.Goals...)
	return out
}

// FindCategory returns the index of the category with the given id, or -1.
func (s State) FindCategory(id string) int {
	for i, c := range s.Categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}
