/*
engine.go - Allocation engine operations and views

PURPOSE:
  The Engine owns one budget State and is the only writer to it. Every
  operation is synchronous and runs over the in-memory snapshot; persistence
  happens behind a ChangeSink and is never awaited.

OPERATIONS (mutating):
  SetIncome, SetBaseExpenses, SetCategories
  Distribute            explicit distribute (fixed split, capped)
  RecordExpense         expense against a category
  RecordIncome          informational income entry
  CreateGoal, DeleteGoal
  AdvanceMonth          see rollover.go

VIEWS (pure):
  AvailableBalance, TotalDistributable, TotalBaseExpenses, TotalSavings,
  GoalProgress, TransactionsForMonth, Overview, ExpenseCategories,
  MonthSummary, Snapshot

REJECTIONS:
  A rejected operation returns an error and leaves state untouched. No
  partial mutation, no change notification.

CONCURRENCY:
  A sync.RWMutex serialises writers. Views take the read lock. The sink is
  notified after the lock is released, in mutation order.

SEE ALSO:
  - policy.go: allocation strategies
  - balance.go: balance math
  - store.go: ChangeSink
*/
package budget

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/budget-engine/money"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine is the allocation engine for one owner's budget.
type Engine struct {
	mu    sync.RWMutex
	pubMu sync.Mutex // orders sink notifications

	owner        OwnerKey
	period       PeriodState
	baseExpenses []BaseExpense
	categories   []Category
	goals        []Goal
	ledger       *Ledger

	policy AllocationPolicy
	ids    IDGenerator
	now    func() time.Time
	sink   ChangeSink
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithOwner sets the owner key passed to the ChangeSink.
func WithOwner(owner OwnerKey) Option { return func(e *Engine) { e.owner = owner } }

// WithIDGenerator replaces the default UUID generator.
func WithIDGenerator(ids IDGenerator) Option { return func(e *Engine) { e.ids = ids } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// WithChangeSink registers the persistence sink.
func WithChangeSink(sink ChangeSink) Option { return func(e *Engine) { e.sink = sink } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// NewEngine builds an engine over state using policy. The state is copied.
// A state without an active month starts at the clock's current month.
func NewEngine(state State, policy AllocationPolicy, opts ...Option) *Engine {
	e := &Engine{
		policy: policy,
		ids:    UUIDGenerator{},
		now:    time.Now,
		sink:   NopSink{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	state = state.Clone()
	e.period = state.PeriodState
	if e.period.ActiveMonth.IsZero() {
		e.period.ActiveMonth = MonthOf(e.now())
	}
	e.baseExpenses = state.BaseExpenses
	e.categories = state.Categories
	e.goals = state.Goals
	e.ledger = NewLedger(state.Transactions, e.ids)
	return e
}

// Policy returns the allocation policy in force.
func (e *Engine) Policy() AllocationPolicy { return e.policy }

// Owner returns the owner key.
func (e *Engine) Owner() OwnerKey { return e.owner }

func (e *Engine) inputsLocked() Inputs {
	return Inputs{
		Income:       e.period.Income(),
		BaseExpenses: e.baseExpenses,
		Categories:   e.categories,
		Ledger:       e.ledger,
		Month:        e.period.ActiveMonth,
	}
}

func (e *Engine) snapshotLocked() State {
	return State{
		PeriodState:  e.period,
		BaseExpenses: append([]BaseExpense(nil), e.baseExpenses...),
		Categories:   append([]Category(nil), e.categories...),
		Transactions: e.ledger.All(),
		Goals:        append([]Goal(nil), e.goals...),
	}
}

// unlockAndPublish releases e.mu and notifies the sink. pubMu is taken
// before the write lock is released, so the sink sees snapshots in the
// order the mutations happened.
func (e *Engine) unlockAndPublish(state State, txs ...Transaction) {
	e.pubMu.Lock()
	defer e.pubMu.Unlock()
	e.mu.Unlock()

	for _, tx := range txs {
		e.sink.TransactionAppended(e.owner, tx)
	}
	e.sink.StateChanged(e.owner, state)
}

// =============================================================================
// SETTINGS
// =============================================================================

// SetIncome sets the monthly income from user input. Blank input clears the
// income; non-numeric input is logged and stored as zero.
func (e *Engine) SetIncome(raw string) {
	var income decimal.NullDecimal
	if strings.TrimSpace(raw) != "" {
		d, err := money.ParseAmountStrict(raw)
		if err != nil {
			e.logger.Warn("non-numeric income coerced to zero", "input", raw, "error", err)
		}
		income = decimal.NullDecimal{Decimal: d, Valid: true}
	}

	e.mu.Lock()
	e.period.MonthlyIncome = income
	snap := e.snapshotLocked()
	e.unlockAndPublish(snap)

}

// SetBaseExpenses replaces the base expense list. Missing ids are generated.
func (e *Engine) SetBaseExpenses(expenses []BaseExpense) []BaseExpense {
	out := make([]BaseExpense, len(expenses))
	for i, exp := range expenses {
		if exp.ID == "" {
			exp.ID = e.ids.NewID()
		}
		out[i] = exp
	}

	e.mu.Lock()
	e.baseExpenses = out
	snap := e.snapshotLocked()
	e.unlockAndPublish(snap)

	return append([]BaseExpense(nil), out...)
}

// SetCategories replaces the category list, keeping list order.
//
// Categories whose id already exists keep their persisted balance and this
// month's allocation; only name, share and flags are taken from the input.
// New categories (empty or unknown id) start with the balances given.
// A repeated id keeps its first occurrence; later ones get fresh ids and
// start as new categories.
// Removing a category orphans goals bound to it; their progress reads as zero.
func (e *Engine) SetCategories(categories []Category) []Category {
	e.mu.Lock()
	existing := make(map[string]Category, len(e.categories))
	for _, c := range e.categories {
		existing[c.ID] = c
	}

	out := make([]Category, len(categories))
	seen := make(map[string]bool, len(categories))
	var renamed []string
	for i, c := range categories {
		switch {
		case c.ID == "":
			c.ID = e.ids.NewID()
		case seen[c.ID]:
			renamed = append(renamed, c.ID)
			c.ID = e.ids.NewID()
		default:
			if prev, ok := existing[c.ID]; ok {
				c.PersistedBalance = prev.PersistedBalance
				c.Allocated = prev.Allocated
			}
		}
		seen[c.ID] = true
		out[i] = c
	}
	e.categories = out
	warnings := e.policy.ShareWarnings(out)
	snap := e.snapshotLocked()
	e.unlockAndPublish(snap)

	for _, id := range renamed {
		e.logger.Warn("duplicate category id replaced", "id", id)
	}
	for _, w := range warnings {
		e.logger.Warn("category shares", "warning", w)
	}
	return append([]Category(nil), out...)
}

// =============================================================================
// DISTRIBUTE
// =============================================================================

// CategoryAllocation is one category's share of a distribution.
type CategoryAllocation struct {
	CategoryID string
	Name       string
	Amount     decimal.Decimal
	Available  decimal.Decimal
}

// DistributionResult describes a successful distribute.
type DistributionResult struct {
	Transaction Transaction
	Remainder   decimal.Decimal
	Allocations []CategoryAllocation
	Deficits    []CategoryBalance
	Count       int // distributions recorded this month, including this one
}

// Distribute allocates the remainder to categories under an explicit
// distribute policy and records a distribution transaction.
func (e *Engine) Distribute() (*DistributionResult, error) {
	e.mu.Lock()
	in := e.inputsLocked()
	allocations, err := e.policy.Distribute(in)
	if err != nil {
		e.mu.Unlock()
		e.logger.Info("distribution rejected", "month", in.Month.String(), "error", err)
		return nil, err
	}

	remainder := in.Remainder()
	categories := append([]Category(nil), e.categories...)
	for i := range categories {
		categories[i].Allocated = categories[i].Allocated.Add(allocations[categories[i].ID])
	}
	e.categories = categories

	tx := Transaction{
		Type:        TxDistribution,
		Date:        e.now(),
		Month:       in.Month,
		Amount:      remainder,
		Description: fmt.Sprintf("Budget distribution for %s", in.Month),
	}
	tx.ID = e.ledger.Append(tx)
	tx, _ = e.ledger.Get(tx.ID)

	in = e.inputsLocked()
	result := &DistributionResult{
		Transaction: tx,
		Remainder:   remainder,
		Count:       e.ledger.DistributionCountForMonth(in.Month),
	}
	for i, c := range categories {
		bal := computeBalance(e.policy, in, i)
		result.Allocations = append(result.Allocations, CategoryAllocation{
			CategoryID: c.ID,
			Name:       c.Name,
			Amount:     allocations[c.ID],
			Available:  bal.Available(),
		})
		if bal.IsDeficit() {
			result.Deficits = append(result.Deficits, bal)
		}
	}
	snap := e.snapshotLocked()
	e.unlockAndPublish(snap, tx)

	e.logger.Info("budget distributed",
		"month", in.Month.String(),
		"remainder", remainder.String(),
		"count", result.Count,
		"deficits", len(result.Deficits))
	return result, nil
}

// =============================================================================
// LEDGER ENTRIES
// =============================================================================

// ExpenseInput describes an expense to record.
type ExpenseInput struct {
	CategoryID  string
	Amount      decimal.Decimal
	Description string
	Date        time.Time // zero means now
}

// RecordExpense appends an expense for an existing category. The amount is
// stored as a magnitude. The category balance may go negative.
func (e *Engine) RecordExpense(input ExpenseInput) (Transaction, error) {
	e.mu.Lock()
	idx := -1
	for i, c := range e.categories {
		if c.ID == input.CategoryID {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.mu.Unlock()
		return Transaction{}, &MissingCategoryError{CategoryID: input.CategoryID}
	}

	date := input.Date
	if date.IsZero() {
		date = e.now()
	}
	tx := Transaction{
		Type:         TxExpense,
		Date:         date,
		Month:        e.period.ActiveMonth,
		CategoryID:   e.categories[idx].ID,
		CategoryName: e.categories[idx].Name,
		Amount:       input.Amount.Abs(),
		Description:  input.Description,
	}
	id := e.ledger.Append(tx)
	tx, _ = e.ledger.Get(id)
	snap := e.snapshotLocked()
	e.unlockAndPublish(snap, tx)

	return tx, nil
}

// IncomeInput describes an income entry.
type IncomeInput struct {
	Amount      decimal.Decimal
	Description string
	Date        time.Time // zero means now
}

// RecordIncome appends an income entry. Income entries are shown in the
// history and month summary; the distributable remainder is driven by the
// monthly income setting only.
func (e *Engine) RecordIncome(input IncomeInput) Transaction {
	e.mu.Lock()
	date := input.Date
	if date.IsZero() {
		date = e.now()
	}
	tx := Transaction{
		Type:        TxIncome,
		Date:        date,
		Month:       e.period.ActiveMonth,
		Amount:      input.Amount.Abs(),
		Description: input.Description,
	}
	id := e.ledger.Append(tx)
	tx, _ = e.ledger.Get(id)
	snap := e.snapshotLocked()
	e.unlockAndPublish(snap, tx)

	return tx
}

// =============================================================================
// GOALS
// =============================================================================

// GoalInput describes a goal to create.
type GoalInput struct {
	Name         string
	Description  string
	Icon         string
	CategoryID   string
	TargetAmount decimal.Decimal
	TargetDate   time.Time
}

// CreateGoal creates a goal bound to an existing category. Its baseline is
// the category's available balance right now.
func (e *Engine) CreateGoal(input GoalInput) (Goal, error) {
	if strings.TrimSpace(input.Name) == "" {
		return Goal{}, fmt.Errorf("%w: name is required", ErrInvalidGoal)
	}
	if !input.TargetAmount.IsPositive() {
		return Goal{}, fmt.Errorf("%w: target amount must be positive", ErrInvalidGoal)
	}
	if input.TargetDate.IsZero() {
		return Goal{}, fmt.Errorf("%w: target date is required", ErrInvalidGoal)
	}

	e.mu.Lock()
	in := e.inputsLocked()
	idx := findCategory(e.categories, input.CategoryID)
	if idx < 0 {
		e.mu.Unlock()
		return Goal{}, &MissingCategoryError{CategoryID: input.CategoryID}
	}

	goal := Goal{
		ID:           e.ids.NewID(),
		Name:         input.Name,
		Description:  input.Description,
		Icon:         input.Icon,
		CategoryID:   input.CategoryID,
		TargetAmount: input.TargetAmount,
		TargetDate:   input.TargetDate,
		StartBalance: computeBalance(e.policy, in, idx).Available(),
		CreatedAt:    e.now(),
	}
	e.goals = append(append([]Goal(nil), e.goals...), goal)
	snap := e.snapshotLocked()
	e.unlockAndPublish(snap)

	return goal, nil
}

// DeleteGoal removes a goal.
func (e *Engine) DeleteGoal(id string) error {
	e.mu.Lock()
	idx := -1
	for i, g := range e.goals {
		if g.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		e.mu.Unlock()
		return ErrGoalNotFound
	}
	goals := make([]Goal, 0, len(e.goals)-1)
	goals = append(goals, e.goals[:idx]...)
	goals = append(goals, e.goals[idx+1:]...)
	e.goals = goals
	snap := e.snapshotLocked()
	e.unlockAndPublish(snap)

	return nil
}

// Goals returns the goals in creation order.
func (e *Engine) Goals() []Goal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Goal(nil), e.goals...)
}

// GoalProgress computes progress of a goal as of today. A goal whose
// category no longer exists yields a neutral zero result.
func (e *Engine) GoalProgress(goalID string, today time.Time) (GoalProgress, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, g := range e.goals {
		if g.ID != goalID {
			continue
		}
		idx := findCategory(e.categories, g.CategoryID)
		if idx < 0 {
			return NeutralGoalProgress(g, today), nil
		}
		in := e.inputsLocked()
		available := computeBalance(e.policy, in, idx).Available()
		accrual := e.policy.Share(in.Remainder(), in.Categories, idx)
		return ComputeGoalProgress(g, available, accrual, today), nil
	}
	return GoalProgress{}, ErrGoalNotFound
}

// =============================================================================
// VIEWS
// =============================================================================

// AvailableBalance returns the category's spendable amount right now.
func (e *Engine) AvailableBalance(categoryID string) (decimal.Decimal, error) {
	bal, err := e.CategoryBalance(categoryID)
	if err != nil {
		return decimal.Zero, err
	}
	return bal.Available(), nil
}

// CategoryBalance returns the balance components of one category.
func (e *Engine) CategoryBalance(categoryID string) (CategoryBalance, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	idx := findCategory(e.categories, categoryID)
	if idx < 0 {
		return CategoryBalance{}, &MissingCategoryError{CategoryID: categoryID}
	}
	return computeBalance(e.policy, e.inputsLocked(), idx), nil
}

// TotalDistributable is income minus base expenses.
func (e *Engine) TotalDistributable() decimal.Decimal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.inputsLocked().Remainder()
}

// TotalBaseExpenses sums base expenses.
func (e *Engine) TotalBaseExpenses() decimal.Decimal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.inputsLocked().TotalBaseExpenses()
}

// TotalSavings sums max(0, available) over all categories.
func (e *Engine) TotalSavings() decimal.Decimal {
	e.mu.RLock()
	defer e.mu.RUnlock()

	total := decimal.Zero
	for _, b := range computeBalances(e.policy, e.inputsLocked()) {
		total = total.Add(positivePart(b.Available()))
	}
	return total
}

// TransactionsForMonth returns the month's ledger entries, newest first.
func (e *Engine) TransactionsForMonth(month Month) []Transaction {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ledger.ForMonth(month)
}

// Period returns the income and active month.
func (e *Engine) Period() PeriodState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.period
}

// BaseExpenses returns the base expenses in list order.
func (e *Engine) BaseExpenses() []BaseExpense {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]BaseExpense(nil), e.baseExpenses...)
}

// ExpenseCategories lists categories offered for expense entry: every
// category that is not savings-only.
func (e *Engine) ExpenseCategories() []Category {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []Category
	for _, c := range e.categories {
		if !c.IsSavingsOnly {
			out = append(out, c)
		}
	}
	return out
}

// Snapshot returns a copy of the full state.
func (e *Engine) Snapshot() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshotLocked()
}

// CategoryView is one overview row.
type CategoryView struct {
	Category
	Balance   CategoryBalance
	Available decimal.Decimal
	Deficit   bool
}

// Overview is the dashboard projection of the active month.
type Overview struct {
	Policy             PolicyName
	Month              Month
	Income             decimal.NullDecimal
	TotalBaseExpenses  decimal.Decimal
	TotalDistributable decimal.Decimal
	TotalSavings       decimal.Decimal
	Distributions      int
	Categories         []CategoryView
	Warnings           []string
}

// Overview builds the dashboard projection.
func (e *Engine) Overview() Overview {
	e.mu.RLock()
	defer e.mu.RUnlock()

	in := e.inputsLocked()
	ov := Overview{
		Policy:             e.policy.Name(),
		Month:              in.Month,
		Income:             e.period.MonthlyIncome,
		TotalBaseExpenses:  in.TotalBaseExpenses(),
		TotalDistributable: in.Remainder(),
		TotalSavings:       decimal.Zero,
		Distributions:      e.ledger.DistributionCountForMonth(in.Month),
		Warnings:           e.policy.ShareWarnings(e.categories),
	}
	for i, b := range computeBalances(e.policy, in) {
		available := b.Available()
		ov.TotalSavings = ov.TotalSavings.Add(positivePart(available))
		ov.Categories = append(ov.Categories, CategoryView{
			Category:  e.categories[i],
			Balance:   b,
			Available: available,
			Deficit:   available.IsNegative(),
		})
	}
	return ov
}

// CategorySpend is one category's spending in a month summary.
type CategorySpend struct {
	CategoryID string
	Name       string
	Spent      decimal.Decimal
}

// MonthSummary totals a month's ledger.
type MonthSummary struct {
	Month       Month
	Spent       decimal.Decimal
	Income      decimal.Decimal
	Distributed decimal.Decimal
	ByCategory  []CategorySpend
}

// MonthSummary totals the ledger entries recorded in month. Categories are
// listed in category order followed by deleted categories by first use.
func (e *Engine) MonthSummary(month Month) MonthSummary {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := MonthSummary{
		Month:       month,
		Spent:       e.ledger.SumByTypeAndMonth(TxExpense, month, ""),
		Income:      e.ledger.SumByTypeAndMonth(TxIncome, month, ""),
		Distributed: e.ledger.SumByTypeAndMonth(TxDistribution, month, ""),
	}

	seen := make(map[string]bool)
	for _, c := range e.categories {
		seen[c.ID] = true
		spent := e.ledger.SpentThisMonth(month, c.ID)
		if spent.IsZero() {
			continue
		}
		s.ByCategory = append(s.ByCategory, CategorySpend{CategoryID: c.ID, Name: c.Name, Spent: spent})
	}
	for _, tx := range e.ledger.All() {
		if tx.Type != TxExpense || !tx.Month.Equal(month) || seen[tx.CategoryID] {
			continue
		}
		seen[tx.CategoryID] = true
		s.ByCategory = append(s.ByCategory, CategorySpend{
			CategoryID: tx.CategoryID,
			Name:       tx.CategoryName,
			Spent:      e.ledger.SpentThisMonth(month, tx.CategoryID),
		})
	}
	return s
}

func findCategory(categories []Category, id string) int {
	for i, c := range categories {
		if c.ID == id {
			return i
		}
	}
	return -1
}
