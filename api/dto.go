/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's model from the external contract. Every amount is sent twice:
  as an exact decimal string and as a locale-formatted label.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request / *Input: Request body types from clients

TYPES:
  Budget:       OverviewDTO, CategoryDTO, BaseExpenseDTO
  Operations:   DistributionDTO, RolloverDTO
  Ledger:       TransactionDTO, MonthSummaryDTO
  Goals:        GoalDTO, GoalProgressDTO

INPUT:
  Amounts and percents in requests are strings and are coerced with
  money.ParseAmount: blank or non-numeric input counts as 0.

SEE ALSO:
  - handlers.go: Uses these types
  - money/money.go: Formatting
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/money"
)

const dateLayout = "2006-01-02"

// =============================================================================
// AMOUNTS
// =============================================================================

// AmountDTO is an exact value plus its display form.
type AmountDTO struct {
	Value     string `json:"value"`
	Formatted string `json:"formatted"`
}

func amount(f *money.Formatter, d decimal.Decimal) AmountDTO {
	return AmountDTO{Value: d.String(), Formatted: f.Format(d)}
}

// =============================================================================
// BUDGET
// =============================================================================

// OverviewDTO is the dashboard view of the active month.
type OverviewDTO struct {
	Policy             string           `json:"policy"`
	Month              string           `json:"month"`
	Income             *AmountDTO       `json:"income"` // null when not entered
	TotalBaseExpenses  AmountDTO        `json:"total_base_expenses"`
	TotalDistributable AmountDTO        `json:"total_distributable"`
	TotalSavings       AmountDTO        `json:"total_savings"`
	Distributions      int              `json:"distributions"`
	BaseExpenses       []BaseExpenseDTO `json:"base_expenses"`
	Categories         []CategoryDTO    `json:"categories"`
	Warnings           []string         `json:"warnings"`
}

// BaseExpenseDTO represents a fixed monthly cost.
type BaseExpenseDTO struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Amount AmountDTO `json:"amount"`
}

// CategoryDTO represents a category with its computed balance.
type CategoryDTO struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Percent          string    `json:"percent"`
	CarryOver        bool      `json:"carry_over"`
	IsSavingsOnly    bool      `json:"is_savings_only"`
	PersistedBalance AmountDTO `json:"persisted_balance"`
	Allocated        AmountDTO `json:"allocated"`
	Spent            AmountDTO `json:"spent"`
	Available        AmountDTO `json:"available"`
	Deficit          bool      `json:"deficit"`
}

// CategoryBalanceDTO is the balance breakdown of one category.
type CategoryBalanceDTO struct {
	CategoryID string    `json:"category_id"`
	Name       string    `json:"name"`
	Persisted  AmountDTO `json:"persisted"`
	Allocated  AmountDTO `json:"allocated"`
	Spent      AmountDTO `json:"spent"`
	Available  AmountDTO `json:"available"`
	Deficit    bool      `json:"deficit"`
}

// PickerCategoryDTO is an entry of the expense category picker.
type PickerCategoryDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SetIncomeRequest sets the monthly income. An empty string clears it.
type SetIncomeRequest struct {
	Income string `json:"income"`
}

// BaseExpenseInput is one base expense in a replace request.
type BaseExpenseInput struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// SetBaseExpensesRequest replaces the base expense list.
type SetBaseExpensesRequest struct {
	BaseExpenses []BaseExpenseInput `json:"base_expenses"`
}

// CategoryInput is one category in a replace request. Balance is only used
// for categories that do not exist yet.
type CategoryInput struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name"`
	Percent       string `json:"percent"`
	Balance       string `json:"balance,omitempty"`
	CarryOver     bool   `json:"carry_over"`
	IsSavingsOnly bool   `json:"is_savings_only"`
}

// SetCategoriesRequest replaces the category list.
type SetCategoriesRequest struct {
	Categories []CategoryInput `json:"categories"`
}

// =============================================================================
// OPERATIONS
// =============================================================================

// AllocationDTO is one category's share of a distribution.
type AllocationDTO struct {
	CategoryID string    `json:"category_id"`
	Name       string    `json:"name"`
	Amount     AmountDTO `json:"amount"`
	Available  AmountDTO `json:"available"`
}

// DistributionDTO is the result of a distribute.
type DistributionDTO struct {
	Transaction TransactionDTO  `json:"transaction"`
	Remainder   AmountDTO       `json:"remainder"`
	Count       int             `json:"count"`
	Allocations []AllocationDTO `json:"allocations"`
	Deficits    []string        `json:"deficits"` // category ids with negative available
}

// CategoryCloseDTO is one category's month close.
type CategoryCloseDTO struct {
	CategoryID    string    `json:"category_id"`
	Name          string    `json:"name"`
	Allocated     AmountDTO `json:"allocated"`
	Spent         AmountDTO `json:"spent"`
	Remainder     AmountDTO `json:"remainder"`
	CarriedOver   bool      `json:"carried_over"`
	BalanceBefore AmountDTO `json:"balance_before"`
	BalanceAfter  AmountDTO `json:"balance_after"`
}

// RolloverDTO is the result of a month rollover.
type RolloverDTO struct {
	ClosedMonth string             `json:"closed_month"`
	NewMonth    string             `json:"new_month"`
	IncomeReset bool               `json:"income_reset"`
	Categories  []CategoryCloseDTO `json:"categories"`
}

// =============================================================================
// LEDGER
// =============================================================================

// TransactionDTO represents a ledger entry.
type TransactionDTO struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Date         string    `json:"date"`
	Month        string    `json:"month"`
	CategoryID   string    `json:"category_id,omitempty"`
	CategoryName string    `json:"category_name,omitempty"`
	Amount       AmountDTO `json:"amount"`
	Description  string    `json:"description"`
}

// ExpenseRequest records an expense. Date is YYYY-MM-DD and defaults to today.
type ExpenseRequest struct {
	CategoryID  string `json:"category_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date,omitempty"`
}

// IncomeRequest records an income entry.
type IncomeRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date,omitempty"`
}

// CategorySpendDTO is one category line of a month summary.
type CategorySpendDTO struct {
	CategoryID string    `json:"category_id"`
	Name       string    `json:"name"`
	Spent      AmountDTO `json:"spent"`
}

// MonthSummaryDTO totals a month's ledger.
type MonthSummaryDTO struct {
	Month       string             `json:"month"`
	Spent       AmountDTO          `json:"spent"`
	Income      AmountDTO          `json:"income"`
	Distributed AmountDTO          `json:"distributed"`
	ByCategory  []CategorySpendDTO `json:"by_category"`
}

// =============================================================================
// GOALS
// =============================================================================

// GoalDTO represents a savings goal.
type GoalDTO struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	Icon         string    `json:"icon,omitempty"`
	CategoryID   string    `json:"category_id"`
	TargetAmount AmountDTO `json:"target_amount"`
	TargetDate   string    `json:"target_date"`
	StartBalance AmountDTO `json:"start_balance"`
	CreatedAt    string    `json:"created_at"`
}

// CreateGoalRequest creates a goal.
type CreateGoalRequest struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Icon         string `json:"icon"`
	CategoryID   string `json:"category_id"`
	TargetAmount string `json:"target_amount"`
	TargetDate   string `json:"target_date"`
}

// GoalProgressDTO is the derived progress of a goal.
type GoalProgressDTO struct {
	GoalID             string    `json:"goal_id"`
	CategoryFound      bool      `json:"category_found"`
	Available          AmountDTO `json:"available"`
	Progress           AmountDTO `json:"progress"`
	Remaining          AmountDTO `json:"remaining"`
	PercentComplete    string    `json:"percent_complete"`
	DaysLeft           int       `json:"days_left"`
	MonthlyAccrual     AmountDTO `json:"monthly_accrual"`
	MonthsToCompletion *int      `json:"months_to_completion"` // null when unreachable
	Unreachable        bool      `json:"unreachable"`
}

// =============================================================================
// GENERIC
// =============================================================================

// HealthDTO is the health check response.
type HealthDTO struct {
	Status string `json:"status"`
	Owner  string `json:"owner"`
	Month  string `json:"month"`
	Policy string `json:"policy"`
}

// ErrorResponse represents an error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION
// =============================================================================

func toTransactionDTO(f *money.Formatter, tx budget.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:           string(tx.ID),
		Type:         string(tx.Type),
		Date:         tx.Date.Format(time.RFC3339),
		Month:        tx.Month.String(),
		CategoryID:   tx.CategoryID,
		CategoryName: tx.CategoryName,
		Amount:       amount(f, tx.Amount),
		Description:  tx.Description,
	}
}

func toTransactionDTOs(f *money.Formatter, txs []budget.Transaction) []TransactionDTO {
	out := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		out[i] = toTransactionDTO(f, tx)
	}
	return out
}

func toBalanceDTO(f *money.Formatter, b budget.CategoryBalance) CategoryBalanceDTO {
	return CategoryBalanceDTO{
		CategoryID: b.CategoryID,
		Name:       b.Name,
		Persisted:  amount(f, b.Persisted),
		Allocated:  amount(f, b.Allocated),
		Spent:      amount(f, b.Spent),
		Available:  amount(f, b.Available()),
		Deficit:    b.IsDeficit(),
	}
}

func toOverviewDTO(f *money.Formatter, ov budget.Overview, base []budget.BaseExpense) OverviewDTO {
	dto := OverviewDTO{
		Policy:             string(ov.Policy),
		Month:              ov.Month.String(),
		TotalBaseExpenses:  amount(f, ov.TotalBaseExpenses),
		TotalDistributable: amount(f, ov.TotalDistributable),
		TotalSavings:       amount(f, ov.TotalSavings),
		Distributions:      ov.Distributions,
		BaseExpenses:       make([]BaseExpenseDTO, len(base)),
		Categories:         make([]CategoryDTO, len(ov.Categories)),
		Warnings:           ov.Warnings,
	}
	if ov.Income.Valid {
		income := amount(f, ov.Income.Decimal)
		dto.Income = &income
	}
	if dto.Warnings == nil {
		dto.Warnings = []string{}
	}
	for i, e := range base {
		dto.BaseExpenses[i] = BaseExpenseDTO{ID: e.ID, Name: e.Name, Amount: amount(f, e.Amount)}
	}
	for i, c := range ov.Categories {
		dto.Categories[i] = CategoryDTO{
			ID:               c.ID,
			Name:             c.Name,
			Percent:          c.PercentShare.String(),
			CarryOver:        c.CarryOver,
			IsSavingsOnly:    c.IsSavingsOnly,
			PersistedBalance: amount(f, c.Balance.Persisted),
			Allocated:        amount(f, c.Balance.Allocated),
			Spent:            amount(f, c.Balance.Spent),
			Available:        amount(f, c.Available),
			Deficit:          c.Deficit,
		}
	}
	return dto
}

func toDistributionDTO(f *money.Formatter, r *budget.DistributionResult) DistributionDTO {
	dto := DistributionDTO{
		Transaction: toTransactionDTO(f, r.Transaction),
		Remainder:   amount(f, r.Remainder),
		Count:       r.Count,
		Allocations: make([]AllocationDTO, len(r.Allocations)),
		Deficits:    []string{},
	}
	for i, a := range r.Allocations {
		dto.Allocations[i] = AllocationDTO{
			CategoryID: a.CategoryID,
			Name:       a.Name,
			Amount:     amount(f, a.Amount),
			Available:  amount(f, a.Available),
		}
	}
	for _, d := range r.Deficits {
		dto.Deficits = append(dto.Deficits, d.CategoryID)
	}
	return dto
}

func toRolloverDTO(f *money.Formatter, r *budget.RolloverResult) RolloverDTO {
	dto := RolloverDTO{
		ClosedMonth: r.ClosedMonth.String(),
		NewMonth:    r.NewMonth.String(),
		IncomeReset: r.IncomeReset,
		Categories:  make([]CategoryCloseDTO, len(r.Categories)),
	}
	for i, c := range r.Categories {
		dto.Categories[i] = CategoryCloseDTO{
			CategoryID:    c.CategoryID,
			Name:          c.Name,
			Allocated:     amount(f, c.Allocated),
			Spent:         amount(f, c.Spent),
			Remainder:     amount(f, c.Remainder),
			CarriedOver:   c.CarriedOver,
			BalanceBefore: amount(f, c.BalanceBefore),
			BalanceAfter:  amount(f, c.BalanceAfter),
		}
	}
	return dto
}

func toMonthSummaryDTO(f *money.Formatter, s budget.MonthSummary) MonthSummaryDTO {
	dto := MonthSummaryDTO{
		Month:       s.Month.String(),
		Spent:       amount(f, s.Spent),
		Income:      amount(f, s.Income),
		Distributed: amount(f, s.Distributed),
		ByCategory:  make([]CategorySpendDTO, len(s.ByCategory)),
	}
	for i, c := range s.ByCategory {
		dto.ByCategory[i] = CategorySpendDTO{CategoryID: c.CategoryID, Name: c.Name, Spent: amount(f, c.Spent)}
	}
	return dto
}

func toGoalDTO(f *money.Formatter, g budget.Goal) GoalDTO {
	return GoalDTO{
		ID:           g.ID,
		Name:         g.Name,
		Description:  g.Description,
		Icon:         g.Icon,
		CategoryID:   g.CategoryID,
		TargetAmount: amount(f, g.TargetAmount),
		TargetDate:   g.TargetDate.Format(dateLayout),
		StartBalance: amount(f, g.StartBalance),
		CreatedAt:    g.CreatedAt.Format(time.RFC3339),
	}
}

func toGoalProgressDTO(f *money.Formatter, p budget.GoalProgress) GoalProgressDTO {
	dto := GoalProgressDTO{
		GoalID:          p.GoalID,
		CategoryFound:   p.CategoryFound,
		Available:       amount(f, p.Available),
		Progress:        amount(f, p.Progress),
		Remaining:       amount(f, p.Remaining),
		PercentComplete: p.PercentComplete.StringFixed(1),
		DaysLeft:        p.DaysLeft,
		MonthlyAccrual:  amount(f, p.MonthlyAccrual),
		Unreachable:     p.Unreachable,
	}
	if !p.Unreachable {
		months := p.MonthsToCompletion
		dto.MonthsToCompletion = &months
	}
	return dto
}
