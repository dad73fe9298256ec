/*
handlers.go - HTTP API handlers for the budget engine

PURPOSE:
  Exposes the budget engine via REST API. Handles HTTP request/response,
  JSON serialization, input coercion, and delegates to the engine.

ENDPOINTS:
  Budget:
    GET    /api/budget                      Overview of the active month
    PUT    /api/budget/income               Set monthly income
    PUT    /api/budget/base-expenses        Replace base expenses
    PUT    /api/budget/categories           Replace categories
    POST   /api/budget/distribute           Distribute the remainder
    POST   /api/budget/rollover             Close the month

  Ledger:
    POST   /api/expenses                    Record an expense
    POST   /api/income                      Record an income entry
    GET    /api/transactions?month=YYYY-MM  Month history, newest first
    GET    /api/summary?month=YYYY-MM       Month totals

  Categories:
    GET    /api/categories/{id}/balance     Balance breakdown
    GET    /api/categories/expense-picker   Categories open for expenses

  Goals:
    GET    /api/goals                       List goals
    POST   /api/goals                       Create goal
    DELETE /api/goals/{id}                  Delete goal
    GET    /api/goals/{id}/progress         Goal progress

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed body, bad month or date, invalid goal
  - 404: Unknown category or goal
  - 409: Distribution limit reached for the month
  - 422: Nothing to distribute, distribute unsupported, rollover failed
  - 500: Internal errors

SECURITY NOTE:
  No authentication. The handler serves the single owner it was built for.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/logging"
	"github.com/warp/budget-engine/money"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine    *budget.Engine
	Formatter *money.Formatter
	Logger    *slog.Logger

	// Now is the clock used for goal progress and default dates.
	Now func() time.Time
}

// NewHandler creates a handler over engine. A nil formatter uses the
// default locale.
func NewHandler(engine *budget.Engine, formatter *money.Formatter, logger *slog.Logger) *Handler {
	if formatter == nil {
		formatter = money.NewFormatter(money.DefaultLocale)
	}
	return &Handler{
		Engine:    engine,
		Formatter: formatter,
		Logger:    logging.WithComponent(logger, logging.ComponentHTTP),
		Now:       time.Now,
	}
}

// =============================================================================
// BUDGET
// =============================================================================

// GetOverview returns the dashboard view.
// GET /api/budget
func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.overview())
}

// SetIncome sets the monthly income.
// PUT /api/budget/income
func (h *Handler) SetIncome(w http.ResponseWriter, r *http.Request) {
	var req SetIncomeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h.Engine.SetIncome(req.Income)
	writeJSON(w, http.StatusOK, h.overview())
}

// SetBaseExpenses replaces the base expense list.
// PUT /api/budget/base-expenses
func (h *Handler) SetBaseExpenses(w http.ResponseWriter, r *http.Request) {
	var req SetBaseExpensesRequest
	if !decodeBody(w, r, &req) {
		return
	}

	expenses := make([]budget.BaseExpense, len(req.BaseExpenses))
	for i, in := range req.BaseExpenses {
		expenses[i] = budget.BaseExpense{
			ID:     in.ID,
			Name:   in.Name,
			Amount: h.parseAmount(in.Amount, "base_expense.amount"),
		}
	}
	h.Engine.SetBaseExpenses(expenses)
	writeJSON(w, http.StatusOK, h.overview())
}

// SetCategories replaces the category list.
// PUT /api/budget/categories
func (h *Handler) SetCategories(w http.ResponseWriter, r *http.Request) {
	var req SetCategoriesRequest
	if !decodeBody(w, r, &req) {
		return
	}

	categories := make([]budget.Category, len(req.Categories))
	for i, in := range req.Categories {
		categories[i] = budget.Category{
			ID:               in.ID,
			Name:             in.Name,
			PercentShare:     h.parsePercent(in.Percent, "category.percent"),
			PersistedBalance: h.parseAmount(in.Balance, "category.balance"),
			CarryOver:        in.CarryOver,
			IsSavingsOnly:    in.IsSavingsOnly,
		}
	}
	h.Engine.SetCategories(categories)
	writeJSON(w, http.StatusOK, h.overview())
}

// Distribute allocates the remainder to categories.
// POST /api/budget/distribute
func (h *Handler) Distribute(w http.ResponseWriter, r *http.Request) {
	result, err := h.Engine.Distribute()
	if err != nil {
		writeEngineError(w, "Distribution rejected", err)
		return
	}
	writeJSON(w, http.StatusOK, toDistributionDTO(h.Formatter, result))
}

// Rollover closes the active month.
// POST /api/budget/rollover
func (h *Handler) Rollover(w http.ResponseWriter, r *http.Request) {
	result, err := h.Engine.AdvanceMonth()
	if err != nil {
		writeEngineError(w, "Month rollover failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toRolloverDTO(h.Formatter, result))
}

func (h *Handler) overview() OverviewDTO {
	return toOverviewDTO(h.Formatter, h.Engine.Overview(), h.Engine.BaseExpenses())
}

// =============================================================================
// LEDGER
// =============================================================================

// RecordExpense records an expense against a category.
// POST /api/expenses
func (h *Handler) RecordExpense(w http.ResponseWriter, r *http.Request) {
	var req ExpenseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	date, ok := parseOptionalDate(w, req.Date)
	if !ok {
		return
	}

	tx, err := h.Engine.RecordExpense(budget.ExpenseInput{
		CategoryID:  req.CategoryID,
		Amount:      h.parseAmount(req.Amount, "expense.amount"),
		Description: req.Description,
		Date:        date,
	})
	if err != nil {
		writeEngineError(w, "Expense rejected", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(h.Formatter, tx))
}

// RecordIncome records an informational income entry.
// POST /api/income
func (h *Handler) RecordIncome(w http.ResponseWriter, r *http.Request) {
	var req IncomeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	date, ok := parseOptionalDate(w, req.Date)
	if !ok {
		return
	}

	tx := h.Engine.RecordIncome(budget.IncomeInput{
		Amount:      h.parseAmount(req.Amount, "income.amount"),
		Description: req.Description,
		Date:        date,
	})
	writeJSON(w, http.StatusCreated, toTransactionDTO(h.Formatter, tx))
}

// ListTransactions returns the month's ledger entries, newest first.
// GET /api/transactions?month=YYYY-MM
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	month, ok := h.monthParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(h.Formatter, h.Engine.TransactionsForMonth(month)))
}

// GetMonthSummary totals the month's ledger.
// GET /api/summary?month=YYYY-MM
func (h *Handler) GetMonthSummary(w http.ResponseWriter, r *http.Request) {
	month, ok := h.monthParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toMonthSummaryDTO(h.Formatter, h.Engine.MonthSummary(month)))
}

// monthParam reads ?month=, defaulting to the active month.
func (h *Handler) monthParam(w http.ResponseWriter, r *http.Request) (budget.Month, bool) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		return h.Engine.Period().ActiveMonth, true
	}
	month, err := budget.ParseMonth(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
		return budget.Month{}, false
	}
	return month, true
}

// =============================================================================
// CATEGORIES
// =============================================================================

// GetCategoryBalance returns one category's balance breakdown.
// GET /api/categories/{id}/balance
func (h *Handler) GetCategoryBalance(w http.ResponseWriter, r *http.Request) {
	bal, err := h.Engine.CategoryBalance(chi.URLParam(r, "id"))
	if err != nil {
		writeEngineError(w, "Category not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(h.Formatter, bal))
}

// ListExpenseCategories returns categories that accept expenses.
// GET /api/categories/expense-picker
func (h *Handler) ListExpenseCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.Engine.ExpenseCategories()
	dtos := make([]PickerCategoryDTO, len(categories))
	for i, c := range categories {
		dtos[i] = PickerCategoryDTO{ID: c.ID, Name: c.Name}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// GOALS
// =============================================================================

// ListGoals returns all goals.
// GET /api/goals
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals := h.Engine.Goals()
	dtos := make([]GoalDTO, len(goals))
	for i, g := range goals {
		dtos[i] = toGoalDTO(h.Formatter, g)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateGoal creates a goal.
// POST /api/goals
func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req CreateGoalRequest
	if !decodeBody(w, r, &req) {
		return
	}
	targetDate, err := time.Parse(dateLayout, req.TargetDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid target_date format (use YYYY-MM-DD)", err)
		return
	}

	goal, err := h.Engine.CreateGoal(budget.GoalInput{
		Name:         req.Name,
		Description:  req.Description,
		Icon:         req.Icon,
		CategoryID:   req.CategoryID,
		TargetAmount: h.parseAmount(req.TargetAmount, "goal.target_amount"),
		TargetDate:   targetDate,
	})
	if err != nil {
		writeEngineError(w, "Goal rejected", err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoalDTO(h.Formatter, goal))
}

// DeleteGoal removes a goal.
// DELETE /api/goals/{id}
func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := h.Engine.DeleteGoal(chi.URLParam(r, "id")); err != nil {
		writeEngineError(w, "Goal not found", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetGoalProgress returns a goal's progress as of today.
// GET /api/goals/{id}/progress
func (h *Handler) GetGoalProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.Engine.GoalProgress(chi.URLParam(r, "id"), h.Now())
	if err != nil {
		writeEngineError(w, "Goal not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toGoalProgressDTO(h.Formatter, progress))
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports liveness and the active budget scope.
// GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthDTO{
		Status: "ok",
		Owner:  string(h.Engine.Owner()),
		Month:  h.Engine.Period().ActiveMonth.String(),
		Policy: string(h.Engine.Policy().Name()),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// parseAmount coerces user input to a number. Non-numeric input is logged
// and becomes 0.
func (h *Handler) parseAmount(raw, field string) decimal.Decimal {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero
	}
	d, err := money.ParseAmountStrict(raw)
	if err != nil {
		h.Logger.Warn("non-numeric input coerced to zero", "field", field, "input", raw)
	}
	return d
}

func (h *Handler) parsePercent(raw, field string) decimal.Decimal {
	return h.parseAmount(strings.TrimSuffix(strings.TrimSpace(raw), "%"), field)
}

func parseOptionalDate(w http.ResponseWriter, raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	date, err := time.Parse(dateLayout, raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return time.Time{}, false
	}
	return date, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// writeEngineError maps engine errors to HTTP statuses.
func writeEngineError(w http.ResponseWriter, message string, err error) {
	var limitErr *budget.DistributionLimitExceededError
	switch {
	case errors.As(err, &limitErr):
		writeError(w, http.StatusConflict, message, err)
	case budget.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, budget.ErrInvalidGoal), errors.Is(err, budget.ErrInvalidMonth):
		writeError(w, http.StatusBadRequest, message, err)
	case budget.IsClientError(err):
		writeError(w, http.StatusUnprocessableEntity, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
