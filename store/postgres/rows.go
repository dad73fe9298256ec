package postgres

import (
	"database/sql"
	"strconv"

	"github.com/warp/budget-engine/budget"
)

// =============================================================================
// ROW MAPPING
// =============================================================================
//
// Each table has a column list shared by its SELECT and INSERT, a values
// function producing the bind arguments in that order and a scan function
// reading a row back. user_id and sort_order are added by the caller.

const (
	settingsColumns    = "monthly_income, current_month"
	baseExpenseColumns = "id, name, amount"
	categoryColumns    = "id, name, percent, balance, allocated, carry_over, is_savings_only"
	transactionColumns = "id, seq, type, date, month, category_id, category_name, amount, description"
	goalColumns        = "id, name, description, icon, category_id, target_amount, target_date, start_balance, created_at"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// nullString stores empty text as NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func settingsValues(p budget.PeriodState) []any {
	return []any{p.MonthlyIncome, p.ActiveMonth.String()}
}

func scanSettings(row rowScanner) (budget.PeriodState, error) {
	var p budget.PeriodState
	var month string
	if err := row.Scan(&p.MonthlyIncome, &month); err != nil {
		return p, err
	}
	if err := p.ActiveMonth.UnmarshalText([]byte(month)); err != nil {
		return p, err
	}
	return p, nil
}

func baseExpenseValues(e budget.BaseExpense) []any {
	return []any{e.ID, e.Name, e.Amount}
}

func scanBaseExpense(row rowScanner) (budget.BaseExpense, error) {
	var e budget.BaseExpense
	err := row.Scan(&e.ID, &e.Name, &e.Amount)
	return e, err
}

func categoryValues(c budget.Category) []any {
	return []any{c.ID, c.Name, c.PercentShare, c.PersistedBalance, c.Allocated, c.CarryOver, c.IsSavingsOnly}
}

func scanCategory(row rowScanner) (budget.Category, error) {
	var c budget.Category
	err := row.Scan(&c.ID, &c.Name, &c.PercentShare, &c.PersistedBalance, &c.Allocated, &c.CarryOver, &c.IsSavingsOnly)
	return c, err
}

func transactionValues(t budget.Transaction) []any {
	return []any{
		string(t.ID), t.Seq, string(t.Type), t.Date, t.Month.String(),
		nullString(t.CategoryID), nullString(t.CategoryName), t.Amount, nullString(t.Description),
	}
}

func scanTransaction(row rowScanner) (budget.Transaction, error) {
	var t budget.Transaction
	var id, txType, month string
	var catID, catName, desc sql.NullString
	if err := row.Scan(&id, &t.Seq, &txType, &t.Date, &month, &catID, &catName, &t.Amount, &desc); err != nil {
		return t, err
	}
	if err := t.Month.UnmarshalText([]byte(month)); err != nil {
		return t, err
	}
	t.ID = budget.TransactionID(id)
	t.Type = budget.TransactionType(txType)
	t.CategoryID, t.CategoryName, t.Description = catID.String, catName.String, desc.String
	return t, nil
}

func goalValues(g budget.Goal) []any {
	return []any{
		g.ID, g.Name, nullString(g.Description), nullString(g.Icon), g.CategoryID,
		g.TargetAmount, g.TargetDate, g.StartBalance, g.CreatedAt,
	}
}

func scanGoal(row rowScanner) (budget.Goal, error) {
	var g budget.Goal
	var desc, icon sql.NullString
	if err := row.Scan(&g.ID, &g.Name, &desc, &icon, &g.CategoryID, &g.TargetAmount, &g.TargetDate, &g.StartBalance, &g.CreatedAt); err != nil {
		return g, err
	}
	g.Description, g.Icon = desc.String, icon.String
	return g, nil
}

// placeholders returns "$from, ..., $to".
func placeholders(from, to int) string {
	out := make([]byte, 0, (to-from+1)*4)
	for i := from; i <= to; i++ {
		if i > from {
			out = append(out, ", "...)
		}
		out = append(out, '$')
		out = strconv.AppendInt(out, int64(i), 10)
	}
	return string(out)
}
