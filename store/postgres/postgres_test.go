package postgres

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/budget-engine/budget"
)

// Queries are exercised against a live server only. URL handling and row
// mapping are pure.
func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgresql://u:p@db:5432/budget", "postgres://u:p@db:5432/budget?sslmode=disable"},
		{"postgres://db/budget?connect_timeout=5", "postgres://db/budget?connect_timeout=5&sslmode=disable"},
		{"postgres://db/budget?sslmode=require", "postgres://db/budget?sslmode=require"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeURL(tt.in))
		})
	}
}

// valuesRow replays bind arguments as a scanned row, the way the driver
// returns them: Valuers are resolved first and Scanners receive the result.
type valuesRow []any

func (r valuesRow) Scan(dest ...any) error {
	if len(dest) != len(r) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(r))
	}
	for i, d := range dest {
		v := r[i]
		if valuer, ok := v.(driver.Valuer); ok {
			var err error
			if v, err = valuer.Value(); err != nil {
				return err
			}
		}
		if scanner, ok := d.(sql.Scanner); ok {
			if err := scanner.Scan(v); err != nil {
				return err
			}
			continue
		}
		switch d := d.(type) {
		case *string:
			*d = v.(string)
		case *int64:
			*d = v.(int64)
		case *bool:
			*d = v.(bool)
		case *time.Time:
			*d = v.(time.Time)
		default:
			return fmt.Errorf("scan: unsupported destination %T", d)
		}
	}
	return nil
}

func columnCount(columns string) int {
	return len(strings.Split(columns, ","))
}

func TestRowMapping_Settings(t *testing.T) {
	in := budget.PeriodState{
		MonthlyIncome: decimal.NewNullDecimal(decimal.RequireFromString("3000.50")),
		ActiveMonth:   budget.NewMonth(2025, time.March),
	}
	values := settingsValues(in)
	require.Len(t, values, columnCount(settingsColumns))

	out, err := scanSettings(valuesRow(values))
	require.NoError(t, err)
	assert.True(t, out.MonthlyIncome.Valid)
	assert.True(t, in.MonthlyIncome.Decimal.Equal(out.MonthlyIncome.Decimal))
	assert.Equal(t, in.ActiveMonth, out.ActiveMonth)

	// Empty income is stored as NULL
	out, err = scanSettings(valuesRow(settingsValues(budget.PeriodState{ActiveMonth: in.ActiveMonth})))
	require.NoError(t, err)
	assert.False(t, out.MonthlyIncome.Valid)
}

func TestRowMapping_BaseExpenseAndCategory(t *testing.T) {
	e := budget.BaseExpense{ID: "rent", Name: "Rent", Amount: decimal.RequireFromString("950.25")}
	require.Len(t, baseExpenseValues(e), columnCount(baseExpenseColumns))
	gotE, err := scanBaseExpense(valuesRow(baseExpenseValues(e)))
	require.NoError(t, err)
	assert.Equal(t, e.ID, gotE.ID)
	assert.Equal(t, e.Name, gotE.Name)
	assert.True(t, e.Amount.Equal(gotE.Amount))

	c := budget.Category{
		ID:               "food",
		Name:             "Food",
		PercentShare:     decimal.RequireFromString("33.5"),
		PersistedBalance: decimal.RequireFromString("-12.5"),
		Allocated:        decimal.NewFromInt(400),
		CarryOver:        true,
		IsSavingsOnly:    true,
	}
	require.Len(t, categoryValues(c), columnCount(categoryColumns))
	gotC, err := scanCategory(valuesRow(categoryValues(c)))
	require.NoError(t, err)
	assert.Equal(t, c.ID, gotC.ID)
	assert.True(t, c.PercentShare.Equal(gotC.PercentShare))
	assert.True(t, c.PersistedBalance.Equal(gotC.PersistedBalance))
	assert.True(t, c.Allocated.Equal(gotC.Allocated))
	assert.True(t, gotC.CarryOver)
	assert.True(t, gotC.IsSavingsOnly)
}

func TestRowMapping_Transaction(t *testing.T) {
	tests := []struct {
		name string
		tx   budget.Transaction
	}{
		{"expense", budget.Transaction{
			ID: "t1", Seq: 7, Type: budget.TxExpense,
			Date:       time.Date(2025, time.April, 2, 9, 0, 0, 0, time.UTC),
			Month:      budget.NewMonth(2025, time.March),
			CategoryID: "food", CategoryName: "Food",
			Amount: decimal.RequireFromString("12.34"), Description: "groceries",
		}},
		{"distribution without category", budget.Transaction{
			ID: "t2", Seq: 8, Type: budget.TxDistribution,
			Date:   time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
			Month:  budget.NewMonth(2025, time.March),
			Amount: decimal.NewFromInt(2000),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := transactionValues(tt.tx)
			require.Len(t, values, columnCount(transactionColumns))

			got, err := scanTransaction(valuesRow(values))
			require.NoError(t, err)
			assert.True(t, tt.tx.Amount.Equal(got.Amount))
			got.Amount = tt.tx.Amount
			assert.Equal(t, tt.tx, got)
		})
	}

	// Empty text columns are bound as NULL
	values := transactionValues(tests[1].tx)
	assert.False(t, values[5].(sql.NullString).Valid)
	assert.False(t, values[8].(sql.NullString).Valid)
}

func TestRowMapping_Goal(t *testing.T) {
	g := budget.Goal{
		ID:           "g1",
		Name:         "Bike",
		Icon:         "🚲",
		CategoryID:   "travel",
		TargetAmount: decimal.NewFromInt(500),
		TargetDate:   time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC),
		StartBalance: decimal.RequireFromString("120.5"),
		CreatedAt:    time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC),
	}
	values := goalValues(g)
	require.Len(t, values, columnCount(goalColumns))

	got, err := scanGoal(valuesRow(values))
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.ID)
	assert.Equal(t, "", got.Description)
	assert.Equal(t, g.Icon, got.Icon)
	assert.Equal(t, g.CategoryID, got.CategoryID)
	assert.True(t, g.TargetAmount.Equal(got.TargetAmount))
	assert.True(t, g.StartBalance.Equal(got.StartBalance))
	assert.Equal(t, g.TargetDate, got.TargetDate)
	assert.Equal(t, g.CreatedAt, got.CreatedAt)
}

func TestInsertSQL(t *testing.T) {
	assert.Equal(t,
		"INSERT INTO base_expenses (user_id, id, name, amount, sort_order) VALUES ($1, $2, $3, $4, $5)",
		insertSQL("base_expenses", baseExpenseColumns, 3, true))
	assert.Equal(t,
		"INSERT INTO transactions (user_id, "+transactionColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)",
		insertSQL("transactions", transactionColumns, 9, false))
}
