package redis

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/budget-engine/budget"
)

// Commands are exercised against a live server only. These tests cover the
// document mapping and option parsing.

func TestParseOptions(t *testing.T) {
	opt, err := ParseOptions("cache:6380")
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opt.Addr)

	opt, err = ParseOptions("redis://:secret@cache:6379/2")
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opt.Addr)
	assert.Equal(t, "secret", opt.Password)
	assert.Equal(t, 2, opt.DB)
}

func TestParseOptions_Malformed(t *testing.T) {
	_, err := ParseOptions("redis://cache:6379/not-a-db")
	assert.ErrorContains(t, err, "invalid redis url")

	_, err = ParseOptions("ftp://cache:6379")
	assert.ErrorContains(t, err, "invalid redis url")
}

func TestStateDocument_RoundTrip(t *testing.T) {
	state := budget.State{
		PeriodState: budget.PeriodState{ActiveMonth: budget.NewMonth(2025, time.June)},
		BaseExpenses: []budget.BaseExpense{
			{ID: "b1", Name: "Rent", Amount: decimal.NewFromInt(700)},
		},
		Categories: []budget.Category{
			{ID: "c1", Name: "Food", PercentShare: decimal.NewFromInt(40), PersistedBalance: decimal.RequireFromString("-12.5"), CarryOver: true},
		},
	}

	raw, err := json.Marshal(newStateDocument(state))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"monthly_income":null`)
	assert.Contains(t, string(raw), `"current_month":"2025-06"`)

	var doc stateDocument
	require.NoError(t, json.Unmarshal(raw, &doc))
	back := doc.toState()

	assert.False(t, back.MonthlyIncome.Valid)
	assert.Equal(t, state.ActiveMonth, back.ActiveMonth)
	require.Len(t, back.Categories, 1)
	assert.True(t, back.Categories[0].PersistedBalance.Equal(decimal.RequireFromString("-12.5")))
	assert.True(t, back.Categories[0].CarryOver)
}

func TestTransactionDocument_RoundTrip(t *testing.T) {
	tx := budget.Transaction{
		ID:           "t1",
		Seq:          7,
		Type:         budget.TxExpense,
		Date:         time.Date(2025, time.June, 2, 10, 0, 0, 0, time.UTC),
		Month:        budget.NewMonth(2025, time.June),
		CategoryID:   "c1",
		CategoryName: "Food",
		Amount:       decimal.RequireFromString("19.90"),
	}

	raw, err := json.Marshal(newTransactionDocument(tx))
	require.NoError(t, err)

	var doc transactionDocument
	require.NoError(t, json.Unmarshal(raw, &doc))
	back := doc.toTransaction()

	assert.Equal(t, tx.ID, back.ID)
	assert.Equal(t, tx.Seq, back.Seq)
	assert.Equal(t, tx.Month, back.Month)
	assert.True(t, tx.Date.Equal(back.Date))
	assert.True(t, tx.Amount.Equal(back.Amount))
}
