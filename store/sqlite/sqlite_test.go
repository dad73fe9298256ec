package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/budget-engine/budget"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleState() budget.State {
	return budget.State{
		PeriodState: budget.PeriodState{
			MonthlyIncome: decimal.NewNullDecimal(decimal.RequireFromString("3200.50")),
			ActiveMonth:   budget.NewMonth(2025, time.May),
		},
		BaseExpenses: []budget.BaseExpense{
			{ID: "b1", Name: "Rent", Amount: decimal.NewFromInt(900)},
			{ID: "b2", Name: "Internet", Amount: decimal.RequireFromString("29.99")},
		},
		Categories: []budget.Category{
			{ID: "c1", Name: "Food", PercentShare: decimal.NewFromInt(50), PersistedBalance: decimal.NewFromInt(-40), Allocated: decimal.NewFromInt(100), CarryOver: true},
			{ID: "c2", Name: "Savings", PercentShare: decimal.NewFromInt(50), IsSavingsOnly: true},
		},
		Goals: []budget.Goal{{
			ID:           "g1",
			Name:         "Laptop",
			Icon:         "💻",
			CategoryID:   "c2",
			TargetAmount: decimal.NewFromInt(1500),
			TargetDate:   time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC),
			StartBalance: decimal.NewFromInt(10),
			CreatedAt:    time.Date(2025, time.May, 3, 9, 30, 0, 0, time.UTC),
		}},
	}
}

func TestLoad_EmptyReturnsNil(t *testing.T) {
	store := newTestStore(t)

	state, err := store.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestSaveAndLoad(t *testing.T) {
	// GIVEN: a saved budget
	// WHEN: loading it back
	// THEN: every field survives, order included
	ctx := context.Background()
	store := newTestStore(t)
	want := sampleState()

	require.NoError(t, store.Save(ctx, "alice", want))

	got, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.True(t, got.MonthlyIncome.Valid)
	assert.True(t, want.MonthlyIncome.Decimal.Equal(got.MonthlyIncome.Decimal))
	assert.Equal(t, want.ActiveMonth, got.ActiveMonth)

	require.Len(t, got.BaseExpenses, 2)
	assert.Equal(t, "Rent", got.BaseExpenses[0].Name)
	assert.True(t, want.BaseExpenses[1].Amount.Equal(got.BaseExpenses[1].Amount))

	require.Len(t, got.Categories, 2)
	assert.Equal(t, "c1", got.Categories[0].ID)
	assert.True(t, got.Categories[0].PersistedBalance.Equal(decimal.NewFromInt(-40)))
	assert.True(t, got.Categories[0].Allocated.Equal(decimal.NewFromInt(100)))
	assert.True(t, got.Categories[0].CarryOver)
	assert.True(t, got.Categories[1].IsSavingsOnly)

	require.Len(t, got.Goals, 1)
	assert.Equal(t, "💻", got.Goals[0].Icon)
	assert.True(t, want.Goals[0].TargetDate.Equal(got.Goals[0].TargetDate))
	assert.True(t, want.Goals[0].CreatedAt.Equal(got.Goals[0].CreatedAt))

	assert.Empty(t, got.Transactions)
}

func TestSave_ReplacesListsAndKeepsLedger(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	state := sampleState()
	require.NoError(t, store.Save(ctx, "alice", state))
	require.NoError(t, store.AppendTransaction(ctx, "alice", budget.Transaction{
		ID: "t1", Seq: 1, Type: budget.TxExpense, Month: state.ActiveMonth, CategoryID: "c1", Amount: decimal.NewFromInt(5),
	}))

	state.Categories = state.Categories[:1]
	state.MonthlyIncome = decimal.NullDecimal{}
	require.NoError(t, store.Save(ctx, "alice", state))

	got, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, got.Categories, 1)
	assert.False(t, got.MonthlyIncome.Valid)
	assert.Len(t, got.Transactions, 1, "save must not touch the ledger")
}

func TestAppendTransaction_OrderAndUpsert(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	month := budget.NewMonth(2025, time.May)
	date := time.Date(2025, time.May, 4, 18, 0, 0, 0, time.UTC)

	require.NoError(t, store.AppendTransaction(ctx, "alice", budget.Transaction{ID: "t2", Seq: 2, Type: budget.TxIncome, Date: date, Month: month, Amount: decimal.NewFromInt(10)}))
	require.NoError(t, store.AppendTransaction(ctx, "alice", budget.Transaction{ID: "t1", Seq: 1, Type: budget.TxExpense, Date: date, Month: month, CategoryID: "c1", CategoryName: "Food", Amount: decimal.NewFromInt(3)}))
	require.NoError(t, store.AppendTransaction(ctx, "alice", budget.Transaction{ID: "t1", Seq: 1, Type: budget.TxExpense, Date: date, Month: month, CategoryID: "c1", CategoryName: "Food", Amount: decimal.NewFromInt(4)}))

	got, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got, "a ledger alone is stored data")
	require.Len(t, got.Transactions, 2)
	assert.Equal(t, budget.TransactionID("t1"), got.Transactions[0].ID)
	assert.True(t, got.Transactions[0].Amount.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, "Food", got.Transactions[0].CategoryName)
	assert.True(t, date.Equal(got.Transactions[0].Date))
	assert.Equal(t, month, got.Transactions[1].Month)
}

func TestOwnersAreIsolated(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.Save(ctx, "alice", sampleState()))

	got, err := store.Load(ctx, "bob")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Reset(ctx, "alice"))
	got, err = store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, got)
}
