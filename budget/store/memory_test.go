package store

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/budget-engine/budget"
)

func TestMemory_EmptyLoad(t *testing.T) {
	m := NewMemory()

	state, err := m.Load(context.Background(), "alice")

	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestMemory_SaveIgnoresTransactions(t *testing.T) {
	// GIVEN: a state carrying ledger entries
	ctx := context.Background()
	m := NewMemory()
	state := budget.State{
		Categories:   []budget.Category{{ID: "c1", Name: "Food"}},
		Transactions: []budget.Transaction{{ID: "t1", Seq: 1}},
	}

	// WHEN: it is saved
	require.NoError(t, m.Save(ctx, "alice", state))

	// THEN: only the settings are stored
	loaded, err := m.Load(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Len(t, loaded.Categories, 1)
	assert.Empty(t, loaded.Transactions)
	assert.Equal(t, 1, m.Saves())
}

func TestMemory_AppendOrdersBySeqAndUpserts(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.AppendTransaction(ctx, "alice", budget.Transaction{ID: "b", Seq: 2}))
	require.NoError(t, m.AppendTransaction(ctx, "alice", budget.Transaction{ID: "a", Seq: 1}))
	require.NoError(t, m.AppendTransaction(ctx, "alice", budget.Transaction{ID: "b", Seq: 2, Amount: decimal.NewFromInt(9)}))
	require.NoError(t, m.AppendTransaction(ctx, "bob", budget.Transaction{ID: "x", Seq: 1}))

	loaded, err := m.Load(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, loaded.Transactions, 2)
	assert.Equal(t, budget.TransactionID("a"), loaded.Transactions[0].ID)
	assert.Equal(t, budget.TransactionID("b"), loaded.Transactions[1].ID)
	assert.True(t, loaded.Transactions[1].Amount.Equal(decimal.NewFromInt(9)), "last write wins")
}

func TestMemory_InjectedError(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	boom := errors.New("boom")
	m.SetErr(boom)

	_, err := m.Load(ctx, "alice")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, m.Save(ctx, "alice", budget.State{}), boom)
	assert.ErrorIs(t, m.AppendTransaction(ctx, "alice", budget.Transaction{ID: "t"}), boom)

	m.SetErr(nil)
	assert.NoError(t, m.Save(ctx, "alice", budget.State{}))
}
