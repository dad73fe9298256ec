// Package store provides Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/budget-engine/budget"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	budgets      map[budget.OwnerKey]budget.State
	transactions map[budget.OwnerKey][]budget.Transaction
	saves        int

	// Err, when set, fails every call. Used to simulate an unreachable store.
	Err error
}

func NewMemory() *Memory {
	return &Memory{
		budgets:      make(map[budget.OwnerKey]budget.State),
		transactions: make(map[budget.OwnerKey][]budget.Transaction),
	}
}

// Load returns the owner's state with its ledger in Seq order.
func (m *Memory) Load(_ context.Context, owner budget.OwnerKey) (*budget.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Err != nil {
		return nil, m.Err
	}

	st, ok := m.budgets[owner]
	txs := m.transactions[owner]
	if !ok && len(txs) == 0 {
		return nil, nil
	}

	out := st.Clone()
	out.Transactions = append([]budget.Transaction(nil), txs...)
	return &out, nil
}

// Save replaces everything but the ledger.
func (m *Memory) Save(_ context.Context, owner budget.OwnerKey, state budget.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}

	st := state.Clone()
	st.Transactions = nil
	m.budgets[owner] = st
	m.saves++
	return nil
}

// AppendTransaction inserts tx in Seq order, replacing an entry with the same id.
func (m *Memory) AppendTransaction(_ context.Context, owner budget.OwnerKey, tx budget.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}

	txs := m.transactions[owner]
	for i := range txs {
		if txs[i].ID == tx.ID {
			txs[i] = tx
			return nil
		}
	}

	// Binary search for insertion point
	i := sort.Search(len(txs), func(i int) bool {
		return txs[i].Seq > tx.Seq
	})
	txs = append(txs, budget.Transaction{})
	copy(txs[i+1:], txs[i:])
	txs[i] = tx
	m.transactions[owner] = txs
	return nil
}

// Saves counts successful Save calls.
func (m *Memory) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// SetErr sets or clears the failure injected into every call.
func (m *Memory) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

var _ budget.Store = (*Memory)(nil)
