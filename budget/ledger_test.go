package budget_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/budget-engine/budget"
)

// =============================================================================
// LEDGER INVARIANTS
// =============================================================================

func newLedger() *budget.Ledger {
	return budget.NewLedger(nil, budget.NewSequenceGenerator("tx", 0))
}

func TestLedger_AppendAssignsIDAndSequence(t *testing.T) {
	l := newLedger()

	id1 := l.Append(budget.Transaction{Type: budget.TxExpense, Month: march2025, Amount: dec("1")})
	id2 := l.Append(budget.Transaction{Type: budget.TxExpense, Month: march2025, Amount: dec("2")})

	assert.Equal(t, budget.TransactionID("tx-1"), id1)
	assert.Equal(t, budget.TransactionID("tx-2"), id2)

	all := l.All()
	require.Len(t, all, 2)
	assert.Less(t, all[0].Seq, all[1].Seq)
}

func TestLedger_CollidingIDReplaces(t *testing.T) {
	l := newLedger()
	l.Append(budget.Transaction{ID: "a", Type: budget.TxExpense, Month: march2025, Amount: dec("1")})
	l.Append(budget.Transaction{ID: "a", Type: budget.TxExpense, Month: march2025, Amount: dec("9")})

	assert.Equal(t, 1, l.Len())
	tx, ok := l.Get("a")
	require.True(t, ok)
	assertDec(t, "9", tx.Amount)
}

func TestLedger_ReplacedEntryKeepsPositionAcrossReload(t *testing.T) {
	// GIVEN: a ledger where the first entry is rewritten after a second append
	l := newLedger()
	l.Append(budget.Transaction{ID: "a", Type: budget.TxExpense, Month: march2025, Amount: dec("1")})
	l.Append(budget.Transaction{ID: "b", Type: budget.TxExpense, Month: march2025, Amount: dec("2")})
	l.Append(budget.Transaction{ID: "a", Type: budget.TxExpense, Month: march2025, Amount: dec("9")})

	// WHEN: the ledger is rebuilt from its entries
	reloaded := budget.NewLedger(l.All(), nil)

	// THEN: the rewritten entry keeps its sequence and its place
	a, ok := l.Get("a")
	require.True(t, ok)
	assert.Equal(t, int64(1), a.Seq)

	var before, after []budget.TransactionID
	for _, tx := range l.All() {
		before = append(before, tx.ID)
	}
	for _, tx := range reloaded.All() {
		after = append(after, tx.ID)
	}
	assert.Equal(t, []budget.TransactionID{"a", "b"}, before)
	assert.Equal(t, before, after)

	// AND: new entries still continue after the highest sequence
	l.Append(budget.Transaction{ID: "c", Month: march2025})
	last, _ := l.Last()
	assert.Equal(t, int64(3), last.Seq)
}

func TestLedger_SumByTypeAndMonth_UsesMonthKey(t *testing.T) {
	// GIVEN: an expense dated in April but recorded while March was active
	// WHEN: summing by month
	// THEN: the month key decides, not the calendar date
	l := newLedger()
	l.Append(budget.Transaction{
		Type:       budget.TxExpense,
		Month:      march2025,
		Date:       time.Date(2025, time.April, 2, 0, 0, 0, 0, time.UTC),
		CategoryID: "food",
		Amount:     dec("10"),
	})
	l.Append(budget.Transaction{Type: budget.TxExpense, Month: march2025, CategoryID: "fun", Amount: dec("5")})
	l.Append(budget.Transaction{Type: budget.TxIncome, Month: march2025, Amount: dec("100")})

	assertDec(t, "15", l.SumByTypeAndMonth(budget.TxExpense, march2025, ""))
	assertDec(t, "10", l.SpentThisMonth(march2025, "food"))
	assertDec(t, "0", l.SpentThisMonth(march2025.Next(), "food"))
	assertDec(t, "100", l.SumByTypeAndMonth(budget.TxIncome, march2025, ""))
}

func TestLedger_DistributionCountForMonth(t *testing.T) {
	l := newLedger()
	l.Append(budget.Transaction{Type: budget.TxDistribution, Month: march2025, Amount: dec("1")})
	l.Append(budget.Transaction{Type: budget.TxDistribution, Month: march2025.Next(), Amount: dec("1")})
	l.Append(budget.Transaction{Type: budget.TxDistribution, Month: march2025, Amount: dec("1")})

	assert.Equal(t, 2, l.DistributionCountForMonth(march2025))
	assert.Equal(t, 1, l.DistributionCountForMonth(march2025.Next()))
}

func TestNewLedger_RestoresSeqOrder(t *testing.T) {
	l := budget.NewLedger([]budget.Transaction{
		{ID: "b", Seq: 2, Month: march2025},
		{ID: "a", Seq: 1, Month: march2025},
	}, nil)

	all := l.All()
	require.Len(t, all, 2)
	assert.Equal(t, budget.TransactionID("a"), all[0].ID)
	assert.Equal(t, budget.TransactionID("b"), all[1].ID)

	// New entries continue after the restored sequence
	l.Append(budget.Transaction{ID: "c", Month: march2025})
	last, ok := l.Last()
	require.True(t, ok)
	assert.Equal(t, int64(3), last.Seq)
}
