/*
ledger.go - Append-only transaction log

PURPOSE:
  The Ledger records every expense, income entry and distribution. Category
  spending for a month is always derived by summing the ledger; there is no
  separate "spent" counter that can drift.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete. EVER.
  2. ORDERED: insertion order (Seq) is the canonical order
  3. MONTH-KEYED: queries filter on the recorded Month key, never on Date

ID COLLISIONS:
  Append never fails. If a caller supplies an id that already exists, the
  new entry replaces the old one in place (most recent write wins).

SEE ALSO:
  - store.go: persistence of ledger entries (AppendTransaction)
  - engine.go: the only writer
*/
package budget

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER
// =============================================================================

// Ledger is an in-memory, append-only list of transactions.
// It is not safe for concurrent use; the Engine serialises access.
type Ledger struct {
	entries []Transaction
	index   map[TransactionID]int
	ids     IDGenerator
	seq     int64
}

// NewLedger builds a ledger from previously persisted transactions, which
// are kept in their Seq order (input order for equal or missing Seq).
func NewLedger(txs []Transaction, ids IDGenerator) *Ledger {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	l := &Ledger{
		index: make(map[TransactionID]int, len(txs)),
		ids:   ids,
	}
	sorted := append([]Transaction(nil), txs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Seq < sorted[j].Seq })
	for _, tx := range sorted {
		l.Append(tx)
	}
	return l
}

// Append adds tx at the end of the log and returns its id. An empty id is
// generated; a missing or stale Seq is replaced by the next sequence value.
// An id already in the log replaces that entry in place, keeping its Seq.
func (l *Ledger) Append(tx Transaction) TransactionID {
	if tx.ID == "" {
		tx.ID = TransactionID(l.ids.NewID())
	}
	if i, ok := l.index[tx.ID]; ok {
		tx.Seq = l.entries[i].Seq
		l.entries[i] = tx
		return tx.ID
	}

	if tx.Seq <= l.seq {
		tx.Seq = l.seq + 1
	}
	l.seq = tx.Seq
	l.index[tx.ID] = len(l.entries)
	l.entries = append(l.entries, tx)
	return tx.ID
}

// Len returns the number of entries.
func (l *Ledger) Len() int { return len(l.entries) }

// Last returns the most recently appended entry.
func (l *Ledger) Last() (Transaction, bool) {
	if len(l.entries) == 0 {
		return Transaction{}, false
	}
	return l.entries[len(l.entries)-1], true
}

// Get returns the entry with the given id.
func (l *Ledger) Get(id TransactionID) (Transaction, bool) {
	i, ok := l.index[id]
	if !ok {
		return Transaction{}, false
	}
	return l.entries[i], true
}

// All returns a copy of the log in insertion order.
func (l *Ledger) All() []Transaction {
	return append([]Transaction(nil), l.entries...)
}

// SumByTypeAndMonth sums Amount over entries of the given type recorded in
// month. An empty categoryID matches every category.
func (l *Ledger) SumByTypeAndMonth(txType TransactionType, month Month, categoryID string) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range l.entries {
		if tx.Type != txType || !tx.Month.Equal(month) {
			continue
		}
		if categoryID != "" && tx.CategoryID != categoryID {
			continue
		}
		total = total.Add(tx.Amount)
	}
	return total
}

// SpentThisMonth is the expense total of one category in month.
func (l *Ledger) SpentThisMonth(month Month, categoryID string) decimal.Decimal {
	return l.SumByTypeAndMonth(TxExpense, month, categoryID)
}

// DistributionCountForMonth counts distribution entries recorded in month.
func (l *Ledger) DistributionCountForMonth(month Month) int {
	n := 0
	for _, tx := range l.entries {
		if tx.Type == TxDistribution && tx.Month.Equal(month) {
			n++
		}
	}
	return n
}

// ForMonth returns the month's entries in display order: newest Date first,
// ties in insertion order.
func (l *Ledger) ForMonth(month Month) []Transaction {
	var out []Transaction
	for _, tx := range l.entries {
		if tx.Month.Equal(month) {
			out = append(out, tx)
		}
	}
	sortForDisplay(out)
	return out
}

func sortForDisplay(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.After(txs[j].Date)
	})
}
