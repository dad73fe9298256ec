/*
store.go - Persistence contract

PURPOSE:
  Defines the boundary between the engine and storage. The engine never
  calls a Store directly: it publishes changes through a ChangeSink and the
  persist package decides when and where to write.

KEY INTERFACES:
  Store:      load / save / append for one owner
  ChangeSink: receives engine changes (fire-and-forget)

APPEND-ONLY CONTRACT:
  Save replaces settings, base expenses, categories and goals. It never
  touches the ledger. Transactions reach storage only through
  AppendTransaction, one at a time, and are never updated or deleted.

IMPLEMENTATIONS:
  - budget/store/memory.go: in-memory (tests, default local cache)
  - store/sqlite: local cache on SQLite
  - store/postgres: remote store on PostgreSQL
  - store/redis: cache on Redis

SEE ALSO:
  - persist/loader.go: cache-then-reconcile load
  - persist/syncer.go: debounced save
*/
package budget

import "context"

// =============================================================================
// STORE
// =============================================================================

// Store persists one owner's budget.
type Store interface {
	// Load returns the stored state, or nil with no error when nothing is stored.
	Load(ctx context.Context, owner OwnerKey) (*State, error)

	// Save replaces everything except the ledger. state.Transactions is ignored.
	Save(ctx context.Context, owner OwnerKey, state State) error

	// AppendTransaction adds one ledger entry. Appending an id that already
	// exists overwrites it (last write wins).
	AppendTransaction(ctx context.Context, owner OwnerKey, tx Transaction) error
}

// =============================================================================
// CHANGE SINK
// =============================================================================

// ChangeSink receives engine changes. Implementations must not block and
// must not call back into the Engine.
type ChangeSink interface {
	StateChanged(owner OwnerKey, state State)
	TransactionAppended(owner OwnerKey, tx Transaction)
}

// NopSink discards changes.
type NopSink struct{}

func (NopSink) StateChanged(OwnerKey, State)             {}
func (NopSink) TransactionAppended(OwnerKey, Transaction) {}
