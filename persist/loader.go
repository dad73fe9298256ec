/*
Package persist connects the engine to its stores.

PURPOSE:
  The engine computes over an in-memory snapshot and never waits for I/O.
  This package decides where that snapshot comes from at startup (Loader)
  and how changes reach storage afterwards (Syncer).

LOAD ORDER:
  1. Local cache (fast, may be stale)
  2. Remote store (authoritative when it has data)
  3. Seed defaults when neither has data

  A failing store is logged and treated as empty. When the remote wins,
  the local cache is overwritten with the remote copy so the next start is
  consistent.

SEE ALSO:
  - syncer.go: debounced saves
  - budget/store.go: Store and ChangeSink contracts
*/
package persist

import (
	"context"
	"log/slog"

	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/logging"
)

// Source names where a loaded state came from.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
	SourceSeed   Source = "seed"
)

// LoadResult is the state chosen at startup.
type LoadResult struct {
	State  budget.State
	Source Source
}

// Loader implements the cache-then-reconcile startup load.
type Loader struct {
	Local  budget.Store // may be nil
	Remote budget.Store // may be nil
	Seed   func() budget.State
	Logger *slog.Logger
}

// Load picks the state to start from. It never fails: store errors fall
// back to the next source.
func (l *Loader) Load(ctx context.Context, owner budget.OwnerKey) LoadResult {
	logger := logging.WithComponent(l.Logger, logging.ComponentSync).With(logging.FieldOwner, string(owner))

	local := l.loadFrom(ctx, logger, l.Local, owner, SourceLocal)
	remote := l.loadFrom(ctx, logger, l.Remote, owner, SourceRemote)

	switch {
	case !remote.IsEmpty():
		if l.Local != nil {
			l.refreshLocal(ctx, logger, owner, remote, local)
		}
		logger.Info("budget loaded", "source", SourceRemote)
		return LoadResult{State: *remote, Source: SourceRemote}
	case !local.IsEmpty():
		logger.Info("budget loaded", "source", SourceLocal)
		return LoadResult{State: *local, Source: SourceLocal}
	default:
		var seed budget.State
		if l.Seed != nil {
			seed = l.Seed()
		}
		logger.Info("no stored budget, starting from defaults", "source", SourceSeed)
		return LoadResult{State: seed, Source: SourceSeed}
	}
}

func (l *Loader) loadFrom(ctx context.Context, logger *slog.Logger, store budget.Store, owner budget.OwnerKey, source Source) *budget.State {
	if store == nil {
		return nil
	}
	state, err := store.Load(ctx, owner)
	if err != nil {
		logger.Warn("load failed, treating as empty",
			"source", source,
			logging.FieldOperation, logging.OpLoad,
			logging.FieldError, err)
		return nil
	}
	return state
}

// refreshLocal copies the remote state into the local cache, appending
// ledger entries the cache does not have yet.
func (l *Loader) refreshLocal(ctx context.Context, logger *slog.Logger, owner budget.OwnerKey, remote, local *budget.State) {
	if err := l.Local.Save(ctx, owner, *remote); err != nil {
		logger.Warn("local cache refresh failed", logging.FieldOperation, logging.OpSave, logging.FieldError, err)
		return
	}

	have := make(map[budget.TransactionID]bool)
	if local != nil {
		for _, tx := range local.Transactions {
			have[tx.ID] = true
		}
	}
	for _, tx := range remote.Transactions {
		if have[tx.ID] {
			continue
		}
		if err := l.Local.AppendTransaction(ctx, owner, tx); err != nil {
			logger.Warn("local ledger backfill failed", logging.FieldOperation, logging.OpAppend, logging.FieldError, err)
			return
		}
	}
}
