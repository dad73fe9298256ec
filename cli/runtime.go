/*
runtime.go - Process wiring shared by every command

STARTUP SEQUENCE:
  1. Build the logger from configuration
  2. Open the local and remote stores named by LOCAL_BACKEND / REMOTE_BACKEND
  3. Load the budget (remote, then local, then seed)
  4. Build the policy, the syncer and the engine

SHUTDOWN:
  Close flushes the pending save, waits for ledger appends and closes the
  stores, in that order.

SEE ALSO:
  - persist/loader.go, persist/syncer.go
  - config/config.go: keys and defaults
*/
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/budget/store"
	"github.com/warp/budget-engine/config"
	"github.com/warp/budget-engine/factory"
	"github.com/warp/budget-engine/logging"
	"github.com/warp/budget-engine/money"
	"github.com/warp/budget-engine/persist"
	"github.com/warp/budget-engine/store/postgres"
	redisstore "github.com/warp/budget-engine/store/redis"
	"github.com/warp/budget-engine/store/sqlite"
)

// Runtime is a fully wired engine plus the resources behind it.
type Runtime struct {
	Config    *config.Config
	Logger    *slog.Logger
	Engine    *budget.Engine
	Syncer    *persist.Syncer
	Formatter *money.Formatter
	Source    persist.Source

	closers []io.Closer
}

// Bootstrap builds a Runtime from cfg.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Runtime{
		Config:    cfg,
		Logger:    logger,
		Formatter: money.NewFormatter(cfg.LanguageTag()),
	}

	policy, err := factory.NewPolicyWithLimit(cfg.AllocationPolicy, cfg.DistributionLimit)
	if err != nil {
		return nil, err
	}

	seed := factory.DefaultSeed(budget.MonthOf(time.Now()))
	if cfg.SeedFile != "" {
		if seed, err = factory.LoadSeed(cfg.SeedFile, budget.MonthOf(time.Now())); err != nil {
			return nil, err
		}
	}

	local, err := rt.openStore(ctx, cfg.LocalBackend)
	if err != nil {
		rt.closeStores()
		return nil, fmt.Errorf("local store: %w", err)
	}
	remote, err := rt.openStore(ctx, cfg.RemoteBackend)
	if err != nil {
		rt.closeStores()
		return nil, fmt.Errorf("remote store: %w", err)
	}

	owner := budget.OwnerKey(cfg.OwnerKey)
	loader := &persist.Loader{
		Local:  local,
		Remote: remote,
		Seed:   func() budget.State { return seed },
		Logger: logger,
	}
	loaded := loader.Load(ctx, owner)
	rt.Source = loaded.Source

	var targets []persist.Target
	if local != nil {
		targets = append(targets, persist.Target{Name: cfg.LocalBackend, Store: local})
	}
	if remote != nil {
		targets = append(targets, persist.Target{Name: cfg.RemoteBackend, Store: remote})
	}
	rt.Syncer = persist.NewSyncer(targets, persist.SyncerOptions{
		Debounce: cfg.SaveDebounce,
		Logger:   logger,
	})

	rt.Engine = budget.NewEngine(loaded.State, policy,
		budget.WithOwner(owner),
		budget.WithChangeSink(rt.Syncer),
		budget.WithLogger(logging.WithComponent(logger, logging.ComponentEngine)))

	if loaded.Source == persist.SourceSeed {
		rt.Syncer.StateChanged(owner, rt.Engine.Snapshot())
	}

	logger.Info("budget engine ready",
		logging.FieldOwner, cfg.OwnerKey,
		logging.FieldMonth, rt.Engine.Period().ActiveMonth.String(),
		"policy", string(policy.Name()),
		"source", string(loaded.Source))
	return rt, nil
}

func (rt *Runtime) openStore(ctx context.Context, backend string) (budget.Store, error) {
	cfg := rt.Config
	storeLog := logging.WithComponent(rt.Logger, logging.ComponentStorage).With(logging.FieldBackend, backend)

	switch backend {
	case config.BackendNone, "":
		return nil, nil
	case config.BackendMemory:
		return store.NewMemory(), nil
	case config.BackendSQLite:
		s, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, s)
		storeLog.Debug("store opened", "path", cfg.SQLiteDBPath)
		return s, nil
	case config.BackendPostgres:
		s, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.Options{Logger: storeLog})
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, s)
		return s, nil
	case config.BackendRedis:
		s, err := redisstore.Open(ctx, cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, s)
		storeLog.Debug("store opened", "prefix", cfg.RedisPrefix)
		return s, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

// Close flushes pending writes and releases the stores.
func (rt *Runtime) Close(ctx context.Context) error {
	err := rt.Syncer.Close(ctx)
	if err != nil {
		rt.Logger.Warn("final save failed", logging.FieldOperation, logging.OpShutdown, logging.FieldError, err)
	}
	rt.closeStores()
	return err
}

func (rt *Runtime) closeStores() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i].Close(); err != nil {
			rt.Logger.Warn("store close failed", logging.FieldError, err)
		}
	}
	rt.closers = nil
}
