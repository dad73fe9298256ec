/*
syncer.go - Debounced, fire-and-forget persistence

PURPOSE:
  Implements budget.ChangeSink. The engine reports every change; the
  Syncer coalesces rapid state changes into one write per debounce window
  and pushes ledger appends immediately in the background.

DESIGN:
  - StateChanged stores the latest snapshot and (re)arms a timer
  - When the timer fires the snapshot is saved to every target
    concurrently (errgroup); flushes are serialised so an older snapshot
    never lands after a newer one
  - TransactionAppended appends to every target in a goroutine
  - Failures are logged, never returned to the engine

CONFIGURATION:
  - Debounce:     quiet period before a save (default 750ms)
  - WriteTimeout: per-flush deadline (default 10s)

USAGE:
  syncer := persist.NewSyncer([]persist.Target{{Name: "sqlite", Store: local}}, persist.SyncerOptions{})
  engine := budget.NewEngine(state, policy, budget.WithChangeSink(syncer))
  // ... later
  syncer.Close(ctx)
*/
package persist

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/logging"
)

// DefaultDebounce is the save debounce window when none is configured.
const DefaultDebounce = 750 * time.Millisecond

// Target is a named store written by the Syncer.
type Target struct {
	Name  string
	Store budget.Store
}

// SyncerOptions configure a Syncer.
type SyncerOptions struct {
	Debounce     time.Duration
	WriteTimeout time.Duration
	Logger       *slog.Logger
}

type pendingSave struct {
	owner budget.OwnerKey
	state budget.State
}

// Syncer writes engine changes to one or more stores.
type Syncer struct {
	targets      []Target
	debounce     time.Duration
	writeTimeout time.Duration
	logger       *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	pending *pendingSave
	closed  bool

	flushMu sync.Mutex
	appends sync.WaitGroup
}

// NewSyncer creates a syncer writing to targets.
func NewSyncer(targets []Target, opts SyncerOptions) *Syncer {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	return &Syncer{
		targets:      targets,
		debounce:     opts.Debounce,
		writeTimeout: opts.WriteTimeout,
		logger:       logging.WithComponent(opts.Logger, logging.ComponentSync),
	}
}

// StateChanged schedules a save of state. Only the latest state in a
// debounce window is written.
func (s *Syncer) StateChanged(owner budget.OwnerKey, state budget.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.pending = &pendingSave{owner: owner, state: state}
	if s.timer == nil {
		s.timer = time.AfterFunc(s.debounce, s.flushFromTimer)
		return
	}
	s.timer.Reset(s.debounce)
}

// TransactionAppended pushes tx to every target in the background.
func (s *Syncer) TransactionAppended(owner budget.OwnerKey, tx budget.Transaction) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.appends.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.appends.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		defer cancel()

		err := s.eachTarget(ctx, func(ctx context.Context, t Target) error {
			return t.Store.AppendTransaction(ctx, owner, tx)
		})
		if err != nil {
			s.logger.Warn("append failed",
				logging.FieldOwner, string(owner),
				logging.FieldOperation, logging.OpAppend,
				"transaction_id", string(tx.ID),
				logging.FieldError, err)
		}
	}()
}

func (s *Syncer) flushFromTimer() {
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()
	if err := s.Flush(ctx); err != nil {
		s.logger.Warn("save failed", logging.FieldOperation, logging.OpSave, logging.FieldError, err)
	}
}

// Flush writes the pending state now, if any.
func (s *Syncer) Flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.mu.Lock()
	p := s.pending
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	if p == nil {
		return nil
	}

	start := time.Now()
	err := s.eachTarget(ctx, func(ctx context.Context, t Target) error {
		return t.Store.Save(ctx, p.owner, p.state)
	})
	if err != nil {
		return err
	}
	s.logger.Debug("budget saved",
		logging.FieldOwner, string(p.owner),
		logging.FieldDuration, time.Since(start).Milliseconds())
	return nil
}

// eachTarget runs fn against every target concurrently. A failing target
// does not cancel the others; the first failure is returned.
func (s *Syncer) eachTarget(ctx context.Context, fn func(context.Context, Target) error) error {
	var g errgroup.Group
	for _, t := range s.targets {
		t := t
		g.Go(func() error {
			if err := fn(ctx, t); err != nil {
				s.logger.Debug("store write failed", logging.FieldBackend, t.Name, logging.FieldError, err)
				return fmt.Errorf("%s: %w", t.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Close stops accepting changes, flushes the pending state and waits for
// background appends.
func (s *Syncer) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	err := s.Flush(ctx)

	done := make(chan struct{})
	go func() {
		s.appends.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

var _ budget.ChangeSink = (*Syncer)(nil)
