/*
Package sqlite provides a SQLite-backed implementation of budget.Store.

PURPOSE:
  The local cache of the budget. It is read first at startup and written on
  every debounced save, so a restart shows the last known state even when
  the remote store is unreachable.

APPEND-ONLY ENFORCEMENT:
  - Save rewrites settings, base expenses, categories and goals of one
    owner inside a single SQL transaction
  - Save never touches the transactions table
  - AppendTransaction is an upsert keyed by (owner, id): the same entry
    written twice is stored once, last write wins

KEY TABLES:
  budget_settings: income and active month per owner
  base_expenses:   fixed monthly costs, ordered by sort_order
  categories:      shares, balances and flags, ordered by sort_order
  transactions:    ledger entries, ordered by seq
  goals:           savings goals, ordered by sort_order

AMOUNTS:
  Stored as TEXT in decimal notation and parsed back with
  decimal.NewFromString, so no precision is lost.

USAGE:
  store, err := sqlite.New("./data/budget.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - budget/store.go: Store interface
  - budget/store/memory.go: In-memory implementation for testing
  - store/postgres: remote store with the same layout
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/budget-engine/budget"
)

// Store implements budget.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_foreign_keys=on&_journal_mode=WAL"
	if dbPath == ":memory:" {
		dsn = dbPath
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS budget_settings (
		owner TEXT PRIMARY KEY,
		income TEXT,
		active_month TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS base_expenses (
		owner TEXT NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		amount TEXT NOT NULL,
		sort_order INTEGER NOT NULL,
		PRIMARY KEY (owner, id)
	);

	CREATE TABLE IF NOT EXISTS categories (
		owner TEXT NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		percent_share TEXT NOT NULL,
		persisted_balance TEXT NOT NULL,
		allocated TEXT NOT NULL DEFAULT '0',
		carry_over BOOLEAN NOT NULL DEFAULT FALSE,
		is_savings_only BOOLEAN NOT NULL DEFAULT FALSE,
		sort_order INTEGER NOT NULL,
		PRIMARY KEY (owner, id)
	);

	-- Ledger (append-only)
	CREATE TABLE IF NOT EXISTS transactions (
		owner TEXT NOT NULL,
		id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		tx_type TEXT NOT NULL,
		date TEXT NOT NULL,
		month TEXT NOT NULL,
		category_id TEXT,
		category_name TEXT,
		amount TEXT NOT NULL,
		description TEXT,
		PRIMARY KEY (owner, id)
	);

	-- Hot path: load in ledger order
	CREATE INDEX IF NOT EXISTS idx_transactions_owner_seq
		ON transactions(owner, seq);

	CREATE INDEX IF NOT EXISTS idx_transactions_owner_month
		ON transactions(owner, month, tx_type);

	CREATE TABLE IF NOT EXISTS goals (
		owner TEXT NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		icon TEXT,
		category_id TEXT NOT NULL,
		target_amount TEXT NOT NULL,
		target_date TEXT NOT NULL,
		start_balance TEXT NOT NULL,
		created_at TEXT NOT NULL,
		sort_order INTEGER NOT NULL,
		PRIMARY KEY (owner, id)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LOAD
// =============================================================================

// Load returns the owner's budget, or nil when nothing is stored.
func (s *Store) Load(ctx context.Context, owner budget.OwnerKey) (*budget.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var state budget.State
	found, err := s.loadSettings(ctx, owner, &state)
	if err != nil {
		return nil, err
	}
	if state.BaseExpenses, err = s.loadBaseExpenses(ctx, owner); err != nil {
		return nil, err
	}
	if state.Categories, err = s.loadCategories(ctx, owner); err != nil {
		return nil, err
	}
	if state.Transactions, err = s.loadTransactions(ctx, owner); err != nil {
		return nil, err
	}
	if state.Goals, err = s.loadGoals(ctx, owner); err != nil {
		return nil, err
	}

	if !found && state.IsEmpty() {
		return nil, nil
	}
	return &state, nil
}

func (s *Store) loadSettings(ctx context.Context, owner budget.OwnerKey, state *budget.State) (bool, error) {
	var income sql.NullString
	var month string
	err := s.db.QueryRowContext(ctx,
		"SELECT income, active_month FROM budget_settings WHERE owner = ?", owner,
	).Scan(&income, &month)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load settings: %w", err)
	}

	if income.Valid {
		d, err := decimal.NewFromString(income.String)
		if err != nil {
			return false, fmt.Errorf("invalid stored income %q: %w", income.String, err)
		}
		state.MonthlyIncome = decimal.NewNullDecimal(d)
	}
	if err := state.ActiveMonth.UnmarshalText([]byte(month)); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) loadBaseExpenses(ctx context.Context, owner budget.OwnerKey) ([]budget.BaseExpense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, amount FROM base_expenses WHERE owner = ? ORDER BY sort_order", owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query base expenses: %w", err)
	}
	defer rows.Close()

	var out []budget.BaseExpense
	for rows.Next() {
		var e budget.BaseExpense
		var amount string
		if err := rows.Scan(&e.ID, &e.Name, &amount); err != nil {
			return nil, err
		}
		e.Amount = parseDecimal(amount)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) loadCategories(ctx context.Context, owner budget.OwnerKey) ([]budget.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, percent_share, persisted_balance, allocated, carry_over, is_savings_only
		FROM categories WHERE owner = ? ORDER BY sort_order`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var out []budget.Category
	for rows.Next() {
		var c budget.Category
		var share, persisted, allocated string
		if err := rows.Scan(&c.ID, &c.Name, &share, &persisted, &allocated, &c.CarryOver, &c.IsSavingsOnly); err != nil {
			return nil, err
		}
		c.PercentShare = parseDecimal(share)
		c.PersistedBalance = parseDecimal(persisted)
		c.Allocated = parseDecimal(allocated)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) loadTransactions(ctx context.Context, owner budget.OwnerKey) ([]budget.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, tx_type, date, month, category_id, category_name, amount, description
		FROM transactions WHERE owner = ? ORDER BY seq ASC`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var out []budget.Transaction
	for rows.Next() {
		var tx budget.Transaction
		var date, month, amount string
		var catID, catName, desc sql.NullString
		if err := rows.Scan(&tx.ID, &tx.Seq, &tx.Type, &date, &month, &catID, &catName, &amount, &desc); err != nil {
			return nil, err
		}
		tx.Date, _ = time.Parse(time.RFC3339Nano, date)
		if err := tx.Month.UnmarshalText([]byte(month)); err != nil {
			return nil, err
		}
		tx.CategoryID = catID.String
		tx.CategoryName = catName.String
		tx.Amount = parseDecimal(amount)
		tx.Description = desc.String
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *Store) loadGoals(ctx context.Context, owner budget.OwnerKey) ([]budget.Goal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, icon, category_id, target_amount, target_date, start_balance, created_at
		FROM goals WHERE owner = ? ORDER BY sort_order`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var out []budget.Goal
	for rows.Next() {
		var g budget.Goal
		var desc, icon sql.NullString
		var target, targetDate, start, created string
		if err := rows.Scan(&g.ID, &g.Name, &desc, &icon, &g.CategoryID, &target, &targetDate, &start, &created); err != nil {
			return nil, err
		}
		g.Description = desc.String
		g.Icon = icon.String
		g.TargetAmount = parseDecimal(target)
		g.TargetDate, _ = time.Parse(time.RFC3339Nano, targetDate)
		g.StartBalance = parseDecimal(start)
		g.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, g)
	}
	return out, rows.Err()
}

// =============================================================================
// SAVE
// =============================================================================

// Save replaces the owner's settings, base expenses, categories and goals
// atomically. The ledger is left as is.
func (s *Store) Save(ctx context.Context, owner budget.OwnerKey, state budget.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	var income sql.NullString
	if state.MonthlyIncome.Valid {
		income = sql.NullString{String: state.MonthlyIncome.Decimal.String(), Valid: true}
	}
	if _, err := sqlTx.ExecContext(ctx, `
		INSERT INTO budget_settings (owner, income, active_month, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(owner) DO UPDATE SET
			income = excluded.income,
			active_month = excluded.active_month,
			updated_at = excluded.updated_at`,
		owner, income, state.ActiveMonth.String(), time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	for _, table := range []string{"base_expenses", "categories", "goals"} {
		if _, err := sqlTx.ExecContext(ctx, "DELETE FROM "+table+" WHERE owner = ?", owner); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for i, e := range state.BaseExpenses {
		if _, err := sqlTx.ExecContext(ctx,
			"INSERT INTO base_expenses (owner, id, name, amount, sort_order) VALUES (?, ?, ?, ?, ?)",
			owner, e.ID, e.Name, e.Amount.String(), i,
		); err != nil {
			return fmt.Errorf("failed to save base expense %s: %w", e.ID, err)
		}
	}

	for i, c := range state.Categories {
		if _, err := sqlTx.ExecContext(ctx, `
			INSERT INTO categories
			(owner, id, name, percent_share, persisted_balance, allocated, carry_over, is_savings_only, sort_order)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			owner, c.ID, c.Name, c.PercentShare.String(), c.PersistedBalance.String(),
			c.Allocated.String(), c.CarryOver, c.IsSavingsOnly, i,
		); err != nil {
			return fmt.Errorf("failed to save category %s: %w", c.ID, err)
		}
	}

	for i, g := range state.Goals {
		if _, err := sqlTx.ExecContext(ctx, `
			INSERT INTO goals
			(owner, id, name, description, icon, category_id, target_amount, target_date, start_balance, created_at, sort_order)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			owner, g.ID, g.Name, nullString(g.Description), nullString(g.Icon), g.CategoryID,
			g.TargetAmount.String(), g.TargetDate.Format(time.RFC3339Nano),
			g.StartBalance.String(), g.CreatedAt.Format(time.RFC3339Nano), i,
		); err != nil {
			return fmt.Errorf("failed to save goal %s: %w", g.ID, err)
		}
	}

	return sqlTx.Commit()
}

// =============================================================================
// LEDGER
// =============================================================================

// AppendTransaction stores one ledger entry.
func (s *Store) AppendTransaction(ctx context.Context, owner budget.OwnerKey, tx budget.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions
		(owner, id, seq, tx_type, date, month, category_id, category_name, amount, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner, id) DO UPDATE SET
			seq = excluded.seq,
			tx_type = excluded.tx_type,
			date = excluded.date,
			month = excluded.month,
			category_id = excluded.category_id,
			category_name = excluded.category_name,
			amount = excluded.amount,
			description = excluded.description`,
		owner, tx.ID, tx.Seq, tx.Type, tx.Date.Format(time.RFC3339Nano), tx.Month.String(),
		nullString(tx.CategoryID), nullString(tx.CategoryName), tx.Amount.String(), nullString(tx.Description),
	)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

// Reset deletes every row of the owner.
func (s *Store) Reset(ctx context.Context, owner budget.OwnerKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"budget_settings", "base_expenses", "categories", "transactions", "goals"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE owner = ?", owner); err != nil {
			return fmt.Errorf("failed to reset %s: %w", strings.ReplaceAll(table, "_", " "), err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseDecimal(value string) decimal.Decimal {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

var _ budget.Store = (*Store)(nil)
