/*
Package postgres provides the remote budget.Store on PostgreSQL.

PURPOSE:
  The shared, authoritative copy of a budget. Every table is scoped by
  user_id (the owner key) so several owners share one database.

TABLES:
  budget_settings: monthly_income, current_month (one row per user)
  base_expenses:   name, amount, sort_order
  categories:      percent, balance, allocated, carry_over, is_savings_only, sort_order
  transactions:    append-only ledger, seq gives insertion order
  goals:           savings goals bound by category_id

CONNECTING:
  Open parses the URL with pgx, normalises postgresql:// and a missing
  sslmode, then pings with retries until the database answers.

  store, err := postgres.Open(ctx, os.Getenv("DATABASE_URL"), postgres.Options{})

AMOUNTS:
  NUMERIC columns, bound and scanned through decimal.Decimal's
  driver.Valuer and sql.Scanner.

SEE ALSO:
  - store/sqlite: local cache with the same layout
  - persist/loader.go: remote-authoritative load
*/
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/warp/budget-engine/budget"
)

// Options tune the connection.
type Options struct {
	MaxRetries int           // default 5
	RetryDelay time.Duration // default 2s
	Logger     *slog.Logger
}

// Store implements budget.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

// NormalizeURL rewrites postgresql:// to postgres:// and adds
// sslmode=disable when no sslmode is given.
func NormalizeURL(databaseURL string) string {
	if strings.HasPrefix(databaseURL, "postgresql://") {
		databaseURL = "postgres://" + strings.TrimPrefix(databaseURL, "postgresql://")
	}
	if !strings.Contains(databaseURL, "sslmode=") {
		separator := "?"
		if strings.Contains(databaseURL, "?") {
			separator = "&"
		}
		databaseURL += separator + "sslmode=disable"
	}
	return databaseURL
}

// Open connects, waits for the database to be ready and migrates the schema.
func Open(ctx context.Context, databaseURL string, opts Options) (*Store, error) {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 5
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	config, err := pgx.ParseConfig(NormalizeURL(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	db := stdlib.OpenDB(*config)
	for attempt := 1; ; attempt++ {
		err = db.PingContext(ctx)
		if err == nil {
			break
		}
		if attempt >= opts.MaxRetries {
			db.Close()
			return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", attempt, err)
		}
		opts.Logger.Warn("database not ready, retrying",
			"attempt", attempt,
			"max_attempts", opts.MaxRetries,
			"delay", opts.RetryDelay,
			"error", err)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(opts.RetryDelay):
		}
	}

	store := &Store{db: db}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return store, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS budget_settings (
			user_id TEXT PRIMARY KEY,
			monthly_income NUMERIC,
			current_month VARCHAR(7) NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS base_expenses (
			user_id TEXT NOT NULL,
			id TEXT NOT NULL,
			name VARCHAR(255) NOT NULL,
			amount NUMERIC NOT NULL,
			sort_order INTEGER NOT NULL,
			PRIMARY KEY (user_id, id)
		);

		CREATE TABLE IF NOT EXISTS categories (
			user_id TEXT NOT NULL,
			id TEXT NOT NULL,
			name VARCHAR(255) NOT NULL,
			percent NUMERIC NOT NULL,
			balance NUMERIC NOT NULL,
			allocated NUMERIC NOT NULL DEFAULT 0,
			carry_over BOOLEAN NOT NULL DEFAULT FALSE,
			is_savings_only BOOLEAN NOT NULL DEFAULT FALSE,
			sort_order INTEGER NOT NULL,
			PRIMARY KEY (user_id, id)
		);

		CREATE TABLE IF NOT EXISTS transactions (
			user_id TEXT NOT NULL,
			id TEXT NOT NULL,
			seq BIGINT NOT NULL,
			type VARCHAR(20) NOT NULL,
			date TIMESTAMPTZ NOT NULL,
			month VARCHAR(7) NOT NULL,
			category_id TEXT,
			category_name VARCHAR(255),
			amount NUMERIC NOT NULL,
			description TEXT,
			PRIMARY KEY (user_id, id)
		);

		CREATE INDEX IF NOT EXISTS idx_transactions_user_seq
			ON transactions(user_id, seq);

		CREATE TABLE IF NOT EXISTS goals (
			user_id TEXT NOT NULL,
			id TEXT NOT NULL,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			icon VARCHAR(16),
			category_id TEXT NOT NULL,
			target_amount NUMERIC NOT NULL,
			target_date TIMESTAMPTZ NOT NULL,
			start_balance NUMERIC NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			sort_order INTEGER NOT NULL,
			PRIMARY KEY (user_id, id)
		);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// =============================================================================
// LOAD
// =============================================================================

// Load returns the owner's budget, or nil when nothing is stored.
func (s *Store) Load(ctx context.Context, owner budget.OwnerKey) (*budget.State, error) {
	var state budget.State
	found := true
	period, err := scanSettings(s.db.QueryRowContext(ctx,
		"SELECT "+settingsColumns+" FROM budget_settings WHERE user_id = $1", string(owner)))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		found = false
	case err != nil:
		return nil, fmt.Errorf("failed to load settings: %w", err)
	default:
		state.PeriodState = period
	}

	if err := s.queryEach(ctx, "SELECT "+baseExpenseColumns+" FROM base_expenses WHERE user_id = $1 ORDER BY sort_order", owner,
		func(rows *sql.Rows) error {
			e, err := scanBaseExpense(rows)
			state.BaseExpenses = append(state.BaseExpenses, e)
			return err
		}); err != nil {
		return nil, fmt.Errorf("failed to load base expenses: %w", err)
	}

	if err := s.queryEach(ctx, "SELECT "+categoryColumns+" FROM categories WHERE user_id = $1 ORDER BY sort_order", owner,
		func(rows *sql.Rows) error {
			c, err := scanCategory(rows)
			state.Categories = append(state.Categories, c)
			return err
		}); err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	if err := s.queryEach(ctx, "SELECT "+transactionColumns+" FROM transactions WHERE user_id = $1 ORDER BY seq", owner,
		func(rows *sql.Rows) error {
			tx, err := scanTransaction(rows)
			state.Transactions = append(state.Transactions, tx)
			return err
		}); err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	if err := s.queryEach(ctx, "SELECT "+goalColumns+" FROM goals WHERE user_id = $1 ORDER BY sort_order", owner,
		func(rows *sql.Rows) error {
			g, err := scanGoal(rows)
			state.Goals = append(state.Goals, g)
			return err
		}); err != nil {
		return nil, fmt.Errorf("failed to load goals: %w", err)
	}

	if !found && state.IsEmpty() {
		return nil, nil
	}
	return &state, nil
}

func (s *Store) queryEach(ctx context.Context, query string, owner budget.OwnerKey, fn func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, query, string(owner))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// =============================================================================
// SAVE
// =============================================================================

// insertSQL builds an INSERT for user_id, columns and, when sorted, sort_order.
func insertSQL(table, columns string, n int, sorted bool) string {
	cols := "user_id, " + columns
	last := n + 1
	if sorted {
		cols += ", sort_order"
		last++
	}
	return "INSERT INTO " + table + " (" + cols + ") VALUES (" + placeholders(1, last) + ")"
}

// Save replaces the owner's settings and lists in one transaction.
func (s *Store) Save(ctx context.Context, owner budget.OwnerKey, state budget.State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	user := string(owner)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO budget_settings (user_id, `+settingsColumns+`, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			monthly_income = EXCLUDED.monthly_income,
			current_month = EXCLUDED.current_month,
			updated_at = EXCLUDED.updated_at`,
		append([]any{user}, settingsValues(state.PeriodState)...)...,
	); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	for _, table := range []string{"base_expenses", "categories", "goals"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE user_id = $1", user); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	insert := func(table, columns string, values []any, order int) error {
		args := append([]any{user}, values...)
		args = append(args, order)
		_, err := tx.ExecContext(ctx, insertSQL(table, columns, len(values), true), args...)
		return err
	}

	for i, e := range state.BaseExpenses {
		if err := insert("base_expenses", baseExpenseColumns, baseExpenseValues(e), i); err != nil {
			return fmt.Errorf("failed to save base expense %s: %w", e.ID, err)
		}
	}
	for i, c := range state.Categories {
		if err := insert("categories", categoryColumns, categoryValues(c), i); err != nil {
			return fmt.Errorf("failed to save category %s: %w", c.ID, err)
		}
	}
	for i, g := range state.Goals {
		if err := insert("goals", goalColumns, goalValues(g), i); err != nil {
			return fmt.Errorf("failed to save goal %s: %w", g.ID, err)
		}
	}

	return tx.Commit()
}

// AppendTransaction stores one ledger entry, replacing an entry with the same id.
func (s *Store) AppendTransaction(ctx context.Context, owner budget.OwnerKey, t budget.Transaction) error {
	values := transactionValues(t)
	_, err := s.db.ExecContext(ctx, insertSQL("transactions", transactionColumns, len(values), false)+`
		ON CONFLICT (user_id, id) DO UPDATE SET
			seq = EXCLUDED.seq,
			type = EXCLUDED.type,
			date = EXCLUDED.date,
			month = EXCLUDED.month,
			category_id = EXCLUDED.category_id,
			category_name = EXCLUDED.category_name,
			amount = EXCLUDED.amount,
			description = EXCLUDED.description`,
		append([]any{string(owner)}, values...)...,
	)
	if err != nil {
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

var _ budget.Store = (*Store)(nil)
