package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/money"
)

const testSeed = `
income: "3000"
month: "2025-03"
base_expenses:
  - id: rent
    name: Rent
    amount: "1000"
categories:
  - id: food
    name: Food
    percent: "50"
    carry_over: true
  - id: fun
    name: Fun
    percent: "50"
`

// setupEnv points the CLI at a fresh SQLite file seeded with testSeed.
func setupEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	seed := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(testSeed), 0o600))

	t.Setenv("OWNER_KEY", "cli-test")
	t.Setenv("ALLOCATION_POLICY", "capped_percent")
	t.Setenv("LOCAL_BACKEND", "sqlite")
	t.Setenv("REMOTE_BACKEND", "none")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(dir, "budget.db"))
	t.Setenv("SEED_FILE", seed)
	t.Setenv("LOCALE", "de")
	t.Setenv("LOG_LEVEL", "error")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand("test")
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommands_EndToEnd(t *testing.T) {
	setupEnv(t)

	// GIVEN: an empty store, so the seed is used
	out, err := run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-03")
	assert.Contains(t, out, "capped_percent")
	assert.Contains(t, out, "Distributable 2.000 €")
	assert.Contains(t, out, "Food")

	// WHEN: an expense is recorded by category name
	out, err = run(t, "expense", "--category", "Food", "--amount", "150", "--description", "groceries")
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded 150 € on Food")

	// AND: the remainder is distributed
	out, err = run(t, "distribute")
	require.NoError(t, err)
	assert.Contains(t, out, "Distributed 2.000 € for 2025-03 (distribution 1 this month)")

	// THEN: the next process sees the persisted state
	out, err = run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "1 distribution(s)")
	assert.Contains(t, out, "850 €")

	// WHEN: the month is closed
	out, err = run(t, "rollover")
	require.NoError(t, err)
	assert.Contains(t, out, "Closed 2025-03, active month is now 2025-04")

	// THEN: the closed month's history is still available
	out, err = run(t, "history", "--month", "2025-03")
	require.NoError(t, err)
	assert.Contains(t, out, "expense")
	assert.Contains(t, out, "distribution")
	assert.Contains(t, out, "groceries")

	out, err = run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-04")
	assert.Contains(t, out, "no transactions")
}

func TestCommands_Errors(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "expense", "--category", "ghost", "--amount", "5")
	assert.ErrorIs(t, err, budget.ErrMissingCategory)

	_, err = run(t, "expense", "--category", "food", "--amount", "5", "--date", "yesterday")
	assert.ErrorContains(t, err, "invalid --date")

	_, err = run(t, "--policy", "auto_accrual", "distribute")
	assert.ErrorIs(t, err, budget.ErrDistributeUnsupported)

	_, err = run(t, "--policy", "envelopes", "status")
	assert.ErrorContains(t, err, "invalid allocation policy")
}

func TestCommands_DistributionLimit(t *testing.T) {
	setupEnv(t)

	for i := 0; i < 2; i++ {
		_, err := run(t, "distribute")
		require.NoError(t, err)
	}
	_, err := run(t, "distribute")
	assert.ErrorIs(t, err, budget.ErrDistributionLimitExceeded)
}

func TestRenderOverview_Deficit(t *testing.T) {
	// GIVEN: a category that spent more than it has
	state := budget.State{
		PeriodState: budget.PeriodState{ActiveMonth: budget.NewMonth(2025, time.March)},
		Categories: []budget.Category{
			{ID: "fun", Name: "Fun", PercentShare: decimal.NewFromInt(100), CarryOver: true},
		},
	}
	engine := budget.NewEngine(state, budget.AutoAccrual{})
	_, err := engine.RecordExpense(budget.ExpenseInput{CategoryID: "fun", Amount: decimal.NewFromInt(200)})
	require.NoError(t, err)

	// WHEN: rendering
	var out bytes.Buffer
	require.NoError(t, renderOverview(&out, money.NewFormatter(money.DefaultLocale), engine.Overview()))

	// THEN: income is reported as missing and the deficit is shown
	assert.Contains(t, out.String(), "Income not set")
	assert.Contains(t, out.String(), "-200 €")
	assert.Contains(t, out.String(), "carry")
}
