package budget_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/budget-engine/budget"
)

func TestGoalProgress_FromBaseline(t *testing.T) {
	// GIVEN: a goal created when fun had 500 available, target 500
	// WHEN: income rises so that fun has 650 available
	// THEN: progress 150, remaining 350, 30% complete
	e := newEngine(t, budget.AutoAccrual{}, baseState(), nil)
	goal, err := e.CreateGoal(budget.GoalInput{
		Name:         "Bike",
		CategoryID:   "fun",
		TargetAmount: dec("500"),
		TargetDate:   fixedClock().AddDate(0, 0, 30),
	})
	require.NoError(t, err)
	assertDec(t, "500", goal.StartBalance)

	e.SetIncome("3750")

	gp, err := e.GoalProgress(goal.ID, fixedClock())
	require.NoError(t, err)

	assert.True(t, gp.CategoryFound)
	assertDec(t, "650", gp.Available)
	assertDec(t, "150", gp.Progress)
	assertDec(t, "350", gp.Remaining)
	assertDec(t, "30", gp.PercentComplete)
	assert.Equal(t, 30, gp.DaysLeft)
	assertDec(t, "550", gp.MonthlyAccrual)
	assert.Equal(t, 1, gp.MonthsToCompletion)
	assert.False(t, gp.Unreachable)
}

func TestGoalProgress_DeletedCategoryIsNeutral(t *testing.T) {
	e := newEngine(t, budget.AutoAccrual{}, baseState(), nil)
	goal, err := e.CreateGoal(budget.GoalInput{
		Name:         "Trip",
		CategoryID:   "travel",
		TargetAmount: dec("1000"),
		TargetDate:   fixedClock().AddDate(0, 2, 0),
	})
	require.NoError(t, err)

	e.SetCategories([]budget.Category{{ID: "food", Name: "Food", PercentShare: dec("100")}})

	gp, err := e.GoalProgress(goal.ID, fixedClock())
	require.NoError(t, err)
	assert.False(t, gp.CategoryFound)
	assert.True(t, gp.Progress.IsZero())
	assert.True(t, gp.PercentComplete.IsZero())
	assert.Equal(t, 0, gp.MonthsToCompletion)
}

func TestGoalProgress_UnknownGoal(t *testing.T) {
	e := newEngine(t, budget.AutoAccrual{}, baseState(), nil)

	_, err := e.GoalProgress("missing", fixedClock())
	assert.True(t, errors.Is(err, budget.ErrGoalNotFound))
}

func TestCreateGoal_Validation(t *testing.T) {
	e := newEngine(t, budget.AutoAccrual{}, baseState(), nil)
	target := fixedClock().AddDate(1, 0, 0)

	_, err := e.CreateGoal(budget.GoalInput{Name: "X", CategoryID: "fun", TargetAmount: dec("0"), TargetDate: target})
	assert.True(t, errors.Is(err, budget.ErrInvalidGoal))

	_, err = e.CreateGoal(budget.GoalInput{Name: "", CategoryID: "fun", TargetAmount: dec("10"), TargetDate: target})
	assert.True(t, errors.Is(err, budget.ErrInvalidGoal))

	_, err = e.CreateGoal(budget.GoalInput{Name: "X", CategoryID: "ghost", TargetAmount: dec("10"), TargetDate: target})
	assert.True(t, errors.Is(err, budget.ErrMissingCategory))

	assert.Empty(t, e.Goals())
}

func TestDeleteGoal(t *testing.T) {
	e := newEngine(t, budget.AutoAccrual{}, baseState(), nil)
	goal, err := e.CreateGoal(budget.GoalInput{Name: "X", CategoryID: "fun", TargetAmount: dec("10"), TargetDate: fixedClock()})
	require.NoError(t, err)
	require.Len(t, e.Goals(), 1)

	require.NoError(t, e.DeleteGoal(goal.ID))
	assert.Empty(t, e.Goals())
	assert.True(t, errors.Is(e.DeleteGoal(goal.ID), budget.ErrGoalNotFound))
}

func TestComputeGoalProgress_Edges(t *testing.T) {
	today := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	goal := budget.Goal{
		ID:           "g",
		TargetAmount: dec("300"),
		StartBalance: dec("100"),
		TargetDate:   today.Add(36 * time.Hour),
	}

	t.Run("overshoot caps at 100 percent", func(t *testing.T) {
		gp := budget.ComputeGoalProgress(goal, dec("1000"), dec("10"), today)
		assertDec(t, "100", gp.PercentComplete)
		assert.True(t, gp.Remaining.IsZero())
		assert.Equal(t, 0, gp.MonthsToCompletion)
		assert.Equal(t, 2, gp.DaysLeft, "36h rounds up to 2 days")
	})

	t.Run("below baseline is zero progress", func(t *testing.T) {
		gp := budget.ComputeGoalProgress(goal, dec("40"), dec("100"), today)
		assert.True(t, gp.Progress.IsZero())
		assertDec(t, "300", gp.Remaining)
		assert.Equal(t, 3, gp.MonthsToCompletion)
	})

	t.Run("no accrual is unreachable", func(t *testing.T) {
		gp := budget.ComputeGoalProgress(goal, dec("150"), dec("0"), today)
		assert.True(t, gp.Unreachable)
	})

	t.Run("past target date", func(t *testing.T) {
		gp := budget.ComputeGoalProgress(goal, dec("150"), dec("50"), today.AddDate(0, 1, 0))
		assert.Equal(t, 0, gp.DaysLeft)
	})

	t.Run("zero target", func(t *testing.T) {
		g := goal
		g.TargetAmount = dec("0")
		gp := budget.ComputeGoalProgress(g, dec("150"), dec("50"), today)
		assert.True(t, gp.PercentComplete.IsZero())
	})
}
