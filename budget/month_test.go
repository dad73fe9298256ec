package budget_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/budget-engine/budget"
)

func TestMonth_Next(t *testing.T) {
	tests := []struct {
		from, want string
	}{
		{"2025-01", "2025-02"},
		{"2025-12", "2026-01"},
		{"2024-02", "2024-03"},
	}
	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			assert.Equal(t, tt.want, budget.MustParseMonth(tt.from).Next().String())
		})
	}
}

func TestMonth_AddMonthsBackwards(t *testing.T) {
	assert.Equal(t, "2024-11", budget.MustParseMonth("2025-01").AddMonths(-2).String())
}

func TestParseMonth_Invalid(t *testing.T) {
	for _, s := range []string{"", "2025", "2025-13", "03-2025", "2025/03"} {
		_, err := budget.ParseMonth(s)
		assert.True(t, errors.Is(err, budget.ErrInvalidMonth), "input %q", s)
	}
}

func TestMonth_TextRoundTrip(t *testing.T) {
	m := budget.NewMonth(2025, time.October)
	b, err := m.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2025-10", string(b))

	var back budget.Month
	require.NoError(t, back.UnmarshalText(b))
	assert.Equal(t, m, back)

	var zero budget.Month
	require.NoError(t, zero.UnmarshalText(nil))
	assert.True(t, zero.IsZero())
	assert.Equal(t, "", zero.String())
}
