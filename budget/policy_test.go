package budget_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/budget-engine/budget"
)

func categoriesWithShares(shares ...string) []budget.Category {
	out := make([]budget.Category, len(shares))
	for i, s := range shares {
		out[i] = budget.Category{ID: string(rune('a' + i)), Name: string(rune('A' + i)), PercentShare: dec(s)}
	}
	return out
}

func TestFixedSplit_Share(t *testing.T) {
	cats := categoriesWithShares("50", "20", "15", "15")
	p := budget.FixedSplit{}

	assertDec(t, "1000", p.Share(dec("2000"), cats, 0))
	assertDec(t, "200", p.Share(dec("2000"), cats, 1))
	assertDec(t, "0", p.Share(dec("2000"), cats, 9), "out of range")
}

func TestFixedSplit_CustomFirstShare(t *testing.T) {
	cats := categoriesWithShares("0", "100")
	p := budget.FixedSplit{FirstShare: decimal.NewNullDecimal(dec("0.25"))}

	assertDec(t, "250", p.Share(dec("1000"), cats, 0))
	assertDec(t, "750", p.Share(dec("1000"), cats, 1))
}

func TestFixedSplit_ZeroFirstShare(t *testing.T) {
	// GIVEN: a first share explicitly set to zero
	cats := categoriesWithShares("50", "100")
	p := budget.FixedSplit{FirstShare: decimal.NewNullDecimal(decimal.Zero)}

	// THEN: the first category gets nothing and the rest split everything
	assertDec(t, "0", p.Share(dec("1000"), cats, 0))
	assertDec(t, "1000", p.Share(dec("1000"), cats, 1))
}

func TestCappedPercent_Share(t *testing.T) {
	cats := categoriesWithShares("33.5")
	assertDec(t, "670", budget.CappedPercent{}.Share(dec("2000"), cats, 0))
}

func TestShareWarnings(t *testing.T) {
	t.Run("exact 100 has no warnings", func(t *testing.T) {
		assert.Empty(t, budget.CappedPercent{}.ShareWarnings(categoriesWithShares("60", "40")))
	})

	t.Run("under allocation", func(t *testing.T) {
		w := budget.AutoAccrual{}.ShareWarnings(categoriesWithShares("60", "30"))
		assert.Len(t, w, 1)
		assert.Contains(t, w[0], "10% of the remainder is unallocated")
	})

	t.Run("fixed split ignores the first category", func(t *testing.T) {
		assert.Empty(t, budget.FixedSplit{}.ShareWarnings(categoriesWithShares("50", "60", "40")))
	})

	t.Run("negative share", func(t *testing.T) {
		w := budget.CappedPercent{}.ShareWarnings(categoriesWithShares("110", "-10"))
		assert.Len(t, w, 1)
		assert.Contains(t, w[0], "negative share")
	})
}

func TestPolicyIncomeReset(t *testing.T) {
	assert.True(t, budget.AutoAccrual{}.ResetsIncomeAtRollover())
	assert.False(t, budget.FixedSplit{}.ResetsIncomeAtRollover())
	assert.False(t, budget.CappedPercent{}.ResetsIncomeAtRollover())
}
