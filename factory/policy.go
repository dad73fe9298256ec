/*
Package factory builds allocation policies and starting budgets from
configuration.

PURPOSE:
  The engine takes a budget.AllocationPolicy value. Deployments pick the
  policy by name (ALLOCATION_POLICY) or by a small JSON document, and the
  factory turns that into the matching Go struct with defaults applied.

JSON SCHEMA:
  {
    "policy": "capped_percent",
    "distribution_limit": 2,
    "first_category_share": 0.5
  }

  - policy:               fixed_split | capped_percent | auto_accrual
  - distribution_limit:   capped_percent only, distributions per month (default 2)
  - first_category_share: fixed_split only, fraction for the first category (default 0.5)

USAGE:
  policy, err := factory.NewPolicy("capped_percent")

  policy, err := factory.ParsePolicy(`{"policy":"fixed_split","first_category_share":0.4}`)

SEE ALSO:
  - budget/policy.go: policy implementations
  - seed.go: default budgets
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/budget-engine/budget"
)

// ErrUnknownPolicy is returned for a policy name that has no implementation.
var ErrUnknownPolicy = errors.New("unknown allocation policy")

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PolicyJSON is the JSON representation of a policy.
type PolicyJSON struct {
	Policy             string   `json:"policy"`
	DistributionLimit  int      `json:"distribution_limit,omitempty"`
	FirstCategoryShare *float64 `json:"first_category_share,omitempty"`
}

// =============================================================================
// POLICY FACTORY
// =============================================================================

// NewPolicy returns the policy registered under name with default settings.
func NewPolicy(name string) (budget.AllocationPolicy, error) {
	return FromJSON(PolicyJSON{Policy: name})
}

// NewPolicyWithLimit is NewPolicy with an explicit capped_percent limit.
// The limit is ignored by the other policies.
func NewPolicyWithLimit(name string, limit int) (budget.AllocationPolicy, error) {
	return FromJSON(PolicyJSON{Policy: name, DistributionLimit: limit})
}

// ParsePolicy parses a JSON policy document.
func ParsePolicy(jsonStr string) (budget.AllocationPolicy, error) {
	var pj PolicyJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return nil, fmt.Errorf("failed to parse policy JSON: %w", err)
	}
	return FromJSON(pj)
}

// FromJSON converts PolicyJSON to a policy.
func FromJSON(pj PolicyJSON) (budget.AllocationPolicy, error) {
	switch budget.PolicyName(pj.Policy) {
	case budget.PolicyFixedSplit:
		p := budget.FixedSplit{}
		if pj.FirstCategoryShare != nil {
			share := *pj.FirstCategoryShare
			if share < 0 || share > 1 {
				return nil, fmt.Errorf("first_category_share must be in [0, 1], got %v", share)
			}
			p.FirstShare = decimal.NewNullDecimal(decimal.NewFromFloat(share))
		}
		return p, nil

	case budget.PolicyCappedPercent:
		if pj.DistributionLimit < 0 {
			return nil, fmt.Errorf("distribution_limit must not be negative, got %d", pj.DistributionLimit)
		}
		return budget.CappedPercent{Limit: pj.DistributionLimit}, nil

	case budget.PolicyAutoAccrual:
		return budget.AutoAccrual{}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, pj.Policy)
	}
}

// ToJSON converts a policy back to its JSON form.
func ToJSON(policy budget.AllocationPolicy) PolicyJSON {
	pj := PolicyJSON{Policy: string(policy.Name())}
	switch p := policy.(type) {
	case budget.FixedSplit:
		if p.FirstShare.Valid {
			v := p.FirstShare.Decimal.InexactFloat64()
			pj.FirstCategoryShare = &v
		}
	case budget.CappedPercent:
		pj.DistributionLimit = p.Limit
	}
	return pj
}
