/*
seed.go - Starting budgets

PURPOSE:
  When no store holds a budget the loader starts from a seed. The built-in
  seed has four base expenses without amounts and four categories; a seed
  file can replace it.

FILE FORMATS (by extension):
  .yaml / .yml  gopkg.in/yaml.v3
  .toml         github.com/pelletier/go-toml
  .json         encoding/json

  Amounts and percents are strings and go through money.ParseAmount, so
  "1.200,50" and "1200.50" are both accepted.

EXAMPLE (yaml):
  income: "3000"
  base_expenses:
    - name: Rent
      amount: "800"
  categories:
    - name: Travel
      percent: "20"
      carry_over: true

SEE ALSO:
  - persist/loader.go: falls back to the seed
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/money"
)

// SeedFile is the on-disk seed document.
type SeedFile struct {
	Income       string         `json:"income" yaml:"income" toml:"income"`
	Month        string         `json:"month" yaml:"month" toml:"month"`
	BaseExpenses []SeedExpense  `json:"base_expenses" yaml:"base_expenses" toml:"base_expenses"`
	Categories   []SeedCategory `json:"categories" yaml:"categories" toml:"categories"`
}

type SeedExpense struct {
	ID     string `json:"id" yaml:"id" toml:"id"`
	Name   string `json:"name" yaml:"name" toml:"name"`
	Amount string `json:"amount" yaml:"amount" toml:"amount"`
}

type SeedCategory struct {
	ID          string `json:"id" yaml:"id" toml:"id"`
	Name        string `json:"name" yaml:"name" toml:"name"`
	Percent     string `json:"percent" yaml:"percent" toml:"percent"`
	Balance     string `json:"balance" yaml:"balance" toml:"balance"`
	CarryOver   bool   `json:"carry_over" yaml:"carry_over" toml:"carry_over"`
	SavingsOnly bool   `json:"savings_only" yaml:"savings_only" toml:"savings_only"`
}

// DefaultSeed returns the built-in starting budget for month.
func DefaultSeed(month budget.Month) budget.State {
	return SeedFile{
		BaseExpenses: []SeedExpense{
			{Name: "Rent"},
			{Name: "Utilities"},
			{Name: "Insurance"},
			{Name: "Groceries (base)"},
		},
		Categories: []SeedCategory{
			{Name: "New business", Percent: "50", CarryOver: true},
			{Name: "Travel", Percent: "20", CarryOver: true},
			{Name: "Clothing", Percent: "15"},
			{Name: "Entertainment", Percent: "15"},
		},
	}.State(month)
}

// LoadSeed reads a seed file. month is used when the file names none.
func LoadSeed(path string, month budget.Month) (budget.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return budget.State{}, fmt.Errorf("failed to read seed file: %w", err)
	}

	var sf SeedFile
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &sf)
	case ".toml":
		err = toml.Unmarshal(data, &sf)
	case ".json":
		err = json.Unmarshal(data, &sf)
	default:
		return budget.State{}, fmt.Errorf("unsupported seed file extension %q", ext)
	}
	if err != nil {
		return budget.State{}, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	if sf.Month != "" {
		m, err := budget.ParseMonth(sf.Month)
		if err != nil {
			return budget.State{}, fmt.Errorf("seed file %s: %w", path, err)
		}
		month = m
	}
	return sf.State(month), nil
}

// State converts the document to a budget state. Entries without an id get
// a positional one so rollover never meets an empty id.
func (sf SeedFile) State(month budget.Month) budget.State {
	state := budget.State{PeriodState: budget.PeriodState{ActiveMonth: month}}
	if strings.TrimSpace(sf.Income) != "" {
		state.MonthlyIncome = decimal.NewNullDecimal(money.ParseAmount(sf.Income))
	}

	for i, e := range sf.BaseExpenses {
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("base-%d", i+1)
		}
		state.BaseExpenses = append(state.BaseExpenses, budget.BaseExpense{
			ID:     id,
			Name:   e.Name,
			Amount: money.ParseAmount(e.Amount),
		})
	}

	for i, c := range sf.Categories {
		id := c.ID
		if id == "" {
			id = fmt.Sprintf("cat-%d", i+1)
		}
		state.Categories = append(state.Categories, budget.Category{
			ID:               id,
			Name:             c.Name,
			PercentShare:     money.ParsePercent(c.Percent),
			PersistedBalance: money.ParseAmount(c.Balance),
			CarryOver:        c.CarryOver,
			IsSavingsOnly:    c.SavingsOnly,
		})
	}
	return state
}
