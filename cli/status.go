package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/money"
)

var (
	deficitText = color.New(color.FgRed, color.Bold).SprintFunc()
	warningText = color.New(color.FgYellow).SprintFunc()
	headingText = color.New(color.FgCyan, color.Bold).SprintFunc()
)

func newStatusCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the active month as a table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, func(rt *Runtime) error {
				return renderOverview(cmd.OutOrStdout(), rt.Formatter, rt.Engine.Overview())
			})
		},
	}
}

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print a month's ledger, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, func(rt *Runtime) error {
				m := rt.Engine.Period().ActiveMonth
				if month != "" {
					var err error
					if m, err = budget.ParseMonth(month); err != nil {
						return err
					}
				}
				return renderHistory(cmd.OutOrStdout(), rt.Formatter, m, rt.Engine.TransactionsForMonth(m))
			})
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "Month as YYYY-MM (default: active month)")
	return cmd
}

// =============================================================================
// RENDERING
// =============================================================================

func renderOverview(w io.Writer, f *money.Formatter, ov budget.Overview) error {
	income := "not set"
	if ov.Income.Valid {
		income = f.Format(ov.Income.Decimal)
	}
	fmt.Fprintf(w, "%s  %s  (%s, %d distribution(s))\n", headingText("Budget"), ov.Month, ov.Policy, ov.Distributions)
	fmt.Fprintf(w, "Income %s | Base expenses %s | Distributable %s | Savings %s\n",
		income, f.Format(ov.TotalBaseExpenses), amountCell(f, ov.TotalDistributable), f.Format(ov.TotalSavings))

	data := pterm.TableData{{"Category", "Share", "Persisted", "Allocated", "Spent", "Available", "Flags"}}
	for _, c := range ov.Categories {
		data = append(data, []string{
			c.Name,
			c.PercentShare.String() + "%",
			f.Format(c.Balance.Persisted),
			f.Format(c.Balance.Allocated),
			f.Format(c.Balance.Spent),
			amountCell(f, c.Available),
			categoryFlags(c.Category),
		})
	}
	if err := renderTable(w, data); err != nil {
		return err
	}

	for _, warning := range ov.Warnings {
		fmt.Fprintln(w, warningText("warning: "+warning))
	}
	return nil
}

func renderHistory(w io.Writer, f *money.Formatter, month budget.Month, txs []budget.Transaction) error {
	fmt.Fprintf(w, "%s  %s\n", headingText("History"), month)
	if len(txs) == 0 {
		fmt.Fprintln(w, "no transactions")
		return nil
	}

	data := pterm.TableData{{"Date", "Type", "Category", "Amount", "Description"}}
	for _, tx := range txs {
		data = append(data, []string{
			tx.Date.Format("2006-01-02"),
			string(tx.Type),
			tx.CategoryName,
			f.Format(tx.Amount),
			tx.Description,
		})
	}
	return renderTable(w, data)
}

func renderTable(w io.Writer, data pterm.TableData) error {
	table, err := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(data).
		Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, table)
	return err
}

// amountCell formats d, highlighting negative values.
func amountCell(f *money.Formatter, d decimal.Decimal) string {
	s := f.Format(d)
	if d.IsNegative() {
		return deficitText(s)
	}
	return s
}

func categoryFlags(c budget.Category) string {
	var flags string
	if c.CarryOver {
		flags += "carry"
	}
	if c.IsSavingsOnly {
		if flags != "" {
			flags += ","
		}
		flags += "savings"
	}
	return flags
}
