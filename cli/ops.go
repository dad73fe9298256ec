package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/warp/budget-engine/budget"
	"github.com/warp/budget-engine/money"
)

// =============================================================================
// DISTRIBUTE / ROLLOVER
// =============================================================================

func newDistributeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "distribute",
		Short: "Distribute the remainder to categories once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, func(rt *Runtime) error {
				result, err := rt.Engine.Distribute()
				if err != nil {
					return err
				}
				return renderDistribution(cmd.OutOrStdout(), rt.Formatter, result)
			})
		},
	}
}

func newRolloverCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rollover",
		Short: "Close the active month and open the next",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRuntime(cmd, func(rt *Runtime) error {
				result, err := rt.Engine.AdvanceMonth()
				if err != nil {
					return err
				}
				return renderRollover(cmd.OutOrStdout(), rt.Formatter, result)
			})
		},
	}
}

func renderDistribution(w io.Writer, f *money.Formatter, r *budget.DistributionResult) error {
	fmt.Fprintf(w, "Distributed %s for %s (distribution %d this month)\n",
		f.Format(r.Remainder), r.Transaction.Month, r.Count)

	data := pterm.TableData{{"Category", "Allocated", "Available"}}
	for _, a := range r.Allocations {
		data = append(data, []string{a.Name, f.Format(a.Amount), amountCell(f, a.Available)})
	}
	if err := renderTable(w, data); err != nil {
		return err
	}
	for _, d := range r.Deficits {
		fmt.Fprintln(w, deficitText(fmt.Sprintf("deficit: %s is at %s", d.Name, f.Format(d.Available()))))
	}
	return nil
}

func renderRollover(w io.Writer, f *money.Formatter, r *budget.RolloverResult) error {
	fmt.Fprintf(w, "Closed %s, active month is now %s\n", r.ClosedMonth, r.NewMonth)
	if r.IncomeReset {
		fmt.Fprintln(w, "Monthly income was cleared")
	}

	data := pterm.TableData{{"Category", "Allocated", "Spent", "Remainder", "Carried", "Balance"}}
	for _, c := range r.Categories {
		carried := "no"
		if c.CarriedOver {
			carried = "yes"
		}
		data = append(data, []string{
			c.Name,
			f.Format(c.Allocated),
			f.Format(c.Spent),
			amountCell(f, c.Remainder),
			carried,
			amountCell(f, c.BalanceAfter),
		})
	}
	return renderTable(w, data)
}

// =============================================================================
// LEDGER ENTRIES
// =============================================================================

type entryFlags struct {
	category    string
	amount      string
	description string
	date        string
}

func (e *entryFlags) parseDate() (time.Time, error) {
	if e.date == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse("2006-01-02", e.date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --date %q (use YYYY-MM-DD)", e.date)
	}
	return d, nil
}

func newExpenseCommand(opts *rootOptions) *cobra.Command {
	flags := &entryFlags{}
	cmd := &cobra.Command{
		Use:   "expense",
		Short: "Record an expense against a category",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := flags.parseDate()
			if err != nil {
				return err
			}
			return opts.withRuntime(cmd, func(rt *Runtime) error {
				categoryID := resolveCategory(rt.Engine, flags.category)
				tx, err := rt.Engine.RecordExpense(budget.ExpenseInput{
					CategoryID:  categoryID,
					Amount:      money.ParseAmount(flags.amount),
					Description: flags.description,
					Date:        date,
				})
				if err != nil {
					return err
				}
				available, err := rt.Engine.AvailableBalance(categoryID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s on %s, available %s\n",
					rt.Formatter.Format(tx.Amount), tx.CategoryName, amountCell(rt.Formatter, available))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&flags.category, "category", "", "Category id or name")
	cmd.Flags().StringVar(&flags.amount, "amount", "", "Amount spent")
	cmd.Flags().StringVar(&flags.description, "description", "", "Description")
	cmd.Flags().StringVar(&flags.date, "date", "", "Date as YYYY-MM-DD (default: today)")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newIncomeCommand(opts *rootOptions) *cobra.Command {
	flags := &entryFlags{}
	cmd := &cobra.Command{
		Use:   "income",
		Short: "Record an income entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := flags.parseDate()
			if err != nil {
				return err
			}
			return opts.withRuntime(cmd, func(rt *Runtime) error {
				tx := rt.Engine.RecordIncome(budget.IncomeInput{
					Amount:      money.ParseAmount(flags.amount),
					Description: flags.description,
					Date:        date,
				})
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded income %s for %s\n", rt.Formatter.Format(tx.Amount), tx.Month)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&flags.amount, "amount", "", "Amount received")
	cmd.Flags().StringVar(&flags.description, "description", "", "Description")
	cmd.Flags().StringVar(&flags.date, "date", "", "Date as YYYY-MM-DD (default: today)")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

// resolveCategory accepts an id or a case-insensitive name. Unknown input
// is returned unchanged so the engine reports it.
func resolveCategory(e *budget.Engine, ref string) string {
	categories := e.Snapshot().Categories
	for _, c := range categories {
		if c.ID == ref {
			return c.ID
		}
	}
	for _, c := range categories {
		if strings.EqualFold(c.Name, ref) {
			return c.ID
		}
	}
	return ref
}
