/*
Package cli is the budget command line.

COMMANDS:
  budget serve                 Run the HTTP API
  budget status                Print the active month as a table
  budget history [--month]     Print a month's ledger
  budget distribute            Distribute the remainder once
  budget rollover              Close the active month
  budget expense               Record an expense
  budget income                Record an income entry

  One-shot commands load the budget, apply one change, flush it to the
  configured stores and exit.

FLAGS:
  --owner   overrides OWNER_KEY
  --policy  overrides ALLOCATION_POLICY

  Everything else comes from the environment or .env (config package).

SEE ALSO:
  - runtime.go: store and engine wiring
  - cmd/budget/main.go: entry point
*/
package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/budget-engine/config"
	"github.com/warp/budget-engine/logging"
)

// shutdownTimeout bounds the final flush of one-shot commands and serve.
const shutdownTimeout = 30 * time.Second

type rootOptions struct {
	owner  string
	policy string
}

// NewRootCommand builds the command tree.
func NewRootCommand(version string) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "budget",
		Short:         "Monthly budget allocation engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetVersionTemplate(`{{printf "budget version: %s\n" .Version}}`)

	root.PersistentFlags().StringVar(&opts.owner, "owner", "", "Budget owner key (overrides OWNER_KEY)")
	root.PersistentFlags().StringVar(&opts.policy, "policy", "", "Allocation policy: fixed_split, capped_percent, auto_accrual (overrides ALLOCATION_POLICY)")

	root.AddCommand(
		newServeCommand(opts),
		newStatusCommand(opts),
		newHistoryCommand(opts),
		newDistributeCommand(opts),
		newRolloverCommand(opts),
		newExpenseCommand(opts),
		newIncomeCommand(opts),
	)
	return root
}

// loadConfig reads configuration and applies flag overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if o.owner != "" {
		cfg.OwnerKey = o.owner
	}
	if o.policy != "" {
		cfg.AllocationPolicy = o.policy
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withRuntime runs fn against a bootstrapped runtime and flushes afterwards.
func (o *rootOptions) withRuntime(cmd *cobra.Command, fn func(rt *Runtime) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	logger := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cmd.ErrOrStderr(),
	})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := Bootstrap(ctx, cfg, logging.WithComponent(logger, logging.ComponentCLI))
	if err != nil {
		return err
	}

	runErr := fn(rt)

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := rt.Close(closeCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
