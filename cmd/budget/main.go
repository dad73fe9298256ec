/*
main.go - Application entry point

PURPOSE:
  Starts the budget command line. All wiring lives in the cli package.

EXAMPLES:
  # Run the API with a local SQLite cache
  budget serve

  # Use PostgreSQL as the authoritative store
  REMOTE_BACKEND=postgres DATABASE_URL=postgres://... budget serve

  # One-shot operations
  budget expense --category travel --amount 120 --description "train"
  budget distribute
  budget status

SEE ALSO:
  - cli/root.go: command tree
  - config/config.go: environment keys
*/
package main

import (
	"os"

	"github.com/warp/budget-engine/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := cli.NewRootCommand(version).Execute(); err != nil {
		os.Exit(1)
	}
}
