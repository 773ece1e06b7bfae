// Package app wires snapvault's configuration, remote store, and command
// engine into a runnable CLI.
package app

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/nullstore/snapvault/config"
)

// Application holds the wired root command and the config it was built
// from.
type Application struct {
	Config  config.Config
	RootCmd *cobra.Command
}

// Run executes the root command against args (normally os.Args[1:]),
// blocking until the invoked subcommand completes.
func (a *Application) Run(ctx context.Context, args []string) error {
	a.RootCmd.SetArgs(args)
	return a.RootCmd.ExecuteContext(ctx)
}
