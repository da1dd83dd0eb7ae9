package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command. Running it bare starts the API server.
func NewRootCmd() *cobra.Command {
	serve := NewServeCmd()

	cmd := &cobra.Command{
		Use:   "contacts-api",
		Short: "Contacts API server",
		Long: `Account, session and contact management over HTTP.
Running without a subcommand is the same as "serve".`,
		SilenceUsage: true,
		RunE:         serve.RunE,
	}

	cmd.AddCommand(serve)
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewMailWorkerCmd())

	return cmd
}
