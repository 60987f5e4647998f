package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "solve-chamados",
		Short:        "Help desk ticketing and asset inventory service",
		Long:         `solve-chamados serves the help desk HTTP API and ships the maintenance commands that operate on its database.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newBootstrapAdminCommand(),
		newSessionsCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
