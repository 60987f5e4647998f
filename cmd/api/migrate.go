package main

import (
	"github.com/spf13/cobra"

	"github.com/spec-kit/solve-chamados/internal/persistence"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
		Long:  `Apply or roll back the SQL migrations embedded in the binary against POSTGRES_DSN.`,
	}
	cmd.AddCommand(
		newMigrateDirectionCommand(persistence.MigrateUp, "Apply all pending migrations"),
		newMigrateDirectionCommand(persistence.MigrateDown, "Roll back every applied migration"),
	)
	return cmd
}

func newMigrateDirectionCommand(dir persistence.Direction, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(dir),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnvironment()
			if err != nil {
				return err
			}
			defer env.close()
			return persistence.RunMigrations(env.cfg.Postgres.DSN, dir, env.logger)
		},
	}
}
