package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zulandar/flightbag/internal/db"
)

func newDBCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}

	cmd.AddCommand(newDBMigrateCmd(configPath))
	return cmd
}

func newDBMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the flight bag tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDBMigrate(cmd, *configPath)
		},
	}
}

func runDBMigrate(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if _, err := db.Setup(cfg.Storage); err != nil {
		return err
	}
	target := cfg.Storage.Path
	if cfg.Storage.Driver == "mysql" {
		target = fmt.Sprintf("%s:%d/%s", cfg.Storage.Host, cfg.Storage.Port, cfg.Storage.Database)
	}
	fmt.Fprintf(out, "Migrated %d tables on %s (%s)\n", len(db.AllModels()), cfg.Storage.Driver, target)
	return nil
}
