package main

import (
	"fmt"

	"auction-engine/internal/config"
	"auction-engine/internal/repository/migrations"
	"auction-engine/utils"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or revert the PostgreSQL schema",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("config")
		cfg, err := config.LoadConfig(dir)
		if err != nil {
			return err
		}
		if cfg.PostgresConn == "" {
			return fmt.Errorf("POSTGRES_CONN is required for migrations")
		}

		switch args[0] {
		case "up":
			err = migrations.UpPostgres(cfg.PostgresConn)
		case "down":
			err = migrations.DownPostgres(cfg.PostgresConn)
		}
		if err != nil {
			return fmt.Errorf("migrate %s: %w", args[0], err)
		}
		utils.Info("migrations applied", map[string]any{"direction": args[0]})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
