package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/stwalsh4118/estate/api/internal/config"
	"github.com/stwalsh4118/estate/api/internal/database"
	"github.com/stwalsh4118/estate/api/internal/logger"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Estate database schema tool",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().Bool("verbose", false, "Log every SQL statement")

	rootCmd.AddCommand(upCmd(), statusCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Create or update every table and foreign key",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, err := open(cmd)
			if err != nil {
				return err
			}
			log := logger.New(cfg.Server.Env).WithComponent("migrate")

			if err := database.Migrate(cmd.Context(), db); err != nil {
				log.Error("Migration failed", err, map[string]interface{}{
					"database": cfg.Database.Name,
				})
				return err
			}
			log.Info("Schema is up to date", map[string]interface{}{
				"database":     cfg.Database.Name,
				"foreign_keys": len(database.ForeignKeys),
			})
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which tables exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, err := open(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-32s  %-8s\n", "Table", "Status")
			missing := 0
			for _, table := range database.SchemaStatus(cmd.Context(), db) {
				status := "Present"
				if !table.Exists {
					status = "Missing"
					missing++
				}
				fmt.Fprintf(out, "%-32s  %-8s\n", table.Table, status)
			}
			if missing > 0 {
				return fmt.Errorf("%d tables missing, run migrate up", missing)
			}
			return nil
		},
	}
}

func open(cmd *cobra.Command) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	verbose, _ := cmd.Flags().GetBool("verbose")
	db, err := database.OpenGorm(cfg.Database, verbose)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
