package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
)

var migrationsDir string

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the Foodgram database schema",
	Long: `Applies the versioned SQL files of the migrations directory to the
configured postgres database. Applied versions are recorded in the
schema_migrations table.`,
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, db *database.DB) error {
			applied, err := database.RunMigrations(ctx, db.DB, migrationsDir)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				log.Info().Msg("database is up to date")
				return nil
			}
			log.Info().Int("count", len(applied)).Msg("migrations applied")
			return nil
		})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which migrations have been applied",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd.Context(), func(ctx context.Context, db *database.DB) error {
			migrations, err := database.Status(ctx, db.DB, migrationsDir)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "VERSION\tNAME\tSTATUS")
			for _, m := range migrations {
				status := "pending"
				if m.Applied {
					status = "applied"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.Version, m.Name, status)
			}
			return w.Flush()
		})
	},
}

func withDB(ctx context.Context, fn func(context.Context, *database.DB) error) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Init(config.GetEnvironment().String(), cfg.LogLevel)

	if cfg.DBDriver != "postgres" {
		return fmt.Errorf("SQL migrations target postgres, DB_DRIVER is %q", cfg.DBDriver)
	}

	db, err := database.NewSQL(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(ctx, db)
}

func main() {
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "migrations-dir", "migrations", "directory holding the SQL migration files")
	rootCmd.AddCommand(upCmd, statusCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
