package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"zapas-be/internal/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// openDBFunc is swapped in tests.
var openDBFunc = func(driver, dsn string) (*sql.DB, error) {
	return sql.Open(driver, dsn)
}

type options struct {
	dir    string
	dbURL  string
	driver string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply or roll back SQL schema migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dir, "dir", "./migrations", "directory holding *.sql migrations")
	root.PersistentFlags().StringVar(&opts.dbURL, "database-url", os.Getenv("DATABASE_URL"), "postgres connection URL")
	root.PersistentFlags().StringVar(&opts.driver, "driver", envOr("DB_DRIVER", "postgres"), "database/sql driver: postgres or pgx")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, opts, func(m *migrator) error {
					n, err := m.Up(cmd.Context())
					if err != nil {
						return err
					}
					logger.L().Info("migrations applied", zap.Int("count", n))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recently applied migration",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, opts, func(m *migrator) error {
					version, err := m.Down(cmd.Context())
					if err != nil {
						return err
					}
					if version == "" {
						logger.L().Warn("no migrations to roll back")
						return nil
					}
					logger.L().Info("migration rolled back", zap.String("version", version))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withMigrator(cmd, opts, func(m *migrator) error {
					statuses, err := m.Status(cmd.Context())
					if err != nil {
						return err
					}
					for _, s := range statuses {
						state := "pending"
						if s.Applied {
							state = "applied"
						}
						fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", state, s.Version)
					}
					return nil
				})
			},
		},
	)

	return root
}

func withMigrator(cmd *cobra.Command, opts *options, fn func(*migrator) error) error {
	if opts.dbURL == "" {
		return errors.New("DATABASE_URL not set")
	}

	db, err := openDBFunc(opts.driver, opts.dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect db: %w", err)
	}
	defer db.Close()

	return fn(newMigrator(db, opts.dir))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
