package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"zapas-be/internal/config"
	"zapas-be/internal/db"
	"zapas-be/internal/logger"
	"zapas-be/internal/product"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// openDBFunc is swapped in tests.
var openDBFunc = db.NewDatabase

func main() {
	_ = godotenv.Load()
	defer logger.Sync()

	if err := newRootCmd().Execute(); err != nil {
		logger.L().Error("seed failed", zap.Error(err))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		file   string
		dryRun bool
	)
	cfg := &config.Config{}

	cmd := &cobra.Command{
		Use:           "seed",
		Short:         "Upsert the product catalog from a YAML file",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			products, err := loadCatalog(file)
			if err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%d products in %s\n", len(products), file)
				return nil
			}

			if cfg.DBURL == "" && cfg.DBHost == "" {
				return errors.New("DATABASE_URL or DB_HOST not set")
			}
			database, err := openDBFunc(cfg)
			if err != nil {
				return err
			}
			defer database.Close()

			return run(cmd.Context(), database, products)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "seed/products.yaml", "catalog file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and validate the catalog without writing")
	cmd.Flags().StringVar(&cfg.DBURL, "database-url", os.Getenv("DATABASE_URL"), "postgres connection URL")
	cmd.Flags().StringVar(&cfg.DBHost, "db-host", os.Getenv("DB_HOST"), "database host when no URL is given")
	cmd.Flags().StringVar(&cfg.DBDriver, "driver", envOr("DB_DRIVER", "postgres"), "database/sql driver: postgres or pgx")
	cfg.DBUser = os.Getenv("DB_USER")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = os.Getenv("DB_NAME")
	cfg.DBPort = envOr("DB_PORT", "5432")
	cfg.DBSSLMode = envOr("DB_SSLMODE", "disable")

	return cmd
}

func run(ctx context.Context, database *sql.DB, products []*product.Product) error {
	log := logger.L().With(zap.String("method", "seed"))

	res, err := seedCatalog(ctx, database, products)
	if err != nil {
		return err
	}

	log.Info("catalog seeded",
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
	)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
