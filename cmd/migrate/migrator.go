package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"zapas-be/internal/logger"

	"go.uber.org/zap"
)

const createVersionsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`

type migrator struct {
	db  *sql.DB
	dir string
}

type migrationStatus struct {
	Version string
	Applied bool
}

func newMigrator(db *sql.DB, dir string) *migrator {
	return &migrator{db: db, dir: dir}
}

// files returns migration paths ordered by file name.
func (m *migrator) files() ([]string, error) {
	files, err := filepath.Glob(filepath.Join(m.dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}
	slices.Sort(files)
	return files, nil
}

func (m *migrator) prepare(ctx context.Context) ([]string, error) {
	if _, err := m.db.ExecContext(ctx, createVersionsTable); err != nil {
		return nil, fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}
	return m.files()
}

// Up applies pending migrations in order. Each one runs in its own
// transaction together with its version record.
func (m *migrator) Up(ctx context.Context) (int, error) {
	files, err := m.prepare(ctx)
	if err != nil {
		return 0, err
	}

	log := logger.L().With(zap.String("method", "Up"))
	applied := 0

	for _, file := range files {
		version := filepath.Base(file)

		var exists bool
		err := m.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, version,
		).Scan(&exists)
		if err != nil {
			return applied, fmt.Errorf("failed to check migration status: %w", err)
		}
		if exists {
			log.Debug("skipping applied migration", zap.String("version", version))
			continue
		}

		content, err := os.ReadFile(file)
		if err != nil {
			return applied, fmt.Errorf("failed to read %s: %w", file, err)
		}

		log.Info("applying migration", zap.String("version", version))
		err = m.inTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, extractMigrationPart(string(content), "Up")); err != nil {
				return fmt.Errorf("migration %s failed: %w", version, err)
			}
			if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
				return fmt.Errorf("failed to record migration version: %w", err)
			}
			return nil
		})
		if err != nil {
			return applied, err
		}
		applied++
	}

	return applied, nil
}

// Down rolls back the latest applied migration and returns its version, or
// "" when nothing is applied.
func (m *migrator) Down(ctx context.Context) (string, error) {
	files, err := m.prepare(ctx)
	if err != nil {
		return "", err
	}

	var version string
	err = m.db.QueryRowContext(ctx,
		`SELECT version FROM schema_migrations ORDER BY applied_at DESC, version DESC LIMIT 1`,
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get last applied migration: %w", err)
	}

	idx := slices.IndexFunc(files, func(f string) bool { return filepath.Base(f) == version })
	if idx < 0 {
		return "", fmt.Errorf("migration file not found for version: %s", version)
	}

	content, err := os.ReadFile(files[idx])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", files[idx], err)
	}

	logger.L().Info("rolling back migration", zap.String("version", version))
	err = m.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, extractMigrationPart(string(content), "Down")); err != nil {
			return fmt.Errorf("rollback of %s failed: %w", version, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = $1`, version); err != nil {
			return fmt.Errorf("failed to remove migration record: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return version, nil
}

func (m *migrator) Status(ctx context.Context) ([]migrationStatus, error) {
	files, err := m.prepare(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := m.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to list applied migrations: %w", err)
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]migrationStatus, 0, len(files))
	for _, f := range files {
		v := filepath.Base(f)
		out = append(out, migrationStatus{Version: v, Applied: applied[v]})
	}
	return out, nil
}

func (m *migrator) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// extractMigrationPart returns the statements between "-- +migrate <section>"
// and the next marker.
func extractMigrationPart(content string, section string) string {
	var part strings.Builder
	var inPart bool

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "-- +migrate") {
			if inPart {
				break
			}
			inPart = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-- +migrate")) == section
			continue
		}
		if inPart {
			part.WriteString(line + "\n")
		}
	}
	return part.String()
}
