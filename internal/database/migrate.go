package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
)

// AutoMigrate creates the schema from the models. Used for sqlite, where the
// SQL migrations (written for postgres) do not apply.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to auto-migrate schema: %w", err)
	}
	return nil
}

// Migration is one SQL file of the migrations directory.
type Migration struct {
	Version string
	Name    string
	Applied bool
}

const createMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version VARCHAR(64) PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Status lists every migration file and whether it has been applied.
func Status(ctx context.Context, db *sql.DB, dir string) ([]Migration, error) {
	files, err := migrationFiles(dir)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied := map[string]bool{}
	rows, err := db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to read applied migrations: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}

	out := make([]Migration, len(files))
	for i, name := range files {
		v := migrationVersion(name)
		out[i] = Migration{Version: v, Name: name, Applied: applied[v]}
	}
	return out, nil
}

// RunMigrations applies every pending migration, each in its own
// transaction, and returns the names of those applied.
func RunMigrations(ctx context.Context, db *sql.DB, dir string) ([]string, error) {
	migrations, err := Status(ctx, db, dir)
	if err != nil {
		return nil, err
	}

	var done []string
	for _, m := range migrations {
		if m.Applied {
			log.Debug().Str("migration", m.Name).Msg("skipping applied migration")
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, m.Name))
		if err != nil {
			return done, fmt.Errorf("failed to read migration %s: %w", m.Name, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return done, fmt.Errorf("failed to start transaction: %w", err)
		}
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			tx.Rollback()
			return done, fmt.Errorf("failed to apply migration %s: %w", m.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (version, name) VALUES ($1, $2)", m.Version, m.Name); err != nil {
			tx.Rollback()
			return done, fmt.Errorf("failed to record migration %s: %w", m.Name, err)
		}
		if err := tx.Commit(); err != nil {
			return done, fmt.Errorf("failed to commit migration %s: %w", m.Name, err)
		}

		log.Info().Str("migration", m.Name).Msg("applied migration")
		done = append(done, m.Name)
	}
	return done, nil
}

func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".sql" || strings.HasSuffix(e.Name(), "_rollback.sql") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}

// migrationVersion takes the VERSION part of a VERSION_name.sql file.
func migrationVersion(name string) string {
	version, _, _ := strings.Cut(strings.TrimSuffix(name, ".sql"), "_")
	return version
}
