package db

import (
	"context"
	"embed"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/hyttebook/backend/internal/common/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations applies the embedded migrations in lexical order. Every
// statement is idempotent (IF NOT EXISTS), so re-running on startup is safe.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, log *logger.Logger) error {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		sqlBytes, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		err = RetryWithBackoff(ctx, log, DefaultRetryConfig, func() error {
			_, execErr := pool.Exec(ctx, string(sqlBytes))
			return execErr
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
		log.Infof("migration applied: %s", name)
	}

	return nil
}
