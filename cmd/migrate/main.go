/*
main.go - Schema migrations for the PostgreSQL store

PURPOSE:
  Applies the versioned SQL files under migrations/postgres with
  golang-migrate. The SQLite store creates its own schema on open and
  does not need this tool.

USAGE:
  ./migrate [-dir=migrations/postgres] [-database=postgres://...] [up|down|drop|version]

  The database URL defaults to DATABASE_URL (a .env file is honored).

SEE ALSO:
  - migrations/postgres: Versioned schema
  - store/postgres/postgres.go: Queries against the schema
*/
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/warp/employee-directory/logging"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	var (
		migrationsDir = flag.String("dir", "migrations/postgres", "directory containing migration files")
		databaseURL   = flag.String("database", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
	)
	flag.Parse()

	logger, err := logging.New(os.Getenv("LOG_LEVEL"), "console")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	action := "up"
	if flag.NArg() > 0 {
		action = flag.Arg(0)
	}

	if *databaseURL == "" {
		logger.Fatal("database URL is required (-database or DATABASE_URL)")
	}

	if err := runMigration(logger, action, *migrationsDir, *databaseURL); err != nil {
		logger.Fatal("migration failed", zap.String("action", action), zap.Error(err))
	}

	logger.Info("migration completed", zap.String("action", action))
}

func runMigration(logger *zap.Logger, action, dir, dsn string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve path for %s: %w", dir, err)
	}
	absDir = filepath.ToSlash(absDir)

	m, err := migrate.New(fmt.Sprintf("file://%s", absDir), dsn)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	switch action {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		return nil
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
		return nil
	case "drop":
		return m.Drop()
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("no migration applied")
			return nil
		}
		if err != nil {
			return err
		}
		logger.Info("schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	default:
		return fmt.Errorf("unsupported action %q", action)
	}
}
