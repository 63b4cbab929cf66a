/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the employee directory server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, then flags)
  2. Build the zap logger
  3. Open the configured store (sqlite, postgres or memory)
  4. Optionally seed a scenario
  5. Configure HTTP router and start server with graceful shutdown

COMMAND-LINE FLAGS:
  Flags override the matching environment variables.
  -port    HTTP server port (HTTP_PORT, default: 8080)
  -driver  Store driver: sqlite, postgres, memory (DB_DRIVER, default: sqlite)
  -db      SQLite database path (SQLITE_PATH, default: directory.db)
           Use ":memory:" for in-memory database
  -seed    Scenario to load at startup (SEED_SCENARIO)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (HTTP_SHUTDOWN_TIMEOUT)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/directory.db"

  # Run in memory with demo data
  ./server -driver=memory -seed=beatles

  # Run against PostgreSQL (apply cmd/migrate first)
  DATABASE_URL=postgres://localhost/directory ./server -driver=postgres

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go, store/postgres/postgres.go: Store implementations
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/warp/employee-directory/api"
	"github.com/warp/employee-directory/config"
	"github.com/warp/employee-directory/directory"
	"github.com/warp/employee-directory/directory/store"
	"github.com/warp/employee-directory/logging"
	"github.com/warp/employee-directory/store/postgres"
	"github.com/warp/employee-directory/store/sqlite"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Flags
	port := flag.Int("port", cfg.HTTP.Port, "HTTP server port")
	driver := flag.String("driver", cfg.Database.Driver, "Store driver: sqlite, postgres or memory")
	dbPath := flag.String("db", cfg.Database.SQLitePath, "SQLite database path")
	seed := flag.String("seed", cfg.Seed, "Scenario to load at startup")
	flag.Parse()

	cfg.HTTP.Port = *port
	cfg.Database.Driver = *driver
	cfg.Database.SQLitePath = *dbPath
	cfg.Seed = *seed
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize store
	db, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to initialize store", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer closeStore()

	svc := directory.NewService(db)
	handler := api.NewHandler(svc, logger)

	if cfg.Seed != "" {
		if err := api.Seed(ctx, svc, cfg.Seed); err != nil {
			logger.Fatal("failed to seed scenario", zap.String("scenario", cfg.Seed), zap.Error(err))
		}
		handler.SetCurrentScenario(cfg.Seed)
		logger.Info("scenario loaded", zap.String("scenario", cfg.Seed))
	}

	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      api.NewRouter(handler, cfg.HTTP.CORSAllowedOrigins),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("driver", cfg.Database.Driver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", zap.Error(err))
		}
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}

// openStore builds the store for cfg.Driver and returns its close function.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (directory.Store, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return store.NewMemory(), func() {}, nil

	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
			DSN:      cfg.URL,
			MaxConns: int32(cfg.MaxConns),
			MinConns: int32(cfg.MinConns),
		})
		if err != nil {
			return nil, nil, err
		}
		return postgres.New(pool), pool.Close, nil

	default:
		db, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { db.Close() }, nil
	}
}
