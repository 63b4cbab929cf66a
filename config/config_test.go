package config

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"HTTP_PORT", "DB_DRIVER", "SQLITE_PATH", "DATABASE_URL", "LOG_LEVEL", "LOG_FORMAT", "CORS_ALLOWED_ORIGINS", "SEED_SCENARIO", "HTTP_SHUTDOWN_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, ":8080", cfg.HTTP.Addr())
	assert.Equal(t, 30*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "directory.db", cfg.Database.SQLitePath)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Len(t, cfg.HTTP.CORSAllowedOrigins, 2)
	assert.Empty(t, cfg.Seed)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "3000")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/directory")
	t.Setenv("PG_MAX_CONNS", "4")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("SEED_SCENARIO", "beatles")
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 3000, cfg.HTTP.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 4, cfg.Database.MaxConns)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSAllowedOrigins)
	assert.Equal(t, "beatles", cfg.Seed)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout, "bad values fall back to the default")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"sqlite", Config{HTTP: HTTPConfig{Port: 8080}, Database: DatabaseConfig{Driver: DriverSQLite}}, false},
		{"memory", Config{HTTP: HTTPConfig{Port: 8080}, Database: DatabaseConfig{Driver: DriverMemory}}, false},
		{"postgres without url", Config{HTTP: HTTPConfig{Port: 8080}, Database: DatabaseConfig{Driver: DriverPostgres}}, true},
		{"unknown driver", Config{HTTP: HTTPConfig{Port: 8080}, Database: DatabaseConfig{Driver: "mysql"}}, true},
		{"bad port", Config{HTTP: HTTPConfig{Port: 0}, Database: DatabaseConfig{Driver: DriverSQLite}}, true},
		{"max conns beyond int32", Config{HTTP: HTTPConfig{Port: 8080}, Database: DatabaseConfig{Driver: DriverSQLite, MaxConns: math.MaxInt32 + 1}}, true},
		{"negative min conns", Config{HTTP: HTTPConfig{Port: 8080}, Database: DatabaseConfig{Driver: DriverSQLite, MinConns: -1}}, true},
		{"min above max", Config{HTTP: HTTPConfig{Port: 8080}, Database: DatabaseConfig{Driver: DriverSQLite, MaxConns: 2, MinConns: 5}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoad_LeavesValidationToCaller(t *testing.T) {
	// GIVEN: An environment that selects postgres without a URL
	t.Setenv("HTTP_PORT", "")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")

	// WHEN: Loading
	cfg, err := Load()

	// THEN: Loading succeeds and the conflict surfaces only in Validate
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())

	// AND: A command-line override to memory makes it valid
	cfg.Database.Driver = DriverMemory
	assert.NoError(t, cfg.Validate())
}

func TestLoad_LargePoolSizeIsNotWrapped(t *testing.T) {
	t.Setenv("HTTP_PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("PG_MAX_CONNS", "4294967297")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4294967297, cfg.Database.MaxConns)
	assert.Error(t, cfg.Validate())
}
