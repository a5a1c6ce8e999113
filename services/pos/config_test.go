package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "SERVICE_NAME", "STORAGE_DRIVER", "DATABASE_HOST", "DATABASE_PORT",
		"DATABASE_USER", "DATABASE_PASSWORD", "DATABASE_NAME", "DATABASE_MAX_CONNS",
		"DATABASE_CONNECT_ATTEMPTS", "RUN_MIGRATIONS", "OTEL_ENABLED",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "GIN_MODE",
	} {
		t.Setenv(key, "")
	}

	cfg := loadConfig()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "pos-service", cfg.ServiceName)
	assert.Equal(t, StorageDriverPostgres, cfg.StorageDriver)
	assert.Equal(t, "localhost", cfg.DatabaseHost)
	assert.Equal(t, "5432", cfg.DatabasePort)
	assert.Equal(t, 10, cfg.DatabaseMaxConns)
	assert.Equal(t, 30, cfg.DatabaseConnectAttempts)
	assert.True(t, cfg.RunMigrations)
	assert.True(t, cfg.OTelEnabled)
	assert.Equal(t, "localhost:4318", cfg.OTLPEndpoint)
	assert.Equal(t, "release", cfg.GinMode)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_DRIVER", "MEMORY")
	t.Setenv("DATABASE_MAX_CONNS", "25")
	t.Setenv("RUN_MIGRATIONS", "false")
	t.Setenv("OTEL_ENABLED", "0")
	t.Setenv("DATABASE_CONNECT_ATTEMPTS", "not-a-number")

	cfg := loadConfig()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, StorageDriverMemory, cfg.StorageDriver)
	assert.Equal(t, 25, cfg.DatabaseMaxConns)
	assert.False(t, cfg.RunMigrations)
	assert.False(t, cfg.OTelEnabled)
	assert.Equal(t, 30, cfg.DatabaseConnectAttempts)
}

func TestConfig_DatabaseURL(t *testing.T) {
	cfg := Config{
		DatabaseHost:     "db",
		DatabasePort:     "5433",
		DatabaseUser:     "pos",
		DatabasePassword: "p@ss",
		DatabaseName:     "pos_db",
		DatabaseMaxConns: 4,
	}

	assert.Equal(t, "postgres://pos:p%40ss@db:5433/pos_db?pool_max_conns=4&sslmode=disable", cfg.DatabaseURL())
	assert.Equal(t, "host=db port=5433 user=pos password=p@ss dbname=pos_db sslmode=disable", cfg.DatabaseDSN())
}
