package main

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config reúne a configuração do serviço lida do ambiente
type Config struct {
	Port        string
	ServiceName string

	StorageDriver           string
	DatabaseHost            string
	DatabasePort            string
	DatabaseUser            string
	DatabasePassword        string
	DatabaseName            string
	DatabaseMaxConns        int
	DatabaseConnectAttempts int
	RunMigrations           bool

	OTelEnabled  bool
	OTLPEndpoint string

	GinMode string
}

// loadConfig lê as variáveis de ambiente com valores padrão
func loadConfig() Config {
	return Config{
		Port:        getEnv("PORT", "8080"),
		ServiceName: getEnv("SERVICE_NAME", "pos-service"),

		StorageDriver:           strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPostgres)),
		DatabaseHost:            getEnv("DATABASE_HOST", "localhost"),
		DatabasePort:            getEnv("DATABASE_PORT", "5432"),
		DatabaseUser:            getEnv("DATABASE_USER", "root"),
		DatabasePassword:        getEnv("DATABASE_PASSWORD", "pass"),
		DatabaseName:            getEnv("DATABASE_NAME", "pos_db"),
		DatabaseMaxConns:        getEnvInt("DATABASE_MAX_CONNS", 10),
		DatabaseConnectAttempts: getEnvInt("DATABASE_CONNECT_ATTEMPTS", 30),
		RunMigrations:           getEnvBool("RUN_MIGRATIONS", true),

		OTelEnabled:  getEnvBool("OTEL_ENABLED", true),
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),

		GinMode: getEnv("GIN_MODE", "release"),
	}
}

// DatabaseURL monta a URL usada pelo pgxpool
func (c Config) DatabaseURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.DatabaseUser, c.DatabasePassword),
		Host:   c.DatabaseHost + ":" + c.DatabasePort,
		Path:   "/" + c.DatabaseName,
	}
	q := u.Query()
	q.Set("sslmode", "disable")
	q.Set("pool_max_conns", strconv.Itoa(c.DatabaseMaxConns))
	u.RawQuery = q.Encode()
	return u.String()
}

// DatabaseDSN monta o DSN no formato chave=valor do lib/pq
func (c Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return b
}
