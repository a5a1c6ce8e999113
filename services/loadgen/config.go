package main

import (
	"os"
	"strconv"
	"time"
)

// Config define a carga gerada contra o pos-service
type Config struct {
	TargetURL    string
	Products     int
	InitialStock int
	Price        int
	Workers      int
	Batches      int
	MaxQuantity  int
	Timeout      time.Duration
	Seed         int64
}

func loadConfig() Config {
	return Config{
		TargetURL:    getEnv("TARGET_URL", "http://localhost:8080"),
		Products:     getEnvInt("PRODUCTS", 5),
		InitialStock: getEnvInt("INITIAL_STOCK", 100),
		Price:        getEnvInt("PRICE", 10),
		Workers:      getEnvInt("WORKERS", 8),
		Batches:      getEnvInt("BATCHES", 25),
		MaxQuantity:  getEnvInt("MAX_QUANTITY", 5),
		Timeout:      time.Duration(getEnvInt("TIMEOUT_SECONDS", 10)) * time.Second,
		Seed:         int64(getEnvInt("SEED", int(time.Now().UnixNano()%1_000_000))),
	}
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
