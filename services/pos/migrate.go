package main

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

// runMigrations aplica o schema usando database/sql com o driver lib/pq
func runMigrations(cfg Config) error {
	db, err := sql.Open("postgres", cfg.DatabaseDSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Minute)

	if err := waitForDB(db.Ping, cfg.DatabaseConnectAttempts); err != nil {
		return err
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	log.Println("✅ [MIGRATE] Schema applied")
	return nil
}

// waitForDB tenta o ping até o banco responder
func waitForDB(ping func() error, attempts int) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = ping(); err == nil {
			return nil
		}
		log.Printf("⏳ Waiting for database... (%d/%d)", i+1, attempts)
		if i < attempts-1 {
			time.Sleep(1 * time.Second)
		}
	}
	return fmt.Errorf("failed to connect to database after %d attempts: %w", attempts, err)
}
