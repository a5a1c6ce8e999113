package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
)

func main() {
	cfg := loadConfig()
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry
	if cfg.OTelEnabled {
		tp, err := initTracer(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to initialize tracer: %v", err)
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Printf("Error shutting down tracer: %v", err)
			}
		}()

		mp, err := initMetrics(ctx, cfg)
		if err != nil {
			log.Fatalf("Failed to initialize metrics: %v", err)
		}
		defer func() {
			if err := mp.Shutdown(context.Background()); err != nil {
				log.Printf("Error shutting down meter: %v", err)
			}
		}()
	}

	// Initialize storage
	repository, closeRepository, err := initRepository(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer closeRepository()

	// Initialize dependencies
	tracer := otel.Tracer(instrumentationName)
	metrics, err := NewSalesMetrics(otel.Meter(instrumentationName))
	if err != nil {
		log.Fatalf("Failed to initialize sales metrics: %v", err)
	}
	catalog := NewCatalogUseCase(repository, tracer)
	sales := NewSalesUseCase(repository, tracer, metrics)

	r, err := newRouter(cfg,
		NewPageHandler(catalog, sales, tracer),
		NewAPIHandler(catalog, sales, tracer, cfg.ServiceName),
	)
	if err != nil {
		log.Fatalf("Failed to build router: %v", err)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		log.Printf("🚀 POS Service listening on port %s (storage=%s)", cfg.Port, cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down POS Service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}
}

// initRepository escolhe o armazenamento conforme STORAGE_DRIVER
func initRepository(ctx context.Context, cfg Config) (Repository, func(), error) {
	switch cfg.StorageDriver {
	case StorageDriverMemory:
		log.Println("ℹ️ Using in-memory storage, data is lost on restart")
		return NewMemoryRepository(), func() {}, nil
	case StorageDriverPostgres:
		if cfg.RunMigrations {
			if err := runMigrations(cfg); err != nil {
				return nil, nil, err
			}
		}
		pool, err := initDB(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return NewPostgresRepository(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func initDB(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	// Configure connection pool
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Wait for database to be ready
	ping := func() error { return pool.Ping(ctx) }
	if err := waitForDB(ping, cfg.DatabaseConnectAttempts); err != nil {
		pool.Close()
		return nil, err
	}

	log.Println("✅ Connected to POS database with connection pool")
	return pool, nil
}
