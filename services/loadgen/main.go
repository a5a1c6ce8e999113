package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(NewPOSClient(cfg.TargetURL, cfg.Timeout), cfg)
	if err := runner.Setup(ctx); err != nil {
		log.Fatalf("Failed to set up load: %v", err)
	}

	log.Printf("🚀 Sending %d batches from %d workers to %s (seed=%d)",
		cfg.Batches*cfg.Workers, cfg.Workers, cfg.TargetURL, cfg.Seed)
	report := runner.Run(ctx)

	log.Printf("📊 Requests=%d Failures=%d UnitsSold=%d Clamped=%d Skipped=%d Duration=%s",
		report.Requests, report.Failures, report.UnitsSold, report.Clamped, report.Skipped, report.Duration)

	verifyErr := runner.Verify(context.Background(), report)
	if getEnv("CLEANUP", "true") == "true" {
		runner.Cleanup(context.Background())
	}
	if verifyErr != nil {
		log.Fatalf("❌ Inconsistent stock: %v", verifyErr)
	}
}
