package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Report resume uma execução de carga
type Report struct {
	Requests  int
	Failures  int
	UnitsSold int64
	Clamped   int
	Skipped   int
	Duration  time.Duration
}

// Runner cria os produtos, dispara lotes concorrentes e confere o estoque no final
type Runner struct {
	client *POSClient
	cfg    Config

	mu       sync.Mutex
	products []*Product
	report   Report
}

// NewRunner cria uma nova instância de Runner
func NewRunner(client *POSClient, cfg Config) *Runner {
	return &Runner{client: client, cfg: cfg}
}

// Setup cria os produtos usados na carga
func (r *Runner) Setup(ctx context.Context) error {
	if err := r.client.Health(ctx); err != nil {
		return err
	}

	runID := uuid.NewString()[:8]
	for i := 0; i < r.cfg.Products; i++ {
		name := fmt.Sprintf("loadgen-%s-%02d", runID, i)
		product, err := r.client.CreateProduct(ctx, name, r.cfg.Price, r.cfg.InitialStock)
		if err != nil {
			return err
		}
		r.products = append(r.products, product)
	}

	log.Printf("✅ [SETUP] Created %d products with stock %d", len(r.products), r.cfg.InitialStock)
	return nil
}

// Run dispara Workers goroutines, cada uma enviando Batches lotes
func (r *Runner) Run(ctx context.Context) Report {
	start := time.Now()

	var wg sync.WaitGroup
	for w := 0; w < r.cfg.Workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(r.cfg.Seed + int64(worker)))
			for b := 0; b < r.cfg.Batches; b++ {
				if ctx.Err() != nil {
					return
				}
				r.sendBatch(ctx, worker, r.nextBatch(rng))
			}
		}(w)
	}
	wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Duration = time.Since(start)
	return r.report
}

func (r *Runner) nextBatch(rng *rand.Rand) map[string]string {
	batch := make(map[string]string, len(r.products))
	for _, p := range r.products {
		q := rng.Intn(r.cfg.MaxQuantity + 1)
		if q == 0 {
			continue
		}
		batch[p.ID] = strconv.Itoa(q)
	}
	return batch
}

func (r *Runner) sendBatch(ctx context.Context, worker int, batch map[string]string) {
	registration, err := r.client.RegisterSales(ctx, batch)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Requests++
	if err != nil {
		r.report.Failures++
		log.Printf("❌ [WORKER %d] %v", worker, err)
		return
	}
	r.report.UnitsSold += int64(registration.UnitsSold)
	r.report.Clamped += registration.Clamped
	r.report.Skipped += registration.Skipped
}

// Verify confere que estoque + vendido continua igual ao estoque inicial
// e que o total vendido bate com o que os lotes reportaram.
func (r *Runner) Verify(ctx context.Context, report Report) error {
	catalog, err := r.client.ListProducts(ctx)
	if err != nil {
		return err
	}

	byID := make(map[string]Product, len(catalog.Products))
	for _, p := range catalog.Products {
		byID[p.ID] = p
	}

	var sold int64
	for _, created := range r.products {
		p, ok := byID[created.ID]
		if !ok {
			return fmt.Errorf("product %s disappeared", created.ID)
		}
		if p.Stock < 0 {
			return fmt.Errorf("product %s has negative stock %d", p.ID, p.Stock)
		}
		if int64(p.Stock)+p.SoldQuantity != int64(r.cfg.InitialStock) {
			return fmt.Errorf("product %s: stock %d + sold %d != initial %d",
				p.ID, p.Stock, p.SoldQuantity, r.cfg.InitialStock)
		}
		sold += p.SoldQuantity
	}

	if report.Failures == 0 && sold != report.UnitsSold {
		return fmt.Errorf("server counted %d units sold, batches reported %d", sold, report.UnitsSold)
	}

	log.Printf("✅ [VERIFY] %d products consistent, %d units sold", len(r.products), sold)
	return nil
}

// Cleanup remove os produtos criados pela carga
func (r *Runner) Cleanup(ctx context.Context) {
	for _, p := range r.products {
		if err := r.client.DeleteProduct(ctx, p.ID); err != nil {
			log.Printf("⚠️ [CLEANUP] %v", err)
		}
	}
}
