package main

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePOS imita a API JSON do pos-service com estoque limitado
type fakePOS struct {
	mu       sync.Mutex
	order    []string
	products map[string]*Product
	// leak faz cada venda baixar uma unidade a mais do estoque
	leak bool
}

func newFakePOS(t *testing.T, leak bool) (*fakePOS, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &fakePOS{products: make(map[string]*Product), leak: leak}

	r := gin.New()
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "healthy"}) })
	r.POST("/api/products", f.createProduct)
	r.GET("/api/products", f.listProducts)
	r.POST("/api/sales", f.registerSales)
	r.DELETE("/api/products/:id", f.deleteProduct)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakePOS) createProduct(c *gin.Context) {
	var req struct {
		Name  string `json:"name"`
		Price int    `json:"price"`
		Stock *int   `json:"stock" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": gin.H{"stock": "required"}})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	p := &Product{ID: uuid.NewString(), Name: req.Name, Price: req.Price, Stock: *req.Stock, SoldAmount: "0.00"}
	f.products[p.ID] = p
	f.order = append(f.order, p.ID)
	c.JSON(http.StatusCreated, p)
}

func (f *fakePOS) listProducts(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var catalog Catalog
	for _, id := range f.order {
		p := f.products[id]
		catalog.Products = append(catalog.Products, *p)
		catalog.TotalQuantity += p.SoldQuantity
	}
	c.JSON(http.StatusOK, catalog)
}

func (f *fakePOS) registerSales(c *gin.Context) {
	var req struct {
		Quantities map[string]string `json:"quantities" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var reg Registration
	for _, id := range f.order {
		raw, ok := req.Quantities[id]
		if !ok || raw == "" {
			continue
		}
		q, err := strconv.Atoi(raw)
		if err != nil || q <= 0 {
			reg.Skipped++
			continue
		}
		p := f.products[id]
		if q > p.Stock {
			q = p.Stock
			reg.Clamped++
		}
		if q == 0 {
			reg.Skipped++
			continue
		}
		p.Stock -= q
		if f.leak && p.Stock > 0 {
			p.Stock--
		}
		p.SoldQuantity += int64(q)
		reg.UnitsSold += q
		reg.Sales = append(reg.Sales, Sale{ProductID: id, Quantity: q})
	}
	c.JSON(http.StatusOK, reg)
}

func (f *fakePOS) deleteProduct(c *gin.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := c.Param("id")
	if _, ok := f.products[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	delete(f.products, id)
	for i, existing := range f.order {
		if existing == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	c.Status(http.StatusNoContent)
}

func testConfig(url string) Config {
	return Config{
		TargetURL:    url,
		Products:     3,
		InitialStock: 20,
		Price:        4,
		Workers:      4,
		Batches:      10,
		MaxQuantity:  3,
		Timeout:      5 * time.Second,
		Seed:         42,
	}
}

func TestRunner_ConsistentServer(t *testing.T) {
	// Arrange
	ctx := context.Background()
	fake, srv := newFakePOS(t, false)
	cfg := testConfig(srv.URL)
	runner := NewRunner(NewPOSClient(cfg.TargetURL, cfg.Timeout), cfg)

	// Act
	require.NoError(t, runner.Setup(ctx))
	report := runner.Run(ctx)

	// Assert
	assert.Equal(t, cfg.Workers*cfg.Batches, report.Requests)
	assert.Zero(t, report.Failures)
	assert.LessOrEqual(t, report.UnitsSold, int64(cfg.Products*cfg.InitialStock))
	assert.NoError(t, runner.Verify(ctx, report))

	runner.Cleanup(ctx)
	fake.mu.Lock()
	assert.Empty(t, fake.products)
	fake.mu.Unlock()
}

func TestRunner_DetectsLeakingStock(t *testing.T) {
	ctx := context.Background()
	_, srv := newFakePOS(t, true)
	cfg := testConfig(srv.URL)
	runner := NewRunner(NewPOSClient(cfg.TargetURL, cfg.Timeout), cfg)

	require.NoError(t, runner.Setup(ctx))
	// vende 2 de 20; o servidor some com mais uma unidade
	_, err := runner.client.RegisterSales(ctx, map[string]string{runner.products[0].ID: "2"})
	require.NoError(t, err)

	assert.Error(t, runner.Verify(ctx, Report{Failures: 1}))
}

func TestRunner_SetupFailsWhenServerIsDown(t *testing.T) {
	_, srv := newFakePOS(t, false)
	url := srv.URL
	srv.Close()

	cfg := testConfig(url)
	runner := NewRunner(NewPOSClient(cfg.TargetURL, time.Second), cfg)

	assert.Error(t, runner.Setup(context.Background()))
}

func TestPOSClient_ErrorStatus(t *testing.T) {
	ctx := context.Background()
	_, srv := newFakePOS(t, false)
	client := NewPOSClient(srv.URL, time.Second)

	_, err := client.RegisterSales(ctx, nil)
	assert.Error(t, err)

	err = client.DeleteProduct(ctx, "missing")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestNextBatch(t *testing.T) {
	cfg := testConfig("")
	runner := NewRunner(nil, cfg)
	runner.products = []*Product{{ID: "a"}, {ID: "b"}}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		for id, raw := range runner.nextBatch(rng) {
			assert.Contains(t, []string{"a", "b"}, id)
			q, err := strconv.Atoi(raw)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, q, 1)
			assert.LessOrEqual(t, q, cfg.MaxQuantity)
		}
	}
}
