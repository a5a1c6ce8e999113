package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

type Product struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Price        int    `json:"price"`
	Stock        int    `json:"stock"`
	SoldQuantity int64  `json:"sold_quantity"`
	SoldAmount   string `json:"sold_amount"`
}

type Catalog struct {
	Products      []Product `json:"products"`
	TotalQuantity int64     `json:"total_quantity"`
	TotalAmount   string    `json:"total_amount"`
}

type Sale struct {
	ID         string `json:"id"`
	ProductID  string `json:"product_id"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unit_price"`
	TotalPrice string `json:"total_price"`
}

type Registration struct {
	Sales     []Sale `json:"sales"`
	UnitsSold int    `json:"units_sold"`
	Clamped   int    `json:"clamped"`
	Skipped   int    `json:"skipped"`
}

type apiError struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// POSClient fala com a API JSON do pos-service
type POSClient struct {
	http *resty.Client
}

// NewPOSClient cria uma nova instância de POSClient
func NewPOSClient(baseURL string, timeout time.Duration) *POSClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &POSClient{http: client}
}

func (c *POSClient) Health(ctx context.Context) error {
	resp, err := c.http.R().SetContext(ctx).Get("/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("health check returned %s", resp.Status())
	}
	return nil
}

func (c *POSClient) CreateProduct(ctx context.Context, name string, price, stock int) (*Product, error) {
	var product Product
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{"name": name, "price": price, "stock": stock}).
		SetResult(&product).
		SetError(&apiErr).
		Post("/api/products")
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("create product returned %s: %s %v", resp.Status(), apiErr.Error, apiErr.Fields)
	}
	return &product, nil
}

func (c *POSClient) ListProducts(ctx context.Context) (*Catalog, error) {
	var catalog Catalog
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&catalog).
		Get("/api/products")
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list products returned %s", resp.Status())
	}
	return &catalog, nil
}

// RegisterSales envia um lote product_id -> quantidade
func (c *POSClient) RegisterSales(ctx context.Context, quantities map[string]string) (*Registration, error) {
	var registration Registration
	var apiErr apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{"quantities": quantities}).
		SetResult(&registration).
		SetError(&apiErr).
		Post("/api/sales")
	if err != nil {
		return nil, fmt.Errorf("register sales: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("register sales returned %s: %s", resp.Status(), apiErr.Error)
	}
	return &registration, nil
}

func (c *POSClient) DeleteProduct(ctx context.Context, productID string) error {
	resp, err := c.http.R().SetContext(ctx).Delete("/api/products/" + productID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("delete product returned %s", resp.Status())
	}
	return nil
}
