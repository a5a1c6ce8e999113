package main

import (
	"context"
)

// Repository define a interface para operações de banco de dados do catálogo e das vendas
type Repository interface {
	// BeginTx inicia uma unidade de trabalho
	BeginTx(ctx context.Context) (Tx, error)

	ListProducts(ctx context.Context) ([]*Product, error)
	GetProduct(ctx context.Context, productID string) (*Product, error)
	CreateProduct(ctx context.Context, product *Product) error
	UpdateProduct(ctx context.Context, product *Product) error

	// ListProductSummaries retorna os produtos com o acumulado de vendas, mais novos primeiro
	ListProductSummaries(ctx context.Context) ([]*ProductSummary, error)
	GetSalesTotals(ctx context.Context) (SalesTotals, error)
	ListSalesByProduct(ctx context.Context, productID string) ([]*Sale, error)

	// GetProductForUpdate obtém o produto com lock pessimista dentro da transação
	GetProductForUpdate(ctx context.Context, tx Tx, productID string) (*Product, error)
	CreateSale(ctx context.Context, tx Tx, sale *Sale) error
	DecreaseStock(ctx context.Context, tx Tx, productID string, quantity int) error

	// DeleteSalesByProduct e DeleteProduct implementam a cascata de forma explícita
	DeleteSalesByProduct(ctx context.Context, tx Tx, productID string) (int64, error)
	DeleteProduct(ctx context.Context, tx Tx, productID string) error
}

// Tx interface para transações
type Tx interface {
	Commit() error
	Rollback() error
}
