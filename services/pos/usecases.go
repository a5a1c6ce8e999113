package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ProductInput são os dados aceitos na criação e edição de produtos
type ProductInput struct {
	Name  string
	Price int
	Stock int
}

// CatalogUseCase contém a lógica de negócio do catálogo
type CatalogUseCase struct {
	repository Repository
	tracer     trace.Tracer
}

// NewCatalogUseCase cria uma nova instância de CatalogUseCase
func NewCatalogUseCase(repository Repository, tracer trace.Tracer) *CatalogUseCase {
	return &CatalogUseCase{
		repository: repository,
		tracer:     tracer,
	}
}

// ListProducts monta a listagem com o acumulado por produto e os totais gerais
func (uc *CatalogUseCase) ListProducts(ctx context.Context) (*Catalog, error) {
	ctx, span := uc.tracer.Start(ctx, "catalog.list_products")
	defer span.End()

	summaries, err := uc.repository.ListProductSummaries(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	totals, err := uc.repository.GetSalesTotals(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get sales totals: %w", err)
	}

	span.SetAttributes(attribute.Int("products", len(summaries)))
	return &Catalog{Products: summaries, Totals: totals}, nil
}

// GetProduct busca um produto pelo ID
func (uc *CatalogUseCase) GetProduct(ctx context.Context, productID string) (*Product, error) {
	return uc.repository.GetProduct(ctx, productID)
}

// CreateProduct valida e persiste um novo produto
func (uc *CatalogUseCase) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	product := NewProduct(in.Name, in.Price, in.Stock)
	if err := product.Validate(); err != nil {
		return nil, err
	}

	ctx, span := startProductSpan(ctx, uc.tracer, "catalog.create_product", product.ID)
	defer span.End()

	if err := uc.repository.CreateProduct(ctx, product); err != nil {
		span.RecordError(err)
		log.Printf("❌ [CREATE PRODUCT] Name=%q Failed: %v", product.Name, err)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	log.Printf("✅ [CREATE PRODUCT] ProductID=%s Name=%q Price=%d Stock=%d",
		product.ID, product.Name, product.Price, product.Stock)
	return product, nil
}

// UpdateProduct edita um produto existente. Vendas já registradas mantêm o preço capturado.
func (uc *CatalogUseCase) UpdateProduct(ctx context.Context, productID string, in ProductInput) (*Product, error) {
	ctx, span := startProductSpan(ctx, uc.tracer, "catalog.update_product", productID)
	defer span.End()

	product, err := uc.repository.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	product.Name = strings.TrimSpace(in.Name)
	product.Price = in.Price
	product.Stock = in.Stock
	product.UpdatedAt = time.Now()
	if err := product.Validate(); err != nil {
		return nil, err
	}

	if err := uc.repository.UpdateProduct(ctx, product); err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, err
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	log.Printf("✅ [UPDATE PRODUCT] ProductID=%s Price=%d Stock=%d", product.ID, product.Price, product.Stock)
	return product, nil
}

// DeleteProduct remove o produto e todas as suas vendas na mesma transação
func (uc *CatalogUseCase) DeleteProduct(ctx context.Context, productID string) (int64, error) {
	ctx, span := startProductSpan(ctx, uc.tracer, "catalog.delete_product", productID)
	defer span.End()

	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := uc.repository.GetProductForUpdate(ctx, tx, productID); err != nil {
		return 0, err
	}

	deletedSales, err := uc.repository.DeleteSalesByProduct(ctx, tx, productID)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	if err := uc.repository.DeleteProduct(ctx, tx, productID); err != nil {
		span.RecordError(err)
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to commit delete: %w", err)
	}

	span.SetAttributes(attribute.Int64("deleted_sales", deletedSales))
	log.Printf("🗑️ [DELETE PRODUCT] ProductID=%s DeletedSales=%d", productID, deletedSales)
	return deletedSales, nil
}

// ListSales retorna o histórico de vendas de um produto existente
func (uc *CatalogUseCase) ListSales(ctx context.Context, productID string) ([]*Sale, error) {
	if _, err := uc.repository.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	return uc.repository.ListSalesByProduct(ctx, productID)
}

// SalesUseCase contém o registro de vendas em lote
type SalesUseCase struct {
	repository Repository
	tracer     trace.Tracer
	metrics    *SalesMetrics
}

// NewSalesUseCase cria uma nova instância de SalesUseCase
func NewSalesUseCase(repository Repository, tracer trace.Tracer, metrics *SalesMetrics) *SalesUseCase {
	return &SalesUseCase{
		repository: repository,
		tracer:     tracer,
		metrics:    metrics,
	}
}

// RegisterSales percorre todo o catálogo e registra uma venda para cada produto
// com quantidade válida. Entradas ausentes, vazias, não numéricas ou <= 0 são
// ignoradas. Quantidades acima do estoque são reduzidas ao estoque disponível.
//
// Cada produto roda na própria transação: um erro de banco interrompe o lote,
// mas os produtos já confirmados continuam confirmados.
func (uc *SalesUseCase) RegisterSales(ctx context.Context, quantities map[string]string) (*RegistrationResult, error) {
	ctx, span := uc.tracer.Start(ctx, "sales.register_batch")
	defer span.End()

	products, err := uc.repository.ListProducts(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	result := &RegistrationResult{}
	for _, p := range products {
		raw, ok := quantities[p.ID]
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}

		requested, ok := parseQuantity(raw)
		if !ok || requested <= 0 {
			result.Skipped++
			continue
		}

		sale, clamped, err := uc.registerProductSale(ctx, p.ID, requested)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "sale registration failed")
			return result, err
		}
		if sale == nil {
			result.Skipped++
			continue
		}

		result.Sales = append(result.Sales, sale)
		if clamped {
			result.Clamped++
		}
	}

	span.SetAttributes(
		attribute.Int("sales", len(result.Sales)),
		attribute.Int("clamped", result.Clamped),
		attribute.Int("skipped", result.Skipped),
	)
	log.Printf("✅ [REGISTER SALES] Sales=%d Units=%d Clamped=%d Skipped=%d",
		len(result.Sales), result.UnitsSold(), result.Clamped, result.Skipped)
	return result, nil
}

// registerProductSale faz o ciclo ler-limitar-gravar de um produto sob lock pessimista.
// Retorna sale nil quando nada foi vendido.
func (uc *SalesUseCase) registerProductSale(ctx context.Context, productID string, requested int) (*Sale, bool, error) {
	ctx, span := startProductSpan(ctx, uc.tracer, "sales.register_product", productID)
	defer span.End()
	span.SetAttributes(attribute.Int("requested", requested))

	// 1. Inicia a transação
	tx, err := uc.repository.BeginTx(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 2. Obtém o produto com LOCK PESSIMISTA (SELECT FOR UPDATE)
	product, err := uc.repository.GetProductForUpdate(ctx, tx, productID)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			// removido depois da listagem
			log.Printf("ℹ️ [REGISTER SALE] ProductID=%s no longer exists, skipping", productID)
			return nil, false, nil
		}
		log.Printf("❌ [REGISTER SALE] GetProductForUpdate | ProductID=%s | Error=%v", productID, err)
		return nil, false, err
	}

	// 3. Limita ao estoque disponível
	quantity := product.ClampQuantity(requested)
	if quantity <= 0 {
		return nil, false, nil
	}
	clamped := quantity < requested

	// 4. Cria a venda com o preço atual e baixa o estoque
	sale := NewSale(product, quantity)
	if err := uc.repository.CreateSale(ctx, tx, sale); err != nil {
		log.Printf("❌ [REGISTER SALE] ProductID=%s Failed to insert sale: %v", productID, err)
		return nil, false, err
	}
	if err := uc.repository.DecreaseStock(ctx, tx, productID, quantity); err != nil {
		log.Printf("❌ [REGISTER SALE] ProductID=%s Failed to decrease stock: %v", productID, err)
		return nil, false, err
	}

	// 5. Commit da transação
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit sale: %w", err)
	}

	uc.metrics.recordSale(ctx, sale, clamped)
	span.SetAttributes(
		attribute.Int("quantity", quantity),
		attribute.Bool("clamped", clamped),
		attribute.String("total_price", FormatMoney(sale.TotalPrice)),
	)
	return sale, clamped, nil
}

// parseQuantity interpreta a quantidade como inteiro base 10.
// Valores positivos grandes demais para int viram math.MaxInt e acabam limitados ao estoque.
func parseQuantity(raw string) (int, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, strconv.IntSize)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) && n > 0 {
			return math.MaxInt, true
		}
		return 0, false
	}
	return int(n), true
}
