package main

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type productResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Price        int    `json:"price"`
	Stock        int    `json:"stock"`
	SoldQuantity int64  `json:"sold_quantity"`
	SoldAmount   string `json:"sold_amount"`
}

type catalogResponse struct {
	Products      []productResponse `json:"products"`
	TotalQuantity int64             `json:"total_quantity"`
	TotalAmount   string            `json:"total_amount"`
}

type saleResponse struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"product_id"`
	Quantity   int       `json:"quantity"`
	UnitPrice  string    `json:"unit_price"`
	TotalPrice string    `json:"total_price"`
	CreatedAt  time.Time `json:"created_at"`
}

type registrationResponse struct {
	Sales     []saleResponse `json:"sales"`
	UnitsSold int            `json:"units_sold"`
	Clamped   int            `json:"clamped"`
	Skipped   int            `json:"skipped"`
}

func newProductResponse(p *Product) productResponse {
	return productResponse{ID: p.ID, Name: p.Name, Price: p.Price, Stock: p.Stock, SoldAmount: FormatMoney(decimal.Zero)}
}

func newSaleResponse(s *Sale) saleResponse {
	return saleResponse{
		ID:         s.ID,
		ProductID:  s.ProductID,
		Quantity:   s.Quantity,
		UnitPrice:  FormatMoney(s.UnitPrice),
		TotalPrice: FormatMoney(s.TotalPrice),
		CreatedAt:  s.CreatedAt,
	}
}

func newSaleResponses(sales []*Sale) []saleResponse {
	out := make([]saleResponse, 0, len(sales))
	for _, s := range sales {
		out = append(out, newSaleResponse(s))
	}
	return out
}

// APIHandler contém os handlers JSON
type APIHandler struct {
	catalog     *CatalogUseCase
	sales       *SalesUseCase
	tracer      trace.Tracer
	serviceName string
}

// NewAPIHandler cria uma nova instância de APIHandler
func NewAPIHandler(catalog *CatalogUseCase, sales *SalesUseCase, tracer trace.Tracer, serviceName string) *APIHandler {
	return &APIHandler{
		catalog:     catalog,
		sales:       sales,
		tracer:      tracer,
		serviceName: serviceName,
	}
}

// ListProducts retorna a listagem com os totais
func (h *APIHandler) ListProducts(c *gin.Context) {
	catalog, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := catalogResponse{
		Products:      make([]productResponse, 0, len(catalog.Products)),
		TotalQuantity: catalog.Totals.Quantity,
		TotalAmount:   FormatMoney(catalog.Totals.Amount),
	}
	for _, p := range catalog.Products {
		item := newProductResponse(&p.Product)
		item.SoldQuantity = p.SoldQuantity
		item.SoldAmount = FormatMoney(p.SoldAmount)
		resp.Products = append(resp.Products, item)
	}

	c.JSON(http.StatusOK, resp)
}

// CreateProduct cria um produto a partir do JSON
func (h *APIHandler) CreateProduct(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "create_product")
	defer span.End()

	var req ProductPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fieldErrors(err)})
		return
	}

	product, err := h.catalog.CreateProduct(ctx, req.ToInput())
	if err != nil {
		span.RecordError(err)
		h.writeError(c, err)
		return
	}

	span.SetAttributes(attribute.String("product_id", product.ID))
	c.JSON(http.StatusCreated, newProductResponse(product))
}

// UpdateProduct edita nome, preço e estoque de um produto
func (h *APIHandler) UpdateProduct(c *gin.Context) {
	productID := c.Param("id")
	ctx, span := startProductSpan(c.Request.Context(), h.tracer, "update_product", productID)
	defer span.End()

	var req ProductPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fieldErrors(err)})
		return
	}

	product, err := h.catalog.UpdateProduct(ctx, productID, req.ToInput())
	if err != nil {
		span.RecordError(err)
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newProductResponse(product))
}

// DeleteProduct remove o produto e as vendas dele
func (h *APIHandler) DeleteProduct(c *gin.Context) {
	productID := c.Param("id")
	ctx, span := startProductSpan(c.Request.Context(), h.tracer, "delete_product", productID)
	defer span.End()

	if _, err := h.catalog.DeleteProduct(ctx, productID); err != nil {
		span.RecordError(err)
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListSales retorna o histórico de vendas de um produto
func (h *APIHandler) ListSales(c *gin.Context) {
	sales, err := h.catalog.ListSales(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sales": newSaleResponses(sales)})
}

// RegisterSales registra um lote de vendas a partir do JSON
func (h *APIHandler) RegisterSales(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "register_sales")
	defer span.End()

	var req RegisterSalesPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		span.RecordError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	span.SetAttributes(attribute.Int("submitted", len(req.Quantities)))

	result, err := h.sales.RegisterSales(ctx, req.Quantities)
	if err != nil {
		span.RecordError(err)
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, registrationResponse{
		Sales:     newSaleResponses(result.Sales),
		UnitsSold: result.UnitsSold(),
		Clamped:   result.Clamped,
		Skipped:   result.Skipped,
	})
}

// HealthCheck verifica a saúde do serviço
func (h *APIHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.serviceName,
	})
}

func (h *APIHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": ErrProductNotFound.Error()})
	case errors.Is(err, ErrInvalidProduct):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fieldErrors(err)})
	default:
		log.Printf("❌ [%s %s] %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
