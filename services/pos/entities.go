package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidProduct  = errors.New("invalid product")
)

// Limites herdados dos tipos de coluna (SMALLINT para preço, INTEGER para estoque)
const (
	MaxProductNameLength = 100
	MinProductPrice      = -32768
	MaxProductPrice      = 32767
	MaxProductStock      = 2147483647

	moneyPlaces = 2
)

// Product representa um item do catálogo
type Product struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Price     int       `json:"price" db:"price"`
	Stock     int       `json:"stock" db:"stock"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewProduct cria uma nova instância de Product
func NewProduct(name string, price, stock int) *Product {
	now := time.Now()
	return &Product{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		Price:     price,
		Stock:     stock,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate verifica os limites de nome, preço e estoque
func (p *Product) Validate() error {
	fields := make(map[string]string)

	switch {
	case strings.TrimSpace(p.Name) == "":
		fields["name"] = "this field is required"
	case utf8.RuneCountInString(p.Name) > MaxProductNameLength:
		fields["name"] = fmt.Sprintf("ensure this value has at most %d characters", MaxProductNameLength)
	}

	if p.Price < MinProductPrice || p.Price > MaxProductPrice {
		fields["price"] = fmt.Sprintf("ensure this value is between %d and %d", MinProductPrice, MaxProductPrice)
	}

	switch {
	case p.Stock < 0:
		fields["stock"] = "ensure this value is greater than or equal to 0"
	case p.Stock > MaxProductStock:
		fields["stock"] = fmt.Sprintf("ensure this value is less than or equal to %d", MaxProductStock)
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ClampQuantity limita a quantidade pedida ao estoque disponível
func (p *Product) ClampQuantity(requested int) int {
	if requested > p.Stock {
		return p.Stock
	}
	return requested
}

// UnitPrice converte o preço inteiro do produto em valor monetário com 2 casas
func (p *Product) UnitPrice() decimal.Decimal {
	return decimal.NewFromInt(int64(p.Price)).Round(moneyPlaces)
}

// Sale representa uma venda registrada. É imutável depois de criada.
type Sale struct {
	ID         string          `json:"id" db:"id"`
	ProductID  string          `json:"product_id" db:"product_id"`
	Quantity   int             `json:"quantity" db:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price" db:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price" db:"total_price"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// NewSale cria uma venda capturando o preço atual do produto
func NewSale(product *Product, quantity int) *Sale {
	unitPrice := product.UnitPrice()
	return &Sale{
		ID:         uuid.New().String(),
		ProductID:  product.ID,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		TotalPrice: unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(moneyPlaces),
		CreatedAt:  time.Now(),
	}
}

// ProductSummary é um produto com o acumulado das suas vendas
type ProductSummary struct {
	Product
	SoldQuantity int64           `json:"sold_quantity" db:"sold_quantity"`
	SoldAmount   decimal.Decimal `json:"sold_amount" db:"sold_amount"`
}

// SalesTotals agrega todas as vendas do sistema
type SalesTotals struct {
	Quantity int64           `json:"total_quantity"`
	Amount   decimal.Decimal `json:"total_amount"`
}

// Catalog é a listagem completa exibida na tela de produtos
type Catalog struct {
	Products []*ProductSummary
	Totals   SalesTotals
}

// RegistrationResult resume um lote de vendas
type RegistrationResult struct {
	Sales   []*Sale
	Clamped int
	Skipped int
}

// UnitsSold soma as quantidades vendidas no lote
func (r *RegistrationResult) UnitsSold() int {
	total := 0
	for _, s := range r.Sales {
		total += s.Quantity
	}
	return total
}

// ValidationError carrega as mensagens por campo de um produto inválido
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrInvalidProduct, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidProduct
}

// FormatMoney formata valores monetários sempre com 2 casas decimais
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(moneyPlaces)
}
