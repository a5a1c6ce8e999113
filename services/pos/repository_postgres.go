package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresRepository implementa Repository usando PostgreSQL
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository cria uma nova instância de PostgresRepository
func NewPostgresRepository(db *pgxpool.Pool) Repository {
	return &PostgresRepository{
		db: db,
	}
}

// PostgresTx implementa a interface Tx
type PostgresTx struct {
	tx pgx.Tx
}

func (t *PostgresTx) Commit() error {
	return t.tx.Commit(context.Background())
}

func (t *PostgresTx) Rollback() error {
	return t.tx.Rollback(context.Background())
}

// BeginTx inicia uma nova transação
func (r *PostgresRepository) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &PostgresTx{tx: tx}, nil
}

const productColumns = `id, name, price, stock, created_at, updated_at`

// validID evita que um ID malformado vire erro de cast no banco
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

// ListProducts lista todos os produtos, mais novos primeiro
func (r *PostgresRepository) ListProducts(ctx context.Context) ([]*Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetProduct busca um produto pelo ID
func (r *PostgresRepository) GetProduct(ctx context.Context, productID string) (*Product, error) {
	if !validID(productID) {
		return nil, ErrProductNotFound
	}
	return scanProduct(r.db.QueryRow(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
	`, productID))
}

// CreateProduct insere um novo produto
func (r *PostgresRepository) CreateProduct(ctx context.Context, product *Product) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO products (id, name, price, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, product.ID, product.Name, product.Price, product.Stock, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// UpdateProduct atualiza nome, preço e estoque de um produto
func (r *PostgresRepository) UpdateProduct(ctx context.Context, product *Product) error {
	if !validID(product.ID) {
		return ErrProductNotFound
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET name = $1, price = $2, stock = $3, updated_at = $4
		WHERE id = $5
	`, product.Name, product.Price, product.Stock, product.UpdatedAt, product.ID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// ListProductSummaries agrega as vendas por produto. Produtos sem vendas somam zero.
func (r *PostgresRepository) ListProductSummaries(ctx context.Context) ([]*ProductSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.id, p.name, p.price, p.stock, p.created_at, p.updated_at,
		       COALESCE(SUM(s.quantity), 0) AS sold_quantity,
		       COALESCE(SUM(s.total_price), 0)::text AS sold_amount
		FROM products p
		LEFT JOIN sales s ON s.product_id = p.id
		GROUP BY p.id
		ORDER BY p.created_at DESC, p.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list product summaries: %w", err)
	}
	defer rows.Close()

	var summaries []*ProductSummary
	for rows.Next() {
		var (
			s      ProductSummary
			amount string
		)
		err := rows.Scan(
			&s.ID,
			&s.Name,
			&s.Price,
			&s.Stock,
			&s.CreatedAt,
			&s.UpdatedAt,
			&s.SoldQuantity,
			&amount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product summary: %w", err)
		}
		if s.SoldAmount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("invalid sold amount %q: %w", amount, err)
		}
		summaries = append(summaries, &s)
	}
	return summaries, rows.Err()
}

// GetSalesTotals soma quantidade e valor de todas as vendas
func (r *PostgresRepository) GetSalesTotals(ctx context.Context) (SalesTotals, error) {
	var (
		totals SalesTotals
		amount string
	)
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0), COALESCE(SUM(total_price), 0)::text
		FROM sales
	`).Scan(&totals.Quantity, &amount)
	if err != nil {
		return SalesTotals{}, fmt.Errorf("failed to aggregate sales: %w", err)
	}

	totals.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return SalesTotals{}, fmt.Errorf("invalid total amount %q: %w", amount, err)
	}
	return totals, nil
}

// ListSalesByProduct retorna o histórico de vendas de um produto
func (r *PostgresRepository) ListSalesByProduct(ctx context.Context, productID string) ([]*Sale, error) {
	if !validID(productID) {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, quantity, unit_price::text, total_price::text, created_at
		FROM sales
		WHERE product_id = $1
		ORDER BY created_at DESC, id DESC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	var sales []*Sale
	for rows.Next() {
		var (
			s           Sale
			unit, total string
		)
		if err := rows.Scan(&s.ID, &s.ProductID, &s.Quantity, &unit, &total, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		if s.UnitPrice, err = decimal.NewFromString(unit); err != nil {
			return nil, fmt.Errorf("invalid unit price %q: %w", unit, err)
		}
		if s.TotalPrice, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("invalid total price %q: %w", total, err)
		}
		sales = append(sales, &s)
	}
	return sales, rows.Err()
}

// GetProductForUpdate obtém o produto com lock pessimista (FOR UPDATE)
func (r *PostgresRepository) GetProductForUpdate(ctx context.Context, tx Tx, productID string) (*Product, error) {
	pgTx := tx.(*PostgresTx).tx
	if !validID(productID) {
		return nil, ErrProductNotFound
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = $1
		FOR UPDATE
	`

	product, err := scanProduct(pgTx.QueryRow(ctx, query, productID))
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get product with lock: %w", err)
	}
	return product, nil
}

// CreateSale insere o registro da venda
func (r *PostgresRepository) CreateSale(ctx context.Context, tx Tx, sale *Sale) error {
	pgTx := tx.(*PostgresTx).tx

	insertQuery := `
		INSERT INTO sales (id, product_id, quantity, unit_price, total_price, created_at)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6)
	`

	_, err := pgTx.Exec(ctx, insertQuery,
		sale.ID,
		sale.ProductID,
		sale.Quantity,
		FormatMoney(sale.UnitPrice),
		FormatMoney(sale.TotalPrice),
		sale.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sale record: %w", err)
	}
	return nil
}

// DecreaseStock diminui o estoque do produto
func (r *PostgresRepository) DecreaseStock(ctx context.Context, tx Tx, productID string, quantity int) error {
	pgTx := tx.(*PostgresTx).tx

	updateQuery := `
		UPDATE products
		SET stock = stock - $1,
		    updated_at = NOW()
		WHERE id = $2
	`

	tag, err := pgTx.Exec(ctx, updateQuery, quantity, productID)
	if err != nil {
		return fmt.Errorf("failed to decrease stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// DeleteSalesByProduct remove todas as vendas de um produto
func (r *PostgresRepository) DeleteSalesByProduct(ctx context.Context, tx Tx, productID string) (int64, error) {
	pgTx := tx.(*PostgresTx).tx

	tag, err := pgTx.Exec(ctx, `DELETE FROM sales WHERE product_id = $1`, productID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete sales: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteProduct remove o produto
func (r *PostgresRepository) DeleteProduct(ctx context.Context, tx Tx, productID string) error {
	pgTx := tx.(*PostgresTx).tx

	tag, err := pgTx.Exec(ctx, `DELETE FROM products WHERE id = $1`, productID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}
