package main

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

var (
	errTxClosed = errors.New("transaction already closed")
	// errProductHasSales espelha a foreign key de sales.product_id
	errProductHasSales = errors.New("product still has sales")
)

// MemoryRepository implementa Repository em memória. Usado em testes e com STORAGE_DRIVER=memory.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[string]*Product
	order    map[string]uint64
	sales    []*Sale
	seq      uint64
}

// NewMemoryRepository cria uma nova instância de MemoryRepository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		products: make(map[string]*Product),
		order:    make(map[string]uint64),
	}
}

// memoryTx segura o lock de escrita até Commit ou Rollback.
// As escritas são aplicadas na hora e desfeitas no Rollback.
type memoryTx struct {
	repo *MemoryRepository
	undo []func()
	done bool
}

func (t *memoryTx) Commit() error {
	if t.done {
		return errTxClosed
	}
	t.done = true
	t.undo = nil
	t.repo.mu.Unlock()
	return nil
}

func (t *memoryTx) Rollback() error {
	if t.done {
		return errTxClosed
	}
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.done = true
	t.undo = nil
	t.repo.mu.Unlock()
	return nil
}

// BeginTx inicia uma nova transação
func (r *MemoryRepository) BeginTx(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	return &memoryTx{repo: r}, nil
}

func (r *MemoryRepository) openTx(tx Tx) (*memoryTx, error) {
	mtx := tx.(*memoryTx)
	if mtx.done {
		return nil, errTxClosed
	}
	return mtx, nil
}

// sortedProducts devolve os produtos do mais novo para o mais antigo. Exige o lock.
func (r *MemoryRepository) sortedProducts() []*Product {
	products := make([]*Product, 0, len(r.products))
	for _, p := range r.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		return r.order[products[i].ID] > r.order[products[j].ID]
	})
	return products
}

func (r *MemoryRepository) ListProducts(ctx context.Context) ([]*Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var products []*Product
	for _, p := range r.sortedProducts() {
		cp := *p
		products = append(products, &cp)
	}
	return products, nil
}

func (r *MemoryRepository) GetProduct(ctx context.Context, productID string) (*Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[productID]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryRepository) CreateProduct(ctx context.Context, product *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *product
	r.seq++
	r.products[cp.ID] = &cp
	r.order[cp.ID] = r.seq
	return nil
}

func (r *MemoryRepository) UpdateProduct(ctx context.Context, product *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[product.ID]
	if !ok {
		return ErrProductNotFound
	}
	p.Name = product.Name
	p.Price = product.Price
	p.Stock = product.Stock
	p.UpdatedAt = product.UpdatedAt
	return nil
}

func (r *MemoryRepository) ListProductSummaries(ctx context.Context) ([]*ProductSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	quantities := make(map[string]int64)
	amounts := make(map[string]decimal.Decimal)
	for _, s := range r.sales {
		quantities[s.ProductID] += int64(s.Quantity)
		amounts[s.ProductID] = amounts[s.ProductID].Add(s.TotalPrice)
	}

	var summaries []*ProductSummary
	for _, p := range r.sortedProducts() {
		summaries = append(summaries, &ProductSummary{
			Product:      *p,
			SoldQuantity: quantities[p.ID],
			SoldAmount:   amounts[p.ID],
		})
	}
	return summaries, nil
}

func (r *MemoryRepository) GetSalesTotals(ctx context.Context) (SalesTotals, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var totals SalesTotals
	for _, s := range r.sales {
		totals.Quantity += int64(s.Quantity)
		totals.Amount = totals.Amount.Add(s.TotalPrice)
	}
	return totals, nil
}

func (r *MemoryRepository) ListSalesByProduct(ctx context.Context, productID string) ([]*Sale, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sales []*Sale
	for i := len(r.sales) - 1; i >= 0; i-- {
		if r.sales[i].ProductID == productID {
			cp := *r.sales[i]
			sales = append(sales, &cp)
		}
	}
	return sales, nil
}

func (r *MemoryRepository) GetProductForUpdate(ctx context.Context, tx Tx, productID string) (*Product, error) {
	if _, err := r.openTx(tx); err != nil {
		return nil, err
	}
	p, ok := r.products[productID]
	if !ok {
		return nil, ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryRepository) CreateSale(ctx context.Context, tx Tx, sale *Sale) error {
	mtx, err := r.openTx(tx)
	if err != nil {
		return err
	}
	if _, ok := r.products[sale.ProductID]; !ok {
		return ErrProductNotFound
	}

	cp := *sale
	r.sales = append(r.sales, &cp)
	mtx.undo = append(mtx.undo, func() {
		r.sales = r.sales[:len(r.sales)-1]
	})
	return nil
}

func (r *MemoryRepository) DecreaseStock(ctx context.Context, tx Tx, productID string, quantity int) error {
	mtx, err := r.openTx(tx)
	if err != nil {
		return err
	}
	p, ok := r.products[productID]
	if !ok {
		return ErrProductNotFound
	}

	previous := *p
	p.Stock -= quantity
	p.UpdatedAt = time.Now()
	mtx.undo = append(mtx.undo, func() {
		*p = previous
	})
	return nil
}

func (r *MemoryRepository) DeleteSalesByProduct(ctx context.Context, tx Tx, productID string) (int64, error) {
	mtx, err := r.openTx(tx)
	if err != nil {
		return 0, err
	}

	previous := r.sales
	kept := make([]*Sale, 0, len(r.sales))
	var deleted int64
	for _, s := range r.sales {
		if s.ProductID == productID {
			deleted++
			continue
		}
		kept = append(kept, s)
	}
	r.sales = kept
	mtx.undo = append(mtx.undo, func() {
		r.sales = previous
	})
	return deleted, nil
}

func (r *MemoryRepository) DeleteProduct(ctx context.Context, tx Tx, productID string) error {
	mtx, err := r.openTx(tx)
	if err != nil {
		return err
	}
	p, ok := r.products[productID]
	if !ok {
		return ErrProductNotFound
	}
	for _, s := range r.sales {
		if s.ProductID == productID {
			return errProductHasSales
		}
	}

	seq := r.order[productID]
	delete(r.products, productID)
	delete(r.order, productID)
	mtx.undo = append(mtx.undo, func() {
		r.products[productID] = p
		r.order[productID] = seq
	})
	return nil
}
