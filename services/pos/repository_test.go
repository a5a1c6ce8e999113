package main

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.opentelemetry.io/otel/trace/noop"
)

// MockRepository para testes que não precisam de banco real
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) BeginTx(ctx context.Context) (Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Tx), args.Error(1)
}

func (m *MockRepository) ListProducts(ctx context.Context) ([]*Product, error) {
	args := m.Called(ctx)
	products, _ := args.Get(0).([]*Product)
	return products, args.Error(1)
}

func (m *MockRepository) GetProduct(ctx context.Context, productID string) (*Product, error) {
	args := m.Called(ctx, productID)
	product, _ := args.Get(0).(*Product)
	return product, args.Error(1)
}

func (m *MockRepository) CreateProduct(ctx context.Context, product *Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockRepository) UpdateProduct(ctx context.Context, product *Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockRepository) ListProductSummaries(ctx context.Context) ([]*ProductSummary, error) {
	args := m.Called(ctx)
	summaries, _ := args.Get(0).([]*ProductSummary)
	return summaries, args.Error(1)
}

func (m *MockRepository) GetSalesTotals(ctx context.Context) (SalesTotals, error) {
	args := m.Called(ctx)
	return args.Get(0).(SalesTotals), args.Error(1)
}

func (m *MockRepository) ListSalesByProduct(ctx context.Context, productID string) ([]*Sale, error) {
	args := m.Called(ctx, productID)
	sales, _ := args.Get(0).([]*Sale)
	return sales, args.Error(1)
}

func (m *MockRepository) GetProductForUpdate(ctx context.Context, tx Tx, productID string) (*Product, error) {
	args := m.Called(ctx, tx, productID)
	product, _ := args.Get(0).(*Product)
	return product, args.Error(1)
}

func (m *MockRepository) CreateSale(ctx context.Context, tx Tx, sale *Sale) error {
	args := m.Called(ctx, tx, sale)
	return args.Error(0)
}

func (m *MockRepository) DecreaseStock(ctx context.Context, tx Tx, productID string, quantity int) error {
	args := m.Called(ctx, tx, productID, quantity)
	return args.Error(0)
}

func (m *MockRepository) DeleteSalesByProduct(ctx context.Context, tx Tx, productID string) (int64, error) {
	args := m.Called(ctx, tx, productID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) DeleteProduct(ctx context.Context, tx Tx, productID string) error {
	args := m.Called(ctx, tx, productID)
	return args.Error(0)
}

// MockTx simula uma transação
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func TestNewPostgresRepository(t *testing.T) {
	// Arrange
	var db *pgxpool.Pool // Mock pool

	// Act
	repo := NewPostgresRepository(db)

	// Assert
	assert.NotNil(t, repo)
	assert.IsType(t, &PostgresRepository{}, repo)
}

func TestRegisterProductSale_LocksClampsAndCommits(t *testing.T) {
	// Arrange
	mockRepo := new(MockRepository)
	mockTx := new(MockTx)
	ctx := mock.Anything
	product := &Product{ID: "product-1", Name: "Widget", Price: 5, Stock: 7}

	mockRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockRepo.On("GetProductForUpdate", ctx, mockTx, product.ID).Return(product, nil)
	mockRepo.On("CreateSale", ctx, mockTx, mock.MatchedBy(func(s *Sale) bool {
		return s.ProductID == product.ID && s.Quantity == 7 && FormatMoney(s.TotalPrice) == "35.00"
	})).Return(nil)
	mockRepo.On("DecreaseStock", ctx, mockTx, product.ID, 7).Return(nil)
	mockTx.On("Commit").Return(nil)
	mockTx.On("Rollback").Return(nil)

	uc := NewSalesUseCase(mockRepo, noop.NewTracerProvider().Tracer("test"), nil)

	// Act
	sale, clamped, err := uc.registerProductSale(context.Background(), product.ID, 20)

	// Assert
	assert.NoError(t, err)
	assert.True(t, clamped)
	assert.Equal(t, 7, sale.Quantity)
	mockRepo.AssertExpectations(t)
	mockTx.AssertExpectations(t)
}

func TestRegisterProductSale_DecreaseStockFailureRollsBack(t *testing.T) {
	// Arrange
	mockRepo := new(MockRepository)
	mockTx := new(MockTx)
	ctx := mock.Anything
	product := &Product{ID: "product-1", Name: "Widget", Price: 5, Stock: 7}
	dbErr := errors.New("connection reset")

	mockRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockRepo.On("GetProductForUpdate", ctx, mockTx, product.ID).Return(product, nil)
	mockRepo.On("CreateSale", ctx, mockTx, mock.Anything).Return(nil)
	mockRepo.On("DecreaseStock", ctx, mockTx, product.ID, 2).Return(dbErr)
	mockTx.On("Rollback").Return(nil)

	uc := NewSalesUseCase(mockRepo, noop.NewTracerProvider().Tracer("test"), nil)

	// Act
	sale, _, err := uc.registerProductSale(context.Background(), product.ID, 2)

	// Assert
	assert.ErrorIs(t, err, dbErr)
	assert.Nil(t, sale)
	mockTx.AssertNotCalled(t, "Commit")
	mockTx.AssertExpectations(t)
}

func TestRegisterProductSale_ProductDeletedMeanwhile(t *testing.T) {
	mockRepo := new(MockRepository)
	mockTx := new(MockTx)
	ctx := mock.Anything

	mockRepo.On("BeginTx", ctx).Return(mockTx, nil)
	mockRepo.On("GetProductForUpdate", ctx, mockTx, "gone").Return(nil, ErrProductNotFound)
	mockTx.On("Rollback").Return(nil)

	uc := NewSalesUseCase(mockRepo, noop.NewTracerProvider().Tracer("test"), nil)

	sale, clamped, err := uc.registerProductSale(context.Background(), "gone", 2)

	assert.NoError(t, err)
	assert.Nil(t, sale)
	assert.False(t, clamped)
	mockRepo.AssertNotCalled(t, "CreateSale", mock.Anything, mock.Anything, mock.Anything)
}

func TestListProducts_SummaryError(t *testing.T) {
	mockRepo := new(MockRepository)
	dbErr := errors.New("timeout")
	mockRepo.On("ListProductSummaries", mock.Anything).Return(nil, dbErr)

	uc := NewCatalogUseCase(mockRepo, noop.NewTracerProvider().Tracer("test"))

	catalog, err := uc.ListProducts(context.Background())

	assert.Nil(t, catalog)
	assert.ErrorIs(t, err, dbErr)
	mockRepo.AssertNotCalled(t, "GetSalesTotals", mock.Anything)
}

func TestValidID(t *testing.T) {
	assert.True(t, validID(NewProduct("Widget", 1, 1).ID))
	assert.False(t, validID("missing"))
	assert.False(t, validID(""))
}
