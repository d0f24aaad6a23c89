package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/cinepos/internal/dbx"
	"github.com/dmitrijs2005/cinepos/internal/locks"
	"github.com/dmitrijs2005/cinepos/internal/models"
	"github.com/dmitrijs2005/cinepos/internal/repositories/products"
	"github.com/dmitrijs2005/cinepos/internal/repositories/repomanager"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// failingProducts makes every product version insert fail.
type failingProducts struct {
	products.Repository
	err error
}

func (f failingProducts) Insert(context.Context, *models.Product) error {
	return f.err
}

// faultyManager wraps the real manager and can break product writes.
type faultyManager struct {
	repomanager.RepositoryManager
	productInsertErr error
}

func (m *faultyManager) Products(db dbx.DBTX) products.Repository {
	r := m.RepositoryManager.Products(db)
	if m.productInsertErr != nil {
		return failingProducts{Repository: r, err: m.productInsertErr}
	}
	return r
}

type testEnv struct {
	db       *sql.DB
	rm       *faultyManager
	clock    *testClock
	seats    *SeatService
	products *ProductService
	accounts *AccountService
	sales    *SaleService
}

var day0 = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	base, err := repomanager.NewSQLRepositoryManager(dbx.DialectSQLite)
	require.NoError(t, err)
	require.NoError(t, base.RunMigrations(ctx, db))

	rm := &faultyManager{RepositoryManager: base}
	clock := &testClock{now: day0}

	all := append([]Option{WithLocker(locks.NewKeyedMutex()), WithClock(clock.Now)}, opts...)

	seats := NewSeatService(db, rm, all...)
	productsSvc := NewProductService(db, rm, all...)
	accounts := NewAccountService(db, rm, all...)

	return &testEnv{
		db:       db,
		rm:       rm,
		clock:    clock,
		seats:    seats,
		products: productsSvc,
		accounts: accounts,
		sales:    NewSaleService(seats, productsSvc, accounts),
	}
}

func (e *testEnv) grid(t *testing.T) {
	t.Helper()
	n, err := e.seats.EnsureGrid(context.Background())
	require.NoError(t, err)
	require.Equal(t, 35, n)
}

func (e *testEnv) product(t *testing.T, name string, price int64, stock int) *models.Product {
	t.Helper()
	p, err := e.products.Save(context.Background(), models.Product{
		Name:  name,
		Price: decimal.NewFromInt(price),
		Stock: stock,
		Kind:  models.ProductFood,
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) account(t *testing.T, id string) *models.Account {
	t.Helper()
	a, err := e.accounts.Create(context.Background(), id)
	require.NoError(t, err)
	return a
}

func (e *testEnv) stock(t *testing.T, productID string) int {
	t.Helper()
	p, err := e.products.FindByID(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func (e *testEnv) occupancy(t *testing.T, seatID string) models.Occupancy {
	t.Helper()
	s, err := e.seats.FindByID(context.Background(), seatID)
	require.NoError(t, err)
	return s.Occupancy
}
