package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acmecommerce/shopflow/internal/order/domain"
	productdomain "github.com/acmecommerce/shopflow/internal/product/domain"
	"github.com/acmecommerce/shopflow/pkg/apperror"
)

// fakeStore implements UnitOfWork and Repository with commit/rollback
// semantics: mutations made through a Tx become visible only when the
// transaction function returns nil.
type fakeStore struct {
	mu          sync.Mutex
	products    map[int64]productdomain.Product
	orders      map[int64]domain.Order
	events      []stagedEvent
	nextOrderID int64
	failInsert  bool
}

type stagedEvent struct {
	aggregateID string
	eventType   string
	payload     []byte
}

func newFakeStore(products ...productdomain.Product) *fakeStore {
	s := &fakeStore{
		products:    map[int64]productdomain.Product{},
		orders:      map[int64]domain.Order{},
		nextOrderID: 1,
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

type fakeTx struct {
	store    *fakeStore
	products map[int64]productdomain.Product
	orders   []domain.Order
	events   []stagedEvent
}

func (s *fakeStore) Do(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &fakeTx{store: s, products: map[int64]productdomain.Product{}}
	if err := fn(tx); err != nil {
		return err // staged changes discarded
	}
	for id, p := range tx.products {
		s.products[id] = p
	}
	for _, o := range tx.orders {
		s.orders[o.ID] = o
	}
	s.events = append(s.events, tx.events...)
	return nil
}

func (tx *fakeTx) ProductForUpdate(ctx context.Context, productID int64) (productdomain.Product, error) {
	if p, ok := tx.products[productID]; ok {
		return p, nil
	}
	p, ok := tx.store.products[productID]
	if !ok {
		return productdomain.Product{}, apperror.NotFound("product not found with ID: %d", productID)
	}
	return p, nil
}

func (tx *fakeTx) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	p, err := tx.ProductForUpdate(ctx, productID)
	if err != nil {
		return err
	}
	if p.StockQuantity < quantity {
		return apperror.Invalid("insufficient stock. available: %d", p.StockQuantity)
	}
	p.StockQuantity -= quantity
	tx.products[productID] = p
	return nil
}

func (tx *fakeTx) InsertOrder(ctx context.Context, o *domain.Order) error {
	if tx.store.failInsert {
		return errors.New("store unavailable")
	}
	o.ID = tx.store.nextOrderID + int64(len(tx.orders))
	o.CreatedAt = time.Now().UTC()
	o.UpdatedAt = o.CreatedAt
	stored := *o
	stored.Product = nil
	tx.orders = append(tx.orders, stored)
	tx.store.nextOrderID++
	return nil
}

func (tx *fakeTx) AppendEvent(ctx context.Context, aggregateID, eventType string, payload []byte, traceparent string) error {
	tx.events = append(tx.events, stagedEvent{aggregateID: aggregateID, eventType: eventType, payload: payload})
	return nil
}

func (s *fakeStore) project(o domain.Order) domain.Order {
	if p, ok := s.products[o.ProductID]; ok {
		o.Product = &p
	}
	return o
}

func (s *fakeStore) GetByID(ctx context.Context, id int64) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, apperror.NotFound("order not found with ID: %d", id)
	}
	return s.project(o), nil
}

func (s *fakeStore) GetByOrderNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.OrderNumber == orderNumber {
			return s.project(o), nil
		}
	}
	return domain.Order{}, apperror.NotFound("order not found with order number: %s", orderNumber)
}

func (s *fakeStore) List(ctx context.Context) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, s.project(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) Page(ctx context.Context, q PageQuery) ([]domain.Order, int64, error) {
	all, _ := s.List(ctx)
	total := int64(len(all))
	start := q.Page * q.Size
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + q.Size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (s *fakeStore) PageByCustomer(ctx context.Context, email string, page, size int) ([]domain.Order, int64, error) {
	all, _ := s.List(ctx)
	var filtered []domain.Order
	for _, o := range all {
		if o.CustomerEmail == email {
			filtered = append(filtered, o)
		}
	}
	return filtered, int64(len(filtered)), nil
}

func (s *fakeStore) UpdateStatus(ctx context.Context, id int64, status domain.Status, traceparent string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, apperror.NotFound("order not found with ID: %d", id)
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	s.orders[id] = o
	s.events = append(s.events, stagedEvent{aggregateID: o.OrderNumber, eventType: domain.EventOrderStatusUpdated})
	return s.project(o), nil
}

func (s *fakeStore) Delete(ctx context.Context, id int64, traceparent string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return apperror.NotFound("order not found with ID: %d", id)
	}
	delete(s.orders, id)
	s.events = append(s.events, stagedEvent{aggregateID: o.OrderNumber, eventType: domain.EventOrderDeleted})
	return nil
}

func testProduct(id int64, price string, stock int) productdomain.Product {
	return productdomain.Product{
		ID:            id,
		Name:          "Widget",
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		Active:        true,
	}
}

func validInput(productID int64, qty int) domain.Input {
	return domain.Input{
		CustomerName:  "Jane Doe",
		CustomerEmail: "jane@example.com",
		ProductID:     productID,
		Quantity:      qty,
	}
}

func TestCreateOrderSuccess(t *testing.T) {
	store := newFakeStore(testProduct(1, "19.99", 5))
	svc := NewService(store, store)

	o, err := svc.Create(context.Background(), validInput(1, 3))
	require.NoError(t, err)

	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("59.97")), "got %s", o.TotalAmount)
	assert.Equal(t, domain.StatusPending, o.Status)
	require.NotNil(t, o.Product)
	assert.Equal(t, 2, o.Product.StockQuantity)
	assert.NotZero(t, o.ID)
	assert.NotEmpty(t, o.OrderNumber)

	// Committed state matches the returned projection.
	assert.Equal(t, 2, store.products[1].StockQuantity)
	got, err := svc.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalAmount.Equal(o.TotalAmount))

	require.Len(t, store.events, 1)
	assert.Equal(t, domain.EventOrderCreated, store.events[0].eventType)
	assert.Equal(t, o.OrderNumber, store.events[0].aggregateID)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	store := newFakeStore(testProduct(1, "10.00", 2))
	svc := NewService(store, store)

	_, err := svc.Create(context.Background(), validInput(1, 5))
	require.Error(t, err)
	assert.True(t, apperror.IsInvalid(err))
	assert.Contains(t, err.Error(), "insufficient stock")
	assert.Contains(t, err.Error(), "available: 2")

	assert.Equal(t, 2, store.products[1].StockQuantity)
	assert.Empty(t, store.orders)
	assert.Empty(t, store.events)
}

func TestCreateOrderProductNotFound(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, store)

	_, err := svc.Create(context.Background(), validInput(42, 1))
	assert.True(t, apperror.IsNotFound(err))
	assert.Empty(t, store.orders)
}

func TestCreateOrderInvalidInput(t *testing.T) {
	store := newFakeStore(testProduct(1, "10.00", 10))
	svc := NewService(store, store)

	in := validInput(1, 0)
	_, err := svc.Create(context.Background(), in)
	assert.True(t, apperror.IsInvalid(err))
	assert.Equal(t, 10, store.products[1].StockQuantity)
}

func TestCreateOrderRollsBackOnInsertFailure(t *testing.T) {
	store := newFakeStore(testProduct(1, "10.00", 10))
	store.failInsert = true
	svc := NewService(store, store)

	_, err := svc.Create(context.Background(), validInput(1, 4))
	require.Error(t, err)

	// The stock decrement must not survive the failed insert.
	assert.Equal(t, 10, store.products[1].StockQuantity)
	assert.Empty(t, store.orders)
	assert.Empty(t, store.events)
}

func TestCreateOrderConcurrentDrainsStockExactly(t *testing.T) {
	const stock = 20
	const attempts = 50
	store := newFakeStore(testProduct(1, "5.00", stock))
	svc := NewService(store, store)

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), validInput(1, 1))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, failed int
	for err := range results {
		if err == nil {
			ok++
		} else {
			assert.True(t, apperror.IsInvalid(err))
			failed++
		}
	}
	assert.Equal(t, stock, ok)
	assert.Equal(t, attempts-stock, failed)
	assert.Equal(t, 0, store.products[1].StockQuantity)

	// Order numbers are pairwise distinct.
	orders, err := svc.List(context.Background())
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, o := range orders {
		assert.False(t, seen[o.OrderNumber], "duplicate order number %s", o.OrderNumber)
		seen[o.OrderNumber] = true
	}
}

func TestUpdateStatusIsUnconstrained(t *testing.T) {
	store := newFakeStore(testProduct(1, "10.00", 10))
	svc := NewService(store, store)
	o, err := svc.Create(context.Background(), validInput(1, 1))
	require.NoError(t, err)

	got, err := svc.UpdateStatus(context.Background(), o.ID, domain.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, got.Status)

	// Backwards transition is allowed on purpose.
	got, err = svc.UpdateStatus(context.Background(), o.ID, domain.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestDeleteThenGetNotFound(t *testing.T) {
	store := newFakeStore(testProduct(1, "10.00", 10))
	svc := NewService(store, store)
	o, err := svc.Create(context.Background(), validInput(1, 1))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), o.ID))
	_, err = svc.GetByID(context.Background(), o.ID)
	assert.True(t, apperror.IsNotFound(err))
	assert.True(t, apperror.IsNotFound(svc.Delete(context.Background(), o.ID)))
}

func TestGetByOrderNumber(t *testing.T) {
	store := newFakeStore(testProduct(1, "10.00", 10))
	svc := NewService(store, store)
	o, err := svc.Create(context.Background(), validInput(1, 2))
	require.NoError(t, err)

	got, err := svc.GetByOrderNumber(context.Background(), o.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	_, err = svc.GetByOrderNumber(context.Background(), "ORD-0-DEADBEEF")
	assert.True(t, apperror.IsNotFound(err))
}

func TestSnapshotPricingSurvivesPriceChange(t *testing.T) {
	store := newFakeStore(testProduct(1, "19.99", 5))
	svc := NewService(store, store)
	o, err := svc.Create(context.Background(), validInput(1, 3))
	require.NoError(t, err)

	// Reprice the product after the order was placed.
	store.mu.Lock()
	p := store.products[1]
	p.Price = decimal.RequireFromString("99.99")
	store.products[1] = p
	store.mu.Unlock()

	got, err := svc.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("59.97")))
	require.NotNil(t, got.Product)
	assert.True(t, got.Product.Price.Equal(decimal.RequireFromString("99.99")))
}
