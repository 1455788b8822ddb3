package application

import (
	"context"

	"github.com/acmecommerce/shopflow/internal/order/domain"
	productdomain "github.com/acmecommerce/shopflow/internal/product/domain"
)

// UnitOfWork runs fn inside a single store transaction. Everything done
// through the Tx commits together when fn returns nil and rolls back
// together otherwise; no partial outcome is ever visible to other readers.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the transactional surface the order workflow mutates through.
type Tx interface {
	// ProductForUpdate locks the product row for the rest of the
	// transaction and returns its current state.
	ProductForUpdate(ctx context.Context, productID int64) (productdomain.Product, error)
	// DecrementStock subtracts quantity, failing the transaction if the
	// remaining stock is insufficient.
	DecrementStock(ctx context.Context, productID int64, quantity int) error
	// InsertOrder persists the order and fills its id and timestamps.
	InsertOrder(ctx context.Context, o *domain.Order) error
	// AppendEvent stages an outbox event alongside the state change.
	AppendEvent(ctx context.Context, aggregateID, eventType string, payload []byte, traceparent string) error
}

type PageQuery struct {
	Page   int
	Size   int
	SortBy string
	Desc   bool
}

type Repository interface {
	GetByID(ctx context.Context, id int64) (domain.Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	Page(ctx context.Context, q PageQuery) ([]domain.Order, int64, error)
	PageByCustomer(ctx context.Context, email string, page, size int) ([]domain.Order, int64, error)
	// UpdateStatus overwrites the status and stages the matching event in
	// one transaction.
	UpdateStatus(ctx context.Context, id int64, status domain.Status, traceparent string) (domain.Order, error)
	// Delete removes the order and stages the matching event in one
	// transaction.
	Delete(ctx context.Context, id int64, traceparent string) error
}
