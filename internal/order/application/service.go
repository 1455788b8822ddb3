package application

import (
	"context"
	"encoding/json"

	"github.com/acmecommerce/shopflow/internal/order/domain"
	"github.com/acmecommerce/shopflow/pkg/apperror"
	"github.com/acmecommerce/shopflow/pkg/tracing"
)

type Service struct {
	uow  UnitOfWork
	repo Repository
}

func NewService(uow UnitOfWork, repo Repository) *Service {
	return &Service{uow: uow, repo: repo}
}

// Create runs the order workflow: lock the product, check stock, snapshot
// the total, decrement stock and insert the order in one transaction.
func (s *Service) Create(ctx context.Context, in domain.Input) (domain.Order, error) {
	if err := in.Validate(); err != nil {
		return domain.Order{}, err
	}

	var created domain.Order
	err := s.uow.Do(ctx, func(tx Tx) error {
		product, err := tx.ProductForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if product.StockQuantity < in.Quantity {
			return apperror.Invalid("insufficient stock. available: %d", product.StockQuantity)
		}

		order := domain.New(in, product)
		if err := tx.DecrementStock(ctx, product.ID, in.Quantity); err != nil {
			return err
		}
		if err := tx.InsertOrder(ctx, &order); err != nil {
			return err
		}

		payload, err := json.Marshal(domain.OrderCreatedEvent{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			CustomerEmail: order.CustomerEmail,
			ProductID:     order.ProductID,
			Quantity:      order.Quantity,
			TotalAmount:   order.TotalAmount,
		})
		if err != nil {
			return err
		}
		if err := tx.AppendEvent(ctx, order.OrderNumber, domain.EventOrderCreated, payload, tracing.Traceparent(ctx)); err != nil {
			return err
		}

		product.StockQuantity -= in.Quantity
		order.Product = &product
		created = order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return created, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByOrderNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	return s.repo.GetByOrderNumber(ctx, orderNumber)
}

func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	return s.repo.List(ctx)
}

func (s *Service) Page(ctx context.Context, q PageQuery) ([]domain.Order, int64, error) {
	return s.repo.Page(ctx, q)
}

func (s *Service) PageByCustomer(ctx context.Context, email string, page, size int) ([]domain.Order, int64, error) {
	return s.repo.PageByCustomer(ctx, email, page, size)
}

// UpdateStatus overwrites the order's status. Any known status may replace
// any other.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status domain.Status) (domain.Order, error) {
	return s.repo.UpdateStatus(ctx, id, status, tracing.Traceparent(ctx))
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id, tracing.Traceparent(ctx))
}
