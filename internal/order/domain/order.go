package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	productdomain "github.com/acmecommerce/shopflow/internal/product/domain"
	"github.com/acmecommerce/shopflow/pkg/apperror"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

var statuses = map[Status]bool{
	StatusPending:    true,
	StatusConfirmed:  true,
	StatusProcessing: true,
	StatusShipped:    true,
	StatusDelivered:  true,
	StatusCancelled:  true,
}

// ParseStatus validates a caller-supplied status value. Any known status
// may replace any other; there is deliberately no transition guard.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !statuses[st] {
		return "", apperror.Invalid("unknown order status: %s", s)
	}
	return st, nil
}

type Order struct {
	ID            int64                  `json:"id"`
	OrderNumber   string                 `json:"orderNumber"`
	CustomerName  string                 `json:"customerName"`
	CustomerEmail string                 `json:"customerEmail"`
	ProductID     int64                  `json:"-"`
	Product       *productdomain.Product `json:"product,omitempty"`
	Quantity      int                    `json:"quantity"`
	TotalAmount   decimal.Decimal        `json:"totalAmount"`
	Status        Status                 `json:"status"`
	Notes         string                 `json:"notes,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

// Input carries the fields of an order-creation request.
type Input struct {
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	ProductID     int64  `json:"productId"`
	Quantity      int    `json:"quantity"`
	Notes         string `json:"notes"`
}

func (in Input) Validate() error {
	if strings.TrimSpace(in.CustomerName) == "" {
		return apperror.Invalid("customer name is required")
	}
	email := strings.TrimSpace(in.CustomerEmail)
	if email == "" || !strings.Contains(email, "@") {
		return apperror.Invalid("a valid customer email is required")
	}
	if in.ProductID <= 0 {
		return apperror.Invalid("product id is required")
	}
	if in.Quantity <= 0 {
		return apperror.Invalid("quantity must be a positive integer")
	}
	return nil
}

// New builds a PENDING order for the given product. The total is the
// product price times the quantity at this moment; it is never recomputed.
func New(in Input, product productdomain.Product) Order {
	return Order{
		OrderNumber:   GenerateOrderNumber(),
		CustomerName:  in.CustomerName,
		CustomerEmail: in.CustomerEmail,
		ProductID:     product.ID,
		Quantity:      in.Quantity,
		TotalAmount:   product.Price.Mul(decimal.NewFromInt(int64(in.Quantity))),
		Status:        StatusPending,
		Notes:         in.Notes,
	}
}
