package domain

import "github.com/shopspring/decimal"

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderStatusUpdated = "OrderStatusUpdated"
	EventOrderDeleted       = "OrderDeleted"
)

type OrderCreatedEvent struct {
	OrderID       int64           `json:"orderId"`
	OrderNumber   string          `json:"orderNumber"`
	CustomerEmail string          `json:"customerEmail"`
	ProductID     int64           `json:"productId"`
	Quantity      int             `json:"quantity"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
}

type OrderStatusUpdatedEvent struct {
	OrderID     int64  `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	Status      Status `json:"status"`
}

type OrderDeletedEvent struct {
	OrderID     int64  `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
}
