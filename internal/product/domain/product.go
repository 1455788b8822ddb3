package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/acmecommerce/shopflow/pkg/apperror"
)

type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	Category      string          `json:"category"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Input is the mutable part of a product as accepted from callers.
// Active is a pointer so an update can leave the flag untouched.
type Input struct {
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stockQuantity"`
	Category      string          `json:"category"`
	Active        *bool           `json:"active"`
}

func (in Input) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return apperror.Invalid("product name is required")
	}
	if in.Price.IsNegative() {
		return apperror.Invalid("product price must not be negative")
	}
	if in.StockQuantity < 0 {
		return apperror.Invalid("stock quantity must not be negative")
	}
	return nil
}

// New builds a product from validated input. Active defaults to true.
func New(in Input) Product {
	active := true
	if in.Active != nil {
		active = *in.Active
	}
	return Product{
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price,
		StockQuantity: in.StockQuantity,
		Category:      in.Category,
		Active:        active,
	}
}

// Apply overwrites the product's mutable fields from the input. The active
// flag is only touched when the input carries one.
func (p *Product) Apply(in Input) {
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.StockQuantity = in.StockQuantity
	p.Category = in.Category
	if in.Active != nil {
		p.Active = *in.Active
	}
}
