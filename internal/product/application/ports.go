package application

import (
	"context"

	"github.com/acmecommerce/shopflow/internal/product/domain"
)

// PageQuery selects one page of products. SortBy uses the JSON field
// names of the entity; unknown values fall back to the repository default.
type PageQuery struct {
	Page       int
	Size       int
	SortBy     string
	Desc       bool
	OnlyActive bool
	Keyword    string
}

type Repository interface {
	Create(ctx context.Context, p domain.Product) (domain.Product, error)
	GetByID(ctx context.Context, id int64) (domain.Product, error)
	Update(ctx context.Context, p domain.Product) (domain.Product, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]domain.Product, error)
	Page(ctx context.Context, q PageQuery) ([]domain.Product, int64, error)
}
