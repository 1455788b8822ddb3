package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/acmecommerce/shopflow/internal/product/application"
	"github.com/acmecommerce/shopflow/internal/product/domain"
	"github.com/acmecommerce/shopflow/pkg/apperror"
)

const productColumns = `id, name, description, price, stock_quantity, category, active, created_at, updated_at`

// sortColumns whitelists the sortBy values accepted from callers.
var sortColumns = map[string]string{
	"id":            "id",
	"name":          "name",
	"price":         "price",
	"stockQuantity": "stock_quantity",
	"category":      "category",
	"active":        "active",
	"createdAt":     "created_at",
	"updatedAt":     "updated_at",
}

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO products (name, description, price, stock_quantity, category, active)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at, updated_at`,
		p.Name, p.Description, p.Price, p.StockQuantity, p.Category, p.Active,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, err
	}
	r.log.Info("product created", "product_id", p.ID, "name", p.Name)
	return p, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (domain.Product, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id=$1`, id)
	return scanProduct(row, id)
}

func (r *Repository) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	err := r.pool.QueryRow(ctx, `
		UPDATE products
		SET name=$2, description=$3, price=$4, stock_quantity=$5, category=$6, active=$7, updated_at=now()
		WHERE id=$1
		RETURNING updated_at`,
		p.ID, p.Name, p.Description, p.Price, p.StockQuantity, p.Category, p.Active,
	).Scan(&p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, apperror.NotFound("product not found with ID: %d", p.ID)
	}
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23503: foreign_key_violation, an order still references this row.
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return apperror.Invalid("product %d is referenced by existing orders", id)
		}
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperror.NotFound("product not found with ID: %d", id)
	}
	r.log.Info("product deleted", "product_id", id)
	return nil
}

func (r *Repository) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func (r *Repository) Page(ctx context.Context, q application.PageQuery) ([]domain.Product, int64, error) {
	where := ``
	args := []any{}
	if q.OnlyActive {
		where = ` WHERE active`
	}
	if q.Keyword != "" {
		pattern := "%" + q.Keyword + "%"
		args = append(args, pattern)
		cond := fmt.Sprintf(`(name ILIKE $%d OR description ILIKE $%d)`, len(args), len(args))
		if where == "" {
			where = ` WHERE ` + cond
		} else {
			where += ` AND ` + cond
		}
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	col, ok := sortColumns[q.SortBy]
	if !ok {
		col = "id"
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	args = append(args, q.Size, q.Page*q.Size)
	sql := fmt.Sprintf(`SELECT %s FROM products%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		productColumns, where, col, dir, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out, err := collectProducts(rows)
	return out, total, err
}

func scanProduct(row pgx.Row, id int64) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity,
		&p.Category, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, apperror.NotFound("product not found with ID: %d", id)
	}
	if err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func collectProducts(rows pgx.Rows) ([]domain.Product, error) {
	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity,
			&p.Category, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
