package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/acmecommerce/shopflow/internal/order/application"
	"github.com/acmecommerce/shopflow/internal/order/domain"
	productdomain "github.com/acmecommerce/shopflow/internal/product/domain"
	"github.com/acmecommerce/shopflow/pkg/apperror"
)

const orderColumns = `o.id, o.order_number, o.customer_name, o.customer_email, o.product_id,
	o.quantity, o.total_amount, o.status, o.notes, o.created_at, o.updated_at,
	p.id, p.name, p.description, p.price, p.stock_quantity, p.category, p.active, p.created_at, p.updated_at`

const orderFrom = ` FROM orders o JOIN products p ON p.id = o.product_id`

var sortColumns = map[string]string{
	"id":          "o.id",
	"orderNumber": "o.order_number",
	"totalAmount": "o.total_amount",
	"status":      "o.status",
	"quantity":    "o.quantity",
	"createdAt":   "o.created_at",
	"updatedAt":   "o.updated_at",
}

// UnitOfWork runs order workflows inside one postgres transaction.
type UnitOfWork struct {
	pool *pgxpool.Pool
}

func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

func (u *UnitOfWork) Do(ctx context.Context, fn func(tx application.Tx) error) error {
	pgtx, err := u.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer pgtx.Rollback(ctx)

	if err := fn(&orderTx{tx: pgtx}); err != nil {
		return err
	}
	return pgtx.Commit(ctx)
}

type orderTx struct {
	tx pgx.Tx
}

func (t *orderTx) ProductForUpdate(ctx context.Context, productID int64) (productdomain.Product, error) {
	var p productdomain.Product
	err := t.tx.QueryRow(ctx, `
		SELECT id, name, description, price, stock_quantity, category, active, created_at, updated_at
		FROM products WHERE id=$1 FOR UPDATE`, productID,
	).Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity,
		&p.Category, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return productdomain.Product{}, apperror.NotFound("product not found with ID: %d", productID)
	}
	if err != nil {
		return productdomain.Product{}, err
	}
	return p, nil
}

func (t *orderTx) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	// The guard in the WHERE clause keeps stock from going negative even
	// if a caller skipped the lock-and-check.
	ct, err := t.tx.Exec(ctx, `
		UPDATE products SET stock_quantity = stock_quantity - $2, updated_at = now()
		WHERE id=$1 AND stock_quantity >= $2`, productID, quantity)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return apperror.Invalid("insufficient stock for product %d", productID)
	}
	return nil
}

func (t *orderTx) InsertOrder(ctx context.Context, o *domain.Order) error {
	return t.tx.QueryRow(ctx, `
		INSERT INTO orders (order_number, customer_name, customer_email, product_id, quantity, total_amount, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at, updated_at`,
		o.OrderNumber, o.CustomerName, o.CustomerEmail, o.ProductID,
		o.Quantity, o.TotalAmount, o.Status, o.Notes,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

func (t *orderTx) AppendEvent(ctx context.Context, aggregateID, eventType string, payload []byte, traceparent string) error {
	return appendEvent(ctx, t.tx, aggregateID, eventType, payload, traceparent)
}

func appendEvent(ctx context.Context, tx pgx.Tx, aggregateID, eventType string, payload []byte, traceparent string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent)
		VALUES ('order', $1, $2, $3, $4)`,
		aggregateID, eventType, payload, traceparent)
	return err
}

// Repository reads and mutates orders. Every row is returned with its
// product joined in so callers see the live product next to the snapshot
// total.
type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) GetByID(ctx context.Context, id int64) (domain.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+orderFrom+` WHERE o.id=$1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, apperror.NotFound("order not found with ID: %d", id)
	}
	return o, err
}

func (r *Repository) GetByOrderNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+orderColumns+orderFrom+` WHERE o.order_number=$1`, orderNumber)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, apperror.NotFound("order not found with order number: %s", orderNumber)
	}
	return o, err
}

func (r *Repository) List(ctx context.Context) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+orderFrom+` ORDER BY o.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (r *Repository) Page(ctx context.Context, q application.PageQuery) ([]domain.Order, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
		return nil, 0, err
	}

	col, ok := sortColumns[q.SortBy]
	if !ok {
		col = "o.created_at"
	}
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	sql := fmt.Sprintf(`SELECT %s%s ORDER BY %s %s LIMIT $1 OFFSET $2`, orderColumns, orderFrom, col, dir)

	rows, err := r.pool.Query(ctx, sql, q.Size, q.Page*q.Size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out, err := collectOrders(rows)
	return out, total, err
}

func (r *Repository) PageByCustomer(ctx context.Context, email string, page, size int) ([]domain.Order, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE customer_email=$1`, email).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+orderFrom+`
		WHERE o.customer_email=$1 ORDER BY o.created_at DESC LIMIT $2 OFFSET $3`,
		email, size, page*size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out, err := collectOrders(rows)
	return out, total, err
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.Status, traceparent string) (domain.Order, error) {
	var out domain.Order
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var orderNumber string
		err := tx.QueryRow(ctx, `
			UPDATE orders SET status=$2, updated_at=now() WHERE id=$1
			RETURNING order_number`, id, status).Scan(&orderNumber)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NotFound("order not found with ID: %d", id)
		}
		if err != nil {
			return err
		}

		payload := fmt.Appendf(nil, `{"orderId":%d,"orderNumber":%q,"status":%q}`, id, orderNumber, status)
		if err := appendEvent(ctx, tx, orderNumber, domain.EventOrderStatusUpdated, payload, traceparent); err != nil {
			return err
		}

		row := tx.QueryRow(ctx, `SELECT `+orderColumns+orderFrom+` WHERE o.id=$1`, id)
		out, err = scanOrder(row)
		return err
	})
	if err != nil {
		return domain.Order{}, err
	}
	r.log.Info("order status updated", "order_id", id, "status", status)
	return out, nil
}

func (r *Repository) Delete(ctx context.Context, id int64, traceparent string) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var orderNumber string
		err := tx.QueryRow(ctx, `DELETE FROM orders WHERE id=$1 RETURNING order_number`, id).Scan(&orderNumber)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperror.NotFound("order not found with ID: %d", id)
		}
		if err != nil {
			return err
		}

		payload := fmt.Appendf(nil, `{"orderId":%d,"orderNumber":%q}`, id, orderNumber)
		return appendEvent(ctx, tx, orderNumber, domain.EventOrderDeleted, payload, traceparent)
	})
	if err != nil {
		return err
	}
	r.log.Info("order deleted", "order_id", id)
	return nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	var p productdomain.Product
	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerName, &o.CustomerEmail, &o.ProductID,
		&o.Quantity, &o.TotalAmount, &o.Status, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
		&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity,
		&p.Category, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Order{}, err
	}
	o.Product = &p
	return o, nil
}

func collectOrders(rows pgx.Rows) ([]domain.Order, error) {
	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
