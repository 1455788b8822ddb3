package application

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acmecommerce/shopflow/internal/product/domain"
	"github.com/acmecommerce/shopflow/pkg/apperror"
)

type fakeRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]domain.Product
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{nextID: 1, rows: map[int64]domain.Product{}}
}

func (r *fakeRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = r.nextID
	r.nextID++
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	r.rows[p.ID] = p
	return p, nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id int64) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return domain.Product{}, apperror.NotFound("product not found with ID: %d", id)
	}
	return p, nil
}

func (r *fakeRepo) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[p.ID]; !ok {
		return domain.Product{}, apperror.NotFound("product not found with ID: %d", p.ID)
	}
	p.UpdatedAt = time.Now().UTC()
	r.rows[p.ID] = p
	return p, nil
}

func (r *fakeRepo) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return apperror.NotFound("product not found with ID: %d", id)
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeRepo) List(ctx context.Context) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Product, 0, len(r.rows))
	for _, p := range r.rows {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeRepo) Page(ctx context.Context, q PageQuery) ([]domain.Product, int64, error) {
	all, _ := r.List(ctx)
	filtered := all[:0:0]
	for _, p := range all {
		if q.OnlyActive && !p.Active {
			continue
		}
		if q.Keyword != "" {
			kw := strings.ToLower(q.Keyword)
			if !strings.Contains(strings.ToLower(p.Name), kw) &&
				!strings.Contains(strings.ToLower(p.Description), kw) {
				continue
			}
		}
		filtered = append(filtered, p)
	}
	total := int64(len(filtered))
	start := q.Page * q.Size
	if start >= len(filtered) {
		return nil, total, nil
	}
	end := start + q.Size
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], total, nil
}

func seed(t *testing.T, svc *Service, name, desc string, price float64, stock int, active bool) domain.Product {
	t.Helper()
	p, err := svc.Create(context.Background(), domain.Input{
		Name:          name,
		Description:   desc,
		Price:         decimal.NewFromFloat(price),
		StockQuantity: stock,
		Active:        &active,
	})
	require.NoError(t, err)
	return p
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	svc := NewService(newFakeRepo())
	_, err := svc.Create(context.Background(), domain.Input{Price: decimal.NewFromInt(1)})
	assert.True(t, apperror.IsInvalid(err))
}

func TestUpdatePreservesActiveWhenOmitted(t *testing.T) {
	svc := NewService(newFakeRepo())
	p := seed(t, svc, "Mouse", "wireless", 25.50, 5, false)

	updated, err := svc.Update(context.Background(), p.ID, domain.Input{
		Name:          "Mouse v2",
		Price:         decimal.NewFromFloat(27.00),
		StockQuantity: 8,
	})
	require.NoError(t, err)
	assert.Equal(t, "Mouse v2", updated.Name)
	assert.False(t, updated.Active)
}

func TestUpdateMissingProduct(t *testing.T) {
	svc := NewService(newFakeRepo())
	_, err := svc.Update(context.Background(), 99, domain.Input{
		Name: "x", Price: decimal.NewFromInt(1),
	})
	assert.True(t, apperror.IsNotFound(err))
}

func TestSearchRequiresKeyword(t *testing.T) {
	svc := NewService(newFakeRepo())
	_, _, err := svc.Search(context.Background(), "   ", PageQuery{Size: 10})
	assert.True(t, apperror.IsInvalid(err))
}

func TestSearchMatchesNameOrDescription(t *testing.T) {
	svc := NewService(newFakeRepo())
	seed(t, svc, "Gaming Keyboard", "mechanical switches", 99.99, 3, true)
	seed(t, svc, "Desk Lamp", "keyboard-friendly light", 19.99, 7, true)
	seed(t, svc, "Monitor", "27 inch", 149.00, 2, true)

	got, total, err := svc.Search(context.Background(), "KEYBOARD", PageQuery{Size: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, got, 2)
}

func TestPageOnlyActiveAndLimit(t *testing.T) {
	svc := NewService(newFakeRepo())
	for i := 0; i < 12; i++ {
		seed(t, svc, "P", "", 1.00, 1, i%2 == 0)
	}
	got, total, err := svc.Page(context.Background(), PageQuery{Size: 4, OnlyActive: true})
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)
	assert.Len(t, got, 4)
}

func TestDeleteThenGetNotFound(t *testing.T) {
	svc := NewService(newFakeRepo())
	p := seed(t, svc, "Cable", "", 3.50, 100, true)

	require.NoError(t, svc.Delete(context.Background(), p.ID))
	_, err := svc.GetByID(context.Background(), p.ID)
	assert.True(t, apperror.IsNotFound(err))
	assert.True(t, apperror.IsNotFound(svc.Delete(context.Background(), p.ID)))
}
