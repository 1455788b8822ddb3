package domain

import (
	"regexp"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	productdomain "github.com/acmecommerce/shopflow/internal/product/domain"
	"github.com/acmecommerce/shopflow/pkg/apperror"
)

func TestGenerateOrderNumberFormat(t *testing.T) {
	re := regexp.MustCompile(`^ORD-\d{13,}-[0-9A-F]{8}$`)
	for i := 0; i < 100; i++ {
		n := GenerateOrderNumber()
		assert.Regexp(t, re, n)
	}
}

func TestGenerateOrderNumberUniqueUnderConcurrency(t *testing.T) {
	const n = 1000
	var mu sync.Mutex
	seen := make(map[string]bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num := GenerateOrderNumber()
			mu.Lock()
			seen[num] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, n)
}

func TestNewOrderTotalIsExact(t *testing.T) {
	product := productdomain.Product{ID: 1, Price: decimal.RequireFromString("19.99")}
	o := New(Input{CustomerName: "A", CustomerEmail: "a@b.c", ProductID: 1, Quantity: 3}, product)

	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("59.97")),
		"got %s", o.TotalAmount)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, int64(1), o.ProductID)
}

func TestInputValidate(t *testing.T) {
	valid := Input{CustomerName: "Jane", CustomerEmail: "jane@example.com", ProductID: 1, Quantity: 2}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*Input)
	}{
		{"missing name", func(in *Input) { in.CustomerName = "" }},
		{"missing email", func(in *Input) { in.CustomerEmail = "" }},
		{"malformed email", func(in *Input) { in.CustomerEmail = "not-an-email" }},
		{"zero product", func(in *Input) { in.ProductID = 0 }},
		{"zero quantity", func(in *Input) { in.Quantity = 0 }},
		{"negative quantity", func(in *Input) { in.Quantity = -5 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			assert.True(t, apperror.IsInvalid(in.Validate()))
		})
	}
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("shipped")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, st)

	st, err = ParseStatus(" CANCELLED ")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, st)

	_, err = ParseStatus("TELEPORTED")
	assert.True(t, apperror.IsInvalid(err))
}
