package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/acmecommerce/shopflow/pkg/apperror"
)

func TestInputValidate(t *testing.T) {
	valid := Input{Name: "Keyboard", Price: decimal.NewFromFloat(49.90), StockQuantity: 10}
	assert.NoError(t, valid.Validate())

	noName := valid
	noName.Name = "  "
	assert.True(t, apperror.IsInvalid(noName.Validate()))

	negPrice := valid
	negPrice.Price = decimal.NewFromFloat(-0.01)
	assert.True(t, apperror.IsInvalid(negPrice.Validate()))

	negStock := valid
	negStock.StockQuantity = -1
	assert.True(t, apperror.IsInvalid(negStock.Validate()))

	zeroPrice := valid
	zeroPrice.Price = decimal.Zero
	assert.NoError(t, zeroPrice.Validate())
}

func TestNewDefaultsActive(t *testing.T) {
	p := New(Input{Name: "Mouse", Price: decimal.NewFromInt(10)})
	assert.True(t, p.Active)

	inactive := false
	p = New(Input{Name: "Mouse", Price: decimal.NewFromInt(10), Active: &inactive})
	assert.False(t, p.Active)
}

func TestApplyKeepsActiveWhenAbsent(t *testing.T) {
	p := Product{Name: "Old", Active: false}
	p.Apply(Input{Name: "New", Price: decimal.NewFromInt(5), StockQuantity: 3})
	assert.Equal(t, "New", p.Name)
	assert.False(t, p.Active)

	on := true
	p.Apply(Input{Name: "New", Price: decimal.NewFromInt(5), Active: &on})
	assert.True(t, p.Active)
}
