package service

import (
	"testing"

	"github.com/Pood16/REST-API-V1/internal/app/model"
	"github.com/stretchr/testify/assert"
)

func pricingFixture() []model.CartItem {
	return []model.CartItem{
		{ProductID: 1, Quantity: 2, Product: model.Product{ID: 1, Price: 10.00}},
		{ProductID: 2, Quantity: 1, Product: model.Product{ID: 2, Price: 5.00}},
	}
}

func TestComputeTotals_Scenario(t *testing.T) {
	totals := ComputeTotals(pricingFixture(), 2, 0.1, 10)

	assert.Equal(t, 22.5, totals.Subtotal)
	assert.Equal(t, 2.5, totals.Discount)
	assert.Equal(t, 2.25, totals.Tax)
	assert.Equal(t, 2.0, totals.ShippingFee)
	assert.Equal(t, 26.75, totals.Total)
	assert.Equal(t, 3, totals.TotalQuantity)
}

func TestComputeTotals_Empty(t *testing.T) {
	totals := ComputeTotals(nil, 2, 0.1, 10)

	assert.Equal(t, 0.0, totals.Subtotal)
	assert.Equal(t, 0.0, totals.Discount)
	assert.Equal(t, 0.0, totals.Tax)
	assert.Equal(t, 2.0, totals.Total)
	assert.Equal(t, 0, totals.TotalQuantity)
}

func TestComputeTotals_OrderIndependent(t *testing.T) {
	items := []model.CartItem{
		{ProductID: 1, Quantity: 3, Product: model.Product{ID: 1, Price: 19.99}},
		{ProductID: 2, Quantity: 1, Product: model.Product{ID: 2, Price: 7.50}},
		{ProductID: 3, Quantity: 2, Product: model.Product{ID: 3, Price: 0.99}},
	}
	reversed := []model.CartItem{items[2], items[1], items[0]}
	rotated := []model.CartItem{items[1], items[2], items[0]}

	expected := ComputeTotals(items, 5, 0.2, 15)
	assert.Equal(t, expected, ComputeTotals(reversed, 5, 0.2, 15))
	assert.Equal(t, expected, ComputeTotals(rotated, 5, 0.2, 15))
}

func TestComputeTotals_DiscountOutOfRange(t *testing.T) {
	base := ComputeTotals(pricingFixture(), 2, 0.1, 0)

	// Out-of-range percentages behave exactly like no discount
	assert.Equal(t, base, ComputeTotals(pricingFixture(), 2, 0.1, -5))
	assert.Equal(t, base, ComputeTotals(pricingFixture(), 2, 0.1, 150))
}

func TestComputeTotals_FullDiscount(t *testing.T) {
	totals := ComputeTotals(pricingFixture(), 2, 0.1, 100)

	assert.Equal(t, 0.0, totals.Subtotal)
	assert.Equal(t, 25.0, totals.Discount)
	assert.Equal(t, 2.0, totals.Total)
}

func TestComputeTotals_Rounding(t *testing.T) {
	items := []model.CartItem{
		{ProductID: 1, Quantity: 3, Product: model.Product{ID: 1, Price: 0.10}},
	}

	// 0.1*3 is not representable in binary floating point; decimal
	// accumulation keeps the result exact
	totals := ComputeTotals(items, 0, 0, 0)
	assert.Equal(t, 0.3, totals.Subtotal)
	assert.Equal(t, 0.3, totals.Total)
}
