package utils_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"quickbasket/utils"
)

func TestPriceWithDiscount(t *testing.T) {
	// Discount amount rounds up, so the final price rounds down.
	assert.Equal(t, 90.0, utils.PriceWithDiscount(100, 10))
	assert.Equal(t, 180.0, utils.PriceWithDiscount(200, 10))
	assert.Equal(t, 400.0, utils.PriceWithDiscount(500, 20))

	// ceil(99*15/100) = ceil(14.85) = 15
	assert.Equal(t, 84.0, utils.PriceWithDiscount(99, 15))

	// Zero discount leaves the price untouched.
	assert.Equal(t, 250.0, utils.PriceWithDiscount(250, 0))

	// Full discount empties the price.
	assert.Equal(t, 0.0, utils.PriceWithDiscount(80, 100))
}

func TestPriceWithDiscountNeverExceedsPrice(t *testing.T) {
	prices := []float64{0, 1, 9.99, 100, 199, 250.5, 9999}
	discounts := []float64{0, 1, 10, 33, 50, 99, 100}

	for _, price := range prices {
		for _, discount := range discounts {
			got := utils.PriceWithDiscount(price, discount)
			assert.LessOrEqual(t, got, price, "price=%v discount=%v", price, discount)
		}
	}
}

func TestComputeCartTotals(t *testing.T) {
	lines := []utils.PricedLine{
		{Price: 100, Discount: 10, Quantity: 2},
		{Price: 50, Discount: 0, Quantity: 1},
	}

	totals := utils.ComputeCartTotals(lines)

	assert.Equal(t, 230.0, totals.TotalWithDiscount)
	assert.Equal(t, 250.0, totals.TotalWithoutDiscount)
	assert.Equal(t, 20.0, totals.TotalSaved)
}

func TestComputeCartTotalsSkipsInvalidLines(t *testing.T) {
	lines := []utils.PricedLine{
		{Price: 100, Discount: 10, Quantity: 2},
		{Price: math.NaN(), Discount: 0, Quantity: 1},
		{Price: 50, Discount: math.NaN(), Quantity: 3},
		{Price: 50, Discount: 0, Quantity: math.NaN()},
	}

	// Every partially-populated line is excluded; the valid line still counts.
	totals := utils.ComputeCartTotals(lines)

	assert.Equal(t, 180.0, totals.TotalWithDiscount)
	assert.Equal(t, 200.0, totals.TotalWithoutDiscount)
	assert.Equal(t, 20.0, totals.TotalSaved)
	assert.False(t, math.IsNaN(totals.TotalSaved))
}

func TestComputeCartTotalsEmptyCart(t *testing.T) {
	totals := utils.ComputeCartTotals(nil)

	assert.Equal(t, 0.0, totals.TotalWithDiscount)
	assert.Equal(t, 0.0, totals.TotalWithoutDiscount)
	assert.Equal(t, 0.0, totals.TotalSaved)
}
