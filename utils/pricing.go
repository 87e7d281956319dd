package utils

import "math"

// PriceWithDiscount returns the price after applying a percentage discount.
// The discount amount is rounded up (ceiling), so the final price rounds
// down. This rounding direction is a business rule and decides the exact
// paise charged; keep it bit-exact with the storefront display logic.
func PriceWithDiscount(price, discount float64) float64 {
	return price - math.Ceil(price*discount/100)
}

// PricedLine is the slice of a cart line that the pricing engine needs.
// A zero Discount means no discount.
type PricedLine struct {
	Price    float64
	Discount float64
	Quantity float64
}

// CartTotals holds the aggregate amounts for a cart.
type CartTotals struct {
	TotalWithDiscount    float64
	TotalWithoutDiscount float64
	TotalSaved           float64
}

// ComputeCartTotals sums discounted and undiscounted line totals. Lines with
// a NaN price, discount or quantity are excluded from every sum rather than
// poisoning the result; callers pass partially-populated lines and rely on
// this never returning NaN or panicking.
func ComputeCartTotals(lines []PricedLine) CartTotals {
	var totals CartTotals
	for _, line := range lines {
		if math.IsNaN(line.Price) || math.IsNaN(line.Discount) || math.IsNaN(line.Quantity) {
			continue
		}
		totals.TotalWithDiscount += line.Quantity * PriceWithDiscount(line.Price, line.Discount)
		totals.TotalWithoutDiscount += line.Quantity * line.Price
	}
	totals.TotalSaved = totals.TotalWithoutDiscount - totals.TotalWithDiscount
	return totals
}
