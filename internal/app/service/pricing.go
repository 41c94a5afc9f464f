package service

import (
	"github.com/Pood16/REST-API-V1/internal/app/model"
	"github.com/shopspring/decimal"
)

// Totals is the price breakdown of a cart. All monetary fields are rounded
// to two decimal places; rounding happens only here, at the boundary.
type Totals struct {
	Subtotal      float64 `json:"subtotal"`
	Discount      float64 `json:"discount"`
	Tax           float64 `json:"tax"`
	ShippingFee   float64 `json:"shipping_fee"`
	Total         float64 `json:"total"`
	TotalQuantity int     `json:"total_quantity"`
}

var oneHundred = decimal.NewFromInt(100)

// ComputeTotals derives order totals from a cart snapshot. It is a pure
// function: permuting the lines never changes the result.
//
// A discount percent outside [0,100] is treated as 0, matching the permissive
// behavior clients already rely on. A line whose product was deleted or never
// preloaded contributes a price of 0 rather than failing the whole cart.
func ComputeTotals(items []model.CartItem, shippingFee, taxRate, discountPercent float64) Totals {
	if discountPercent < 0 || discountPercent > 100 {
		discountPercent = 0
	}
	discountFraction := decimal.NewFromFloat(discountPercent).Div(oneHundred)

	var (
		subtotal      = decimal.Zero
		totalDiscount = decimal.Zero
		totalQuantity int
	)

	for _, item := range items {
		lineTotal := decimal.NewFromFloat(item.Product.Price).
			Mul(decimal.NewFromInt(int64(item.Quantity)))
		discountAmount := lineTotal.Mul(discountFraction)

		subtotal = subtotal.Add(lineTotal.Sub(discountAmount))
		totalDiscount = totalDiscount.Add(discountAmount)
		totalQuantity += item.Quantity
	}

	shipping := decimal.NewFromFloat(shippingFee)
	tax := subtotal.Mul(decimal.NewFromFloat(taxRate))
	total := subtotal.Add(tax).Add(shipping)

	return Totals{
		Subtotal:      round2(subtotal),
		Discount:      round2(totalDiscount),
		Tax:           round2(tax),
		ShippingFee:   round2(shipping),
		Total:         round2(total),
		TotalQuantity: totalQuantity,
	}
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
