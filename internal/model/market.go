package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one historical closing price.
type PricePoint struct {
	Time  time.Time
	Price float64
}

// Closes extracts the price values in order.
func Closes(points []PricePoint) []float64 {
	closes := make([]float64, len(points))
	for i, p := range points {
		closes[i] = p.Price
	}
	return closes
}

// FormatPrice renders a price with two decimals.
func FormatPrice(price float64) string {
	return decimal.NewFromFloat(price).StringFixed(2)
}
