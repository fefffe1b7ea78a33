package calculator

import (
	"errors"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// CalculateMA20 returns the 20-day simple moving average of daily closes.
func CalculateMA20(closes []float64) (float64, error) {
	return CalculateSMA(closes, 20)
}

// CalculateMA50 returns the 50-day simple moving average of daily closes.
func CalculateMA50(closes []float64) (float64, error) {
	return CalculateSMA(closes, 50)
}
