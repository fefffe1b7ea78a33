package calculator

import (
	"errors"
	"math"
)

// CalculateRange returns the high and low of the given closes.
func CalculateRange(closes []float64) (high, low float64, err error) {
	if len(closes) == 0 {
		return 0, 0, errors.New("no prices provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, c := range closes {
		if c > high {
			high = c
		}
		if c < low {
			low = c
		}
	}
	return high, low, nil
}

// CalculatePosition returns where current sits within [low, high] (0.0~1.0).
func CalculatePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}

// CalculateChangePct returns the percentage change from first to last close.
func CalculateChangePct(closes []float64) (float64, error) {
	if len(closes) < 2 {
		return 0, errors.New("need at least two prices")
	}
	first := closes[0]
	if first == 0 {
		return 0, errors.New("first price is zero")
	}
	return (closes[len(closes)-1] - first) / first * 100, nil
}
