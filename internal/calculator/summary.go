package calculator

import (
	"StockSentiment/internal/model"
)

// PriceStats summarizes a price series for display.
// HasSMA, HasSMA50 and HasRSI are false when the series is too short.
type PriceStats struct {
	First     float64
	Last      float64
	High      float64
	Low       float64
	ChangePct float64
	Position  float64
	SMA20     float64
	HasSMA    bool
	SMA50     float64
	HasSMA50  bool
	RSI14     float64
	HasRSI    bool
}

// Summarize computes PriceStats for an ascending series. ok is false for an
// empty series.
func Summarize(points []model.PricePoint) (stats PriceStats, ok bool) {
	closes := model.Closes(points)
	if len(closes) == 0 {
		return PriceStats{}, false
	}
	stats.First = closes[0]
	stats.Last = closes[len(closes)-1]
	stats.High, stats.Low, _ = CalculateRange(closes)
	if pct, err := CalculateChangePct(closes); err == nil {
		stats.ChangePct = pct
	}
	stats.Position, _ = CalculatePosition(stats.Last, stats.High, stats.Low)
	if sma, err := CalculateMA20(closes); err == nil {
		stats.SMA20, stats.HasSMA = sma, true
	}
	if sma, err := CalculateMA50(closes); err == nil {
		stats.SMA50, stats.HasSMA50 = sma, true
	}
	if len(closes) > 14 {
		stats.RSI14, _ = CalculateRSI(closes, 14)
		stats.HasRSI = true
	}
	return stats, true
}
