// Package view holds the display state of one analysis session and the
// transitions that move it forward. State values are never mutated in
// place: Reduce returns a new State for every accepted event.
package view

import (
	"StockSentiment/internal/model"
	"StockSentiment/internal/period"
)

// Chart identifies which chart the view shows.
type Chart string

const (
	ChartSentiment Chart = "sentiment"
	ChartPrice     Chart = "price"
)

// State is a snapshot of everything the view displays.
//
// Generation fences the sentiment and history feeds of one analysis;
// PriceGeneration fences the price feed, which also restarts on a period
// change. Version increases with every accepted event so that observers
// can order snapshots delivered from concurrent goroutines.
type State struct {
	Ticker          string
	Generation      uint64
	PriceGeneration uint64
	Version         uint64

	Loading      bool
	PriceLoading bool

	// Error is the validation or sentiment feed error text.
	Error         string
	Sentiment     *model.SentimentResult
	NotConfigured bool

	History        []model.SentimentPoint
	HistoryErr     string
	HistorySkipped bool

	Prices      []model.PricePoint
	PriceErr    string
	PricePeriod period.Period
	PriceRange  period.Range

	ActiveChart   Chart
	ActivePeriod  period.Period
	DefaultPeriod period.Period

	Recent []string
}

// New returns the initial state. An invalid defaultPeriod falls back to
// period.Default.
func New(defaultPeriod period.Period) State {
	if !defaultPeriod.Valid() {
		defaultPeriod = period.Default
	}
	return State{
		ActiveChart:   ChartSentiment,
		ActivePeriod:  defaultPeriod,
		DefaultPeriod: defaultPeriod,
	}
}

// SentimentSucceeded reports whether the sentiment feed produced a usable
// result. A not-configured result does not count.
func (s State) SentimentSucceeded() bool {
	return s.Sentiment != nil && !s.NotConfigured
}

// DefaultChart picks the chart to show once an analysis settles.
func (s State) DefaultChart() Chart {
	switch {
	case s.SentimentSucceeded():
		return ChartSentiment
	case len(s.Prices) > 0:
		return ChartPrice
	default:
		return ChartSentiment
	}
}

// Busy reports whether any feed is still in flight.
func (s State) Busy() bool {
	return s.Loading || s.PriceLoading
}
