package view

import (
	"StockSentiment/internal/model"
	"StockSentiment/internal/period"
)

// Event is a named transition accepted by Reduce.
type Event interface {
	isEvent()
}

// Submit starts an analysis of an already-normalized ticker.
type Submit struct {
	Ticker string
}

// Invalid records a rejected submission.
type Invalid struct {
	Message string
}

// SentimentSettled delivers the outcome of the sentiment feed.
type SentimentSettled struct {
	Generation    uint64
	Result        *model.SentimentResult
	Err           string
	NotConfigured bool
}

// HistorySettled delivers the outcome of the sentiment history feed.
type HistorySettled struct {
	Generation uint64
	Points     []model.SentimentPoint
	Err        string
}

// PriceRequested marks the price feed as in flight.
type PriceRequested struct {
	PriceGeneration uint64
	Period          period.Period
	Range           period.Range
}

// PriceSettled delivers the outcome of the price feed.
type PriceSettled struct {
	PriceGeneration uint64
	Period          period.Period
	Range           period.Range
	Points          []model.PricePoint
	Err             string
}

// PeriodChanged selects a new price lookback.
type PeriodChanged struct {
	Period period.Period
}

// ChartSelected switches the active chart.
type ChartSelected struct {
	Chart Chart
}

// RecentLoaded replaces the recent search list.
type RecentLoaded struct {
	List []string
}

// Settled ends an analysis once all of its feeds have reported and picks
// the default chart. Loading is already cleared by then: it covers the
// sentiment and history feeds only, while the price feed has PriceLoading.
type Settled struct {
	Generation uint64
}

// Cleared resets the session.
type Cleared struct{}

func (Submit) isEvent()           {}
func (Invalid) isEvent()          {}
func (SentimentSettled) isEvent() {}
func (HistorySettled) isEvent()   {}
func (PriceRequested) isEvent()   {}
func (PriceSettled) isEvent()     {}
func (PeriodChanged) isEvent()    {}
func (ChartSelected) isEvent()    {}
func (RecentLoaded) isEvent()     {}
func (Settled) isEvent()          {}
func (Cleared) isEvent()          {}

// Reduce applies ev to s. Settlements carrying a stale generation are
// ignored and s is returned unchanged, Version included.
func Reduce(s State, ev Event) State {
	next, ok := apply(s, ev)
	if !ok {
		return s
	}
	next.Version = s.Version + 1
	return next
}

func apply(s State, ev Event) (State, bool) {
	switch e := ev.(type) {
	case Submit:
		s = resetResults(s)
		s.Ticker = e.Ticker
		s.Generation++
		s.PriceGeneration++
		s.Loading = true
		return s, true

	case Invalid:
		s = resetResults(s)
		s.Ticker = ""
		s.Generation++
		s.PriceGeneration++
		s.Error = e.Message
		return s, true

	case SentimentSettled:
		if e.Generation != s.Generation {
			return s, false
		}
		s.Sentiment = e.Result
		s.Error = e.Err
		if e.Err != "" {
			s.Sentiment = nil
		}
		s.NotConfigured = e.NotConfigured && e.Err == ""
		s.HistorySkipped = s.NotConfigured
		if s.HistorySkipped {
			s.Loading = false
		}
		return s, true

	case HistorySettled:
		if e.Generation != s.Generation {
			return s, false
		}
		s.Loading = false
		s.History = e.Points
		s.HistoryErr = e.Err
		if e.Err != "" {
			s.History = nil
		}
		return s, true

	case PriceRequested:
		if e.PriceGeneration != s.PriceGeneration {
			return s, false
		}
		s.PriceLoading = true
		s.PricePeriod = e.Period
		s.PriceRange = e.Range
		return s, true

	case PriceSettled:
		if e.PriceGeneration != s.PriceGeneration {
			return s, false
		}
		s.PriceLoading = false
		s.PricePeriod = e.Period
		s.PriceRange = e.Range
		s.Prices = e.Points
		s.PriceErr = e.Err
		if e.Err != "" {
			s.Prices = nil
		}
		return s, true

	case PeriodChanged:
		if !e.Period.Valid() {
			return s, false
		}
		s.ActivePeriod = e.Period
		s.PriceGeneration++
		s.Prices = nil
		s.PriceErr = ""
		s.PricePeriod = ""
		s.PriceRange = period.Range{}
		s.PriceLoading = s.Ticker != ""
		return s, true

	case ChartSelected:
		if e.Chart != ChartSentiment && e.Chart != ChartPrice {
			return s, false
		}
		s.ActiveChart = e.Chart
		return s, true

	case RecentLoaded:
		s.Recent = append([]string(nil), e.List...)
		return s, true

	case Settled:
		if e.Generation != s.Generation {
			return s, false
		}
		s.ActiveChart = s.DefaultChart()
		return s, true

	case Cleared:
		next := New(s.DefaultPeriod)
		next.Generation = s.Generation + 1
		next.PriceGeneration = s.PriceGeneration + 1
		next.Recent = s.Recent
		return next, true
	}
	return s, false
}

// resetResults drops every per-analysis result while keeping the
// session's chart, period and recent list.
func resetResults(s State) State {
	s.Loading = false
	s.PriceLoading = false
	s.Error = ""
	s.Sentiment = nil
	s.NotConfigured = false
	s.History = nil
	s.HistoryErr = ""
	s.HistorySkipped = false
	s.Prices = nil
	s.PriceErr = ""
	s.PricePeriod = ""
	s.PriceRange = period.Range{}
	return s
}
