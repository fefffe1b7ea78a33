// Package chart projects raw time series into render-ready chart specs.
// A Spec carries no drawing logic; see package render for a terminal adapter.
package chart

import (
	"fmt"
	"sort"
	"time"

	"StockSentiment/internal/model"
	"StockSentiment/internal/period"
	"StockSentiment/internal/view"
)

// Kind selects the display rules applied to a series.
type Kind int

const (
	KindSentiment Kind = iota
	KindPrice
)

// Mode describes how a series is drawn.
type Mode string

const (
	ModeMarkers      Mode = "markers"
	ModeLinesMarkers Mode = "lines+markers"
	ModeLines        Mode = "lines"
)

// Marker sizes.
const (
	MarkerStandard  = 6
	MarkerProminent = 10
)

// Axis labels.
const (
	LabelDate      = "Date"
	LabelSentiment = "Sentiment Score (-1 to 1)"
	LabelPrice     = "Price (USD)"
)

// Point is one (time, value) pair of a projected series.
type Point struct {
	Time  time.Time
	Value float64
}

// Series is an ascending-by-time series with its display rules.
type Series struct {
	Name         string
	Points       []Point
	Mode         Mode
	MarkerSize   int
	Fill         bool
	HoverMarkers bool
}

// Axis is a labelled axis with an optional fixed range.
type Axis struct {
	Label    string
	Min, Max float64
	Fixed    bool
}

// Spec is a complete chart description.
type Spec struct {
	Title        string
	X, Y         Axis
	Series       []Series
	Empty        bool
	EmptyMessage string
}

// Project sorts a copy of points ascending by time and applies the
// display rules for kind.
//
// Sentiment: one point is an isolated prominent marker with no line;
// two or more are a connected line with standard markers.
// Price: a continuous filled line with markers only on hover.
func Project(points []Point, kind Kind) Series {
	sorted := append([]Point(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	s := Series{Points: sorted}
	switch kind {
	case KindPrice:
		s.Name = "Price"
		s.Mode = ModeLines
		s.Fill = true
		s.HoverMarkers = true
	default:
		s.Name = "Sentiment"
		if len(sorted) == 1 {
			s.Mode = ModeMarkers
			s.MarkerSize = MarkerProminent
		} else {
			s.Mode = ModeLinesMarkers
			s.MarkerSize = MarkerStandard
		}
	}
	return s
}

// SentimentChart builds the sentiment history chart for ticker.
func SentimentChart(ticker string, pts []model.SentimentPoint) Spec {
	points := make([]Point, len(pts))
	for i, p := range pts {
		points[i] = Point{Time: p.Time, Value: p.Score}
	}
	spec := Spec{
		Title: fmt.Sprintf("Historical Sentiment for %s", ticker),
		X:     Axis{Label: LabelDate},
		Y:     Axis{Label: LabelSentiment, Min: -1, Max: 1, Fixed: true},
	}
	if len(points) == 0 {
		spec.Empty = true
		spec.EmptyMessage = fmt.Sprintf("No historical sentiment data for %s.", ticker)
		return spec
	}
	spec.Series = []Series{Project(points, KindSentiment)}
	return spec
}

// PriceChart builds the price chart for ticker over period p.
func PriceChart(ticker string, p period.Period, pts []model.PricePoint) Spec {
	points := make([]Point, len(pts))
	for i, pt := range pts {
		points[i] = Point{Time: pt.Time, Value: pt.Price}
	}
	title := fmt.Sprintf("Price History for %s", ticker)
	if p.Valid() {
		title = fmt.Sprintf("%s (%s)", title, p.Label())
	}
	spec := Spec{
		Title: title,
		X:     Axis{Label: LabelDate},
		Y:     Axis{Label: LabelPrice},
	}
	if len(points) == 0 {
		spec.Empty = true
		spec.EmptyMessage = fmt.Sprintf("No price data for %s.", ticker)
		return spec
	}
	spec.Series = []Series{Project(points, KindPrice)}
	return spec
}

// ForView returns the spec for the active chart of st, or false when no
// ticker is shown.
func ForView(st view.State) (Spec, bool) {
	if st.Ticker == "" {
		return Spec{}, false
	}
	if st.ActiveChart == view.ChartPrice {
		p := st.PricePeriod
		if p == "" {
			p = st.ActivePeriod
		}
		return PriceChart(st.Ticker, p, st.Prices), true
	}
	return SentimentChart(st.Ticker, st.History), true
}
