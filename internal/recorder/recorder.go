package recorder

import (
	"context"
	"time"

	"StockSentiment/internal/view"

	"github.com/google/uuid"
)

// Run is one settled analysis as stored in the audit log.
type Run struct {
	ID             string  `db:"id"`
	RecordedAt     int64   `db:"recorded_at"`
	Ticker         string  `db:"ticker"`
	Label          string  `db:"label"`
	Score          float64 `db:"score"`
	ArticleCount   int     `db:"article_count"`
	NotConfigured  bool    `db:"not_configured"`
	SentimentError string  `db:"sentiment_error"`
	HistoryPoints  int     `db:"history_points"`
	HistoryError   string  `db:"history_error"`
	Period         string  `db:"period"`
	PricePoints    int     `db:"price_points"`
	PriceError     string  `db:"price_error"`
	LastPrice      float64 `db:"last_price"`
	Chart          string  `db:"chart"`
}

// Time returns RecordedAt as a time.Time.
func (r Run) Time() time.Time { return time.Unix(r.RecordedAt, 0) }

// RunFilter narrows ListRuns. Zero values mean no filter; Limit <= 0 means
// DefaultListLimit.
type RunFilter struct {
	Ticker string
	Since  time.Time
	Limit  int
}

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 20

// FromState captures a settled view state as a Run with a fresh ID.
func FromState(st view.State, at time.Time) *Run {
	run := &Run{
		ID:             uuid.NewString(),
		RecordedAt:     at.Unix(),
		Ticker:         st.Ticker,
		NotConfigured:  st.NotConfigured,
		SentimentError: st.Error,
		HistoryPoints:  len(st.History),
		HistoryError:   st.HistoryErr,
		Period:         string(st.PricePeriod),
		PricePoints:    len(st.Prices),
		PriceError:     st.PriceErr,
		Chart:          string(st.ActiveChart),
	}
	if st.Sentiment != nil {
		run.Label = st.Sentiment.Label
		run.Score = st.Sentiment.Score
		run.ArticleCount = len(st.Sentiment.Articles)
	}
	if n := len(st.Prices); n > 0 {
		run.LastPrice = st.Prices[n-1].Price
	}
	return run
}

// Recorder persists settled analyses for later review.
type Recorder interface {
	RecordRun(ctx context.Context, run *Run) error
	ListRuns(ctx context.Context, f RunFilter) ([]Run, error)
	Close() error
}
