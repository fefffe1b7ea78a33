package collector

import (
	"context"
	"time"

	"StockSentiment/internal/model"
)

// SentimentFetcher retrieves the current sentiment verdict for a ticker.
type SentimentFetcher interface {
	FetchSentiment(ctx context.Context, ticker string) (*model.SentimentResult, error)
}

// HistoryFetcher retrieves past sentiment verdicts for a ticker.
type HistoryFetcher interface {
	FetchSentimentHistory(ctx context.Context, ticker string) ([]model.SentimentPoint, error)
}

// PriceFetcher retrieves daily closing prices for a ticker within [from, to].
type PriceFetcher interface {
	FetchPriceHistory(ctx context.Context, ticker string, from, to time.Time) ([]model.PricePoint, error)
}

// NewsFetcher retrieves the scored general market headlines.
type NewsFetcher interface {
	FetchGeneralNews(ctx context.Context) ([]model.AnalyzedArticle, error)
}

// Fetcher serves all three feeds.
type Fetcher interface {
	SentimentFetcher
	HistoryFetcher
	PriceFetcher
	Name() string
}
