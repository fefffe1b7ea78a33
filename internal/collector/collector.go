package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"StockSentiment/internal/model"
	"StockSentiment/internal/period"
)

// MockFeed is the canned response set for one ticker.
type MockFeed struct {
	Sentiment    *model.SentimentResult
	SentimentErr error
	History      []model.SentimentPoint
	HistoryErr   error
	Prices       []model.PricePoint
	PriceErr     error
}

// MockFetcher returns controllable fixed data for development and testing.
// Hold gates fetches until the channel is closed or the context ends. A key
// is either a ticker, gating all of its feeds, or "<feed>:<ticker>" with feed
// one of sentiment, history, price or news ("news:" gates general news).
type MockFetcher struct {
	Feeds   map[string]MockFeed
	Default MockFeed
	News    []model.AnalyzedArticle
	NewsErr error
	Hold    map[string]chan struct{}

	mu    sync.Mutex
	calls []string
}

var (
	_ Fetcher     = (*MockFetcher)(nil)
	_ NewsFetcher = (*MockFetcher)(nil)
)

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchSentiment(ctx context.Context, ticker string) (*model.SentimentResult, error) {
	m.record("sentiment:" + ticker)
	if err := m.wait(ctx, "sentiment", ticker); err != nil {
		return nil, err
	}
	feed := m.feed(ticker)
	if feed.SentimentErr != nil {
		return nil, feed.SentimentErr
	}
	if feed.Sentiment == nil {
		return &model.SentimentResult{Label: "neutral", Details: fmt.Sprintf("No news articles found for %s.", ticker)}, nil
	}
	r := *feed.Sentiment
	return &r, nil
}

func (m *MockFetcher) FetchSentimentHistory(ctx context.Context, ticker string) ([]model.SentimentPoint, error) {
	m.record("history:" + ticker)
	if err := m.wait(ctx, "history", ticker); err != nil {
		return nil, err
	}
	feed := m.feed(ticker)
	if feed.HistoryErr != nil {
		return nil, feed.HistoryErr
	}
	return append([]model.SentimentPoint(nil), feed.History...), nil
}

func (m *MockFetcher) FetchPriceHistory(ctx context.Context, ticker string, from, to time.Time) ([]model.PricePoint, error) {
	m.record(fmt.Sprintf("price:%s:%s:%s", ticker, from.Format(period.DateLayout), to.Format(period.DateLayout)))
	if err := m.wait(ctx, "price", ticker); err != nil {
		return nil, err
	}
	feed := m.feed(ticker)
	if feed.PriceErr != nil {
		return nil, feed.PriceErr
	}
	return append([]model.PricePoint(nil), feed.Prices...), nil
}

func (m *MockFetcher) FetchGeneralNews(ctx context.Context) ([]model.AnalyzedArticle, error) {
	m.record("news:")
	if err := m.wait(ctx, "news", ""); err != nil {
		return nil, err
	}
	if m.NewsErr != nil {
		return nil, m.NewsErr
	}
	return append([]model.AnalyzedArticle(nil), m.News...), nil
}

// Calls returns the fetches made so far, in order.
func (m *MockFetcher) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount counts recorded fetches whose name starts with prefix.
func (m *MockFetcher) CallCount(prefix string) int {
	n := 0
	for _, c := range m.Calls() {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func (m *MockFetcher) record(call string) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
}

func (m *MockFetcher) feed(ticker string) MockFeed {
	if f, ok := m.Feeds[ticker]; ok {
		return f
	}
	return m.Default
}

func (m *MockFetcher) wait(ctx context.Context, feed, ticker string) error {
	ch, ok := m.Hold[feed+":"+ticker]
	if !ok {
		ch, ok = m.Hold[ticker]
	}
	if !ok {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// GenerateMockPrices returns count daily closes ending at end, drifting
// upward from basePrice.
func GenerateMockPrices(basePrice float64, count int, end time.Time) []model.PricePoint {
	points := make([]model.PricePoint, count)
	for i := 0; i < count; i++ {
		points[i] = model.PricePoint{
			Time:  end.AddDate(0, 0, -(count - 1 - i)),
			Price: basePrice * (1 + float64(i-count/2)*0.001),
		}
	}
	return points
}
