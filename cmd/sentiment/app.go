package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"StockSentiment/internal/collector"
	"StockSentiment/internal/config"
	"StockSentiment/internal/kv"
	"StockSentiment/internal/model"
	"StockSentiment/internal/orchestrator"
	"StockSentiment/internal/recent"
	"StockSentiment/internal/recorder"
)

// App wires configuration to the orchestrator and its collaborators.
type App struct {
	Config   *config.Config
	Store    kv.Store
	Recent   *recent.Cache
	Recorder recorder.Recorder
	Orch     *orchestrator.Orchestrator
	// News is nil when the sentiment feed cannot list general headlines.
	News collector.NewsFetcher

	closers []io.Closer
}

// NewApp builds the application from cfg.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	store, err := app.openStore(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store
	app.Recent = recent.New(store, cfg.Store.Key)
	app.Recorder = app.openRecorder()

	feeds, prices := app.fetchers()
	app.News, _ = feeds.(collector.NewsFetcher)
	log.Printf("[INFO] feeds: %s, prices: %s", feeds.Name(), priceName(prices))

	app.Orch = orchestrator.New(ctx, orchestrator.Deps{
		Sentiment:           feeds,
		History:             feeds,
		Prices:              prices,
		Recent:              app.Recent,
		Recorder:            app.Recorder,
		Timeout:             cfg.Backend.Timeout,
		NotConfiguredPhrase: cfg.Backend.NotConfiguredPhrase,
		DefaultPeriod:       cfg.DefaultPeriod(),
	})
	return app, nil
}

func (a *App) openStore(ctx context.Context) (kv.Store, error) {
	cfg := a.Config.Store
	switch cfg.Kind {
	case config.StoreMemory:
		return kv.NewMemory(), nil
	case config.StoreSQLite:
		if err := ensureDir(cfg.Path); err != nil {
			return nil, err
		}
		s, err := kv.NewSQLite(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		a.closers = append(a.closers, s)
		return s, nil
	case config.StoreRedis:
		s, err := kv.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		a.closers = append(a.closers, s)
		return s, nil
	default:
		return kv.NewFile(cfg.Path), nil
	}
}

func (a *App) openRecorder() recorder.Recorder {
	path := a.Config.Database.SQLitePath
	if path == "" {
		return recorder.NewNoopRecorder()
	}
	if err := ensureDir(path); err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(path)
	if err != nil {
		log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
		return recorder.NewNoopRecorder()
	}
	a.closers = append(a.closers, sr)
	return sr
}

func (a *App) fetchers() (collector.Fetcher, collector.PriceFetcher) {
	cfg := a.Config
	var feeds collector.Fetcher
	if cfg.Backend.Mock {
		feeds = demoFetcher(time.Now())
	} else {
		feeds = collector.NewBackendFetcher(cfg.Backend.BaseURL, cfg.Proxy, cfg.Backend.Timeout)
	}

	switch cfg.PriceSource {
	case config.PriceYahoo:
		return feeds, collector.NewYahooFetcher(cfg.Proxy, cfg.Backend.Timeout)
	case config.PriceMock:
		return feeds, demoFetcher(time.Now())
	default:
		return feeds, feeds
	}
}

// Close releases stores and the recorder.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Printf("[WARN] close: %v", err)
		}
	}
	a.closers = nil
}

// demoFetcher serves canned data for offline use.
func demoFetcher(now time.Time) *collector.MockFetcher {
	day := now.Truncate(24 * time.Hour)
	history := make([]model.SentimentPoint, 0, 7)
	for i := 6; i >= 0; i-- {
		history = append(history, model.SentimentPoint{
			Time:  day.AddDate(0, 0, -i),
			Score: 0.05 * float64(3-i%4),
		})
	}
	return &collector.MockFetcher{
		Default: collector.MockFeed{
			Sentiment: &model.SentimentResult{
				Label: "positive",
				Score: 0.42,
				Articles: []model.AnalyzedArticle{
					{Title: "Demo headline: earnings beat expectations", Source: "Demo Wire", PublishedAt: day, SentimentScore: 0.61},
					{Title: "Demo headline: analysts stay cautious", Source: "Demo Wire", PublishedAt: day.AddDate(0, 0, -1), SentimentScore: -0.12},
				},
			},
			History: history,
			Prices:  collector.GenerateMockPrices(150, 260, day),
		},
		News: []model.AnalyzedArticle{
			{Title: "Demo headline: markets open higher", Description: "Futures point to a firm start.", Source: "Demo Wire", PublishedAt: day, SentimentScore: 0.34, SentimentLabel: "positive"},
			{Title: "Demo headline: oil slips on supply worries", Source: "Demo Wire", PublishedAt: day, SentimentScore: -0.21, SentimentLabel: "negative"},
		},
	}
}

func priceName(p collector.PriceFetcher) string {
	if n, ok := p.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "custom"
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}
