package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"StockSentiment/internal/collector"
	"StockSentiment/internal/kv"
	"StockSentiment/internal/model"
	"StockSentiment/internal/period"
	"StockSentiment/internal/recent"
	"StockSentiment/internal/recorder"
	"StockSentiment/internal/view"
)

var today = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type memRecorder struct {
	mu   sync.Mutex
	runs []recorder.Run
}

func (m *memRecorder) RecordRun(_ context.Context, r *recorder.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *r)
	return nil
}

func (m *memRecorder) ListRuns(_ context.Context, _ recorder.RunFilter) ([]recorder.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]recorder.Run(nil), m.runs...), nil
}

func (m *memRecorder) Close() error { return nil }

func articles(n int) []model.AnalyzedArticle {
	out := make([]model.AnalyzedArticle, n)
	for i := range out {
		out[i] = model.AnalyzedArticle{Title: "headline", URL: "https://example.com", Source: "Wire"}
	}
	return out
}

func newTestOrchestrator(t *testing.T, m *collector.MockFetcher) (*Orchestrator, *recent.Cache, *memRecorder) {
	t.Helper()
	cache := recent.New(kv.NewMemory(), "")
	rec := &memRecorder{}
	o := New(context.Background(), Deps{
		Sentiment:     m,
		History:       m,
		Prices:        m,
		Recent:        cache,
		Recorder:      rec,
		Now:           func() time.Time { return today },
		Timeout:       time.Second,
		DefaultPeriod: period.OneYear,
	})
	return o, cache, rec
}

func aaplFeed() collector.MockFeed {
	return collector.MockFeed{
		Sentiment: &model.SentimentResult{Label: "Positive", Score: 0.42, Articles: articles(3)},
		History:   []model.SentimentPoint{{Time: today.AddDate(0, 0, -1), Score: 0.3}},
		Prices:    collector.GenerateMockPrices(190, 30, today),
	}
}

func TestAnalyze_Success(t *testing.T) {
	m := &collector.MockFetcher{Feeds: map[string]collector.MockFeed{"AAPL": aaplFeed()}}
	o, cache, rec := newTestOrchestrator(t, m)

	st, err := o.Analyze(context.Background(), "  aapl ")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if st.Ticker != "AAPL" || st.Loading || st.PriceLoading {
		t.Errorf("state = %+v", st)
	}
	if st.ActiveChart != view.ChartSentiment {
		t.Errorf("chart = %s, want sentiment", st.ActiveChart)
	}
	if got := model.FormatScore(st.Sentiment.Score); got != "0.420" {
		t.Errorf("score = %s, want 0.420", got)
	}
	if len(st.History) != 1 || len(st.Prices) != 30 {
		t.Errorf("history=%d prices=%d", len(st.History), len(st.Prices))
	}
	if st.PricePeriod != period.OneYear || st.PriceRange.FromDate() != "2023-06-16" {
		t.Errorf("price period=%s range=%s", st.PricePeriod, st.PriceRange)
	}
	if list := cache.Load(context.Background()); len(list) == 0 || list[0] != "AAPL" {
		t.Errorf("recent = %v", list)
	}
	if len(st.Recent) == 0 || st.Recent[0] != "AAPL" {
		t.Errorf("state recent = %v", st.Recent)
	}
	if m.CallCount("price:AAPL:2023-06-16:2024-06-15") != 1 {
		t.Errorf("calls = %v", m.Calls())
	}
	if len(rec.runs) != 1 || rec.runs[0].Ticker != "AAPL" || rec.runs[0].ArticleCount != 3 {
		t.Errorf("runs = %+v", rec.runs)
	}
}

func TestAnalyze_NotConfigured(t *testing.T) {
	m := &collector.MockFetcher{Feeds: map[string]collector.MockFeed{
		"ZZZZ": {
			Sentiment: &model.SentimentResult{Label: "neutral", Details: "API key not configured"},
			Prices:    collector.GenerateMockPrices(10, 5, today),
		},
	}}
	o, cache, _ := newTestOrchestrator(t, m)

	st, err := o.Analyze(context.Background(), "ZZZZ")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if m.CallCount("history:") != 0 {
		t.Errorf("history fetched: %v", m.Calls())
	}
	if m.CallCount("price:ZZZZ") != 1 {
		t.Errorf("price not fetched: %v", m.Calls())
	}
	if list := cache.Load(context.Background()); len(list) != 0 {
		t.Errorf("recent = %v, want empty", list)
	}
	if !st.NotConfigured || !st.HistorySkipped {
		t.Errorf("state = %+v", st)
	}
	if st.ActiveChart != view.ChartPrice {
		t.Errorf("chart = %s, want price", st.ActiveChart)
	}
}

func TestAnalyze_NotConfiguredCustomPhrase(t *testing.T) {
	m := &collector.MockFetcher{Default: collector.MockFeed{
		Sentiment: &model.SentimentResult{Details: "news provider disabled"},
	}}
	o := New(context.Background(), Deps{
		Sentiment: m, History: m, Prices: m,
		Now:                 func() time.Time { return today },
		NotConfiguredPhrase: "Provider Disabled",
	})
	st, _ := o.Analyze(context.Background(), "IBM")
	if !st.NotConfigured || m.CallCount("history:") != 0 {
		t.Errorf("custom phrase not honoured: %+v", st)
	}
}

func TestAnalyze_EmptyTicker(t *testing.T) {
	m := &collector.MockFetcher{}
	o, _, rec := newTestOrchestrator(t, m)

	st, err := o.Analyze(context.Background(), "   ")
	if !errors.Is(err, model.ErrEmptyTicker) {
		t.Fatalf("err = %v, want ErrEmptyTicker", err)
	}
	if len(m.Calls()) != 0 {
		t.Errorf("fetches issued: %v", m.Calls())
	}
	if st.Error != "Please enter a stock ticker." || st.Loading {
		t.Errorf("state = %+v", st)
	}
	if len(rec.runs) != 0 {
		t.Error("invalid submit recorded")
	}
}

func TestAnalyze_SentimentFailureStillFetchesOthers(t *testing.T) {
	m := &collector.MockFetcher{Feeds: map[string]collector.MockFeed{
		"MSFT": {
			SentimentErr: &collector.ServerError{Op: "analyze", Status: 404, Message: "Ticker not found"},
			History:      []model.SentimentPoint{{Time: today, Score: 0.1}},
			Prices:       collector.GenerateMockPrices(400, 10, today),
		},
	}}
	o, cache, _ := newTestOrchestrator(t, m)

	st, _ := o.Analyze(context.Background(), "msft")
	if st.Error != "Ticker not found" || st.Sentiment != nil {
		t.Errorf("state = %+v", st)
	}
	if len(st.History) != 1 || len(st.Prices) != 10 {
		t.Errorf("history=%d prices=%d", len(st.History), len(st.Prices))
	}
	if st.ActiveChart != view.ChartPrice {
		t.Errorf("chart = %s, want price", st.ActiveChart)
	}
	if list := cache.Load(context.Background()); len(list) != 0 {
		t.Errorf("recent = %v, want empty", list)
	}
}

func TestAnalyze_PartialFailures(t *testing.T) {
	m := &collector.MockFetcher{Feeds: map[string]collector.MockFeed{
		"TSLA": {
			Sentiment:  &model.SentimentResult{Label: "neutral"},
			HistoryErr: &collector.NetworkError{Op: "history", Err: errors.New("refused")},
			PriceErr:   &collector.ServerError{Op: "price", Status: 200, Message: "No price data found"},
		},
	}}
	o, cache, _ := newTestOrchestrator(t, m)

	st, _ := o.Analyze(context.Background(), "TSLA")
	if st.HistoryErr != "No response from server. Is the backend running?" {
		t.Errorf("history err = %q", st.HistoryErr)
	}
	if st.PriceErr != "No price data found" || st.Prices != nil {
		t.Errorf("price err = %q prices=%v", st.PriceErr, st.Prices)
	}
	if st.ActiveChart != view.ChartSentiment {
		t.Errorf("chart = %s", st.ActiveChart)
	}
	if list := cache.Load(context.Background()); len(list) != 1 {
		t.Errorf("empty-article success not cached: %v", list)
	}
}

func TestAnalyze_NothingSucceeded(t *testing.T) {
	fail := errors.New("down")
	m := &collector.MockFetcher{Default: collector.MockFeed{SentimentErr: fail, HistoryErr: fail, PriceErr: fail}}
	o, _, _ := newTestOrchestrator(t, m)

	st, _ := o.Analyze(context.Background(), "X")
	if st.ActiveChart != view.ChartSentiment {
		t.Errorf("chart = %s, want sentiment", st.ActiveChart)
	}
}

func TestAnalyze_Timeout(t *testing.T) {
	hold := make(chan struct{})
	defer close(hold)
	m := &collector.MockFetcher{Hold: map[string]chan struct{}{"SLOW": hold}}
	o := New(context.Background(), Deps{
		Sentiment: m, History: m, Prices: m,
		Now:     func() time.Time { return today },
		Timeout: 30 * time.Millisecond,
	})

	st, err := o.Analyze(context.Background(), "SLOW")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	want := "Request timed out after 30ms."
	if st.Error != want || st.HistoryErr != want || st.PriceErr != want {
		t.Errorf("errors = %q / %q / %q", st.Error, st.HistoryErr, st.PriceErr)
	}
	if st.Loading || st.PriceLoading {
		t.Error("still loading after timeout")
	}
}

func TestAnalyze_StaleGenerationDiscarded(t *testing.T) {
	hold := make(chan struct{})
	m := &collector.MockFetcher{
		Feeds: map[string]collector.MockFeed{
			"AAPL": aaplFeed(),
			"MSFT": {
				Sentiment: &model.SentimentResult{Label: "negative", Score: -0.3},
				Prices:    collector.GenerateMockPrices(400, 3, today),
			},
		},
		Hold: map[string]chan struct{}{"AAPL": hold},
	}
	o, cache, rec := newTestOrchestrator(t, m)

	var staleErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, staleErr = o.Analyze(context.Background(), "AAPL")
	}()
	waitFor(t, func() bool { return m.CallCount("sentiment:AAPL") == 1 })

	if _, err := o.Analyze(context.Background(), "MSFT"); err != nil {
		t.Fatalf("Analyze MSFT: %v", err)
	}
	close(hold)
	<-done

	if !errors.Is(staleErr, ErrSuperseded) {
		t.Errorf("superseded Analyze err = %v, want ErrSuperseded", staleErr)
	}

	st := o.State()
	if st.Ticker != "MSFT" || st.Sentiment == nil || st.Sentiment.Label != "negative" {
		t.Errorf("newer analysis overwritten: %+v", st)
	}
	if len(st.Prices) != 3 {
		t.Errorf("prices = %d, want 3", len(st.Prices))
	}
	if list := cache.Load(context.Background()); len(list) != 1 || list[0] != "MSFT" {
		t.Errorf("recent = %v, want [MSFT]", list)
	}
	if m.CallCount("history:AAPL") != 0 || m.CallCount("price:AAPL") != 0 {
		t.Errorf("superseded analysis kept fetching: %v", m.Calls())
	}
	if len(rec.runs) != 1 || rec.runs[0].Ticker != "MSFT" {
		t.Errorf("runs = %+v", rec.runs)
	}
}

func TestAnalyze_LoadingClearsBeforePrice(t *testing.T) {
	hold := make(chan struct{})
	m := &collector.MockFetcher{
		Feeds: map[string]collector.MockFeed{"AAPL": aaplFeed()},
		Hold:  map[string]chan struct{}{"price:AAPL": hold},
	}
	o, _, _ := newTestOrchestrator(t, m)

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.Analyze(context.Background(), "AAPL")
	}()
	waitFor(t, func() bool {
		st := o.State()
		return st.Sentiment != nil && len(st.History) == 1 && m.CallCount("price:AAPL") == 1
	})

	st := o.State()
	if st.Loading || !st.PriceLoading {
		t.Errorf("loading=%v priceLoading=%v, want false/true", st.Loading, st.PriceLoading)
	}
	close(hold)
	<-done
	if st := o.State(); st.Busy() || len(st.Prices) != 30 {
		t.Errorf("busy=%v prices=%d", st.Busy(), len(st.Prices))
	}
}

func TestAnalyze_PriceWaitsForSentiment(t *testing.T) {
	hold := make(chan struct{})
	m := &collector.MockFetcher{
		Feeds: map[string]collector.MockFeed{"AAPL": aaplFeed()},
		Hold:  map[string]chan struct{}{"sentiment:AAPL": hold},
	}
	o, _, _ := newTestOrchestrator(t, m)

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.Analyze(context.Background(), "AAPL")
	}()
	waitFor(t, func() bool { return m.CallCount("sentiment:AAPL") == 1 })
	time.Sleep(20 * time.Millisecond)

	if m.CallCount("price:") != 0 || m.CallCount("history:") != 0 {
		t.Errorf("fetched before sentiment settled: %v", m.Calls())
	}
	close(hold)
	<-done
	if m.CallCount("price:") != 1 || m.CallCount("history:") != 1 {
		t.Errorf("calls = %v", m.Calls())
	}
}

func TestAnalyze_PriceDoesNotWaitForHistory(t *testing.T) {
	hold := make(chan struct{})
	m := &collector.MockFetcher{
		Feeds: map[string]collector.MockFeed{"AAPL": aaplFeed()},
		Hold:  map[string]chan struct{}{"history:AAPL": hold},
	}
	o, _, _ := newTestOrchestrator(t, m)

	done := make(chan struct{})
	go func() {
		defer close(done)
		o.Analyze(context.Background(), "AAPL")
	}()
	waitFor(t, func() bool { return len(o.State().Prices) == 30 })

	st := o.State()
	if st.PriceLoading || !st.Loading || st.History != nil {
		t.Errorf("priceLoading=%v loading=%v history=%d", st.PriceLoading, st.Loading, len(st.History))
	}
	close(hold)
	<-done
	if st := o.State(); st.Loading || len(st.History) != 1 {
		t.Errorf("loading=%v history=%d", st.Loading, len(st.History))
	}
}

func TestAnalyze_ConcurrentRecentMatchesCache(t *testing.T) {
	m := &collector.MockFetcher{Default: aaplFeed()}
	o, cache, _ := newTestOrchestrator(t, m)

	tickers := []string{"AAPL", "MSFT", "NVDA", "AMD", "TSLA", "META", "AMZN", "GOOG"}
	for round := 0; round < 5; round++ {
		var wg sync.WaitGroup
		for _, tk := range tickers {
			wg.Add(1)
			go func(tk string) {
				defer wg.Done()
				o.Analyze(context.Background(), tk)
			}(tk)
		}
		wg.Wait()

		got, want := o.Recent(), cache.Load(context.Background())
		if len(got) != len(want) {
			t.Fatalf("round %d: state recent %v, cache %v", round, got, want)
		}
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("round %d: state recent %v, cache %v", round, got, want)
			}
		}
	}
}

func TestChangePeriod_RefetchesPriceOnly(t *testing.T) {
	m := &collector.MockFetcher{Feeds: map[string]collector.MockFeed{"AAPL": aaplFeed()}}
	o, _, _ := newTestOrchestrator(t, m)
	if _, err := o.Analyze(context.Background(), "AAPL"); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	o.SelectChart(view.ChartPrice)

	st, err := o.ChangePeriod(context.Background(), period.YearToDate)
	if err != nil {
		t.Fatalf("ChangePeriod: %v", err)
	}
	if m.CallCount("sentiment:") != 1 || m.CallCount("history:") != 1 {
		t.Errorf("non-price feeds refetched: %v", m.Calls())
	}
	if m.CallCount("price:AAPL:2024-01-01:2024-06-15") != 1 {
		t.Errorf("YTD price not fetched: %v", m.Calls())
	}
	if st.ActivePeriod != period.YearToDate || st.PricePeriod != period.YearToDate || st.PriceLoading {
		t.Errorf("state = %+v", st)
	}
	if st.ActiveChart != view.ChartPrice {
		t.Errorf("chart changed to %s", st.ActiveChart)
	}
	if st.Sentiment == nil || len(st.History) != 1 {
		t.Error("sentiment results lost on period change")
	}
}

func TestChangePeriod_NoTicker(t *testing.T) {
	m := &collector.MockFetcher{}
	o, _, _ := newTestOrchestrator(t, m)

	st, err := o.ChangePeriod(context.Background(), period.SixMonths)
	if err != nil {
		t.Fatalf("ChangePeriod: %v", err)
	}
	if st.ActivePeriod != period.SixMonths || len(m.Calls()) != 0 {
		t.Errorf("period=%s calls=%v", st.ActivePeriod, m.Calls())
	}
	if _, err := o.ChangePeriod(context.Background(), "2W"); err == nil {
		t.Error("expected error for unknown period")
	}
}

func TestClear(t *testing.T) {
	m := &collector.MockFetcher{Feeds: map[string]collector.MockFeed{"AAPL": aaplFeed()}}
	o, _, _ := newTestOrchestrator(t, m)
	o.Analyze(context.Background(), "AAPL")
	o.ChangePeriod(context.Background(), period.OneMonth)
	o.SelectChart(view.ChartPrice)

	st := o.Clear()
	if st.Ticker != "" || st.Sentiment != nil || st.History != nil || st.Prices != nil || st.Error != "" {
		t.Errorf("not cleared: %+v", st)
	}
	if st.ActiveChart != view.ChartSentiment || st.ActivePeriod != period.OneYear {
		t.Errorf("chart=%s period=%s", st.ActiveChart, st.ActivePeriod)
	}
	if len(o.Recent()) != 1 {
		t.Error("clear dropped the recent list")
	}
}

func TestSelectRecent(t *testing.T) {
	m := &collector.MockFetcher{Default: aaplFeed()}
	cache := recent.New(kv.NewMemory(), "")
	cache.Add(context.Background(), "NVDA")
	cache.Add(context.Background(), "AMD")
	o := New(context.Background(), Deps{
		Sentiment: m, History: m, Prices: m, Recent: cache,
		Now: func() time.Time { return today },
	})

	if got := o.Recent(); len(got) != 2 || got[0] != "AMD" {
		t.Fatalf("recent = %v", got)
	}
	st, err := o.SelectRecent(context.Background(), 1)
	if err != nil {
		t.Fatalf("SelectRecent: %v", err)
	}
	if st.Ticker != "NVDA" || m.CallCount("sentiment:NVDA") != 1 {
		t.Errorf("ticker=%s calls=%v", st.Ticker, m.Calls())
	}
	if got := o.Recent(); got[0] != "NVDA" {
		t.Errorf("recent = %v, want NVDA first", got)
	}
	if _, err := o.SelectRecent(context.Background(), 9); !errors.Is(err, ErrNoRecent) {
		t.Errorf("err = %v, want ErrNoRecent", err)
	}
}

func TestSubscribe(t *testing.T) {
	m := &collector.MockFetcher{Default: aaplFeed()}
	o, _, _ := newTestOrchestrator(t, m)

	var mu sync.Mutex
	var maxVersion uint64
	var count int
	o.Subscribe(func(st view.State) {
		mu.Lock()
		defer mu.Unlock()
		count++
		if st.Version > maxVersion {
			maxVersion = st.Version
		}
	})

	o.Analyze(context.Background(), "AAPL")
	mu.Lock()
	defer mu.Unlock()
	if count == 0 || maxVersion != o.State().Version {
		t.Errorf("count=%d maxVersion=%d state version=%d", count, maxVersion, o.State().Version)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}
