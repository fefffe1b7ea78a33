package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"StockSentiment/internal/model"
)

func newBackend(t *testing.T, handler http.HandlerFunc) *BackendFetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewBackendFetcher(srv.URL, "", 2*time.Second)
}

func TestBackend_FetchSentiment(t *testing.T) {
	f := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/analyze-ticker" || r.URL.Query().Get("ticker") != "AAPL" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		fmt.Fprint(w, `{"sentiment":"positive","score":0.42,"details":"d",
			"analyzed_articles":[{"title":"<b>Apple</b> &amp; Co","url":"u","source":"Reuters",
			"publishedAt":"2024-01-02T10:00:00Z","imageUrl":"i","sentiment_score":0.5}]}`)
	})

	r, err := f.FetchSentiment(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("FetchSentiment: %v", err)
	}
	if r.Label != "positive" || r.Score != 0.42 || r.Details != "d" {
		t.Errorf("got %+v", r)
	}
	if len(r.Articles) != 1 {
		t.Fatalf("articles = %d, want 1", len(r.Articles))
	}
	a := r.Articles[0]
	if a.Title != "Apple & Co" {
		t.Errorf("title = %q, want %q", a.Title, "Apple & Co")
	}
	if a.PublishedAt.IsZero() || a.ImageURL != "i" || a.SentimentScore != 0.5 {
		t.Errorf("article = %+v", a)
	}
}

func TestBackend_HistorySortedAscending(t *testing.T) {
	f := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ticker":"AAPL","history":[
			{"timestamp":"2024-01-03T00:00:00Z","score":0.3},
			{"timestamp":"garbage","score":0.9},
			{"timestamp":"2024-01-01","score":0.1}]}`)
	})

	pts, err := f.FetchSentimentHistory(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("FetchSentimentHistory: %v", err)
	}
	if len(pts) != 2 {
		t.Fatalf("points = %d, want 2", len(pts))
	}
	if !pts[0].Time.Before(pts[1].Time) || pts[0].Score != 0.1 {
		t.Errorf("not ascending: %+v", pts)
	}
}

func TestBackend_PriceQuery(t *testing.T) {
	f := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("from_date") != "2024-01-01" || q.Get("to_date") != "2024-06-15" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"ticker":"AAPL","prices":[{"timestamp":"2024-01-02","price":185.5}]}`)
	})

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	pts, err := f.FetchPriceHistory(context.Background(), "AAPL", from, to)
	if err != nil {
		t.Fatalf("FetchPriceHistory: %v", err)
	}
	if len(pts) != 1 || pts[0].Price != 185.5 {
		t.Errorf("got %+v", pts)
	}
}

func TestBackend_PriceErrorIn200(t *testing.T) {
	f := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ticker":"ZZZZ","prices":[],"error":"No price data found"}`)
	})

	_, err := f.FetchPriceHistory(context.Background(), "ZZZZ", time.Now(), time.Now())
	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want ServerError", err)
	}
	if Describe(err) != "No price data found" {
		t.Errorf("Describe = %q", Describe(err))
	}
}

func TestBackend_FetchGeneralNews(t *testing.T) {
	f := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/general-news" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		fmt.Fprint(w, `{"articles":[{"title":"Stocks rally","url":"u","source":"Wire",
			"description":"Markets &amp; more","publishedAt":"2024-01-02T10:00:00Z",
			"sentiment_score":0.31,"sentiment_label":"positive"}]}`)
	})

	articles, err := f.FetchGeneralNews(context.Background())
	if err != nil {
		t.Fatalf("FetchGeneralNews: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("articles = %d, want 1", len(articles))
	}
	a := articles[0]
	if a.Description != "Markets & more" || a.SentimentLabel != "positive" || a.SentimentScore != 0.31 {
		t.Errorf("article = %+v", a)
	}
}

func TestBackend_GeneralNewsNotConfigured(t *testing.T) {
	f := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":"News API key not configured.","articles":[]}`)
	})

	_, err := f.FetchGeneralNews(context.Background())
	if Describe(err) != "News API key not configured." {
		t.Errorf("Describe = %q", Describe(err))
	}
}

func TestBackend_ErrorBodies(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"json error", http.StatusNotFound, `{"error":"Ticker not found"}`, "Ticker not found"},
		{"plain body", http.StatusInternalServerError, `oops`, "Server error: 500 Internal Server Error"},
		{"bad json on 200", http.StatusOK, `not json`, "Invalid response format from server."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})
			_, err := f.FetchSentiment(context.Background(), "AAPL")
			var se *ServerError
			if !errors.As(err, &se) {
				t.Fatalf("err = %v, want ServerError", err)
			}
			if got := Describe(err); got != tt.want {
				t.Errorf("Describe = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBackend_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := NewBackendFetcher(srv.URL, "", 50*time.Millisecond)
	_, err := f.FetchSentimentHistory(context.Background(), "AAPL")
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TimeoutError", err)
	}
	if !strings.HasPrefix(Describe(err), "Request timed out") {
		t.Errorf("Describe = %q", Describe(err))
	}
}

func TestBackend_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	f := NewBackendFetcher(addr, "", time.Second)
	_, err := f.FetchSentiment(context.Background(), "AAPL")
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("err = %v, want NetworkError", err)
	}
	if Describe(err) != "No response from server. Is the backend running?" {
		t.Errorf("Describe = %q", Describe(err))
	}
}

func TestClassify(t *testing.T) {
	se := &ServerError{Op: "x", Status: 500, Message: "m"}
	if Classify("op", 0, se) != se {
		t.Error("classified error should pass through")
	}
	if Classify("op", 0, nil) != nil {
		t.Error("nil should stay nil")
	}
	var te *TimeoutError
	if !errors.As(Classify("op", time.Second, context.DeadlineExceeded), &te) || te.After != time.Second {
		t.Error("deadline should become TimeoutError")
	}
	if !errors.Is(Classify("op", 0, context.Canceled), context.Canceled) {
		t.Error("cancel should pass through")
	}
	var ne *NetworkError
	if !errors.As(Classify("op", 0, errors.New("dial tcp: refused")), &ne) {
		t.Error("other errors should become NetworkError")
	}
}

func TestDescribe_EmptyTicker(t *testing.T) {
	if got := Describe(model.ErrEmptyTicker); got != "Please enter a stock ticker." {
		t.Errorf("Describe = %q", got)
	}
	if Describe(nil) != "" {
		t.Error("nil should describe as empty")
	}
}

func TestIsNotConfigured(t *testing.T) {
	tests := []struct {
		name   string
		r      *model.SentimentResult
		phrase string
		want   bool
	}{
		{"nil", nil, "", false},
		{"phrase", &model.SentimentResult{Details: "News API key NOT CONFIGURED on server"}, "", true},
		{"code", &model.SentimentResult{ErrorCode: "not_configured", Details: "x"}, "", true},
		{"custom phrase", &model.SentimentResult{Details: "missing api key"}, "Missing API Key", true},
		{"plain", &model.SentimentResult{Details: "No news articles found"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotConfigured(tt.r, tt.phrase); got != tt.want {
				t.Errorf("IsNotConfigured = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlainText(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Plain title", "Plain title"},
		{"  spaced  ", "spaced"},
		{"<p>Hello <i>world</i></p>", "Hello world"},
		{"AT&amp;T beats", "AT&T beats"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := PlainText(tt.in); got != tt.want {
			t.Errorf("PlainText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestYahoo_FetchPriceHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "%5EGSPC") && !strings.Contains(r.URL.Path, "^GSPC") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("interval") != "1d" || r.URL.Query().Get("period1") == "" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"chart":{"result":[{"timestamp":[1704240000,1704153600,1704326400],
			"indicators":{"quote":[{"close":[101.5,100.0,null]}]}}],"error":null}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("", time.Second)
	f.BaseURL = srv.URL
	pts, err := f.FetchPriceHistory(context.Background(), "SPX500", time.Unix(1704067200, 0), time.Unix(1704326400, 0))
	if err != nil {
		t.Fatalf("FetchPriceHistory: %v", err)
	}
	if len(pts) != 2 {
		t.Fatalf("points = %d, want 2", len(pts))
	}
	if pts[0].Price != 100.0 || pts[1].Price != 101.5 {
		t.Errorf("not ascending: %+v", pts)
	}
}

func TestYahoo_ChartError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("", time.Second)
	f.BaseURL = srv.URL
	_, err := f.FetchPriceHistory(context.Background(), "ZZZZ", time.Now(), time.Now())
	if Describe(err) != "No data found, symbol may be delisted" {
		t.Errorf("Describe = %q", Describe(err))
	}
}

func TestMockFetcher_FeedsAndHold(t *testing.T) {
	hold := make(chan struct{})
	m := &MockFetcher{
		Feeds: map[string]MockFeed{
			"AAPL": {Sentiment: &model.SentimentResult{Label: "positive", Score: 0.4}},
		},
		Default: MockFeed{HistoryErr: errors.New("boom")},
		Hold:    map[string]chan struct{}{"SLOW": hold},
	}

	r, err := m.FetchSentiment(context.Background(), "AAPL")
	if err != nil || r.Label != "positive" {
		t.Fatalf("got %+v, %v", r, err)
	}
	if _, err := m.FetchSentimentHistory(context.Background(), "MSFT"); err == nil {
		t.Error("default feed error not returned")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := m.FetchSentiment(ctx, "SLOW"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("held fetch err = %v", err)
	}

	if m.CallCount("sentiment:") != 2 || m.CallCount("history:") != 1 {
		t.Errorf("calls = %v", m.Calls())
	}
}

func TestMockFetcher_HoldSingleFeed(t *testing.T) {
	hold := make(chan struct{})
	m := &MockFetcher{
		Default: MockFeed{Prices: GenerateMockPrices(10, 3, time.Now())},
		Hold:    map[string]chan struct{}{"price:AAPL": hold},
	}

	if _, err := m.FetchSentiment(context.Background(), "AAPL"); err != nil {
		t.Fatalf("sentiment gated by price hold: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := m.FetchPriceHistory(ctx, "AAPL", time.Now(), time.Now()); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("held price err = %v", err)
	}

	close(hold)
	pts, err := m.FetchPriceHistory(context.Background(), "AAPL", time.Now(), time.Now())
	if err != nil || len(pts) != 3 {
		t.Errorf("released price = %d, %v", len(pts), err)
	}
}

func TestGenerateMockPrices(t *testing.T) {
	end := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	pts := GenerateMockPrices(100, 10, end)
	if len(pts) != 10 {
		t.Fatalf("len = %d", len(pts))
	}
	if !pts[9].Time.Equal(end) {
		t.Errorf("last = %v, want %v", pts[9].Time, end)
	}
	for i := 1; i < len(pts); i++ {
		if !pts[i-1].Time.Before(pts[i].Time) {
			t.Fatalf("not ascending at %d", i)
		}
	}
}
