package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"StockSentiment/internal/model"
	"StockSentiment/internal/period"
)

// BackendFetcher implements Fetcher against the sentiment backend's REST API.
type BackendFetcher struct {
	BaseURL string
	Client  *http.Client
}

var (
	_ Fetcher     = (*BackendFetcher)(nil)
	_ NewsFetcher = (*BackendFetcher)(nil)
)

// NewBackendFetcher creates a fetcher with optional proxy support.
// timeout bounds each HTTP exchange.
func NewBackendFetcher(baseURL, proxyURL string, timeout time.Duration) *BackendFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &BackendFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (f *BackendFetcher) Name() string { return "backend" }

type articleJSON struct {
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	Source         string  `json:"source"`
	PublishedAt    string  `json:"publishedAt"`
	ImageURL       string  `json:"imageUrl"`
	SentimentScore float64 `json:"sentiment_score"`
	SentimentLabel string  `json:"sentiment_label"`
	Description    string  `json:"description"`
}

type sentimentResponse struct {
	Sentiment string        `json:"sentiment"`
	Score     float64       `json:"score"`
	Details   string        `json:"details"`
	ErrorCode string        `json:"error_code"`
	Articles  []articleJSON `json:"analyzed_articles"`
}

type newsResponse struct {
	Error    string        `json:"error"`
	Articles []articleJSON `json:"articles"`
}

type historyResponse struct {
	Ticker  string `json:"ticker"`
	History []struct {
		Timestamp string  `json:"timestamp"`
		Score     float64 `json:"score"`
	} `json:"history"`
}

type priceResponse struct {
	Ticker string `json:"ticker"`
	Error  string `json:"error"`
	Prices []struct {
		Timestamp string  `json:"timestamp"`
		Price     float64 `json:"price"`
	} `json:"prices"`
}

// FetchSentiment calls GET /analyze-ticker.
func (f *BackendFetcher) FetchSentiment(ctx context.Context, ticker string) (*model.SentimentResult, error) {
	var resp sentimentResponse
	if err := f.getJSON(ctx, "analyze sentiment", "/analyze-ticker", url.Values{"ticker": {ticker}}, &resp); err != nil {
		return nil, err
	}
	result := &model.SentimentResult{
		Label:     resp.Sentiment,
		Score:     resp.Score,
		Details:   resp.Details,
		ErrorCode: resp.ErrorCode,
		Articles:  make([]model.AnalyzedArticle, 0, len(resp.Articles)),
	}
	for _, a := range resp.Articles {
		result.Articles = append(result.Articles, a.toModel())
	}
	return result, nil
}

// FetchGeneralNews calls GET /general-news. An error field alongside an
// empty article list is returned as a ServerError.
func (f *BackendFetcher) FetchGeneralNews(ctx context.Context) ([]model.AnalyzedArticle, error) {
	const op = "fetch general news"
	var resp newsResponse
	if err := f.getJSON(ctx, op, "/general-news", url.Values{}, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" && len(resp.Articles) == 0 {
		return nil, &ServerError{Op: op, Status: http.StatusOK, Message: resp.Error}
	}
	articles := make([]model.AnalyzedArticle, 0, len(resp.Articles))
	for _, a := range resp.Articles {
		articles = append(articles, a.toModel())
	}
	return articles, nil
}

func (a articleJSON) toModel() model.AnalyzedArticle {
	published, _ := parseTimestamp(a.PublishedAt)
	return model.AnalyzedArticle{
		Title:          PlainText(a.Title),
		URL:            a.URL,
		Source:         PlainText(a.Source),
		PublishedAt:    published,
		SentimentScore: a.SentimentScore,
		ImageURL:       a.ImageURL,
		Description:    PlainText(a.Description),
		SentimentLabel: a.SentimentLabel,
	}
}

// FetchSentimentHistory calls GET /historical-sentiment. Points with
// unparsable timestamps are dropped.
func (f *BackendFetcher) FetchSentimentHistory(ctx context.Context, ticker string) ([]model.SentimentPoint, error) {
	var resp historyResponse
	if err := f.getJSON(ctx, "fetch sentiment history", "/historical-sentiment", url.Values{"ticker": {ticker}}, &resp); err != nil {
		return nil, err
	}
	points := make([]model.SentimentPoint, 0, len(resp.History))
	for _, h := range resp.History {
		ts, err := parseTimestamp(h.Timestamp)
		if err != nil {
			continue
		}
		points = append(points, model.SentimentPoint{Time: ts, Score: h.Score})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	return points, nil
}

// FetchPriceHistory calls GET /historical-price. An error field in a 200
// response is returned as a ServerError.
func (f *BackendFetcher) FetchPriceHistory(ctx context.Context, ticker string, from, to time.Time) ([]model.PricePoint, error) {
	const op = "fetch price history"
	q := url.Values{
		"ticker":    {ticker},
		"from_date": {from.Format(period.DateLayout)},
		"to_date":   {to.Format(period.DateLayout)},
	}
	var resp priceResponse
	if err := f.getJSON(ctx, op, "/historical-price", q, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" && len(resp.Prices) == 0 {
		return nil, &ServerError{Op: op, Status: http.StatusOK, Message: resp.Error}
	}
	points := make([]model.PricePoint, 0, len(resp.Prices))
	for _, p := range resp.Prices {
		ts, err := parseTimestamp(p.Timestamp)
		if err != nil || p.Price < 0 {
			continue
		}
		points = append(points, model.PricePoint{Time: ts, Price: p.Price})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	return points, nil
}

func (f *BackendFetcher) getJSON(ctx context.Context, op, path string, q url.Values, v any) error {
	endpoint := f.BaseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%s: new request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return Classify(op, f.Client.Timeout, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Classify(op, f.Client.Timeout, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerError{Op: op, Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, body)}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return &ServerError{Op: op, Status: resp.StatusCode, Message: "Invalid response format from server."}
	}
	return nil
}

// errorMessage extracts {"error": "..."} from a failure body, falling back
// to the status text.
func errorMessage(status int, body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return e.Error
	}
	return fmt.Sprintf("Server error: %d %s", status, http.StatusText(status))
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	period.DateLayout,
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
