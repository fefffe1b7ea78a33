package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Sentiment is the coarse classification of a score.
type Sentiment string

const (
	Positive Sentiment = "positive"
	Neutral  Sentiment = "neutral"
	Negative Sentiment = "negative"
)

// Classify maps a score in [-1,1] to a Sentiment (>0.05 positive, <-0.05 negative).
func Classify(score float64) Sentiment {
	switch {
	case score > 0.05:
		return Positive
	case score < -0.05:
		return Negative
	default:
		return Neutral
	}
}

// AnalyzedArticle is one scored news article backing a SentimentResult.
type AnalyzedArticle struct {
	Title          string
	URL            string
	Source         string
	PublishedAt    time.Time
	SentimentScore float64
	ImageURL       string

	// Set on general news listings only.
	Description    string
	SentimentLabel string
}

// SentimentResult is the point-in-time verdict for a ticker.
type SentimentResult struct {
	Label     string
	Score     float64
	Details   string
	ErrorCode string // structured code from the backend, if it sends one
	Articles  []AnalyzedArticle
}

// NoArticlesFound is shown for a result with neither articles nor details.
const NoArticlesFound = "No news articles found."

// ShowDetails reports whether Details should be displayed.
// Details are only surfaced when no articles were analyzed.
func (r *SentimentResult) ShowDetails() bool {
	return r != nil && r.Details != "" && len(r.Articles) == 0
}

// Empty reports whether the result carries nothing to explain itself.
func (r *SentimentResult) Empty() bool {
	return r != nil && len(r.Articles) == 0 && strings.TrimSpace(r.Details) == ""
}

// SentimentPoint is one historical sentiment measurement.
type SentimentPoint struct {
	Time  time.Time
	Score float64
}

// FormatScore renders a score with three decimals ("0.420").
func FormatScore(score float64) string {
	return decimal.NewFromFloat(score).StringFixed(3)
}
