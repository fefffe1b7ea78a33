package render

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"StockSentiment/internal/calculator"
	"StockSentiment/internal/chart"
	"StockSentiment/internal/model"
	"StockSentiment/internal/period"
	"StockSentiment/internal/view"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4")).Padding(0, 1)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	axisStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	plotStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	positiveStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	negativeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	neutralStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	tickerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	activeTab     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6")).Padding(0, 1)
	inactiveTab   = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 1)
)

// Options controls View layout.
type Options struct {
	Width       int
	ChartHeight int
	// Input is the pre-rendered ticker input line, if any.
	Input string
	// MaxArticles caps the article list; zero shows all.
	MaxArticles int
}

// UntitledArticle and NotAvailable replace missing article fields.
const (
	UntitledArticle = "Untitled Article"
	NotAvailable    = "N/A"
)

func sentimentStyle(score float64) lipgloss.Style {
	switch model.Classify(score) {
	case model.Positive:
		return positiveStyle
	case model.Negative:
		return negativeStyle
	default:
		return neutralStyle
	}
}

// View renders the whole session state.
func View(st view.State, opts Options) string {
	if opts.Width <= 0 {
		opts.Width = 80
	}
	if opts.ChartHeight <= 0 {
		opts.ChartHeight = 10
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("Stock Sentiment"))
	b.WriteString("\n\n")
	if opts.Input != "" {
		b.WriteString(opts.Input)
		b.WriteString("\n\n")
	}
	if st.Error != "" {
		b.WriteString(errorStyle.Render(st.Error))
		b.WriteString("\n\n")
	}
	if st.Ticker == "" {
		writeRecent(&b, st.Recent)
		return b.String()
	}

	if st.Loading && st.Sentiment == nil && st.Error == "" {
		b.WriteString(dimStyle.Render(fmt.Sprintf("Analyzing %s...", st.Ticker)))
		b.WriteString("\n\n")
	}
	writeSentiment(&b, st, opts)

	b.WriteString(tabs(st))
	b.WriteString("\n\n")
	if spec, ok := chart.ForView(st); ok {
		switch {
		case st.ActiveChart == view.ChartPrice && st.PriceLoading:
			b.WriteString(dimStyle.Render("Loading price data..."))
		case st.ActiveChart == view.ChartPrice && st.PriceErr != "":
			b.WriteString(errorStyle.Render(st.PriceErr))
		case st.ActiveChart == view.ChartSentiment && st.HistorySkipped:
			b.WriteString(dimStyle.Render("Historical sentiment unavailable."))
		case st.ActiveChart == view.ChartSentiment && st.HistoryErr != "":
			b.WriteString(errorStyle.Render(st.HistoryErr))
		case st.ActiveChart == view.ChartSentiment && st.Loading && len(st.History) == 0:
			b.WriteString(dimStyle.Render("Loading sentiment history..."))
		default:
			b.WriteString(Chart(spec, opts.Width, opts.ChartHeight))
		}
		b.WriteString("\n")
	}
	if st.ActiveChart == view.ChartPrice && !st.PriceLoading {
		if stats := priceStats(st.Prices); stats != "" {
			b.WriteString(stats)
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")
	writeRecent(&b, st.Recent)
	return b.String()
}

func writeSentiment(b *strings.Builder, st view.State, opts Options) {
	r := st.Sentiment
	if r == nil {
		return
	}
	if st.NotConfigured {
		b.WriteString(warnStyle.Render(r.Details))
		b.WriteString("\n\n")
		return
	}
	label := r.Label
	if label == "" {
		label = string(model.Classify(r.Score))
	}
	fmt.Fprintf(b, "Sentiment for %s: %s %s\n",
		tickerStyle.Render(st.Ticker),
		sentimentStyle(r.Score).Render(capitalize(label)),
		dimStyle.Render(fmt.Sprintf("(Score: %s)", model.FormatScore(r.Score))))
	switch {
	case r.ShowDetails():
		b.WriteString(dimStyle.Render(r.Details))
		b.WriteString("\n")
	case r.Empty():
		b.WriteString(dimStyle.Render(model.NoArticlesFound))
		b.WriteString("\n")
	}

	articles := r.Articles
	if opts.MaxArticles > 0 && len(articles) > opts.MaxArticles {
		articles = articles[:opts.MaxArticles]
	}
	if len(articles) > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("Analyzed Articles"))
		b.WriteString("\n")
	}
	for i, a := range articles {
		fmt.Fprintf(b, "%2d. %s\n", i+1, ArticleTitle(a))
		fmt.Fprintf(b, "    %s  %s  %s\n",
			dimStyle.Render(ArticleSource(a)),
			dimStyle.Render(ArticleDate(a)),
			sentimentStyle(a.SentimentScore).Render(model.FormatScore(a.SentimentScore)))
		if a.URL != "" {
			b.WriteString("    " + dimStyle.Render(a.URL) + "\n")
		}
	}
	if extra := len(r.Articles) - len(articles); extra > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("    ... and %d more", extra)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// ArticleTitle returns the display title of a.
func ArticleTitle(a model.AnalyzedArticle) string {
	if strings.TrimSpace(a.Title) == "" {
		return UntitledArticle
	}
	return a.Title
}

// ArticleSource returns the display source of a.
func ArticleSource(a model.AnalyzedArticle) string {
	if strings.TrimSpace(a.Source) == "" {
		return NotAvailable
	}
	return a.Source
}

// ArticleDate returns the display publication date of a.
func ArticleDate(a model.AnalyzedArticle) string {
	if a.PublishedAt.IsZero() {
		return NotAvailable
	}
	return a.PublishedAt.Format(period.DateLayout)
}

func tabs(st view.State) string {
	tab := func(label string, active bool) string {
		if active {
			return activeTab.Render(label)
		}
		return inactiveTab.Render(label)
	}
	parts := []string{
		tab("Sentiment", st.ActiveChart == view.ChartSentiment),
		tab("Price", st.ActiveChart == view.ChartPrice),
		"  ",
	}
	for _, p := range period.All {
		parts = append(parts, tab(string(p), p == st.ActivePeriod))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func priceStats(points []model.PricePoint) string {
	s, ok := calculator.Summarize(points)
	if !ok {
		return ""
	}
	change := fmt.Sprintf("%+.2f%%", s.ChangePct)
	changeStyle := positiveStyle
	if s.ChangePct < 0 {
		changeStyle = negativeStyle
	}
	parts := []string{
		"Last " + model.FormatPrice(s.Last),
		"High " + model.FormatPrice(s.High),
		"Low " + model.FormatPrice(s.Low),
		"Change " + changeStyle.Render(change),
	}
	if s.HasSMA {
		parts = append(parts, "SMA20 "+model.FormatPrice(s.SMA20))
	}
	if s.HasSMA50 {
		parts = append(parts, "SMA50 "+model.FormatPrice(s.SMA50))
	}
	if s.HasRSI {
		parts = append(parts, fmt.Sprintf("RSI14 %.1f", s.RSI14))
	}
	return strings.Join(parts, "  ")
}

func writeRecent(b *strings.Builder, list []string) {
	if len(list) == 0 {
		return
	}
	b.WriteString(dimStyle.Render("Recent: "))
	for i, t := range list {
		if i > 0 {
			b.WriteString(dimStyle.Render(" · "))
		}
		b.WriteString(tickerStyle.Render(t))
	}
	b.WriteString("\n")
}
