package notifier

import (
	"fmt"
	"html"
	"strings"

	"StockSentiment/internal/calculator"
	"StockSentiment/internal/model"
	"StockSentiment/internal/view"
)

// maxArticles caps the headlines included in a summary.
const maxArticles = 3

func sentimentIcon(score float64) string {
	switch model.Classify(score) {
	case model.Positive:
		return "🟢"
	case model.Negative:
		return "🔴"
	default:
		return "🟡"
	}
}

// FormatAnalysis formats a settled analysis into a Telegram message.
func FormatAnalysis(st view.State) string {
	var b strings.Builder
	ticker := html.EscapeString(st.Ticker)

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> sentiment\n\n", ticker))

	switch r := st.Sentiment; {
	case st.Error != "":
		b.WriteString(fmt.Sprintf("⚠️ %s\n", html.EscapeString(st.Error)))
	case r != nil && st.NotConfigured:
		b.WriteString(fmt.Sprintf("⚙️ %s\n", html.EscapeString(r.Details)))
	case r != nil:
		b.WriteString(fmt.Sprintf("%s %s (Score: %s)\n", sentimentIcon(r.Score),
			html.EscapeString(r.Label), model.FormatScore(r.Score)))
		if r.ShowDetails() {
			b.WriteString(html.EscapeString(r.Details) + "\n")
		} else if r.Empty() {
			b.WriteString(model.NoArticlesFound + "\n")
		}
		for i, a := range r.Articles {
			if i == maxArticles {
				b.WriteString(fmt.Sprintf("  … %d more\n", len(r.Articles)-maxArticles))
				break
			}
			title := a.Title
			if strings.TrimSpace(title) == "" {
				title = "Untitled Article"
			}
			b.WriteString(fmt.Sprintf("  • %s (%s)\n", html.EscapeString(title), model.FormatScore(a.SentimentScore)))
		}
	}

	if len(st.History) > 0 {
		last := st.History[len(st.History)-1]
		b.WriteString(fmt.Sprintf("\n🕘 History: %d points, last %s\n", len(st.History), model.FormatScore(last.Score)))
	} else if st.HistoryErr != "" {
		b.WriteString(fmt.Sprintf("\n🕘 History: %s\n", html.EscapeString(st.HistoryErr)))
	}

	label := string(st.ActivePeriod)
	if st.PricePeriod != "" {
		label = st.PricePeriod.Label()
	}
	if s, ok := calculator.Summarize(st.Prices); ok {
		b.WriteString(fmt.Sprintf("\n💵 <b>Price</b> (%s)\n", label))
		b.WriteString(fmt.Sprintf("Last: %s | Change: %+.2f%%\n", model.FormatPrice(s.Last), s.ChangePct))
		b.WriteString(fmt.Sprintf("High: %s | Low: %s\n", model.FormatPrice(s.High), model.FormatPrice(s.Low)))
		if s.HasRSI {
			b.WriteString(fmt.Sprintf("RSI14: %.1f\n", s.RSI14))
		}
	} else if st.PriceErr != "" {
		b.WriteString(fmt.Sprintf("\n💵 Price: %s\n", html.EscapeString(st.PriceErr)))
	}

	return b.String()
}

// FormatRecent formats the recent search list.
func FormatRecent(list []string) string {
	if len(list) == 0 {
		return "🕘 No recent searches."
	}
	var b strings.Builder
	b.WriteString("🕘 <b>Recent searches</b>\n")
	for i, t := range list {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, html.EscapeString(t)))
	}
	return b.String()
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return "Commands:\n" +
		"/analyze SYMBOL - analyze a ticker\n" +
		"/recent - list recent searches\n" +
		"/period P - set price period (1M, 3M, 6M, YTD, 1Y, 5Y)\n" +
		"/status - show the current analysis"
}
