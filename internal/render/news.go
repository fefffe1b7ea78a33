package render

import (
	"fmt"
	"strings"

	"StockSentiment/internal/model"
)

const (
	// NoGeneralNews is shown when the headline listing is empty.
	NoGeneralNews = "No news articles found at the moment. Try again later."
	// NoDescription stands in for a missing article description.
	NoDescription = "No description available."
)

// News renders the general market headline listing. limit caps the list;
// zero shows all.
func News(articles []model.AnalyzedArticle, limit int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Latest Business & Market News"))
	b.WriteString("\n\n")
	if len(articles) == 0 {
		b.WriteString(dimStyle.Render(NoGeneralNews))
		b.WriteString("\n")
		return b.String()
	}
	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	for i, a := range articles {
		fmt.Fprintf(&b, "%2d. %s\n", i+1, ArticleTitle(a))
		desc := a.Description
		if strings.TrimSpace(desc) == "" {
			desc = NoDescription
		}
		b.WriteString("    " + desc + "\n")
		label := a.SentimentLabel
		if label == "" {
			label = string(model.Classify(a.SentimentScore))
		}
		fmt.Fprintf(&b, "    %s  %s  %s\n",
			dimStyle.Render(ArticleSource(a)),
			dimStyle.Render(ArticleDate(a)),
			sentimentStyle(a.SentimentScore).Render(fmt.Sprintf("%s (%.2f)", label, a.SentimentScore)))
		if a.URL != "" {
			b.WriteString("    " + dimStyle.Render(a.URL) + "\n")
		}
	}
	return b.String()
}
