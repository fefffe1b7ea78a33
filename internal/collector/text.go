package collector

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText reduces a news field that may carry HTML markup or entities
// to its visible text.
func PlainText(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
