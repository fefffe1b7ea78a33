// Package period resolves named price lookback windows into date ranges.
package period

import (
	"fmt"
	"strings"
)

// Period is a named lookback window for price history.
type Period string

const (
	OneMonth    Period = "1M"
	ThreeMonths Period = "3M"
	SixMonths   Period = "6M"
	YearToDate  Period = "YTD"
	OneYear     Period = "1Y"
	FiveYears   Period = "5Y"
)

// Default is the period selected on start and after a clear.
const Default = OneYear

// All lists the supported periods in display order.
var All = []Period{OneMonth, ThreeMonths, SixMonths, YearToDate, OneYear, FiveYears}

var days = map[Period]int{
	OneMonth:    30,
	ThreeMonths: 90,
	SixMonths:   180,
	OneYear:     365,
	FiveYears:   5 * 365,
}

var labels = map[Period]string{
	OneMonth:    "1 Month",
	ThreeMonths: "3 Months",
	SixMonths:   "6 Months",
	YearToDate:  "Year to Date",
	OneYear:     "1 Year",
	FiveYears:   "5 Years",
}

// Parse accepts a period name case-insensitively ("ytd", " 1y ").
func Parse(s string) (Period, error) {
	p := Period(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown price period %q (want one of %s)", s, names())
	}
	return p, nil
}

// Valid reports whether p is one of the supported periods.
func (p Period) Valid() bool {
	_, ok := labels[p]
	return ok
}

// Days returns the fixed lookback in days, or 0 for YTD.
func (p Period) Days() int { return days[p] }

// Label returns the human-readable name used in chart titles.
func (p Period) Label() string {
	if l, ok := labels[p]; ok {
		return l
	}
	return string(p)
}

// Next returns the following period, wrapping around.
func (p Period) Next() Period { return p.shift(1) }

// Prev returns the preceding period, wrapping around.
func (p Period) Prev() Period { return p.shift(-1) }

func (p Period) shift(step int) Period {
	for i, q := range All {
		if q == p {
			return All[(i+step+len(All))%len(All)]
		}
	}
	return Default
}

func names() string {
	s := make([]string, len(All))
	for i, p := range All {
		s[i] = string(p)
	}
	return strings.Join(s, ", ")
}
