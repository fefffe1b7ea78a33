package period

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for from_date / to_date.
const DateLayout = "2006-01-02"

// Range is an inclusive calendar date range.
type Range struct {
	From time.Time
	To   time.Time
}

// FromDate formats the start of the range as YYYY-MM-DD.
func (r Range) FromDate() string { return r.From.Format(DateLayout) }

// ToDate formats the end of the range as YYYY-MM-DD.
func (r Range) ToDate() string { return r.To.Format(DateLayout) }

func (r Range) String() string { return r.FromDate() + ".." + r.ToDate() }

// Resolve maps a period and the current date to a concrete range.
// To is always today; YTD starts on January 1 of today's year.
func Resolve(p Period, today time.Time) (Range, error) {
	if !p.Valid() {
		return Range{}, fmt.Errorf("resolve: unknown price period %q", p)
	}
	if p == YearToDate {
		d := truncate(today)
		return Range{From: time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, d.Location()), To: d}, nil
	}
	return ResolveDays(p.Days(), today), nil
}

// ResolveDays returns the range covering the given number of days back from today.
func ResolveDays(n int, today time.Time) Range {
	d := truncate(today)
	return Range{From: d.AddDate(0, 0, -n), To: d}
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
