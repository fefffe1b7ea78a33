// Package render draws view state and chart specs for a terminal.
package render

import (
	"fmt"
	"math"
	"strings"
	"time"

	"StockSentiment/internal/chart"
	"StockSentiment/internal/period"
)

const (
	glyphMarker = '●'
	glyphLine   = '•'
	glyphFill   = '░'
)

// Chart draws spec as a width x height text plot. Height counts plot rows
// only; title, axis label and date rows are added around it.
func Chart(spec chart.Spec, width, height int) string {
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(spec.Title))
	b.WriteString("\n")
	if spec.Empty || len(spec.Series) == 0 {
		msg := spec.EmptyMessage
		if msg == "" {
			msg = "No data."
		}
		b.WriteString(dimStyle.Render(msg))
		return b.String()
	}

	lo, hi := yBounds(spec)
	tmin, tmax := timeBounds(spec.Series)
	hiLabel, loLabel := axisValue(hi), axisValue(lo)
	labelW := max(len(hiLabel), len(loLabel))
	plotW := max(width-labelW-2, 10)

	grid := make([][]rune, height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", plotW))
	}
	col := func(t time.Time) int {
		if !tmax.After(tmin) {
			return plotW / 2
		}
		return int(math.Round(float64(t.Sub(tmin)) / float64(tmax.Sub(tmin)) * float64(plotW-1)))
	}
	row := func(v float64) int {
		r := int(math.Round((hi - v) / (hi - lo) * float64(height-1)))
		return clamp(r, 0, height-1)
	}

	for _, s := range spec.Series {
		plotSeries(grid, s, col, row)
	}

	b.WriteString(dimStyle.Render(spec.Y.Label))
	b.WriteString("\n")
	for r, line := range grid {
		label := strings.Repeat(" ", labelW)
		switch r {
		case 0:
			label = fmt.Sprintf("%*s", labelW, hiLabel)
		case height - 1:
			label = fmt.Sprintf("%*s", labelW, loLabel)
		}
		b.WriteString(axisStyle.Render(label + " ┤"))
		b.WriteString(plotStyle.Render(string(line)))
		b.WriteString("\n")
	}

	first, last := tmin.Format(period.DateLayout), tmax.Format(period.DateLayout)
	pad := plotW - len(first) - len(last)
	dates := first
	if pad > 0 && first != last {
		dates = first + strings.Repeat(" ", pad) + last
	}
	b.WriteString(strings.Repeat(" ", labelW+2))
	b.WriteString(dimStyle.Render(dates))
	b.WriteString("\n")
	b.WriteString(strings.Repeat(" ", labelW+2))
	b.WriteString(dimStyle.Render(spec.X.Label))
	return b.String()
}

func plotSeries(grid [][]rune, s chart.Series, col func(time.Time) int, row func(float64) int) {
	if len(s.Points) == 0 {
		return
	}
	bottom := len(grid) - 1
	if s.Mode != chart.ModeMarkers {
		for i := 1; i < len(s.Points); i++ {
			x0, y0 := col(s.Points[i-1].Time), s.Points[i-1].Value
			x1, y1 := col(s.Points[i].Time), s.Points[i].Value
			for x := x0; x <= x1; x++ {
				v := y0
				if x1 > x0 {
					v = y0 + (y1-y0)*float64(x-x0)/float64(x1-x0)
				}
				r := row(v)
				if s.Fill {
					for fr := r + 1; fr <= bottom; fr++ {
						if grid[fr][x] == ' ' {
							grid[fr][x] = glyphFill
						}
					}
				}
				grid[r][x] = glyphLine
			}
		}
	}
	// Price series show markers on hover only, which a static plot has no use for.
	if s.HoverMarkers && len(s.Points) > 1 {
		return
	}
	for _, p := range s.Points {
		grid[row(p.Value)][col(p.Time)] = glyphMarker
	}
}

func yBounds(spec chart.Spec) (lo, hi float64) {
	if spec.Y.Fixed && spec.Y.Max > spec.Y.Min {
		return spec.Y.Min, spec.Y.Max
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range spec.Series {
		for _, p := range s.Points {
			lo = math.Min(lo, p.Value)
			hi = math.Max(hi, p.Value)
		}
	}
	if hi == lo {
		pad := math.Max(math.Abs(hi)*0.05, 1)
		return lo - pad, hi + pad
	}
	return lo, hi
}

func timeBounds(series []chart.Series) (tmin, tmax time.Time) {
	for _, s := range series {
		for _, p := range s.Points {
			if tmin.IsZero() || p.Time.Before(tmin) {
				tmin = p.Time
			}
			if p.Time.After(tmax) {
				tmax = p.Time
			}
		}
	}
	return tmin, tmax
}

func axisValue(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
