package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"StockSentiment/internal/collector"
	"StockSentiment/internal/kv"
	"StockSentiment/internal/model"
	"StockSentiment/internal/orchestrator"
	"StockSentiment/internal/period"
	"StockSentiment/internal/recent"
	"StockSentiment/internal/view"

	tea "github.com/charmbracelet/bubbletea"
)

func newTestModel(t *testing.T, seed ...string) (Model, *collector.MockFetcher) {
	t.Helper()
	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	m := &collector.MockFetcher{Default: collector.MockFeed{
		Sentiment: &model.SentimentResult{Label: "positive", Score: 0.42},
		History:   []model.SentimentPoint{{Time: today, Score: 0.42}},
		Prices:    collector.GenerateMockPrices(100, 30, today),
	}}
	cache := recent.New(kv.NewMemory(), "")
	for _, s := range seed {
		cache.Add(context.Background(), s)
	}
	o := orchestrator.New(context.Background(), orchestrator.Deps{
		Sentiment: m, History: m, Prices: m, Recent: cache,
		Now: func() time.Time { return today },
	})
	tm := New(context.Background(), o, Options{ChartHeight: 6})
	next, _ := tm.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model), m
}

func press(t *testing.T, m Model, key tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(key)
	m = next.(Model)
	if cmd == nil {
		return m
	}
	if msg, ok := cmd().(stateMsg); ok {
		next, _ = m.Update(msg)
		m = next.(Model)
	}
	return m
}

// typeText feeds runes to the input without running the cursor blink command.
func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return next.(Model)
}

func TestModel_AnalyzeAndToggle(t *testing.T) {
	m, mock := newTestModel(t)
	m = typeText(t, m, "aapl")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if m.state.Ticker != "AAPL" || m.state.Busy() {
		t.Fatalf("state = %+v", m.state)
	}
	if mock.CallCount("sentiment:AAPL") != 1 {
		t.Errorf("calls = %v", mock.Calls())
	}
	if out := m.View(); !strings.Contains(out, "(Score: 0.420)") {
		t.Errorf("view missing score:\n%s", out)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.state.ActiveChart != view.ChartPrice {
		t.Errorf("chart = %s, want price", m.state.ActiveChart)
	}
}

func TestModel_PeriodKeys(t *testing.T) {
	m, mock := newTestModel(t)
	m = typeText(t, m, "msft")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	m = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{']'}})
	if m.state.ActivePeriod != period.FiveYears {
		t.Errorf("period = %s, want 5Y", m.state.ActivePeriod)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'['}})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'['}})
	if m.state.ActivePeriod != period.YearToDate {
		t.Errorf("period = %s, want YTD", m.state.ActivePeriod)
	}
	if mock.CallCount("sentiment:") != 1 || mock.CallCount("price:") != 4 {
		t.Errorf("calls = %v", mock.Calls())
	}
}

func TestModel_RecentAndClear(t *testing.T) {
	m, _ := newTestModel(t, "NVDA", "AMD")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.input.Value() != "AMD" {
		t.Errorf("input = %q, want AMD", m.input.Value())
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if m.input.Value() != "NVDA" {
		t.Errorf("input = %q, want NVDA", m.input.Value())
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state.Ticker != "NVDA" {
		t.Fatalf("ticker = %q", m.state.Ticker)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlX})
	if m.state.Ticker != "" || m.input.Value() != "" || m.state.ActivePeriod != period.OneYear {
		t.Errorf("not cleared: ticker=%q input=%q", m.state.Ticker, m.input.Value())
	}
}

func TestModel_IgnoresOlderSnapshots(t *testing.T) {
	m, _ := newTestModel(t)
	m = typeText(t, m, "aapl")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	current := m.state

	stale := current
	stale.Version = current.Version - 1
	stale.Ticker = "OLD"
	next, _ := m.Update(stateMsg(stale))
	if next.(Model).state.Ticker != "AAPL" {
		t.Error("older snapshot replaced the current one")
	}
}

func TestModel_EmptySubmit(t *testing.T) {
	m, mock := newTestModel(t)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.state.Error != "Please enter a stock ticker." || len(mock.Calls()) != 0 {
		t.Errorf("error=%q calls=%v", m.state.Error, mock.Calls())
	}
}
