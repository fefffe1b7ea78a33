// Package tui is the interactive terminal front end.
package tui

import (
	"context"
	"strings"

	"StockSentiment/internal/period"
	"StockSentiment/internal/render"
	"StockSentiment/internal/view"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Session is the orchestrator surface the TUI drives.
type Session interface {
	Analyze(ctx context.Context, ticker string) (view.State, error)
	ChangePeriod(ctx context.Context, p period.Period) (view.State, error)
	SelectChart(c view.Chart) view.State
	Clear() view.State
	State() view.State
	Subscribe(fn func(view.State))
}

// Options controls layout.
type Options struct {
	ChartHeight int
	MaxArticles int
}

var footerStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("15")).
	Background(lipgloss.Color("8"))

const helpText = " enter analyze · tab chart · [ ] period · ↑↓ recent · ctrl+x clear · pgup/pgdn scroll · esc quit"

// stateMsg carries a snapshot published by the session.
type stateMsg view.State

// Model is the bubbletea model.
type Model struct {
	ctx     context.Context
	session Session
	updates chan view.State
	opts    Options

	input    textinput.Model
	viewport viewport.Model
	ready    bool
	width    int
	height   int

	state     view.State
	recentIdx int
}

// New creates a Model bound to session. Snapshots published by the
// session are delivered to the program in Version order.
func New(ctx context.Context, s Session, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "Enter a stock ticker (e.g. AAPL)"
	ti.Prompt = "Ticker › "
	ti.CharLimit = 12
	ti.Width = 30
	ti.Focus()

	updates := make(chan view.State, 64)
	s.Subscribe(func(st view.State) {
		select {
		case updates <- st:
		default:
			// The final snapshot also arrives through the command result.
		}
	})

	return Model{
		ctx:       ctx,
		session:   s,
		updates:   updates,
		opts:      opts,
		input:     ti,
		state:     s.State(),
		recentIdx: -1,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForState())
}

func (m Model) waitForState() tea.Cmd {
	ch := m.updates
	return func() tea.Msg {
		return stateMsg(<-ch)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case stateMsg:
		m.apply(view.State(msg))
		return m, m.waitForState()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := max(m.height-1, 1)
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.MouseWheelEnabled = true
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.refresh()
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "enter":
		ticker := m.input.Value()
		m.recentIdx = -1
		return m, m.run(func(ctx context.Context) { m.session.Analyze(ctx, ticker) })

	case "tab":
		next := view.ChartPrice
		if m.state.ActiveChart == view.ChartPrice {
			next = view.ChartSentiment
		}
		m.apply(m.session.SelectChart(next))
		return m, nil

	case "[", "]":
		p := m.state.ActivePeriod.Next()
		if msg.String() == "[" {
			p = m.state.ActivePeriod.Prev()
		}
		return m, m.run(func(ctx context.Context) { m.session.ChangePeriod(ctx, p) })

	case "up", "down":
		list := m.state.Recent
		if len(list) == 0 {
			return m, nil
		}
		if msg.String() == "up" {
			m.recentIdx = max(m.recentIdx-1, 0)
		} else {
			m.recentIdx = min(m.recentIdx+1, len(list)-1)
		}
		m.input.SetValue(list[m.recentIdx])
		m.input.CursorEnd()
		m.refresh()
		return m, nil

	case "ctrl+x":
		m.input.Reset()
		m.recentIdx = -1
		m.apply(m.session.Clear())
		return m, nil

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.refresh()
	return m, cmd
}

// run executes fn off the UI goroutine and delivers the settled state.
func (m Model) run(fn func(ctx context.Context)) tea.Cmd {
	ctx, s := m.ctx, m.session
	return func() tea.Msg {
		fn(ctx)
		return stateMsg(s.State())
	}
}

// apply accepts st unless an equal or newer snapshot is already shown.
func (m *Model) apply(st view.State) {
	if st.Version < m.state.Version {
		return
	}
	m.state = st
	m.refresh()
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(render.View(m.state, render.Options{
		Width:       m.width,
		ChartHeight: m.opts.ChartHeight,
		Input:       m.input.View(),
		MaxArticles: m.opts.MaxArticles,
	}))
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	footer := footerStyle.Width(m.width).Render(truncate(helpText, m.width))
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	return strings.TrimRight(string(r[:width]), " ")
}
