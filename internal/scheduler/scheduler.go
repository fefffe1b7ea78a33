package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"StockSentiment/internal/collector"
	"StockSentiment/internal/notifier"
	"StockSentiment/internal/orchestrator"
	"StockSentiment/internal/period"
	"StockSentiment/internal/view"

	"github.com/robfig/cron/v3"
)

// Analyzer is the part of the orchestrator the watcher drives.
type Analyzer interface {
	Analyze(ctx context.Context, ticker string) (view.State, error)
	ChangePeriod(ctx context.Context, p period.Period) (view.State, error)
	Recent() []string
	State() view.State
}

// Sender delivers formatted messages.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Watcher re-analyzes the recent search list on a cron schedule and
// answers chat commands.
type Watcher struct {
	Cron     *cron.Cron
	Analyzer Analyzer
	Notifier Sender
	Ctx      context.Context

	running sync.Mutex
}

// NewWatcher creates a new Watcher. tn may be nil, in which case reports
// are only logged.
func NewWatcher(ctx context.Context, a Analyzer, tn Sender) *Watcher {
	return &Watcher{
		Cron:     cron.New(cron.WithSeconds()),
		Analyzer: a,
		Notifier: tn,
		Ctx:      ctx,
	}
}

// Register schedules the watch task.
func (w *Watcher) Register(watchCron string) error {
	if _, err := w.Cron.AddFunc(watchCron, w.watchTask); err != nil {
		return fmt.Errorf("register watch task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (w *Watcher) Start() {
	w.Cron.Start()
	log.Println("[INFO] watcher started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (w *Watcher) Stop() {
	<-w.Cron.Stop().Done()
	log.Println("[INFO] watcher stopped")
}

// RunNow executes the watch task immediately (for manual trigger / run_on_start).
// It returns the number of tickers analyzed.
func (w *Watcher) RunNow() int {
	return w.runWatch()
}

func (w *Watcher) watchTask() {
	w.runWatch()
}

func (w *Watcher) runWatch() int {
	if !w.running.TryLock() {
		log.Println("[WARN] watch task still running, skipping")
		return 0
	}
	defer w.running.Unlock()

	list := w.Analyzer.Recent()
	if len(list) == 0 {
		log.Println("[INFO] watch task: no recent searches")
		return 0
	}
	log.Printf("[INFO] running watch task for %d tickers", len(list))

	// Oldest first, so re-adding each ticker leaves the list order unchanged.
	n := 0
	for i := len(list) - 1; i >= 0; i-- {
		if w.Ctx.Err() != nil {
			break
		}
		st, err := w.Analyzer.Analyze(w.Ctx, list[i])
		if errors.Is(err, orchestrator.ErrSuperseded) {
			log.Printf("[WARN] watch analyze %s: superseded by another request, skipping", list[i])
			continue
		}
		if err != nil {
			log.Printf("[ERROR] watch analyze %s: %v", list[i], err)
			continue
		}
		w.trySend(notifier.FormatAnalysis(st))
		n++
	}
	return n
}

// HandleCommand processes a user command and returns a reply.
func (w *Watcher) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	// "/analyze@SomeBot" in group chats.
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	args := fields[1:]

	switch name {
	case "/analyze":
		if len(args) == 0 {
			return "Usage: /analyze SYMBOL"
		}
		st, err := w.Analyzer.Analyze(w.Ctx, args[0])
		if errors.Is(err, orchestrator.ErrSuperseded) {
			return fmt.Sprintf("Analysis of %s was replaced by a newer request.", strings.ToUpper(args[0]))
		}
		if err != nil {
			return collector.Describe(err)
		}
		return notifier.FormatAnalysis(st)
	case "/recent":
		return notifier.FormatRecent(w.Analyzer.Recent())
	case "/period":
		if len(args) == 0 {
			return fmt.Sprintf("Current period: %s", w.Analyzer.State().ActivePeriod.Label())
		}
		p, err := period.Parse(args[0])
		if err != nil {
			return err.Error()
		}
		st, err := w.Analyzer.ChangePeriod(w.Ctx, p)
		if err != nil {
			return err.Error()
		}
		if st.Ticker == "" {
			return fmt.Sprintf("Price period set to %s.", p.Label())
		}
		return notifier.FormatAnalysis(st)
	case "/status":
		st := w.Analyzer.State()
		if st.Ticker == "" {
			return "No analysis yet."
		}
		return notifier.FormatAnalysis(st)
	case "/watch":
		n := w.RunNow()
		return fmt.Sprintf("Watch run finished: %d tickers analyzed.", n)
	default:
		return notifier.FormatHelp()
	}
}

func (w *Watcher) trySend(text string) {
	if w.Notifier == nil {
		log.Printf("[INFO] report:\n%s", text)
		return
	}
	if err := w.Notifier.SendWithRetry(w.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
