// Package orchestrator turns a ticker into a settled view by coordinating
// the sentiment, sentiment history and price feeds.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"StockSentiment/internal/collector"
	"StockSentiment/internal/model"
	"StockSentiment/internal/period"
	"StockSentiment/internal/recent"
	"StockSentiment/internal/recorder"
	"StockSentiment/internal/view"
)

// DefaultTimeout bounds each feed fetch when Deps.Timeout is zero.
const DefaultTimeout = 15 * time.Second

var (
	// ErrNoRecent is returned by SelectRecent for an index outside the list.
	ErrNoRecent = errors.New("no recent search at that position")
	// ErrSuperseded is returned by Analyze when a later Analyze, an invalid
	// submission or Clear replaced it before it settled.
	ErrSuperseded = errors.New("analysis superseded")
)

// Deps are the collaborators of an Orchestrator. Recorder and Now are
// optional.
type Deps struct {
	Sentiment collector.SentimentFetcher
	History   collector.HistoryFetcher
	Prices    collector.PriceFetcher
	Recent    *recent.Cache
	Recorder  recorder.Recorder

	Now                 func() time.Time
	Timeout             time.Duration
	NotConfiguredPhrase string
	DefaultPeriod       period.Period
}

// Orchestrator owns the view state of one session. All state changes go
// through view.Reduce under mu; listeners are called outside the lock.
type Orchestrator struct {
	deps Deps

	mu        sync.Mutex
	state     view.State
	listeners []func(view.State)

	// recentMu orders recent cache writes with their RecentLoaded dispatch.
	recentMu sync.Mutex
}

// New creates an Orchestrator and loads the persisted recent list.
func New(ctx context.Context, deps Deps) *Orchestrator {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Timeout <= 0 {
		deps.Timeout = DefaultTimeout
	}
	if deps.NotConfiguredPhrase == "" {
		deps.NotConfiguredPhrase = collector.DefaultNotConfiguredPhrase
	}
	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}
	o := &Orchestrator{deps: deps, state: view.New(deps.DefaultPeriod)}
	if deps.Recent != nil {
		o.state = view.Reduce(o.state, view.RecentLoaded{List: deps.Recent.Load(ctx)})
	}
	return o
}

// Subscribe registers fn to receive every accepted state snapshot.
// Snapshots may arrive out of order; use State.Version to order them.
func (o *Orchestrator) Subscribe(fn func(view.State)) {
	o.mu.Lock()
	o.listeners = append(o.listeners, fn)
	o.mu.Unlock()
}

// State returns the current snapshot.
func (o *Orchestrator) State() view.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Recent returns the recent search list, most recent first.
func (o *Orchestrator) Recent() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.state.Recent...)
}

func (o *Orchestrator) dispatch(ev view.Event) view.State {
	o.mu.Lock()
	prev := o.state.Version
	o.state = view.Reduce(o.state, ev)
	st := o.state
	listeners := o.listeners
	o.mu.Unlock()

	if st.Version != prev {
		for _, fn := range listeners {
			fn(st)
		}
	}
	return st
}

// Analyze runs a full analysis of ticker and returns the settled state.
// Feed failures are reported through the state. It returns
// model.ErrEmptyTicker for a blank ticker and ErrSuperseded, with the
// current state of the newer analysis, when it was replaced before it
// settled.
//
// Sentiment is fetched first. Once it settles, sentiment history (unless
// the backend reports it is not configured) and price are fetched
// concurrently. Results from a superseded call are discarded.
func (o *Orchestrator) Analyze(ctx context.Context, raw string) (view.State, error) {
	ticker, err := model.NormalizeTicker(raw)
	if err != nil {
		return o.dispatch(view.Invalid{Message: collector.Describe(err)}), err
	}

	st := o.dispatch(view.Submit{Ticker: ticker})
	gen, pgen := st.Generation, st.PriceGeneration
	log.Printf("[INFO] analyze %s (generation %d)", ticker, gen)

	result, err := o.fetchSentiment(ctx, ticker)
	settled := view.SentimentSettled{Generation: gen, Result: result}
	if err != nil {
		log.Printf("[WARN] sentiment %s: %v", ticker, err)
		settled.Err = collector.Describe(err)
	} else {
		settled.NotConfigured = collector.IsNotConfigured(result, o.deps.NotConfiguredPhrase)
		if settled.NotConfigured {
			log.Printf("[WARN] sentiment %s: backend news integration not configured", ticker)
		}
	}
	st = o.dispatch(settled)

	if st.Generation == gen && err == nil && !settled.NotConfigured {
		o.remember(ctx, ticker)
	}

	var wg sync.WaitGroup
	if st.Generation == gen && !settled.NotConfigured {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.loadHistory(ctx, gen, ticker)
		}()
	}
	// A period change during step 1 has already started its own price fetch.
	if st.Generation == gen && st.PriceGeneration == pgen {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.loadPrices(ctx, pgen, ticker, st.ActivePeriod)
		}()
	}
	wg.Wait()

	st = o.dispatch(view.Settled{Generation: gen})
	if st.Generation != gen {
		log.Printf("[INFO] analyze %s superseded (generation %d)", ticker, gen)
		return st, ErrSuperseded
	}
	if err := o.deps.Recorder.RecordRun(ctx, recorder.FromState(st, o.deps.Now())); err != nil {
		log.Printf("[ERROR] record run %s: %v", ticker, err)
	}
	return st, nil
}

// ChangePeriod selects a new price lookback and, when a ticker is shown,
// refetches only the price feed.
func (o *Orchestrator) ChangePeriod(ctx context.Context, p period.Period) (view.State, error) {
	if !p.Valid() {
		return o.State(), fmt.Errorf("change period: unknown period %q", p)
	}
	st := o.dispatch(view.PeriodChanged{Period: p})
	if st.Ticker == "" {
		return st, nil
	}
	o.loadPrices(ctx, st.PriceGeneration, st.Ticker, p)
	return o.State(), nil
}

// SelectChart switches the displayed chart.
func (o *Orchestrator) SelectChart(c view.Chart) view.State {
	return o.dispatch(view.ChartSelected{Chart: c})
}

// SelectRecent re-runs a full analysis of the i-th recent ticker.
func (o *Orchestrator) SelectRecent(ctx context.Context, i int) (view.State, error) {
	list := o.Recent()
	if i < 0 || i >= len(list) {
		return o.State(), ErrNoRecent
	}
	return o.Analyze(ctx, list[i])
}

// Clear resets the session to its initial state. In-flight results are
// discarded when they settle.
func (o *Orchestrator) Clear() view.State {
	return o.dispatch(view.Cleared{})
}

func (o *Orchestrator) remember(ctx context.Context, ticker string) {
	if o.deps.Recent == nil {
		return
	}
	o.recentMu.Lock()
	defer o.recentMu.Unlock()
	list, err := o.deps.Recent.Add(ctx, ticker)
	if err != nil {
		log.Printf("[ERROR] save recent search %s: %v", ticker, err)
		return
	}
	o.dispatch(view.RecentLoaded{List: list})
}

func (o *Orchestrator) fetchSentiment(ctx context.Context, ticker string) (*model.SentimentResult, error) {
	ctx, cancel := context.WithTimeout(ctx, o.deps.Timeout)
	defer cancel()
	r, err := o.deps.Sentiment.FetchSentiment(ctx, ticker)
	if err != nil {
		return nil, collector.Classify("analyze sentiment", o.deps.Timeout, err)
	}
	if r == nil {
		r = &model.SentimentResult{}
	}
	return r, nil
}

func (o *Orchestrator) loadHistory(ctx context.Context, gen uint64, ticker string) {
	ctx, cancel := context.WithTimeout(ctx, o.deps.Timeout)
	defer cancel()

	ev := view.HistorySettled{Generation: gen}
	points, err := o.deps.History.FetchSentimentHistory(ctx, ticker)
	if err != nil {
		err = collector.Classify("fetch sentiment history", o.deps.Timeout, err)
		log.Printf("[WARN] sentiment history %s: %v", ticker, err)
		ev.Err = collector.Describe(err)
	} else {
		ev.Points = points
	}
	o.dispatch(ev)
}

func (o *Orchestrator) loadPrices(ctx context.Context, pgen uint64, ticker string, p period.Period) {
	rng, err := period.Resolve(p, o.deps.Now())
	if err != nil {
		o.dispatch(view.PriceSettled{PriceGeneration: pgen, Period: p, Err: err.Error()})
		return
	}
	o.dispatch(view.PriceRequested{PriceGeneration: pgen, Period: p, Range: rng})

	ctx, cancel := context.WithTimeout(ctx, o.deps.Timeout)
	defer cancel()

	ev := view.PriceSettled{PriceGeneration: pgen, Period: p, Range: rng}
	points, err := o.deps.Prices.FetchPriceHistory(ctx, ticker, rng.From, rng.To)
	if err != nil {
		err = collector.Classify("fetch price history", o.deps.Timeout, err)
		log.Printf("[WARN] price history %s %s: %v", ticker, p, err)
		ev.Err = collector.Describe(err)
	} else {
		ev.Points = points
	}
	o.dispatch(ev)
}
