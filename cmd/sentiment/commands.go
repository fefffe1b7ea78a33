package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"StockSentiment/internal/collector"
	"StockSentiment/internal/config"
	"StockSentiment/internal/notifier"
	"StockSentiment/internal/orchestrator"
	"StockSentiment/internal/period"
	"StockSentiment/internal/recorder"
	"StockSentiment/internal/render"
	"StockSentiment/internal/scheduler"
	"StockSentiment/internal/tui"
	"StockSentiment/internal/view"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:          "sentiment",
		Short:        "Stock news sentiment and price history",
		SilenceUsage: true,
	}
	defaultPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultPath = v
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", defaultPath, "path to the YAML config file")

	loadApp := func(ctx context.Context) (*App, error) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("config validation: %w", err)
		}
		return NewApp(ctx, cfg)
	}

	root.AddCommand(
		newAnalyzeCmd(loadApp),
		newRecentCmd(loadApp),
		newNewsCmd(loadApp),
		newTUICmd(loadApp),
		newWatchCmd(loadApp),
		newRunsCmd(loadApp),
	)
	return root
}

type appLoader func(ctx context.Context) (*App, error)

func printView(app *App, st view.State, articles int) {
	fmt.Println(render.View(st, render.Options{
		Width:       app.Config.UI.Width,
		ChartHeight: app.Config.UI.ChartHeight,
		MaxArticles: articles,
	}))
}

func newAnalyzeCmd(load appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <ticker>",
		Short: "Analyze news sentiment, sentiment history and price for a ticker",
		Example: `  sentiment analyze AAPL
  sentiment analyze msft --period YTD --chart price`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := load(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			periodFlag, _ := cmd.Flags().GetString("period")
			chartFlag, _ := cmd.Flags().GetString("chart")
			articles, _ := cmd.Flags().GetInt("articles")

			if periodFlag != "" {
				p, err := period.Parse(periodFlag)
				if err != nil {
					return err
				}
				if _, err := app.Orch.ChangePeriod(ctx, p); err != nil {
					return err
				}
			}

			st, err := app.Orch.Analyze(ctx, args[0])
			if errors.Is(err, orchestrator.ErrSuperseded) {
				return err
			}
			if err != nil {
				printView(app, st, articles)
				return err
			}
			switch chartFlag {
			case "":
			case string(view.ChartSentiment), string(view.ChartPrice):
				st = app.Orch.SelectChart(view.Chart(chartFlag))
			default:
				return fmt.Errorf("unknown chart %q (want sentiment or price)", chartFlag)
			}
			printView(app, st, articles)
			return nil
		},
	}
	cmd.Flags().String("period", "", "price lookback: 1M, 3M, 6M, YTD, 1Y, 5Y")
	cmd.Flags().String("chart", "", "chart to show: sentiment or price (default: chosen from results)")
	cmd.Flags().Int("articles", 5, "maximum articles to list (0 for all)")
	return cmd
}

func newRecentCmd(load appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recent searches, or re-analyze one with --select",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := load(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			sel, _ := cmd.Flags().GetInt("select")
			if sel > 0 {
				st, err := app.Orch.SelectRecent(ctx, sel-1)
				if err != nil {
					return err
				}
				printView(app, st, 5)
				return nil
			}

			list := app.Orch.Recent()
			if len(list) == 0 {
				fmt.Println("No recent searches.")
				return nil
			}
			for i, t := range list {
				fmt.Printf("%d. %s\n", i+1, t)
			}
			return nil
		},
	}
	cmd.Flags().Int("select", 0, "re-analyze the Nth recent ticker (1 = most recent)")
	return cmd
}

func newNewsCmd(load appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "news",
		Short: "List the latest scored business and market headlines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := load(ctx)
			if err != nil {
				return err
			}
			defer app.Close()
			if app.News == nil {
				return errors.New("the configured feed does not provide general news")
			}

			limit, _ := cmd.Flags().GetInt("limit")
			ctx, cancel := context.WithTimeout(ctx, app.Config.Backend.Timeout)
			defer cancel()
			articles, err := app.News.FetchGeneralNews(ctx)
			if err != nil {
				err = collector.Classify("fetch general news", app.Config.Backend.Timeout, err)
				return errors.New(collector.Describe(err))
			}
			fmt.Println(render.News(articles, limit))
			return nil
		},
	}
	cmd.Flags().Int("limit", 15, "maximum headlines to list (0 for all)")
	return cmd
}

func newTUICmd(load appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Interactive terminal view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			app, err := load(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			// Log lines would corrupt the alternate screen.
			if err := ensureDir(app.Config.UI.LogFile); err != nil {
				return err
			}
			f, err := tea.LogToFile(app.Config.UI.LogFile, "")
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer f.Close()
			log.SetFlags(log.LstdFlags | log.Lshortfile)

			m := tui.New(ctx, app.Orch, tui.Options{ChartHeight: app.Config.UI.ChartHeight, MaxArticles: 5})
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("run tui: %w", err)
			}
			return nil
		},
	}
}

func newWatchCmd(load appLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-analyze recent searches on a schedule and report to Telegram",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Context for graceful shutdown
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			app, err := load(ctx)
			if err != nil {
				return err
			}
			defer app.Close()
			cfg := app.Config
			if err := cfg.ValidateWatch(); err != nil {
				return fmt.Errorf("config validation: %w", err)
			}

			tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)

			w := scheduler.NewWatcher(ctx, app.Orch, tn)
			if err := w.Register(cfg.Schedule.WatchCron); err != nil {
				return err
			}
			w.Start()
			defer w.Stop()

			go tn.StartPolling(ctx, w.HandleCommand)
			log.Println("[INFO] Telegram polling started")

			if cfg.Schedule.RunOnStart {
				log.Println("[INFO] run_on_start enabled, executing watch task now")
				go w.RunNow()
			}

			log.Println("[INFO] watching recent searches. Press Ctrl+C to stop.")

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			<-sigCh

			log.Println("[INFO] shutdown signal received, stopping...")
			cancel()
			return nil
		},
	}
}

func newRunsCmd(load appLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded analyses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := load(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			ticker, _ := cmd.Flags().GetString("ticker")
			limit, _ := cmd.Flags().GetInt("limit")
			since, _ := cmd.Flags().GetDuration("since")

			f := recorder.RunFilter{Ticker: strings.ToUpper(strings.TrimSpace(ticker)), Limit: limit}
			if since > 0 {
				f.Since = time.Now().Add(-since)
			}
			runs, err := app.Recorder.ListRuns(ctx, f)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No recorded runs.")
				return nil
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tTICKER\tLABEL\tSCORE\tARTICLES\tPERIOD\tLAST\tCHART\tERRORS")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.3f\t%d\t%s\t%.2f\t%s\t%s\n",
					r.Time().Format("2006-01-02 15:04"), r.Ticker, r.Label, r.Score,
					r.ArticleCount, r.Period, r.LastPrice, r.Chart, runErrors(r))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().String("ticker", "", "only runs for this ticker")
	cmd.Flags().Int("limit", recorder.DefaultListLimit, "maximum runs to list")
	cmd.Flags().Duration("since", 0, "only runs newer than this (e.g. 72h)")
	return cmd
}

func runErrors(r recorder.Run) string {
	var errs []string
	if r.NotConfigured {
		errs = append(errs, "not configured")
	}
	for _, e := range []string{r.SentimentError, r.HistoryError, r.PriceError} {
		if e != "" {
			errs = append(errs, e)
		}
	}
	if len(errs) == 0 {
		return "-"
	}
	return strings.Join(errs, "; ")
}
