package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"HeikinSentinel/internal/model"
	"HeikinSentinel/internal/report"
	"HeikinSentinel/internal/scan"
	"HeikinSentinel/internal/scheduler"
	"HeikinSentinel/internal/web"
)

func addScanFlags(cmd *cobra.Command, o *overrides) {
	cmd.Flags().StringVar(&o.source, "source", "", "universe source: auto, composite, tsx60, csv, static")
	cmd.Flags().StringVar(&o.csv, "csv", "", "CSV file with a Symbol or Ticker column (implies --source csv)")
	cmd.Flags().StringVar(&o.period, "period", "", "lookback: 1mo, 2mo, 3mo, 6mo")
	cmd.Flags().IntVar(&o.limit, "limit", 0, "scan at most N tickers")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "concurrent fetches")
	cmd.Flags().StringVar(&o.cooldown, "cooldown", "", "minimum pause between requests, e.g. 100ms or 0.1")
}

// parseCooldown accepts a Go duration or a number of seconds.
func parseCooldown(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cooldown %q", s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func newScanCmd(app *App) *cobra.Command {
	var (
		o        overrides
		symbols  string
		asJSON   bool
		failures bool
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the universe for three red candles then one green",
		Example: `  sentinel scan
  sentinel scan --source tsx60 --period 2mo
  sentinel scan --symbols RY,TD,REI.UN --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.apply(app.Config); err != nil {
				return err
			}
			svc, err := app.service()
			if err != nil {
				return err
			}

			progress := progressLogger(app)
			var batch *model.Batch
			if symbols != "" {
				norm, err := app.normalizer()
				if err != nil {
					return err
				}
				list := norm.Normalize(strings.Split(symbols, ","))
				if len(list) == 0 {
					return fmt.Errorf("no valid symbol in %q", symbols)
				}
				batch = svc.Symbols(cmd.Context(), list, progress)
			} else {
				batch, err = svc.Scan(cmd.Context(), progress)
				if err != nil {
					return err
				}
			}

			if asJSON {
				enc := json.NewEncoder(app.Out)
				enc.SetIndent("", "  ")
				return enc.Encode(batch)
			}
			report.Batch(app.Out, batch, failures)
			return nil
		},
	}
	addScanFlags(cmd, &o)
	cmd.Flags().StringVar(&symbols, "symbols", "", "comma-separated tickers to scan instead of the universe")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the batch as JSON")
	cmd.Flags().BoolVar(&failures, "failures", false, "list tickers that could not be scanned")
	return cmd
}

// progressLogger logs every tenth of the way through a batch.
func progressLogger(app *App) scan.ProgressFunc {
	return func(done, total int, _ model.SymbolResult) {
		step := max(total/10, 1)
		if done%step == 0 || done == total {
			app.Logger.Info().Int("done", done).Int("total", total).Msg("scan progress")
		}
	}
}

func newUniverseCmd(app *App) *cobra.Command {
	var (
		o      overrides
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "universe",
		Short: "Resolve and print the ticker universe",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.apply(app.Config); err != nil {
				return err
			}
			if err := app.Config.Validate(); err != nil {
				return fmt.Errorf("config: %w", err)
			}
			src, err := app.universe()
			if err != nil {
				return err
			}
			syms, err := src.Symbols(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return json.NewEncoder(app.Out).Encode(syms)
			}
			report.Symbols(app.Out, src.Name(), syms)
			return nil
		},
	}
	cmd.Flags().StringVar(&o.source, "source", "", "universe source: auto, composite, tsx60, csv, static")
	cmd.Flags().StringVar(&o.csv, "csv", "", "CSV file with a Symbol or Ticker column")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the symbols as JSON")
	return cmd
}

func newChartCmd(app *App) *cobra.Command {
	var (
		last   int
		asJSON bool
		period string
	)
	cmd := &cobra.Command{
		Use:   "chart SYMBOL",
		Short: "Print the Heikin-Ashi candles of one ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if period != "" {
				app.Config.DataSource.Period = period
			}
			norm, err := app.normalizer()
			if err != nil {
				return err
			}
			symbol, ok := norm.One(args[0])
			if !ok {
				return fmt.Errorf("%w: %q is not a valid ticker", model.ErrInvalidInput, args[0])
			}
			svc, err := app.service()
			if err != nil {
				return err
			}
			bars, err := svc.Chart(cmd.Context(), symbol)
			if err != nil {
				return err
			}
			if asJSON {
				return json.NewEncoder(app.Out).Encode(bars)
			}
			report.Chart(app.Out, symbol, bars, last)
			return nil
		},
	}
	cmd.Flags().IntVar(&last, "last", 20, "number of recent candles to show, 0 for all")
	cmd.Flags().StringVar(&period, "period", "", "lookback: 1mo, 2mo, 3mo, 6mo (at least 3mo is fetched)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the candles as JSON")
	return cmd
}

func newServeCmd(app *App) *cobra.Command {
	var (
		o           overrides
		addr        string
		scanOnStart bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web UI and rescan on the configured schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.apply(app.Config); err != nil {
				return err
			}
			if addr != "" {
				app.Config.Web.Addr = addr
			}
			svc, err := app.service()
			if err != nil {
				return err
			}
			loc, err := time.LoadLocation(app.Config.Schedule.Timezone)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			sched := scheduler.NewScheduler(ctx, svc.Scan, loc, app.Logger)
			if err := sched.Register(app.Config.Schedule.ScanCron); err != nil {
				return err
			}
			srv, err := web.NewServer(sched, svc, app.Logger)
			if err != nil {
				return err
			}

			sched.Start()
			defer sched.Stop()
			if scanOnStart || os.Getenv("RUN_ON_START") == "true" {
				if err := sched.RunNow(); err != nil && !errors.Is(err, scheduler.ErrRunning) {
					return err
				}
			}

			return srv.ListenAndServe(ctx, app.Config.Web.Addr)
		},
	}
	addScanFlags(cmd, &o)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&scanOnStart, "scan-on-start", false, "run a scan immediately (also RUN_ON_START=true)")
	return cmd
}
