// Package scan runs the Heikin-Ashi reversal scan over a universe of symbols.
package scan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"

	"HeikinSentinel/internal/calculator"
	"HeikinSentinel/internal/collector"
	"HeikinSentinel/internal/logging"
	"HeikinSentinel/internal/model"
	"HeikinSentinel/internal/strategy"
)

// ProgressFunc is told about each finished symbol. Calls are serialized.
type ProgressFunc func(done, total int, res model.SymbolResult)

// Options configures a Runner.
type Options struct {
	Source   string // universe label recorded on the batch
	Period   collector.Period
	Workers  int
	Cooldown time.Duration // minimum spacing between upstream requests
	Limit    int           // 0 scans every symbol
	Strategy strategy.Options
	Progress ProgressFunc
	Logger   zerolog.Logger
}

// Runner fetches, smooths and scans symbols on a bounded worker pool.
type Runner struct {
	fetcher collector.Fetcher
	scanner *strategy.Scanner
	limiter *rate.Limiter
	opts    Options
	now     func() time.Time
}

// NewRunner creates a Runner.
func NewRunner(fetcher collector.Fetcher, opts Options) *Runner {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Period == "" {
		opts.Period = collector.ThreeMonths
	}
	var limiter *rate.Limiter
	if opts.Cooldown > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Cooldown), 1)
	}
	return &Runner{
		fetcher: fetcher,
		scanner: strategy.NewScanner(opts.Strategy),
		limiter: limiter,
		opts:    opts,
		now:     time.Now,
	}
}

// Run scans symbols and returns one result per symbol in input order.
// A failing symbol is recorded on its result and never aborts the batch.
func (r *Runner) Run(ctx context.Context, symbols []string) *model.Batch {
	if r.opts.Limit > 0 && len(symbols) > r.opts.Limit {
		r.opts.Logger.Info().Int("universe", len(symbols)).Int("limit", r.opts.Limit).Msg("limiting scan")
		symbols = symbols[:r.opts.Limit]
	}

	batch := &model.Batch{
		ID:        uuid.NewString(),
		Source:    r.opts.Source,
		Period:    string(r.opts.Period),
		StartedAt: r.now(),
		Results:   make([]model.SymbolResult, len(symbols)),
	}
	log := r.opts.Logger.With().Str("batch", batch.ID).Logger()
	log.Info().Int("symbols", len(symbols)).Str("period", batch.Period).Str("provider", r.fetcher.Name()).Msg("scan started")

	var (
		mu   sync.Mutex
		done int
	)
	p := pool.New().WithMaxGoroutines(r.opts.Workers)
	for i, sym := range symbols {
		p.Go(func() {
			res := r.ScanSymbol(ctx, sym)
			batch.Results[i] = res

			mu.Lock()
			defer mu.Unlock()
			done++
			if r.opts.Progress != nil {
				r.opts.Progress(done, len(symbols), res)
			}
		})
	}
	p.Wait()

	batch.FinishedAt = r.now()
	log.Info().
		Int("detected", len(batch.Detected())).
		Int("failed", len(batch.Failed())).
		Dur("took", batch.Duration()).
		Msg("scan finished")
	return batch
}

// ScanSymbol runs fetch, transform and scan for one symbol.
func (r *Runner) ScanSymbol(ctx context.Context, symbol string) model.SymbolResult {
	log := logging.WithSymbol(r.opts.Logger, symbol)
	res := model.SymbolResult{Symbol: symbol, Signal: model.SignalResult{Symbol: symbol}}

	fail := func(err error) model.SymbolResult {
		res.Err = err.Error()
		res.ErrKind = model.KindOf(err)
		log.Debug().Err(err).Str("kind", string(res.ErrKind)).Msg("symbol failed")
		return res
	}

	bars, err := r.fetch(ctx, symbol, r.opts.Period)
	if err != nil {
		return fail(err)
	}
	res.Bars = len(bars)

	smoothed, err := calculator.HeikinAshi(bars)
	if err != nil {
		return fail(err)
	}
	sig, err := r.scanner.Evaluate(symbol, smoothed)
	res.Signal = sig
	if err != nil {
		return fail(err)
	}
	if sig.Matched {
		log.Info().Time("last_bar", sig.LastBarTime).Msg("reversal detected")
	}
	return res
}

// Chart returns the smoothed series of a symbol over at least three months.
func (r *Runner) Chart(ctx context.Context, symbol string) ([]model.SmoothedBar, error) {
	bars, err := r.fetch(ctx, symbol, r.opts.Period.AtLeast(collector.ThreeMonths))
	if err != nil {
		return nil, err
	}
	return calculator.HeikinAshi(bars)
}

// fetch paces and performs one upstream request. Transport and provider
// failures, including an empty series, come back as *model.UpstreamError;
// malformed payloads keep their ErrInvalidInput classification.
func (r *Runner) fetch(ctx context.Context, symbol string, period collector.Period) (model.Series, error) {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for request slot: %w", err)
		}
	}
	bars, err := r.fetcher.FetchDailyBars(ctx, symbol, period)
	switch {
	case err == nil && len(bars) == 0:
		return nil, model.NewUpstreamError(symbol, errors.New("no data returned"))
	case err == nil:
		return bars, nil
	case errors.Is(err, model.ErrInvalidInput):
		return nil, err
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		return nil, model.NewUpstreamError(symbol, err)
	}
}
