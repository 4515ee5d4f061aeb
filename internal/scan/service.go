package scan

import (
	"context"
	"fmt"

	"HeikinSentinel/internal/model"
	"HeikinSentinel/internal/universe"
)

// Service resolves the universe and scans it. It is what the CLI, the web
// server and the scheduler call.
type Service struct {
	Universe universe.Source
	Runner   *Runner
}

// Scan resolves the universe then runs one batch. Only a universe failure is
// returned as an error; per-symbol failures live on the batch.
func (s *Service) Scan(ctx context.Context, progress ProgressFunc) (*model.Batch, error) {
	symbols, err := s.Universe.Symbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve universe: %w", err)
	}
	r := *s.Runner
	r.opts.Source = s.Universe.Name()
	r.opts.Progress = progress
	return r.Run(ctx, symbols), nil
}

// Symbols scans an explicit list, bypassing the universe.
func (s *Service) Symbols(ctx context.Context, symbols []string, progress ProgressFunc) *model.Batch {
	r := *s.Runner
	r.opts.Source = "symbols"
	r.opts.Progress = progress
	return r.Run(ctx, symbols)
}

// Chart returns the smoothed series for one symbol.
func (s *Service) Chart(ctx context.Context, symbol string) ([]model.SmoothedBar, error) {
	return s.Runner.Chart(ctx, symbol)
}
