// Package universe resolves the list of index constituents to scan.
package universe

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"HeikinSentinel/internal/cache"
)

// Source supplies normalized ticker symbols for one index or list.
type Source interface {
	Name() string
	Symbols(ctx context.Context) ([]string, error)
}

// ErrTooFew is returned when a source yields fewer symbols than it requires.
var ErrTooFew = errors.New("too few symbols")

// StaticSource returns a fixed list.
type StaticSource struct {
	Label string
	List  []string
	Norm  *Normalizer
}

func (s *StaticSource) Name() string { return s.Label }

func (s *StaticSource) Symbols(_ context.Context) ([]string, error) {
	out := s.List
	if s.Norm != nil {
		out = s.Norm.Normalize(s.List)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", s.Label, ErrTooFew)
	}
	return out, nil
}

// Chain tries each source in turn and returns the first that succeeds.
type Chain struct {
	Label   string
	Sources []Source
	Logger  zerolog.Logger
}

func (c *Chain) Name() string { return c.Label }

func (c *Chain) Symbols(ctx context.Context) ([]string, error) {
	var errs []error
	for _, s := range c.Sources {
		syms, err := s.Symbols(ctx)
		if err == nil {
			c.Logger.Info().Str("source", s.Name()).Int("symbols", len(syms)).Msg("universe resolved")
			return syms, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.Logger.Warn().Err(err).Str("source", s.Name()).Msg("universe source failed, trying next")
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("%s: all sources failed: %w", c.Label, errors.Join(errs...))
}

// Cached serves a source from cache while the entry is fresh.
type Cached struct {
	Source Source
	Cache  cache.Cache
	Logger zerolog.Logger
}

func (c *Cached) Name() string { return c.Source.Name() }

func (c *Cached) Symbols(ctx context.Context) ([]string, error) {
	key := c.Source.Name()
	if syms, ok := c.Cache.GetSymbols(key); ok {
		c.Logger.Debug().Str("source", key).Int("symbols", len(syms)).Msg("universe cache hit")
		return syms, nil
	}
	syms, err := c.Source.Symbols(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Cache.PutSymbols(key, syms); err != nil {
		c.Logger.Warn().Err(err).Str("source", key).Msg("store universe in cache")
	}
	return syms, nil
}

// Options configures Build.
type Options struct {
	CompositeURLs []string
	TSX60URL      string
	CSVPath       string
	Fallback      []string
	Proxy         string
	Normalizer    *Normalizer
	Cache         cache.Cache // nil disables caching
	Logger        zerolog.Logger
}

// Build resolves a source choice: auto, composite, tsx60, csv or static.
// auto tries the composite index, then the TSX 60, then the static fallback.
// composite and tsx60 also fall back to the static list when their pages are
// unusable. Only scraped lists are cached, never the fallback.
func Build(choice string, opts Options) (Source, error) {
	client := newHTTPClient(opts.Proxy)
	cached := func(src Source) Source {
		if opts.Cache == nil {
			return src
		}
		return &Cached{Source: src, Cache: opts.Cache, Logger: opts.Logger}
	}
	composite := cached(&WikipediaSource{
		Label: "composite", URLs: opts.CompositeURLs, MinPerTable: 40, MinTotal: 100,
		Norm: opts.Normalizer, Client: client, Logger: opts.Logger,
	})
	tsx60 := cached(&WikipediaSource{
		Label: "tsx60", URLs: []string{opts.TSX60URL}, MinPerTable: 40, MinTotal: 40,
		Norm: opts.Normalizer, Client: client, Logger: opts.Logger,
	})
	static := &StaticSource{Label: "static", List: opts.Fallback, Norm: opts.Normalizer}

	switch choice {
	case "auto":
		return &Chain{Label: "auto", Sources: []Source{composite, tsx60, static}, Logger: opts.Logger}, nil
	case "composite":
		return &Chain{Label: "composite", Sources: []Source{composite, static}, Logger: opts.Logger}, nil
	case "tsx60":
		return &Chain{Label: "tsx60", Sources: []Source{tsx60, static}, Logger: opts.Logger}, nil
	case "static":
		return static, nil
	case "csv":
		// Local files are cheap to re-read; skip the cache.
		return &CSVSource{Path: opts.CSVPath, Norm: opts.Normalizer}, nil
	default:
		return nil, fmt.Errorf("unknown universe source %q", choice)
	}
}
