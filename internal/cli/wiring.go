package cli

import (
	"fmt"

	"HeikinSentinel/internal/cache"
	"HeikinSentinel/internal/collector"
	"HeikinSentinel/internal/config"
	"HeikinSentinel/internal/scan"
	"HeikinSentinel/internal/strategy"
	"HeikinSentinel/internal/universe"
)

// openCache returns the SQLite cache when a path is configured, else memory.
func (a *App) openCache() (cache.Cache, error) {
	if a.cache != nil {
		return a.cache, nil
	}
	ttl := cache.TTL{Symbols: a.Config.Universe.CacheTTL, Bars: a.Config.DataSource.CacheTTL}
	if path := a.Config.Cache.SQLitePath; path != "" {
		c, err := cache.NewSQLiteCache(path, ttl, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("open cache: %w", err)
		}
		a.cache = c
	} else {
		a.cache = cache.NewMemoryCache(ttl)
	}
	return a.cache, nil
}

func (a *App) normalizer() (*universe.Normalizer, error) {
	n := a.Config.Universe.Normalization
	t := universe.Table{Version: n.Version, ExchangeSuffix: n.ExchangeSuffix, Pattern: n.Pattern}
	for _, r := range n.Rules {
		t.Rules = append(t.Rules, universe.Rule{Suffix: r.Suffix, Replace: r.Replace})
	}
	return universe.NewNormalizer(t)
}

func (a *App) universe() (universe.Source, error) {
	norm, err := a.normalizer()
	if err != nil {
		return nil, err
	}
	c, err := a.openCache()
	if err != nil {
		return nil, err
	}
	u := a.Config.Universe
	return universe.Build(u.Source, universe.Options{
		CompositeURLs: u.CompositeURLs,
		TSX60URL:      u.TSX60URL,
		CSVPath:       u.CSVPath,
		Fallback:      u.Fallback,
		Proxy:         a.Config.Proxy,
		Normalizer:    norm,
		Cache:         c,
		Logger:        a.Logger,
	})
}

func (a *App) fetcher() (collector.Fetcher, error) {
	d := a.Config.DataSource
	f, err := collector.New(collector.Options{
		Provider: d.Provider,
		BaseURL:  d.BaseURL,
		APIKey:   d.APIKey,
		Proxy:    a.Config.Proxy,
		Retries:  d.Retries,
	})
	if err != nil {
		return nil, err
	}
	c, err := a.openCache()
	if err != nil {
		return nil, err
	}
	return &collector.CachedFetcher{Fetcher: f, Cache: c, Logger: a.Logger}, nil
}

// service wires config into a scan service.
func (a *App) service() (*scan.Service, error) {
	if err := a.Config.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	period, err := collector.ParsePeriod(a.Config.DataSource.Period)
	if err != nil {
		return nil, err
	}
	src, err := a.universe()
	if err != nil {
		return nil, err
	}
	f, err := a.fetcher()
	if err != nil {
		return nil, err
	}
	runner := scan.NewRunner(f, scan.Options{
		Period:   period,
		Workers:  a.Config.DataSource.Workers,
		Cooldown: a.Config.DataSource.Cooldown,
		Limit:    a.Config.Universe.Limit,
		Strategy: strategy.Options{ConfirmHigherClose: a.Config.Strategy.ConfirmHigherClose},
		Logger:   a.Logger,
	})
	return &scan.Service{Universe: src, Runner: runner}, nil
}

// overrides are the scan flags shared by several commands.
type overrides struct {
	source   string
	csv      string
	period   string
	limit    int
	workers  int
	cooldown string
}

func (o overrides) apply(cfg *config.Config) error {
	if o.csv != "" {
		cfg.Universe.CSVPath = o.csv
		if o.source == "" {
			cfg.Universe.Source = "csv"
		}
	}
	if o.source != "" {
		cfg.Universe.Source = o.source
	}
	if o.period != "" {
		cfg.DataSource.Period = o.period
	}
	if o.limit > 0 {
		cfg.Universe.Limit = o.limit
	}
	if o.workers > 0 {
		cfg.DataSource.Workers = o.workers
	}
	if o.cooldown != "" {
		d, err := parseCooldown(o.cooldown)
		if err != nil {
			return err
		}
		cfg.DataSource.Cooldown = d
	}
	return nil
}
