// Package collector fetches raw daily price series from market data providers.
package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"HeikinSentinel/internal/cache"
	"HeikinSentinel/internal/model"
)

// Options configures New.
type Options struct {
	Provider string // yahoo, financego, rest, mock
	BaseURL  string
	APIKey   string
	Proxy    string
	Retries  int
}

// New creates the fetcher for a provider.
func New(opts Options) (Fetcher, error) {
	switch opts.Provider {
	case "", "yahoo":
		return NewYahooFetcher(opts.Proxy, opts.Retries), nil
	case "financego":
		return NewFinanceGoFetcher(), nil
	case "rest":
		if opts.BaseURL == "" {
			return nil, fmt.Errorf("rest provider needs a base_url")
		}
		return NewRESTFetcher(opts.BaseURL, opts.APIKey, opts.Proxy, opts.Retries), nil
	case "mock":
		return &MockFetcher{Price: 100}, nil
	default:
		return nil, fmt.Errorf("unknown data provider %q", opts.Provider)
	}
}

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price float64
	// Bars, when set, is returned for every symbol not in BySymbol.
	Bars     []model.Bar
	BySymbol map[string][]model.Bar
	Errs     map[string]error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(ctx context.Context, symbol string, period Period) ([]model.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.Errs[symbol]; ok {
		return nil, err
	}
	if bars, ok := m.BySymbol[symbol]; ok {
		return bars, nil
	}
	if m.Bars != nil {
		return m.Bars, nil
	}
	start, end := period.Window(time.Now().UTC().Truncate(24 * time.Hour))
	return generateMockBars(m.Price, int(end.Sub(start).Hours()/24)), nil
}

// generateMockBars builds a gently oscillating daily series ending yesterday.
func generateMockBars(basePrice float64, count int) []model.Bar {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	bars := make([]model.Bar, count)
	for i := 0; i < count; i++ {
		drift := float64((i%10)-5) * 0.004
		p := basePrice * (1 + drift)
		bars[i] = model.Bar{
			Time:   today.AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// CachedFetcher serves fetches from a TTL cache when possible.
type CachedFetcher struct {
	Fetcher Fetcher
	Cache   cache.Cache
	Logger  zerolog.Logger
}

func (c *CachedFetcher) Name() string { return c.Fetcher.Name() }

func (c *CachedFetcher) FetchDailyBars(ctx context.Context, symbol string, period Period) ([]model.Bar, error) {
	key := c.Fetcher.Name() + ":" + symbol
	if bars, ok := c.Cache.GetBars(key, string(period)); ok {
		c.Logger.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("bars cache hit")
		return bars, nil
	}
	bars, err := c.Fetcher.FetchDailyBars(ctx, symbol, period)
	if err != nil {
		return nil, err
	}
	if len(bars) > 0 {
		if err := c.Cache.PutBars(key, string(period), bars); err != nil {
			c.Logger.Warn().Err(err).Str("symbol", symbol).Msg("store bars in cache")
		}
	}
	return bars, nil
}
