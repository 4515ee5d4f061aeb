package collector

import (
	"context"
	"fmt"
	"time"

	"HeikinSentinel/internal/model"
)

// Fetcher defines the interface for fetching daily market data.
type Fetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, period Period) ([]model.Bar, error)
	Name() string
}

// Period is a lookback window of daily bars.
type Period string

const (
	OneMonth    Period = "1mo"
	TwoMonths   Period = "2mo"
	ThreeMonths Period = "3mo"
	SixMonths   Period = "6mo"
)

var periodMonths = map[Period]int{
	OneMonth:    1,
	TwoMonths:   2,
	ThreeMonths: 3,
	SixMonths:   6,
}

// ParsePeriod validates a period string.
func ParsePeriod(s string) (Period, error) {
	p := Period(s)
	if _, ok := periodMonths[p]; !ok {
		return "", fmt.Errorf("unsupported period %q (want 1mo, 2mo, 3mo or 6mo)", s)
	}
	return p, nil
}

// Window returns the [start, end] interval the period covers up to now.
func (p Period) Window(now time.Time) (time.Time, time.Time) {
	months, ok := periodMonths[p]
	if !ok {
		months = periodMonths[ThreeMonths]
	}
	return now.AddDate(0, -months, 0), now
}

// AtLeast returns the longer of p and floor.
func (p Period) AtLeast(floor Period) Period {
	if periodMonths[p] >= periodMonths[floor] {
		return p
	}
	return floor
}
