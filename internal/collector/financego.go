package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/shopspring/decimal"

	"HeikinSentinel/internal/model"
)

// FinanceGoFetcher implements Fetcher with the piquette/finance-go chart client.
// The client has no context support, so cancellation is only checked before
// the request and between bars.
type FinanceGoFetcher struct {
	now func() time.Time
}

// NewFinanceGoFetcher creates a finance-go backed fetcher.
func NewFinanceGoFetcher() *FinanceGoFetcher {
	return &FinanceGoFetcher{now: time.Now}
}

func (f *FinanceGoFetcher) Name() string { return "financego" }

func (f *FinanceGoFetcher) FetchDailyBars(ctx context.Context, symbol string, period Period) ([]model.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start, end := period.Window(f.now())
	iter := chart.Get(&chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	})

	var bars []model.Bar
	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b := iter.Bar()
		if b == nil || anyZero(b.Open, b.High, b.Low, b.Close) {
			continue
		}
		bars = append(bars, model.Bar{
			Time:   time.Unix(int64(b.Timestamp), 0).UTC(),
			Open:   b.Open.InexactFloat64(),
			High:   b.High.InexactFloat64(),
			Low:    b.Low.InexactFloat64(),
			Close:  b.Close.InexactFloat64(),
			Volume: float64(b.Volume),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("finance-go chart %s: %w", symbol, err)
	}
	return sortDedupe(bars), nil
}

// anyZero reports a missing price. finance-go decodes null quotes as zero.
func anyZero(ds ...decimal.Decimal) bool {
	for _, d := range ds {
		if d.IsZero() {
			return true
		}
	}
	return false
}
