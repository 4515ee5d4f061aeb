package collector

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"HeikinSentinel/internal/model"
)

// RESTFetcher implements Fetcher against a generic JSON bar API:
//
//	GET {base}/api/v1/bars/daily?symbol=RY.TO&from=<unix>&to=<unix>
//	[{"timestamp": 1736139600, "open": 1, "high": 2, "low": 0.5, "close": 1.5, "volume": 100}, ...]
type RESTFetcher struct {
	BaseURL string
	APIKey  string
	Client  *resty.Client
	now     func() time.Time
}

// NewRESTFetcher creates a new fetcher with optional proxy support.
func NewRESTFetcher(baseURL, apiKey, proxyURL string, retries int) *RESTFetcher {
	return &RESTFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  newRestyClient(proxyURL, retries),
		now:     time.Now,
	}
}

func (f *RESTFetcher) Name() string { return "rest" }

// restBar is the expected JSON shape from the bar API.
type restBar struct {
	Timestamp int64    `json:"timestamp"`
	Open      *float64 `json:"open"`
	High      *float64 `json:"high"`
	Low       *float64 `json:"low"`
	Close     *float64 `json:"close"`
	Volume    float64  `json:"volume"`
}

func (f *RESTFetcher) FetchDailyBars(ctx context.Context, symbol string, period Period) ([]model.Bar, error) {
	start, end := period.Window(f.now())
	req := f.Client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"symbol": symbol,
			"from":   strconv.FormatInt(start.Unix(), 10),
			"to":     strconv.FormatInt(end.Unix(), 10),
		})
	if f.APIKey != "" {
		req.SetAuthToken(f.APIKey)
	}

	var raw []restBar
	resp, err := req.SetResult(&raw).Get(f.BaseURL + "/api/v1/bars/daily")
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch bars: status %d, body: %.200s", resp.StatusCode(), resp.String())
	}

	bars := make([]model.Bar, 0, len(raw))
	for _, rb := range raw {
		if rb.Open == nil || rb.High == nil || rb.Low == nil || rb.Close == nil {
			continue
		}
		bars = append(bars, model.Bar{
			Time:   time.Unix(rb.Timestamp, 0).UTC(),
			Open:   *rb.Open,
			High:   *rb.High,
			Low:    *rb.Low,
			Close:  *rb.Close,
			Volume: rb.Volume,
		})
	}
	return sortDedupe(bars), nil
}
