package universe

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// symbolColumns are the header names that identify a ticker column.
var symbolColumns = map[string]bool{
	"symbol":        true,
	"ticker":        true,
	"ticker symbol": true,
	"symbole":       true,
}

var footnoteRef = regexp.MustCompile(`\[[^\]]*\]`)

func newHTTPClient(proxyURL string) *resty.Client {
	client := resty.New()
	client.SetTimeout(25 * time.Second)
	client.SetHeaders(map[string]string{
		"User-Agent": "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36",
		"Accept-Language": "en,fr;q=0.9",
		"Cache-Control":   "no-cache",
		"Pragma":          "no-cache",
	})
	if proxyURL != "" {
		if _, err := url.Parse(proxyURL); err == nil {
			client.SetProxy(proxyURL)
		}
	}
	return client
}

// WikipediaSource scrapes constituent tables from Wikipedia pages.
type WikipediaSource struct {
	Label string
	URLs  []string
	// MinPerTable is the number of normalized symbols a table needs to qualify.
	MinPerTable int
	// MinTotal is the number of symbols a page needs before it is accepted.
	MinTotal int
	Attempts int           // per URL, default 3
	Delay    time.Duration // between attempts, default 1s
	Norm     *Normalizer
	Client   *resty.Client
	Logger   zerolog.Logger
}

func (w *WikipediaSource) Name() string { return w.Label }

func (w *WikipediaSource) Symbols(ctx context.Context) ([]string, error) {
	for _, u := range w.URLs {
		syms, err := w.fromURL(ctx, u)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			w.Logger.Warn().Err(err).Str("url", u).Msg("wikipedia page unusable")
			continue
		}
		if len(syms) >= w.MinTotal {
			return syms, nil
		}
		w.Logger.Warn().Str("url", u).Int("symbols", len(syms)).Int("need", w.MinTotal).Msg("wikipedia page has too few symbols")
	}
	return nil, fmt.Errorf("%s: %w from %d page(s)", w.Label, ErrTooFew, len(w.URLs))
}

func (w *WikipediaSource) fromURL(ctx context.Context, u string) ([]string, error) {
	attempts := w.Attempts
	if attempts <= 0 {
		attempts = 3
	}
	delay := w.Delay
	if delay == 0 {
		delay = time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		syms, err := w.fetchOnce(ctx, u)
		if err == nil {
			return syms, nil
		}
		lastErr = err
		w.Logger.Debug().Err(err).Str("url", u).Msgf("wikipedia attempt %d/%d failed", attempt, attempts)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

func (w *WikipediaSource) fetchOnce(ctx context.Context, u string) ([]string, error) {
	resp, err := w.Client.R().SetContext(ctx).Get(u)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch: status %d", resp.StatusCode())
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	syms := SymbolsFromTables(doc, w.Norm, w.MinPerTable)
	if syms == nil {
		return nil, fmt.Errorf("no table with a symbol column and at least %d symbols", w.MinPerTable)
	}
	return syms, nil
}

// SymbolsFromTables returns the normalized symbols of the first HTML table
// that has a ticker column and at least minPerTable valid entries.
func SymbolsFromTables(doc *goquery.Document, norm *Normalizer, minPerTable int) []string {
	var found []string
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		col := symbolColumnIndex(table)
		if col < 0 {
			return true
		}
		var raw []string
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			if row.Find("td").Length() == 0 {
				return
			}
			cells := row.Children().Filter("td, th")
			if col < cells.Length() {
				raw = append(raw, cleanCell(cells.Eq(col).Text()))
			}
		})
		syms := norm.Normalize(raw)
		if len(syms) >= minPerTable {
			found = syms
			return false
		}
		return true
	})
	return found
}

func symbolColumnIndex(table *goquery.Selection) int {
	idx := -1
	header := table.Find("tr").First()
	header.Children().Filter("th, td").EachWithBreak(func(i int, cell *goquery.Selection) bool {
		if symbolColumns[strings.ToLower(cleanCell(cell.Text()))] {
			idx = i
			return false
		}
		return true
	})
	return idx
}

func cleanCell(s string) string {
	return strings.TrimSpace(footnoteRef.ReplaceAllString(s, ""))
}
