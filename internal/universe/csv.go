package universe

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// CSVSource reads tickers from a local CSV file with a Symbol or Ticker column.
type CSVSource struct {
	Path string
	Norm *Normalizer
}

func (c *CSVSource) Name() string { return "csv" }

func (c *CSVSource) Symbols(_ context.Context) ([]string, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	syms, err := ReadCSV(f, c.Norm)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Path, err)
	}
	return syms, nil
}

// ReadCSV extracts and normalizes the ticker column of a CSV document.
func ReadCSV(r io.Reader, norm *Normalizer) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty csv")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := -1
	for i, h := range header {
		if symbolColumns[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("no Symbol or Ticker column in header %v", header)
	}

	var raw []string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if col < len(rec) {
			raw = append(raw, rec[col])
		}
	}
	syms := norm.Normalize(raw)
	if len(syms) == 0 {
		return nil, ErrTooFew
	}
	return syms, nil
}
