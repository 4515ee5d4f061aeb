package calculator

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"HeikinSentinel/internal/model"
)

var day0 = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

func bar(i int, o, h, l, c float64) model.Bar {
	return model.Bar{Time: day0.AddDate(0, 0, i), Open: o, High: h, Low: l, Close: c}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

// randomSeries builds a plausible random walk of n daily bars.
func randomSeries(n int, seed int64) model.Series {
	r := rand.New(rand.NewSource(seed))
	price := 10 + r.Float64()*100
	s := make(model.Series, n)
	for i := range s {
		open := price
		closePrice := open * (1 + (r.Float64()-0.5)*0.1)
		high := math.Max(open, closePrice) * (1 + r.Float64()*0.02)
		low := math.Min(open, closePrice) * (1 - r.Float64()*0.02)
		s[i] = bar(i, open, high, low, closePrice)
		price = closePrice
	}
	return s
}

func TestHeikinAshi_SingleBarSeed(t *testing.T) {
	out, err := HeikinAshi(model.Series{bar(0, 10, 12, 9, 11)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 bar, got %d", len(out))
	}
	ha := out[0]
	if ha.Close != 10.5 {
		t.Errorf("close: expected 10.5, got %v", ha.Close)
	}
	if ha.Open != 10.5 {
		t.Errorf("open: expected 10.5, got %v", ha.Open)
	}
	if ha.High != 12 || ha.Low != 9 {
		t.Errorf("high/low: expected 12/9, got %v/%v", ha.High, ha.Low)
	}
	if ha.Color() != model.Flat {
		t.Errorf("expected flat seed candle, got %s", ha.Color())
	}
}

func TestHeikinAshi_Recurrence(t *testing.T) {
	series := model.Series{
		bar(0, 10, 11, 9, 10.5),
		bar(1, 10.5, 12, 10, 11.5),
		bar(2, 11.5, 11.6, 11.4, 11.5),
	}
	out, err := HeikinAshi(series)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []model.SmoothedBar{
		{Open: 10.25, Close: 10.125, High: 11, Low: 9},
		{Open: 10.1875, Close: 11, High: 12, Low: 10},
		{Open: 10.59375, Close: 11.5, High: 11.6, Low: 10.59375},
	}
	for i, w := range want {
		got := out[i]
		if !approx(got.Open, w.Open) || !approx(got.Close, w.Close) ||
			!approx(got.High, w.High) || !approx(got.Low, w.Low) {
			t.Errorf("bar %d: expected %+v, got %+v", i, w, got)
		}
		if !got.Time.Equal(series[i].Time) {
			t.Errorf("bar %d: timestamp changed from %v to %v", i, series[i].Time, got.Time)
		}
	}
}

func TestHeikinAshi_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		series model.Series
	}{
		{"nil", nil},
		{"empty", model.Series{}},
		{"descending", model.Series{bar(1, 1, 1, 1, 1), bar(0, 1, 1, 1, 1)}},
		{"duplicate timestamp", model.Series{bar(0, 1, 1, 1, 1), bar(0, 2, 2, 2, 2)}},
		{"nan price", model.Series{bar(0, math.NaN(), 1, 1, 1)}},
		{"missing timestamp", model.Series{{Open: 1, High: 1, Low: 1, Close: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := HeikinAshi(tt.series)
			if !errors.Is(err, model.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if out != nil {
				t.Errorf("expected nil output, got %d bars", len(out))
			}
		})
	}
}

func TestHeikinAshi_DoesNotMutateInput(t *testing.T) {
	series := randomSeries(30, 7)
	before := append(model.Series(nil), series...)
	if _, err := HeikinAshi(series); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range series {
		if series[i] != before[i] {
			t.Fatalf("input bar %d mutated: %+v -> %+v", i, before[i], series[i])
		}
	}
}

func TestNextHeikinAshi_MatchesFold(t *testing.T) {
	series := randomSeries(25, 42)
	folded, err := HeikinAshi(series)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var prev *model.SmoothedBar
	for i, raw := range series {
		step := NextHeikinAshi(prev, raw)
		if step != folded[i] {
			t.Fatalf("bar %d: step %+v differs from fold %+v", i, step, folded[i])
		}
		prev = &step
	}
}

func TestProperty_HeikinAshiInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("output length equals input length", prop.ForAll(
		func(n int, seed int64) bool {
			out, err := HeikinAshi(randomSeries(n, seed))
			return err == nil && len(out) == n
		},
		gen.IntRange(1, 120), gen.Int64(),
	))

	properties.Property("transform is deterministic", prop.ForAll(
		func(n int, seed int64) bool {
			s := randomSeries(n, seed)
			a, errA := HeikinAshi(s)
			b, errB := HeikinAshi(s)
			if errA != nil || errB != nil {
				return false
			}
			for i := range a {
				if a[i] != b[i] {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 120), gen.Int64(),
	))

	properties.Property("timestamps are preserved in order", prop.ForAll(
		func(n int, seed int64) bool {
			s := randomSeries(n, seed)
			out, err := HeikinAshi(s)
			if err != nil {
				return false
			}
			for i := range s {
				if !out[i].Time.Equal(s[i].Time) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 120), gen.Int64(),
	))

	properties.Property("high and low envelope the body", prop.ForAll(
		func(n int, seed int64) bool {
			out, err := HeikinAshi(randomSeries(n, seed))
			if err != nil {
				return false
			}
			for _, b := range out {
				if b.Low > math.Min(b.Open, b.Close) || b.High < math.Max(b.Open, b.Close) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 120), gen.Int64(),
	))

	properties.TestingRun(t)
}
