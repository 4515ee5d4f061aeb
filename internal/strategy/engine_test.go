package strategy

import (
	"errors"
	"testing"
	"time"

	"HeikinSentinel/internal/calculator"
	"HeikinSentinel/internal/model"
)

var day0 = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

// candles builds smoothed candles from (open, close) pairs.
func candles(pairs ...[2]float64) []model.SmoothedBar {
	out := make([]model.SmoothedBar, len(pairs))
	for i, p := range pairs {
		hi, lo := p[0], p[1]
		if lo > hi {
			hi, lo = lo, hi
		}
		out[i] = model.SmoothedBar{Time: day0.AddDate(0, 0, i), Open: p[0], Close: p[1], High: hi, Low: lo}
	}
	return out
}

func TestEvaluate_ThreeRedOneGreen(t *testing.T) {
	bars := candles([2]float64{10, 8}, [2]float64{8, 6}, [2]float64{6, 4}, [2]float64{4, 6})
	res, err := Evaluate("RY.TO", bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Matched {
		t.Error("expected pattern to match")
	}
	if res.Symbol != "RY.TO" {
		t.Errorf("expected symbol RY.TO, got %s", res.Symbol)
	}
	if !res.LastBarTime.Equal(bars[3].Time) {
		t.Errorf("expected last bar time %v, got %v", bars[3].Time, res.LastBarTime)
	}
}

func TestEvaluate_FlatLastBar(t *testing.T) {
	bars := candles([2]float64{10, 8}, [2]float64{8, 6}, [2]float64{6, 4}, [2]float64{4, 4})
	res, err := Evaluate("TD.TO", bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Matched {
		t.Error("flat last candle must not count as green")
	}
}

func TestEvaluate_Colors(t *testing.T) {
	tests := []struct {
		name  string
		pairs [][2]float64
		want  bool
	}{
		{"match", [][2]float64{{10, 8}, {8, 6}, {6, 4}, {4, 6}}, true},
		{"flat among reds", [][2]float64{{10, 8}, {8, 8}, {6, 4}, {4, 6}}, false},
		{"flat first", [][2]float64{{9, 9}, {8, 6}, {6, 4}, {4, 6}}, false},
		{"green in reds", [][2]float64{{10, 8}, {6, 8}, {6, 4}, {4, 6}}, false},
		{"all red", [][2]float64{{10, 8}, {8, 6}, {6, 4}, {4, 3}}, false},
		{"all green", [][2]float64{{1, 2}, {2, 3}, {3, 4}, {4, 5}}, false},
		{"only trailing window counts", [][2]float64{{1, 2}, {1, 2}, {10, 8}, {8, 6}, {6, 4}, {4, 6}}, true},
		{"older match ignored", [][2]float64{{10, 8}, {8, 6}, {6, 4}, {4, 6}, {6, 5}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Evaluate("X.TO", candles(tt.pairs...))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Matched != tt.want {
				t.Errorf("expected matched=%v, got %v", tt.want, res.Matched)
			}
		})
	}
}

func TestEvaluate_InsufficientData(t *testing.T) {
	for n := 0; n < Window; n++ {
		pairs := make([][2]float64, n)
		for i := range pairs {
			pairs[i] = [2]float64{10, 8}
		}
		res, err := Evaluate("BNS.TO", candles(pairs...))
		if !errors.Is(err, model.ErrInsufficientData) {
			t.Errorf("len %d: expected ErrInsufficientData, got %v", n, err)
		}
		if res.Matched {
			t.Errorf("len %d: expected matched=false", n)
		}
	}
}

func TestEvaluate_SingleRawBarPipeline(t *testing.T) {
	smoothed, err := calculator.HeikinAshi(model.Series{
		{Time: day0, Open: 10, High: 12, Low: 9, Close: 11},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if smoothed[0].Close != 10.5 || smoothed[0].Open != 10.5 {
		t.Fatalf("unexpected seed candle %+v", smoothed[0])
	}
	if _, err := Evaluate("ENB.TO", smoothed); !errors.Is(err, model.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestEvaluate_RawSeriesPipeline(t *testing.T) {
	// Three falling sessions then a wide bullish session strong enough to
	// turn the lagging Heikin-Ashi body green.
	raw := model.Series{
		{Time: day0, Open: 10, High: 10.5, Low: 7, Close: 8},
		{Time: day0.AddDate(0, 0, 1), Open: 8, High: 8.5, Low: 5.5, Close: 6},
		{Time: day0.AddDate(0, 0, 2), Open: 6, High: 6.5, Low: 3.5, Close: 4},
		{Time: day0.AddDate(0, 0, 3), Open: 4, High: 12, Low: 4, Close: 6},
	}
	smoothed, err := calculator.HeikinAshi(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, want := range Pattern {
		if got := smoothed[i].Color(); got != want {
			t.Fatalf("candle %d: expected %s, got %s (%+v)", i, want, got, smoothed[i])
		}
	}
	res, err := Evaluate("CNQ.TO", smoothed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Matched {
		t.Error("expected pattern to match")
	}
}

func TestScanner_ConfirmHigherClose(t *testing.T) {
	s := NewScanner(Options{ConfirmHigherClose: true})

	// Green candle closes above the last red close.
	res, err := s.Evaluate("SU.TO", candles([2]float64{10, 8}, [2]float64{8, 6}, [2]float64{6, 4}, [2]float64{4, 6}))
	if err != nil || !res.Matched {
		t.Errorf("expected confirmed match, got matched=%v err=%v", res.Matched, err)
	}

	// Green body, but its close sits below the previous red close.
	res, err = s.Evaluate("SU.TO", candles([2]float64{10, 8}, [2]float64{8, 6}, [2]float64{6, 5}, [2]float64{3, 4}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Matched {
		t.Error("expected confirmation to reject the match")
	}
}
