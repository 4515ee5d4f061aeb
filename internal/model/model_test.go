package model

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"
)

func TestSeriesValidate(t *testing.T) {
	d := func(i int) time.Time { return time.Date(2025, 1, 6+i, 21, 0, 0, 0, time.UTC) }
	ok := Bar{Time: d(0), Open: 1, High: 2, Low: 0.5, Close: 1.5}

	tests := []struct {
		name    string
		series  Series
		wantErr bool
	}{
		{"valid", Series{ok, {Time: d(1), Open: 1, High: 1, Low: 1, Close: 1}}, false},
		{"empty", Series{}, true},
		{"nil", nil, true},
		{"zero time", Series{{Open: 1, High: 1, Low: 1, Close: 1}}, true},
		{"nan close", Series{{Time: d(0), Open: 1, High: 1, Low: 1, Close: math.NaN()}}, true},
		{"inf high", Series{{Time: d(0), Open: 1, High: math.Inf(1), Low: 1, Close: 1}}, true},
		{"duplicate time", Series{ok, ok}, true},
		{"descending", Series{{Time: d(1), Open: 1, High: 1, Low: 1, Close: 1}, ok}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.series.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error %v should wrap ErrInvalidInput", err)
			}
		})
	}
}

func TestSmoothedBarColor(t *testing.T) {
	if c := (SmoothedBar{Open: 2, Close: 1}).Color(); c != Red {
		t.Errorf("got %s", c)
	}
	if c := (SmoothedBar{Open: 1, Close: 2}).Color(); c != Green {
		t.Errorf("got %s", c)
	}
	if c := (SmoothedBar{Open: 1, Close: 1}).Color(); c != Flat || c.String() != "flat" {
		t.Errorf("got %s", c)
	}
}

func TestKindOf(t *testing.T) {
	cause := errors.New("connection reset")
	up := NewUpstreamError("RY.TO", cause)

	tests := []struct {
		err  error
		want ErrorKind
	}{
		{nil, KindNone},
		{up, KindUpstream},
		{fmt.Errorf("scan: %w", up), KindUpstream},
		{NewUpstreamError("RY.TO", ErrInvalidInput), KindUpstream},
		{fmt.Errorf("heikin-ashi: %w", ErrInvalidInput), KindInvalidInput},
		{fmt.Errorf("%w: need 4", ErrInsufficientData), KindInsufficientData},
		{cause, KindUnknown},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}

	if !errors.Is(up, cause) {
		t.Error("UpstreamError should unwrap to its cause")
	}
	var target *UpstreamError
	if !errors.As(fmt.Errorf("wrapped: %w", up), &target) || target.Symbol != "RY.TO" {
		t.Error("errors.As should find the UpstreamError")
	}
}

func TestBatch(t *testing.T) {
	start := time.Date(2025, 3, 3, 22, 0, 0, 0, time.UTC)
	b := &Batch{
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
		Results: []SymbolResult{
			{Symbol: "A.TO", Signal: SignalResult{Matched: true}},
			{Symbol: "B.TO"},
			{Symbol: "C.TO", Signal: SignalResult{Matched: true}},
			{Symbol: "D.TO", Err: "boom", ErrKind: KindUpstream},
		},
	}
	det := b.Detected()
	if len(det) != 2 || det[0].Symbol != "A.TO" || det[1].Symbol != "C.TO" {
		t.Errorf("detected = %+v", det)
	}
	if f := b.Failed(); len(f) != 1 || f[0].Symbol != "D.TO" {
		t.Errorf("failed = %+v", f)
	}
	if b.Duration() != 90*time.Second {
		t.Errorf("duration = %v", b.Duration())
	}
}
