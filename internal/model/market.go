package model

import (
	"fmt"
	"math"
	"time"
)

// Bar represents a single raw daily candlestick.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Series is an ordered run of raw bars, ascending and unique by time.
type Series []Bar

// Validate rejects series that no core computation may consume:
// empty input, non-finite prices and timestamps that do not strictly ascend.
func (s Series) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: empty series", ErrInvalidInput)
	}
	for i, b := range s {
		if b.Time.IsZero() {
			return fmt.Errorf("%w: bar %d has no timestamp", ErrInvalidInput, i)
		}
		for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: bar %d (%s) has a non-finite price", ErrInvalidInput, i, b.Time.Format("2006-01-02"))
			}
		}
		if i > 0 && !b.Time.After(s[i-1].Time) {
			return fmt.Errorf("%w: bar %d (%s) is not after bar %d (%s)", ErrInvalidInput,
				i, b.Time.Format("2006-01-02"), i-1, s[i-1].Time.Format("2006-01-02"))
		}
	}
	return nil
}

// Last returns the most recent bar. The series must not be empty.
func (s Series) Last() Bar { return s[len(s)-1] }

// Color classifies a candle body.
type Color int

const (
	Flat Color = iota
	Red
	Green
)

func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Green:
		return "green"
	default:
		return "flat"
	}
}

// SmoothedBar is a Heikin-Ashi candle derived from a raw bar and its predecessor.
type SmoothedBar struct {
	Time  time.Time `json:"time"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

// Color reports red when the candle closed below its open, green when above.
func (b SmoothedBar) Color() Color {
	switch {
	case b.Close < b.Open:
		return Red
	case b.Close > b.Open:
		return Green
	default:
		return Flat
	}
}
