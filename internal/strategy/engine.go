package strategy

import (
	"fmt"

	"HeikinSentinel/internal/model"
)

// Window is the number of trailing candles the reversal pattern inspects.
const Window = 4

// Pattern is the trailing color sequence that fires the signal: three red
// candles followed by one green candle.
var Pattern = [Window]model.Color{model.Red, model.Red, model.Red, model.Green}

// Options tunes the scanner.
type Options struct {
	// ConfirmHigherClose additionally requires the green candle to close above
	// the last red candle.
	ConfirmHigherClose bool
}

// Scanner detects the three-red-one-green pattern on Heikin-Ashi candles.
type Scanner struct {
	opts Options
}

// NewScanner creates a Scanner.
func NewScanner(opts Options) *Scanner {
	return &Scanner{opts: opts}
}

// Evaluate checks the last four candles of bars for the pattern.
// Fewer than four candles yields an unmatched result and ErrInsufficientData.
func (s *Scanner) Evaluate(symbol string, bars []model.SmoothedBar) (model.SignalResult, error) {
	res := model.SignalResult{Symbol: symbol}
	if len(bars) > 0 {
		res.LastBarTime = bars[len(bars)-1].Time
	}
	if len(bars) < Window {
		return res, fmt.Errorf("%w: need %d candles, got %d", model.ErrInsufficientData, Window, len(bars))
	}

	tail := bars[len(bars)-Window:]
	res.Matched = matchColors(tail)
	if res.Matched && s.opts.ConfirmHigherClose {
		res.Matched = tail[Window-1].Close > tail[Window-2].Close
	}
	return res, nil
}

// Evaluate scans with default options.
func Evaluate(symbol string, bars []model.SmoothedBar) (model.SignalResult, error) {
	return NewScanner(Options{}).Evaluate(symbol, bars)
}

func matchColors(tail []model.SmoothedBar) bool {
	for i, want := range Pattern {
		if tail[i].Color() != want {
			return false
		}
	}
	return true
}
