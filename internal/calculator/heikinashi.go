package calculator

import (
	"fmt"
	"math"

	"HeikinSentinel/internal/model"
)

// HeikinAshi converts a raw daily series into Heikin-Ashi candles.
// The output has the same length and order as the input.
//
//	close[i] = (open+high+low+close)[i] / 4
//	open[0]  = (open[0] + close[0]) / 2          (raw values)
//	open[i]  = (open[i-1] + close[i-1]) / 2      (smoothed values)
//	high[i]  = max(high[i], open[i], close[i])
//	low[i]   = min(low[i], open[i], close[i])
func HeikinAshi(series model.Series) ([]model.SmoothedBar, error) {
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("heikin-ashi: %w", err)
	}

	out := make([]model.SmoothedBar, len(series))
	var prev *model.SmoothedBar
	for i, raw := range series {
		out[i] = NextHeikinAshi(prev, raw)
		prev = &out[i]
	}
	return out, nil
}

// NextHeikinAshi computes one fold step: the smoothed candle for raw given the
// previous smoothed candle. A nil prev seeds the series from raw alone.
func NextHeikinAshi(prev *model.SmoothedBar, raw model.Bar) model.SmoothedBar {
	ha := model.SmoothedBar{Time: raw.Time}
	ha.Close = (raw.Open + raw.High + raw.Low + raw.Close) / 4
	if prev == nil {
		ha.Open = (raw.Open + raw.Close) / 2
	} else {
		ha.Open = (prev.Open + prev.Close) / 2
	}
	ha.High = math.Max(raw.High, math.Max(ha.Open, ha.Close))
	ha.Low = math.Min(raw.Low, math.Min(ha.Open, ha.Close))
	return ha
}
