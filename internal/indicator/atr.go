package indicator

import (
	"math"

	"autotrader/internal/model"
)

// ATR computes the Average True Range as a simple mean of the last
// `period` true-range values. Requires more than `period` candles
// (true range needs a previous close); otherwise not ready.
func ATR(candles []model.Candle, period int) Value {
	if period <= 0 || len(candles) <= period {
		return Value{}
	}

	start := len(candles) - period
	var sum float64
	for i := start; i < len(candles); i++ {
		sum += trueRange(candles[i], candles[i-1])
	}
	return ready(sum / float64(period))
}

// trueRange is max(high−low, |high−prevClose|, |low−prevClose|).
func trueRange(c, prev model.Candle) float64 {
	tr := c.High - c.Low
	if hc := math.Abs(c.High - prev.Close); hc > tr {
		tr = hc
	}
	if lc := math.Abs(c.Low - prev.Close); lc > tr {
		tr = lc
	}
	return tr
}
