package indicator

import "autotrader/internal/model"

// AvgVolume computes the mean volume over the last min(len, lookback)
// candles. Not ready only when the history is empty.
func AvgVolume(candles []model.Candle, lookback int) Value {
	if len(candles) == 0 || lookback <= 0 {
		return Value{}
	}

	n := lookback
	if len(candles) < n {
		n = len(candles)
	}

	var sum float64
	for _, c := range candles[len(candles)-n:] {
		sum += c.Volume
	}
	return ready(sum / float64(n))
}
