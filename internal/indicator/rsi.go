package indicator

import "autotrader/internal/model"

// RSI computes the Relative Strength Index over the last `period`
// close-to-close changes using a simple mean (no Wilder smoothing).
// Requires more than `period` candles; otherwise not ready.
//
// Flat market (both averages zero) reads as neutral 50; a pure uptrend
// (no losses) as 100; a pure downtrend (no gains) as 0.
func RSI(candles []model.Candle, period int) Value {
	if period <= 0 || len(candles) <= period {
		return Value{}
	}

	// Last `period` changes end at the final candle.
	start := len(candles) - period
	var sumGain, sumLoss float64
	for i := start; i < len(candles); i++ {
		change := candles[i].Close - candles[i-1].Close
		if change > 0 {
			sumGain += change
		} else {
			sumLoss += -change
		}
	}

	avgGain := sumGain / float64(period)
	avgLoss := sumLoss / float64(period)

	switch {
	case avgGain == 0 && avgLoss == 0:
		return ready(50)
	case avgLoss == 0:
		return ready(100)
	case avgGain == 0:
		return ready(0)
	}

	rs := avgGain / avgLoss
	return ready(100 - 100/(1+rs))
}
