// Package indicator provides technical indicator calculations over candle
// histories.
//
// All computations are pure functions of the input slice and the configured
// period — no hidden state, no wall-clock dependence. Insufficient history
// yields a non-ready Value, which is distinct from a computed zero.
package indicator

import "autotrader/internal/model"

// Value is a computed indicator value. When Ready is false there was not
// enough history and Value is meaningless.
type Value struct {
	Value float64 `json:"value"`
	Ready bool    `json:"ready"`
}

// ready wraps a computed value.
func ready(v float64) Value { return Value{Value: v, Ready: true} }

// Config holds the indicator parameters applied to every timeframe.
type Config struct {
	RSIPeriod      int
	VolumeLookback int
	ATRPeriod      int
}

// Snapshot is the per-timeframe indicator summary handed to the decision
// assembler.
type Snapshot struct {
	RSI          Value `json:"rsi"`
	AvgVolume    Value `json:"avg_volume"`
	LatestVolume Value `json:"latest_volume"`
}

// Compute derives the full snapshot for one timeframe's history.
func Compute(candles []model.Candle, cfg Config) Snapshot {
	snap := Snapshot{
		RSI:       RSI(candles, cfg.RSIPeriod),
		AvgVolume: AvgVolume(candles, cfg.VolumeLookback),
	}
	if n := len(candles); n > 0 {
		snap.LatestVolume = ready(candles[n-1].Volume)
	}
	return snap
}
