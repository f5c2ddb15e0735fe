// Package model defines the market-data and decision types shared across
// the trading engine.
package model

// Candle represents one confirmed OHLCV bar for a single instrument.
// Start is the bar open time in seconds since epoch. Prices are quote
// currency floats; the feed guarantees low <= open,close <= high and the
// engine does not re-validate it.
type Candle struct {
	Start  float64 `json:"start"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// TimeframeCandle is a confirmed candle tagged with the timeframe it
// belongs to, as delivered by the market-data feed.
type TimeframeCandle struct {
	Timeframe string `json:"timeframe"` // interval id, e.g. "1", "5", "60"
	Symbol    string `json:"symbol"`
	Candle    Candle `json:"candle"`
}
