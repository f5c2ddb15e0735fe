package model

import (
	"fmt"
	"strconv"
)

// KlineEntry is one element of a Bybit v5 kline push message. Start is in
// epoch milliseconds; OHLCV fields arrive as decimal strings. Confirm is
// true once the exchange guarantees the bar will not be revised.
type KlineEntry struct {
	Start    int64  `json:"start"`
	End      int64  `json:"end"`
	Interval string `json:"interval"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
	Confirm  bool   `json:"confirm"`
}

// CandleFromKline converts a feed kline entry into a Candle. A missing or
// non-numeric field is a hard error: the engine never fabricates price data,
// so the caller must drop the message and surface the failure.
func CandleFromKline(k KlineEntry) (Candle, error) {
	if k.Start <= 0 {
		return Candle{}, fmt.Errorf("kline: invalid start %d", k.Start)
	}

	open, err := parsePrice("open", k.Open)
	if err != nil {
		return Candle{}, err
	}
	high, err := parsePrice("high", k.High)
	if err != nil {
		return Candle{}, err
	}
	low, err := parsePrice("low", k.Low)
	if err != nil {
		return Candle{}, err
	}
	closePx, err := parsePrice("close", k.Close)
	if err != nil {
		return Candle{}, err
	}

	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil || volume < 0 {
		return Candle{}, fmt.Errorf("kline: invalid volume %q", k.Volume)
	}

	return Candle{
		Start:  float64(k.Start) / 1000.0, // ms → s
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePx,
		Volume: volume,
	}, nil
}

func parsePrice(field, raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("kline: invalid %s %q", field, raw)
	}
	return v, nil
}
