package decision

import (
	"context"
	"errors"
	"strings"
	"testing"

	"autotrader/config"
	"autotrader/internal/indicator"
	"autotrader/internal/model"
)

// fakeOracle returns a canned reply or error and records the last prompt.
type fakeOracle struct {
	reply      string
	err        error
	lastPrompt string
	calls      int
}

func (f *fakeOracle) Judge(ctx context.Context, prompt string) (string, error) {
	f.calls++
	f.lastPrompt = prompt
	return f.reply, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		Symbol:    "BTCUSDT",
		PrimaryTF: "1",
		Timeframes: []config.Timeframe{
			{ID: "1", Label: "1m", Retention: 3},
			{ID: "5", Label: "5m", Retention: 3},
		},
	}
}

func someCandles(n int) []model.Candle {
	out := make([]model.Candle, n)
	for i := range out {
		out[i] = model.Candle{
			Start: float64(1700000000 + i*60), Open: 100, High: 101, Low: 99,
			Close: 100.5, Volume: 12.34,
		}
	}
	return out
}

func TestDecide_NormalizesReply(t *testing.T) {
	cases := []struct {
		reply string
		want  model.Decision
	}{
		{"BUY", model.DecisionBuy},
		{"  buy \n", model.DecisionBuy},
		{"Sell", model.DecisionSell},
		{"WAIT", model.DecisionWait},
		{"HOLD", model.DecisionWait},           // unknown verdict
		{"", model.DecisionWait},               // empty reply
		{"BUY because trend", model.DecisionWait}, // not exactly one word
	}

	candles := map[string][]model.Candle{"1": someCandles(3), "5": someCandles(3)}
	inds := map[string]indicator.Snapshot{}

	for _, tc := range cases {
		o := &fakeOracle{reply: tc.reply}
		a := NewAssembler(testConfig(), o)
		if got := a.Decide(context.Background(), candles, inds); got != tc.want {
			t.Errorf("reply %q: expected %s, got %s", tc.reply, tc.want, got)
		}
	}
}

func TestDecide_OracleFailureIsWait(t *testing.T) {
	o := &fakeOracle{err: errors.New("network down")}
	a := NewAssembler(testConfig(), o)

	failures := 0
	a.OnOracleFailure = func() { failures++ }

	candles := map[string][]model.Candle{"1": someCandles(3), "5": someCandles(3)}
	got := a.Decide(context.Background(), candles, map[string]indicator.Snapshot{})
	if got != model.DecisionWait {
		t.Errorf("expected WAIT on oracle failure, got %s", got)
	}
	if failures != 1 {
		t.Errorf("expected 1 failure hook call, got %d", failures)
	}
}

func TestDecide_EmptyPrimarySkipsOracle(t *testing.T) {
	o := &fakeOracle{reply: "BUY"}
	a := NewAssembler(testConfig(), o)

	candles := map[string][]model.Candle{"1": nil, "5": someCandles(3)}
	got := a.Decide(context.Background(), candles, map[string]indicator.Snapshot{})
	if got != model.DecisionWait {
		t.Errorf("expected WAIT, got %s", got)
	}
	if o.calls != 0 {
		t.Errorf("oracle must not be invoked with an empty primary history, calls=%d", o.calls)
	}
}

func TestBuildPrompt_Contents(t *testing.T) {
	a := NewAssembler(testConfig(), &fakeOracle{})

	candles := map[string][]model.Candle{
		"1": someCandles(5), // beyond retention 3 — must be truncated
		"5": someCandles(1),
	}
	inds := map[string]indicator.Snapshot{
		"1": {
			RSI:          indicator.Value{Value: 61.2345, Ready: true},
			AvgVolume:    indicator.Value{Value: 10, Ready: true},
			LatestVolume: indicator.Value{Value: 12.34, Ready: true},
		},
		// "5" left zero: all values absent
	}

	prompt := a.BuildPrompt(candles, inds)

	if !strings.Contains(prompt, "BTCUSDT") {
		t.Error("prompt must name the instrument")
	}
	if !strings.Contains(prompt, "[1m] rsi=61.23") {
		t.Errorf("missing formatted RSI line:\n%s", prompt)
	}
	if !strings.Contains(prompt, "[5m] rsi=n/a avg_volume=n/a latest_volume=n/a") {
		t.Errorf("absent indicators must render as n/a:\n%s", prompt)
	}

	// Retention truncation: only the last 3 of 5 primary candles appear.
	if strings.Contains(prompt, "\n1700000000,") {
		t.Error("candles beyond the retention bound must be dropped from the prompt")
	}
	if !strings.Contains(prompt, "\n1700000120,") {
		t.Error("expected the oldest surviving candle row")
	}

	if !strings.Contains(prompt, "BUY, SELL or WAIT") {
		t.Error("prompt must spell out the allowed verdicts")
	}
}
