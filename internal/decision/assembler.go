// Package decision builds the cross-timeframe market summary handed to the
// judgment oracle and normalizes its reply into a Decision.
//
// The assembler never surfaces oracle failures: an unreachable oracle, an
// empty reply, or anything that does not normalize to BUY/SELL/WAIT all
// degrade to WAIT so the caller always receives a valid decision.
package decision

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"autotrader/config"
	"autotrader/internal/indicator"
	"autotrader/internal/model"
	"autotrader/internal/oracle"
)

// Assembler produces decisions for the entry orchestrator.
type Assembler struct {
	timeframes []config.Timeframe
	primaryTF  string
	symbol     string
	oracle     oracle.Oracle

	// Metrics hooks (optional)
	OnOracleFailure func()
	OnOracleLatency func(d time.Duration)
}

// NewAssembler creates an assembler over the configured timeframe table.
func NewAssembler(cfg *config.Config, o oracle.Oracle) *Assembler {
	return &Assembler{
		timeframes: cfg.Timeframes,
		primaryTF:  cfg.PrimaryTF,
		symbol:     cfg.Symbol,
		oracle:     o,
	}
}

// Decide builds the prompt from the per-timeframe candle and indicator
// snapshots and queries the oracle. Always returns BUY, SELL or WAIT.
func (a *Assembler) Decide(ctx context.Context, candles map[string][]model.Candle, inds map[string]indicator.Snapshot) model.Decision {
	if len(candles[a.primaryTF]) == 0 {
		// Nothing to judge yet; don't burn an oracle call.
		return model.DecisionWait
	}

	prompt := a.BuildPrompt(candles, inds)

	start := time.Now()
	reply, err := a.oracle.Judge(ctx, prompt)
	if a.OnOracleLatency != nil {
		a.OnOracleLatency(time.Since(start))
	}
	if err != nil {
		log.Printf("[decision] oracle call failed: %v", err)
		if a.OnOracleFailure != nil {
			a.OnOracleFailure()
		}
		return model.DecisionWait
	}

	d, ok := model.ParseDecision(reply)
	if !ok {
		log.Printf("[decision] unrecognized oracle reply: %q", strings.TrimSpace(reply))
		if a.OnOracleFailure != nil {
			a.OnOracleFailure()
		}
		return model.DecisionWait
	}

	return d
}

// BuildPrompt renders the structured summary: instructions, then for each
// configured timeframe its label, indicator lines (with n/a placeholders
// where history is insufficient) and the candle history as CSV rows,
// truncated to the timeframe's retention bound.
func (a *Assembler) BuildPrompt(candles map[string][]model.Candle, inds map[string]indicator.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an analyst for short-term trading.\n")
	fmt.Fprintf(&b, "Review the %s candle data below across several timeframes and analyze the recent price action.\n", a.symbol)
	b.WriteString("Your reply must be exactly one word: BUY, SELL or WAIT.\n")

	for _, tf := range a.timeframes {
		history := candles[tf.ID]
		if len(history) > tf.Retention {
			history = history[len(history)-tf.Retention:]
		}
		snap := inds[tf.ID]

		fmt.Fprintf(&b, "\n[%s] rsi=%s avg_volume=%s latest_volume=%s\n",
			tf.Label,
			formatValue(snap.RSI, 2),
			formatValue(snap.AvgVolume, 4),
			formatValue(snap.LatestVolume, 4),
		)
		b.WriteString("timestamp,open,high,low,close,volume\n")
		for _, c := range history {
			fmt.Fprintf(&b, "%.0f,%s,%s,%s,%s,%s\n",
				c.Start,
				formatFloat(c.Open),
				formatFloat(c.High),
				formatFloat(c.Low),
				formatFloat(c.Close),
				formatFloat(c.Volume),
			)
		}
	}

	b.WriteString("\nAssume a short-term trend-following strategy: BUY on a strong rise, SELL on a strong fall, WAIT when the direction is unclear.\n")
	return b.String()
}

// formatValue renders an indicator value, or "n/a" when absent.
func formatValue(v indicator.Value, decimals int) string {
	if !v.Ready {
		return "n/a"
	}
	return strconv.FormatFloat(v.Value, 'f', decimals, 64)
}

// formatFloat renders a price/volume without trailing zeros.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
