// Package position tracks the currently held directional position,
// suppresses redundant re-entries, and derives risk-bounding exit levels
// (take-profit / stop-loss) for new entries.
package position

import (
	"autotrader/config"
	"autotrader/internal/indicator"
	"autotrader/internal/model"
)

// ExitLevels is the TP/SL pair attached to an entry order. ATR is the
// volatility measure the levels were derived from; it is absent when the
// fixed-percentage fallback was applied.
type ExitLevels struct {
	TakeProfit float64
	StopLoss   float64
	ATR        indicator.Value
}

// Manager holds at most one active directional position. It is mutated only
// by the entry orchestrator after a confirmed successful order placement,
// and never cleared: exits are delegated entirely to the exchange-side
// TP/SL bracket.
type Manager struct {
	atrPeriod int
	tpMult    float64
	slMult    float64
	tpPct     float64 // fraction of entry price, e.g. 0.002
	slPct     float64

	current model.Side
}

// NewManager creates a flat position manager with the configured exit
// parameters. Fallback percentages in cfg are human-readable percents
// (0.2 => 0.2%) and converted to fractions here.
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		atrPeriod: cfg.ATRPeriod,
		tpMult:    cfg.ATRTakeProfitMult,
		slMult:    cfg.ATRStopLossMult,
		tpPct:     cfg.FallbackTPPct / 100.0,
		slPct:     cfg.FallbackSLPct / 100.0,
		current:   model.SideNone,
	}
}

// Current returns the held position side (SideNone when flat).
func (m *Manager) Current() model.Side { return m.current }

// SetCurrent records an accepted entry. Called by the orchestrator only
// after the gateway confirmed the order.
func (m *Manager) SetCurrent(side model.Side) { m.current = side }

// ShouldEnter reports whether a proposed decision warrants an entry attempt.
// WAIT and same-direction signals are skipped; a reversal counts as a fresh
// entry attempt (no flatten step — the exchange bracket manages the prior
// position).
func (m *Manager) ShouldEnter(proposed model.Decision) bool {
	if proposed == model.DecisionWait {
		return false
	}
	return proposed.Side() != m.current
}

// CalcExitLevels derives TP/SL for an entry at entryPrice. When ATR over
// the volatility history is available and strictly positive the levels are
// volatility-adjusted; a missing or zero ATR falls back to fixed
// percentages of the entry price. Prices keep full precision — rounding
// happens only at the order-gateway boundary.
//
// Invariant (both branches): BUY ⇒ TP > entry > SL; SELL ⇒ TP < entry < SL.
func (m *Manager) CalcExitLevels(side model.Side, entryPrice float64, volatilityHistory []model.Candle) ExitLevels {
	atr := indicator.ATR(volatilityHistory, m.atrPeriod)

	if atr.Ready && atr.Value > 0 {
		tpDist := atr.Value * m.tpMult
		slDist := atr.Value * m.slMult
		if side == model.SideBuy {
			return ExitLevels{
				TakeProfit: entryPrice + tpDist,
				StopLoss:   entryPrice - slDist,
				ATR:        atr,
			}
		}
		return ExitLevels{
			TakeProfit: entryPrice - tpDist,
			StopLoss:   entryPrice + slDist,
			ATR:        atr,
		}
	}

	// Zero volatility would produce a zero-width bracket, so it takes the
	// fallback branch as well. ATR is reported absent: the levels were not
	// volatility-derived.
	if side == model.SideBuy {
		return ExitLevels{
			TakeProfit: entryPrice * (1 + m.tpPct),
			StopLoss:   entryPrice * (1 - m.slPct),
		}
	}
	return ExitLevels{
		TakeProfit: entryPrice * (1 - m.tpPct),
		StopLoss:   entryPrice * (1 + m.slPct),
	}
}
