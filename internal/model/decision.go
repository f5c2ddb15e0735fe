package model

import "strings"

// Decision is the verdict produced for one primary-timeframe candle.
type Decision string

const (
	DecisionBuy  Decision = "BUY"
	DecisionSell Decision = "SELL"
	DecisionWait Decision = "WAIT"
)

// Side is the directional position currently held. SideNone means flat.
type Side string

const (
	SideNone Side = ""
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Side converts an actionable decision into a position side.
// DecisionWait maps to SideNone.
func (d Decision) Side() Side {
	switch d {
	case DecisionBuy:
		return SideBuy
	case DecisionSell:
		return SideSell
	}
	return SideNone
}

// ParseDecision normalizes free-form oracle output into a Decision.
// The reply is trimmed and upper-cased; anything that is not exactly
// BUY, SELL or WAIT after normalization is rejected.
func ParseDecision(s string) (Decision, bool) {
	switch Decision(strings.ToUpper(strings.TrimSpace(s))) {
	case DecisionBuy:
		return DecisionBuy, true
	case DecisionSell:
		return DecisionSell, true
	case DecisionWait:
		return DecisionWait, true
	}
	return "", false
}
