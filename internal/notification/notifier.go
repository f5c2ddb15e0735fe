// Package notification delivers trading alerts to external channels
// (Telegram, webhooks). Delivery is fire-and-forget: failures are logged
// by the caller and never affect the decision cycle.
package notification

import (
	"context"
	"fmt"
	"log"
	"strings"

	"autotrader/internal/indicator"
	"autotrader/internal/model"
	"autotrader/internal/position"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert is a pre-formatted notification payload.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns an error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// EntryAlert formats the position-opened notification: direction, entry
// price, exit levels, the volatility measure used, and the per-timeframe
// indicator summary.
func EntryAlert(symbol string, side model.Side, entryPrice float64, levels position.ExitLevels, inds map[string]indicator.Snapshot, labels map[string]string) Alert {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s @ %.2f\n", side, symbol, entryPrice)
	fmt.Fprintf(&b, "TP %.2f / SL %.2f\n", levels.TakeProfit, levels.StopLoss)
	if levels.ATR.Ready {
		fmt.Fprintf(&b, "ATR %.4f\n", levels.ATR.Value)
	} else {
		b.WriteString("ATR n/a (fixed-percentage exits)\n")
	}
	for id, snap := range inds {
		label := labels[id]
		if label == "" {
			label = id
		}
		fmt.Fprintf(&b, "[%s] rsi=%s vol=%s\n", label,
			formatValue(snap.RSI), formatValue(snap.AvgVolume))
	}

	return Alert{
		Level:   AlertInfo,
		Title:   fmt.Sprintf("Entered %s %s", side, symbol),
		Message: b.String(),
	}
}

func formatValue(v indicator.Value) string {
	if !v.Ready {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v.Value)
}

// LogNotifier logs alerts instead of delivering them. Used when no
// external channel is configured.
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}

// Multi fans an alert out to several backends. A failing backend is logged
// and does not block the others.
type Multi struct {
	backends []Notifier
}

// NewMulti creates a fan-out notifier.
func NewMulti(backends ...Notifier) *Multi {
	return &Multi{backends: backends}
}

func (m *Multi) Send(ctx context.Context, alert Alert) error {
	for _, n := range m.backends {
		if err := n.Send(ctx, alert); err != nil {
			log.Printf("[notify] backend failed: %v", err)
		}
	}
	return nil
}
