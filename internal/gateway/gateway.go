// Package gateway submits entry orders, with attached exit levels, to the
// exchange. Any non-success — transport failure or an exchange rejection —
// means "no entry occurred" to the caller.
package gateway

import (
	"context"
	"encoding/json"

	"autotrader/internal/model"
)

// OrderRequest describes one market entry with its exchange-side bracket.
// Prices carry full precision; backends round at the wire boundary.
type OrderRequest struct {
	Side       model.Side
	Qty        float64
	TakeProfit float64
	StopLoss   float64
}

// OrderResult is the gateway's acknowledgement of a placed order.
// Raw preserves the opaque exchange response for journaling.
type OrderResult struct {
	OrderID string
	Raw     json.RawMessage
}

// Gateway is the interface for order-execution backends.
type Gateway interface {
	PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
}
