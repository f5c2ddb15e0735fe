package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"autotrader/config"
	"autotrader/internal/model"
)

// Bybit places market orders via the Bybit v5 REST API (testnet by default).
// Requests are signed with HMAC-SHA256 over
// timestamp + apiKey + recvWindow + body.
type Bybit struct {
	apiKey     string
	apiSecret  string
	baseURL    string
	symbol     string
	recvWindow int
	client     *http.Client

	now func() time.Time // injectable for tests
}

// NewBybit creates a Bybit order gateway from configuration.
func NewBybit(cfg *config.Config) *Bybit {
	return &Bybit{
		apiKey:     cfg.BybitAPIKey,
		apiSecret:  cfg.BybitAPISecret,
		baseURL:    cfg.BybitRESTURL,
		symbol:     cfg.Symbol,
		recvWindow: cfg.RecvWindow,
		client:     &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

// createOrderBody mirrors the v5 order/create payload. Field order is fixed
// so the marshaled bytes used for signing match the bytes sent.
type createOrderBody struct {
	Category    string `json:"category"`
	Symbol      string `json:"symbol"`
	Side        string `json:"side"`
	OrderType   string `json:"orderType"`
	Qty         string `json:"qty"`
	TakeProfit  string `json:"takeProfit"`
	StopLoss    string `json:"stopLoss"`
	TpslMode    string `json:"tpslMode"`
	TimeInForce string `json:"timeInForce"`
}

type createOrderResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		OrderID string `json:"orderId"`
	} `json:"result"`
}

// PlaceOrder submits a market order with a full TP/SL bracket. TP/SL are
// rounded to 2 decimals here, at the wire boundary — never earlier.
func (b *Bybit) PlaceOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	side, err := exchangeSide(req.Side)
	if err != nil {
		return OrderResult{}, err
	}

	body := createOrderBody{
		Category:    "linear",
		Symbol:      b.symbol,
		Side:        side,
		OrderType:   "Market",
		Qty:         formatQty(req.Qty),
		TakeProfit:  formatPrice(req.TakeProfit),
		StopLoss:    formatPrice(req.StopLoss),
		TpslMode:    "Full",
		TimeInForce: "GoodTillCancel",
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return OrderResult{}, fmt.Errorf("bybit: marshal order: %w", err)
	}

	timestamp := b.now().UnixMilli()
	sign := b.sign(timestamp, payload)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.baseURL+"/v5/order/create", bytes.NewReader(payload))
	if err != nil {
		return OrderResult{}, fmt.Errorf("bybit: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-BAPI-API-KEY", b.apiKey)
	httpReq.Header.Set("X-BAPI-TIMESTAMP", strconv.FormatInt(timestamp, 10))
	httpReq.Header.Set("X-BAPI-RECV-WINDOW", strconv.Itoa(b.recvWindow))
	httpReq.Header.Set("X-BAPI-SIGN", sign)

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return OrderResult{}, fmt.Errorf("bybit: send order: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return OrderResult{}, fmt.Errorf("bybit: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return OrderResult{}, fmt.Errorf("bybit: unexpected status %d: %s", resp.StatusCode, data)
	}

	var out createOrderResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return OrderResult{}, fmt.Errorf("bybit: decode response: %w", err)
	}
	if out.RetCode != 0 {
		return OrderResult{}, fmt.Errorf("bybit: order rejected: retCode=%d retMsg=%q", out.RetCode, out.RetMsg)
	}

	return OrderResult{OrderID: out.Result.OrderID, Raw: data}, nil
}

// sign computes the v5 request signature over
// timestamp + apiKey + recvWindow + body.
func (b *Bybit) sign(timestamp int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(b.apiSecret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte(b.apiKey))
	mac.Write([]byte(strconv.Itoa(b.recvWindow)))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func exchangeSide(side model.Side) (string, error) {
	switch side {
	case model.SideBuy:
		return "Buy", nil
	case model.SideSell:
		return "Sell", nil
	}
	return "", fmt.Errorf("bybit: unsupported side %q", side)
}

// formatPrice renders a price rounded to 2 decimals for transmission.
func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// formatQty renders the order quantity without trailing zeros.
func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
