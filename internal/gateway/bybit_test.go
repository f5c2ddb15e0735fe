package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"autotrader/config"
	"autotrader/internal/model"
)

func testBybit(baseURL string) *Bybit {
	b := NewBybit(&config.Config{
		BybitAPIKey:    "key",
		BybitAPISecret: "secret",
		BybitRESTURL:   baseURL,
		Symbol:         "BTCUSDT",
		RecvWindow:     5000,
	})
	b.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return b
}

func TestPlaceOrder_Success(t *testing.T) {
	var gotBody map[string]string
	var gotHeaders http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		data, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(data, &gotBody); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		w.Write([]byte(`{"retCode":0,"retMsg":"OK","result":{"orderId":"abc-123"}}`))
	}))
	defer srv.Close()

	b := testBybit(srv.URL)
	res, err := b.PlaceOrder(context.Background(), OrderRequest{
		Side:       model.SideBuy,
		Qty:        0.001,
		TakeProfit: 50123.456789, // must round to 2 decimals on the wire
		StopLoss:   49876.5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OrderID != "abc-123" {
		t.Errorf("expected orderId abc-123, got %q", res.OrderID)
	}

	if gotBody["side"] != "Buy" || gotBody["orderType"] != "Market" || gotBody["category"] != "linear" {
		t.Errorf("unexpected order body: %+v", gotBody)
	}
	if gotBody["takeProfit"] != "50123.46" {
		t.Errorf("TP must be rounded to 2 decimals, got %q", gotBody["takeProfit"])
	}
	if gotBody["stopLoss"] != "49876.50" {
		t.Errorf("SL must be rounded to 2 decimals, got %q", gotBody["stopLoss"])
	}
	if gotBody["qty"] != "0.001" {
		t.Errorf("unexpected qty %q", gotBody["qty"])
	}

	if gotHeaders.Get("X-BAPI-API-KEY") != "key" {
		t.Error("missing API key header")
	}
	if gotHeaders.Get("X-BAPI-TIMESTAMP") != "1700000000000" {
		t.Errorf("unexpected timestamp header %q", gotHeaders.Get("X-BAPI-TIMESTAMP"))
	}
	if sign := gotHeaders.Get("X-BAPI-SIGN"); len(sign) != 64 {
		t.Errorf("expected 64-char hex signature, got %q", sign)
	}
}

func TestPlaceOrder_ExchangeRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"retCode":110007,"retMsg":"insufficient balance","result":{}}`))
	}))
	defer srv.Close()

	b := testBybit(srv.URL)
	_, err := b.PlaceOrder(context.Background(), OrderRequest{
		Side: model.SideSell, Qty: 0.001, TakeProfit: 99, StopLoss: 101,
	})
	if err == nil {
		t.Fatal("expected error on retCode != 0")
	}
}

func TestPlaceOrder_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	b := testBybit(srv.URL)
	if _, err := b.PlaceOrder(context.Background(), OrderRequest{
		Side: model.SideBuy, Qty: 0.001, TakeProfit: 101, StopLoss: 99,
	}); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}

func TestPlaceOrder_UnknownSide(t *testing.T) {
	b := testBybit("http://unreachable.invalid")
	if _, err := b.PlaceOrder(context.Background(), OrderRequest{Side: model.SideNone}); err == nil {
		t.Fatal("expected error for empty side")
	}
}

func TestSign_Deterministic(t *testing.T) {
	b := testBybit("http://unused.invalid")
	body := []byte(`{"a":"b"}`)

	s1 := b.sign(1700000000000, body)
	s2 := b.sign(1700000000000, body)
	if s1 != s2 {
		t.Error("signature must be deterministic for identical inputs")
	}
	if s3 := b.sign(1700000000001, body); s3 == s1 {
		t.Error("signature must depend on the timestamp")
	}
}
