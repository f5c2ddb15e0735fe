// Package feed streams confirmed candles from the Bybit v5 public
// WebSocket into the engine's candle channel.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"autotrader/config"
	"autotrader/internal/model"
)

const (
	pingInterval = 20 * time.Second
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
)

// Bybit subscribes to kline topics for every configured timeframe and
// emits confirmed candles. Unconfirmed (in-progress) pushes are dropped.
type Bybit struct {
	url        string
	symbol     string
	timeframes []config.Timeframe

	// Optional metrics hooks
	OnReconnect func()
	OnMalformed func()
	OnCandle    func(tf string)
	OnConnected func(connected bool)
}

// NewBybit creates a feed client for the given symbol and timeframes.
func NewBybit(cfg *config.Config) *Bybit {
	return &Bybit{
		url:        cfg.BybitWSURL,
		symbol:     cfg.Symbol,
		timeframes: cfg.Timeframes,
	}
}

type wsRequest struct {
	Op   string   `json:"op"`
	Args []string `json:"args,omitempty"`
}

type wsPush struct {
	Topic string             `json:"topic"`
	Data  []model.KlineEntry `json:"data"`

	// Control-frame fields (subscribe acks, pong replies).
	Op      string `json:"op"`
	Success *bool  `json:"success"`
	RetMsg  string `json:"ret_msg"`
}

// Run connects and streams candles into candleCh until ctx is cancelled.
// The connection is re-established with backoff on any failure.
func (b *Bybit) Run(ctx context.Context, candleCh chan<- model.TimeframeCandle) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}

		err := b.stream(ctx, candleCh)
		if ctx.Err() != nil {
			return
		}
		log.Printf("[feed] stream ended: %v, reconnecting in %s", err, backoff)
		if b.OnConnected != nil {
			b.OnConnected(false)
		}
		if b.OnReconnect != nil {
			b.OnReconnect()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

// stream runs a single connection: dial, subscribe, read until failure.
func (b *Bybit) stream(ctx context.Context, candleCh chan<- model.TimeframeCandle) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, b.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", b.url, err)
	}
	defer conn.Close()

	topics := make([]string, 0, len(b.timeframes))
	for _, tf := range b.timeframes {
		topics = append(topics, fmt.Sprintf("kline.%s.%s", tf.ID, b.symbol))
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(wsRequest{Op: "subscribe", Args: topics}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	log.Printf("[feed] connected, subscribed to %v", topics)
	if b.OnConnected != nil {
		b.OnConnected(true)
	}

	// Bybit expects application-level pings, not WS control frames.
	pingDone := make(chan struct{})
	defer close(pingDone)
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pingDone:
				return
			case <-ctx.Done():
				conn.Close()
				return
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteJSON(wsRequest{Op: "ping"}); err != nil {
					log.Printf("[feed] ping failed: %v", err)
					conn.Close()
					return
				}
			}
		}
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		candles, err := b.parseMessage(raw)
		if err != nil {
			log.Printf("[feed] dropping malformed message: %v", err)
			if b.OnMalformed != nil {
				b.OnMalformed()
			}
			continue
		}

		for _, tfc := range candles {
			if b.OnCandle != nil {
				b.OnCandle(tfc.Timeframe)
			}
			select {
			case candleCh <- tfc:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// parseMessage decodes one WS message and returns the confirmed candles it
// carries. Control frames (acks, pongs) and unconfirmed klines yield none.
// A kline push with unusable values is an error; data is never fabricated.
func (b *Bybit) parseMessage(raw []byte) ([]model.TimeframeCandle, error) {
	var push wsPush
	if err := json.Unmarshal(raw, &push); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if push.Success != nil && !*push.Success {
		return nil, fmt.Errorf("server rejected %q: %s", push.Op, push.RetMsg)
	}
	if push.Topic == "" {
		return nil, nil // ack or pong
	}

	tf, ok := timeframeFromTopic(push.Topic)
	if !ok {
		return nil, fmt.Errorf("unexpected topic %q", push.Topic)
	}

	var out []model.TimeframeCandle
	for _, k := range push.Data {
		if !k.Confirm {
			continue
		}
		c, err := model.CandleFromKline(k)
		if err != nil {
			return nil, fmt.Errorf("topic %s: %w", push.Topic, err)
		}
		out = append(out, model.TimeframeCandle{
			Timeframe: tf,
			Symbol:    b.symbol,
			Candle:    c,
		})
	}
	return out, nil
}

// timeframeFromTopic extracts the interval id from "kline.{tf}.{symbol}".
func timeframeFromTopic(topic string) (string, bool) {
	const prefix = "kline."
	if len(topic) <= len(prefix) || topic[:len(prefix)] != prefix {
		return "", false
	}
	rest := topic[len(prefix):]
	for i := 0; i < len(rest); i++ {
		if rest[i] == '.' {
			if i == 0 || i == len(rest)-1 {
				return "", false
			}
			return rest[:i], true
		}
	}
	return "", false
}
