// Package publish mirrors candles and decisions to Redis Streams so
// dashboards and other consumers can follow the engine in real time.
// Publishing is best-effort; a Redis outage never blocks trading.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"autotrader/internal/model"
)

const (
	candleStreamMaxLen   = 1000
	decisionStreamMaxLen = 500
	latestTTL            = 30 * time.Minute
)

// Config configures the Redis publisher.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Publisher writes candles and decision results to Redis.
type Publisher struct {
	client *goredis.Client
}

// New creates a Publisher and pings the server.
func New(cfg Config) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[publish] connected to redis at %s", cfg.Addr)
	return &Publisher{client: client}, nil
}

// PublishCandle writes a confirmed candle: XADD to the per-timeframe
// stream, SET of the latest value, PUBLISH for live subscribers.
func (p *Publisher) PublishCandle(ctx context.Context, tfc model.TimeframeCandle) {
	data, err := json.Marshal(tfc)
	if err != nil {
		log.Printf("[publish] marshal candle: %v", err)
		return
	}
	jsonData := string(data)

	streamKey := fmt.Sprintf("candle:%s:%s", tfc.Timeframe, tfc.Symbol)
	latestKey := fmt.Sprintf("candle:%s:latest:%s", tfc.Timeframe, tfc.Symbol)
	pubsubCh := fmt.Sprintf("pub:candle:%s:%s", tfc.Timeframe, tfc.Symbol)

	pipe := p.client.Pipeline()
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: streamKey,
		MaxLen: candleStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"data": jsonData},
	})
	pipe.Set(ctx, latestKey, jsonData, latestTTL)
	pipe.Publish(ctx, pubsubCh, jsonData)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[publish] candle pipeline error for %s: %v", streamKey, err)
	}
}

// DecisionEvent is the published record of one decision cycle.
type DecisionEvent struct {
	Symbol   string  `json:"symbol"`
	Decision string  `json:"decision"`
	Outcome  string  `json:"outcome"`
	Price    float64 `json:"price"`
	TS       int64   `json:"ts"`
}

// PublishDecision writes a decision cycle result to the decision stream.
func (p *Publisher) PublishDecision(ctx context.Context, ev DecisionEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("[publish] marshal decision: %v", err)
		return
	}
	jsonData := string(data)

	streamKey := fmt.Sprintf("decision:%s", ev.Symbol)
	pubsubCh := fmt.Sprintf("pub:decision:%s", ev.Symbol)

	pipe := p.client.Pipeline()
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: streamKey,
		MaxLen: decisionStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"data": jsonData},
	})
	pipe.Publish(ctx, pubsubCh, jsonData)

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[publish] decision pipeline error for %s: %v", streamKey, err)
	}
}

// Close closes the Redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
