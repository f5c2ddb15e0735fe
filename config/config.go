package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Timeframe describes one configured candle granularity.
type Timeframe struct {
	ID        string // feed interval id, e.g. "1", "5", "60" (minutes)
	Label     string // display label used in prompts/alerts, e.g. "1m"
	Retention int    // max candles kept in history (FIFO eviction)
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Bybit credentials and endpoints (testnet by default)
	BybitAPIKey    string
	BybitAPISecret string
	BybitWSURL     string
	BybitRESTURL   string
	RecvWindow     int // signing receive window in ms

	// Gemini judgment oracle
	GeminiAPIKey  string
	GeminiModel   string
	OracleTimeout time.Duration

	// Oracle circuit breaker: consecutive failures before opening, and the
	// cool-off before a probe call.
	OracleBreakerFailures int
	OracleBreakerReset    time.Duration

	// Instrument and sizing
	Symbol   string
	OrderQty float64

	// Timeframes. PrimaryTF must be one of Timeframes; its candle arrivals
	// drive the decision cycle.
	Timeframes []Timeframe
	PrimaryTF  string

	// Indicator parameters
	RSIPeriod      int
	VolumeLookback int
	ATRPeriod      int

	// Exit levels: ATR multipliers when volatility is available,
	// fixed percentages of entry price otherwise.
	ATRTakeProfitMult float64
	ATRStopLossMult   float64
	FallbackTPPct     float64 // e.g. 0.2 => 0.2%
	FallbackSLPct     float64

	// Notification channels (all optional; log-only when none configured)
	TelegramBotToken string
	TelegramChatID   string
	WebhookURL       string

	// Infrastructure (all optional except metrics)
	RedisAddr     string // empty = candle/decision publishing disabled
	RedisPassword string
	JournalPath   string // empty = entry journal disabled
	MetricsAddr   string
}

// Load reads configuration from environment variables with sensible defaults.
// It terminates the process when a required credential is missing or the
// primary timeframe is not part of the timeframe table.
func Load() *Config {
	cfg := &Config{
		BybitAPIKey:    mustEnv("BYBIT_API_KEY"),
		BybitAPISecret: mustEnv("BYBIT_API_SECRET"),
		BybitWSURL:     getEnv("BYBIT_WS_URL", "wss://stream-testnet.bybit.com/v5/public/linear"),
		BybitRESTURL:   getEnv("BYBIT_REST_URL", "https://api-testnet.bybit.com"),
		RecvWindow:     intEnv("BYBIT_RECV_WINDOW", 5000),

		GeminiAPIKey:  mustEnv("GEMINI_API_KEY"),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		OracleTimeout: durationEnv("ORACLE_TIMEOUT", 30*time.Second),

		OracleBreakerFailures: intEnv("ORACLE_BREAKER_FAILURES", 5),
		OracleBreakerReset:    durationEnv("ORACLE_BREAKER_RESET", time.Minute),

		Symbol:   getEnv("SYMBOL", "BTCUSDT"),
		OrderQty: floatEnv("ORDER_QTY", 0.001),

		PrimaryTF: getEnv("PRIMARY_TF", "1"),

		RSIPeriod:      intEnv("RSI_PERIOD", 14),
		VolumeLookback: intEnv("VOLUME_LOOKBACK", 20),
		ATRPeriod:      intEnv("ATR_PERIOD", 14),

		ATRTakeProfitMult: floatEnv("ATR_TP_MULT", 1.5),
		ATRStopLossMult:   floatEnv("ATR_SL_MULT", 1.0),
		FallbackTPPct:     floatEnv("FALLBACK_TP_PCT", 0.2),
		FallbackSLPct:     floatEnv("FALLBACK_SL_PCT", 0.1),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		JournalPath:   getEnv("JOURNAL_PATH", ""),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
	}

	tfs, err := ParseTimeframes(getEnv("TIMEFRAMES", "1=1m:60,5=5m:60,15=15m:60"))
	if err != nil {
		log.Fatalf("[config] %v", err)
	}
	cfg.Timeframes = tfs

	if _, ok := cfg.TimeframeByID(cfg.PrimaryTF); !ok {
		log.Fatalf("[config] primary timeframe %q not present in TIMEFRAMES", cfg.PrimaryTF)
	}

	return cfg
}

// TimeframeByID looks up a configured timeframe by its interval id.
func (c *Config) TimeframeByID(id string) (Timeframe, bool) {
	for _, tf := range c.Timeframes {
		if tf.ID == id {
			return tf, true
		}
	}
	return Timeframe{}, false
}

// ParseTimeframes parses the TIMEFRAMES env format:
// "id=label:retention,..." e.g. "1=1m:60,5=5m:60,15=15m:96".
func ParseTimeframes(s string) ([]Timeframe, error) {
	parts := strings.Split(s, ",")
	tfs := make([]Timeframe, 0, len(parts))
	seen := make(map[string]bool, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, rest, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid timeframe entry %q (want id=label:retention)", p)
		}
		label, retStr, ok := strings.Cut(rest, ":")
		if !ok {
			return nil, fmt.Errorf("invalid timeframe entry %q (want id=label:retention)", p)
		}
		retention, err := strconv.Atoi(retStr)
		if err != nil || retention <= 0 {
			return nil, fmt.Errorf("invalid retention %q for timeframe %q", retStr, id)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate timeframe id %q", id)
		}
		seen[id] = true
		tfs = append(tfs, Timeframe{ID: id, Label: label, Retention: retention})
	}

	if len(tfs) == 0 {
		return nil, fmt.Errorf("no timeframes configured")
	}
	return tfs, nil
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("[config] required env var %s not set", key)
	}
	return v
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func intEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using default %d", key, v, fallback)
		return fallback
	}
	return n
}

func floatEnv(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using default %g", key, v, fallback)
		return fallback
	}
	return f
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using default %s", key, v, fallback)
		return fallback
	}
	return d
}
