package metrics

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// HealthStatus tracks liveness signals for the /healthz endpoint.
type HealthStatus struct {
	mu sync.RWMutex

	StartedAt      time.Time
	WSConnected    bool
	LastCandleTime time.Time
	Warmup         bool // true until every timeframe has candles
	Position       string
	EnabledTFs     []string
}

// NewHealthStatus creates a health tracker.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now(), Warmup: true}
}

// SetWSConnected records the feed connection state.
func (h *HealthStatus) SetWSConnected(connected bool) {
	h.mu.Lock()
	h.WSConnected = connected
	h.mu.Unlock()
}

// SetLastCandle records the arrival time of the latest confirmed candle.
func (h *HealthStatus) SetLastCandle(t time.Time) {
	h.mu.Lock()
	h.LastCandleTime = t
	h.mu.Unlock()
}

// SetWarmup records whether the engine is still waiting for all timeframes.
func (h *HealthStatus) SetWarmup(warmup bool) {
	h.mu.Lock()
	h.Warmup = warmup
	h.mu.Unlock()
}

// SetPosition records the held position side for visibility.
func (h *HealthStatus) SetPosition(side string) {
	h.mu.Lock()
	h.Position = side
	h.mu.Unlock()
}

// SetEnabledTFs records the configured timeframe ids.
func (h *HealthStatus) SetEnabledTFs(tfs []string) {
	h.mu.Lock()
	h.EnabledTFs = tfs
	h.mu.Unlock()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	httpCode := http.StatusOK
	if !h.WSConnected {
		status = "degraded"
		httpCode = http.StatusServiceUnavailable
	}

	candleAge := ""
	if !h.LastCandleTime.IsZero() {
		candleAge = time.Since(h.LastCandleTime).Round(time.Millisecond).String()
	}

	position := h.Position
	if position == "" {
		position = "flat"
	}

	out := struct {
		Status         string   `json:"status"`
		Uptime         string   `json:"uptime"`
		WSConnected    bool     `json:"ws_connected"`
		LastCandleTime string   `json:"last_candle_time"`
		CandleAge      string   `json:"candle_age"`
		Warmup         bool     `json:"warmup"`
		Position       string   `json:"position"`
		EnabledTFs     []string `json:"enabled_tfs"`
	}{
		Status:         status,
		Uptime:         time.Since(h.StartedAt).Round(time.Second).String(),
		WSConnected:    h.WSConnected,
		LastCandleTime: h.LastCandleTime.Format(time.RFC3339),
		CandleAge:      candleAge,
		Warmup:         h.Warmup,
		Position:       position,
		EnabledTFs:     h.EnabledTFs,
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(out)
}
