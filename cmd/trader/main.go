package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"autotrader/config"
	"autotrader/internal/decision"
	"autotrader/internal/engine"
	"autotrader/internal/feed"
	"autotrader/internal/gateway"
	"autotrader/internal/journal"
	"autotrader/internal/logger"
	"autotrader/internal/metrics"
	"autotrader/internal/model"
	"autotrader/internal/notification"
	"autotrader/internal/oracle"
	"autotrader/internal/position"
	"autotrader/internal/publish"
	"autotrader/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[trader] starting...")

	cfg := config.Load()
	logger.Init("trader", slog.LevelInfo)

	// ---- Metrics & health ----
	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	tfIDs := make([]string, 0, len(cfg.Timeframes))
	for _, tf := range cfg.Timeframes {
		tfIDs = append(tfIDs, tf.ID)
	}
	health.SetEnabledTFs(tfIDs)
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()

	// ---- Context for graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- Core collaborators ----
	gem := oracle.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.OracleTimeout)
	judge := oracle.NewBreaker(gem, cfg.OracleBreakerFailures, cfg.OracleBreakerReset)

	asm := decision.NewAssembler(cfg, judge)
	asm.OnOracleFailure = func() { prom.OracleFailures.Inc() }
	asm.OnOracleLatency = func(d time.Duration) { prom.OracleLatency.Observe(d.Seconds()) }

	st := store.New(cfg.Timeframes)
	pm := position.NewManager(cfg)
	gw := gateway.NewBybit(cfg)

	// ---- Notification channels ----
	var backends []notification.Notifier
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		backends = append(backends, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
		log.Println("[trader] telegram notifications enabled")
	}
	if cfg.WebhookURL != "" {
		backends = append(backends, notification.NewWebhookNotifier(cfg.WebhookURL))
		log.Println("[trader] webhook notifications enabled")
	}
	var notif notification.Notifier
	if len(backends) > 0 {
		notif = notification.NewMulti(backends...)
	} else {
		notif = notification.NewLogNotifier()
	}

	orch := engine.New(cfg, st, asm, pm, gw, notif)

	// ---- Optional entry journal ----
	if cfg.JournalPath != "" {
		os.MkdirAll(filepath.Dir(cfg.JournalPath), 0o755)
		jr, err := journal.New(cfg.JournalPath)
		if err != nil {
			log.Fatalf("[trader] journal init failed: %v", err)
		}
		defer jr.Close()
		orch.SetJournal(jr)
	}

	// ---- Optional Redis publishing ----
	var pub *publish.Publisher
	if cfg.RedisAddr != "" {
		var err error
		pub, err = publish.New(publish.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			log.Printf("[trader] WARNING: redis init failed: %v (continuing without publishing)", err)
		} else {
			orch.SetPublisher(pub)
		}
	}

	// ---- Metrics hooks ----
	orch.OnCycle = func(outcome string, d time.Duration) {
		prom.CyclesTotal.WithLabelValues(outcome).Inc()
		prom.CycleDur.Observe(d.Seconds())
		switch outcome {
		case engine.OutcomeEntered:
			prom.OrdersPlaced.Inc()
		case engine.OutcomeRejected:
			prom.OrdersRejected.Inc()
		}
	}
	orch.OnCandle = func() { health.SetLastCandle(time.Now()) }
	orch.OnWarmupDone = func() { health.SetWarmup(false) }
	orch.OnPosition = func(side string) { health.SetPosition(side) }

	// ---- Market data feed ----
	feedClient := feed.NewBybit(cfg)
	feedClient.OnReconnect = func() { prom.WSReconnects.Inc() }
	feedClient.OnMalformed = func() { prom.MalformedMsgs.Inc() }
	feedClient.OnCandle = func(tf string) { prom.CandlesTotal.WithLabelValues(tf).Inc() }
	feedClient.OnConnected = health.SetWSConnected

	candleCh := make(chan model.TimeframeCandle, 1000)
	go feedClient.Run(ctx, candleCh)
	go orch.Run(ctx, candleCh)

	log.Printf("[trader] pipeline ready: %s primary=%s tfs=%v", cfg.Symbol, cfg.PrimaryTF, tfIDs)
	log.Printf("[trader] feed=%s rest=%s oracle=%s", cfg.BybitWSURL, cfg.BybitRESTURL, cfg.GeminiModel)

	// ---- Wait for shutdown signal ----
	<-sigCh
	log.Println("[trader] shutdown signal received, cleaning up...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Stop(shutdownCtx)

	if pub != nil {
		pub.Close()
	}

	log.Println("[trader] shutdown complete.")
}
