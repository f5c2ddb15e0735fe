// Package engine runs the entry orchestrator: the single consumer of the
// candle channel that owns the store, triggers decision cycles on primary
// candle closes, and routes entries through the order gateway.
package engine

import (
	"context"
	"log"
	"log/slog"
	"time"

	"autotrader/config"
	"autotrader/internal/decision"
	"autotrader/internal/gateway"
	"autotrader/internal/indicator"
	"autotrader/internal/journal"
	"autotrader/internal/logger"
	"autotrader/internal/model"
	"autotrader/internal/notification"
	"autotrader/internal/position"
	"autotrader/internal/publish"
	"autotrader/internal/store"
)

// Cycle outcomes reported through OnCycle.
const (
	OutcomeWait      = "wait"
	OutcomeRedundant = "redundant"
	OutcomeEntered   = "entered"
	OutcomeRejected  = "order_rejected"
)

// Orchestrator consumes confirmed candles and runs one decision cycle per
// primary-timeframe close. All state it touches (store, position) is owned
// by its single Run goroutine, so none of it is locked.
type Orchestrator struct {
	symbol    string
	primaryTF string
	orderQty  float64
	indCfg    indicator.Config
	tfLabels  map[string]string

	store     *store.Store
	assembler *decision.Assembler
	positions *position.Manager
	gateway   gateway.Gateway
	notifier  notification.Notifier

	// Optional infrastructure; nil disables the feature.
	journal   *journal.Journal
	publisher *publish.Publisher

	// Optional metrics hooks
	OnCycle      func(outcome string, d time.Duration)
	OnCandle     func()
	OnWarmupDone func()
	OnPosition   func(side string)
}

// New wires an orchestrator from its collaborators.
func New(cfg *config.Config, st *store.Store, asm *decision.Assembler, pm *position.Manager, gw gateway.Gateway, notif notification.Notifier) *Orchestrator {
	labels := make(map[string]string, len(cfg.Timeframes))
	for _, tf := range cfg.Timeframes {
		labels[tf.ID] = tf.Label
	}

	return &Orchestrator{
		symbol:    cfg.Symbol,
		primaryTF: cfg.PrimaryTF,
		orderQty:  cfg.OrderQty,
		indCfg: indicator.Config{
			RSIPeriod:      cfg.RSIPeriod,
			VolumeLookback: cfg.VolumeLookback,
			ATRPeriod:      cfg.ATRPeriod,
		},
		tfLabels:  labels,
		store:     st,
		assembler: asm,
		positions: pm,
		gateway:   gw,
		notifier:  notif,
	}
}

// SetJournal enables the SQLite entry journal.
func (o *Orchestrator) SetJournal(j *journal.Journal) { o.journal = j }

// SetPublisher enables Redis candle/decision publishing.
func (o *Orchestrator) SetPublisher(p *publish.Publisher) { o.publisher = p }

// Run consumes candleCh until ctx is cancelled or the channel closes.
// Secondary-timeframe candles only extend history; a primary candle close
// additionally triggers a decision cycle once every timeframe has data.
func (o *Orchestrator) Run(ctx context.Context, candleCh <-chan model.TimeframeCandle) {
	warm := false
	for {
		select {
		case <-ctx.Done():
			return
		case tfc, ok := <-candleCh:
			if !ok {
				return
			}

			o.store.Append(tfc.Timeframe, tfc.Candle)
			if o.OnCandle != nil {
				o.OnCandle()
			}
			if o.publisher != nil {
				o.publisher.PublishCandle(ctx, tfc)
			}

			if tfc.Timeframe != o.primaryTF {
				continue
			}
			if !o.store.HasAllTimeframes() {
				log.Printf("[engine] warming up, waiting for all timeframes")
				continue
			}
			if !warm {
				warm = true
				log.Printf("[engine] warmup complete, decision cycles active")
				if o.OnWarmupDone != nil {
					o.OnWarmupDone()
				}
			}

			o.runCycle(ctx, tfc.Candle.Close)
		}
	}
}

// runCycle executes one decision cycle against the latest primary close.
func (o *Orchestrator) runCycle(ctx context.Context, entryPrice float64) {
	start := time.Now()
	ctx = logger.WithTraceID(ctx, logger.GenerateTraceID(o.symbol, start))

	candles := o.store.SnapshotAll()
	inds := make(map[string]indicator.Snapshot, len(candles))
	for tf, history := range candles {
		inds[tf] = indicator.Compute(history, o.indCfg)
	}

	d := o.assembler.Decide(ctx, candles, inds)
	outcome := o.act(ctx, d, entryPrice, candles, inds, start)

	dur := time.Since(start)
	slog.Info("cycle complete", append([]any{
		slog.String("decision", string(d)),
		slog.String("outcome", outcome),
		slog.Duration("took", dur),
	}, logger.LogWithTrace(ctx)...)...)

	if o.publisher != nil {
		o.publisher.PublishDecision(ctx, publish.DecisionEvent{
			Symbol:   o.symbol,
			Decision: string(d),
			Outcome:  outcome,
			Price:    entryPrice,
			TS:       time.Now().Unix(),
		})
	}
	if o.OnCycle != nil {
		o.OnCycle(outcome, dur)
	}
}

// act applies a decision: skips WAIT and same-direction signals, otherwise
// derives exit levels and places the order. Position state changes only on
// a confirmed placement.
func (o *Orchestrator) act(ctx context.Context, d model.Decision, entryPrice float64, candles map[string][]model.Candle, inds map[string]indicator.Snapshot, cycleStart time.Time) string {
	if d == model.DecisionWait {
		return OutcomeWait
	}
	if !o.positions.ShouldEnter(d) {
		log.Printf("[engine] already holding %s, skipping %s", o.positions.Current(), d)
		return OutcomeRedundant
	}

	side := d.Side()
	levels := o.positions.CalcExitLevels(side, entryPrice, candles[o.primaryTF])

	res, err := o.gateway.PlaceOrder(ctx, gateway.OrderRequest{
		Side:       side,
		Qty:        o.orderQty,
		TakeProfit: levels.TakeProfit,
		StopLoss:   levels.StopLoss,
	})
	if err != nil {
		log.Printf("[engine] order failed, position unchanged: %v", err)
		return OutcomeRejected
	}

	o.positions.SetCurrent(side)
	log.Printf("[engine] entered %s %s @ %.2f tp=%.2f sl=%.2f order=%s",
		side, o.symbol, entryPrice, levels.TakeProfit, levels.StopLoss, res.OrderID)
	if o.OnPosition != nil {
		o.OnPosition(string(side))
	}

	if o.journal != nil {
		err := o.journal.RecordEntry(journal.Entry{
			OrderID:     res.OrderID,
			Symbol:      o.symbol,
			Side:        side,
			Qty:         o.orderQty,
			EntryPrice:  entryPrice,
			Levels:      levels,
			DecisionDur: time.Since(cycleStart),
			EnteredAt:   time.Now(),
		})
		if err != nil {
			log.Printf("[engine] journal write failed: %v", err)
		}
	}

	alert := notification.EntryAlert(o.symbol, side, entryPrice, levels, inds, o.tfLabels)
	if err := o.notifier.Send(ctx, alert); err != nil {
		log.Printf("[engine] notification failed: %v", err)
	}

	return OutcomeEntered
}
