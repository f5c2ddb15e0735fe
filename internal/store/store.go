// Package store maintains bounded, ordered per-timeframe candle histories.
//
// Histories are append-only with strict FIFO eviction at the configured
// retention bound. The store is the only owner of the backing slices;
// readers get copies via Snapshot.
package store

import (
	"autotrader/config"
	"autotrader/internal/model"
)

// Store holds one bounded candle history per configured timeframe.
// Designed for single-goroutine usage — no locks needed.
type Store struct {
	retention map[string]int
	histories map[string][]model.Candle
	order     []string // configured timeframe ids, in config order
}

// New creates a store for the given timeframe table.
func New(tfs []config.Timeframe) *Store {
	s := &Store{
		retention: make(map[string]int, len(tfs)),
		histories: make(map[string][]model.Candle, len(tfs)),
		order:     make([]string, 0, len(tfs)),
	}
	for _, tf := range tfs {
		s.retention[tf.ID] = tf.Retention
		s.histories[tf.ID] = make([]model.Candle, 0, tf.Retention)
		s.order = append(s.order, tf.ID)
	}
	return s
}

// Append adds a confirmed candle to the timeframe's history, evicting the
// oldest entries beyond the retention bound. Unconfigured timeframes are
// ignored (no-op). Duplicate timestamps from a misbehaving feed are kept
// as-is — deduplication is an upstream responsibility.
func (s *Store) Append(timeframe string, c model.Candle) {
	bound, ok := s.retention[timeframe]
	if !ok {
		return
	}

	h := append(s.histories[timeframe], c)
	if excess := len(h) - bound; excess > 0 {
		copy(h, h[excess:])
		h = h[:bound]
	}
	s.histories[timeframe] = h
}

// Snapshot returns a copy of the timeframe's history, oldest first.
// Mutating the returned slice does not affect stored state. Returns nil
// for unconfigured timeframes.
func (s *Store) Snapshot(timeframe string) []model.Candle {
	h, ok := s.histories[timeframe]
	if !ok {
		return nil
	}
	cp := make([]model.Candle, len(h))
	copy(cp, h)
	return cp
}

// SnapshotAll returns copies of every configured history keyed by
// timeframe id.
func (s *Store) SnapshotAll() map[string][]model.Candle {
	out := make(map[string][]model.Candle, len(s.order))
	for _, id := range s.order {
		out[id] = s.Snapshot(id)
	}
	return out
}

// Len reports the current history length for a timeframe.
func (s *Store) Len(timeframe string) int {
	return len(s.histories[timeframe])
}

// HasAllTimeframes reports whether every configured timeframe has at least
// one candle. The decision cycle stays dormant until this is true.
func (s *Store) HasAllTimeframes() bool {
	for _, id := range s.order {
		if len(s.histories[id]) == 0 {
			return false
		}
	}
	return true
}
