package store

import (
	"testing"

	"autotrader/config"
	"autotrader/internal/model"
)

func testTimeframes() []config.Timeframe {
	return []config.Timeframe{
		{ID: "1", Label: "1m", Retention: 5},
		{ID: "5", Label: "5m", Retention: 3},
	}
}

func candleAt(start float64) model.Candle {
	return model.Candle{Start: start, Open: 100, High: 101, Low: 99, Close: 100, Volume: 1}
}

func TestAppend_RetentionBound(t *testing.T) {
	s := New(testTimeframes())

	for i := 0; i < 50; i++ {
		s.Append("1", candleAt(float64(i)))
		if got := s.Len("1"); got > 5 {
			t.Fatalf("after %d appends: len=%d exceeds retention 5", i+1, got)
		}
	}

	snap := s.Snapshot("1")
	if len(snap) != 5 {
		t.Fatalf("expected 5 candles, got %d", len(snap))
	}
	// FIFO: the oldest surviving candle is start=45.
	for i, c := range snap {
		if want := float64(45 + i); c.Start != want {
			t.Errorf("snap[%d]: expected start=%g, got %g", i, want, c.Start)
		}
	}
}

func TestAppend_UnconfiguredTimeframeIgnored(t *testing.T) {
	s := New(testTimeframes())
	s.Append("60", candleAt(1))

	if s.Snapshot("60") != nil {
		t.Error("unconfigured timeframe must stay nil")
	}
	if s.HasAllTimeframes() {
		t.Error("store with empty configured histories must not report ready")
	}
}

func TestSnapshot_IsCopy(t *testing.T) {
	s := New(testTimeframes())
	s.Append("1", candleAt(1))

	snap := s.Snapshot("1")
	snap[0].Close = -1

	if again := s.Snapshot("1"); again[0].Close != 100 {
		t.Errorf("caller mutation leaked into stored state: %+v", again[0])
	}
}

func TestHasAllTimeframes(t *testing.T) {
	s := New(testTimeframes())
	if s.HasAllTimeframes() {
		t.Fatal("empty store must not be ready")
	}

	s.Append("1", candleAt(1))
	if s.HasAllTimeframes() {
		t.Fatal("secondary timeframe is still empty")
	}

	s.Append("5", candleAt(1))
	if !s.HasAllTimeframes() {
		t.Fatal("all timeframes populated, expected ready")
	}
}

func TestAppend_DuplicateTimestampsKept(t *testing.T) {
	s := New(testTimeframes())
	s.Append("5", candleAt(7))
	s.Append("5", candleAt(7))

	if got := s.Len("5"); got != 2 {
		t.Errorf("duplicates must not be collapsed: len=%d", got)
	}
}

func TestSnapshotAll(t *testing.T) {
	s := New(testTimeframes())
	s.Append("1", candleAt(1))

	all := s.SnapshotAll()
	if len(all) != 2 {
		t.Fatalf("expected 2 timeframe entries, got %d", len(all))
	}
	if len(all["1"]) != 1 || len(all["5"]) != 0 {
		t.Errorf("unexpected snapshot lengths: 1m=%d 5m=%d", len(all["1"]), len(all["5"]))
	}
}
