package config

import "testing"

func TestParseTimeframes(t *testing.T) {
	tfs, err := ParseTimeframes("1=1m:60,5=5m:60,15=15m:96")
	if err != nil {
		t.Fatalf("ParseTimeframes: %v", err)
	}
	if len(tfs) != 3 {
		t.Fatalf("len = %d, want 3", len(tfs))
	}

	want := []Timeframe{
		{ID: "1", Label: "1m", Retention: 60},
		{ID: "5", Label: "5m", Retention: 60},
		{ID: "15", Label: "15m", Retention: 96},
	}
	for i, tf := range tfs {
		if tf != want[i] {
			t.Errorf("tfs[%d] = %+v, want %+v", i, tf, want[i])
		}
	}
}

func TestParseTimeframesPreservesOrder(t *testing.T) {
	tfs, err := ParseTimeframes("60=1h:24,1=1m:60")
	if err != nil {
		t.Fatalf("ParseTimeframes: %v", err)
	}
	if tfs[0].ID != "60" || tfs[1].ID != "1" {
		t.Errorf("order not preserved: %+v", tfs)
	}
}

func TestParseTimeframesErrors(t *testing.T) {
	cases := map[string]string{
		"empty":              "",
		"missing label":      "1:60",
		"missing retention":  "1=1m",
		"zero retention":     "1=1m:0",
		"negative retention": "1=1m:-5",
		"bad retention":      "1=1m:abc",
		"duplicate id":       "1=1m:60,1=1min:30",
	}
	for name, in := range cases {
		if _, err := ParseTimeframes(in); err == nil {
			t.Errorf("%s (%q): expected error", name, in)
		}
	}
}

func TestTimeframeByID(t *testing.T) {
	cfg := &Config{Timeframes: []Timeframe{
		{ID: "1", Label: "1m", Retention: 60},
		{ID: "5", Label: "5m", Retention: 60},
	}}

	tf, ok := cfg.TimeframeByID("5")
	if !ok || tf.Label != "5m" {
		t.Errorf("TimeframeByID(5) = (%+v, %v)", tf, ok)
	}
	if _, ok := cfg.TimeframeByID("99"); ok {
		t.Error("TimeframeByID(99) should not be found")
	}
}
