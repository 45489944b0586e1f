package dexcom

import (
	"testing"

	"vitals_overlay/internal/models"
)

func TestMapTrend(t *testing.T) {
	cases := map[string]models.Trend{
		"DoubleUp":       models.TrendRisingFast,
		"SingleUp":       models.TrendRising,
		"FortyFiveUp":    models.TrendRising,
		"Flat":           models.TrendStable,
		"FortyFiveDown":  models.TrendFalling,
		"SingleDown":     models.TrendFalling,
		"DoubleDown":     models.TrendFallingFast,
		"None":           models.TrendUnknown,
		"NotComputable":  models.TrendUnknown,
		"RateOutOfRange": models.TrendUnknown,
		"Foo":            models.TrendUnknown,
		"":               models.TrendUnknown,
		"doubledown":     models.TrendUnknown,
	}
	for in, want := range cases {
		if got := MapTrend(in); got != want {
			t.Fatalf("MapTrend(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTrendName(t *testing.T) {
	if got := TrendName(7); got != "DoubleDown" {
		t.Fatalf("TrendName(7) = %q", got)
	}
	if got := TrendName(4); got != "Flat" {
		t.Fatalf("TrendName(4) = %q", got)
	}
	for _, bad := range []int64{-1, 10, 99} {
		if got := TrendName(bad); got != "" {
			t.Fatalf("TrendName(%d) = %q, want empty", bad, got)
		}
	}
}
