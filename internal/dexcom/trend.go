package dexcom

import "vitals_overlay/internal/models"

var trendByName = map[string]models.Trend{
	"None":           models.TrendUnknown,
	"DoubleUp":       models.TrendRisingFast,
	"SingleUp":       models.TrendRising,
	"FortyFiveUp":    models.TrendRising,
	"Flat":           models.TrendStable,
	"FortyFiveDown":  models.TrendFalling,
	"SingleDown":     models.TrendFalling,
	"DoubleDown":     models.TrendFallingFast,
	"NotComputable":  models.TrendUnknown,
	"RateOutOfRange": models.TrendUnknown,
}

// trendNames is the legacy numeric vocabulary, indexed by the vendor's number.
var trendNames = []string{
	"None",
	"DoubleUp",
	"SingleUp",
	"FortyFiveUp",
	"Flat",
	"FortyFiveDown",
	"SingleDown",
	"DoubleDown",
	"NotComputable",
	"RateOutOfRange",
}

// MapTrend maps a vendor trend name to a Trend. Unrecognized names map to
// TrendUnknown.
func MapTrend(vendor string) models.Trend {
	if t, ok := trendByName[vendor]; ok {
		return t
	}
	return models.TrendUnknown
}

// TrendName returns the vendor name for a legacy numeric trend, or "" when
// the index is out of range.
func TrendName(index int64) string {
	if index < 0 || index >= int64(len(trendNames)) {
		return ""
	}
	return trendNames[index]
}
