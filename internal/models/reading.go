package models

import "time"

// HeartRateReading is one normalized sample from the heart-rate vendor.
type HeartRateReading struct {
	BPM       float64   `json:"bpm"`
	Timestamp time.Time `json:"timestamp"`
}

// At returns the reading's timestamp.
func (r HeartRateReading) At() time.Time { return r.Timestamp }

// Trend is the direction classification attached to a glucose reading.
type Trend string

const (
	TrendRisingFast  Trend = "rising_fast"
	TrendRising      Trend = "rising"
	TrendStable      Trend = "stable"
	TrendFalling     Trend = "falling"
	TrendFallingFast Trend = "falling_fast"
	TrendUnknown     Trend = "unknown"
)

// GlucoseReading is one normalized record from the glucose vendor.
type GlucoseReading struct {
	MgDL        float64   `json:"mgdl"`
	Trend       Trend     `json:"trend"`
	VendorTrend string    `json:"vendor_trend,omitempty"` // raw vendor vocabulary, e.g. "FortyFiveUp"
	Timestamp   time.Time `json:"timestamp"`
}

// At returns the reading's timestamp.
func (r GlucoseReading) At() time.Time { return r.Timestamp }
