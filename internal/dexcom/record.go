package dexcom

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"vitals_overlay/internal/feed"
	"vitals_overlay/internal/models"

	"github.com/tidwall/gjson"
)

var vendorDate = regexp.MustCompile(`^/?Date\((-?\d+)(?:[+-]\d{4})?\)/?$`)

// ParseTimestamp decodes the vendor's "Date(<epoch ms>)" format. The optional
// zone suffix is ignored because the epoch value is already absolute.
func ParseTimestamp(wt string) (time.Time, bool) {
	m := vendorDate.FindStringSubmatch(wt)
	if m == nil {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}

// Batch is the result of one data pull.
type Batch struct {
	Readings []models.GlucoseReading
	Skipped  int // records that failed validation
}

// ParseBatch validates a pulled array record by record. A malformed record is
// skipped and counted; only a payload that is not an array is an error.
func ParseBatch(raw []byte) (Batch, error) {
	if !gjson.ValidBytes(raw) {
		return Batch{}, fmt.Errorf("%w: glucose payload is not JSON", feed.ErrUpstream)
	}
	arr := gjson.ParseBytes(raw)
	if !arr.IsArray() {
		return Batch{}, fmt.Errorf("%w: glucose payload is not an array", feed.ErrUpstream)
	}

	var b Batch
	arr.ForEach(func(_, rec gjson.Result) bool {
		r, ok := parseRecord(rec)
		if !ok {
			b.Skipped++
			return true
		}
		b.Readings = append(b.Readings, r)
		return true
	})
	return b, nil
}

func parseRecord(rec gjson.Result) (models.GlucoseReading, bool) {
	if !rec.IsObject() {
		return models.GlucoseReading{}, false
	}

	value := rec.Get("Value")
	if value.Type != gjson.Number || value.Float() <= 0 {
		return models.GlucoseReading{}, false
	}

	wt := rec.Get("WT")
	if wt.Type != gjson.String {
		return models.GlucoseReading{}, false
	}
	ts, ok := ParseTimestamp(wt.String())
	if !ok {
		return models.GlucoseReading{}, false
	}

	var vendorTrend string
	switch trend := rec.Get("Trend"); trend.Type {
	case gjson.String:
		vendorTrend = trend.String()
	case gjson.Number:
		vendorTrend = TrendName(trend.Int())
	default:
		return models.GlucoseReading{}, false
	}

	return models.GlucoseReading{
		MgDL:        value.Float(),
		Trend:       MapTrend(vendorTrend),
		VendorTrend: vendorTrend,
		Timestamp:   ts,
	}, true
}
