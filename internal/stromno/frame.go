package stromno

import (
	"errors"
	"time"

	"vitals_overlay/internal/models"

	"github.com/tidwall/gjson"
)

// ErrMalformedFrame is returned for frames that do not carry a usable rate.
var ErrMalformedFrame = errors.New("malformed heart-rate frame")

// ParseFrame decodes one pushed frame of the form
// {"timestamp": <epoch ms>, "data": {"heartRate": <n>}}. The frame's own
// timestamp wins over now when present. A zero or negative rate is rejected.
func ParseFrame(msg []byte, now time.Time) (models.HeartRateReading, error) {
	if !gjson.ValidBytes(msg) {
		return models.HeartRateReading{}, ErrMalformedFrame
	}

	rate := gjson.GetBytes(msg, "data.heartRate")
	if rate.Type != gjson.Number || rate.Float() <= 0 {
		return models.HeartRateReading{}, ErrMalformedFrame
	}

	ts := now.UTC()
	if raw := gjson.GetBytes(msg, "timestamp"); raw.Exists() && raw.Type != gjson.Null {
		if raw.Type != gjson.Number {
			return models.HeartRateReading{}, ErrMalformedFrame
		}
		if ms := raw.Int(); ms > 0 {
			ts = time.UnixMilli(ms).UTC()
		}
	}

	return models.HeartRateReading{BPM: rate.Float(), Timestamp: ts}, nil
}
