package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// FeedConnected is 1 while a feed is connected, 0 otherwise.
	FeedConnected = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "overlay_feed_connected",
			Help: "Whether the feed is currently connected to its vendor",
		},
		[]string{"feed"},
	)

	// ReadingsTotal counts readings accepted into a feed's history.
	ReadingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlay_readings_total",
			Help: "Total number of readings ingested",
		},
		[]string{"feed"},
	)

	// FramesDroppedTotal counts inbound messages or records rejected as malformed.
	FramesDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlay_frames_dropped_total",
			Help: "Total number of malformed vendor messages or records dropped",
		},
		[]string{"feed"},
	)

	// ReconnectsTotal counts automatic reconnect attempts.
	ReconnectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlay_reconnects_total",
			Help: "Total number of automatic reconnect attempts",
		},
		[]string{"feed"},
	)

	// PollFailuresTotal counts failed glucose polls.
	PollFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlay_poll_failures_total",
			Help: "Total number of failed vendor polls",
		},
		[]string{"feed"},
	)

	// Subscribers tracks attached viewers per feed.
	Subscribers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "overlay_subscribers",
			Help: "Number of viewers currently subscribed to the feed",
		},
		[]string{"feed"},
	)

	// DeliveryFailuresTotal counts readings a viewer could not accept.
	DeliveryFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "overlay_delivery_failures_total",
			Help: "Total number of failed deliveries to viewers",
		},
		[]string{"feed"},
	)
)

func init() {
	prometheus.MustRegister(FeedConnected)
	prometheus.MustRegister(ReadingsTotal)
	prometheus.MustRegister(FramesDroppedTotal)
	prometheus.MustRegister(ReconnectsTotal)
	prometheus.MustRegister(PollFailuresTotal)
	prometheus.MustRegister(Subscribers)
	prometheus.MustRegister(DeliveryFailuresTotal)
}

// SetConnected records the connected gauge for a feed.
func SetConnected(feed string, connected bool) {
	v := 0.0
	if connected {
		v = 1
	}
	FeedConnected.WithLabelValues(feed).Set(v)
}
