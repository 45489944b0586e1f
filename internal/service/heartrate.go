package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vitals_overlay/internal/feed"
	"vitals_overlay/internal/logger"
	"vitals_overlay/internal/metrics"
	"vitals_overlay/internal/models"
	"vitals_overlay/internal/stromno"
)

// WidgetResolver turns a widget id into its realtime socket endpoint.
type WidgetResolver interface {
	ResolveWidget(ctx context.Context, widgetID string) (string, error)
}

// SocketDialer opens the realtime socket.
type SocketDialer interface {
	Dial(ctx context.Context, endpoint string) (stromno.Conn, error)
}

// EventRecorder stores feed lifecycle events.
type EventRecorder interface {
	Record(ctx context.Context, e models.FeedEvent)
}

// HeartRateConfig tunes the heart-rate feed.
type HeartRateConfig struct {
	ReconnectDelay time.Duration
	HistorySize    int
}

const (
	defaultHeartRateReconnectDelay = 5 * time.Second
	defaultHeartRateHistory        = 360
)

// HeartRateFeed keeps one socket to the heart-rate vendor open, records
// readings and fans them out to viewers.
type HeartRateFeed struct {
	resolver WidgetResolver
	dialer   SocketDialer
	events   EventRecorder
	log      *logger.Logger
	cfg      HeartRateConfig
	now      func() time.Time

	// lifecycle serializes Connect and Disconnect.
	lifecycle sync.Mutex
	task      feed.Task

	mu       sync.Mutex
	state    models.ConnectionState
	widgetID string
	history  *feed.History[models.HeartRateReading]
	current  *models.HeartRateReading
	subs     *feed.Registry[models.HeartRateReading]
}

func NewHeartRateFeed(resolver WidgetResolver, dialer SocketDialer, events EventRecorder, log *logger.Logger, cfg HeartRateConfig) *HeartRateFeed {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultHeartRateReconnectDelay
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = defaultHeartRateHistory
	}
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("feed", models.FeedHeartRate)

	f := &HeartRateFeed{
		resolver: resolver,
		dialer:   dialer,
		events:   events,
		log:      log,
		cfg:      cfg,
		now:      time.Now,
		state:    models.StateDisconnected,
		history:  feed.NewHistory[models.HeartRateReading](cfg.HistorySize),
	}
	f.subs = feed.NewRegistry[models.HeartRateReading](func(id string, err error) {
		metrics.DeliveryFailuresTotal.WithLabelValues(models.FeedHeartRate).Inc()
		f.log.Debugw("heartrate_delivery_failed", "subscriber", id, "err", err)
	})
	return f
}

// Connect starts a fresh session for the widget at widgetURL. It returns once
// the socket endpoint is resolved; opening the socket and retrying it happen
// in the background.
func (f *HeartRateFeed) Connect(ctx context.Context, widgetURL string) error {
	widgetID, ok := stromno.ParseWidgetURL(widgetURL)
	if !ok {
		return fmt.Errorf("%w: widget url has no widget id", feed.ErrInvalidInput)
	}

	f.lifecycle.Lock()
	defer f.lifecycle.Unlock()

	f.teardown()
	f.setState(models.StateConnecting)

	endpoint, err := f.resolver.ResolveWidget(ctx, widgetID)
	if err != nil {
		f.setState(models.StateDisconnected)
		f.record(models.EventConnectFailed, err.Error())
		f.log.Warnw("heartrate_resolve_failed", "widget_id", widgetID, "err", err)
		return err
	}

	f.mu.Lock()
	f.widgetID = widgetID
	f.mu.Unlock()

	log := f.log.With("widget_id", widgetID)
	log.Infow("heartrate_session_started")
	f.task.Start(func(ctx context.Context) {
		f.run(ctx, endpoint, log)
	})
	return nil
}

// Disconnect stops the session and clears readings. Safe to call at any time.
func (f *HeartRateFeed) Disconnect() {
	f.lifecycle.Lock()
	defer f.lifecycle.Unlock()

	if f.teardown() {
		f.record(models.EventDisconnected, "disconnected by request")
		f.log.Infow("heartrate_disconnected")
	}
}

// teardown stops the loop and resets the session. It reports whether there
// was anything to tear down.
func (f *HeartRateFeed) teardown() bool {
	f.task.Stop()

	f.mu.Lock()
	active := f.state != models.StateDisconnected || f.widgetID != ""
	f.state = models.StateDisconnected
	f.widgetID = ""
	f.current = nil
	f.history.Reset()
	f.mu.Unlock()

	metrics.SetConnected(models.FeedHeartRate, false)
	return active
}

func (f *HeartRateFeed) run(ctx context.Context, endpoint string, log *logger.Logger) {
	for {
		err := f.session(ctx, endpoint, log)
		if ctx.Err() != nil {
			return
		}

		if f.transition(models.StateReconnecting) {
			f.record(models.EventReconnecting, err.Error())
		}
		log.Warnw("heartrate_socket_lost", "err", err, "retry_in", f.cfg.ReconnectDelay)

		if !feed.Sleep(ctx, f.cfg.ReconnectDelay) {
			return
		}
		metrics.ReconnectsTotal.WithLabelValues(models.FeedHeartRate).Inc()
	}
}

// session runs one socket connection until it fails or ctx is cancelled.
func (f *HeartRateFeed) session(ctx context.Context, endpoint string, log *logger.Logger) error {
	conn, err := f.dialer.Dial(ctx, endpoint)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer func() {
		stop()
		_ = conn.Close()
	}()

	if f.transition(models.StateConnected) {
		f.record(models.EventConnected, "socket open")
	}
	log.Infow("heartrate_socket_open")

	for {
		msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		reading, err := stromno.ParseFrame(msg, f.now())
		if err != nil {
			metrics.FramesDroppedTotal.WithLabelValues(models.FeedHeartRate).Inc()
			log.Debugw("heartrate_frame_dropped", "err", err)
			continue
		}
		f.ingest(ctx, reading)
	}
}

func (f *HeartRateFeed) ingest(ctx context.Context, r models.HeartRateReading) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// A torn-down session must not leak readings into the next one.
	if ctx.Err() != nil {
		return
	}
	f.history.Append(r)
	f.current = &r
	metrics.ReadingsTotal.WithLabelValues(models.FeedHeartRate).Inc()
	f.subs.Broadcast(r)
}

// Subscribe registers fn under id. If a reading is already known, fn gets it
// immediately and before any later broadcast.
func (f *HeartRateFeed) Subscribe(id string, fn feed.Deliver[models.HeartRateReading]) (unsubscribe func()) {
	f.mu.Lock()
	unsub := f.subs.Subscribe(id, fn)
	if f.current != nil {
		f.subs.Send(id, *f.current)
	}
	n := f.subs.Len()
	f.mu.Unlock()

	metrics.Subscribers.WithLabelValues(models.FeedHeartRate).Set(float64(n))
	f.log.Debugw("heartrate_subscribed", "subscriber", id, "subscribers", n)

	return func() {
		unsub()
		metrics.Subscribers.WithLabelValues(models.FeedHeartRate).Set(float64(f.subs.Len()))
	}
}

// Snapshot returns a copy of the feed state.
func (f *HeartRateFeed) Snapshot() models.FeedSnapshot[models.HeartRateReading] {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := models.FeedSnapshot[models.HeartRateReading]{
		State:       f.state,
		IsConnected: f.state == models.StateConnected,
		History:     f.history.Snapshot(),
		Subscribers: f.subs.Len(),
	}
	if f.current != nil {
		cur := *f.current
		snap.Current = &cur
	}
	return snap
}

func (f *HeartRateFeed) setState(s models.ConnectionState) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
	metrics.SetConnected(models.FeedHeartRate, s == models.StateConnected)
}

// transition is setState that reports whether the state actually changed.
func (f *HeartRateFeed) transition(s models.ConnectionState) bool {
	f.mu.Lock()
	changed := f.state != s
	f.state = s
	f.mu.Unlock()
	if changed {
		metrics.SetConnected(models.FeedHeartRate, s == models.StateConnected)
	}
	return changed
}

func (f *HeartRateFeed) record(typ, desc string) {
	if f.events == nil {
		return
	}
	f.events.Record(context.Background(), models.FeedEvent{
		Feed:        models.FeedHeartRate,
		Type:        typ,
		Description: desc,
	})
}
