package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"vitals_overlay/internal/dexcom"
	"vitals_overlay/internal/feed"
	"vitals_overlay/internal/logger"
	"vitals_overlay/internal/metrics"
	"vitals_overlay/internal/models"
)

// GlucoseClient is the glucose vendor share API.
type GlucoseClient interface {
	Authenticate(ctx context.Context, creds models.DexcomCredentials) (string, error)
	Login(ctx context.Context, creds models.DexcomCredentials, accountID string) (string, error)
	ReadLatest(ctx context.Context, region, sessionID string, minutes, maxCount int) (dexcom.Batch, error)
}

// GlucoseConfig tunes the glucose feed.
type GlucoseConfig struct {
	PollInterval  time.Duration
	WindowMinutes int
	MaxCount      int
	HistorySize   int
}

const (
	defaultGlucosePollInterval = time.Minute
	defaultGlucoseWindow       = 60
	defaultGlucoseMaxCount     = 12
	defaultGlucoseHistory      = 72
)

// GlucoseFeed polls the glucose vendor on a fixed interval and fans new
// readings out to viewers.
type GlucoseFeed struct {
	client GlucoseClient
	events EventRecorder
	log    *logger.Logger
	cfg    GlucoseConfig

	// lifecycle serializes Connect and Disconnect.
	lifecycle sync.Mutex
	task      feed.Task

	mu        sync.Mutex
	state     models.ConnectionState
	creds     *models.DexcomCredentials
	sessionID string
	history   *feed.History[models.GlucoseReading]
	current   *models.GlucoseReading
	subs      *feed.Registry[models.GlucoseReading]
}

func NewGlucoseFeed(client GlucoseClient, events EventRecorder, log *logger.Logger, cfg GlucoseConfig) *GlucoseFeed {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultGlucosePollInterval
	}
	if cfg.WindowMinutes <= 0 {
		cfg.WindowMinutes = defaultGlucoseWindow
	}
	if cfg.MaxCount <= 0 {
		cfg.MaxCount = defaultGlucoseMaxCount
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = defaultGlucoseHistory
	}
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("feed", models.FeedGlucose)

	f := &GlucoseFeed{
		client:  client,
		events:  events,
		log:     log,
		cfg:     cfg,
		state:   models.StateDisconnected,
		history: feed.NewHistory[models.GlucoseReading](cfg.HistorySize),
	}
	f.subs = feed.NewRegistry[models.GlucoseReading](func(id string, err error) {
		metrics.DeliveryFailuresTotal.WithLabelValues(models.FeedGlucose).Inc()
		f.log.Debugw("glucose_delivery_failed", "subscriber", id, "err", err)
	})
	return f
}

// ValidateCredentials checks that every credential field is present and the
// region is known.
func ValidateCredentials(c models.DexcomCredentials) error {
	var missing []string
	if strings.TrimSpace(c.Username) == "" {
		missing = append(missing, "username")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if strings.TrimSpace(c.Region) == "" {
		missing = append(missing, "region")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", feed.ErrInvalidInput, strings.Join(missing, ", "))
	}
	if c.Region != models.RegionUS && c.Region != models.RegionOUS {
		return fmt.Errorf("%w: unknown region %q", feed.ErrInvalidInput, c.Region)
	}
	return nil
}

// Connect logs in with creds, performs one poll and starts periodic polling.
// Any failure leaves the feed disconnected and is returned to the caller.
func (f *GlucoseFeed) Connect(ctx context.Context, creds models.DexcomCredentials) error {
	if err := ValidateCredentials(creds); err != nil {
		return err
	}

	f.lifecycle.Lock()
	defer f.lifecycle.Unlock()

	f.teardown()
	f.setState(models.StateConnecting)

	sessionID, err := f.handshake(ctx, creds)
	if err != nil {
		f.fail(err)
		return err
	}

	f.mu.Lock()
	c := creds
	f.creds = &c
	f.sessionID = sessionID
	f.mu.Unlock()

	if err := f.poll(ctx); err != nil {
		f.teardown()
		f.fail(err)
		return err
	}

	f.setState(models.StateConnected)
	f.record(models.EventConnected, "session established")
	f.log.Infow("glucose_session_started", "region", creds.Region)

	f.task.Start(f.loop)
	return nil
}

func (f *GlucoseFeed) fail(err error) {
	f.setState(models.StateDisconnected)
	f.record(models.EventConnectFailed, err.Error())
	f.log.Warnw("glucose_connect_failed", "err", err)
}

// Disconnect stops polling and clears the session. Safe to call at any time.
func (f *GlucoseFeed) Disconnect() {
	f.lifecycle.Lock()
	defer f.lifecycle.Unlock()

	if f.teardown() {
		f.record(models.EventDisconnected, "disconnected by request")
		f.log.Infow("glucose_disconnected")
	}
}

func (f *GlucoseFeed) teardown() bool {
	f.task.Stop()

	f.mu.Lock()
	active := f.state != models.StateDisconnected || f.creds != nil
	f.state = models.StateDisconnected
	f.creds = nil
	f.sessionID = ""
	f.current = nil
	f.history.Reset()
	f.mu.Unlock()

	metrics.SetConnected(models.FeedGlucose, false)
	return active
}

// handshake runs the two-step vendor login. Vendor rejections are reported
// as authentication failures; transport problems keep their own kind.
func (f *GlucoseFeed) handshake(ctx context.Context, creds models.DexcomCredentials) (string, error) {
	accountID, err := f.client.Authenticate(ctx, creds)
	if err != nil {
		return "", authError("authenticate", err)
	}
	sessionID, err := f.client.Login(ctx, creds, accountID)
	if err != nil {
		return "", authError("login", err)
	}
	return sessionID, nil
}

func authError(step string, err error) error {
	if errors.Is(err, feed.ErrTransport) || errors.Is(err, feed.ErrInvalidInput) {
		return fmt.Errorf("%s: %w", step, err)
	}
	return fmt.Errorf("%w: %s: %w", feed.ErrAuthentication, step, err)
}

func (f *GlucoseFeed) loop(ctx context.Context) {
	ticker := time.NewTicker(f.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := f.poll(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				metrics.PollFailuresTotal.WithLabelValues(models.FeedGlucose).Inc()
				f.log.Warnw("glucose_poll_failed", "err", err)
				if f.transition(models.StateReconnecting) {
					f.record(models.EventReconnecting, err.Error())
				}
				continue
			}
			if f.transition(models.StateConnected) {
				f.record(models.EventConnected, "polling recovered")
				f.log.Infow("glucose_poll_recovered")
			}
		}
	}
}

// poll fetches the latest batch. An expired session is renewed once and the
// read retried.
func (f *GlucoseFeed) poll(ctx context.Context) error {
	f.mu.Lock()
	if f.creds == nil {
		f.mu.Unlock()
		return fmt.Errorf("%w: no glucose session", feed.ErrInvalidInput)
	}
	creds, sessionID := *f.creds, f.sessionID
	f.mu.Unlock()

	batch, err := f.client.ReadLatest(ctx, creds.Region, sessionID, f.cfg.WindowMinutes, f.cfg.MaxCount)
	if err != nil && dexcom.IsSessionExpired(err) {
		f.log.Infow("glucose_session_expired", "err", err)
		sessionID, err = f.handshake(ctx, creds)
		if err != nil {
			return err
		}
		f.mu.Lock()
		if ctx.Err() == nil {
			f.sessionID = sessionID
		}
		f.mu.Unlock()
		f.record(models.EventSessionRenewed, "session renewed after expiry")
		metrics.ReconnectsTotal.WithLabelValues(models.FeedGlucose).Inc()

		batch, err = f.client.ReadLatest(ctx, creds.Region, sessionID, f.cfg.WindowMinutes, f.cfg.MaxCount)
	}
	if err != nil {
		return err
	}

	f.ingest(ctx, batch)
	return nil
}

// ingest merges a batch into history. It broadcasts only when the newest
// timestamp changes, so polling the same reading again sends nothing.
func (f *GlucoseFeed) ingest(ctx context.Context, b dexcom.Batch) {
	if b.Skipped > 0 {
		metrics.FramesDroppedTotal.WithLabelValues(models.FeedGlucose).Add(float64(b.Skipped))
		f.log.Warnw("glucose_records_skipped", "skipped", b.Skipped)
	}
	if len(b.Readings) == 0 {
		return
	}

	latest := b.Readings[0]
	for _, r := range b.Readings[1:] {
		if r.Timestamp.After(latest.Timestamp) {
			latest = r
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if ctx.Err() != nil {
		return
	}

	added := 0
	for _, r := range b.Readings {
		if f.history.Insert(r) {
			added++
		}
	}
	if added > 0 {
		metrics.ReadingsTotal.WithLabelValues(models.FeedGlucose).Add(float64(added))
	}

	changed := f.current == nil || !f.current.Timestamp.Equal(latest.Timestamp)
	f.current = &latest
	if changed {
		f.subs.Broadcast(latest)
	}
}

// Subscribe registers fn under id. If a reading is already known, fn gets it
// immediately and before any later broadcast.
func (f *GlucoseFeed) Subscribe(id string, fn feed.Deliver[models.GlucoseReading]) (unsubscribe func()) {
	f.mu.Lock()
	unsub := f.subs.Subscribe(id, fn)
	if f.current != nil {
		f.subs.Send(id, *f.current)
	}
	n := f.subs.Len()
	f.mu.Unlock()

	metrics.Subscribers.WithLabelValues(models.FeedGlucose).Set(float64(n))
	f.log.Debugw("glucose_subscribed", "subscriber", id, "subscribers", n)

	return func() {
		unsub()
		metrics.Subscribers.WithLabelValues(models.FeedGlucose).Set(float64(f.subs.Len()))
	}
}

// Snapshot returns a copy of the feed state.
func (f *GlucoseFeed) Snapshot() models.FeedSnapshot[models.GlucoseReading] {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := models.FeedSnapshot[models.GlucoseReading]{
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

func (f *GlucoseFeed) setState(s models.ConnectionState) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
	metrics.SetConnected(models.FeedGlucose, s == models.StateConnected)
}

// transition moves the state to s and reports whether it changed.
func (f *GlucoseFeed) transition(s models.ConnectionState) bool {
	f.mu.Lock()
	changed := f.state != s
	f.state = s
	f.mu.Unlock()
	if changed {
		metrics.SetConnected(models.FeedGlucose, s == models.StateConnected)
	}
	return changed
}

func (f *GlucoseFeed) record(typ, desc string) {
	if f.events == nil {
		return
	}
	f.events.Record(context.Background(), models.FeedEvent{
		Feed:        models.FeedGlucose,
		Type:        typ,
		Description: desc,
	})
}
