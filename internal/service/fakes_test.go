package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"vitals_overlay/internal/dexcom"
	"vitals_overlay/internal/feed"
	"vitals_overlay/internal/models"
	"vitals_overlay/internal/stromno"
)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// --- event recorder ---

type fakeRecorder struct {
	mu     sync.Mutex
	events []models.FeedEvent
}

func (r *fakeRecorder) Record(_ context.Context, e models.FeedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *fakeRecorder) count(typ string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

// --- heart-rate vendor fakes ---

type fakeResolver struct {
	endpoint string
	err      error
	hang     bool // block until ctx is done
	calls    atomic.Int32
}

func (r *fakeResolver) ResolveWidget(ctx context.Context, widgetID string) (string, error) {
	r.calls.Add(1)
	if r.hang {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if r.err != nil {
		return "", r.err
	}
	return r.endpoint + "/" + widgetID, nil
}

type fakeConn struct {
	msgs      chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{msgs: make(chan []byte, 16), closed: make(chan struct{})}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case m := <-c.msgs:
		return m, nil
	case <-c.closed:
		return nil, fmt.Errorf("%w: connection closed", feed.ErrTransport)
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) push(frame string) { c.msgs <- []byte(frame) }

// fakeDialer hands out queued connections; once the queue is empty every
// dial fails.
type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	dials atomic.Int32
}

func (d *fakeDialer) queue(c ...*fakeConn) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.conns = append(d.conns, c...)
}

func (d *fakeDialer) Dial(_ context.Context, _ string) (stromno.Conn, error) {
	d.dials.Add(1)
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil, fmt.Errorf("%w: connection refused", feed.ErrTransport)
	}
	c := d.conns[0]
	d.conns = d.conns[1:]
	return c, nil
}

// --- glucose vendor fake ---

type fakeGlucoseClient struct {
	mu       sync.Mutex
	authErr  error
	loginErr error
	sessions []string // handed out by Login in order
	readFn   func(sessionID string) (dexcom.Batch, error)

	authCalls atomic.Int32
	readCalls atomic.Int32
}

func (c *fakeGlucoseClient) Authenticate(ctx context.Context, _ models.DexcomCredentials) (string, error) {
	c.authCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.authErr != nil {
		return "", c.authErr
	}
	return "account-1", nil
}

func (c *fakeGlucoseClient) Login(_ context.Context, _ models.DexcomCredentials, accountID string) (string, error) {
	if c.loginErr != nil {
		return "", c.loginErr
	}
	if accountID != "account-1" {
		return "", errors.New("unexpected account id")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sessions) == 0 {
		return "session-default", nil
	}
	s := c.sessions[0]
	c.sessions = c.sessions[1:]
	return s, nil
}

func (c *fakeGlucoseClient) ReadLatest(_ context.Context, _ string, sessionID string, _, _ int) (dexcom.Batch, error) {
	c.readCalls.Add(1)
	c.mu.Lock()
	fn := c.readFn
	c.mu.Unlock()
	if fn == nil {
		return dexcom.Batch{}, nil
	}
	return fn(sessionID)
}

func (c *fakeGlucoseClient) setRead(fn func(sessionID string) (dexcom.Batch, error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readFn = fn
}

// collector gathers delivered readings.
type collector[T any] struct {
	mu  sync.Mutex
	got []T
}

func (c *collector[T]) deliver(v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, v)
	return nil
}

func (c *collector[T]) snapshot() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.got...)
}
