package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"vitals_overlay/internal/feed"
	"vitals_overlay/internal/models"

	"github.com/gorilla/websocket"
)

// rawEnvelope is the client-side view of a stream message.
type rawEnvelope struct {
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

// replaySource hands the current reading to new subscribers, like a live feed.
type replaySource struct {
	current *models.HeartRateReading
	fn      feed.Deliver[models.HeartRateReading]
}

func (s *replaySource) Snapshot() models.FeedSnapshot[models.HeartRateReading] {
	snap := models.FeedSnapshot[models.HeartRateReading]{State: models.StateConnected, IsConnected: true}
	if s.current != nil {
		c := *s.current
		snap.Current = &c
		snap.History = []models.HeartRateReading{c}
	}
	return snap
}

func (s *replaySource) Subscribe(_ string, fn feed.Deliver[models.HeartRateReading]) func() {
	s.fn = fn
	if s.current != nil {
		_ = fn(*s.current)
	}
	return func() {}
}

func bpmAt(bpm float64, sec int) models.HeartRateReading {
	return models.HeartRateReading{BPM: bpm, Timestamp: time.Date(2025, 3, 1, 12, 0, sec, 0, time.UTC)}
}

func TestAttach_SkipsReplayOfSnapshotCurrent(t *testing.T) {
	cur := bpmAt(70, 0)
	src := &replaySource{current: &cur}

	v := attach[models.HeartRateReading](src, 2)
	if v.init.Current == nil || v.init.Current.BPM != 70 || len(v.init.History) != 1 {
		t.Fatalf("unexpected init: %+v", v.init)
	}
	if len(v.readings) != 0 {
		t.Fatalf("replayed reading was queued")
	}

	if err := src.fn(bpmAt(71, 1)); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if got := <-v.readings; got.BPM != 71 {
		t.Fatalf("got %+v", got)
	}
}

func TestAttach_FullBufferReportsViewerBehind(t *testing.T) {
	src := &replaySource{}
	v := attach[models.HeartRateReading](src, 1)

	if err := src.fn(bpmAt(70, 0)); err != nil {
		t.Fatalf("first deliver: %v", err)
	}
	if err := src.fn(bpmAt(71, 1)); err != errViewerBehind {
		t.Fatalf("err=%v, want errViewerBehind", err)
	}
	if len(v.readings) != 1 {
		t.Fatalf("queued=%d", len(v.readings))
	}
}

// readSSE reads one Server-Sent Event.
func readSSE(t *testing.T, r *bufio.Reader) (event string, data string) {
	t.Helper()
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read sse: %v", err)
		}
		line = strings.TrimRight(line, "\r\n")
		switch {
		case line == "":
			if event != "" || data != "" {
				return event, data
			}
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}
	}
}

func waitSignal(t *testing.T, ch <-chan string, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for %s", what)
	}
}

func TestSSE_HeartRate_InitThenReadings(t *testing.T) {
	s, hr, _, _ := newFeedService()
	cur := bpmAt(68, 0)
	hr.setSnapshot(models.FeedSnapshot[models.HeartRateReading]{
		State:       models.StateConnected,
		IsConnected: true,
		Current:     &cur,
		History:     []models.HeartRateReading{cur},
	})
	r := newTestRouterWith(s, Config{HeartRateStatusInterval: time.Hour})
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/stream/heartrate", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type %q", ct)
	}

	br := bufio.NewReader(resp.Body)
	event, data := readSSE(t, br)
	if event != eventInit {
		t.Fatalf("first event %q", event)
	}
	var env rawEnvelope
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		t.Fatalf("unmarshal init: %v", err)
	}
	var initMsg initPayload[models.HeartRateReading]
	if err := json.Unmarshal(env.Data, &initMsg); err != nil {
		t.Fatalf("unmarshal init data: %v", err)
	}
	if !initMsg.IsConnected || initMsg.Current == nil || initMsg.Current.BPM != 68 || len(initMsg.History) != 1 {
		t.Fatalf("unexpected init: %+v", initMsg)
	}

	waitSignal(t, hr.subscribed, "subscribe")
	hr.push(bpmAt(74, 1))

	event, data = readSSE(t, br)
	if event != models.FeedHeartRate {
		t.Fatalf("event %q, want %q", event, models.FeedHeartRate)
	}
	env = rawEnvelope{}
	_ = json.Unmarshal([]byte(data), &env)
	var got models.HeartRateReading
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("unmarshal reading: %v", err)
	}
	if got.BPM != 74 {
		t.Fatalf("got %+v", got)
	}

	cancel()
	waitSignal(t, hr.unsubscribed, "unsubscribe after client left")
}

func TestSSE_Glucose_PeriodicStatus(t *testing.T) {
	s, _, gl, _ := newFeedService()
	gl.setSnapshot(models.FeedSnapshot[models.GlucoseReading]{State: models.StateReconnecting})
	r := newTestRouterWith(s, Config{GlucoseStatusInterval: 20 * time.Millisecond})
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/stream/glucose", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	br := bufio.NewReader(resp.Body)
	if event, _ := readSSE(t, br); event != eventInit {
		t.Fatalf("first event %q", event)
	}
	event, data := readSSE(t, br)
	if event != eventStatus {
		t.Fatalf("event %q, want status", event)
	}
	var env rawEnvelope
	_ = json.Unmarshal([]byte(data), &env)
	var st statusPayload[models.GlucoseReading]
	if err := json.Unmarshal(env.Data, &st); err != nil {
		t.Fatalf("unmarshal status: %v", err)
	}
	if st.State != models.StateReconnecting || st.IsConnected {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestWebSocket_HeartRate_InitThenReadings(t *testing.T) {
	s, hr, _, _ := newFeedService()
	r := newTestRouterWith(s, Config{HeartRateStatusInterval: time.Hour})
	srv := httptest.NewServer(r)
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	u.Scheme = "ws"
	u.Path = "/ws/heartrate"

	dialer := websocket.Dialer{HandshakeTimeout: 2 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		t.Fatalf("dial error: %v", err)
	}
	defer conn.Close()

	// Read initial snapshot
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var env rawEnvelope
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if env.Type != eventInit {
		t.Fatalf("bad envelope: %+v", env)
	}
	var initMsg initPayload[models.HeartRateReading]
	if err := json.Unmarshal(env.Data, &initMsg); err != nil {
		t.Fatalf("unmarshal init: %v", err)
	}
	if initMsg.IsConnected || initMsg.Current != nil || initMsg.State != models.StateDisconnected {
		t.Fatalf("unexpected init: %+v", initMsg)
	}

	waitSignal(t, hr.subscribed, "subscribe")
	hr.push(bpmAt(80, 2))

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	env = rawEnvelope{}
	if err := conn.ReadJSON(&env); err != nil {
		t.Fatalf("read reading: %v", err)
	}
	if env.Type != models.FeedHeartRate {
		t.Fatalf("expected type=%s, got %+v", models.FeedHeartRate, env)
	}
	var got models.HeartRateReading
	if err := json.Unmarshal(env.Data, &got); err != nil || got.BPM != 80 {
		t.Fatalf("reading=%+v err=%v", got, err)
	}

	_ = conn.Close()
	waitSignal(t, hr.unsubscribed, "unsubscribe after close")
}
