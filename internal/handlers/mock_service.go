package handlers

import (
	"context"
	"net/http"
	"sync"

	"vitals_overlay/internal/feed"
	"vitals_overlay/internal/models"
	"vitals_overlay/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error
	hasAdmin      bool
	hasAdminErr   error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}
func (m *mockAuth) HasAdmin() (bool, error) {
	return m.hasAdmin, m.hasAdminErr
}

// mockStream is the snapshot/subscribe half shared by both feed mocks.
type mockStream[T any] struct {
	mu           sync.Mutex
	snap         models.FeedSnapshot[T]
	subs         map[string]feed.Deliver[T]
	subscribed   chan string
	unsubscribed chan string
}

func newMockStream[T any]() *mockStream[T] {
	return &mockStream[T]{
		snap:         models.FeedSnapshot[T]{State: models.StateDisconnected, History: []T{}},
		subs:         make(map[string]feed.Deliver[T]),
		subscribed:   make(chan string, 8),
		unsubscribed: make(chan string, 8),
	}
}

func (m *mockStream[T]) Snapshot() models.FeedSnapshot[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.snap
	snap.Subscribers = len(m.subs)
	return snap
}

func (m *mockStream[T]) Subscribe(id string, fn feed.Deliver[T]) func() {
	m.mu.Lock()
	m.subs[id] = fn
	m.mu.Unlock()
	signal(m.subscribed, id)
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
		signal(m.unsubscribed, id)
	}
}

func signal(ch chan string, id string) {
	select {
	case ch <- id:
	default:
	}
}

func (m *mockStream[T]) setSnapshot(s models.FeedSnapshot[T]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = s
}

// push delivers v to every subscriber, like a feed broadcast.
func (m *mockStream[T]) push(v T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, fn := range m.subs {
		_ = fn(v)
	}
}

type mockHeartRate struct {
	*mockStream[models.HeartRateReading]
	connectErr      error
	lastURL         string
	connectCalls    int
	disconnectCalls int
}

func newMockHeartRate() *mockHeartRate {
	return &mockHeartRate{mockStream: newMockStream[models.HeartRateReading]()}
}

func (m *mockHeartRate) Connect(_ context.Context, widgetURL string) error {
	m.connectCalls++
	m.lastURL = widgetURL
	return m.connectErr
}

func (m *mockHeartRate) Disconnect() { m.disconnectCalls++ }

type mockGlucose struct {
	*mockStream[models.GlucoseReading]
	connectErr      error
	lastCreds       models.DexcomCredentials
	connectCalls    int
	disconnectCalls int
}

func newMockGlucose() *mockGlucose {
	return &mockGlucose{mockStream: newMockStream[models.GlucoseReading]()}
}

func (m *mockGlucose) Connect(_ context.Context, creds models.DexcomCredentials) error {
	m.connectCalls++
	m.lastCreds = creds
	return m.connectErr
}

func (m *mockGlucose) Disconnect() { m.disconnectCalls++ }

type mockSettings struct {
	settings   models.Settings
	getErr     error
	updateErr  error
	clearErr   error
	lastUpdate models.SettingsUpdate
	updates    int
	clears     int
}

func (m *mockSettings) Get(context.Context) (models.Settings, error) {
	return m.settings, m.getErr
}

func (m *mockSettings) Update(_ context.Context, upd models.SettingsUpdate) (models.Settings, error) {
	m.updates++
	m.lastUpdate = upd
	if m.updateErr != nil {
		return models.Settings{}, m.updateErr
	}
	if upd.WidgetURL != nil {
		m.settings.WidgetURL = upd.WidgetURL
	}
	if upd.DexcomUsername != nil {
		m.settings.DexcomUsername = upd.DexcomUsername
	}
	if upd.DexcomPassword != nil {
		m.settings.DexcomPassword = upd.DexcomPassword
	}
	if upd.DexcomRegion != nil {
		m.settings.DexcomRegion = upd.DexcomRegion
	}
	return m.settings, nil
}

func (m *mockSettings) Clear(context.Context) error {
	m.clears++
	if m.clearErr != nil {
		return m.clearErr
	}
	m.settings = models.Settings{}
	return nil
}

type mockEventLog struct {
	resp       []models.FeedEvent
	err        error
	lastFilter service.LogFilter
	calls      int
}

func (m *mockEventLog) List(_ context.Context, f service.LogFilter) ([]models.FeedEvent, error) {
	m.calls++
	m.lastFilter = f
	return m.resp, m.err
}

func (m *mockEventLog) Record(context.Context, models.FeedEvent) {}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	return newTestRouterWith(s, Config{})
}

func newTestRouterWith(s *service.Service, cfg Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil, cfg)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
