package service

import (
	"context"

	"vitals_overlay/internal/feed"
	"vitals_overlay/internal/logger"
	"vitals_overlay/internal/models"
	"vitals_overlay/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
	HasAdmin() (bool, error)
}

// HeartRate controls the heart-rate feed and exposes its readings.
type HeartRate interface {
	Connect(ctx context.Context, widgetURL string) error
	Disconnect()
	Snapshot() models.FeedSnapshot[models.HeartRateReading]
	Subscribe(id string, fn feed.Deliver[models.HeartRateReading]) (unsubscribe func())
}

// Glucose controls the glucose feed and exposes its readings.
type Glucose interface {
	Connect(ctx context.Context, creds models.DexcomCredentials) error
	Disconnect()
	Snapshot() models.FeedSnapshot[models.GlucoseReading]
	Subscribe(id string, fn feed.Deliver[models.GlucoseReading]) (unsubscribe func())
}

// Settings stores the connection parameters used for auto-connect.
type Settings interface {
	Get(ctx context.Context) (models.Settings, error)
	Update(ctx context.Context, upd models.SettingsUpdate) (models.Settings, error)
	Clear(ctx context.Context) error
}

// EventLog exposes the append-only feed lifecycle log.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.FeedEvent, error)
	Record(ctx context.Context, e models.FeedEvent)
}

// Service aggregates all sub-services. The feeds are named fields because
// they share method names.
type Service struct {
	HeartRate HeartRate
	Glucose   Glucose
	Settings
	EventLog
	Authorization

	log *logger.Logger
}

// Deps are the vendor clients and tunables the feeds are built from.
type Deps struct {
	Resolver        WidgetResolver
	Dialer          SocketDialer
	HeartRateConfig HeartRateConfig
	GlucoseClient   GlucoseClient
	GlucoseConfig   GlucoseConfig
	Auth            AuthConfig
	Log             *logger.Logger
}

// NewService wires the repository layer and vendor clients into concrete services.
func NewService(repos *repository.Repository, deps Deps) *Service {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	events := NewEventLogService(repos.EventRepo, log)
	return &Service{
		HeartRate:     NewHeartRateFeed(deps.Resolver, deps.Dialer, events, log, deps.HeartRateConfig),
		Glucose:       NewGlucoseFeed(deps.GlucoseClient, events, log, deps.GlucoseConfig),
		Settings:      NewSettingsService(repos.Settings),
		EventLog:      events,
		Authorization: NewAuthService(repos.Auth, deps.Auth),
		log:           log,
	}
}

// Shutdown disconnects both feeds.
func (s *Service) Shutdown() {
	s.HeartRate.Disconnect()
	s.Glucose.Disconnect()
}
