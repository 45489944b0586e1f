package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vitals_overlay/internal/feed"
	"vitals_overlay/internal/logger"
	"vitals_overlay/internal/models"
	"vitals_overlay/internal/repository"

	"github.com/google/uuid"
)

type EventLogService struct {
	eventRepo repository.EventRepo
	log       *logger.Logger
}

func NewEventLogService(eventRepo repository.EventRepo, log *logger.Logger) *EventLogService {
	if log == nil {
		log = logger.Nop()
	}
	return &EventLogService{eventRepo: eventRepo, log: log}
}

var (
	errInvalidTimeRange = fmt.Errorf("%w: time range: from must be <= to", feed.ErrInvalidInput)
	errUnknownFeed      = fmt.Errorf("%w: unknown feed: must be heartrate or glucose", feed.ErrInvalidInput)
)

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

func normalizeFeed(s string) (string, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "", models.FeedHeartRate, models.FeedGlucose:
		return s, nil
	default:
		return "", errUnknownFeed
	}
}

// normalizeAndValidateFilter prepares query parameters and validates them.
func normalizeAndValidateFilter(f LogFilter) (LogFilter, error) {
	out := LogFilter{
		From: normalizeToUTC(f.From),
		To:   normalizeToUTC(f.To),
		Type: normalizeEventType(f.Type),
	}
	if !out.From.IsZero() && !out.To.IsZero() && out.From.After(out.To) {
		return LogFilter{}, errInvalidTimeRange
	}
	feedName, err := normalizeFeed(f.Feed)
	if err != nil {
		return LogFilter{}, err
	}
	out.Feed = feedName
	return out, nil
}

// IsFilterError reports whether err was caused by an invalid LogFilter.
func IsFilterError(err error) bool {
	return errors.Is(err, feed.ErrInvalidInput)
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.FeedEvent, error) {
	nf, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, nf.From, nf.To, nf.Feed, nf.Type)
}

// Record appends e to the log. Storage failures are logged, not returned.
func (s *EventLogService) Record(ctx context.Context, e models.FeedEvent) {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	if err := s.eventRepo.Append(ctx, e); err != nil {
		s.log.Errorw("feed_event_append_failed", "feed", e.Feed, "type", e.Type, "err", err)
	}
}
