package service

import (
	"context"
	"time"

	"vitals_overlay/internal/logger"
	"vitals_overlay/internal/models"
)

func (s *Service) logOrNop() *logger.Logger {
	if s.log == nil {
		return logger.Nop()
	}
	return s.log
}

// AutoConnect starts every feed whose parameters were saved. Each feed gets
// its own perFeed budget (none when zero). A failure is logged and does not
// stop the other feed.
func (s *Service) AutoConnect(ctx context.Context, perFeed time.Duration) {
	log := s.logOrNop()

	saved, err := s.Settings.Get(ctx)
	if err != nil {
		log.Errorw("autoconnect_load_settings_failed", "err", err)
		return
	}

	if saved.HasWidget() {
		hctx, cancel := withBudget(ctx, perFeed)
		err := s.HeartRate.Connect(hctx, *saved.WidgetURL)
		cancel()
		if err != nil {
			log.Warnw("autoconnect_heartrate_failed", "err", err)
		} else {
			log.Infow("autoconnect_heartrate_started")
		}
	}

	if saved.HasDexcom() {
		creds := models.DexcomCredentials{
			Username: *saved.DexcomUsername,
			Password: *saved.DexcomPassword,
			Region:   *saved.DexcomRegion,
		}
		gctx, cancel := withBudget(ctx, perFeed)
		err := s.Glucose.Connect(gctx, creds)
		cancel()
		if err != nil {
			log.Warnw("autoconnect_glucose_failed", "err", err)
		} else {
			log.Infow("autoconnect_glucose_started", "region", creds.Region)
		}
	}
}

func withBudget(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// ConnectHeartRate connects the heart-rate feed and saves the widget url once
// the connection succeeds.
func (s *Service) ConnectHeartRate(ctx context.Context, widgetURL string) error {
	if err := s.HeartRate.Connect(ctx, widgetURL); err != nil {
		return err
	}
	if _, err := s.Settings.Update(ctx, models.SettingsUpdate{WidgetURL: &widgetURL}); err != nil {
		s.logOrNop().Errorw("save_heartrate_settings_failed", "err", err)
	}
	return nil
}

// ConnectGlucose connects the glucose feed and saves the credentials once the
// connection succeeds.
func (s *Service) ConnectGlucose(ctx context.Context, creds models.DexcomCredentials) error {
	if err := s.Glucose.Connect(ctx, creds); err != nil {
		return err
	}
	upd := models.SettingsUpdate{
		DexcomUsername: &creds.Username,
		DexcomPassword: &creds.Password,
		DexcomRegion:   &creds.Region,
	}
	if _, err := s.Settings.Update(ctx, upd); err != nil {
		s.logOrNop().Errorw("save_glucose_settings_failed", "err", err)
	}
	return nil
}
