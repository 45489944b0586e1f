package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"vitals_overlay/internal/feed"
	"vitals_overlay/internal/models"
	"vitals_overlay/internal/repository"
)

type SettingsService struct {
	repo repository.SettingsRepo
}

func NewSettingsService(repo repository.SettingsRepo) *SettingsService {
	return &SettingsService{repo: repo}
}

func (s *SettingsService) Get(ctx context.Context) (models.Settings, error) {
	return s.repo.Load(ctx)
}

// Update validates and stores the non-nil fields of upd, then returns the
// resulting settings. An empty string clears a value.
func (s *SettingsService) Update(ctx context.Context, upd models.SettingsUpdate) (models.Settings, error) {
	upd = trimUpdate(upd)
	if err := validateUpdate(upd); err != nil {
		return models.Settings{}, err
	}
	if err := s.repo.Save(ctx, upd); err != nil {
		return models.Settings{}, err
	}
	return s.repo.Load(ctx)
}

func (s *SettingsService) Clear(ctx context.Context) error {
	return s.repo.Clear(ctx)
}

func trimUpdate(upd models.SettingsUpdate) models.SettingsUpdate {
	trim := func(p *string) *string {
		if p == nil {
			return nil
		}
		v := strings.TrimSpace(*p)
		return &v
	}
	upd.WidgetURL = trim(upd.WidgetURL)
	upd.DexcomUsername = trim(upd.DexcomUsername)
	upd.DexcomRegion = trim(upd.DexcomRegion)
	if upd.DexcomRegion != nil {
		r := strings.ToLower(*upd.DexcomRegion)
		upd.DexcomRegion = &r
	}
	return upd
}

func validateUpdate(upd models.SettingsUpdate) error {
	if upd.WidgetURL != nil && *upd.WidgetURL != "" {
		u, err := url.Parse(*upd.WidgetURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: widget_url must be an absolute url", feed.ErrInvalidInput)
		}
	}
	if upd.DexcomRegion != nil && *upd.DexcomRegion != "" {
		switch *upd.DexcomRegion {
		case models.RegionUS, models.RegionOUS:
		default:
			return fmt.Errorf("%w: dexcom_region must be %q or %q", feed.ErrInvalidInput, models.RegionUS, models.RegionOUS)
		}
	}
	return nil
}
