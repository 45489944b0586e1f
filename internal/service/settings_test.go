package service

import (
	"context"
	"errors"
	"testing"

	"vitals_overlay/internal/feed"
	"vitals_overlay/internal/models"
)

// fakeSettingsRepo keeps settings in memory.
type fakeSettingsRepo struct {
	saved   models.Settings
	saveErr error
	saves   int
	clears  int
}

func (r *fakeSettingsRepo) Load(context.Context) (models.Settings, error) { return r.saved, nil }

func (r *fakeSettingsRepo) Save(_ context.Context, upd models.SettingsUpdate) error {
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	if upd.WidgetURL != nil {
		r.saved.WidgetURL = upd.WidgetURL
	}
	if upd.DexcomUsername != nil {
		r.saved.DexcomUsername = upd.DexcomUsername
	}
	if upd.DexcomPassword != nil {
		r.saved.DexcomPassword = upd.DexcomPassword
	}
	if upd.DexcomRegion != nil {
		r.saved.DexcomRegion = upd.DexcomRegion
	}
	return nil
}

func (r *fakeSettingsRepo) Clear(context.Context) error {
	r.clears++
	r.saved = models.Settings{}
	return nil
}

func ptr(s string) *string { return &s }

func TestSettingsService_Update_NormalizesAndStores(t *testing.T) {
	repo := &fakeSettingsRepo{}
	svc := NewSettingsService(repo)

	got, err := svc.Update(context.Background(), models.SettingsUpdate{
		WidgetURL:      ptr("  " + testWidgetURL + " "),
		DexcomUsername: ptr(" alice "),
		DexcomPassword: ptr(" keep spaces "),
		DexcomRegion:   ptr("OUS"),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if *got.WidgetURL != testWidgetURL || *got.DexcomUsername != "alice" || *got.DexcomRegion != models.RegionOUS {
		t.Fatalf("unexpected stored settings: %+v", got)
	}
	if *got.DexcomPassword != " keep spaces " {
		t.Fatalf("password must be stored verbatim, got %q", *got.DexcomPassword)
	}
}

func TestSettingsService_Update_Rejects(t *testing.T) {
	tests := []struct {
		name string
		upd  models.SettingsUpdate
	}{
		{"relative widget url", models.SettingsUpdate{WidgetURL: ptr("/widget/abc")}},
		{"unknown region", models.SettingsUpdate{DexcomRegion: ptr("eu")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeSettingsRepo{}
			_, err := NewSettingsService(repo).Update(context.Background(), tt.upd)
			if !errors.Is(err, feed.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if repo.saves != 0 {
				t.Fatalf("invalid update must not be stored")
			}
		})
	}
}

func TestSettingsService_Update_EmptyStringClears(t *testing.T) {
	repo := &fakeSettingsRepo{saved: models.Settings{WidgetURL: ptr(testWidgetURL)}}
	got, err := NewSettingsService(repo).Update(context.Background(), models.SettingsUpdate{WidgetURL: ptr("")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.HasWidget() {
		t.Fatalf("expected widget url cleared, got %q", *got.WidgetURL)
	}
}

func TestSettingsService_Clear(t *testing.T) {
	repo := &fakeSettingsRepo{saved: models.Settings{WidgetURL: ptr(testWidgetURL)}}
	svc := NewSettingsService(repo)

	if err := svc.Clear(context.Background()); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, _ := svc.Get(context.Background())
	if got.WidgetURL != nil || repo.clears != 1 {
		t.Fatalf("expected settings cleared, got %+v", got)
	}
}
