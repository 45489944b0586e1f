package repository

import (
	"context"
	"database/sql"
	"time"

	"vitals_overlay/internal/models"
)

type Authorization interface {
	Create(username, hash string) (int, error)
	GetByUsername(username string) (*models.Admin, error)
	Count() (int, error)
}

// SettingsRepo persists the saved connection parameters.
type SettingsRepo interface {
	Load(ctx context.Context) (models.Settings, error)
	Save(ctx context.Context, upd models.SettingsUpdate) error
	Clear(ctx context.Context) error
}

type EventRepo interface {
	Append(ctx context.Context, e models.FeedEvent) error
	List(ctx context.Context, from, to time.Time, feed, typ string) ([]models.FeedEvent, error)
}

type Repository struct {
	Settings  SettingsRepo
	EventRepo EventRepo
	Auth      Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Settings:  NewSettingsSQLite(db),
		EventRepo: NewEventSQLite(db),
		Auth:      NewAdminRepository(db),
	}
}
