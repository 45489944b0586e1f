package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"vitals_overlay/internal/models"
)

type SettingsSQLite struct {
	db *sql.DB
}

func NewSettingsSQLite(db *sql.DB) *SettingsSQLite {
	return &SettingsSQLite{db: db}
}

var _ SettingsRepo = (*SettingsSQLite)(nil)

const (
	keyWidgetURL      = "widget_url"
	keyDexcomUsername = "dexcom_username"
	keyDexcomPassword = "dexcom_password"
	keyDexcomRegion   = "dexcom_region"

	upsertSettingSQL = `
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value=excluded.value,
			updated_at=excluded.updated_at
	`

	selectSettingsSQL = `SELECT key, value FROM settings`

	deleteSettingsSQL = `DELETE FROM settings`
)

type settingField struct {
	key   string
	value *string
}

// fields lists the update's keys in a stable order; nil values are skipped by Save.
func fields(upd models.SettingsUpdate) []settingField {
	return []settingField{
		{keyWidgetURL, upd.WidgetURL},
		{keyDexcomUsername, upd.DexcomUsername},
		{keyDexcomPassword, upd.DexcomPassword},
		{keyDexcomRegion, upd.DexcomRegion},
	}
}

// Save upserts every non-nil field of upd in one transaction.
func (r *SettingsSQLite) Save(ctx context.Context, upd models.SettingsUpdate) error {
	var pending []settingField
	for _, f := range fields(upd) {
		if f.value != nil {
			pending = append(pending, f)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin settings transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	for _, f := range pending {
		if _, err := tx.ExecContext(ctx, upsertSettingSQL, f.key, *f.value, now); err != nil {
			return fmt.Errorf("save setting %q: %w", f.key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit settings: %w", err)
	}
	return nil
}

// Load returns every saved setting. Keys that were never saved stay nil.
func (r *SettingsSQLite) Load(ctx context.Context) (models.Settings, error) {
	rows, err := r.db.QueryContext(ctx, selectSettingsSQL)
	if err != nil {
		return models.Settings{}, fmt.Errorf("select settings: %w", err)
	}
	defer rows.Close()

	var s models.Settings
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return models.Settings{}, fmt.Errorf("scan setting: %w", err)
		}
		v := value
		switch key {
		case keyWidgetURL:
			s.WidgetURL = &v
		case keyDexcomUsername:
			s.DexcomUsername = &v
		case keyDexcomPassword:
			s.DexcomPassword = &v
		case keyDexcomRegion:
			s.DexcomRegion = &v
		}
	}
	if err := rows.Err(); err != nil {
		return models.Settings{}, err
	}
	return s, nil
}

// Clear removes every saved setting.
func (r *SettingsSQLite) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, deleteSettingsSQL); err != nil {
		return fmt.Errorf("clear settings: %w", err)
	}
	return nil
}
