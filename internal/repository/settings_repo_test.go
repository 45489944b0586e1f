package repository

import (
	"errors"
	"regexp"
	"testing"

	"vitals_overlay/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func strPtr(s string) *string { return &s }

func TestSettingsSQLite_Save_UpsertsNonNilFieldsInTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	repo := NewSettingsSQLite(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(upsertSettingSQL)).
		WithArgs(keyWidgetURL, "https://app.stromno.com/widget/x", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(upsertSettingSQL)).
		WithArgs(keyDexcomRegion, "ous", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = repo.Save(ctx(t), models.SettingsUpdate{
		WidgetURL:    strPtr("https://app.stromno.com/widget/x"),
		DexcomRegion: strPtr("ous"),
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSettingsSQLite_Save_EmptyUpdateIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	if err := NewSettingsSQLite(db).Save(ctx(t), models.SettingsUpdate{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected statements: %v", err)
	}
}

func TestSettingsSQLite_Save_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(upsertSettingSQL)).
		WithArgs(keyDexcomUsername, "alice", sqlmock.AnyArg()).
		WillReturnError(errors.New("locked"))
	mock.ExpectRollback()

	err = NewSettingsSQLite(db).Save(ctx(t), models.SettingsUpdate{
		DexcomUsername: strPtr("alice"),
		DexcomPassword: strPtr("secret"),
	})
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSettingsSQLite_Load(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"key", "value"}).
		AddRow(keyDexcomUsername, "alice").
		AddRow(keyDexcomPassword, "secret").
		AddRow(keyDexcomRegion, "us").
		AddRow("legacy_key", "ignored")
	mock.ExpectQuery(regexp.QuoteMeta(selectSettingsSQL)).WillReturnRows(rows)

	s, err := NewSettingsSQLite(db).Load(ctx(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.WidgetURL != nil {
		t.Errorf("expected widget url unset, got %q", *s.WidgetURL)
	}
	if !s.HasDexcom() {
		t.Fatalf("expected complete dexcom settings, got %+v", s)
	}
	if *s.DexcomUsername != "alice" || *s.DexcomPassword != "secret" || *s.DexcomRegion != "us" {
		t.Errorf("unexpected settings: %+v", s)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSettingsSQLite_Load_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(selectSettingsSQL)).WillReturnError(errors.New("boom"))

	if _, err := NewSettingsSQLite(db).Load(ctx(t)); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestSettingsSQLite_Clear(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(deleteSettingsSQL)).WillReturnResult(sqlmock.NewResult(0, 4))

	if err := NewSettingsSQLite(db).Clear(ctx(t)); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
