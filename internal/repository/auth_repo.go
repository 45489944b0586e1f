package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"vitals_overlay/internal/models"
)

type AdminRepository struct {
	db *sql.DB
}

func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// Ensure implementation of Authorization interface at compile time.
var _ Authorization = (*AdminRepository)(nil)

const (
	insertAdminSQL           = `INSERT INTO admins (username, password_hash) VALUES (?, ?)`
	selectAdminByUsernameSQL = `SELECT id, username, password_hash FROM admins WHERE username = ?`
	countAdminsSQL           = `SELECT COUNT(*) FROM admins`
)

// Create inserts a new admin and returns its ID.
func (r *AdminRepository) Create(username, passwordHash string) (int, error) {
	res, err := r.db.Exec(insertAdminSQL, username, passwordHash)
	if err != nil {
		return 0, fmt.Errorf("insert admin %q: %w", username, err)
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for admin %q: %w", username, err)
	}
	return int(lastID), nil
}

// GetByUsername fetches an admin by username. Returns (nil, nil) if not found.
func (r *AdminRepository) GetByUsername(username string) (*models.Admin, error) {
	var a models.Admin
	err := r.db.QueryRow(selectAdminByUsernameSQL, username).Scan(&a.ID, &a.Username, &a.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select admin %q: %w", username, err)
	}
	return &a, nil
}

// Count returns the number of admin accounts.
func (r *AdminRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(countAdminsSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}
