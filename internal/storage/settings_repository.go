package storage

import (
	"context"
	"fmt"

	"github.com/mint-booth/internal/models"
)

// settingsID is the primary key of the singleton settings row.
const settingsID = 1

// SettingsPatch carries the fields an admin may change. Nil fields are left untouched.
type SettingsPatch struct {
	IsPaused         *bool
	MaxPrintRequests *int
}

// SettingsRepository persists the singleton booth settings row
type SettingsRepository struct {
	db *PostgresDB
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *PostgresDB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetOrCreate returns the settings row, inserting it with the given defaults
// if it does not exist. The primary key pins the table to a single row, so
// concurrent first reads converge on one row without application locking.
func (r *SettingsRepository) GetOrCreate(ctx context.Context, defaults models.Settings) (*models.Settings, error) {
	_, err := r.db.Pool().Exec(ctx, `
		INSERT INTO settings (id, is_paused, max_print_requests)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`, settingsID, defaults.IsPaused, defaults.MaxPrintRequests)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize settings: %w", err)
	}

	var s models.Settings
	err = r.db.Pool().QueryRow(ctx, `
		SELECT id, is_paused, max_print_requests, created_at, updated_at
		FROM settings
		WHERE id = $1
	`, settingsID).Scan(&s.ID, &s.IsPaused, &s.MaxPrintRequests, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return &s, nil
}

// Update applies the non-nil fields of patch and returns the new row
func (r *SettingsRepository) Update(ctx context.Context, patch SettingsPatch) (*models.Settings, error) {
	var s models.Settings
	err := r.db.Pool().QueryRow(ctx, `
		UPDATE settings
		SET is_paused = COALESCE($2, is_paused),
			max_print_requests = COALESCE($3, max_print_requests),
			updated_at = now()
		WHERE id = $1
		RETURNING id, is_paused, max_print_requests, created_at, updated_at
	`, settingsID, patch.IsPaused, patch.MaxPrintRequests).Scan(
		&s.ID, &s.IsPaused, &s.MaxPrintRequests, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	return &s, nil
}
