package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"littlesteps/internal/database"
)

// Setting keys
const (
	SettingDigestLastRun = "digest_last_run"
)

type SettingsRepository struct {
	db *database.DB
}

func NewSettingsRepository(db *database.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetSetting retrieves a setting value by key. A missing key returns "" and no error.
func (r *SettingsRepository) GetSetting(key string) (string, error) {
	var value string
	err := r.db.QueryRow("SELECT setting_value FROM settings WHERE setting_key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting updates or inserts a setting
func (r *SettingsRepository) SetSetting(key, value string) error {
	query := "INSERT INTO settings (setting_key, setting_value, updated_at) VALUES (?, ?, ?)" +
		r.db.Dialect.UpsertClause([]string{"setting_key"}, []string{"setting_value", "updated_at"})
	if _, err := r.db.Exec(query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	return nil
}

// DigestLastRun returns when the digest last completed, or the zero time if it never has
func (r *SettingsRepository) DigestLastRun() (time.Time, error) {
	value, err := r.GetSetting(SettingDigestLastRun)
	if err != nil || value == "" {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s value %q: %w", SettingDigestLastRun, value, err)
	}
	return t, nil
}

// SetDigestLastRun records a completed digest pass
func (r *SettingsRepository) SetDigestLastRun(t time.Time) error {
	return r.SetSetting(SettingDigestLastRun, t.UTC().Format(time.RFC3339))
}
