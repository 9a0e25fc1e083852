package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ayusman/abhinaya/internal/gesture"
)

// ThresholdsKey is the settings key the classifier thresholds are saved under.
const ThresholdsKey = "thresholds"

// SettingsRepository stores application settings as key-value pairs.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the value stored under key.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value,
	)
	return err
}

// Delete removes key. Deleting a missing key is not an error.
func (r *SettingsRepository) Delete(key string) error {
	_, err := r.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	return err
}

// All returns every stored setting.
func (r *SettingsRepository) All() (map[string]string, error) {
	rows, err := r.db.Query(`SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

// Thresholds loads the saved classifier thresholds. It returns
// ErrNotFound when none were saved.
func (r *SettingsRepository) Thresholds() (gesture.Thresholds, error) {
	value, err := r.Get(ThresholdsKey)
	if err != nil {
		return gesture.Thresholds{}, err
	}

	var t gesture.Thresholds
	if err := json.Unmarshal([]byte(value), &t); err != nil {
		return gesture.Thresholds{}, fmt.Errorf("decode thresholds: %w", err)
	}
	if err := t.Validate(); err != nil {
		return gesture.Thresholds{}, err
	}
	return t, nil
}

// SetThresholds validates and saves the classifier thresholds.
func (r *SettingsRepository) SetThresholds(t gesture.Thresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode thresholds: %w", err)
	}
	return r.Set(ThresholdsKey, string(data))
}
