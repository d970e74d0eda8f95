package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/finanzas/internal/model"
)

// GetSettings returns the stored settings for userID, or nil when none have
// been saved yet.
func (s *queries) GetSettings(ctx context.Context, userID string) (*model.Settings, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var settings model.Settings
	err := s.q.QueryRowContext(ctx, `
		SELECT user_id, default_currency, date_format, updated_at
		FROM settings WHERE user_id = ?`, userID).Scan(
		&settings.UserID, &settings.DefaultCurrency, &settings.DateFormat, &settings.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}
	return &settings, nil
}

// SaveSettings inserts or replaces the settings row.
func (s *queries) SaveSettings(ctx context.Context, settings *model.Settings) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if settings == nil {
		return fmt.Errorf("%w: settings", ErrNilParameter)
	}

	ts := now()
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO settings (user_id, default_currency, date_format, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			default_currency = excluded.default_currency,
			date_format = excluded.date_format,
			updated_at = excluded.updated_at`,
		settings.UserID, settings.DefaultCurrency, settings.DateFormat, ts)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", translateError(err))
	}

	settings.UpdatedAt = ts
	return nil
}
