package service

import (
	"context"
	"strings"

	"github.com/Veraticus/finanzas/internal/common"
	"github.com/Veraticus/finanzas/internal/model"
)

// DefaultDateFormat is reported until the user picks one.
const DefaultDateFormat = "DD/MM/YYYY"

var dateFormats = map[string]bool{
	"DD/MM/YYYY": true,
	"MM/DD/YYYY": true,
	"YYYY-MM-DD": true,
}

// SettingsInput is the writable shape of the user settings.
type SettingsInput struct {
	DefaultCurrency string `json:"default_currency"`
	DateFormat      string `json:"date_format"`
}

// SettingsService stores display preferences for the single user.
type SettingsService struct {
	*core
}

// Get returns the stored settings or the defaults.
func (s *SettingsService) Get(ctx context.Context) (*model.Settings, error) {
	settings, err := s.store.GetSettings(ctx, model.DefaultUserID)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		settings = &model.Settings{
			UserID:          model.DefaultUserID,
			DefaultCurrency: s.base,
			DateFormat:      DefaultDateFormat,
		}
	}
	return settings, nil
}

// Update replaces the settings. Empty fields keep their current value.
func (s *SettingsService) Update(ctx context.Context, in SettingsInput) (*model.Settings, error) {
	settings, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(in.DefaultCurrency) != "" {
		code, err := validateCurrency("default_currency", in.DefaultCurrency)
		if err != nil {
			return nil, err
		}
		settings.DefaultCurrency = code
	}
	if format := strings.ToUpper(strings.TrimSpace(in.DateFormat)); format != "" {
		if !dateFormats[format] {
			return nil, common.Invalid("date_format", "unsupported format %q", in.DateFormat)
		}
		settings.DateFormat = format
	}

	if err := observe("settings", "update", s.store.SaveSettings(ctx, settings)); err != nil {
		return nil, err
	}
	return settings, nil
}
