package model

import "time"

// DefaultUserID owns every user-scoped record in this single-tenant ledger.
const DefaultUserID = "default"

// Settings holds display preferences.
type Settings struct {
	UpdatedAt       time.Time `json:"updated_at"`
	UserID          string    `json:"user_id"`
	DefaultCurrency string    `json:"default_currency"`
	DateFormat      string    `json:"date_format"`
}
