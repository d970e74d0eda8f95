package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

type seedCategory struct {
	name  string
	kind  string
	color string
	icon  string
}

var defaultCategories = []seedCategory{
	{"Salary", "income", "#10B981", "briefcase"},
	{"Freelance", "income", "#3B82F6", "laptop"},
	{"Food", "expense", "#F59E0B", "utensils"},
	{"Transport", "expense", "#6366F1", "car"},
	{"Housing", "expense", "#EF4444", "home"},
	{"Utilities", "expense", "#8B5CF6", "bolt"},
	{"Entertainment", "expense", "#EC4899", "film"},
	{"Health", "expense", "#14B8A6", "heart"},
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial ledger schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS accounts (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL CHECK (length(trim(name)) >= 2 AND length(name) <= 100),
					type TEXT NOT NULL CHECK (type IN ('checking', 'savings', 'credit', 'cash', 'investment')),
					balance INTEGER NOT NULL DEFAULT 0,
					initial_balance INTEGER NOT NULL DEFAULT 0,
					currency TEXT NOT NULL CHECK (currency IN ('ARS', 'USD', 'EUR')),
					is_active BOOLEAN NOT NULL DEFAULT 1,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE UNIQUE INDEX idx_accounts_active_name ON accounts(name) WHERE is_active = 1`,
				`CREATE INDEX idx_accounts_currency ON accounts(currency)`,

				`CREATE TABLE IF NOT EXISTS categories (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL CHECK (length(trim(name)) >= 2 AND length(name) <= 50),
					type TEXT NOT NULL CHECK (type IN ('income', 'expense')),
					color TEXT NOT NULL DEFAULT '#6B7280' CHECK (color GLOB '#*'),
					icon TEXT NOT NULL DEFAULT 'tag',
					is_active BOOLEAN NOT NULL DEFAULT 1,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					UNIQUE (name, type)
				)`,
				`CREATE INDEX idx_categories_active ON categories(is_active)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
					category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
					amount INTEGER NOT NULL CHECK (amount <> 0),
					description TEXT CHECK (description IS NULL OR length(description) BETWEEN 3 AND 255),
					date TEXT NOT NULL,
					type TEXT NOT NULL CHECK (type IN ('income', 'expense')),
					tags TEXT NOT NULL DEFAULT '[]',
					is_recurring BOOLEAN NOT NULL DEFAULT 0,
					recurring_frequency TEXT CHECK (recurring_frequency IS NULL OR recurring_frequency IN ('weekly', 'monthly', 'quarterly', 'yearly')),
					location TEXT CHECK (location IS NULL OR length(location) <= 200),
					external_id TEXT UNIQUE,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					CHECK ((type = 'expense' AND amount < 0) OR (type = 'income' AND amount > 0))
				)`,
				`CREATE INDEX idx_transactions_account ON transactions(account_id)`,
				`CREATE INDEX idx_transactions_category ON transactions(category_id)`,
				`CREATE INDEX idx_transactions_date ON transactions(date)`,

				`CREATE TABLE IF NOT EXISTS budgets (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL DEFAULT '',
					category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
					amount INTEGER NOT NULL CHECK (amount > 0),
					period TEXT NOT NULL CHECK (period IN ('weekly', 'monthly', 'quarterly', 'yearly')),
					start_date TEXT NOT NULL,
					end_date TEXT CHECK (end_date IS NULL OR end_date >= start_date),
					currency TEXT NOT NULL CHECK (currency IN ('ARS', 'USD', 'EUR')),
					alert_threshold REAL NOT NULL DEFAULT 0.8 CHECK (alert_threshold >= 0 AND alert_threshold <= 1),
					is_active BOOLEAN NOT NULL DEFAULT 1,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_budgets_category ON budgets(category_id, currency)`,

				`CREATE TABLE IF NOT EXISTS goals (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL CHECK (length(trim(name)) >= 2 AND length(name) <= 100),
					description TEXT,
					target_amount INTEGER NOT NULL CHECK (target_amount > 0),
					current_amount INTEGER NOT NULL DEFAULT 0 CHECK (current_amount >= 0),
					target_date TEXT NOT NULL,
					priority TEXT NOT NULL DEFAULT 'medium' CHECK (priority IN ('low', 'medium', 'high')),
					status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'completed', 'paused', 'cancelled')),
					currency TEXT NOT NULL CHECK (currency IN ('ARS', 'USD', 'EUR')),
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS payments (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL CHECK (length(trim(name)) >= 2 AND length(name) <= 100),
					description TEXT,
					amount INTEGER NOT NULL CHECK (amount > 0),
					currency TEXT NOT NULL CHECK (currency IN ('ARS', 'USD', 'EUR')),
					due_date TEXT NOT NULL,
					status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'paid', 'overdue', 'cancelled')),
					is_recurring BOOLEAN NOT NULL DEFAULT 0,
					frequency TEXT CHECK (frequency IS NULL OR frequency IN ('weekly', 'monthly', 'quarterly', 'yearly')),
					account_id TEXT REFERENCES accounts(id) ON DELETE SET NULL,
					category_id TEXT REFERENCES categories(id) ON DELETE SET NULL,
					transaction_id TEXT REFERENCES transactions(id) ON DELETE SET NULL,
					paid_date TEXT,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_payments_status_due ON payments(status, due_date)`,
			})
		},
	},
	{
		Version:     2,
		Description: "Add transfers as first-class ledger entries",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS transfers (
					id TEXT PRIMARY KEY,
					from_account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE RESTRICT,
					to_account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE RESTRICT,
					amount INTEGER NOT NULL CHECK (amount > 0),
					fee INTEGER NOT NULL DEFAULT 0 CHECK (fee >= 0),
					credited_amount INTEGER NOT NULL CHECK (credited_amount > 0),
					currency TEXT NOT NULL CHECK (currency IN ('ARS', 'USD', 'EUR')),
					type TEXT NOT NULL CHECK (type IN ('internal', 'external')),
					status TEXT NOT NULL DEFAULT 'completed' CHECK (status IN ('pending', 'completed', 'failed', 'cancelled')),
					description TEXT,
					date TEXT NOT NULL,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
					CHECK (from_account_id <> to_account_id)
				)`,
				`CREATE INDEX idx_transfers_from ON transfers(from_account_id)`,
				`CREATE INDEX idx_transfers_to ON transfers(to_account_id)`,
			})
		},
	},
	{
		Version:     3,
		Description: "Add settings, checkpoint metadata and default categories",
		Up: func(tx *sql.Tx) error {
			err := execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS settings (
					user_id TEXT PRIMARY KEY DEFAULT 'default',
					default_currency TEXT NOT NULL DEFAULT 'USD' CHECK (default_currency IN ('ARS', 'USD', 'EUR')),
					date_format TEXT NOT NULL DEFAULT 'DD/MM/YYYY',
					updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE TABLE IF NOT EXISTS checkpoint_metadata (
					id TEXT PRIMARY KEY,
					created_at DATETIME NOT NULL,
					description TEXT,
					file_size INTEGER,
					row_counts TEXT,
					schema_version INTEGER
				)`,
			})
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			for _, c := range defaultCategories {
				_, err := tx.Exec(`
					INSERT OR IGNORE INTO categories (id, name, type, color, icon, is_active, created_at, updated_at)
					VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
					uuid.NewString(), c.name, c.kind, c.color, c.icon, now, now)
				if err != nil {
					return fmt.Errorf("failed to seed category %s: %w", c.name, err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
