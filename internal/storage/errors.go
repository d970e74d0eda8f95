package storage

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/finanzas/internal/common"

	"github.com/mattn/go-sqlite3"
)

// translateError maps SQLite constraint failures onto the application's
// error taxonomy so callers can react without knowing the driver.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code != sqlite3.ErrConstraint {
		return err
	}

	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return fmt.Errorf("%w: %v", common.ErrDuplicateEntry, err)
	case sqlite3.ErrConstraintForeignKey:
		return fmt.Errorf("%w: referenced record missing or still in use: %v", common.ErrConflict, err)
	case sqlite3.ErrConstraintCheck, sqlite3.ErrConstraintNotNull:
		slog.Debug("stored constraint rejected write", "error", sqliteErr.Error())
		return &common.ValidationError{Message: "value violates a stored constraint"}
	default:
		return err
	}
}
