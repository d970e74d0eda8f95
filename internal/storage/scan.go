package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/finanzas/internal/common"
	"github.com/Veraticus/finanzas/internal/model"
)

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullableDate(nd sql.Null[model.Date]) *model.Date {
	if !nd.Valid {
		return nil
	}
	d := nd.V
	return &d
}

func now() time.Time {
	return time.Now().UTC()
}

// notFoundOr turns sql.ErrNoRows into a typed not-found error.
func notFoundOr(err error, kind, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.NotFound(kind, id)
	}
	return fmt.Errorf("failed to query %s: %w", kind, err)
}

// requireAffected reports a not-found error when a write touched no rows.
func requireAffected(result sql.Result, kind, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return common.NotFound(kind, id)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
