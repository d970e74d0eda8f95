package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRecord ensures a record pointer is set and carries an id.
func validateRecord(ctx context.Context, present bool, id, kind string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if !present {
		return fmt.Errorf("%w: %s", ErrNilParameter, kind)
	}
	return validateString(id, kind+".id")
}
