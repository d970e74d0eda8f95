package common

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("create account: %w", Invalid("name", "must be at least %d characters", 2))

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "create account: name: must be at least 2 characters", err.Error())

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)
}

func TestNotFoundAndConflict(t *testing.T) {
	assert.ErrorIs(t, NotFound("account", "abc"), ErrNotFound)
	assert.Contains(t, NotFound("account", "abc").Error(), `account "abc"`)
	assert.ErrorIs(t, Conflict("category %s in use", "Food"), ErrConflict)
}

func TestIsHexColor(t *testing.T) {
	tests := map[string]bool{
		"#fff":    true,
		"#10B981": true,
		"10B981":  false,
		"#12345":  false,
		"#GGGGGG": false,
	}
	for in, want := range tests {
		assert.Equal(t, want, IsHexColor(in), in)
	}
}

func TestWithRetry(t *testing.T) {
	busy := errors.New("database is locked")
	fast := RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return busy
			}
			return nil
		}, fast)
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on non retryable errors", func(t *testing.T) {
		opts := fast
		opts.Retryable = func(err error) bool { return errors.Is(err, busy) }
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return ErrValidation
		}, opts)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, 1, calls)
	})

	t.Run("wraps the last error when attempts run out", func(t *testing.T) {
		err := WithRetry(context.Background(), func() error { return busy }, fast)
		assert.ErrorIs(t, err, ErrMaxRetries)
		assert.ErrorIs(t, err, busy)
	})
}

func TestParseLevel(t *testing.T) {
	_, err := ParseLevel("loud")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	lvl, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", lvl.String())
}

func TestUserError(t *testing.T) {
	err := fmt.Errorf("import: %w", NewUserError("no files found to import", ErrNotFound))

	assert.ErrorIs(t, err, ErrNotFound)
	var userErr *UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, "no files found to import", userErr.UserMessage)
	assert.Equal(t, "no files found to import", (&UserError{UserMessage: "no files found to import"}).Error())
}

func TestNewLoggerFormats(t *testing.T) {
	_, err := NewLogger(&bytes.Buffer{}, slog.LevelInfo, "xml")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	var buf bytes.Buffer
	logger, err := NewLogger(&buf, slog.LevelInfo, "json")
	require.NoError(t, err)

	previous := slog.Default()
	slog.SetDefault(logger)
	t.Cleanup(func() { slog.SetDefault(previous) })

	LogDebug("hidden", Fields{"n": 1})
	LogError(ErrConflict, "write failed", Fields{"entity": "account"})

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "write failed", record["msg"])
	assert.Equal(t, "conflict", record["error"])
	assert.Equal(t, "account", record["entity"])
}
