package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Veraticus/finanzas/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{common.Invalid("amount", "must not be zero"), http.StatusUnprocessableEntity},
		{fmt.Errorf("wrapped: %w", common.ErrInsufficientFunds), http.StatusUnprocessableEntity},
		{common.NotFound("account", "x"), http.StatusNotFound},
		{common.Conflict("in use"), http.StatusConflict},
		{fmt.Errorf("%w: name", common.ErrDuplicateEntry), http.StatusConflict},
		{fmt.Errorf("%w: bad json", errBadRequest), http.StatusBadRequest},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusForError(tt.err))
		})
	}
}

func TestRespondWithServiceErrorHidesInternals(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)

	respondWithServiceError(rec, req, errors.New("sqlite: disk I/O error"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestQueryParsing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x?from=2024-06-01&limit=5&overdue=true&account=abc", nil)
	q := newQuery(req.URL.Query())

	require.NotNil(t, q.date("from"))
	assert.Equal(t, "2024-06-01", q.date("from").String())
	assert.Nil(t, q.date("to"))
	assert.Equal(t, 5, q.integer("limit"))
	assert.True(t, *q.optionalBool("overdue"))
	assert.Nil(t, q.optionalBool("recurring"))
	assert.Equal(t, "abc", q.str("account_id", "account"))
	assert.NoError(t, q.err)

	bad := newQuery(httptest.NewRequest(http.MethodGet, "/x?limit=-1&from=June", nil).URL.Query())
	bad.integer("limit")
	bad.date("from")
	require.Error(t, bad.err)
	assert.ErrorIs(t, bad.err, errBadRequest)
	assert.Contains(t, bad.err.Error(), "limit")
}
