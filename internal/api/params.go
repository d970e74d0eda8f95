package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Veraticus/finanzas/internal/model"
)

// query wraps URL values with typed accessors. The first parse failure is
// kept in err so handlers check once.
type query struct {
	values url.Values
	err    error
}

func newQuery(values url.Values) *query {
	return &query{values: values}
}

// str returns the first non-empty value among names.
func (q *query) str(names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(q.values.Get(name)); v != "" {
			return v
		}
	}
	return ""
}

func (q *query) fail(name, raw, want string) {
	if q.err == nil {
		q.err = fmt.Errorf("%w: query parameter %s=%q must be %s", errBadRequest, name, raw, want)
	}
}

func (q *query) boolean(name string) bool {
	v := q.optionalBool(name)
	return v != nil && *v
}

func (q *query) optionalBool(name string) *bool {
	raw := q.str(name)
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		q.fail(name, raw, "a boolean")
		return nil
	}
	return &b
}

func (q *query) integer(name string) int {
	raw := q.str(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		q.fail(name, raw, "a non-negative integer")
		return 0
	}
	return n
}

func (q *query) date(name string) *model.Date {
	raw := q.str(name)
	if raw == "" {
		return nil
	}
	d, err := model.ParseDate(raw)
	if err != nil {
		q.fail(name, raw, "a YYYY-MM-DD date")
		return nil
	}
	return &d
}
