// Package store is the document store adapter: list, insert, update and
// delete of JSON records in named collections.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/techdocs/internal/apperr"
)

// Store is the persistence contract consumed by techdocs. Implementations
// perform no retries and no conflict detection; the last write wins.
type Store interface {
	List(ctx context.Context, collection string, q Query) ([]json.RawMessage, error)
	Insert(ctx context.Context, collection string, record any) (json.RawMessage, error)
	Update(ctx context.Context, collection, id string, patch any) (json.RawMessage, error)
	Delete(ctx context.Context, collection, id string) error
}

var (
	identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	orderRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\.(asc|desc)$`)
)

// Query narrows a List call. Eq holds field=value equality filters, Order a
// single "field.asc" or "field.desc" sort and Limit a row cap (0 = none).
type Query struct {
	Select string
	Eq     map[string]string
	Order  string
	Limit  int
}

// Validate checks the query is expressible by every backend.
func (q Query) Validate() error {
	err := validation.ValidateStruct(&q,
		validation.Field(&q.Order, validation.Match(orderRe).Error("must be field.asc or field.desc")),
		validation.Field(&q.Limit, validation.Min(0)),
	)
	if err != nil {
		return fmt.Errorf("%w: %s", apperr.ErrValidation, err.Error())
	}
	for field := range q.Eq {
		if !identRe.MatchString(field) {
			return fmt.Errorf("%w: filter field %q", apperr.ErrValidation, field)
		}
	}
	for _, f := range q.fields() {
		if f != "*" && !identRe.MatchString(f) {
			return fmt.Errorf("%w: select field %q", apperr.ErrValidation, f)
		}
	}
	return nil
}

// fields returns the selected column names, nil meaning all.
func (q Query) fields() []string {
	s := strings.TrimSpace(q.Select)
	if s == "" || s == "*" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("store: %s: status %d: %s", e.Op, e.StatusCode, msg)
}

// Unwrap maps well-known statuses onto apperr sentinels.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return apperr.ErrNotFound
	case http.StatusConflict:
		return apperr.ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperr.ErrValidation
	}
	return nil
}

func checkCollection(name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("%w: collection %q", apperr.ErrValidation, name)
	}
	return nil
}

// toMap converts a record value to a JSON object map.
func toMap(v any) (map[string]any, error) {
	var raw []byte
	switch t := v.(type) {
	case json.RawMessage:
		raw = t
	case []byte:
		raw = t
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("store: encode record: %w", err)
		}
		raw = b
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return nil, fmt.Errorf("%w: record must be a JSON object", apperr.ErrValidation)
	}
	return m, nil
}
