package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/starford/techdocs/internal/apperr"
)

// PostgREST talks to a hosted PostgREST endpoint (such as Supabase) under
// {baseURL}/rest/v1. The API key is sent as both apikey and bearer token on
// every request.
type PostgREST struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ Store = (*PostgREST)(nil)

// NewPostgREST creates a client. A zero timeout means 30 seconds.
func NewPostgREST(baseURL, apiKey string, timeout time.Duration) *PostgREST {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &PostgREST{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// List implements Store.
func (c *PostgREST) List(ctx context.Context, collection string, q Query) ([]json.RawMessage, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	params := url.Values{}
	if f := q.fields(); f != nil {
		params.Set("select", strings.Join(f, ","))
	} else {
		params.Set("select", "*")
	}
	for k, v := range q.Eq {
		params.Set(k, "eq."+v)
	}
	if q.Order != "" {
		params.Set("order", q.Order)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	var rows []json.RawMessage
	if err := c.do(ctx, "list", http.MethodGet, collection, params, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Insert implements Store.
func (c *PostgREST) Insert(ctx context.Context, collection string, record any) (json.RawMessage, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	var rows []json.RawMessage
	if err := c.do(ctx, "insert", http.MethodPost, collection, nil, record, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("store: insert: empty representation")
	}
	return rows[0], nil
}

// Update implements Store. Updating an id that matches no row returns
// apperr.ErrNotFound.
func (c *PostgREST) Update(ctx context.Context, collection, id string, patch any) (json.RawMessage, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	params := url.Values{"id": {"eq." + id}}
	var rows []json.RawMessage
	if err := c.do(ctx, "update", http.MethodPatch, collection, params, patch, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("store: update %s: %w", id, apperr.ErrNotFound)
	}
	return rows[0], nil
}

// Delete implements Store.
func (c *PostgREST) Delete(ctx context.Context, collection, id string) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	params := url.Values{"id": {"eq." + id}}
	return c.do(ctx, "delete", http.MethodDelete, collection, params, nil, nil)
}

func (c *PostgREST) do(ctx context.Context, op, method, collection string, params url.Values, body any, out any) error {
	endpoint := c.baseURL + "/rest/v1/" + collection
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("store: %s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("store: %s: create request: %w", op, err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if method == http.MethodPost || method == http.MethodPatch {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("store: %s: do request: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("store: %s: read response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Body: errorMessage(data)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("store: %s: unmarshal response: %w", op, err)
	}
	return nil
}

// errorMessage extracts the message field of a PostgREST error body.
func errorMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &e) == nil && e.Message != "" {
		return e.Message
	}
	return string(body)
}
