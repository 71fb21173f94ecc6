package store

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/starford/techdocs/internal/apperr"
)

type captured struct {
	method string
	path   string
	query  map[string][]string
	header http.Header
	body   string
}

func restServer(t *testing.T, status int, reply string) (*PostgREST, *captured) {
	t.Helper()
	c := &captured{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		c.method = r.Method
		c.path = r.URL.Path
		c.query = r.URL.Query()
		c.header = r.Header.Clone()
		c.body = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return NewPostgREST(srv.URL+"/", "secret-key", 0), c
}

func TestPostgREST_List(t *testing.T) {
	client, c := restServer(t, http.StatusOK, `[{"id":"1"},{"id":"2"}]`)
	rows, err := client.List(context.Background(), "documents", Query{
		Select: "id, title",
		Eq:     map[string]string{"category": "Guides"},
		Order:  "updated_at.desc",
		Limit:  10,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if c.method != http.MethodGet || c.path != "/rest/v1/documents" {
		t.Errorf("request = %s %s", c.method, c.path)
	}
	want := map[string]string{
		"select":   "id,title",
		"category": "eq.Guides",
		"order":    "updated_at.desc",
		"limit":    "10",
	}
	for k, v := range want {
		if got := c.query[k]; len(got) != 1 || got[0] != v {
			t.Errorf("query %s = %v, want %q", k, got, v)
		}
	}
	if c.header.Get("apikey") != "secret-key" || c.header.Get("Authorization") != "Bearer secret-key" {
		t.Errorf("auth headers = %v", c.header)
	}
	if c.header.Get("Prefer") != "" {
		t.Errorf("GET should not send Prefer, got %q", c.header.Get("Prefer"))
	}
}

func TestPostgREST_Insert(t *testing.T) {
	client, c := restServer(t, http.StatusCreated, `[{"id":"new","title":"T"}]`)
	rec, err := client.Insert(context.Background(), "documents", map[string]any{"title": "T"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if string(rec) != `{"id":"new","title":"T"}` {
		t.Errorf("record = %s", rec)
	}
	if c.method != http.MethodPost || c.header.Get("Prefer") != "return=representation" {
		t.Errorf("method=%s prefer=%q", c.method, c.header.Get("Prefer"))
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(c.body), &body); err != nil || body["title"] != "T" {
		t.Errorf("body = %s", c.body)
	}
}

func TestPostgREST_UpdateAndDelete(t *testing.T) {
	client, c := restServer(t, http.StatusOK, `[{"id":"7","title":"U"}]`)
	if _, err := client.Update(context.Background(), "documents", "7", map[string]any{"title": "U"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if c.method != http.MethodPatch || c.query["id"][0] != "eq.7" {
		t.Errorf("update request = %s %v", c.method, c.query)
	}

	if err := client.Delete(context.Background(), "documents", "7"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if c.method != http.MethodDelete || c.query["id"][0] != "eq.7" {
		t.Errorf("delete request = %s %v", c.method, c.query)
	}
}

func TestPostgREST_UpdateMissing(t *testing.T) {
	client, _ := restServer(t, http.StatusOK, `[]`)
	_, err := client.Update(context.Background(), "documents", "nope", map[string]any{"title": "x"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPostgREST_StatusError(t *testing.T) {
	client, _ := restServer(t, http.StatusConflict, `{"message":"duplicate key"}`)
	_, err := client.Insert(context.Background(), "documents", map[string]any{"title": "x"})

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %T %v, want *StatusError", err, err)
	}
	if se.StatusCode != http.StatusConflict || se.Body != "duplicate key" {
		t.Errorf("StatusError = %+v", se)
	}
	if !errors.Is(err, apperr.ErrConflict) {
		t.Error("409 should unwrap to ErrConflict")
	}
}

func TestPostgREST_RejectsBadInput(t *testing.T) {
	client, c := restServer(t, http.StatusOK, `[]`)
	if _, err := client.List(context.Background(), "docs;drop", Query{}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("bad collection err = %v", err)
	}
	if _, err := client.List(context.Background(), "documents", Query{Order: "title sideways"}); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("bad order err = %v", err)
	}
	if c.method != "" {
		t.Error("invalid queries must not reach the server")
	}
}
