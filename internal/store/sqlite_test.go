package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/techdocs/internal/apperr"
)

func testSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "store.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func decode(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return m
}

func TestSQLite_InsertAssignsIDAndTimestamps(t *testing.T) {
	s := testSQLite(t)
	ctx := context.Background()

	raw, err := s.Insert(ctx, "documents", map[string]any{"title": "A", "tags": []string{"x"}})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	m := decode(t, raw)
	if id, _ := m["id"].(string); len(id) != 36 {
		t.Errorf("id = %v, want uuid", m["id"])
	}
	if m["created_at"] == nil || m["created_at"] != m["updated_at"] {
		t.Errorf("timestamps = %v / %v", m["created_at"], m["updated_at"])
	}
}

func TestSQLite_ListFilterOrderLimit(t *testing.T) {
	s := testSQLite(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"first", "second", "third"} {
		ts := base.Add(time.Duration(i) * time.Hour)
		s.now = func() time.Time { return ts }
		cat := "A"
		if title == "second" {
			cat = "B"
		}
		if _, err := s.Insert(ctx, "documents", map[string]any{"title": title, "category": cat}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.Insert(ctx, "articles", map[string]any{"title": "other"}); err != nil {
		t.Fatal(err)
	}

	rows, err := s.List(ctx, "documents", Query{Order: "updated_at.desc"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 3 || decode(t, rows[0])["title"] != "third" || decode(t, rows[2])["title"] != "first" {
		t.Errorf("order wrong: %s", rows)
	}

	rows, _ = s.List(ctx, "documents", Query{Eq: map[string]string{"category": "A"}, Limit: 1, Order: "updated_at.asc"})
	if len(rows) != 1 || decode(t, rows[0])["title"] != "first" {
		t.Errorf("filter/limit wrong: %s", rows)
	}

	rows, _ = s.List(ctx, "documents", Query{Select: "title", Eq: map[string]string{"category": "B"}})
	if len(rows) != 1 || string(rows[0]) != `{"title":"second"}` {
		t.Errorf("projection wrong: %s", rows)
	}
}

func TestSQLite_UpdateMergesPatch(t *testing.T) {
	s := testSQLite(t)
	ctx := context.Background()
	s.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	raw, _ := s.Insert(ctx, "documents", map[string]any{"title": "A", "content": "c"})
	id := decode(t, raw)["id"].(string)

	s.now = func() time.Time { return time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC) }
	raw, err := s.Update(ctx, "documents", id, map[string]any{"title": "B", "id": "hijack"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	m := decode(t, raw)
	if m["title"] != "B" || m["content"] != "c" || m["id"] != id {
		t.Errorf("merged = %v", m)
	}
	if m["updated_at"] == m["created_at"] {
		t.Error("updated_at should be refreshed")
	}

	if _, err := s.Update(ctx, "documents", "missing", map[string]any{"title": "x"}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing update err = %v", err)
	}
}

func TestSQLite_Delete(t *testing.T) {
	s := testSQLite(t)
	ctx := context.Background()
	raw, _ := s.Insert(ctx, "documents", map[string]any{"title": "A"})
	id := decode(t, raw)["id"].(string)

	if err := s.Delete(ctx, "documents", id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	rows, _ := s.List(ctx, "documents", Query{})
	if len(rows) != 0 {
		t.Errorf("rows after delete = %d", len(rows))
	}
	if err := s.Delete(ctx, "documents", id); err != nil {
		t.Errorf("second delete should be a no-op, got %v", err)
	}
}

func TestSQLite_InsertDuplicateID(t *testing.T) {
	s := testSQLite(t)
	ctx := context.Background()
	if _, err := s.Insert(ctx, "documents", map[string]any{"id": "fixed", "title": "A"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Insert(ctx, "documents", map[string]any{"id": "fixed", "title": "B"}); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate err = %v", err)
	}
	if _, err := s.Insert(ctx, "documents", "not an object"); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("non-object err = %v", err)
	}
}
