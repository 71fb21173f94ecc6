package models

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/starford/techdocs/internal/apperr"
)

func TestNormalize_FullRecord(t *testing.T) {
	raw := []byte(`{"id":"d1","title":"Intro","content":"# Hi","category":"Guides",
		"tags":["go","api"],"format":"word",
		"created_at":"2024-03-01T10:00:00Z","updated_at":"2024-03-02T11:30:00.123456+00:00"}`)
	d, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if d.ID != "d1" || d.Title != "Intro" || d.Category != "Guides" {
		t.Errorf("unexpected doc: %+v", d)
	}
	if d.Format != FormatWord {
		t.Errorf("format = %q, want word", d.Format)
	}
	if len(d.Tags) != 2 || d.Tags[0] != "go" || d.Tags[1] != "api" {
		t.Errorf("tags = %v", d.Tags)
	}
	want := time.Date(2024, 3, 2, 11, 30, 0, 123456000, time.UTC)
	if !d.UpdatedAt.Equal(want) {
		t.Errorf("updated_at = %v, want %v", d.UpdatedAt, want)
	}
}

func TestNormalize_Defaults(t *testing.T) {
	raw := []byte(`{"id":42,"title":"T","content":"c","tags":"not-an-array","format":null}`)
	d, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if d.ID != "42" {
		t.Errorf("id = %q, want 42", d.ID)
	}
	if d.Tags == nil || len(d.Tags) != 0 {
		t.Errorf("tags = %#v, want empty slice", d.Tags)
	}
	if d.Category != DefaultCategory {
		t.Errorf("category = %q", d.Category)
	}
	if d.Format != FormatMarkdown {
		t.Errorf("format = %q", d.Format)
	}
}

func TestNormalize_Rejects(t *testing.T) {
	cases := map[string]string{
		"no id":    `{"title":"x"}`,
		"no title": `{"id":"1","title":"  "}`,
		"not json": `[1,2`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize([]byte(raw))
			if !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestDraftValidate(t *testing.T) {
	d := NewDraft()
	d.Content = "body"
	err := d.Validate()
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("empty title should fail, got %v", err)
	}
	if !strings.Contains(err.Error(), "title") {
		t.Errorf("error should name title: %v", err)
	}

	d.Title = "   "
	if err := d.Validate(); err == nil {
		t.Error("blank title should fail")
	}

	d.Title = "ok"
	if err := d.Validate(); err != nil {
		t.Errorf("valid draft failed: %v", err)
	}

	d.Content = ""
	if err := d.Validate(); err == nil {
		t.Error("empty content should fail")
	}
}

func TestDraftFields(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	d := Draft{Title: "T", Content: "C", Tags: []string{"a", " a ", "b", ""}, Format: FormatWord}

	f := d.Fields(now, true)
	if f["category"] != DefaultCategory {
		t.Errorf("category = %v", f["category"])
	}
	tags := f["tags"].([]string)
	if len(tags) != 2 || tags[0] != "a" || tags[1] != "b" {
		t.Errorf("tags = %v", tags)
	}
	if f["created_at"] != "2025-01-02T03:04:05.000000Z" {
		t.Errorf("created_at = %v", f["created_at"])
	}

	f = d.Fields(now, false)
	if _, ok := f["created_at"]; ok {
		t.Error("update fields must not carry created_at")
	}
}

func TestParseTags(t *testing.T) {
	got := ParseTags("go, api ,, go,docs")
	want := []string{"go", "api", "docs"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("ParseTags = %v, want %v", got, want)
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("WORD") != FormatWord {
		t.Error("WORD should parse as word")
	}
	if ParseFormat("rtf") != FormatMarkdown {
		t.Error("unknown format should default to markdown")
	}
}
