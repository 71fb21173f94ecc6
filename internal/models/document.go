// Package models defines the domain types for techdocs.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/techdocs/internal/apperr"
)

// Format says how a document's Content is interpreted.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatWord     Format = "word"
)

// TimeLayout is the fixed-width UTC timestamp format written to stores, so
// that stored values sort lexically in time order.
const TimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// DefaultCategory is assigned to documents saved without a category.
const DefaultCategory = "General"

// ParseFormat maps a stored or user-supplied value to a Format.
// Unknown and empty values fall back to markdown.
func ParseFormat(s string) Format {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatWord:
		return FormatWord
	default:
		return FormatMarkdown
	}
}

// Valid reports whether f is one of the known formats.
func (f Format) Valid() bool {
	return f == FormatMarkdown || f == FormatWord
}

// Document is a content record as held in memory.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Tags      []string  `json:"tags"`
	Format    Format    `json:"format"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Draft is the editing-form state of a document before it is saved.
type Draft struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Format   Format   `json:"format"`
}

// NewDraft returns the empty draft used by the create form.
func NewDraft() Draft {
	return Draft{Tags: []string{}, Format: FormatMarkdown}
}

// DraftOf copies a stored document into an editable draft.
func DraftOf(d Document) Draft {
	return Draft{
		Title:    d.Title,
		Content:  d.Content,
		Category: d.Category,
		Tags:     append([]string{}, d.Tags...),
		Format:   d.Format,
	}
}

// Validate checks that the draft can be saved. Title and content are required.
func (d Draft) Validate() error {
	err := validation.ValidateStruct(&d,
		validation.Field(&d.Title, validation.Required, validation.By(notBlank)),
		validation.Field(&d.Content, validation.Required),
		validation.Field(&d.Format, validation.Required, validation.In(FormatMarkdown, FormatWord)),
	)
	if err != nil {
		return fmt.Errorf("%w: %s", apperr.ErrValidation, err.Error())
	}
	return nil
}

func notBlank(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_blank", "cannot be blank")
	}
	return nil
}

// Fields returns the column set written to the store on save. created_at is
// only included when create is true.
func (d Draft) Fields(now time.Time, create bool) map[string]any {
	category := strings.TrimSpace(d.Category)
	if category == "" {
		category = DefaultCategory
	}
	out := map[string]any{
		"title":      d.Title,
		"content":    d.Content,
		"category":   category,
		"tags":       UniqueTags(d.Tags),
		"format":     string(ParseFormat(string(d.Format))),
		"updated_at": now.UTC().Format(TimeLayout),
	}
	if create {
		out["created_at"] = now.UTC().Format(TimeLayout)
	}
	return out
}

// ParseTags splits a comma-separated tag string.
func ParseTags(s string) []string {
	return UniqueTags(strings.Split(s, ","))
}

// UniqueTags trims tags, drops empties and duplicates, and keeps first-seen order.
func UniqueTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// record is the loosely-typed wire shape of a stored document.
type record struct {
	ID        json.RawMessage `json:"id"`
	Title     string          `json:"title"`
	Content   string          `json:"content"`
	Category  string          `json:"category"`
	Tags      json.RawMessage `json:"tags"`
	Format    string          `json:"format"`
	CreatedAt string          `json:"created_at"`
	UpdatedAt string          `json:"updated_at"`
}

// Normalize decodes one raw store record into a Document. Malformed optional
// fields are defaulted; a record without an id or title is rejected.
func Normalize(raw json.RawMessage) (Document, error) {
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return Document{}, fmt.Errorf("%w: decode record: %s", apperr.ErrValidation, err.Error())
	}
	id := rawID(r.ID)
	if id == "" {
		return Document{}, fmt.Errorf("%w: record has no id", apperr.ErrValidation)
	}
	if strings.TrimSpace(r.Title) == "" {
		return Document{}, fmt.Errorf("%w: record %s has no title", apperr.ErrValidation, id)
	}
	category := r.Category
	if strings.TrimSpace(category) == "" {
		category = DefaultCategory
	}
	return Document{
		ID:        id,
		Title:     r.Title,
		Content:   r.Content,
		Category:  category,
		Tags:      coerceTags(r.Tags),
		Format:    ParseFormat(r.Format),
		CreatedAt: parseTime(r.CreatedAt),
		UpdatedAt: parseTime(r.UpdatedAt),
	}, nil
}

// rawID accepts both string and numeric ids.
func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// coerceTags returns an empty slice for anything that is not a JSON array of strings.
func coerceTags(raw json.RawMessage) []string {
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{}
	}
	tags := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			tags = append(tags, s)
		}
	}
	return UniqueTags(tags)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
