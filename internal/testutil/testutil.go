// Package testutil provides shared test helpers: stores, temp directories
// and polling.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/starford/techdocs/internal/apperr"
	"github.com/starford/techdocs/internal/storage"
	"github.com/starford/techdocs/internal/store"
)

// TestSQLite creates a temporary SQLite store that is automatically cleaned up.
func TestSQLite(t *testing.T) *store.SQLite {
	t.Helper()
	dbFile, err := os.CreateTemp("", "techdocs-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	s, err := store.OpenSQLite(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestDir creates a temporary directory with a storage.Provider.
func TestDir(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	fs, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, fs
}

// Logger returns a logger that discards everything below error.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// Eventually polls fn every tick until it returns true or timeout elapses.
func Eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

// FakeStore is an in-memory store.Store that counts calls. Setting Err makes
// every call fail with it.
type FakeStore struct {
	mu      sync.Mutex
	records map[string]map[string]json.RawMessage
	seq     int

	Err   error
	Calls map[string]int
}

var _ store.Store = (*FakeStore)(nil)

// NewFakeStore returns an empty fake store.
func NewFakeStore() *FakeStore {
	return &FakeStore{
		records: make(map[string]map[string]json.RawMessage),
		Calls:   make(map[string]int),
	}
}

// Count returns how many times op was called.
func (f *FakeStore) Count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[op]
}

// SetErr makes subsequent calls fail with err (nil clears it).
func (f *FakeStore) SetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Err = err
}

// Seed stores raw records as-is, keyed by their id field.
func (f *FakeStore) Seed(collection string, raws ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, raw := range raws {
		var rec struct {
			ID any `json:"id"`
		}
		_ = json.Unmarshal([]byte(raw), &rec)
		key := fmt.Sprint(rec.ID)
		if rec.ID == nil {
			key = "seed-" + strconv.Itoa(i)
		}
		f.coll(collection)[key] = json.RawMessage(raw)
	}
}

func (f *FakeStore) coll(name string) map[string]json.RawMessage {
	c, ok := f.records[name]
	if !ok {
		c = make(map[string]json.RawMessage)
		f.records[name] = c
	}
	return c
}

// List implements store.Store. Only the id filter and updated_at ordering are
// honoured.
func (f *FakeStore) List(_ context.Context, collection string, q store.Query) ([]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["list"]++
	if f.Err != nil {
		return nil, f.Err
	}
	var out []json.RawMessage
	for id, raw := range f.coll(collection) {
		if want, ok := q.Eq["id"]; ok && want != id {
			continue
		}
		out = append(out, raw)
	}
	sort.Slice(out, func(i, j int) bool {
		return updatedAt(out[i]) > updatedAt(out[j])
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// Insert implements store.Store.
func (f *FakeStore) Insert(_ context.Context, collection string, record any) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["insert"]++
	if f.Err != nil {
		return nil, f.Err
	}
	m, err := asMap(record)
	if err != nil {
		return nil, err
	}
	f.seq++
	id := "doc-" + strconv.Itoa(f.seq)
	m["id"] = id
	raw, _ := json.Marshal(m)
	f.coll(collection)[id] = raw
	return raw, nil
}

// Update implements store.Store.
func (f *FakeStore) Update(_ context.Context, collection, id string, patch any) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["update"]++
	if f.Err != nil {
		return nil, f.Err
	}
	cur, ok := f.coll(collection)[id]
	if !ok {
		return nil, fmt.Errorf("fake: update %s: %w", id, apperr.ErrNotFound)
	}
	m, _ := asMap(cur)
	p, err := asMap(patch)
	if err != nil {
		return nil, err
	}
	for k, v := range p {
		m[k] = v
	}
	m["id"] = id
	raw, _ := json.Marshal(m)
	f.coll(collection)[id] = raw
	return raw, nil
}

// Delete implements store.Store.
func (f *FakeStore) Delete(_ context.Context, collection, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls["delete"]++
	if f.Err != nil {
		return f.Err
	}
	delete(f.coll(collection), id)
	return nil
}

func asMap(v any) (map[string]any, error) {
	b, ok := v.(json.RawMessage)
	if !ok {
		var err error
		if b, err = json.Marshal(v); err != nil {
			return nil, err
		}
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func updatedAt(raw json.RawMessage) string {
	var rec struct {
		UpdatedAt string `json:"updated_at"`
	}
	_ = json.Unmarshal(raw, &rec)
	return rec.UpdatedAt
}
