package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/techdocs/internal/apperr"
	"github.com/starford/techdocs/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS records (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       TEXT NOT NULL,
	PRIMARY KEY (collection, id)
);
`

// SQLite is a local development backend with the same contract as the hosted
// store. Records are JSON objects; the store assigns a UUID id and the
// created_at/updated_at timestamps when the caller does not.
type SQLite struct {
	conn *sql.DB
	now  func() time.Time
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (or creates) the database file and applies the schema.
func OpenSQLite(dsn string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &SQLite{conn: conn, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}

// List implements Store.
func (s *SQLite) List(ctx context.Context, collection string, q Query) ([]json.RawMessage, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	// Field names are validated identifiers, safe to splice into JSON paths.
	query := `SELECT data FROM records WHERE collection = ?`
	args := []any{collection}
	for k, v := range q.Eq {
		query += ` AND CAST(json_extract(data, '$.` + k + `') AS TEXT) = ?`
		args = append(args, v)
	}
	if q.Order != "" {
		field, dir, _ := strings.Cut(q.Order, ".")
		query += ` ORDER BY json_extract(data, '$.` + field + `') ` + strings.ToUpper(dir)
	}
	if q.Limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(q.Limit)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	fields := q.fields()
	var out []json.RawMessage
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("store: list scan: %w", err)
		}
		rec, err := project(data, fields)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Insert implements Store.
func (s *SQLite) Insert(ctx context.Context, collection string, record any) (json.RawMessage, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	m, err := toMap(record)
	if err != nil {
		return nil, err
	}
	id, _ := m["id"].(string)
	if id == "" {
		id = uuid.NewString()
	}
	ts := s.now().UTC().Format(models.TimeLayout)
	m["id"] = id
	if _, ok := m["created_at"]; !ok {
		m["created_at"] = ts
	}
	if _, ok := m["updated_at"]; !ok {
		m["updated_at"] = ts
	}

	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("store: insert: %w", err)
	}
	_, err = s.conn.ExecContext(ctx, `INSERT INTO records (collection, id, data) VALUES (?, ?, ?)`,
		collection, id, string(data))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, fmt.Errorf("store: insert %s: %w", id, apperr.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("store: insert: %w", err)
	}
	return data, nil
}

// Update implements Store. The patch is merged key by key over the stored
// record; id cannot be changed.
func (s *SQLite) Update(ctx context.Context, collection, id string, patch any) (json.RawMessage, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	p, err := toMap(patch)
	if err != nil {
		return nil, err
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var data string
	err = tx.QueryRowContext(ctx, `SELECT data FROM records WHERE collection = ? AND id = ?`, collection, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: update %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: update: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("store: update: decode stored record: %w", err)
	}
	for k, v := range p {
		if k == "id" {
			continue
		}
		m[k] = v
	}
	if _, ok := p["updated_at"]; !ok {
		m["updated_at"] = s.now().UTC().Format(models.TimeLayout)
	}

	merged, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("store: update: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE records SET data = ? WHERE collection = ? AND id = ?`,
		string(merged), collection, id); err != nil {
		return nil, fmt.Errorf("store: update: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: update commit: %w", err)
	}
	return merged, nil
}

// Delete implements Store. Deleting a missing id is not an error.
func (s *SQLite) Delete(ctx context.Context, collection, id string) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM records WHERE collection = ? AND id = ?`, collection, id); err != nil {
		return fmt.Errorf("store: delete: %w", err)
	}
	return nil
}

// project keeps only the selected fields of a stored record.
func project(data string, fields []string) (json.RawMessage, error) {
	if fields == nil {
		return json.RawMessage(data), nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("store: decode stored record: %w", err)
	}
	out := make(map[string]json.RawMessage, len(fields))
	for _, f := range fields {
		if v, ok := m[f]; ok {
			out[f] = v
		}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("store: encode projection: %w", err)
	}
	return b, nil
}
