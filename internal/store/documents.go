// internal/store/documents.go
//
// Path-addressed document store on SQLite (table `documents`), the server's
// stand-in for the per-user remote document.
//   - Get: body at a path, or ErrNotFound.
//   - Set: full overwrite via INSERT ... ON CONFLICT DO UPDATE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrNotFound is returned when a document or blob does not exist.
var ErrNotFound = errors.New("not found")

// Documents is a path-addressed JSON document store backed by SQLite.
// Writes overwrite the whole document; there is no versioning.
type Documents struct{ db *sql.DB }

// NewDocuments wraps an opened, migrated database.
func NewDocuments(db *sql.DB) *Documents { return &Documents{db: db} }

// Get returns the body at path or ErrNotFound.
func (d *Documents) Get(ctx context.Context, path string) ([]byte, error) {
	var body string
	err := d.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE path=?`, path).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(body), nil
}

// Set writes body at path, replacing any previous document.
func (d *Documents) Set(ctx context.Context, path string, body []byte) error {
	_, err := d.db.ExecContext(ctx, `
        INSERT INTO documents (path, body, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(path) DO UPDATE SET body=excluded.body, updated_at=excluded.updated_at`,
		path, string(body), time.Now().UTC().Format(time.RFC3339),
	)
	return err
}
