// Package storage persists the conversation list and scalar settings in a
// durable key-value store backed by sqlite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/sqlscan"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// DB is a string-keyed, string-valued durable store: the terminal
// equivalent of the browser's localStorage.
type DB struct {
	path string
	db   *sql.DB
}

// Open opens (creating if necessary) the kv database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize kv schema: %w", err)
	}
	return &DB{path: path, db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

type kvRow struct {
	Key   string `db:"key"`
	Value string `db:"value"`
}

// Get returns the value stored under key and whether it was present.
func (d *DB) Get(ctx context.Context, key string) (string, bool, error) {
	var row kvRow
	err := sqlscan.Get(ctx, d.db, &row, `SELECT key, value FROM kv WHERE key = ?`, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return row.Value, true, nil
}

// Set stores value under key, replacing any previous value.
func (d *DB) Set(ctx context.Context, key, value string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// Delete removes key. Deleting an absent key is not an error.
func (d *DB) Delete(ctx context.Context, key string) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

// All returns every stored key/value pair.
func (d *DB) All(ctx context.Context) (map[string]string, error) {
	var rows []kvRow
	if err := sqlscan.Select(ctx, d.db, &rows, `SELECT key, value FROM kv`); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}
