package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/hpungsan/flowfocus/internal/errors"
)

// Row is one persisted collection.
type Row struct {
	Key       string
	Value     []byte
	UpdatedAt int64
}

// Get returns the stored value for key. found is false when the key was never written.
func Get(ctx context.Context, db *sql.DB, key string) (value []byte, found bool, err error) {
	var text string
	err = db.QueryRowContext(ctx, `SELECT value FROM collections WHERE key = ?`, key).Scan(&text)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewInternal(err)
	}
	return []byte(text), true, nil
}

// Put writes value under key, replacing any previous value.
func Put(ctx context.Context, db *sql.DB, key string, value []byte) error {
	query := `
		INSERT INTO collections (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := db.ExecContext(ctx, query, key, string(value), time.Now().UnixMilli()); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func Delete(ctx context.Context, db *sql.DB, key string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM collections WHERE key = ?`, key); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// List returns every stored collection ordered by key.
func List(ctx context.Context, db *sql.DB) ([]Row, error) {
	rows, err := db.QueryContext(ctx, `SELECT key, value, updated_at FROM collections ORDER BY key`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		var r Row
		var text string
		if err := rows.Scan(&r.Key, &text, &r.UpdatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		r.Value = []byte(text)
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return result, nil
}
