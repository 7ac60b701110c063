package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// KV keeps durable values in a key/value table of the on-device database.
type KV struct {
	db *sql.DB
}

func NewKV(db *sql.DB) *KV {
	return &KV{db: db}
}

// EnsureSchema creates the key/value table when it does not exist yet.
func (kv *KV) EnsureSchema(ctx context.Context) error {
	const op = "sqlite.KV.EnsureSchema"

	_, err := kv.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kv_store (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (kv *KV) Get(ctx context.Context, key string) (string, bool, error) {
	const op = "sqlite.KV.Get"

	var value string
	err := kv.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}

	if err != nil {
		return "", false, fmt.Errorf("%s: %w", op, err)
	}

	return value, true, nil
}

func (kv *KV) Set(ctx context.Context, key, value string) error {
	const op = "sqlite.KV.Set"

	_, err := kv.db.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (kv *KV) Delete(ctx context.Context, key string) error {
	const op = "sqlite.KV.Delete"

	if _, err := kv.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
