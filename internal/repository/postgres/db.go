package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/citypulse/internal/repository"
)

const maxAttempts = 3

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// KV keeps durable values in a single key/value table.
type KV struct {
	db DB
}

func NewKV(pool *pgxpool.Pool) *KV {
	return &KV{db: pool}
}

// EnsureSchema creates the key/value table when it does not exist yet.
func (kv *KV) EnsureSchema(ctx context.Context) error {
	const op = "postgres.KV.EnsureSchema"

	_, err := kv.db.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS kv_store (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return nil
}

// Get returns the value stored under key.
//
// Returns:
//   - string: the stored value.
//   - bool: false when the key is absent.
//   - error: any database failure.
func (kv *KV) Get(ctx context.Context, key string) (string, bool, error) {
	const op = "postgres.KV.Get"

	var value string
	err := kv.db.QueryRow(ctx,
		`SELECT value FROM kv_store WHERE key = $1`,
		key,
	).Scan(&value)
	if err != nil {
		err = translateDBErr(err)
		if errors.Is(err, repository.ErrNotFound) {
			return "", false, nil
		}

		return "", false, fmt.Errorf("%s: %w", op, err)
	}

	return value, true, nil
}

// Set upserts key. Serialization failures are retried a few times.
func (kv *KV) Set(ctx context.Context, key, value string) error {
	const op = "postgres.KV.Set"

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		_, err = kv.db.Exec(ctx,
			`INSERT INTO kv_store (key, value, updated_at)
			 VALUES ($1, $2, now())
			 ON CONFLICT (key) DO UPDATE
			 SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
			key, value,
		)
		if err == nil || !IsRetryable(err) {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return nil
}

func (kv *KV) Delete(ctx context.Context, key string) error {
	const op = "postgres.KV.Delete"

	if _, err := kv.db.Exec(ctx, `DELETE FROM kv_store WHERE key = $1`, key); err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return nil
}
