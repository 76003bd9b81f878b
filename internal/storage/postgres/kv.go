package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bazarshop/bazar-api/internal/storage"
)

var _ storage.KV = (*KV)(nil)

// KV implements storage.KV on the session_kv table. Each blob is stored as
// JSONB keyed by (session_id, key).
type KV struct {
	pool *pgxpool.Pool
}

// NewKV returns a KV backed by the given pool.
func NewKV(pool *pgxpool.Pool) *KV {
	return &KV{pool: pool}
}

func (s *KV) Get(ctx context.Context, sessionID, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM session_kv WHERE session_id = $1 AND key = $2`,
		sessionID, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get blob %q", key)
	}
	return value, nil
}

func (s *KV) Set(ctx context.Context, sessionID, key string, value []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO session_kv (session_id, key, value, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (session_id, key)
		 DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		sessionID, key, value,
	)
	if err != nil {
		return errors.Wrapf(err, "set blob %q", key)
	}
	return nil
}

func (s *KV) Delete(ctx context.Context, sessionID, key string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM session_kv WHERE session_id = $1 AND key = $2`,
		sessionID, key,
	)
	if err != nil {
		return errors.Wrapf(err, "delete blob %q", key)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *KV) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
