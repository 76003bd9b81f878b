// Package redis implements the durable storage boundary on Redis. Each
// session's blobs live in one hash keyed by session id.
package redis

import (
	"context"

	"github.com/go-faster/errors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/bazarshop/bazar-api/internal/storage"
)

var _ storage.KV = (*KV)(nil)

// KV implements storage.KV backed by a Redis hash per session.
type KV struct {
	client *goredis.Client
}

// New returns a KV connected to the given Redis address.
func New(addr string) *KV {
	return &KV{
		client: goredis.NewClient(&goredis.Options{Addr: addr}),
	}
}

func hashKey(sessionID string) string {
	return "session:" + sessionID
}

func (s *KV) Get(ctx context.Context, sessionID, key string) ([]byte, error) {
	v, err := s.client.HGet(ctx, hashKey(sessionID), key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get blob %q", key)
	}
	return v, nil
}

func (s *KV) Set(ctx context.Context, sessionID, key string, value []byte) error {
	if err := s.client.HSet(ctx, hashKey(sessionID), key, value).Err(); err != nil {
		return errors.Wrapf(err, "set blob %q", key)
	}
	return nil
}

func (s *KV) Delete(ctx context.Context, sessionID, key string) error {
	if err := s.client.HDel(ctx, hashKey(sessionID), key).Err(); err != nil {
		return errors.Wrapf(err, "delete blob %q", key)
	}
	return nil
}

// Ping reports whether the Redis server is reachable.
func (s *KV) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying client connections.
func (s *KV) Close() error {
	return s.client.Close()
}
