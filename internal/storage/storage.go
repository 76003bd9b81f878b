// Package storage defines the durable key-value boundary behind which
// session state (cart, discount flag, quote cache, order history) is
// persisted as independent JSON blobs.
package storage

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned by Get when no value exists for the key. Callers
// substitute safe empty defaults instead of failing.
var ErrNotFound = errors.New("key not found")

// KV is a session-scoped string-keyed blob store. Implementations must keep
// blobs for different (sessionID, key) pairs fully independent.
type KV interface {
	Get(ctx context.Context, sessionID, key string) ([]byte, error)
	Set(ctx context.Context, sessionID, key string, value []byte) error
	Delete(ctx context.Context, sessionID, key string) error
}
