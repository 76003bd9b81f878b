// Package memstore provides an in-memory storage.KV for tests and for
// running the server without external dependencies.
package memstore

import (
	"context"
	"sync"

	"github.com/bazarshop/bazar-api/internal/storage"
)

var _ storage.KV = (*Store)(nil)

// Store is a concurrency-safe in-memory key-value store.
type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// New returns an empty Store.
func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, sessionID, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.blobs[sessionID+"\x00"+key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *Store) Set(_ context.Context, sessionID, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	s.blobs[sessionID+"\x00"+key] = v
	return nil
}

func (s *Store) Delete(_ context.Context, sessionID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blobs, sessionID+"\x00"+key)
	return nil
}

// Ping always succeeds; it exists so the store satisfies the same health
// check surface as the durable implementations.
func (s *Store) Ping(context.Context) error {
	return nil
}
