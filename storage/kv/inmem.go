// Package kv provides the KeyValueStore backends the progress tracker
// persists to: an in-memory map, Badger and Redis.
package kv

import (
	"context"
	"sync"

	"github.com/kayembe/elimu/core"
)

type inMemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewInMemStore() core.KeyValueStore {
	return &inMemStore{data: make(map[string][]byte)}
}

func (s *inMemStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[key]
	if !ok {
		return nil, core.ErrKeyNotFound
	}
	cp := make([]byte, len(val))
	copy(cp, val)
	return cp, nil
}

func (s *inMemStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]byte, len(value))
	copy(cp, value)
	s.data[key] = cp
	return nil
}

func (s *inMemStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *inMemStore) Close() error { return nil }
