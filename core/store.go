package core

import (
	"context"

	"github.com/pkg/errors"
)

// ErrKeyNotFound is returned by KeyValueStore.Get when a key has never been set.
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore is an opaque persistence API for values keyed by string.
// Writes are last-write-wins; implementations make no cross-writer guarantees.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}
