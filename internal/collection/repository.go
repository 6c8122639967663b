package collection

import (
	"context"
	"errors"
)

// ErrNotFound is returned by repositories when nothing is stored under a key.
var ErrNotFound = errors.New("collection: key not found")

// Repository persists whole collections as opaque payloads under namespaced
// keys. Implementations live in internal/store.
type Repository interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, payload []byte) error
}

// Notifier is told about every key that was written so other processes can
// drop their cached copy.
type Notifier interface {
	Bump(ctx context.Context, key string) error
}

// Observer receives mutation counters.
type Observer interface {
	ObserveMutation(key, op string)
	ObserveRollback(key string)
}
