package ports

import (
	"context"
	"errors"
)

// ErrSkipUpdate may be returned by an UpdateFunc to leave the key untouched.
// Update then returns nil.
var ErrSkipUpdate = errors.New("kv: skip update")

// UpdateFunc receives the current value (exists is false when the key is
// absent) and returns the value to store. It may run more than once when the
// backend retries after a concurrent write.
type UpdateFunc func(current string, exists bool) (string, error)

// KeyValueStore is a string-to-string store with atomic per-key
// read-modify-write. It is the only persistence the record store needs.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, exists bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
