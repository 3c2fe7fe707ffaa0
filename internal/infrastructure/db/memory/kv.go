// Package memory provides in-process implementations of the storage and
// notification ports. They back local development and tests.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/carelink/telemedicine/internal/core/ports"
)

// KV is a map guarded by a mutex. Update holds the lock while fn runs, so
// read-modify-write on one key is serialized.
type KV struct {
	mu   sync.Mutex
	data map[string]string
}

func NewKV() *KV {
	return &KV{data: make(map[string]string)}
}

func (k *KV) Get(_ context.Context, key string) (string, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	v, ok := k.data[key]
	return v, ok, nil
}

func (k *KV) Set(_ context.Context, key, value string) error {
	k.mu.Lock()
	k.data[key] = value
	k.mu.Unlock()
	return nil
}

func (k *KV) Delete(_ context.Context, key string) error {
	k.mu.Lock()
	delete(k.data, key)
	k.mu.Unlock()
	return nil
}

func (k *KV) Update(ctx context.Context, key string, fn ports.UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	cur, ok := k.data[key]
	next, err := fn(cur, ok)
	if errors.Is(err, ports.ErrSkipUpdate) {
		return nil
	}
	if err != nil {
		return err
	}
	k.data[key] = next
	return nil
}

func (k *KV) Ping(context.Context) error { return nil }

func (k *KV) Close(context.Context) error { return nil }
