package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/carelink/telemedicine/internal/core/domain"
	"github.com/carelink/telemedicine/internal/core/ports"
)

const maxTxRetries = 16

// KV stores each persisted key as a plain Redis string. Update uses
// WATCH/MULTI and retries when another client wrote the key in between.
type KV struct {
	client *redis.Client
}

func NewKV(client *redis.Client) *KV {
	return &KV{client: client}
}

func (k *KV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := k.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (k *KV) Set(ctx context.Context, key, value string) error {
	if err := k.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (k *KV) Delete(ctx context.Context, key string) error {
	if err := k.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (k *KV) Update(ctx context.Context, key string, fn ports.UpdateFunc) error {
	txf := func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Result()
		exists := true
		if errors.Is(err, redis.Nil) {
			exists, err = false, nil
		}
		if err != nil {
			return err
		}

		next, err := fn(cur, exists)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := k.client.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ports.ErrSkipUpdate):
			return nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		default:
			return err
		}
	}
	return fmt.Errorf("redis update %s: %w", key, domain.ErrStoreConflict)
}

func (k *KV) Ping(ctx context.Context) error {
	return k.client.Ping(ctx).Err()
}

func (k *KV) Close(context.Context) error {
	return k.client.Close()
}
