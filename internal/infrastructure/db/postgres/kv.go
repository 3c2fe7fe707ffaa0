package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carelink/telemedicine/internal/core/domain"
	"github.com/carelink/telemedicine/internal/core/ports"
)

const maxInsertRetries = 8

// KV keeps persisted keys as rows of kv_store. Update locks the row with
// SELECT ... FOR UPDATE inside a transaction.
type KV struct {
	pool *pgxpool.Pool
}

func NewKV(pool *pgxpool.Pool) *KV {
	return &KV{pool: pool}
}

func (k *KV) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := k.pool.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("postgres get %s: %w", key, err)
	}
	return v, true, nil
}

func (k *KV) Set(ctx context.Context, key, value string) error {
	_, err := k.pool.Exec(ctx,
		`INSERT INTO kv_store (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("postgres set %s: %w", key, err)
	}
	return nil
}

func (k *KV) Delete(ctx context.Context, key string) error {
	if _, err := k.pool.Exec(ctx, `DELETE FROM kv_store WHERE key = $1`, key); err != nil {
		return fmt.Errorf("postgres delete %s: %w", key, err)
	}
	return nil
}

func (k *KV) Update(ctx context.Context, key string, fn ports.UpdateFunc) error {
	for attempt := 0; attempt < maxInsertRetries; attempt++ {
		retry, err := k.updateOnce(ctx, key, fn)
		if err != nil || !retry {
			return err
		}
	}
	return fmt.Errorf("postgres update %s: %w", key, domain.ErrStoreConflict)
}

// updateOnce reports retry=true when the row did not exist and a concurrent
// transaction inserted it first.
func (k *KV) updateOnce(ctx context.Context, key string, fn ports.UpdateFunc) (retry bool, err error) {
	tx, err := k.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("postgres begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var cur string
	exists := true
	err = tx.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1 FOR UPDATE`, key).Scan(&cur)
	if errors.Is(err, pgx.ErrNoRows) {
		exists, err = false, nil
	}
	if err != nil {
		return false, fmt.Errorf("postgres lock %s: %w", key, err)
	}

	next, err := fn(cur, exists)
	if errors.Is(err, ports.ErrSkipUpdate) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if exists {
		_, err = tx.Exec(ctx, `UPDATE kv_store SET value = $2, updated_at = now() WHERE key = $1`, key, next)
		if err != nil {
			return false, fmt.Errorf("postgres update %s: %w", key, err)
		}
	} else {
		tag, err := tx.Exec(ctx, `INSERT INTO kv_store (key, value) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`, key, next)
		if err != nil {
			return false, fmt.Errorf("postgres insert %s: %w", key, err)
		}
		if tag.RowsAffected() == 0 {
			return true, nil
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("postgres commit: %w", err)
	}
	return false, nil
}

func (k *KV) Ping(ctx context.Context) error {
	return k.pool.Ping(ctx)
}

func (k *KV) Close(context.Context) error {
	k.pool.Close()
	return nil
}
