// Package store implements the record store: typed JSON collections kept
// under fixed keys of a ports.KeyValueStore.
//
// Every read parses the full collection and every write rewrites it. Writes go
// through KeyValueStore.Update so that concurrent writers do not lose each
// other's records.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/carelink/telemedicine/internal/api/metrics"
	"github.com/carelink/telemedicine/internal/core/domain"
	"github.com/carelink/telemedicine/internal/core/ports"
)

// Collection is the list of records of one entity type stored as a JSON array
// under key. Records are identified by the JSON field idField.
type Collection[T any] struct {
	kv      ports.KeyValueStore
	name    string
	key     string
	idField string
	log     zerolog.Logger
}

func newCollection[T any](kv ports.KeyValueStore, namespace, name, idField string, log zerolog.Logger) *Collection[T] {
	return &Collection[T]{
		kv:      kv,
		name:    name,
		key:     Key(namespace, name),
		idField: idField,
		log:     log.With().Str("collection", name).Logger(),
	}
}

// Key returns the persisted key of a collection, e.g. telemedicine_users.
func Key(namespace, name string) string {
	return namespace + "_" + name
}

func (c *Collection[T]) observe(op string, start time.Time) {
	metrics.StoreOperationDuration.WithLabelValues(c.name, op).Observe(time.Since(start).Seconds())
}

// GetAll returns every stored record. An absent key yields an empty slice; a
// value that is not a JSON array of T yields domain.ErrCorruptRecord.
func (c *Collection[T]) GetAll(ctx context.Context) ([]T, error) {
	defer c.observe("get_all", time.Now())

	raw, ok, err := c.kv.Get(ctx, c.key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", c.key, err)
	}
	if !ok {
		return []T{}, nil
	}
	return c.decode(raw)
}

// SaveAll overwrites the collection with items.
func (c *Collection[T]) SaveAll(ctx context.Context, items []T) error {
	defer c.observe("save_all", time.Now())

	raw, err := c.encode(items)
	if err != nil {
		return err
	}
	if err := c.kv.Set(ctx, c.key, raw); err != nil {
		return fmt.Errorf("write %s: %w", c.key, err)
	}
	return nil
}

// Mutate runs fn over the current records and stores what it returns as one
// atomic step. Returning ports.ErrSkipUpdate leaves the collection untouched;
// any other error aborts the write and is returned.
func (c *Collection[T]) Mutate(ctx context.Context, fn func([]T) ([]T, error)) error {
	defer c.observe("mutate", time.Now())

	err := c.kv.Update(ctx, c.key, func(cur string, exists bool) (string, error) {
		items := []T{}
		if exists {
			decoded, err := c.decode(cur)
			if err != nil {
				return "", err
			}
			items = decoded
		}
		next, err := fn(items)
		if err != nil {
			return "", err
		}
		return c.encode(next)
	})
	if err != nil {
		return fmt.Errorf("mutate %s: %w", c.key, err)
	}
	return nil
}

// Add appends item to the collection. Records already stored are written back
// byte for byte.
func (c *Collection[T]) Add(ctx context.Context, item T) error {
	return c.Append(ctx, item, nil)
}

// Append adds item once check, when given, accepts the current records. An
// error from check aborts the write and is returned.
func (c *Collection[T]) Append(ctx context.Context, item T, check func([]T) error) error {
	defer c.observe("add", time.Now())

	b, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", c.key, err)
	}
	err = c.splice(ctx, func(records []json.RawMessage, items []T) ([]json.RawMessage, error) {
		if check != nil {
			if err := check(items); err != nil {
				return nil, err
			}
		}
		return append(records, b), nil
	})
	if err != nil {
		return fmt.Errorf("add to %s: %w", c.key, err)
	}
	return nil
}

// Upsert replaces the record whose id equals id, or appends item when none
// does. Other records are written back byte for byte.
func (c *Collection[T]) Upsert(ctx context.Context, id string, item T) error {
	defer c.observe("upsert", time.Now())

	b, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", c.key, err)
	}
	err = c.splice(ctx, func(records []json.RawMessage, _ []T) ([]json.RawMessage, error) {
		for i, rec := range records {
			if _, recID := c.recordID(rec); recID == id {
				records[i] = b
				return records, nil
			}
		}
		return append(records, b), nil
	})
	if err != nil {
		return fmt.Errorf("upsert %s/%s: %w", c.key, id, err)
	}
	return nil
}

// Update shallow-merges fields over the first record whose id matches. Fields
// not listed, including ones this program does not model, keep their stored
// value. found is false when no record matched; nothing is written then.
func (c *Collection[T]) Update(ctx context.Context, id string, fields map[string]any) (found bool, err error) {
	merged, err := c.Patch(ctx, id, func(T) (map[string]any, error) {
		return fields, nil
	})
	return merged != nil, err
}

// Patch locates the record with the given id, hands its decoded form to fn and
// merges the returned fields over the stored JSON, all within one atomic
// update. It returns the merged record, or nil when no record matched. An
// error from fn aborts the write.
func (c *Collection[T]) Patch(ctx context.Context, id string, fn func(T) (map[string]any, error)) (*T, error) {
	defer c.observe("update", time.Now())

	var merged *T
	err := c.kv.Update(ctx, c.key, func(cur string, exists bool) (string, error) {
		merged = nil
		if !exists {
			return "", ports.ErrSkipUpdate
		}

		var records []json.RawMessage
		if err := json.Unmarshal([]byte(cur), &records); err != nil {
			return "", fmt.Errorf("%w: %s: %v", domain.ErrCorruptRecord, c.key, err)
		}

		for i, raw := range records {
			rec, recID := c.recordID(raw)
			if rec == nil || recID != id {
				continue
			}

			var current T
			if err := json.Unmarshal(raw, &current); err != nil {
				return "", fmt.Errorf("%w: %s[%d]: %v", domain.ErrCorruptRecord, c.key, i, err)
			}
			fields, err := fn(current)
			if err != nil {
				return "", err
			}
			for name, v := range fields {
				b, err := json.Marshal(v)
				if err != nil {
					return "", fmt.Errorf("encode field %s: %w", name, err)
				}
				rec[name] = b
			}

			b, err := json.Marshal(rec)
			if err != nil {
				return "", fmt.Errorf("encode %s[%d]: %w", c.key, i, err)
			}
			var out T
			if err := json.Unmarshal(b, &out); err != nil {
				return "", fmt.Errorf("decode merged record: %w", err)
			}
			merged = &out
			records[i] = b
			return joinRecords(records), nil
		}
		return "", ports.ErrSkipUpdate
	})
	if err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", c.key, id, err)
	}
	if merged == nil {
		c.log.Debug().Str("id", id).Msg("update target not found, nothing written")
	}
	return merged, nil
}

// splice hands fn the stored array both as raw records and decoded, and writes
// the raw records it returns. A record fn leaves in place keeps its exact bytes.
func (c *Collection[T]) splice(ctx context.Context, fn func([]json.RawMessage, []T) ([]json.RawMessage, error)) error {
	return c.kv.Update(ctx, c.key, func(cur string, exists bool) (string, error) {
		records := []json.RawMessage{}
		items := []T{}
		if exists {
			decoded, err := c.decode(cur)
			if err != nil {
				return "", err
			}
			items = decoded
			if err := json.Unmarshal([]byte(cur), &records); err != nil {
				return "", fmt.Errorf("%w: %s: %v", domain.ErrCorruptRecord, c.key, err)
			}
		}
		next, err := fn(records, items)
		if err != nil {
			return "", err
		}
		return joinRecords(next), nil
	})
}

// recordID decodes one stored record far enough to read its id field. rec is
// nil when the record is not a JSON object.
func (c *Collection[T]) recordID(raw json.RawMessage) (rec map[string]json.RawMessage, id string) {
	if err := json.Unmarshal(raw, &rec); err != nil || rec == nil {
		return nil, ""
	}
	if err := json.Unmarshal(rec[c.idField], &id); err != nil {
		return rec, ""
	}
	return rec, id
}

func (c *Collection[T]) decode(raw string) ([]T, error) {
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrCorruptRecord, c.key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (c *Collection[T]) encode(items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", c.key, err)
	}
	return string(b), nil
}

// joinRecords writes records as a JSON array without re-encoding them, so the
// bytes of each record are kept as stored.
func joinRecords(records []json.RawMessage) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, rec := range records {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.Write(rec)
	}
	sb.WriteByte(']')
	return sb.String()
}
