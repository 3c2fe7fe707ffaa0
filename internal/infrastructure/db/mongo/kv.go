package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carelink/telemedicine/internal/core/domain"
	"github.com/carelink/telemedicine/internal/core/ports"
)

const (
	collectionKV  = "kv"
	maxCASRetries = 16
)

// kvDocument holds one persisted key. Version increases on every write and
// guards Update against lost writes.
type kvDocument struct {
	Key     string `bson:"_id"`
	Value   string `bson:"value"`
	Version int64  `bson:"version"`
}

// KV stores persisted keys as documents of the kv collection.
type KV struct {
	col *mongo.Collection
}

func NewKV(db *mongo.Database) *KV {
	return &KV{col: db.Collection(collectionKV)}
}

func (k *KV) find(ctx context.Context, key string) (*kvDocument, error) {
	var doc kvDocument
	err := k.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongo find %s: %w", key, err)
	}
	return &doc, nil
}

func (k *KV) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := k.find(ctx, key)
	if err != nil || doc == nil {
		return "", false, err
	}
	return doc.Value, true, nil
}

func (k *KV) Set(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := k.col.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{"$set": bson.M{"value": value}, "$inc": bson.M{"version": 1}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo set %s: %w", key, err)
	}
	return nil
}

func (k *KV) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := k.col.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("mongo delete %s: %w", key, err)
	}
	return nil
}

// Update reads the document, applies fn and writes back only if the version
// is unchanged. A missing key is created with InsertOne; a duplicate key error
// means another writer created it first and the loop retries.
func (k *KV) Update(ctx context.Context, key string, fn ports.UpdateFunc) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	for attempt := 0; attempt < maxCASRetries; attempt++ {
		doc, err := k.find(ctx, key)
		if err != nil {
			return err
		}

		var cur string
		if doc != nil {
			cur = doc.Value
		}
		next, err := fn(cur, doc != nil)
		if errors.Is(err, ports.ErrSkipUpdate) {
			return nil
		}
		if err != nil {
			return err
		}

		if doc == nil {
			_, err := k.col.InsertOne(ctx, kvDocument{Key: key, Value: next, Version: 1})
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			if err != nil {
				return fmt.Errorf("mongo insert %s: %w", key, err)
			}
			return nil
		}

		res, err := k.col.UpdateOne(ctx,
			bson.M{"_id": key, "version": doc.Version},
			bson.M{"$set": bson.M{"value": next}, "$inc": bson.M{"version": 1}},
		)
		if err != nil {
			return fmt.Errorf("mongo update %s: %w", key, err)
		}
		if res.MatchedCount == 1 {
			return nil
		}
	}
	return fmt.Errorf("mongo update %s: %w", key, domain.ErrStoreConflict)
}

func (k *KV) Ping(ctx context.Context) error {
	return k.col.Database().Client().Ping(ctx, nil)
}

func (k *KV) Close(ctx context.Context) error {
	return k.col.Database().Client().Disconnect(ctx)
}
