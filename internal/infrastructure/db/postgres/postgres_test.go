package postgres

import (
	"context"
	"os"
	"strconv"
	"sync"
	"testing"
)

func connectForTest(t *testing.T) *KV {
	t.Helper()
	url := os.Getenv("POSTGRES_TEST_URL")
	if url == "" {
		t.Skip("POSTGRES_TEST_URL not set")
	}
	pool, err := Connect(context.Background(), Config{URL: url})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM kv_store WHERE key LIKE 'test_%'`)
		pool.Close()
	})
	return NewKV(pool)
}

func TestKV_UpdateCreatesMissingKey(t *testing.T) {
	kv := connectForTest(t)
	ctx := context.Background()

	err := kv.Update(ctx, "test_new", func(cur string, exists bool) (string, error) {
		if exists {
			t.Fatalf("key should not exist yet")
		}
		return "[]", nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if v, ok, _ := kv.Get(ctx, "test_new"); !ok || v != "[]" {
		t.Fatalf("unexpected value %q", v)
	}
}

func TestKV_ConcurrentUpdatesAreNotLost(t *testing.T) {
	kv := connectForTest(t)
	ctx := context.Background()
	if err := kv.Set(ctx, "test_counter", "0"); err != nil {
		t.Fatalf("set: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = kv.Update(ctx, "test_counter", func(cur string, _ bool) (string, error) {
				n, _ := strconv.Atoi(cur)
				return strconv.Itoa(n + 1), nil
			})
		}()
	}
	wg.Wait()

	if v, _, _ := kv.Get(ctx, "test_counter"); v != "10" {
		t.Fatalf("expected 10, got %q", v)
	}
}
