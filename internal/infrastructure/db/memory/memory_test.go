package memory

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/carelink/telemedicine/internal/core/ports"
)

func TestKV_UpdateSerializesConcurrentWriters(t *testing.T) {
	kv := NewKV()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := kv.Update(ctx, "counter", func(cur string, _ bool) (string, error) {
				n, _ := strconv.Atoi(cur)
				return strconv.Itoa(n + 1), nil
			})
			if err != nil {
				t.Errorf("update: %v", err)
			}
		}()
	}
	wg.Wait()

	v, ok, _ := kv.Get(ctx, "counter")
	if !ok || v != "50" {
		t.Fatalf("expected 50, got %q (exists=%v)", v, ok)
	}
}

func TestKV_UpdateSkipLeavesKeyAbsent(t *testing.T) {
	kv := NewKV()
	err := kv.Update(context.Background(), "k", func(string, bool) (string, error) {
		return "", ports.ErrSkipUpdate
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, _ := kv.Get(context.Background(), "k"); ok {
		t.Fatalf("key should not exist")
	}
}

func TestKV_UpdatePropagatesError(t *testing.T) {
	kv := NewKV()
	boom := errors.New("boom")
	_ = kv.Set(context.Background(), "k", "v")
	err := kv.Update(context.Background(), "k", func(string, bool) (string, error) { return "x", boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if v, _, _ := kv.Get(context.Background(), "k"); v != "v" {
		t.Fatalf("value changed to %q", v)
	}
}

func TestNotifier_PublishReachesSubscriberUntilCancel(t *testing.T) {
	n := NewNotifier()
	ctx := context.Background()
	ch, cancel, err := n.Subscribe(ctx, "appointment:1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	_ = n.Publish(ctx, "appointment:1", "hello")
	_ = n.Publish(ctx, "appointment:2", "other")

	select {
	case got := <-ch:
		if got != "hello" {
			t.Fatalf("unexpected payload %q", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("payload not delivered")
	}

	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("channel should be closed after cancel")
	}
	if err := n.Publish(ctx, "appointment:1", "late"); err != nil {
		t.Fatalf("publish after cancel: %v", err)
	}
}

func TestIdempotencyStore_ExpiresEntries(t *testing.T) {
	s := NewIdempotencyStore(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	_ = s.Remember(ctx, "key", "apt-1")
	_ = s.Remember(ctx, "key", "apt-2")
	if v, ok, _ := s.Lookup(ctx, "key"); !ok || v != "apt-1" {
		t.Fatalf("expected first value to win, got %q %v", v, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := s.Lookup(ctx, "key"); ok {
		t.Fatalf("entry should have expired")
	}
}
