package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/carelink/telemedicine/internal/core/ports"
)

type recordingHandler struct {
	mu     sync.Mutex
	events []ports.ChangeEvent
}

func (h *recordingHandler) Handle(_ context.Context, ev ports.ChangeEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
	return nil
}

func (h *recordingHandler) snapshot() []ports.ChangeEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ports.ChangeEvent{}, h.events...)
}

func TestDispatcher_PreservesPerAppointmentOrder(t *testing.T) {
	h := &recordingHandler{}
	d := NewDispatcher(4, h, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for _, id := range []string{"msg-1", "msg-2", "msg-3", "msg-4"} {
		d.Enqueue(ports.ChangeEvent{AppointmentID: "apt-1", Kind: ports.ChangeMessage, RecordID: id})
		d.Enqueue(ports.ChangeEvent{AppointmentID: "apt-2", Kind: ports.ChangeMessage, RecordID: id})
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(h.snapshot()) < 8 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	var apt1 []string
	for _, ev := range h.snapshot() {
		if ev.AppointmentID == "apt-1" {
			apt1 = append(apt1, ev.RecordID)
		}
	}
	want := []string{"msg-1", "msg-2", "msg-3", "msg-4"}
	if len(apt1) != len(want) {
		t.Fatalf("expected %d events for apt-1, got %v", len(want), apt1)
	}
	for i := range want {
		if apt1[i] != want[i] {
			t.Fatalf("out of order: %v", apt1)
		}
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(0, &recordingHandler{}, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
	first := d.shardIndex("apt-123")
	for i := 0; i < 10; i++ {
		if d.shardIndex("apt-123") != first {
			t.Fatalf("shard index changed between calls")
		}
	}
}

func TestDispatcher_EnqueueDoesNotBlockWhenFull(t *testing.T) {
	d := NewDispatcher(1, &recordingHandler{}, zerolog.Nop())
	// Workers are not started, so the buffer fills up.
	done := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer+10; i++ {
			d.Enqueue(ports.ChangeEvent{AppointmentID: "apt-1"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Enqueue blocked on a full buffer")
	}
}
