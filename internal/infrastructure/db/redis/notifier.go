package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

const (
	channelPrefix    = "telemedicine:"
	subscriberBuffer = 16
)

// Notifier publishes change payloads on Redis channels so that chat widgets
// served by any instance wake up.
type Notifier struct {
	client *redis.Client
}

func NewNotifier(client *redis.Client) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) Publish(ctx context.Context, topic, payload string) error {
	if err := n.client.Publish(ctx, channelPrefix+topic, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", topic, err)
	}
	return nil
}

func (n *Notifier) Subscribe(ctx context.Context, topic string) (<-chan string, func(), error) {
	sub := n.client.Subscribe(ctx, channelPrefix+topic)
	// Receive blocks until the subscription is confirmed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis subscribe %s: %w", topic, err)
	}

	out := make(chan string, subscriberBuffer)
	done := make(chan struct{})
	msgs := sub.Channel()

	go func() {
		defer close(out)
		for {
			select {
			case <-done:
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				default:
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = sub.Close()
		})
	}
	return out, cancel, nil
}

// Close is a no-op; the client is owned by the caller of Connect.
func (n *Notifier) Close() error { return nil }
