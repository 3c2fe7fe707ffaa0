package memory

import (
	"context"
	"sync"
)

const subscriberBuffer = 16

// Notifier fans published payloads out to in-process subscribers. Slow
// subscribers miss payloads rather than block publishers.
type Notifier struct {
	mu     sync.Mutex
	topics map[string]map[chan string]struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{topics: make(map[string]map[chan string]struct{})}
}

func (n *Notifier) Publish(_ context.Context, topic, payload string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.topics[topic] {
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

func (n *Notifier) Subscribe(_ context.Context, topic string) (<-chan string, func(), error) {
	ch := make(chan string, subscriberBuffer)

	n.mu.Lock()
	subs, ok := n.topics[topic]
	if !ok {
		subs = make(map[chan string]struct{})
		n.topics[topic] = subs
	}
	subs[ch] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.topics[topic], ch)
			if len(n.topics[topic]) == 0 {
				delete(n.topics, topic)
			}
			n.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel, nil
}

func (n *Notifier) Close() error { return nil }
