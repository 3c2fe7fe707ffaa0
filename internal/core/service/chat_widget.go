package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/carelink/telemedicine/internal/api/metrics"
	"github.com/carelink/telemedicine/internal/core/domain"
	"github.com/carelink/telemedicine/internal/core/ports"
)

// ChatWidget keeps the displayed conversation of one open chat in sync with
// the store. It reloads on every poll tick and whenever a change notification
// for the appointment arrives. Close (or cancelling the context given to
// Open) stops both.
type ChatWidget struct {
	svc           *ChatService
	actor         ports.Actor
	appointmentID string
	otherID       string
	log           zerolog.Logger

	mu       sync.Mutex
	messages []domain.Message
	closed   bool
	updates  chan []domain.Message

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

func openChatWidget(ctx context.Context, svc *ChatService, actor ports.Actor, appointmentID, otherID string) (*ChatWidget, error) {
	initial, err := svc.Conversation(ctx, appointmentID, actor.ID, otherID)
	if err != nil {
		return nil, err
	}
	metrics.ChatRefreshesTotal.WithLabelValues("open").Inc()

	var notify <-chan string
	unsubscribe := func() {}
	if svc.notifier != nil {
		ch, cancel, err := svc.notifier.Subscribe(ctx, ports.AppointmentTopic(appointmentID))
		if err != nil {
			svc.logger.Warn().Err(err).Str("appointment_id", appointmentID).Msg("change subscription failed, polling only")
		} else {
			notify, unsubscribe = ch, cancel
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w := &ChatWidget{
		svc:           svc,
		actor:         actor,
		appointmentID: appointmentID,
		otherID:       otherID,
		log:           svc.logger.With().Str("appointment_id", appointmentID).Str("viewer_id", actor.ID).Logger(),
		messages:      initial,
		updates:       make(chan []domain.Message, 1),
		cancel:        cancel,
		done:          make(chan struct{}),
	}
	w.updates <- cloneMessages(initial)

	metrics.OpenChatWidgets.Inc()
	go w.run(loopCtx, notify, unsubscribe)
	return w, nil
}

func (w *ChatWidget) run(ctx context.Context, notify <-chan string, unsubscribe func()) {
	ticker := time.NewTicker(w.svc.pollInterval)
	defer func() {
		ticker.Stop()
		unsubscribe()
		w.mu.Lock()
		w.closed = true
		close(w.updates)
		w.mu.Unlock()
		metrics.OpenChatWidgets.Dec()
		close(w.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.refresh(ctx, "poll")
		case _, ok := <-notify:
			if !ok {
				notify = nil
				continue
			}
			w.refresh(ctx, "notify")
		}
	}
}

// refresh replaces the displayed list with a fresh read. On error the
// previous list stays on display.
func (w *ChatWidget) refresh(ctx context.Context, trigger string) {
	msgs, err := w.svc.Conversation(ctx, w.appointmentID, w.actor.ID, w.otherID)
	if err != nil {
		if ctx.Err() == nil {
			w.log.Warn().Err(err).Str("trigger", trigger).Msg("chat refresh failed")
		}
		return
	}
	metrics.ChatRefreshesTotal.WithLabelValues(trigger).Inc()

	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = msgs
	w.publishLocked()
}

// publishLocked offers the current list on updates, replacing any list the
// consumer has not taken yet. Callers hold w.mu.
func (w *ChatWidget) publishLocked() {
	if w.closed {
		return
	}
	snapshot := cloneMessages(w.messages)
	select {
	case <-w.updates:
	default:
	}
	select {
	case w.updates <- snapshot:
	default:
	}
}

// Messages returns the displayed conversation.
func (w *ChatWidget) Messages() []domain.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return cloneMessages(w.messages)
}

// Updates delivers the displayed conversation after every change. Only the
// latest list is kept for a slow reader. The channel is closed when the
// widget stops.
func (w *ChatWidget) Updates() <-chan []domain.Message {
	return w.updates
}

// Send stores a message to the counterpart and appends it to the displayed
// list without reloading. A refresh that ran between the store write and the
// append has already shown the message; it is not appended twice.
func (w *ChatWidget) Send(ctx context.Context, text string) (*domain.Message, error) {
	m, err := w.svc.Send(ctx, w.actor, w.appointmentID, w.otherID, text)
	if err != nil {
		return nil, fmt.Errorf("chat widget send: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if slices.ContainsFunc(w.messages, func(shown domain.Message) bool { return shown.ID == m.ID }) {
		return m, nil
	}
	w.messages = append(cloneMessages(w.messages), *m)
	w.publishLocked()
	return m, nil
}

// Close stops polling and the change subscription and waits for the widget's
// goroutine to exit. Safe to call more than once.
func (w *ChatWidget) Close() {
	w.closeOnce.Do(func() {
		w.cancel()
		<-w.done
	})
}

func cloneMessages(in []domain.Message) []domain.Message {
	out := make([]domain.Message, len(in))
	copy(out, in)
	return out
}
