package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/carelink/telemedicine/internal/api/metrics"
	"github.com/carelink/telemedicine/internal/core/domain"
	"github.com/carelink/telemedicine/internal/core/ports"
)

// DefaultPollInterval is how often an open chat widget reloads its
// conversation when no change notification arrives.
const DefaultPollInterval = 2 * time.Second

type ChatService struct {
	messages     ports.MessageRepository
	appointments ports.AppointmentRepository
	notifier     ports.Notifier
	changes      ports.ChangeSink
	pollInterval time.Duration
	logger       zerolog.Logger
}

// NewChatService wires the service. notifier and changes may be nil, in which
// case widgets rely on polling alone.
func NewChatService(
	messages ports.MessageRepository,
	appointments ports.AppointmentRepository,
	notifier ports.Notifier,
	changes ports.ChangeSink,
	pollInterval time.Duration,
	logger zerolog.Logger,
) *ChatService {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &ChatService{
		messages:     messages,
		appointments: appointments,
		notifier:     notifier,
		changes:      changes,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Conversation returns the messages of one appointment exchanged between
// selfID and otherID in either direction, oldest first. Messages with equal
// timestamps keep their stored order.
func (s *ChatService) Conversation(ctx context.Context, appointmentID, selfID, otherID string) ([]domain.Message, error) {
	all, err := s.messages.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}

	out := make([]domain.Message, 0)
	for _, m := range all {
		if m.Between(appointmentID, selfID, otherID) {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.Message) int {
		return a.Timestamp.Compare(b.Timestamp.Time)
	})
	return out, nil
}

// Send appends a message from actor to receiverID. Surrounding whitespace is
// trimmed; an empty result is rejected with domain.ErrEmptyMessage.
func (s *ChatService) Send(ctx context.Context, actor ports.Actor, appointmentID, receiverID, text string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrEmptyMessage
	}
	if err := s.checkParticipants(ctx, actor, appointmentID, receiverID); err != nil {
		return nil, err
	}

	m := domain.Message{
		ID:            newID("msg"),
		SenderID:      actor.ID,
		SenderName:    actor.Name,
		SenderRole:    actor.Role,
		ReceiverID:    receiverID,
		AppointmentID: appointmentID,
		Message:       text,
		Timestamp:     domain.Now(),
	}
	if err := s.messages.Add(ctx, m); err != nil {
		return nil, fmt.Errorf("send message: %w", err)
	}

	metrics.MessagesSentTotal.WithLabelValues(string(actor.Role)).Inc()
	if s.changes != nil {
		s.changes.Enqueue(ports.ChangeEvent{AppointmentID: appointmentID, Kind: ports.ChangeMessage, RecordID: m.ID})
	}
	s.logger.Debug().Str("message_id", m.ID).Str("appointment_id", appointmentID).Msg("message sent")
	return &m, nil
}

// Open activates a chat widget for actor and the counterpart otherID. The
// conversation is loaded before Open returns.
func (s *ChatService) Open(ctx context.Context, actor ports.Actor, appointmentID, otherID string) (ports.ChatSession, error) {
	if err := s.checkParticipants(ctx, actor, appointmentID, otherID); err != nil {
		return nil, err
	}
	w, err := openChatWidget(ctx, s, actor, appointmentID, otherID)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// checkParticipants requires a patient or doctor caller, that both sides are
// the appointment's patient and doctor, and that the appointment is confirmed
// or completed.
func (s *ChatService) checkParticipants(ctx context.Context, actor ports.Actor, appointmentID, otherID string) error {
	if actor.Role != domain.RolePatient && actor.Role != domain.RoleDoctor {
		return domain.ErrForbidden
	}
	a, err := findAppointment(ctx, s.appointments, appointmentID)
	if err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	if actor.ID == otherID || !a.HasParticipant(actor.ID) || !a.HasParticipant(otherID) {
		return domain.ErrForbidden
	}
	if !a.ChatOpen() {
		return fmt.Errorf("chat %s (%s): %w", appointmentID, a.Status, domain.ErrChatUnavailable)
	}
	return nil
}
