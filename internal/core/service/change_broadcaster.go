package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/carelink/telemedicine/internal/api/metrics"
	"github.com/carelink/telemedicine/internal/core/ports"
)

// ChangeBroadcaster publishes change events on the appointment's notifier
// topic. It runs on dispatcher workers.
type ChangeBroadcaster struct {
	notifier ports.Notifier
	logger   zerolog.Logger
}

func NewChangeBroadcaster(notifier ports.Notifier, logger zerolog.Logger) *ChangeBroadcaster {
	return &ChangeBroadcaster{notifier: notifier, logger: logger}
}

func (b *ChangeBroadcaster) Handle(ctx context.Context, ev ports.ChangeEvent) error {
	payload := ev.Kind + ":" + ev.RecordID
	if err := b.notifier.Publish(ctx, ports.AppointmentTopic(ev.AppointmentID), payload); err != nil {
		metrics.ChangeErrorsTotal.WithLabelValues(ev.Kind).Inc()
		return fmt.Errorf("broadcast change: %w", err)
	}
	b.logger.Debug().Str("appointment_id", ev.AppointmentID).Str("kind", ev.Kind).Msg("change broadcast")
	return nil
}
