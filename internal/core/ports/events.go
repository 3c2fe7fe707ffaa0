package ports

import "context"

// Change kinds carried by ChangeEvent.
const (
	ChangeMessage      = "message"
	ChangeAppointment  = "appointment"
	ChangePrescription = "prescription"
)

// ChangeEvent describes a write that chat widgets watching the appointment
// should react to.
type ChangeEvent struct {
	AppointmentID string
	Kind          string
	RecordID      string
}

// ChangeSink accepts change events for asynchronous fan-out.
type ChangeSink interface {
	Enqueue(event ChangeEvent)
}

// ChangeHandler processes one change event on a dispatcher worker.
type ChangeHandler interface {
	Handle(ctx context.Context, event ChangeEvent) error
}

// Notifier is a topic based pub/sub used to wake chat widgets early.
type Notifier interface {
	Publish(ctx context.Context, topic, payload string) error
	// Subscribe returns a channel of payloads and a function that ends the
	// subscription and closes the channel.
	Subscribe(ctx context.Context, topic string) (<-chan string, func(), error)
	Close() error
}

// AppointmentTopic is the notifier topic for one appointment.
func AppointmentTopic(appointmentID string) string {
	return "appointment:" + appointmentID
}
