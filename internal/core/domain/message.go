package domain

import "errors"

var ErrEmptyMessage = errors.New("message text is empty")

// Message is a chat line tied to an appointment. Messages are append-only.
type Message struct {
	ID            string    `json:"id"`
	SenderID      string    `json:"senderId"`
	SenderName    string    `json:"senderName"`
	SenderRole    Role      `json:"senderRole"`
	ReceiverID    string    `json:"receiverId"`
	AppointmentID string    `json:"appointmentId"`
	Message       string    `json:"message"`
	Timestamp     Timestamp `json:"timestamp"`
}

// Between reports whether the message belongs to the conversation between a
// and b about the given appointment, in either direction.
func (m Message) Between(appointmentID, a, b string) bool {
	if m.AppointmentID != appointmentID {
		return false
	}
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}
