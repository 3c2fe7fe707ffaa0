package domain

import "errors"

// AppointmentStatus represents the lifecycle state of an appointment.
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// validTransitions defines the allowed state machine transitions.
// completed and cancelled are terminal.
var validTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

var (
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrChatUnavailable     = errors.New("chat is only open on confirmed or completed appointments")
)

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Appointment is a booking between a patient and a doctor. PatientName and
// DoctorName are copied at creation and never refreshed.
type Appointment struct {
	ID          string            `json:"id"`
	PatientID   string            `json:"patientId"`
	PatientName string            `json:"patientName"`
	DoctorID    string            `json:"doctorId"`
	DoctorName  string            `json:"doctorName"`
	Date        string            `json:"date"`
	Time        string            `json:"time"`
	Status      AppointmentStatus `json:"status"`
	Reason      string            `json:"reason,omitempty"`
	CreatedAt   Timestamp         `json:"createdAt"`
}

// HasParticipant reports whether userID is the patient or the doctor.
func (a Appointment) HasParticipant(userID string) bool {
	return a.PatientID == userID || a.DoctorID == userID
}

// ChatOpen reports whether the participants may message each other. Chat opens
// once the doctor confirms and stays open after completion.
func (a Appointment) ChatOpen() bool {
	return a.Status == StatusConfirmed || a.Status == StatusCompleted
}

// AppointmentPatch lists the fields an update overwrites. Nil fields are left
// untouched.
type AppointmentPatch struct {
	Status *AppointmentStatus
	Date   *string
	Time   *string
	Reason *string
}

// Fields returns the patch as a JSON field map keyed by persisted names.
func (p AppointmentPatch) Fields() map[string]any {
	fields := make(map[string]any, 4)
	if p.Status != nil {
		fields["status"] = *p.Status
	}
	if p.Date != nil {
		fields["date"] = *p.Date
	}
	if p.Time != nil {
		fields["time"] = *p.Time
	}
	if p.Reason != nil {
		fields["reason"] = *p.Reason
	}
	return fields
}

// StatusPatch is a shorthand for a patch that only changes the status.
func StatusPatch(s AppointmentStatus) AppointmentPatch {
	return AppointmentPatch{Status: &s}
}
