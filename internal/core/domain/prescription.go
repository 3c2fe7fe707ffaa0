package domain

// Prescription is issued by a doctor against an appointment. Append-only.
type Prescription struct {
	ID            string    `json:"id"`
	AppointmentID string    `json:"appointmentId"`
	PatientID     string    `json:"patientId"`
	DoctorID      string    `json:"doctorId"`
	DoctorName    string    `json:"doctorName"`
	Medications   string    `json:"medications"`
	Instructions  string    `json:"instructions"`
	Date          Timestamp `json:"date"`
}
