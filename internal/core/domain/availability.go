package domain

import "errors"

var ErrAvailabilityNotFound = errors.New("availability not set")

// HourRange is a daily window in HH:MM form.
type HourRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DoctorAvailability is keyed by DoctorID; at most one record per doctor.
type DoctorAvailability struct {
	DoctorID       string    `json:"doctorId"`
	AvailableDays  []string  `json:"availableDays"`
	AvailableHours HourRange `json:"availableHours"`
}
