package handler

import "github.com/carelink/telemedicine/internal/core/domain"

// errorBody documents the envelope rendered by the API error handler.
type errorBody struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

type patientDashboardResponse struct {
	Appointments  []domain.Appointment  `json:"appointments"`
	Prescriptions []domain.Prescription `json:"prescriptions"`
	Doctors       []domain.PublicUser   `json:"doctors"`
}

type doctorDashboardResponse struct {
	Appointments []domain.Appointment `json:"appointments"`
	Pending      []domain.Appointment `json:"pending"`
	Upcoming     []domain.Appointment `json:"upcoming"`
	Completed    []domain.Appointment `json:"completed"`
}

type adminTotals struct {
	Patients     int `json:"patients"`
	Doctors      int `json:"doctors"`
	Appointments int `json:"appointments"`
	Pending      int `json:"pending"`
}

type adminDashboardResponse struct {
	Patients     []domain.PublicUser  `json:"patients"`
	Doctors      []domain.PublicUser  `json:"doctors"`
	Appointments []domain.Appointment `json:"appointments"`
	Pending      []domain.Appointment `json:"pending"`
	Totals       adminTotals          `json:"totals"`
}

type messagesResponse struct {
	Messages []domain.Message `json:"messages"`
}

// nonNil keeps empty lists rendering as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
