package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/telemedicine/internal/core/domain"
	"github.com/carelink/telemedicine/internal/core/ports"
)

// HeaderIdempotencyKey lets a patient retry a booking without creating a
// second appointment.
const HeaderIdempotencyKey = "Idempotency-Key"

// AppointmentHandler handles booking, status actions and prescriptions.
type AppointmentHandler struct {
	appointments  ports.AppointmentService
	prescriptions ports.PrescriptionService
}

func NewAppointmentHandler(appointments ports.AppointmentService, prescriptions ports.PrescriptionService) *AppointmentHandler {
	return &AppointmentHandler{appointments: appointments, prescriptions: prescriptions}
}

type bookAppointmentRequest struct {
	DoctorID string `json:"doctorId" validate:"required"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Time     string `json:"time" validate:"required,datetime=15:04"`
	Reason   string `json:"reason"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed completed cancelled"`
}

type issuePrescriptionRequest struct {
	Medications  string `json:"medications" validate:"required"`
	Instructions string `json:"instructions"`
}

// Book handles POST /v1/appointments.
//
// @Summary      Book an appointment
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                  false  "Key that makes retries return the first booking"
// @Param        body             body      bookAppointmentRequest  true   "Booking form"
// @Success      201              {object}  domain.Appointment
// @Success      200              {object}  domain.Appointment  "Replay of an earlier booking"
// @Failure      400              {object}  errorBody
// @Failure      403              {object}  errorBody
// @Router       /v1/appointments [post]
func (h *AppointmentHandler) Book(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req bookAppointmentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	res, err := h.appointments.Book(c.Request().Context(), actor, ports.BookAppointmentInput{
		DoctorID:       req.DoctorID,
		Date:           req.Date,
		Time:           req.Time,
		Reason:         req.Reason,
		IdempotencyKey: c.Request().Header.Get(HeaderIdempotencyKey),
	})
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if res.AlreadyExisted {
		status = http.StatusOK
	}
	c.Response().Header().Set(echo.HeaderLocation, "/v1/appointments/"+res.Appointment.ID)
	return c.JSON(status, res.Appointment)
}

// UpdateStatus handles PATCH /v1/appointments/:id/status.
//
// @Summary      Change an appointment's status
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Appointment ID"
// @Param        body  body      updateStatusRequest  true  "New status"
// @Success      200   {object}  domain.Appointment
// @Failure      403   {object}  errorBody
// @Failure      404   {object}  errorBody
// @Failure      422   {object}  errorBody
// @Router       /v1/appointments/{id}/status [patch]
func (h *AppointmentHandler) UpdateStatus(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req updateStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	appt, err := h.appointments.UpdateStatus(c.Request().Context(), actor, c.Param("id"), domain.AppointmentStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, appt)
}

// IssuePrescription handles POST /v1/appointments/:id/prescriptions.
//
// @Summary      Issue a prescription
// @Description  Only the appointment's doctor may prescribe, and only while it is confirmed. The appointment is completed afterwards.
// @Tags         appointments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                    true  "Appointment ID"
// @Param        body  body      issuePrescriptionRequest  true  "Prescription"
// @Success      201   {object}  domain.Prescription
// @Failure      403   {object}  errorBody
// @Failure      404   {object}  errorBody
// @Failure      422   {object}  errorBody
// @Router       /v1/appointments/{id}/prescriptions [post]
func (h *AppointmentHandler) IssuePrescription(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req issuePrescriptionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := h.prescriptions.Issue(c.Request().Context(), actor, ports.IssuePrescriptionInput{
		AppointmentID: c.Param("id"),
		Medications:   req.Medications,
		Instructions:  req.Instructions,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}
