package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/telemedicine/internal/core/domain"
	"github.com/carelink/telemedicine/internal/core/ports"
)

// DoctorHandler serves the doctor directory and availability.
type DoctorHandler struct {
	appointments ports.AppointmentService
	availability ports.AvailabilityService
}

func NewDoctorHandler(appointments ports.AppointmentService, availability ports.AvailabilityService) *DoctorHandler {
	return &DoctorHandler{appointments: appointments, availability: availability}
}

type availabilityRequest struct {
	AvailableDays  []string `json:"availableDays" validate:"required,min=1,dive,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	AvailableHours struct {
		Start string `json:"start" validate:"required,datetime=15:04"`
		End   string `json:"end" validate:"required,datetime=15:04"`
	} `json:"availableHours"`
}

// List handles GET /v1/doctors.
//
// @Summary      List doctors
// @Tags         doctors
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.PublicUser
// @Failure      401  {object}  errorBody
// @Router       /v1/doctors [get]
func (h *DoctorHandler) List(c echo.Context) error {
	doctors, err := h.appointments.Doctors(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, publicUsers(doctors))
}

// GetAvailability handles GET /v1/doctors/:id/availability.
//
// @Summary      Get a doctor's availability
// @Tags         doctors
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Doctor ID"
// @Success      200  {object}  domain.DoctorAvailability
// @Failure      404  {object}  errorBody
// @Router       /v1/doctors/{id}/availability [get]
func (h *DoctorHandler) GetAvailability(c echo.Context) error {
	a, err := h.availability.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

// SetAvailability handles PUT /v1/doctors/me/availability.
//
// @Summary      Set own availability
// @Tags         doctors
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      availabilityRequest  true  "Days and hours"
// @Success      200   {object}  domain.DoctorAvailability
// @Failure      400   {object}  errorBody
// @Failure      403   {object}  errorBody
// @Router       /v1/doctors/me/availability [put]
func (h *DoctorHandler) SetAvailability(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req availabilityRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	a := domain.DoctorAvailability{
		DoctorID:      actor.ID,
		AvailableDays: req.AvailableDays,
		AvailableHours: domain.HourRange{
			Start: req.AvailableHours.Start,
			End:   req.AvailableHours.End,
		},
	}
	if err := h.availability.Set(c.Request().Context(), actor, a); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}
