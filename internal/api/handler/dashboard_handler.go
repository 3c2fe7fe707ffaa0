package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/telemedicine/internal/core/ports"
)

// DashboardHandler renders the three role dashboards. A viewer whose role
// does not match gets 401 with a redirect to the auth screen.
type DashboardHandler struct {
	dashboards ports.DashboardService
}

func NewDashboardHandler(dashboards ports.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards}
}

// Patient handles GET /v1/dashboard/patient.
//
// @Summary      Patient dashboard
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  patientDashboardResponse
// @Failure      401  {object}  errorBody
// @Router       /v1/dashboard/patient [get]
func (h *DashboardHandler) Patient(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	d, err := h.dashboards.Patient(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, patientDashboardResponse{
		Appointments:  nonNil(d.Appointments),
		Prescriptions: nonNil(d.Prescriptions),
		Doctors:       publicUsers(d.Doctors),
	})
}

// Doctor handles GET /v1/dashboard/doctor.
//
// @Summary      Doctor dashboard
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  doctorDashboardResponse
// @Failure      401  {object}  errorBody
// @Router       /v1/dashboard/doctor [get]
func (h *DashboardHandler) Doctor(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	d, err := h.dashboards.Doctor(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doctorDashboardResponse{
		Appointments: nonNil(d.Appointments),
		Pending:      nonNil(d.Pending),
		Upcoming:     nonNil(d.Upcoming),
		Completed:    nonNil(d.Completed),
	})
}

// Admin handles GET /v1/dashboard/admin.
//
// @Summary      Admin dashboard
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  adminDashboardResponse
// @Failure      401  {object}  errorBody
// @Router       /v1/dashboard/admin [get]
func (h *DashboardHandler) Admin(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	d, err := h.dashboards.Admin(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, adminDashboardResponse{
		Patients:     publicUsers(d.Patients),
		Doctors:      publicUsers(d.Doctors),
		Appointments: nonNil(d.Appointments),
		Pending:      nonNil(d.Pending),
		Totals: adminTotals{
			Patients:     len(d.Patients),
			Doctors:      len(d.Doctors),
			Appointments: len(d.Appointments),
			Pending:      len(d.Pending),
		},
	})
}
