package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is anything the readiness probe can check: KV backends and the
// redis client behind the notifier.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	deps    map[string]Pinger
	timeout time.Duration
}

// NewHealthHandler builds liveness and readiness probes over the named
// dependencies.
func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{deps: deps, timeout: 2 * time.Second}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Liveness handles GET /health.
//
// @Summary  Liveness probe
// @Tags     health
// @Produce  json
// @Success  200  {object}  healthResponse
// @Router   /health [get]
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{Status: "ok"})
}

// Readiness handles GET /health/ready.
//
// @Summary  Readiness probe
// @Tags     health
// @Produce  json
// @Success  200  {object}  healthResponse
// @Failure  503  {object}  healthResponse
// @Router   /health/ready [get]
func (h *HealthHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(h.deps))}
	code := http.StatusOK
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "unavailable"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	return c.JSON(code, resp)
}
