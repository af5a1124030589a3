package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"discodoge/internal/delivery/http/helpers"
)

// Pinger reports whether an optional dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

type HealthController struct {
	Logger *slog.Logger
	Checks map[string]Pinger
}

func NewHealthController(logger *slog.Logger, checks map[string]Pinger) *HealthController {
	return &HealthController{Logger: logger, Checks: checks}
}

// Health godoc
// @Summary Health check
// @Description Liveness plus the state of optional dependencies. A failing optional dependency degrades the status but never fails the check.
// @Tags health
// @Produce json
// @Success 200 {object} helpers.APIResponse "data.status is ok or degraded"
// @Router /healthz [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Checks: map[string]string{}}
	for name, p := range c.Checks {
		if err := p.Ping(r.Context()); err != nil {
			c.Logger.WarnContext(r.Context(), "health check failed", "check", name, "err", err)
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			continue
		}
		resp.Checks[name] = "ok"
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, resp)
}
