package controllers

import (
	"log/slog"
	"net/http"

	"discodoge/internal/delivery/http/helpers"
	"discodoge/internal/delivery/http/middleware"
	"discodoge/internal/domain"
)

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// GetBySlug godoc
// @Summary Look up events by slug
// @Description Returns every event whose slug matches. An unknown slug yields an empty list.
// @Tags events
// @Produce json
// @Param slug path string true "Event slug"
// @Success 200 {object} helpers.APIResponse "data is an array of events"
// @Failure 405 {object} helpers.APIResponse "error.code: method_not_allowed"
// @Failure 502 {object} helpers.APIResponse "error.code: bad_gateway"
// @Router /api/events/{slug} [get]
func (c *EventController) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	events, err := c.Service.ListEventsBySlug(r.Context(), slug)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// List godoc
// @Summary List events
// @Tags events
// @Produce json
// @Success 200 {object} helpers.APIResponse "data is an array of events"
// @Failure 502 {object} helpers.APIResponse "error.code: bad_gateway"
// @Router /api/events [get]
func (c *EventController) List(w http.ResponseWriter, r *http.Request) {
	events, err := c.Service.ListEvents(r.Context())
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// ListMine godoc
// @Summary List my events
// @Description Events owned by the session user.
// @Tags events
// @Produce json
// @Success 200 {object} helpers.APIResponse "data is an array of events"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /api/events/me [get]
func (c *EventController) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	events, err := c.Service.ListMyEvents(r.Context(), userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteDomainError(w, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}
