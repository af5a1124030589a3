// Package web serves the server-rendered pages of the site.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"discodoge/internal/delivery/http/helpers"
	"discodoge/internal/delivery/http/middleware"
	"discodoge/internal/domain"
	"discodoge/internal/services"
)

const (
	loginPath     = "/account/login"
	dashboardPath = "/account/dashboard"
	upcomingLimit = 3
)

// SessionService is the part of the session store used by the pages.
type SessionService interface {
	Login(ctx context.Context, w http.ResponseWriter, sess *domain.Session, identifier, secret string) (*domain.User, error)
	Logout(ctx context.Context, w http.ResponseWriter, sess *domain.Session)
	CurrentUser(ctx context.Context, sess *domain.Session) (*domain.User, error)
}

// view is the data passed to every page template.
type view struct {
	Title      string
	User       *domain.User
	Message    string
	Status     int
	Events     []*domain.Event
	Event      *domain.Event
	Form       *services.EventForm
	Location   *domain.Location
	MapURL     string
	Next       string
	Identifier string
}

type Handler struct {
	Logger   *slog.Logger
	Events   domain.EventService
	Sessions SessionService
	Geocoder domain.Geocoder
	MapsKey  string
	views    *renderer
}

// NewHandler parses the embedded templates. geocoder may be nil, in which case event pages
// render without a map.
func NewHandler(logger *slog.Logger, events domain.EventService, sessions SessionService, geocoder domain.Geocoder, mapsKey string) (*Handler, error) {
	views, err := newRenderer()
	if err != nil {
		return nil, err
	}
	return &Handler{
		Logger:   logger,
		Events:   events,
		Sessions: sessions,
		Geocoder: geocoder,
		MapsKey:  mapsKey,
		views:    views,
	}, nil
}

// Register adds the page routes to mux. The catch-all "/" renders the 404 page.
func (h *Handler) Register(mux *http.ServeMux) {
	requireLogin := middleware.RequireLogin(h.Sessions, h.Logger, loginPath)

	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET /events", h.ListEvents)
	mux.HandleFunc("GET /events/{slug}", h.ShowEvent)
	mux.HandleFunc("GET /events/edit/{id}", requireLogin(h.EditEvent))
	mux.HandleFunc("POST /events/edit/{id}", requireLogin(h.UpdateEvent))
	mux.HandleFunc("POST /events/delete/{id}", requireLogin(h.DeleteEvent))
	mux.HandleFunc("GET "+loginPath, h.LoginForm)
	mux.HandleFunc("POST "+loginPath, h.Login)
	mux.HandleFunc("POST /account/logout", h.Logout)
	mux.HandleFunc("GET "+dashboardPath, requireLogin(h.Dashboard))
	mux.HandleFunc("/", h.NotFound)
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	events, err := h.Events.UpcomingEvents(r.Context(), upcomingLimit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "home", &view{Title: "Home", Events: events})
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Events.ListEvents(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "events", &view{Title: "Events", Events: events})
}

// ShowEvent renders one event. A geocoding failure only drops the map.
func (h *Handler) ShowEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.Events.GetEventBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	v := &view{Title: event.Name, Event: event}
	if h.Geocoder != nil {
		loc, err := h.Geocoder.Geocode(r.Context(), event.Address)
		if err != nil {
			h.Logger.WarnContext(r.Context(), "geocode failed", "slug", event.Slug, "err", err)
		} else {
			v.Location = loc
			v.MapURL = h.mapURL(loc)
		}
	}
	h.render(w, r, http.StatusOK, "event", v)
}

func (h *Handler) EditEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.Events.GetEventByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	form := services.NewEventForm(h.Events, event)
	h.render(w, r, http.StatusOK, "edit", &view{Title: "Edit Event", Form: form})
}

// UpdateEvent applies the posted fields to the stored event and submits it. Fields absent
// from the post keep their stored value.
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest)
		return
	}
	event, err := h.Events.GetEventByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	form := services.NewEventForm(h.Events, event)
	for _, name := range domain.EventFieldNames {
		if _, ok := r.PostForm[name]; ok {
			_ = form.SetField(name, r.PostForm.Get(name))
		}
	}

	out, err := form.Submit(r.Context())
	if err != nil {
		var verr *domain.ValidationError
		if !errors.As(err, &verr) {
			h.Logger.ErrorContext(r.Context(), "update event failed", "event_id", form.EventID(), "err", err)
		}
		h.render(w, r, http.StatusUnprocessableEntity, "edit", &view{Title: "Edit Event", Form: form, Message: form.Message})
		return
	}
	http.Redirect(w, r, out.Redirect, http.StatusSeeOther)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.Events.DeleteEvent(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	next := "/events"
	if candidate := r.PostFormValue("next"); isLocalPath(candidate) {
		next = candidate
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login", &view{Title: "User Login", Next: r.URL.Query().Get("next")})
}

// Login makes one attempt and redirects on success. On failure the page is re-rendered with
// the session's last error.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest)
		return
	}
	identifier := strings.TrimSpace(r.PostForm.Get("identifier"))
	next := r.PostForm.Get("next")
	v := &view{Title: "User Login", Identifier: identifier, Next: next}

	if identifier == "" || r.PostForm.Get("password") == "" {
		v.Message = services.MsgFillAllFields
		h.render(w, r, http.StatusBadRequest, "login", v)
		return
	}

	sess := sessionFrom(r)
	if _, err := h.Sessions.Login(r.Context(), w, sess, identifier, r.PostForm.Get("password")); err != nil {
		status, _, _ := helpers.ErrorStatus(err)
		v.Message = sess.LastError
		h.render(w, r, status, "login", v)
		return
	}
	if !isLocalPath(next) {
		next = dashboardPath
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Logout(r.Context(), w, sessionFrom(r))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	events, err := h.Events.ListMyEvents(r.Context(), userID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "dashboard", &view{Title: "User Dashboard", Events: events})
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusNotFound, "notfound", &view{Title: "Page Not Found"})
}

// fail renders the page for err: 404 for a missing record, the upstream status otherwise.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		h.NotFound(w, r)
		return
	}
	status, _, _ := helpers.ErrorStatus(err)
	if status < http.StatusBadRequest {
		status = http.StatusBadGateway
	}
	h.Logger.ErrorContext(r.Context(), "page failed", "path", r.URL.Path, "status", status, "err", err)
	h.renderError(w, r, status)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int) {
	h.render(w, r, status, "error", &view{Title: http.StatusText(status), Status: status})
}

// render fills in the session user and writes the page.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, v *view) {
	v.User = h.currentUser(w, r)
	if err := h.views.render(w, status, page, v); err != nil {
		h.Logger.ErrorContext(r.Context(), "render failed", "page", page, "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// currentUser resolves the session user for the page header. Lookup failures render the page
// anonymously; a rejected credential is logged out.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) *domain.User {
	sess, ok := domain.SessionFromContext(r.Context())
	if !ok {
		return nil
	}
	user, err := h.Sessions.CurrentUser(r.Context(), sess)
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		h.Sessions.Logout(r.Context(), w, sess)
		return nil
	case err != nil:
		h.Logger.WarnContext(r.Context(), "resolve user failed", "err", err)
		return nil
	}
	return user
}

func (h *Handler) mapURL(loc *domain.Location) string {
	if h.MapsKey == "" {
		return ""
	}
	q := url.Values{}
	q.Set("key", h.MapsKey)
	q.Set("q", loc.FormattedAddress)
	if loc.FormattedAddress == "" {
		q.Set("q", formatCoords(loc))
	}
	return "https://www.google.com/maps/embed/v1/place?" + q.Encode()
}

func formatCoords(loc *domain.Location) string {
	return strconv.FormatFloat(loc.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(loc.Lng, 'f', -1, 64)
}

func sessionFrom(r *http.Request) *domain.Session {
	if sess, ok := domain.SessionFromContext(r.Context()); ok {
		return sess
	}
	return &domain.Session{}
}

// isLocalPath accepts only same-site absolute paths as redirect targets.
func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\")
}
