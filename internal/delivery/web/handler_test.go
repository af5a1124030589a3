package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"discodoge/internal/delivery/http/middleware"
	"discodoge/internal/domain"
	"discodoge/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeEventService implements domain.EventService for page tests.
type fakeEventService struct {
	events      []*domain.Event
	err         error
	updateErr   error
	updateCalls int
	lastFields  domain.EventFields
	deleted     []string
}

func (f *fakeEventService) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	return f.events, f.err
}

func (f *fakeEventService) UpcomingEvents(ctx context.Context, limit int) ([]*domain.Event, error) {
	if len(f.events) > limit {
		return f.events[:limit], f.err
	}
	return f.events, f.err
}

func (f *fakeEventService) ListEventsBySlug(ctx context.Context, slug string) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range f.events {
		if e.Slug == slug {
			out = append(out, e)
		}
	}
	return out, f.err
}

func (f *fakeEventService) GetEventBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	events, _ := f.ListEventsBySlug(ctx, slug)
	if len(events) == 0 {
		return nil, domain.ErrNotFound
	}
	return events[0], nil
}

func (f *fakeEventService) GetEventByID(ctx context.Context, id string) (*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, e := range f.events {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventService) ListMyEvents(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range f.events {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	return out, f.err
}

func (f *fakeEventService) UpdateEvent(ctx context.Context, id string, fields domain.EventFields) (*domain.Event, error) {
	f.updateCalls++
	f.lastFields = fields
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &domain.Event{ID: id, Slug: strings.ReplaceAll(strings.ToLower(fields.Name), " ", "-"), Name: fields.Name}, nil
}

func (f *fakeEventService) DeleteEvent(ctx context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

// fakeSessions implements SessionService and middleware.SessionLoader.
type fakeSessions struct {
	user     *domain.User
	loginErr error
}

func (f *fakeSessions) Load(w http.ResponseWriter, r *http.Request) *domain.Session {
	if c, err := r.Cookie("token"); err == nil && c.Value != "" {
		return &domain.Session{Token: c.Value}
	}
	return &domain.Session{}
}

func (f *fakeSessions) Login(ctx context.Context, w http.ResponseWriter, sess *domain.Session, identifier, secret string) (*domain.User, error) {
	if f.loginErr != nil {
		authErr := domain.NewAuthError(f.loginErr)
		sess.LastError = authErr.Message
		return nil, authErr
	}
	http.SetCookie(w, &http.Cookie{Name: "token", Value: "jwt-1", HttpOnly: true})
	sess.Token, sess.User = "jwt-1", f.user
	return f.user, nil
}

func (f *fakeSessions) Logout(ctx context.Context, w http.ResponseWriter, sess *domain.Session) {
	http.SetCookie(w, &http.Cookie{Name: "token", MaxAge: -1})
	sess.Token, sess.User = "", nil
}

func (f *fakeSessions) CurrentUser(ctx context.Context, sess *domain.Session) (*domain.User, error) {
	if !sess.Authenticated() {
		return nil, nil
	}
	return f.user, nil
}

type fakeGeocoder struct {
	loc   *domain.Location
	err   error
	calls int
}

func (f *fakeGeocoder) Geocode(ctx context.Context, address string) (*domain.Location, error) {
	f.calls++
	return f.loc, f.err
}

func dogeFest() *domain.Event {
	return &domain.Event{
		ID: "1", Slug: "doge-fest", Name: "Doge Fest", Performers: "Shiba Inu", Venue: "Moon Hall",
		Address: "1 Moon St", Date: "2022-05-20T00:00:00.000Z", Time: "8:00 PM", Description: "much groove", OwnerID: "7",
	}
}

type pageFixture struct {
	events   *fakeEventService
	sessions *fakeSessions
	geocoder *fakeGeocoder
	handler  http.Handler
}

func newPageFixture(t *testing.T) *pageFixture {
	t.Helper()
	f := &pageFixture{
		events:   &fakeEventService{events: []*domain.Event{dogeFest()}},
		sessions: &fakeSessions{user: &domain.User{ID: "7", DisplayName: "doge"}},
		geocoder: &fakeGeocoder{loc: &domain.Location{Lat: 40.7, Lng: -73.9, FormattedAddress: "1 Moon St, NY"}},
	}
	h, err := NewHandler(testLogger, f.events, f.sessions, f.geocoder, "maps-key")
	require.NoError(t, err)
	mux := http.NewServeMux()
	h.Register(mux)
	f.handler = middleware.Session(f.sessions, mux)
	return f
}

func (f *pageFixture) do(method, target string, form url.Values, loggedIn bool) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if loggedIn {
		req.AddCookie(&http.Cookie{Name: "token", Value: "jwt-1"})
	}
	rr := httptest.NewRecorder()
	f.handler.ServeHTTP(rr, req)
	return rr
}

func editForm(overrides map[string]string) url.Values {
	form := url.Values{
		"name":        {"Doge Fest"},
		"performers":  {"Shiba Inu"},
		"venue":       {"Moon Hall"},
		"address":     {"1 Moon St"},
		"date":        {"2022-05-20"},
		"time":        {"8:00 PM"},
		"description": {"much groove"},
	}
	for k, v := range overrides {
		form.Set(k, v)
	}
	return form
}

func TestPages_Public(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantBody   []string
	}{
		{name: "home", target: "/", wantStatus: http.StatusOK, wantBody: []string{"Welcome to the Party!", "Doge Fest", "5/20/2022"}},
		{name: "events", target: "/events", wantStatus: http.StatusOK, wantBody: []string{"<h1>Events</h1>", "/events/doge-fest"}},
		{name: "detail", target: "/events/doge-fest", wantStatus: http.StatusOK, wantBody: []string{"Moon Hall", "data-lat=\"40.7\"", "maps/embed/v1/place"}},
		{name: "unknown slug", target: "/events/missing", wantStatus: http.StatusNotFound, wantBody: []string{"Sorry, there are no Doges here"}},
		{name: "unknown path", target: "/much/nothing", wantStatus: http.StatusNotFound, wantBody: []string{"Sorry, there are no Doges here"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := newPageFixture(t).do(http.MethodGet, tt.target, nil, false)

			require.Equal(t, tt.wantStatus, rr.Code)
			for _, want := range tt.wantBody {
				assert.Contains(t, rr.Body.String(), want)
			}
		})
	}
}

func TestPages_EmptyEventList(t *testing.T) {
	f := newPageFixture(t)
	f.events.events = nil

	rr := f.do(http.MethodGet, "/events", nil, false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No events to show")
}

func TestPages_DetailRendersWithoutMapWhenGeocodingFails(t *testing.T) {
	f := newPageFixture(t)
	f.geocoder.loc = nil
	f.geocoder.err = domain.ErrNotFound

	rr := f.do(http.MethodGet, "/events/doge-fest", nil, false)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, f.geocoder.calls)
	assert.Contains(t, rr.Body.String(), "Doge Fest")
	assert.NotContains(t, rr.Body.String(), "data-lat")
}

func TestPages_UpstreamFailure(t *testing.T) {
	f := newPageFixture(t)
	f.events.err = fmt.Errorf("%w: refused", domain.ErrNetwork)

	rr := f.do(http.MethodGet, "/events", nil, false)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestPages_EditRequiresLogin(t *testing.T) {
	f := newPageFixture(t)

	rr := f.do(http.MethodGet, "/events/edit/1", nil, false)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Header().Get("Location"), "/account/login?next="))

	rr = f.do(http.MethodGet, "/events/edit/1", nil, true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `value="2022-05-20"`)
}

func TestPages_UpdateEvent(t *testing.T) {
	tests := []struct {
		name         string
		form         url.Values
		updateErr    error
		wantStatus   int
		wantCalls    int
		wantLocation string
		wantMessage  string
	}{
		{
			name:         "success redirects to new slug",
			form:         editForm(map[string]string{"name": "Doge Fest Two"}),
			wantStatus:   http.StatusSeeOther,
			wantCalls:    1,
			wantLocation: "/events/doge-fest-two",
		},
		{
			name:        "empty venue is rejected without a call",
			form:        editForm(map[string]string{"venue": ""}),
			wantStatus:  http.StatusUnprocessableEntity,
			wantCalls:   0,
			wantMessage: services.MsgFillAllFields,
		},
		{
			name:        "remote failure shows generic message",
			form:        editForm(nil),
			updateErr:   &domain.RemoteError{Status: http.StatusForbidden, Message: "Forbidden"},
			wantStatus:  http.StatusUnprocessableEntity,
			wantCalls:   1,
			wantMessage: services.MsgSomethingWrong,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPageFixture(t)
			f.events.updateErr = tt.updateErr

			rr := f.do(http.MethodPost, "/events/edit/1", tt.form, true)

			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantCalls, f.events.updateCalls)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, rr.Header().Get("Location"))
				return
			}
			assert.Contains(t, rr.Body.String(), tt.wantMessage)
			assert.Contains(t, rr.Body.String(), `value="`+tt.form.Get("name")+`"`, "draft is re-rendered")
		})
	}
}

func TestPages_UpdateEvent_KeepsUnpostedFields(t *testing.T) {
	f := newPageFixture(t)

	rr := f.do(http.MethodPost, "/events/edit/1", url.Values{"time": {"9:00 PM"}}, true)

	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "9:00 PM", f.events.lastFields.Time)
	assert.Equal(t, "Moon Hall", f.events.lastFields.Venue)
	assert.Equal(t, "2022-05-20", f.events.lastFields.Date)
}

func TestPages_UpdateEvent_UnknownID(t *testing.T) {
	rr := newPageFixture(t).do(http.MethodPost, "/events/edit/404", editForm(nil), true)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPages_DeleteEvent(t *testing.T) {
	f := newPageFixture(t)

	rr := f.do(http.MethodPost, "/events/delete/1", url.Values{"next": {"/account/dashboard"}}, true)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/account/dashboard", rr.Header().Get("Location"))
	assert.Equal(t, []string{"1"}, f.events.deleted)

	rr = f.do(http.MethodPost, "/events/delete/1", url.Values{"next": {"//evil.example"}}, true)
	assert.Equal(t, "/events", rr.Header().Get("Location"))
}

func TestPages_Login(t *testing.T) {
	tests := []struct {
		name         string
		form         url.Values
		loginErr     error
		wantStatus   int
		wantLocation string
		wantBody     string
	}{
		{
			name:         "success goes to next",
			form:         url.Values{"identifier": {"doge@example.com"}, "password": {"muchsecret"}, "next": {"/events/edit/1"}},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/events/edit/1",
		},
		{
			name:         "success defaults to dashboard",
			form:         url.Values{"identifier": {"doge@example.com"}, "password": {"muchsecret"}, "next": {"https://evil.example"}},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/account/dashboard",
		},
		{
			name:       "rejected shows server message",
			form:       url.Values{"identifier": {"doge@example.com"}, "password": {"wrong"}},
			loginErr:   &domain.RemoteError{Status: http.StatusBadRequest, Message: "Invalid identifier or password"},
			wantStatus: http.StatusBadRequest,
			wantBody:   "Invalid identifier or password",
		},
		{
			name:       "network failure",
			form:       url.Values{"identifier": {"doge@example.com"}, "password": {"muchsecret"}},
			loginErr:   errors.New("dial tcp: refused"),
			wantStatus: http.StatusBadGateway,
			wantBody:   "could not reach the authentication service",
		},
		{
			name:       "missing password",
			form:       url.Values{"identifier": {"doge@example.com"}},
			wantStatus: http.StatusBadRequest,
			wantBody:   services.MsgFillAllFields,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPageFixture(t)
			f.sessions.loginErr = tt.loginErr

			rr := f.do(http.MethodPost, "/account/login", tt.form, false)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, rr.Header().Get("Location"))
				return
			}
			assert.Contains(t, rr.Body.String(), tt.wantBody)
		})
	}
}

func TestPages_DashboardAndLogout(t *testing.T) {
	f := newPageFixture(t)

	rr := f.do(http.MethodGet, "/account/dashboard", nil, false)
	assert.Equal(t, http.StatusSeeOther, rr.Code)

	rr = f.do(http.MethodGet, "/account/dashboard", nil, true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "My Events")
	assert.Contains(t, rr.Body.String(), "Doge Fest")
	assert.Contains(t, rr.Body.String(), "Logout (doge)")

	rr = f.do(http.MethodPost, "/account/logout", nil, true)
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
}

func TestDisplayDate(t *testing.T) {
	assert.Equal(t, "5/20/2022", displayDate("2022-05-20"))
	assert.Equal(t, "5/20/2022", displayDate("2022-05-20T00:00:00.000Z"))
	assert.Equal(t, "soon", displayDate("soon"))
}
