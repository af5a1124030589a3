package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	h "discodoge/internal/delivery/http/helpers"
	"discodoge/internal/domain"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const minPasswordLength = 6

// SessionService is the part of the session store used by the auth endpoints.
type SessionService interface {
	Login(ctx context.Context, w http.ResponseWriter, sess *domain.Session, identifier, secret string) (*domain.User, error)
	Register(ctx context.Context, w http.ResponseWriter, sess *domain.Session, username, email, secret string) (*domain.User, error)
	Logout(ctx context.Context, w http.ResponseWriter, sess *domain.Session)
	CurrentUser(ctx context.Context, sess *domain.Session) (*domain.User, error)
}

// LoginRequest is the request body for POST /api/login. Email is accepted as an alias for Identifier.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

func (l LoginRequest) identifier() string {
	if id := strings.TrimSpace(l.Identifier); id != "" {
		return id
	}
	return strings.TrimSpace(l.Email)
}

// Validate implements Validator.
func (l LoginRequest) Validate() []string {
	var errs []string
	if l.identifier() == "" {
		errs = append(errs, "identifier is required")
	}
	if l.Password == "" {
		errs = append(errs, "password is required")
	}
	return errs
}

// RegisterRequest is the request body for POST /api/register
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate implements Validator.
func (s RegisterRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(s.Username) == "" {
		errs = append(errs, "username is required")
	}
	email := strings.TrimSpace(strings.ToLower(s.Email))
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	if s.Password == "" {
		errs = append(errs, "password is required")
	} else if len(s.Password) < minPasswordLength {
		errs = append(errs, "password must be at least 6 characters")
	}
	return errs
}

// UserResponse wraps the principal returned by the auth endpoints.
type UserResponse struct {
	User *domain.User `json:"user"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

type AuthController struct {
	Logger   *slog.Logger
	Sessions SessionService
}

func NewAuthController(logger *slog.Logger, sessions SessionService) *AuthController {
	return &AuthController{
		Logger:   logger,
		Sessions: sessions,
	}
}

// Login godoc
// @Summary Log in
// @Description Exchange an identifier (username or email) and password for a session cookie. Upstream rejections keep their status and message.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} helpers.APIResponse "data.user is the logged-in user; sets the token cookie"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 405 {object} helpers.APIResponse "error.code: method_not_allowed"
// @Failure 502 {object} helpers.APIResponse "error.code: bad_gateway"
// @Router /api/login [post]
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	user, err := c.Sessions.Login(r.Context(), w, sessionFrom(r), req.identifier(), req.Password)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, UserResponse{User: user})
}

// Register godoc
// @Summary Register
// @Description Create an account in the content API and log it in.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Registration data"
// @Success 200 {object} helpers.APIResponse "data.user is the new user; sets the token cookie"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 502 {object} helpers.APIResponse "error.code: bad_gateway"
// @Router /api/register [post]
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	email := strings.TrimSpace(strings.ToLower(req.Email))
	user, err := c.Sessions.Register(r.Context(), w, sessionFrom(r), strings.TrimSpace(req.Username), email, req.Password)
	if err != nil {
		h.WriteDomainError(w, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, UserResponse{User: user})
}

// Logout godoc
// @Summary Log out
// @Description Clear the session cookie.
// @Tags auth
// @Produce json
// @Success 200 {object} helpers.APIResponse "data.message: Success"
// @Router /api/logout [post]
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	c.Sessions.Logout(r.Context(), w, sessionFrom(r))
	h.WriteJSONSuccess(w, http.StatusOK, MessageResponse{Message: "Success"})
}

// Me godoc
// @Summary Current user
// @Description Return the user behind the session cookie.
// @Tags auth
// @Produce json
// @Success 200 {object} helpers.APIResponse "data.user is the current user"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /api/user [get]
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	user, err := c.Sessions.CurrentUser(r.Context(), sessionFrom(r))
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		h.WriteDomainError(w, err)
		return
	}
	if user == nil {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "not authenticated")
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, UserResponse{User: user})
}

// sessionFrom returns the request session, or an empty one when no session middleware ran.
func sessionFrom(r *http.Request) *domain.Session {
	if sess, ok := domain.SessionFromContext(r.Context()); ok {
		return sess
	}
	return &domain.Session{}
}
