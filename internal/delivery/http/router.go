package http

import (
	"log/slog"
	"net/http"

	"discodoge/internal/delivery/http/controllers"
	"discodoge/internal/delivery/http/middleware"

	httpSwagger "github.com/swaggo/http-swagger"
)

// PageRoutes registers the server-rendered pages.
type PageRoutes interface {
	Register(mux *http.ServeMux)
}

// NewRouter initializes the HTTP router with all application routes.
// API routes are registered without method patterns so AllowMethods answers 405 with an
// exact Allow header.
func NewRouter(
	logger *slog.Logger,
	resolver middleware.PrincipalResolver,
	eventController *controllers.EventController,
	authController *controllers.AuthController,
	healthController *controllers.HealthController,
	pages PageRoutes,
) *http.ServeMux {
	mux := http.NewServeMux()
	get := middleware.AllowMethods(http.MethodGet)
	post := middleware.AllowMethods(http.MethodPost)
	requireAuth := middleware.RequireAuth(resolver, logger)

	// Events
	mux.HandleFunc("/api/events", get(eventController.List))
	mux.HandleFunc("/api/events/me", get(requireAuth(eventController.ListMine)))
	mux.HandleFunc("/api/events/{slug}", get(eventController.GetBySlug))

	// Auth
	mux.HandleFunc("/api/login", post(authController.Login))
	mux.HandleFunc("/api/register", post(authController.Register))
	mux.HandleFunc("/api/logout", post(authController.Logout))
	mux.HandleFunc("/api/user", get(requireAuth(authController.Me)))

	mux.HandleFunc("/healthz", get(healthController.Health))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	if pages != nil {
		pages.Register(mux)
	}
	return mux
}

// NewHandler wraps the router with the middleware chain shared by every route.
func NewHandler(logger *slog.Logger, loader middleware.SessionLoader, allowedOrigins []string, mux http.Handler) http.Handler {
	var h http.Handler = mux
	h = middleware.Session(loader, h)
	h = middleware.CORS(allowedOrigins, h)
	h = middleware.Recover(logger, h)
	h = middleware.LoggingMiddleware(logger, h)
	return middleware.RequestID(h)
}
