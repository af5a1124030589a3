package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"discodoge/config"
	_ "discodoge/docs"
	"discodoge/internal/adapters/auth"
	cmsclient "discodoge/internal/adapters/cms"
	"discodoge/internal/adapters/geocode"
	"discodoge/internal/cache"
	delivery "discodoge/internal/delivery/http"
	"discodoge/internal/delivery/http/controllers"
	"discodoge/internal/delivery/web"
	"discodoge/internal/domain"
	cmsrepo "discodoge/internal/repository/cms"
	"discodoge/internal/repository/postgres"
	"discodoge/internal/services"
	"discodoge/internal/session"

	_ "github.com/lib/pq"
)

const shutdownTimeout = 30 * time.Second

// @title Disco Doge API
// @version 1.0
// @description Session-authenticated proxy over the Disco Doge content API.
// @BasePath /
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger()
	slog.SetDefault(logger)

	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}
	cms := cmsclient.NewClient(cfg.APIURL, httpClient)

	redis := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer redis.Close()
	checks := map[string]controllers.Pinger{}
	if redis != nil {
		checks["redis"] = redis
		if err := redis.Ping(context.Background()); err != nil {
			logger.Warn("redis unreachable, principal cache disabled until it recovers", "addr", cfg.RedisAddr, "err", err)
		}
	}

	var eventRepo domain.EventRepository
	switch cfg.EventsSource {
	case config.EventsSourcePostgres:
		db, err := openDB(cfg.DBUrl)
		if err != nil {
			logger.Error("open database", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		checks["postgres"] = dbPinger{db}
		eventRepo = postgres.NewEventRepository(db)
	default:
		eventRepo = cmsrepo.NewEventRepository(cms)
	}
	logger.Info("events source", "source", cfg.EventsSource, "api_url", cfg.APIURL)

	sessions := session.NewStore(logger, cmsclient.NewAuthenticator(cms), auth.NewJWTInspector(), redis, session.Options{
		Secure:   cfg.IsProduction(),
		CacheTTL: cfg.SessionCacheTTL,
	})
	eventService := services.NewEventService(logger, eventRepo, cfg.UpstreamTimeout)

	var geocoder domain.Geocoder
	if cfg.GeocodeAPIKey != "" {
		geocoder = geocode.NewGoogleGeocoder(httpClient, cfg.GeocodeBaseURL, cfg.GeocodeAPIKey)
	} else {
		logger.Warn("GEOCODE_API_KEY not set, event pages render without a map")
	}

	pages, err := web.NewHandler(logger, eventService, sessions, geocoder, cfg.GeocodeAPIKey)
	if err != nil {
		logger.Error("load templates", "err", err)
		os.Exit(1)
	}

	mux := delivery.NewRouter(
		logger,
		sessions,
		controllers.NewEventController(logger, eventService),
		controllers.NewAuthController(logger, sessions),
		controllers.NewHealthController(logger, checks),
		pages,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           delivery.NewHandler(logger, sessions, cfg.AllowedOrigins, mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.UpstreamTimeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "err", err)
	}
	logger.Info("server exited")
}

func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// dbPinger adapts *sql.DB to controllers.Pinger.
type dbPinger struct{ db *sql.DB }

func (p dbPinger) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }
