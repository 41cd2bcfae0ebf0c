// Command authgate runs the Google OAuth authentication gateway.
//
// It exchanges authorization codes for Google profiles and hands the browser
// a signed session token; downstream services verify that token via /auth/verify
// without talking to Google.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"

	"authgate/config"
	"authgate/internal/auth"
	"authgate/internal/middleware"
	"authgate/pkg/cookie"
	"authgate/pkg/health"
	"authgate/pkg/logger"
	"authgate/pkg/oauth"
	"authgate/pkg/redis"
	"authgate/pkg/state"
	"authgate/pkg/token"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		slog.Error("gateway exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.NewWithSentry(cfg.Sentry, middleware.RequestIDExtractor())

	// The same redirect URI must be sent with the authorization URL and the
	// code exchange; Google rejects the exchange otherwise.
	redirectURI := cfg.Google.RedirectURL
	if redirectURI == "" {
		redirectURI = cfg.CallbackURL()
	}

	provider, err := oauth.NewGoogleProvider(oauth.GoogleConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       cfg.Google.Scopes,
	})
	if err != nil {
		return err
	}

	checks := health.Checks{}

	// Redis-backed state survives restarts and is shared across replicas;
	// without it pending logins live in process memory.
	var states state.Store = state.NewMemoryStore()
	var redisClient goredis.UniversalClient
	if cfg.RedisURL != "" {
		redisClient, err = redis.Open(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		states = state.NewRedisStore(redisClient)
		checks["redis"] = redis.Healthcheck(redisClient)
		log.Info("using redis state store")
	} else {
		log.Info("using in-memory state store")
	}

	tokens, err := token.NewService(cfg.JWTSecret)
	if err != nil {
		return err
	}

	cookies := cookie.New(
		cookie.WithSecret(cfg.SessionSecret),
		cookie.WithSecure(cfg.IsProduction()),
	)

	frontends := auth.NewFrontends(cfg.FrontendURLs)
	svc := auth.NewService(provider, states, tokens, redirectURI, log)
	handler := auth.NewHandler(svc, cookies, frontends, cfg.IsProduction(), log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recover(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowOriginFunc:  frontends.Allows,
		AllowCredentials: true,
	}))

	r.Mount("/auth", handler.Routes())
	r.Get("/livez", health.LivenessHandler())
	r.Get("/readyz", health.ReadinessHandler(checks, health.WithLogger(log)))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("gateway starting",
			slog.String("address", server.Addr),
			slog.String("environment", cfg.Environment),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down gateway")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info("shutdown completed")
	return nil
}
