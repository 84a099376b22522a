package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/consultly/gateway/internal/auth"
	"github.com/consultly/gateway/internal/breaker"
	"github.com/consultly/gateway/internal/config"
	"github.com/consultly/gateway/internal/email"
	"github.com/consultly/gateway/internal/ratelimit"
	"github.com/consultly/gateway/internal/server"
	"github.com/consultly/gateway/internal/telemetry"
	"github.com/consultly/gateway/internal/tenant"
	"github.com/consultly/gateway/internal/user"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	shutdownTracer, err := telemetry.Init("consultly-gateway", logger)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error("failed to shutdown tracer", slog.String("error", err.Error()))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry, err := tenant.NewRegistry(cfg.Tenants)
	if err != nil {
		log.Fatalf("Failed to load tenants: %v", err)
	}

	directory, err := user.OpenSQLite(cfg.Users.SQLitePath)
	if err != nil {
		log.Fatalf("Failed to open user directory: %v", err)
	}
	defer directory.Close()

	// One breaker per external dependency, for the process lifetime.
	emailBreaker := breaker.New("postmark", 5, 60*time.Second)
	sender := email.NewSender(
		cfg.Email.PostmarkServerToken,
		cfg.Email.PostmarkAccountToken,
		cfg.Email.From,
		emailBreaker,
		logger,
	)
	store := ratelimit.NewStore(ctx, cfg.RateLimit.RedisURL, logger)
	limiter := ratelimit.NewLimiter(store, ratelimit.DefaultPolicy())

	authenticator := auth.New(registry, directory, cfg.Auth.DefaultTenant, logger)
	gw := server.NewGateway(authenticator, limiter, server.DefaultPublicPaths(), cfg.Auth.DefaultTenant)

	srv := server.New(cfg.Server.Port, logger, gw)
	srv.Router.Post("/api/v1/notifications/email", server.EmailHandler(sender))
	srv.Router.Get("/internal/breakers", server.BreakerStatusHandler(emailBreaker))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Fatalf("Server failed: %v", err)
	case sig := <-sigCh:
		logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.String("error", err.Error()))
	}
}
