package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/juju/clock"
	"go.uber.org/zap"

	"github.com/d60-Lab/college-connect/config"
	"github.com/d60-Lab/college-connect/internal/api/handler"
	"github.com/d60-Lab/college-connect/internal/api/router"
	"github.com/d60-Lab/college-connect/internal/app"
	"github.com/d60-Lab/college-connect/internal/middleware"
	"github.com/d60-Lab/college-connect/pkg/logger"
	"github.com/d60-Lab/college-connect/pkg/tracing"
)

var version = "dev"

// @title College Connect API
// @version 1.0
// @description College-verified social network: profiles, verification, posts, notifications and direct messages.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(cfg); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	sentryEnabled := cfg.Sentry.DSN != ""
	if sentryEnabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			Release:          version,
			TracesSampleRate: cfg.Sentry.SampleRate,
		}); err != nil {
			return err
		}
		defer sentry.Flush(2 * time.Second)
	}

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	if err := middleware.RegisterValidators(cfg.Signup.AllowedEmailSuffixes); err != nil {
		return err
	}

	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg, store, clock.WallClock)
	if err != nil {
		_ = store.Close()
		return err
	}
	defer a.Close()

	stopReview := a.Services.ReviewWorker.Start()

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, 5*time.Minute)
	defer limiter.Stop()
	deps := router.Deps{
		Handler: handler.NewHandler(a.Services, a.Blobs, handler.Options{
			Version:              version,
			AllowedEmailSuffixes: cfg.Signup.AllowedEmailSuffixes,
		}),
		Auth:          a.Services.Auth,
		Metrics:       a.Metrics,
		Gatherer:      a.Registry,
		SentryEnabled: sentryEnabled,
	}
	if cfg.RateLimit.Enabled {
		deps.RateLimiter = limiter
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Setup(cfg, deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := stopReview(shutdownCtx); err != nil {
		logger.Warn("review worker stop", zap.Error(err))
	}
	return nil
}
