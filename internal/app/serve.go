package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dunamismax/imagetools/internal/api"
	"github.com/dunamismax/imagetools/internal/catalog"
	"github.com/dunamismax/imagetools/internal/config"
	"github.com/dunamismax/imagetools/internal/pipeline"
	"github.com/dunamismax/imagetools/internal/ratelimit"
	"github.com/dunamismax/imagetools/internal/session"
	"github.com/dunamismax/imagetools/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
)

const (
	serviceName     = "imagetools-api"
	shutdownTimeout = 10 * time.Second
)

// Serve runs the HTTP API until ctx is canceled, then drains in-flight
// requests and closes every open session.
func Serve(ctx context.Context, cfg config.Config, logger *logrus.Logger) error {
	shutdownTracing, err := telemetry.SetupTracing(ctx, telemetry.TraceConfig{
		ServiceName:  serviceName,
		Exporter:     cfg.Trace.Exporter,
		OTLPEndpoint: cfg.Trace.OTLPEndpoint,
		OTLPInsecure: cfg.Trace.OTLPInsecure,
	}, logger.WithField("component", "telemetry"))
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.WithError(err).Warn("tracing shutdown failed")
		}
	}()

	if err := pipeline.Startup(); err != nil {
		return fmt.Errorf("start image runtime: %w", err)
	}
	defer pipeline.Shutdown()

	p, err := pipeline.New()
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	registry := catalog.Default()
	sessions := session.NewManager(logger.WithField("component", "session"), registry, p, session.Config{
		MaxUploadBytes:      cfg.Session.MaxUploadBytes,
		SessionTTL:          cfg.Session.TTL,
		MaxActiveTransforms: cfg.Session.MaxActiveTransforms,
	})
	defer sessions.Close()

	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sessions.Run(sweepCtx, cfg.Session.SweepInterval)

	limiter, closeLimiter, err := newRateLimiter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeLimiter()

	server := api.NewServer(logger.WithField("component", "api"), registry, sessions, api.Options{
		RateLimiter:           limiter,
		RateLimitUserIDHeader: cfg.RateLimit.UserHeader,
		Tracer:                otel.Tracer("github.com/dunamismax/imagetools/internal/api"),
	})

	httpServer := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":    cfg.API.Addr,
			"runtime": pipeline.Runtime(),
			"tools":   registry.Len(),
		}).Info("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(drainCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func newRateLimiter(ctx context.Context, cfg config.Config, logger *logrus.Logger) (api.RateLimiter, func(), error) {
	if !cfg.RateLimit.Enabled {
		return nil, func() {}, nil
	}

	client := redis.NewClient(cfg.Redis.Options())
	closeClient := func() {
		if err := client.Close(); err != nil {
			logger.WithError(err).Warn("redis client close failed")
		}
	}

	limiter, err := ratelimit.NewRedisTokenBucket(client, ratelimit.Options{
		Capacity: cfg.RateLimit.Capacity,
		Window:   cfg.RateLimit.Window,
	})
	if err != nil {
		closeClient()
		return nil, nil, fmt.Errorf("build rate limiter: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := limiter.Ping(pingCtx); err != nil {
		logger.WithError(err).Warn("redis unreachable, rate limiting fails open until it recovers")
	}

	logger.WithFields(logrus.Fields{
		"redis_addr": cfg.Redis.Addr,
		"capacity":   cfg.RateLimit.Capacity,
		"window":     cfg.RateLimit.Window,
	}).Info("rate limiting enabled")
	return limiter, closeClient, nil
}
