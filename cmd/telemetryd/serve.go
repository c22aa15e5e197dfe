package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Sternrassler/error-telemetry/pkg/config"
	"github.com/Sternrassler/error-telemetry/pkg/environment"
	"github.com/Sternrassler/error-telemetry/pkg/logging"
	"github.com/Sternrassler/error-telemetry/pkg/sink"
	"github.com/Sternrassler/error-telemetry/pkg/store"
	"github.com/Sternrassler/error-telemetry/pkg/telemetry"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the telemetry HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	svc, redisClient, err := buildService(ctx, cfg)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      newAPI(svc, cfg.Server.MaxBodyBytes),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting telemetry API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	case serveErr = <-errCh:
		log.Error().Err(serveErr).Msg("Server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP server shutdown incomplete")
	}
	if err := svc.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Telemetry service shutdown incomplete")
	}
	return serveErr
}

// buildService wires the store and sinks named by cfg into a telemetry
// service. The returned Redis client is nil when no Redis address is set.
func buildService(ctx context.Context, cfg config.Config) (*telemetry.Service, *redis.Client, error) {
	snapshotter := environment.NewSnapshotter(cfg.AppVersion, logging.NewLogger("environment"))
	opts := []telemetry.Option{
		telemetry.WithLogger(logging.NewLogger("telemetry")),
		telemetry.WithEnvironment(snapshotter.Capture),
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" && cfg.Telemetry.EnableLocalStorage {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			redisClient.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		key := store.Key{Namespace: cfg.Redis.Namespace}
		opts = append(opts, telemetry.WithStore(store.NewRedis(redisClient, key, cfg.Telemetry.Retention.MaxAge())))
		log.Info().Str("addr", cfg.Redis.Addr).Str("key", key.String()).Msg("Connected to Redis")
	}

	if cfg.Sentry.DSN != "" {
		reporter, err := sink.NewSentry(sink.SentryConfig{
			DSN:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
			Release:     cfg.AppVersion,
		}, logging.NewLogger("sentry"))
		if err != nil {
			closeClient(redisClient)
			return nil, nil, fmt.Errorf("create sentry sink: %w", err)
		}
		opts = append(opts, telemetry.WithReporter(reporter))
	}

	if cfg.Remote.URL != "" {
		remote, err := sink.NewHTTP(sink.HTTPConfig{
			URL:     cfg.Remote.URL,
			Headers: cfg.Remote.Headers,
			Timeout: cfg.Remote.Timeout,
			Retry:   cfg.Telemetry.Retry,
		}, logging.NewLogger("remote"))
		if err != nil {
			closeClient(redisClient)
			return nil, nil, fmt.Errorf("create remote sink: %w", err)
		}
		opts = append(opts, telemetry.WithRemoteSink(remote))
	}

	svc, err := telemetry.New(cfg.Telemetry, opts...)
	if err != nil {
		closeClient(redisClient)
		return nil, nil, err
	}
	return svc, redisClient, nil
}

func closeClient(c *redis.Client) {
	if c != nil {
		c.Close()
	}
}
