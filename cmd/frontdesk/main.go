package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/openclinic/frontdesk/internal/api/router"
	"github.com/openclinic/frontdesk/internal/backend"
	"github.com/openclinic/frontdesk/internal/config"
	"github.com/openclinic/frontdesk/internal/directory"
	"github.com/openclinic/frontdesk/internal/display"
	"github.com/openclinic/frontdesk/internal/http/handlers"
	"github.com/openclinic/frontdesk/internal/observability/metrics"
	"github.com/openclinic/frontdesk/internal/poll"
	"github.com/openclinic/frontdesk/internal/queueflow"
	"github.com/openclinic/frontdesk/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting frontdesk",
		"env", cfg.Env,
		"port", cfg.Port,
		"backend", cfg.BackendBaseURL,
	)

	var store directory.Store
	if cfg.UseMemoryDirectory {
		logger.Info("directory cache: in-memory")
		store = directory.NewMemoryStore()
	} else {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		store = directory.NewRedisStore(redis.NewClient(opts))
		logger.Info("directory cache: redis", "addr", cfg.RedisAddr)
	}

	frontdeskMetrics := metrics.NewFrontdeskMetrics(nil)

	client := backend.NewClient(cfg.BackendBaseURL,
		backend.WithTimeout(cfg.BackendTimeout),
		backend.WithLogger(logger),
		backend.WithLatencyObserver(frontdeskMetrics),
	)
	cache := directory.NewCache(client, store, logger)

	queueFlow := queueflow.NewService(client, cache, queueflow.WithLogger(logger))
	board := display.NewService(client, cache, display.WithLogger(logger))
	hub := display.NewHub(logger)

	r := router.New(&router.Config{
		Logger: logger,
		Queues: handlers.NewQueueHandler(handlers.QueueHandlerConfig{
			Flow:    queueFlow,
			Logger:  logger,
			Metrics: frontdeskMetrics,
		}),
		Kiosk: handlers.NewKioskHandler(handlers.KioskHandlerConfig{
			Flow:    queueFlow,
			Logger:  logger,
			Metrics: frontdeskMetrics,
		}),
		Booking: handlers.NewBookingHandler(handlers.BookingHandlerConfig{
			Backend:   client,
			Directory: cache,
			Logger:    logger,
			Metrics:   frontdeskMetrics,
		}),
		Registry: handlers.NewRegistryHandler(handlers.RegistryHandlerConfig{
			Backend: client,
			Cache:   cache,
			Logger:  logger,
		}),
		Appointments: handlers.NewAppointmentsHandler(handlers.AppointmentsHandlerConfig{
			Backend: client,
			Logger:  logger,
		}),
		Display: handlers.NewDisplayHandler(handlers.DisplayHandlerConfig{
			Board:  board,
			Logger: logger,
		}),
		DisplaySocket:      hub,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	pollCtx, cancelPolls := context.WithCancel(context.Background())

	// The display poller feeds connected waiting-room screens; the queue
	// poller keeps the operational snapshot warm so terminal polls hit a
	// fresh directory cache.
	displayPoller := poll.NewRunner("display", cfg.DisplayPollInterval, func(ctx context.Context, silent bool) error {
		b, err := board.Board(ctx)
		if err != nil {
			frontdeskMetrics.ObservePoll("display", "error")
			return err
		}
		frontdeskMetrics.ObservePoll("display", "ok")
		hub.Broadcast(b)
		return nil
	}, logger)

	queuePoller := poll.NewRunner("queues", cfg.QueuePollInterval, func(ctx context.Context, silent bool) error {
		if _, err := queueFlow.Snapshot(ctx, queueflow.RoleDisplay); err != nil {
			frontdeskMetrics.ObservePoll("queues", "error")
			return err
		}
		frontdeskMetrics.ObservePoll("queues", "ok")
		return nil
	}, logger)

	if err := displayPoller.Start(pollCtx); err != nil {
		logger.Warn("display poller started degraded", "error", err)
	}
	if err := queuePoller.Start(pollCtx); err != nil {
		logger.Warn("queue poller started degraded", "error", err)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	cancelPolls()
	displayPoller.Stop()
	queuePoller.Stop()
	hub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
