package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/Dragonxt022/Express-Services-sub000/internal/addressbook"
	"github.com/Dragonxt022/Express-Services-sub000/internal/api/router"
	"github.com/Dragonxt022/Express-Services-sub000/internal/board"
	"github.com/Dragonxt022/Express-Services-sub000/internal/bookingflow"
	"github.com/Dragonxt022/Express-Services-sub000/internal/catalog"
	appconfig "github.com/Dragonxt022/Express-Services-sub000/internal/config"
	"github.com/Dragonxt022/Express-Services-sub000/internal/http/handlers"
	"github.com/Dragonxt022/Express-Services-sub000/internal/live"
	"github.com/Dragonxt022/Express-Services-sub000/internal/observability/metrics"
	"github.com/Dragonxt022/Express-Services-sub000/internal/orders"
	"github.com/Dragonxt022/Express-Services-sub000/internal/schedule"
	"github.com/Dragonxt022/Express-Services-sub000/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting scheduling API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	metricsHandler, schedMetrics := setupMetrics()

	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	var calendar schedule.CalendarStore
	if pool != nil {
		defer pool.Close()
		calendar = schedule.NewPostgresCalendar(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory calendar")
		calendar = schedule.NewMemoryCalendar()
	}

	redisClient := connectRedis(ctx, cfg, logger)
	var locker schedule.Locker = schedule.NoopLocker{}
	var sessions bookingflow.SessionStore = bookingflow.NewMemorySessionStore()
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		locker = schedule.NewRedisLocker(redisClient)
		sessions = bookingflow.NewRedisSessionStore(redisClient, 0)
	}

	outboundClient := &http.Client{Timeout: cfg.HTTPClientTimeout}
	directory := setupDirectory(cfg, outboundClient, logger)
	resolver := catalog.NewResolver(directory)

	hours, err := schedule.NewFixedHours(cfg.BusinessDayStart, cfg.BusinessDayEnd,
		time.Duration(cfg.SlotIntervalMinutes)*time.Minute)
	if err != nil {
		logger.Error("invalid business hours configuration", "error", err)
		os.Exit(1)
	}

	hub := live.NewHub(cfg.LiveSendBuffer, schedMetrics, logger)

	engine := schedule.NewEngine(calendar, resolver, hours, schedMetrics, logger)
	scheduler := schedule.NewScheduler(calendar, resolver, locker, cfg.ScheduleLockTTL, hub, schedMetrics, logger)
	boardCtrl := board.NewController(calendar, scheduler, engine, hours, logger)

	var checkout orders.Checkout = orders.NewSchedulerCheckout(scheduler)
	if cfg.OrdersBaseURL != "" {
		checkout = orders.NewClient(cfg.OrdersBaseURL, cfg.CollaboratorAPIKey, logger,
			orders.WithHTTPClient(outboundClient))
	}
	coordinator := bookingflow.NewCoordinator(directory, engine, checkout, addressbook.NewMemoryBook(), logger)

	r := router.New(&router.Config{
		Logger:             logger,
		Availability:       handlers.NewAvailabilityHandler(engine, logger),
		Appointments:       handlers.NewAppointmentsHandler(scheduler, logger),
		Sessions:           handlers.NewSessionsHandler(coordinator, sessions, logger),
		Board:              handlers.NewBoardHandler(boardCtrl, logger),
		LiveHandler:        live.NewHandler(hub, logger),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// setupMetrics builds a dedicated registry so tests can assert on the
// exported families without fighting the global one.
func setupMetrics() (http.Handler, *metrics.SchedulingMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewSchedulingMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m
}

// connectPostgresPool returns nil when no DATABASE_URL is configured.
func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if databaseURL == "" {
		return nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		os.Exit(1)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Error("failed to ping postgres", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to postgres")
	return pool
}

// connectRedis returns nil when no REDIS_ADDR is configured; the
// caller falls back to in-process locking and session storage.
func connectRedis(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set, day locks and sessions are process-local")
		return nil
	}
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Error("failed to ping redis", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to redis", "addr", cfg.RedisAddr)
	return client
}

func setupDirectory(cfg *appconfig.Config, hc *http.Client, logger *logging.Logger) catalog.Directory {
	if cfg.CatalogBaseURL != "" {
		return catalog.NewClient(cfg.CatalogBaseURL, cfg.CollaboratorAPIKey, logger, catalog.WithHTTPClient(hc))
	}
	logger.Warn("CATALOG_BASE_URL not set, catalog is empty in-memory")
	return catalog.NewMemoryDirectory()
}
