// Command server runs the trendmeter dashboard and JSON API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ad-tracker/trendmeter/internal/config"
	"github.com/ad-tracker/trendmeter/internal/db"
	"github.com/ad-tracker/trendmeter/internal/handler"
	"github.com/ad-tracker/trendmeter/internal/metrics"
	"github.com/ad-tracker/trendmeter/internal/repository"
	"github.com/ad-tracker/trendmeter/internal/service"
	"github.com/ad-tracker/trendmeter/internal/service/quota"
	"github.com/ad-tracker/trendmeter/internal/service/youtube"
	"github.com/ad-tracker/trendmeter/internal/validation"
	"github.com/ad-tracker/trendmeter/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	fs := pflag.NewFlagSet("server", pflag.ExitOnError)
	fs.Int("port", 8080, "HTTP listen port")
	fs.String("api-key", "", "YouTube Data API v3 key")
	fs.String("database-url", "", "PostgreSQL URL for run history (empty keeps history in memory)")
	fs.String("redis-url", "", "Redis URL for quota counters (empty keeps counts in memory)")
	fs.String("log-level", "info", "log level: debug, info, warn, error")
	fs.String("log-file", "", "also write JSON logs to this file")
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg); err != nil {
		logger.Log.Error("Server error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	var checks []handler.Check

	// Run history
	var repo repository.RunRepository
	if cfg.Database.URL != "" {
		if cfg.Database.AutoMigrate {
			if err := db.Migrate(cfg.Database.URL); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			logger.Log.Info("Database migrations applied")
		}

		dbCfg := db.DefaultConfig(cfg.Database.URL)
		dbCfg.MaxConns = int32(cfg.Database.MaxConnections)
		dbCfg.MinConns = int32(cfg.Database.MinConnections)

		pool, err := db.NewPool(ctx, dbCfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close(pool)

		m.RegisterPool(pool)
		pgRepo := repository.NewPostgresRunRepository(pool)
		repo = pgRepo
		checks = append(checks, handler.Check{Name: "database", Ping: pgRepo.Ping})
		logger.Log.Info("Run history stored in PostgreSQL")
	} else {
		repo = repository.NewMemoryRunRepository(cfg.History.Capacity)
		logger.Log.Info("Run history kept in memory", zap.Int("capacity", cfg.History.Capacity))
	}

	// Quota accounting
	var counter quota.Counter
	if cfg.Redis.URL != "" {
		client, err := quota.NewRedisClient(cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("failed to create redis client: %w", err)
		}
		defer func() { _ = client.Close() }()

		redisCounter := quota.NewRedisCounter(client)
		if err := redisCounter.Ping(ctx); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		counter = redisCounter
		checks = append(checks, handler.Check{Name: "redis", Ping: redisCounter.Ping})
	}
	quotaManager := quota.NewManager(counter, cfg.Quota.DailyLimit)

	// Run events
	var publisher service.EventPublisher
	if cfg.RabbitMQ.Enabled {
		mp, err := service.NewMessagePublisher(&cfg.RabbitMQ)
		if err != nil {
			return fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		defer func() {
			if err := mp.Close(); err != nil {
				logger.Log.Warn("Failed to close rabbitmq publisher", zap.Error(err))
			}
		}()
		publisher = mp
		checks = append(checks, handler.Check{Name: "rabbitmq", Ping: func(context.Context) error {
			if !mp.IsHealthy() {
				return errors.New("connection closed")
			}
			return nil
		}})
	}

	yt, err := youtube.NewClient(cfg.YouTube.APIKey,
		youtube.WithBaseURL(cfg.YouTube.BaseURL),
		youtube.WithTimeout(cfg.YouTube.Timeout),
		youtube.WithCallHook(m.CallHook()),
		youtube.WithCallHook(quotaManager.CallHook()),
	)
	if err != nil {
		return fmt.Errorf("failed to create youtube client (set YOUTUBE_API_KEY): %w", err)
	}

	runService := service.NewRunService(yt, repo, publisher, validation.New(validation.MaxKeywords),
		service.LogObserver{},
		m.Observer(),
	)

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(handler.RouterConfig{
		Runs:           runService,
		Quota:          quotaManager,
		Defaults:       cfg.RunDefaults(),
		ExportFilename: cfg.Export.Filename,
		APIKeys:        cfg.Auth.APIKeys,
		Health:         handler.NewHealthHandler(checks...),
		Metrics:        m,
		Gatherer:       reg,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Log.Info("Server starting",
			zap.Int("port", cfg.Server.Port),
			zap.Bool("apiAuth", len(cfg.Auth.APIKeys) > 0),
		)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-shutdown:
		logger.Log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			if closeErr := server.Close(); closeErr != nil {
				logger.Log.Error("Failed to close server", zap.Error(closeErr))
			}
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		logger.Log.Info("Server stopped gracefully")
		return nil
	}
}
