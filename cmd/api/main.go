package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"avtoservis/internal/api"
	"avtoservis/internal/auth"
	"avtoservis/internal/config"
	"avtoservis/internal/database"
	"avtoservis/internal/domain"
	"avtoservis/internal/events"
	"avtoservis/internal/logging"
	"avtoservis/internal/metrics"
	"avtoservis/internal/notify"
	"avtoservis/internal/repository"
	"avtoservis/internal/service"
	"avtoservis/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	sessions := initSessions(cfg, &logger)

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.AccessTTLMinutes)*time.Minute)
	if err != nil {
		return fmt.Errorf("init token manager: %w", err)
	}

	bus := events.NewEventBus()
	initTelegramNotifier(cfg, bus, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reportWorker := worker.NewReportWorker(db, cfg.Exports.Path, worker.RetryPolicy{}, &logger)
	go reportWorker.Start(ctx)

	if cfg.Backup.Enabled {
		backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backup.Start(ctx)
	}

	refreshTTL := time.Duration(cfg.Auth.RefreshTTLHours) * time.Hour
	userService := service.NewUserService(db, sessions, tokens, bus, refreshTTL, &logger)
	bookingService := service.NewBookingService(db, db, db, db, bus, &logger)
	catalogService := service.NewCatalogService(db, db)

	httpServer := api.NewServer(cfg.Server, cfg.RateLimit, userService, bookingService, catalogService, reportWorker, tokens, &logger)

	startMetrics(ctx, cfg, &logger)

	return startServer(ctx, httpServer, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

// initSessions wires redis behind a failover to memory, or memory alone when
// redis is not configured.
func initSessions(cfg *config.Config, logger *zerolog.Logger) domain.SessionRepository {
	memory := repository.NewMemorySessionRepository()

	if cfg.Redis.Address == "" {
		logger.Info().Msg("redis not configured, using in-memory sessions")
		return memory
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing with failover sessions")
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}

	return repository.NewFailoverSessionRepository(repository.NewRedisSessionRepository(client), memory, logger)
}

func initTelegramNotifier(cfg *config.Config, bus *events.EventBus, logger *zerolog.Logger) {
	if cfg.Telegram.BotToken == "" || len(cfg.Telegram.AdminChatIDs) == 0 {
		return
	}

	notifier, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.AdminChatIDs, cfg.Telegram.Debug, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram notifier init failed, continuing without notifications")
		return
	}

	notifier.Register(bus)
	logger.Info().Msg("telegram notifier connected")
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServer(ctx context.Context, httpServer *api.Server, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown error")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
