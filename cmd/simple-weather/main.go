package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpapi "github.com/i474232898/simple-weather/internal/api/http"
	"github.com/i474232898/simple-weather/internal/config"
	"github.com/i474232898/simple-weather/internal/i18n"
	"github.com/i474232898/simple-weather/internal/logging"
	"github.com/i474232898/simple-weather/internal/prefstore"
	"github.com/i474232898/simple-weather/internal/presentation"
	"github.com/i474232898/simple-weather/internal/scheduler"
	"github.com/i474232898/simple-weather/internal/setting"
	"github.com/i474232898/simple-weather/internal/setting/local"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "simple-weather",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("simple-weather stopped")
	}
}

// run owns every resource of the process. It returns on shutdown or on a
// startup failure, after its deferred cleanups have run.
func run(cfg *config.AppConfig, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open %s preference store: %w", cfg.PrefBackend, err)
	}
	defer closeStore()

	catalog, err := i18n.New(cfg.DefaultLanguage)
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}

	// Data layer -> access operations -> presentation state.
	repo := local.NewRepository(local.NewDataSource(store, log), log)
	vm := presentation.NewSettingViewModel(
		setting.NewGetUserSetting(repo),
		setting.NewSetUserSetting(repo),
		log,
	)
	vm.Start(ctx)

	// Periodic store upkeep (value log GC for badger).
	maintainer, _ := store.(prefstore.Maintainer)
	sched := scheduler.New(maintainer, cfg.MaintenanceInterval, log)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "simple-weather",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		status := "ok"
		code := fiber.StatusOK
		if hc, ok := store.(prefstore.HealthChecker); ok {
			if err := hc.Healthcheck(c.UserContext()); err != nil {
				log.Warn().Err(err).Msg("store healthcheck failed")
				status, code = "degraded", fiber.StatusServiceUnavailable
			}
		}
		return c.Status(code).JSON(fiber.Map{
			"status":  status,
			"service": "simple-weather",
			"store":   cfg.PrefBackend,
		})
	})

	// API routes. Open event streams end with ctx.
	if err := httpapi.RegisterRoutes(ctx, app, vm, catalog); err != nil {
		return fmt.Errorf("register routes: %w", err)
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	return nil
}

// openStore opens the configured preference store. The returned func releases
// the store and anything it depends on.
func openStore(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger) (prefstore.Store, func(), error) {
	backoff := prefstore.BackoffConfig{
		MaxRetries:      cfg.StoreWriteRetries,
		InitialInterval: cfg.StoreRetryBackoff,
		MaxInterval:     time.Second,
	}

	switch cfg.PrefBackend {
	case config.BackendMemory:
		s := prefstore.NewMemoryStore(cfg.PrefContainer)
		return s, func() { _ = s.Close() }, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		s, err := prefstore.NewRedisStore(ctx, prefstore.RedisOptions{
			Client:    client,
			Container: cfg.PrefContainer,
			Backoff:   backoff,
			Logger:    log,
		})
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return s, func() {
			_ = s.Close()
			_ = client.Close()
		}, nil

	default:
		s, err := prefstore.OpenBadger(prefstore.BadgerOptions{
			Dir:       cfg.PrefDir,
			Container: cfg.PrefContainer,
			Backoff:   backoff,
			Logger:    log,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				log.Error().Err(err).Msg("closing preference store")
			}
		}, nil
	}
}
