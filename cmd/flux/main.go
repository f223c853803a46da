package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"
	_ "time/tzdata"

	"flux/internal/amqp"
	"flux/internal/backend"
	"flux/internal/cache"
	"flux/internal/cli"
	"flux/internal/core"
	apphttp "flux/internal/http"
	"flux/internal/identity"
	applog "flux/internal/log"
	"flux/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.MustLoadConfig(applog.ComponentApp, cli.Validate)
	cli.PrintBanner(os.Stdout, "flux")

	ctx := context.Background()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err.Error())
		os.Exit(1)
	}
	be, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}

	tracker := services.NewTracker(be.Records, services.TrackerConfig{
		WeeklyLimit:  core.Money(cfg.WeeklyLimit),
		Location:     cfg.Location(),
		FetchTimeout: cfg.FetchTimeout,
		CacheSize:    cfg.CacheSize,
		CacheTTL:     cfg.CacheTTL,
	})
	caches := cache.NewManager()
	caches.Register(tracker.Cache())
	caches.Register(tracker)
	caches.StartCleanup(10 * time.Minute)

	// Events are optional: without a broker the sheets mirror is not updated.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, expense events disabled", applog.FieldError, err.Error())
		} else {
			publisher = client
			logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange)
		}
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	expenses := services.NewExpenseService(be.Records, tracker, publisher)
	auth := identity.NewLocal(be.Users, cfg.JWTSecret, cfg.SessionDuration)

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Expenses:           expenses,
		Auth:               auth,
		Ready:              be.Ping,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
	})
	if err != nil {
		logger.Error("Failed to configure HTTP server", applog.FieldError, err.Error())
		os.Exit(1)
	}

	shutdownCtx, _, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err.Error())
		}
		caches.Stop()
		if err := expenses.Close(); err != nil {
			logger.Error("Failed to close event publisher", applog.FieldError, err.Error())
		}
		if be.Cleanup != nil {
			if err := be.Cleanup(); err != nil {
				logger.Error("Failed to close backend", applog.FieldError, err.Error())
			}
		}
	})

	logger.Info("Starting flux server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"weekly_limit", core.FormatIDR(core.Money(cfg.WeeklyLimit)),
		"timezone", cfg.Timezone)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
