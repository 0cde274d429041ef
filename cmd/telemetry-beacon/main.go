package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/config"
	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/database"
	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/httpapi"
	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/logger"
	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/monitor"
	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/notifier"
	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/repository"
	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/service"
	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/settings"
	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/store"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "telemetry-beacon")
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	log.Info("Starting telemetry-beacon",
		zap.String("http_addr", cfg.HTTP.Addr),
		zap.Int("monitor_interval_seconds", cfg.Monitor.IntervalSeconds),
	)

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	pingCancel()

	// Repositories.
	devicesRepo := repository.NewDevicesRepo(db, log)
	telemetryRepo := repository.NewTelemetryRepo(db, log)
	appsRepo := repository.NewAppsRepo(db, log)
	settingsRepo := repository.NewSettingsRepo(db, log)

	// Notification pipeline: resolver -> gate -> channels -> dispatcher.
	resolver := settings.NewResolver(settingsRepo, log)
	gate := notifier.NewGate(telemetryRepo, store.NewRedisKV(redisClient), log)
	channels := []notifier.Channel{
		notifier.NewTelegramChannel(log),
		notifier.NewEmailChannel(cfg.SMTP, log),
	}
	dispatcher := notifier.NewDispatcher(resolver, gate, channels, log)

	// Services.
	telemetrySvc := service.NewTelemetryService(devicesRepo, telemetryRepo, appsRepo, dispatcher, log)
	deviceSvc := service.NewDeviceService(devicesRepo, telemetryRepo, appsRepo, resolver, log)
	settingsSvc := service.NewSettingsService(settingsRepo, resolver, log)

	mon := monitor.NewMonitor(devicesRepo, telemetryRepo, resolver, dispatcher, log)

	// HTTP surface.
	router := httpapi.NewRouter(log)
	router.RegisterRoutes(
		httpapi.NewTelemetryHandler(telemetrySvc, cfg.HTTP.APIKey, log),
		httpapi.NewDeviceHandler(deviceSvc, log),
		httpapi.NewSettingsHandler(settingsSvc, log),
		httpapi.NewMonitorHandler(mon, log),
		httpapi.NewHealthHandler(db, log),
	)

	monCtx, monCancel := context.WithCancel(context.Background())
	defer monCancel()
	go mon.Start(monCtx, time.Duration(cfg.Monitor.IntervalSeconds)*time.Second)

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.Fatal("HTTP server failed", zap.Error(err))
	case sig := <-sigChan:
		log.Info("Shutting down", zap.String("signal", sig.String()))
	}

	monCancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed", zap.Error(err))
	}

	log.Info("telemetry-beacon stopped")
}
