package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/models"
	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/settings"
)

// SettingsWriter persists the singleton settings row.
type SettingsWriter interface {
	Save(ctx context.Context, s *models.NotificationSettings) error
}

// SettingsService serves reads through the resolver's cache and makes sure
// every save invalidates it synchronously.
type SettingsService struct {
	writer   SettingsWriter
	resolver *settings.Resolver
	logger   *zap.Logger
}

func NewSettingsService(writer SettingsWriter, resolver *settings.Resolver, logger *zap.Logger) *SettingsService {
	return &SettingsService{
		writer:   writer,
		resolver: resolver,
		logger:   logger,
	}
}

func (s *SettingsService) Get(ctx context.Context) *models.NotificationSettings {
	return s.resolver.NotificationSettings(ctx)
}

func (s *SettingsService) Save(ctx context.Context, ns *models.NotificationSettings) error {
	if ns.AdditionalSettings.BatteryThreshold <= 0 || ns.AdditionalSettings.BatteryThreshold > 100 {
		return fmt.Errorf("battery_threshold must be within 1..100")
	}
	if ns.AdditionalSettings.OfflineThreshold <= 0 {
		return fmt.Errorf("offline_threshold must be positive")
	}

	if err := s.writer.Save(ctx, ns); err != nil {
		return err
	}
	// The next read must observe the new thresholds immediately.
	s.resolver.ClearCache()
	s.logger.Info("Notification settings saved")
	return nil
}
