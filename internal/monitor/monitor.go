package monitor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/models"
	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/repository"
)

// DeviceSource lists devices for the offline scan.
type DeviceSource interface {
	ListOffline(ctx context.Context, cutoff time.Time) ([]models.DeviceIdentity, error)
}

// ReadingSource returns raw per-snapshot data points; the scans reduce them
// to latest-per-device before evaluating thresholds.
type ReadingSource interface {
	BatteryReadings(ctx context.Context) ([]repository.BatteryReading, error)
	SecurityReadings(ctx context.Context) ([]repository.SecurityReading, error)
}

// SettingsSource is the slice of the settings resolver the scans need.
type SettingsSource interface {
	NotificationSettings(ctx context.Context) *models.NotificationSettings
	OfflineThreshold(ctx context.Context) int
	BatteryThreshold(ctx context.Context) int
}

// Notifier is the dispatch entry point; the notification dispatcher
// satisfies it.
type Notifier interface {
	Dispatch(ctx context.Context, deviceID, deviceName, message, notificationType string) bool
}

// Monitor runs the three periodic scans. Each scan is idempotent and safe to
// run concurrently with the others; the gate's cooldown window is the real
// overlap guard.
type Monitor struct {
	devices   DeviceSource
	readings  ReadingSource
	settings  SettingsSource
	notifier  Notifier
	logger    *zap.Logger
	now       func() time.Time
}

func NewMonitor(devices DeviceSource, readings ReadingSource, settings SettingsSource, notifier Notifier, logger *zap.Logger) *Monitor {
	return &Monitor{
		devices:  devices,
		readings: readings,
		settings: settings,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// RunOffline alerts for every device silent longer than the offline
// threshold.
func (m *Monitor) RunOffline(ctx context.Context) error {
	s := m.settings.NotificationSettings(ctx)
	if !s.NotifyDeviceOffline {
		return nil
	}

	threshold := m.settings.OfflineThreshold(ctx)
	cutoff := m.now().Add(-time.Duration(threshold) * time.Minute)
	devices, err := m.devices.ListOffline(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("offline scan failed: %w", err)
	}

	for _, d := range devices {
		msg := fmt.Sprintf("Device has been offline for more than %d minutes (last seen %s)",
			threshold, d.LastSeen.UTC().Format(time.RFC3339))
		m.notifier.Dispatch(ctx, d.ID, d.DeviceName, msg, models.NotifyDeviceOffline)
	}

	m.logger.Debug("Offline scan complete", zap.Int("candidates", len(devices)))
	return nil
}

// RunBattery alerts for devices whose latest reading is below the threshold
// and discharging. Charging devices below the threshold are exempt.
func (m *Monitor) RunBattery(ctx context.Context) error {
	s := m.settings.NotificationSettings(ctx)
	if !s.NotifyLowBattery {
		return nil
	}

	readings, err := m.readings.BatteryReadings(ctx)
	if err != nil {
		return fmt.Errorf("battery scan failed: %w", err)
	}

	threshold := m.settings.BatteryThreshold(ctx)
	for _, r := range latestBattery(readings) {
		if r.BatteryLevel >= threshold || r.BatteryStatus != "Discharging" {
			continue
		}
		msg := fmt.Sprintf("Battery at %d%% (threshold %d%%) and discharging", r.BatteryLevel, threshold)
		m.notifier.Dispatch(ctx, r.DeviceID, r.DeviceName, msg, models.NotifyLowBattery)
	}
	return nil
}

// RunSecurity alerts for devices whose latest reading reports root access.
func (m *Monitor) RunSecurity(ctx context.Context) error {
	s := m.settings.NotificationSettings(ctx)
	if !s.NotifySecurityIssues {
		return nil
	}

	readings, err := m.readings.SecurityReadings(ctx)
	if err != nil {
		return fmt.Errorf("security scan failed: %w", err)
	}

	for _, r := range latestSecurity(readings) {
		if !r.IsRooted {
			continue
		}
		m.notifier.Dispatch(ctx, r.DeviceID, r.DeviceName,
			"Device reports root access; security posture compromised", models.NotifySecurityIssue)
	}
	return nil
}

// RunAll executes the three scans; each scan's error is logged without
// stopping the others.
func (m *Monitor) RunAll(ctx context.Context) {
	for name, run := range map[string]func(context.Context) error{
		"offline":  m.RunOffline,
		"battery":  m.RunBattery,
		"security": m.RunSecurity,
	} {
		if err := run(ctx); err != nil {
			m.logger.Error("Monitor scan failed", zap.String("scan", name), zap.Error(err))
		}
	}
}

// Start drives RunAll on a fixed interval until the context is cancelled.
func (m *Monitor) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		m.logger.Info("Internal monitor loop disabled")
		return
	}

	m.logger.Info("Starting monitor loop", zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Monitor loop stopped")
			return
		case <-ticker.C:
			m.RunAll(ctx)
		}
	}
}

// latestBattery keeps only the newest reading per device. Queries over the
// two telemetry representations return one row per snapshot; evaluating a
// stale row would re-alert on state the device has already left.
func latestBattery(readings []repository.BatteryReading) map[string]repository.BatteryReading {
	latest := make(map[string]repository.BatteryReading, len(readings))
	for _, r := range readings {
		if cur, ok := latest[r.DeviceID]; !ok || r.Timestamp.After(cur.Timestamp) {
			latest[r.DeviceID] = r
		}
	}
	return latest
}

func latestSecurity(readings []repository.SecurityReading) map[string]repository.SecurityReading {
	latest := make(map[string]repository.SecurityReading, len(readings))
	for _, r := range readings {
		if cur, ok := latest[r.DeviceID]; !ok || r.Timestamp.After(cur.Timestamp) {
			latest[r.DeviceID] = r
		}
	}
	return latest
}
