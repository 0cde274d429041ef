package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/models"
	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/telemetry"
)

// DeviceReader is the device read surface the dashboard needs.
type DeviceReader interface {
	GetDevice(ctx context.Context, deviceID string) (*models.DeviceIdentity, error)
	ListDevices(ctx context.Context) ([]models.DeviceIdentity, error)
	DeleteDevice(ctx context.Context, deviceID string) error
}

// SnapshotReader fetches the latest row of each telemetry representation.
type SnapshotReader interface {
	LatestStructured(ctx context.Context, deviceID string) (*models.TelemetryRow, error)
	LatestHistory(ctx context.Context, deviceID string) (*models.HistoryRow, error)
}

// AppReader lists the recorded package names for a device.
type AppReader interface {
	ListPackages(ctx context.Context, deviceID string) ([]string, error)
}

// ThresholdSource is the slice of the settings resolver status derivation
// needs.
type ThresholdSource interface {
	OfflineThreshold(ctx context.Context) int
}

// DeviceService computes the derived status view. Normalization and
// derivation are pure; this service only fetches rows and applies them.
type DeviceService struct {
	devices    DeviceReader
	snapshots  SnapshotReader
	apps       AppReader
	thresholds ThresholdSource
	logger     *zap.Logger
	now        func() time.Time
}

func NewDeviceService(devices DeviceReader, snapshots SnapshotReader, apps AppReader, thresholds ThresholdSource, logger *zap.Logger) *DeviceService {
	return &DeviceService{
		devices:    devices,
		snapshots:  snapshots,
		apps:       apps,
		thresholds: thresholds,
		logger:     logger,
		now:        time.Now,
	}
}

// GetStatus derives one device's status. Telemetry read failures degrade to
// a nil snapshot rather than failing the request; the dashboard never sees a
// raw store error.
func (s *DeviceService) GetStatus(ctx context.Context, deviceID string) (*models.DeviceStatus, error) {
	identity, err := s.devices.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return s.derive(ctx, identity), nil
}

// ListStatuses derives the dashboard list for all devices.
func (s *DeviceService) ListStatuses(ctx context.Context) ([]*models.DeviceStatus, error) {
	identities, err := s.devices.ListDevices(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]*models.DeviceStatus, 0, len(identities))
	for i := range identities {
		statuses = append(statuses, s.derive(ctx, &identities[i]))
	}
	return statuses, nil
}

// ListApps returns the package names recorded for the device. The identity
// lookup runs first so an unknown id is a not-found, not an empty list.
func (s *DeviceService) ListApps(ctx context.Context, deviceID string) ([]string, error) {
	if _, err := s.devices.GetDevice(ctx, deviceID); err != nil {
		return nil, err
	}
	return s.apps.ListPackages(ctx, deviceID)
}

// DeleteDevice removes the device and everything hanging off it.
func (s *DeviceService) DeleteDevice(ctx context.Context, deviceID string) error {
	return s.devices.DeleteDevice(ctx, deviceID)
}

func (s *DeviceService) derive(ctx context.Context, identity *models.DeviceIdentity) *models.DeviceStatus {
	structured, err := s.snapshots.LatestStructured(ctx, identity.ID)
	if err != nil {
		s.logger.Warn("Structured telemetry read failed, degrading",
			zap.String("device_id", identity.ID), zap.Error(err))
		structured = nil
	}
	history, err := s.snapshots.LatestHistory(ctx, identity.ID)
	if err != nil {
		s.logger.Warn("History telemetry read failed, degrading",
			zap.String("device_id", identity.ID), zap.Error(err))
		history = nil
	}

	snapshot := telemetry.Normalize(structured, history)
	return telemetry.DeriveStatus(identity, snapshot, s.thresholds.OfflineThreshold(ctx), s.now())
}
