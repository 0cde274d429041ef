package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/models"
	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/telemetry"
)

// Submission errors reported to the ingestion client as 4xx.
var (
	ErrMalformedPayload = errors.New("request body is not valid JSON")
	ErrMissingDeviceID  = errors.New("payload carries no device identifier (android_id, device_id or device_info.android_id)")
)

// DeviceWriter is the device persistence surface the ingestion path needs.
type DeviceWriter interface {
	UpsertByAndroidID(ctx context.Context, androidID, deviceName, manufacturer, model string, seenAt time.Time) (string, bool, error)
}

// TelemetryWriter persists one representation of a snapshot.
type TelemetryWriter interface {
	InsertHistory(ctx context.Context, deviceID string, blob json.RawMessage, ts time.Time) error
	InsertStructured(ctx context.Context, row *models.TelemetryRow) error
}

// AppWriter records the reported package list.
type AppWriter interface {
	UpsertPackages(ctx context.Context, deviceID string, packages []string) error
}

// Notifier lets ingestion raise the new-device notification.
type Notifier interface {
	Dispatch(ctx context.Context, deviceID, deviceName, message, notificationType string) bool
}

// SubmitResult reports what one accepted submission did.
type SubmitResult struct {
	DeviceID  string `json:"device_id"`
	AndroidID string `json:"android_id"`
	NewDevice bool   `json:"new_device"`
}

// TelemetryService handles inbound submissions: device upsert, snapshot
// persistence, supplementary app list, new-device notification.
type TelemetryService struct {
	devices   DeviceWriter
	writes    TelemetryWriter
	apps      AppWriter
	notifier  Notifier
	logger    *zap.Logger
	now       func() time.Time
}

func NewTelemetryService(devices DeviceWriter, writes TelemetryWriter, apps AppWriter, notifier Notifier, logger *zap.Logger) *TelemetryService {
	return &TelemetryService{
		devices:  devices,
		writes:   writes,
		apps:     apps,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Submit is the primary write path: the blob is persisted into history
// exactly as received.
func (s *TelemetryService) Submit(ctx context.Context, raw json.RawMessage) (*SubmitResult, error) {
	payload, androidID, err := s.parse(raw)
	if err != nil {
		return nil, err
	}

	now := s.now()
	result, err := s.registerDevice(ctx, payload, androidID, now)
	if err != nil {
		return nil, err
	}

	// Snapshot persistence is fatal to the submission; a device row without
	// its telemetry is not an accepted submission.
	if err := s.writes.InsertHistory(ctx, result.DeviceID, raw, now); err != nil {
		return nil, err
	}

	s.recordApps(ctx, result.DeviceID, payload)
	s.notifyNewDevice(ctx, result, payload)
	return result, nil
}

// SubmitStructured is the legacy agent's write path: the same nested payload
// flattened into a device_telemetry row.
func (s *TelemetryService) SubmitStructured(ctx context.Context, raw json.RawMessage) (*SubmitResult, error) {
	payload, androidID, err := s.parse(raw)
	if err != nil {
		return nil, err
	}

	var snap models.TelemetrySnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, ErrMalformedPayload
	}

	now := s.now()
	result, err := s.registerDevice(ctx, payload, androidID, now)
	if err != nil {
		return nil, err
	}

	row := telemetry.RowFromSnapshot(result.DeviceID, &snap, now)
	row.AndroidID = androidID
	if err := s.writes.InsertStructured(ctx, row); err != nil {
		return nil, err
	}

	s.recordApps(ctx, result.DeviceID, payload)
	s.notifyNewDevice(ctx, result, payload)
	return result, nil
}

func (s *TelemetryService) parse(raw json.RawMessage) (map[string]any, string, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, "", ErrMalformedPayload
	}
	androidID := telemetry.DeviceIDFromPayload(payload)
	if androidID == "" {
		return nil, "", ErrMissingDeviceID
	}
	return payload, androidID, nil
}

func (s *TelemetryService) registerDevice(ctx context.Context, payload map[string]any, androidID string, now time.Time) (*SubmitResult, error) {
	name := telemetry.LookupString(payload, "Unknown Device", "device_info", "device_name")
	manufacturer := telemetry.LookupString(payload, "", "device_info", "manufacturer")
	model := telemetry.LookupString(payload, "", "device_info", "model")

	deviceID, created, err := s.devices.UpsertByAndroidID(ctx, androidID, name, manufacturer, model, now)
	if err != nil {
		return nil, fmt.Errorf("failed to register device: %w", err)
	}
	return &SubmitResult{DeviceID: deviceID, AndroidID: androidID, NewDevice: created}, nil
}

// recordApps upserts app_info.installed_apps. App data is supplementary: a
// failure here is logged and swallowed, the submission stands.
func (s *TelemetryService) recordApps(ctx context.Context, deviceID string, payload map[string]any) {
	rawList, ok := telemetry.Lookup(payload, nil, "app_info", "installed_apps").([]any)
	if !ok || len(rawList) == 0 {
		return
	}
	packages := make([]string, 0, len(rawList))
	for _, v := range rawList {
		if pkg, ok := v.(string); ok && pkg != "" {
			packages = append(packages, pkg)
		}
	}
	if err := s.apps.UpsertPackages(ctx, deviceID, packages); err != nil {
		s.logger.Warn("Failed to record app list",
			zap.String("device_id", deviceID),
			zap.Int("packages", len(packages)),
			zap.Error(err),
		)
	}
}

func (s *TelemetryService) notifyNewDevice(ctx context.Context, result *SubmitResult, payload map[string]any) {
	if !result.NewDevice {
		return
	}
	name := telemetry.LookupString(payload, "Unknown Device", "device_info", "device_name")
	msg := fmt.Sprintf("New device registered: %s (%s)", name, result.AndroidID)
	s.notifier.Dispatch(ctx, result.DeviceID, name, msg, models.NotifyNewDevice)
}
