package notifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/models"
)

// SettingsSource provides the current notification settings; the settings
// resolver satisfies it.
type SettingsSource interface {
	NotificationSettings(ctx context.Context) *models.NotificationSettings
}

// Channel is one delivery transport. Configured reports whether the current
// settings give the channel somewhere to send.
type Channel interface {
	Name() string
	Configured(s *models.NotificationSettings) bool
	Send(ctx context.Context, s *models.NotificationSettings, deviceName, message string) error
}

// Dispatcher fans a gate-approved event out to every configured channel.
type Dispatcher struct {
	settings SettingsSource
	gate     *Gate
	channels []Channel
	logger   *zap.Logger
}

func NewDispatcher(settings SettingsSource, gate *Gate, channels []Channel, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		settings: settings,
		gate:     gate,
		channels: channels,
		logger:   logger,
	}
}

// Dispatch returns true iff at least one channel delivered. Order of checks:
// per-type enablement (no gate consultation when the category is off), then
// the gate, then channels, each channel attempted independently.
func (d *Dispatcher) Dispatch(ctx context.Context, deviceID, deviceName, message, notificationType string) bool {
	s := d.settings.NotificationSettings(ctx)
	if !s.Enabled(notificationType) {
		return false
	}

	if !d.gate.CanSend(ctx, deviceID, notificationType) {
		return false
	}

	delivered := false
	for _, ch := range d.channels {
		if !ch.Configured(s) {
			continue
		}
		if err := ch.Send(ctx, s, deviceName, message); err != nil {
			d.logger.Error("Notification channel failed",
				zap.String("channel", ch.Name()),
				zap.String("device_id", deviceID),
				zap.String("type", notificationType),
				zap.Error(err),
			)
			continue
		}
		delivered = true
	}

	if delivered {
		d.gate.MarkSent(ctx, deviceID, notificationType)
		d.logger.Info("Notification dispatched",
			zap.String("device_id", deviceID),
			zap.String("device_name", deviceName),
			zap.String("type", notificationType),
		)
	}
	return delivered
}
