package notifier

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/store"
)

const (
	// staleTelemetryAge is how long a device may be silent before alerts
	// about its last-known state stop being useful.
	staleTelemetryAge = 24 * time.Hour

	// cooldownWindow is the minimum interval between repeated notifications
	// of the same type for the same device. The cooldown key's TTL is the
	// window, so existence alone means "still cooling down".
	cooldownWindow = 30 * time.Minute

	cooldownKeyPrefix = "notify:cooldown:"
)

// TelemetryLookup resolves a device's most recent telemetry instant across
// both storage representations. nil means the device has never reported.
type TelemetryLookup interface {
	LatestTimestamp(ctx context.Context, deviceID string) (*time.Time, error)
}

// Gate decides whether a (device, notification-type) pair may alert right
// now. It is agnostic to per-type enablement; the dispatcher checks that
// before consulting the gate.
type Gate struct {
	lookup TelemetryLookup
	kv     store.KV
	logger *zap.Logger
	now    func() time.Time
}

func NewGate(lookup TelemetryLookup, kv store.KV, logger *zap.Logger) *Gate {
	return &Gate{
		lookup: lookup,
		kv:     kv,
		logger: logger,
		now:    time.Now,
	}
}

func cooldownKey(deviceID, notificationType string) string {
	return fmt.Sprintf("%s%s:%s", cooldownKeyPrefix, deviceID, notificationType)
}

// CanSend never returns an error: lookup failures deny (an alerting system
// that cannot determine eligibility must not spam), while a device with no
// telemetry at all is allowed through (absence of data is not staleness).
func (g *Gate) CanSend(ctx context.Context, deviceID, notificationType string) bool {
	latest, err := g.lookup.LatestTimestamp(ctx, deviceID)
	if err != nil {
		g.logger.Error("Gate telemetry lookup failed, denying",
			zap.String("device_id", deviceID),
			zap.String("type", notificationType),
			zap.Error(err),
		)
		return false
	}
	if latest != nil && g.now().Sub(*latest) > staleTelemetryAge {
		g.logger.Debug("Gate denied: telemetry stale",
			zap.String("device_id", deviceID),
			zap.String("type", notificationType),
			zap.Time("latest_telemetry", *latest),
		)
		return false
	}

	coolingDown, err := g.kv.Exists(ctx, cooldownKey(deviceID, notificationType))
	if err != nil {
		g.logger.Error("Gate cooldown check failed, denying",
			zap.String("device_id", deviceID),
			zap.String("type", notificationType),
			zap.Error(err),
		)
		return false
	}
	return !coolingDown
}

// MarkSent starts the cooldown window. The dispatcher calls this only after
// at least one channel delivered, so an all-channels-failed attempt does not
// consume the window.
func (g *Gate) MarkSent(ctx context.Context, deviceID, notificationType string) {
	key := cooldownKey(deviceID, notificationType)
	if err := g.kv.Set(ctx, key, g.now().UTC().Format(time.RFC3339), cooldownWindow); err != nil {
		g.logger.Error("Failed to record notification cooldown",
			zap.String("device_id", deviceID),
			zap.String("type", notificationType),
			zap.Error(err),
		)
	}
}
