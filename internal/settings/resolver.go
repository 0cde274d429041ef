package settings

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/models"
)

// Store is the persistence surface the resolver needs. (nil, nil) from Get
// means no settings row has been saved yet.
type Store interface {
	Get(ctx context.Context) (*models.NotificationSettings, error)
}

const defaultCacheTTL = 5 * time.Minute

// Resolver serves notification settings and thresholds with an in-process
// TTL cache, so the hot telemetry path does not pay a store round trip per
// event. A store failure degrades to defaults: monitoring must not stop
// because settings are unreachable.
type Resolver struct {
	store  Store
	logger *zap.Logger
	ttl    time.Duration
	now    func() time.Time

	mu        sync.RWMutex
	cached    *models.NotificationSettings
	expiresAt time.Time
}

func NewResolver(store Store, logger *zap.Logger) *Resolver {
	return &Resolver{
		store:  store,
		logger: logger,
		ttl:    defaultCacheTTL,
		now:    time.Now,
	}
}

// NotificationSettings returns the current settings, from cache when fresh.
func (r *Resolver) NotificationSettings(ctx context.Context) *models.NotificationSettings {
	r.mu.RLock()
	if r.cached != nil && r.now().Before(r.expiresAt) {
		s := r.cached
		r.mu.RUnlock()
		return s
	}
	r.mu.RUnlock()

	s, err := r.store.Get(ctx)
	if err != nil {
		r.logger.Warn("Settings read failed, using defaults", zap.Error(err))
		return models.DefaultNotificationSettings()
	}
	if s == nil {
		// No row saved yet. Defaults apply but are not written back.
		s = models.DefaultNotificationSettings()
	}

	r.mu.Lock()
	r.cached = s
	r.expiresAt = r.now().Add(r.ttl)
	r.mu.Unlock()
	return s
}

// OfflineThreshold returns the offline cutoff in minutes.
func (r *Resolver) OfflineThreshold(ctx context.Context) int {
	return r.NotificationSettings(ctx).AdditionalSettings.OfflineThreshold
}

// BatteryThreshold returns the low-battery cutoff in percent.
func (r *Resolver) BatteryThreshold(ctx context.Context) int {
	return r.NotificationSettings(ctx).AdditionalSettings.BatteryThreshold
}

// ClearCache drops the cached row. Called synchronously by every settings
// save so the next read observes new thresholds immediately.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	r.cached = nil
	r.expiresAt = time.Time{}
	r.mu.Unlock()
}
