package settings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/models"
)

type fakeStore struct {
	settings *models.NotificationSettings
	err      error
	calls    int
}

func (f *fakeStore) Get(ctx context.Context) (*models.NotificationSettings, error) {
	f.calls++
	return f.settings, f.err
}

func customSettings() *models.NotificationSettings {
	s := models.DefaultNotificationSettings()
	s.NotifyLowBattery = false
	s.AdditionalSettings.BatteryThreshold = 35
	s.AdditionalSettings.OfflineThreshold = 60
	return s
}

func TestResolver_CachesWithinTTL(t *testing.T) {
	store := &fakeStore{settings: customSettings()}
	r := NewResolver(store, zap.NewNop())

	ctx := context.Background()
	first := r.NotificationSettings(ctx)
	second := r.NotificationSettings(ctx)

	assert.Same(t, first, second)
	assert.Equal(t, 1, store.calls)
	assert.Equal(t, 60, r.OfflineThreshold(ctx))
	assert.Equal(t, 35, r.BatteryThreshold(ctx))
	assert.Equal(t, 1, store.calls)
}

func TestResolver_ExpiryRefetches(t *testing.T) {
	store := &fakeStore{settings: customSettings()}
	r := NewResolver(store, zap.NewNop())

	current := time.Now()
	r.now = func() time.Time { return current }

	ctx := context.Background()
	r.NotificationSettings(ctx)
	require.Equal(t, 1, store.calls)

	current = current.Add(defaultCacheTTL + time.Second)
	r.NotificationSettings(ctx)
	assert.Equal(t, 2, store.calls)
}

func TestResolver_ClearCacheForcesRead(t *testing.T) {
	store := &fakeStore{settings: customSettings()}
	r := NewResolver(store, zap.NewNop())

	ctx := context.Background()
	r.NotificationSettings(ctx)
	r.ClearCache()
	r.NotificationSettings(ctx)

	assert.Equal(t, 2, store.calls)
}

func TestResolver_StoreErrorFallsBackToDefaults(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	r := NewResolver(store, zap.NewNop())

	ctx := context.Background()
	s := r.NotificationSettings(ctx)

	require.NotNil(t, s)
	assert.Equal(t, 15, s.AdditionalSettings.OfflineThreshold)
	assert.Equal(t, 20, s.AdditionalSettings.BatteryThreshold)
	assert.True(t, s.NotifyDeviceOffline)

	// Failures are not cached; the next call retries the store.
	r.NotificationSettings(ctx)
	assert.Equal(t, 2, store.calls)
}

func TestResolver_MissingRowUsesDefaultsWithoutWriting(t *testing.T) {
	store := &fakeStore{settings: nil}
	r := NewResolver(store, zap.NewNop())

	s := r.NotificationSettings(context.Background())

	require.NotNil(t, s)
	assert.False(t, s.NotifyNewDevice)
	assert.True(t, s.NotifyLowBattery)
	assert.Equal(t, 20, s.AdditionalSettings.BatteryThreshold)
}
