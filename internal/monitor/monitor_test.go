package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/models"
	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/repository"
)

type fakeDevices struct {
	offline []models.DeviceIdentity
	cutoff  time.Time
	err     error
}

func (f *fakeDevices) ListOffline(ctx context.Context, cutoff time.Time) ([]models.DeviceIdentity, error) {
	f.cutoff = cutoff
	return f.offline, f.err
}

type fakeReadings struct {
	battery  []repository.BatteryReading
	security []repository.SecurityReading
	err      error
}

func (f *fakeReadings) BatteryReadings(ctx context.Context) ([]repository.BatteryReading, error) {
	return f.battery, f.err
}

func (f *fakeReadings) SecurityReadings(ctx context.Context) ([]repository.SecurityReading, error) {
	return f.security, f.err
}

type fakeSettings struct {
	s *models.NotificationSettings
}

func (f *fakeSettings) NotificationSettings(ctx context.Context) *models.NotificationSettings {
	return f.s
}
func (f *fakeSettings) OfflineThreshold(ctx context.Context) int {
	return f.s.AdditionalSettings.OfflineThreshold
}
func (f *fakeSettings) BatteryThreshold(ctx context.Context) int {
	return f.s.AdditionalSettings.BatteryThreshold
}

type dispatched struct {
	deviceID string
	ntype    string
}

type fakeNotifier struct {
	calls []dispatched
}

func (f *fakeNotifier) Dispatch(ctx context.Context, deviceID, deviceName, message, notificationType string) bool {
	f.calls = append(f.calls, dispatched{deviceID: deviceID, ntype: notificationType})
	return true
}

func setupMonitor(s *models.NotificationSettings, devices *fakeDevices, readings *fakeReadings) (*Monitor, *fakeNotifier) {
	n := &fakeNotifier{}
	m := NewMonitor(devices, readings, &fakeSettings{s: s}, n, zap.NewNop())
	return m, n
}

func allOn() *models.NotificationSettings {
	return models.DefaultNotificationSettings()
}

func TestRunBattery_DischargingOnly(t *testing.T) {
	now := time.Now()
	readings := &fakeReadings{battery: []repository.BatteryReading{
		{DeviceID: "charging", DeviceName: "A", BatteryLevel: 10, BatteryStatus: "Charging", Timestamp: now},
		{DeviceID: "discharging", DeviceName: "B", BatteryLevel: 10, BatteryStatus: "Discharging", Timestamp: now},
		{DeviceID: "full-enough", DeviceName: "C", BatteryLevel: 55, BatteryStatus: "Discharging", Timestamp: now},
	}}
	m, n := setupMonitor(allOn(), &fakeDevices{}, readings)

	require.NoError(t, m.RunBattery(context.Background()))

	require.Len(t, n.calls, 1)
	assert.Equal(t, "discharging", n.calls[0].deviceID)
	assert.Equal(t, models.NotifyLowBattery, n.calls[0].ntype)
}

func TestRunBattery_LatestReadingWins(t *testing.T) {
	now := time.Now()
	readings := &fakeReadings{battery: []repository.BatteryReading{
		// Older row says low+discharging, newest says charging: no alert.
		{DeviceID: "dev-1", DeviceName: "A", BatteryLevel: 9, BatteryStatus: "Discharging", Timestamp: now.Add(-time.Hour)},
		{DeviceID: "dev-1", DeviceName: "A", BatteryLevel: 12, BatteryStatus: "Charging", Timestamp: now},
		// Newest says low+discharging even though an older row was healthy.
		{DeviceID: "dev-2", DeviceName: "B", BatteryLevel: 80, BatteryStatus: "Full", Timestamp: now.Add(-time.Hour)},
		{DeviceID: "dev-2", DeviceName: "B", BatteryLevel: 15, BatteryStatus: "Discharging", Timestamp: now},
	}}
	m, n := setupMonitor(allOn(), &fakeDevices{}, readings)

	require.NoError(t, m.RunBattery(context.Background()))

	require.Len(t, n.calls, 1)
	assert.Equal(t, "dev-2", n.calls[0].deviceID)
}

func TestRunBattery_DisabledIsNoop(t *testing.T) {
	s := allOn()
	s.NotifyLowBattery = false
	readings := &fakeReadings{battery: []repository.BatteryReading{
		{DeviceID: "dev-1", BatteryLevel: 5, BatteryStatus: "Discharging", Timestamp: time.Now()},
	}}
	m, n := setupMonitor(s, &fakeDevices{}, readings)

	require.NoError(t, m.RunBattery(context.Background()))
	assert.Empty(t, n.calls)
}

func TestRunOffline(t *testing.T) {
	s := allOn()
	s.AdditionalSettings.OfflineThreshold = 30
	devices := &fakeDevices{offline: []models.DeviceIdentity{
		{ID: "dev-1", DeviceName: "A", LastSeen: time.Now().Add(-2 * time.Hour)},
		{ID: "dev-2", DeviceName: "B", LastSeen: time.Now().Add(-time.Hour)},
	}}
	m, n := setupMonitor(s, devices, &fakeReadings{})

	before := time.Now()
	require.NoError(t, m.RunOffline(context.Background()))

	// Cutoff is now minus the configured threshold.
	expected := before.Add(-30 * time.Minute)
	assert.WithinDuration(t, expected, devices.cutoff, time.Second)

	require.Len(t, n.calls, 2)
	assert.Equal(t, models.NotifyDeviceOffline, n.calls[0].ntype)
}

func TestRunOffline_ScanErrorPropagates(t *testing.T) {
	devices := &fakeDevices{err: errors.New("db down")}
	m, n := setupMonitor(allOn(), devices, &fakeReadings{})

	err := m.RunOffline(context.Background())
	assert.Error(t, err)
	assert.Empty(t, n.calls)
}

func TestRunSecurity_RootedLatestWins(t *testing.T) {
	now := time.Now()
	readings := &fakeReadings{security: []repository.SecurityReading{
		// Was rooted once, newest reading clean: no alert.
		{DeviceID: "cleaned", DeviceName: "A", IsRooted: true, Timestamp: now.Add(-time.Hour)},
		{DeviceID: "cleaned", DeviceName: "A", IsRooted: false, Timestamp: now},
		{DeviceID: "rooted", DeviceName: "B", IsRooted: true, Timestamp: now},
	}}
	m, n := setupMonitor(allOn(), &fakeDevices{}, readings)

	require.NoError(t, m.RunSecurity(context.Background()))

	require.Len(t, n.calls, 1)
	assert.Equal(t, "rooted", n.calls[0].deviceID)
	assert.Equal(t, models.NotifySecurityIssue, n.calls[0].ntype)
}

func TestRunAll_ContinuesPastFailures(t *testing.T) {
	devices := &fakeDevices{err: errors.New("db down")}
	readings := &fakeReadings{security: []repository.SecurityReading{
		{DeviceID: "rooted", DeviceName: "B", IsRooted: true, Timestamp: time.Now()},
	}}
	m, n := setupMonitor(allOn(), devices, readings)

	m.RunAll(context.Background())

	// The offline scan failed but the security scan still dispatched.
	require.Len(t, n.calls, 1)
	assert.Equal(t, "rooted", n.calls[0].deviceID)
}
