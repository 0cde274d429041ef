package telemetry

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/models"
)

func strPtr(s string) *string { return &s }

func sampleRow(ts time.Time) *models.TelemetryRow {
	return &models.TelemetryRow{
		ID:             "row-1",
		DeviceID:       "dev-1",
		AndroidID:      "abc123",
		DeviceName:     "Pixel 7",
		Manufacturer:   "Google",
		Model:          "GVU6C",
		AndroidVersion: "14",
		SDKInt:         34,
		KernelVersion:  strPtr("5.10.157"),
		BaseVersion:    strPtr("1"),
		BuildTags:      strPtr("release-keys"),
		SecurityPatch:  strPtr("2024-05-05"),
		UptimeMillis:   123456,
		BatteryLevel:   87,
		BatteryStatus:  "Charging",
		WifiIP:         strPtr("192.168.1.50"),
		IsRooted:       false,
		OSType:         "android",
		Timestamp:      ts,
	}
}

func historyBlob(t *testing.T, ts time.Time, snap *models.TelemetrySnapshot) *models.HistoryRow {
	t.Helper()
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	return &models.HistoryRow{
		ID:            "hist-1",
		DeviceID:      "dev-1",
		TelemetryData: data,
		Timestamp:     ts,
	}
}

func TestNormalize_LatestWins(t *testing.T) {
	now := time.Now()
	histSnap := &models.TelemetrySnapshot{
		DeviceInfo:  &models.DeviceInfo{DeviceName: "from-history"},
		BatteryInfo: &models.BatteryInfo{BatteryLevel: 10},
	}

	tests := []struct {
		name        string
		structured  time.Time
		history     time.Time
		wantHistory bool
	}{
		{"structured newer", now, now.Add(-time.Minute), false},
		{"history newer", now.Add(-time.Minute), now, true},
		{"exact tie favors structured", now, now, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := Normalize(sampleRow(tt.structured), historyBlob(t, tt.history, histSnap))
			require.NotNil(t, snap)
			if tt.wantHistory {
				assert.Equal(t, "from-history", snap.DeviceInfo.DeviceName)
			} else {
				assert.Equal(t, "Pixel 7", snap.DeviceInfo.DeviceName)
			}
		})
	}
}

func TestNormalize_SingleSource(t *testing.T) {
	now := time.Now()

	snap := Normalize(sampleRow(now), nil)
	require.NotNil(t, snap)
	assert.Equal(t, "Pixel 7", snap.DeviceInfo.DeviceName)

	histSnap := &models.TelemetrySnapshot{DeviceInfo: &models.DeviceInfo{DeviceName: "from-history"}}
	snap = Normalize(nil, historyBlob(t, now, histSnap))
	require.NotNil(t, snap)
	assert.Equal(t, "from-history", snap.DeviceInfo.DeviceName)

	assert.Nil(t, Normalize(nil, nil))
}

func TestFromRow_MapsEveryColumn(t *testing.T) {
	temp := 31.5
	density := 420
	refresh := 90.0
	row := sampleRow(time.Now())
	row.Brand = "google"
	row.Product = "panther"
	row.BuildNumber = "UQ1A.240205.002"
	row.BootTime = 1700000000000
	row.BatteryHealth = strPtr("Good")
	row.BatteryTemperature = &temp
	row.NetworkInterface = "WiFi"
	row.WifiSSID = strPtr("lab")
	row.MobileIP = strPtr("10.0.0.2")
	row.EthernetIP = strPtr("172.16.0.2")
	row.IPAddress = strPtr("192.168.1.50")
	row.MACAddress = strPtr("aa:bb:cc:dd:ee:ff")
	row.Carrier = strPtr("Safaricom")
	row.ScreenResolution = strPtr("1080x2400")
	row.ScreenDensity = &density
	row.RefreshRate = &refresh
	row.SELinuxStatus = strPtr("Enforcing")
	row.ScreenLockEnabled = true
	row.EncryptionEnabled = true

	snap := FromRow(row)
	require.NotNil(t, snap)

	assert.Equal(t, "abc123", snap.DeviceInfo.AndroidID)
	assert.Equal(t, "google", snap.DeviceInfo.Brand)
	assert.Equal(t, "panther", snap.DeviceInfo.Product)

	assert.Equal(t, "14", snap.SystemInfo.AndroidVersion)
	assert.Equal(t, 34, snap.SystemInfo.SDKInt)
	assert.Equal(t, "UQ1A.240205.002", snap.SystemInfo.BuildNumber)
	assert.Equal(t, "5.10.157", snap.SystemInfo.KernelVersion)
	assert.Equal(t, "1", snap.SystemInfo.BaseVersion)
	assert.Equal(t, "release-keys", snap.SystemInfo.BuildTags)
	assert.Equal(t, "2024-05-05", snap.SystemInfo.SecurityPatch)
	assert.Equal(t, int64(123456), snap.SystemInfo.UptimeMillis)
	assert.Equal(t, int64(1700000000000), snap.SystemInfo.BootTime)

	assert.Equal(t, 87, snap.BatteryInfo.BatteryLevel)
	assert.Equal(t, "Charging", snap.BatteryInfo.BatteryStatus)
	assert.Equal(t, "Good", snap.BatteryInfo.BatteryHealth)
	assert.Equal(t, 31.5, snap.BatteryInfo.BatteryTemperature)

	assert.Equal(t, "WiFi", snap.NetworkInfo.NetworkInterface)
	assert.Equal(t, "lab", snap.NetworkInfo.WifiSSID)
	assert.Equal(t, "192.168.1.50", snap.NetworkInfo.WifiIP)
	assert.Equal(t, "10.0.0.2", snap.NetworkInfo.MobileIP)
	assert.Equal(t, "172.16.0.2", snap.NetworkInfo.EthernetIP)
	assert.Equal(t, "192.168.1.50", snap.NetworkInfo.IPAddress)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", snap.NetworkInfo.MACAddress)
	assert.Equal(t, "Safaricom", snap.NetworkInfo.Carrier)

	require.NotNil(t, snap.DisplayInfo)
	assert.Equal(t, "1080x2400", snap.DisplayInfo.ScreenResolution)
	assert.Equal(t, 420, snap.DisplayInfo.ScreenDensity)
	assert.Equal(t, 90.0, snap.DisplayInfo.RefreshRate)

	assert.False(t, snap.SecurityInfo.IsRooted)
	assert.Equal(t, "Enforcing", snap.SecurityInfo.SELinuxStatus)
	assert.True(t, snap.SecurityInfo.ScreenLockEnabled)
	assert.True(t, snap.SecurityInfo.EncryptionEnabled)

	assert.Equal(t, "android", snap.OSType)
}

func TestFromHistory_DoubleEncodedBlob(t *testing.T) {
	inner, err := json.Marshal(&models.TelemetrySnapshot{
		BatteryInfo: &models.BatteryInfo{BatteryLevel: 42, BatteryStatus: "Discharging"},
	})
	require.NoError(t, err)
	outer, err := json.Marshal(string(inner))
	require.NoError(t, err)

	snap := FromHistory(&models.HistoryRow{TelemetryData: outer, Timestamp: time.Now()})
	require.NotNil(t, snap)
	assert.Equal(t, 42, snap.BatteryInfo.BatteryLevel)
}

func TestFromHistory_Garbage(t *testing.T) {
	assert.Nil(t, FromHistory(nil))
	assert.Nil(t, FromHistory(&models.HistoryRow{TelemetryData: nil}))
	assert.Nil(t, FromHistory(&models.HistoryRow{TelemetryData: json.RawMessage("not json")}))
}

func TestDeviceIDFromPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		want    string
	}{
		{"android_id first", map[string]any{"android_id": "a", "device_id": "b"}, "a"},
		{"device_id second", map[string]any{"device_id": "b", "device_info": map[string]any{"android_id": "c"}}, "b"},
		{"nested last", map[string]any{"device_info": map[string]any{"android_id": "c"}}, "c"},
		{"numeric id", map[string]any{"device_id": float64(42)}, "42"},
		{"missing", map[string]any{"foo": "bar"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeviceIDFromPayload(tt.payload))
		})
	}
}
