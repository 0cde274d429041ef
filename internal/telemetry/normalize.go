package telemetry

import (
	"encoding/json"
	"strconv"

	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/models"
)

// Normalize merges the two storage representations of a device's latest
// telemetry into one canonical snapshot. Either input may be nil. When both
// exist the later timestamp wins; on an exact tie the structured row wins.
func Normalize(structured *models.TelemetryRow, history *models.HistoryRow) *models.TelemetrySnapshot {
	switch {
	case structured == nil && history == nil:
		return nil
	case history == nil:
		return FromRow(structured)
	case structured == nil:
		return FromHistory(history)
	}

	if !structured.Timestamp.Before(history.Timestamp) {
		return FromRow(structured)
	}
	return FromHistory(history)
}

// FromHistory decodes a raw history blob. The blob is already in snapshot
// shape; a blob that was stored double-encoded (a JSON string containing
// JSON) gets one extra decode pass.
func FromHistory(row *models.HistoryRow) *models.TelemetrySnapshot {
	if row == nil || len(row.TelemetryData) == 0 {
		return nil
	}
	data := row.TelemetryData
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		data = json.RawMessage(asString)
	}
	var snap models.TelemetrySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil
	}
	return &snap
}

// FromRow maps a flattened device_telemetry row into the nested snapshot
// shape. Every column must be carried across, optionals included.
func FromRow(row *models.TelemetryRow) *models.TelemetrySnapshot {
	if row == nil {
		return nil
	}
	snap := &models.TelemetrySnapshot{
		OSType: row.OSType,
		DeviceInfo: &models.DeviceInfo{
			AndroidID:    row.AndroidID,
			DeviceName:   row.DeviceName,
			Manufacturer: row.Manufacturer,
			Model:        row.Model,
			Brand:        row.Brand,
			Product:      row.Product,
		},
		SystemInfo: &models.SystemInfo{
			AndroidVersion: row.AndroidVersion,
			SDKInt:         row.SDKInt,
			BuildNumber:    row.BuildNumber,
			KernelVersion:  strOrEmpty(row.KernelVersion),
			BaseVersion:    strOrEmpty(row.BaseVersion),
			BuildTags:      strOrEmpty(row.BuildTags),
			SecurityPatch:  strOrEmpty(row.SecurityPatch),
			UptimeMillis:   row.UptimeMillis,
			BootTime:       row.BootTime,
		},
		BatteryInfo: &models.BatteryInfo{
			BatteryLevel:  row.BatteryLevel,
			BatteryStatus: row.BatteryStatus,
			BatteryHealth: strOrEmpty(row.BatteryHealth),
		},
		NetworkInfo: &models.NetworkInfo{
			NetworkInterface: row.NetworkInterface,
			WifiSSID:         strOrEmpty(row.WifiSSID),
			WifiIP:           strOrEmpty(row.WifiIP),
			MobileIP:         strOrEmpty(row.MobileIP),
			EthernetIP:       strOrEmpty(row.EthernetIP),
			IPAddress:        strOrEmpty(row.IPAddress),
			MACAddress:       strOrEmpty(row.MACAddress),
			Carrier:          strOrEmpty(row.Carrier),
		},
		SecurityInfo: &models.SecurityInfo{
			IsRooted:          row.IsRooted,
			SELinuxStatus:     strOrEmpty(row.SELinuxStatus),
			ScreenLockEnabled: row.ScreenLockEnabled,
			EncryptionEnabled: row.EncryptionEnabled,
		},
	}
	if row.BatteryTemperature != nil {
		snap.BatteryInfo.BatteryTemperature = *row.BatteryTemperature
	}
	if row.ScreenResolution != nil || row.ScreenDensity != nil || row.RefreshRate != nil {
		snap.DisplayInfo = &models.DisplayInfo{
			ScreenResolution: strOrEmpty(row.ScreenResolution),
		}
		if row.ScreenDensity != nil {
			snap.DisplayInfo.ScreenDensity = *row.ScreenDensity
		}
		if row.RefreshRate != nil {
			snap.DisplayInfo.RefreshRate = *row.RefreshRate
		}
	}
	return snap
}

// DeviceIDFromPayload resolves the device identifier from a raw submission.
// Resolution order: android_id, device_id, device_info.android_id. Empty
// string means the payload carries no identifier.
func DeviceIDFromPayload(payload map[string]any) string {
	if id := asString(payload["android_id"]); id != "" {
		return id
	}
	if id := asString(payload["device_id"]); id != "" {
		return id
	}
	return LookupString(payload, "", "device_info", "android_id")
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
