package telemetry

import (
	"time"

	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/models"
)

// RowFromSnapshot flattens a nested snapshot into a device_telemetry row,
// the inverse of FromRow. Used by the structured write path.
func RowFromSnapshot(deviceID string, snap *models.TelemetrySnapshot, ts time.Time) *models.TelemetryRow {
	row := &models.TelemetryRow{
		DeviceID:  deviceID,
		OSType:    snap.OSType,
		Timestamp: ts,
	}

	if d := snap.DeviceInfo; d != nil {
		row.AndroidID = d.AndroidID
		row.DeviceName = d.DeviceName
		row.Manufacturer = d.Manufacturer
		row.Model = d.Model
		row.Brand = d.Brand
		row.Product = d.Product
	}
	if s := snap.SystemInfo; s != nil {
		row.AndroidVersion = s.AndroidVersion
		row.SDKInt = s.SDKInt
		row.BuildNumber = s.BuildNumber
		row.KernelVersion = ptrOrNil(s.KernelVersion)
		row.BaseVersion = ptrOrNil(s.BaseVersion)
		row.BuildTags = ptrOrNil(s.BuildTags)
		row.SecurityPatch = ptrOrNil(s.SecurityPatch)
		row.UptimeMillis = s.UptimeMillis
		row.BootTime = s.BootTime
	}
	if b := snap.BatteryInfo; b != nil {
		row.BatteryLevel = b.BatteryLevel
		row.BatteryStatus = b.BatteryStatus
		row.BatteryHealth = ptrOrNil(b.BatteryHealth)
		if b.BatteryTemperature != 0 {
			temp := b.BatteryTemperature
			row.BatteryTemperature = &temp
		}
	}
	if n := snap.NetworkInfo; n != nil {
		row.NetworkInterface = n.NetworkInterface
		row.WifiSSID = ptrOrNil(n.WifiSSID)
		row.WifiIP = ptrOrNil(n.WifiIP)
		row.MobileIP = ptrOrNil(n.MobileIP)
		row.EthernetIP = ptrOrNil(n.EthernetIP)
		row.IPAddress = ptrOrNil(n.IPAddress)
		row.MACAddress = ptrOrNil(n.MACAddress)
		row.Carrier = ptrOrNil(n.Carrier)
	}
	if d := snap.DisplayInfo; d != nil {
		row.ScreenResolution = ptrOrNil(d.ScreenResolution)
		if d.ScreenDensity != 0 {
			density := d.ScreenDensity
			row.ScreenDensity = &density
		}
		if d.RefreshRate != 0 {
			refresh := d.RefreshRate
			row.RefreshRate = &refresh
		}
	}
	if s := snap.SecurityInfo; s != nil {
		row.IsRooted = s.IsRooted
		row.SELinuxStatus = ptrOrNil(s.SELinuxStatus)
		row.ScreenLockEnabled = s.ScreenLockEnabled
		row.EncryptionEnabled = s.EncryptionEnabled
	}
	return row
}

func ptrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
