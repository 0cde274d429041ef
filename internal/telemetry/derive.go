package telemetry

import (
	"time"

	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/models"
)

const unknown = "Unknown"

// DeriveStatus computes the dashboard view for one device from its identity
// row and its normalized snapshot. snapshot may be nil; the online flag is
// still computed from last_seen.
func DeriveStatus(identity *models.DeviceIdentity, snapshot *models.TelemetrySnapshot, offlineThresholdMinutes int, now time.Time) *models.DeviceStatus {
	status := &models.DeviceStatus{
		ID:            identity.ID,
		AndroidID:     identity.AndroidID,
		Name:          identity.DeviceName,
		Model:         identity.Model,
		Manufacturer:  identity.Manufacturer,
		OSVersion:     unknown,
		BatteryStatus: unknown,
		NetworkType:   unknown,
		IPAddress:     "0.0.0.0",
		LastSeen:      identity.LastSeen.UnixMilli(),
		Telemetry:     snapshot,
	}

	// Strictly less-than: a device exactly at the threshold is offline.
	elapsed := now.UnixMilli() - identity.LastSeen.UnixMilli()
	status.IsOnline = elapsed < int64(offlineThresholdMinutes)*60_000

	if snapshot == nil {
		return status
	}

	if snapshot.SystemInfo != nil {
		if snapshot.SystemInfo.AndroidVersion != "" {
			status.OSVersion = snapshot.SystemInfo.AndroidVersion
		}
		status.UptimeMillis = snapshot.SystemInfo.UptimeMillis
	}
	if snapshot.BatteryInfo != nil {
		status.BatteryLevel = snapshot.BatteryInfo.BatteryLevel
		if snapshot.BatteryInfo.BatteryStatus != "" {
			status.BatteryStatus = snapshot.BatteryInfo.BatteryStatus
		}
	}
	status.IPAddress = deviceIP(snapshot.NetworkInfo)
	status.NetworkType = networkType(snapshot.NetworkInfo)
	return status
}

// deviceIP picks the address to display. Priority is fixed: wired > wifi >
// mobile > legacy single field.
func deviceIP(n *models.NetworkInfo) string {
	if n == nil {
		return "0.0.0.0"
	}
	for _, ip := range []string{n.EthernetIP, n.WifiIP, n.MobileIP, n.IPAddress} {
		if ip != "" {
			return ip
		}
	}
	return "0.0.0.0"
}

// networkType prefers the reported interface; otherwise infers from which
// address is present, checking wifi before mobile before ethernet. Note the
// inference order is not the display-address priority.
func networkType(n *models.NetworkInfo) string {
	if n == nil {
		return unknown
	}
	if n.NetworkInterface != "" {
		return n.NetworkInterface
	}
	switch {
	case n.WifiIP != "":
		return "WiFi"
	case n.MobileIP != "":
		return "Mobile"
	case n.EthernetIP != "":
		return "Ethernet"
	}
	return unknown
}
