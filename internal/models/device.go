package models

import "time"

// DeviceIdentity is the persistent device row. One row per android_id;
// created on first telemetry submission, updated on every later one.
type DeviceIdentity struct {
	ID           string    `json:"id"`
	AndroidID    string    `json:"android_id"`
	DeviceName   string    `json:"device_name"`
	Manufacturer string    `json:"manufacturer"`
	Model        string    `json:"model"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
}

// DeviceStatus is the derived dashboard view. Recomputed on every read,
// never persisted.
type DeviceStatus struct {
	ID            string             `json:"id"`
	AndroidID     string             `json:"android_id"`
	Name          string             `json:"name"`
	Model         string             `json:"model"`
	Manufacturer  string             `json:"manufacturer"`
	OSVersion     string             `json:"os_version"`
	BatteryLevel  int                `json:"battery_level"`
	BatteryStatus string             `json:"battery_status"`
	NetworkType   string             `json:"network_type"`
	IPAddress     string             `json:"ip_address"`
	UptimeMillis  int64              `json:"uptime_millis"`
	LastSeen      int64              `json:"last_seen"`
	IsOnline      bool               `json:"isOnline"`
	Telemetry     *TelemetrySnapshot `json:"telemetry"`
}
