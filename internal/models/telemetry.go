package models

import (
	"encoding/json"
	"time"
)

// TelemetrySnapshot is the canonical nested form of one telemetry submission.
// Raw history rows already carry this shape as JSON; structured rows are
// mapped into it by the normalizer.
type TelemetrySnapshot struct {
	DeviceInfo   *DeviceInfo   `json:"device_info,omitempty"`
	SystemInfo   *SystemInfo   `json:"system_info,omitempty"`
	BatteryInfo  *BatteryInfo  `json:"battery_info,omitempty"`
	NetworkInfo  *NetworkInfo  `json:"network_info,omitempty"`
	DisplayInfo  *DisplayInfo  `json:"display_info,omitempty"`
	SecurityInfo *SecurityInfo `json:"security_info,omitempty"`
	AppInfo      *AppInfo      `json:"app_info,omitempty"`
	OSType       string        `json:"os_type,omitempty"`
}

type DeviceInfo struct {
	AndroidID    string `json:"android_id,omitempty"`
	DeviceName   string `json:"device_name,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty"`
	Brand        string `json:"brand,omitempty"`
	Product      string `json:"product,omitempty"`
}

type SystemInfo struct {
	AndroidVersion string `json:"android_version,omitempty"`
	SDKInt         int    `json:"sdk_int,omitempty"`
	BuildNumber    string `json:"build_number,omitempty"`
	KernelVersion  string `json:"kernel_version,omitempty"`
	BaseVersion    string `json:"base_version,omitempty"`
	BuildTags      string `json:"build_tags,omitempty"`
	SecurityPatch  string `json:"security_patch,omitempty"`
	UptimeMillis   int64  `json:"uptime_millis,omitempty"`
	BootTime       int64  `json:"boot_time,omitempty"`
}

type BatteryInfo struct {
	BatteryLevel       int     `json:"battery_level"`
	BatteryStatus      string  `json:"battery_status,omitempty"`
	BatteryHealth      string  `json:"battery_health,omitempty"`
	BatteryTemperature float64 `json:"battery_temperature,omitempty"`
}

type NetworkInfo struct {
	NetworkInterface string `json:"network_interface,omitempty"`
	WifiSSID         string `json:"wifi_ssid,omitempty"`
	WifiIP           string `json:"wifi_ip,omitempty"`
	MobileIP         string `json:"mobile_ip,omitempty"`
	EthernetIP       string `json:"ethernet_ip,omitempty"`
	// IPAddress is the legacy single-address field older agents report.
	IPAddress  string `json:"ip_address,omitempty"`
	MACAddress string `json:"mac_address,omitempty"`
	Carrier    string `json:"carrier,omitempty"`
}

type DisplayInfo struct {
	ScreenResolution string  `json:"screen_resolution,omitempty"`
	ScreenDensity    int     `json:"screen_density,omitempty"`
	RefreshRate      float64 `json:"refresh_rate,omitempty"`
}

type SecurityInfo struct {
	IsRooted          bool   `json:"is_rooted"`
	SELinuxStatus     string `json:"selinux_status,omitempty"`
	ScreenLockEnabled bool   `json:"screen_lock_enabled,omitempty"`
	EncryptionEnabled bool   `json:"encryption_enabled,omitempty"`
}

type AppInfo struct {
	InstalledApps []string `json:"installed_apps,omitempty"`
	AppCount      int      `json:"app_count,omitempty"`
}

// TelemetryRow is one flattened device_telemetry row: strongly typed columns,
// one row per snapshot. Optional columns are pointers so absent stays
// distinguishable from zero.
type TelemetryRow struct {
	ID       string
	DeviceID string

	AndroidID    string
	DeviceName   string
	Manufacturer string
	Model        string
	Brand        string
	Product      string

	AndroidVersion string
	SDKInt         int
	BuildNumber    string
	KernelVersion  *string
	BaseVersion    *string
	BuildTags      *string
	SecurityPatch  *string
	UptimeMillis   int64
	BootTime       int64

	BatteryLevel       int
	BatteryStatus      string
	BatteryHealth      *string
	BatteryTemperature *float64

	NetworkInterface string
	WifiSSID         *string
	WifiIP           *string
	MobileIP         *string
	EthernetIP       *string
	IPAddress        *string
	MACAddress       *string
	Carrier          *string

	ScreenResolution *string
	ScreenDensity    *int
	RefreshRate      *float64

	IsRooted          bool
	SELinuxStatus     *string
	ScreenLockEnabled bool
	EncryptionEnabled bool

	OSType string

	Timestamp time.Time
}

// HistoryRow is one telemetry_history row: the submission blob stored as-is
// plus the submission instant.
type HistoryRow struct {
	ID            string
	DeviceID      string
	TelemetryData json.RawMessage
	Timestamp     time.Time
}
