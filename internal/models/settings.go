package models

// Notification types used as the cooldown key and the per-type enablement
// switch. Values are stored in the cooldown KV, so they must stay stable.
const (
	NotifyDeviceOffline = "device_offline"
	NotifyLowBattery    = "low_battery"
	NotifySecurityIssue = "security_issue"
	NotifyNewDevice     = "new_device"
)

// AdditionalSettings carries the two numeric thresholds inside the settings
// row's JSON sub-object.
type AdditionalSettings struct {
	BatteryThreshold int `json:"battery_threshold"`
	OfflineThreshold int `json:"offline_threshold"`
}

// NotificationSettings is the singleton settings row. At most one logical row
// exists; absence means defaults.
type NotificationSettings struct {
	NotifyDeviceOffline  bool               `json:"notify_device_offline"`
	NotifyLowBattery     bool               `json:"notify_low_battery"`
	NotifySecurityIssues bool               `json:"notify_security_issues"`
	NotifyNewDevice      bool               `json:"notify_new_device"`
	EmailNotifications   *string            `json:"email_notifications"`
	TelegramBotToken     *string            `json:"telegram_bot_token"`
	TelegramChatID       *string            `json:"telegram_chat_id"`
	AdditionalSettings   AdditionalSettings `json:"additional_settings"`
}

// Enabled reports whether the given notification type is switched on.
func (s *NotificationSettings) Enabled(notificationType string) bool {
	switch notificationType {
	case NotifyDeviceOffline:
		return s.NotifyDeviceOffline
	case NotifyLowBattery:
		return s.NotifyLowBattery
	case NotifySecurityIssue:
		return s.NotifySecurityIssues
	case NotifyNewDevice:
		return s.NotifyNewDevice
	default:
		return false
	}
}

// DefaultNotificationSettings returns the documented defaults used when no
// settings row exists or the store is unreachable.
func DefaultNotificationSettings() *NotificationSettings {
	return &NotificationSettings{
		NotifyDeviceOffline:  true,
		NotifyLowBattery:     true,
		NotifySecurityIssues: true,
		NotifyNewDevice:      false,
		AdditionalSettings: AdditionalSettings{
			BatteryThreshold: 20,
			OfflineThreshold: 15,
		},
	}
}
