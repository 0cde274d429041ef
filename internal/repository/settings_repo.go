package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/models"
)

// SettingsRepo persists the singleton notification_settings row. The row has
// a fixed id so save is a plain upsert.
type SettingsRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewSettingsRepo(db *sql.DB, logger *zap.Logger) *SettingsRepo {
	return &SettingsRepo{db: db, logger: logger}
}

const settingsRowID = 1

// Get returns the settings row, or (nil, nil) when none has been saved yet.
func (r *SettingsRepo) Get(ctx context.Context) (*models.NotificationSettings, error) {
	q := `
		SELECT notify_device_offline, notify_low_battery, notify_security_issues, notify_new_device,
		       email_notifications, telegram_bot_token, telegram_chat_id, additional_settings
		FROM notification_settings
		WHERE id = $1`

	var s models.NotificationSettings
	var additional []byte
	err := r.db.QueryRowContext(ctx, q, settingsRowID).Scan(
		&s.NotifyDeviceOffline, &s.NotifyLowBattery, &s.NotifySecurityIssues, &s.NotifyNewDevice,
		&s.EmailNotifications, &s.TelegramBotToken, &s.TelegramChatID, &additional,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get notification settings: %w", err)
	}

	// Threshold defaults apply when the sub-object is absent or partial.
	s.AdditionalSettings = models.DefaultNotificationSettings().AdditionalSettings
	if len(additional) > 0 {
		if err := json.Unmarshal(additional, &s.AdditionalSettings); err != nil {
			r.logger.Warn("Malformed additional_settings, using threshold defaults", zap.Error(err))
		}
	}
	if s.AdditionalSettings.BatteryThreshold <= 0 {
		s.AdditionalSettings.BatteryThreshold = 20
	}
	if s.AdditionalSettings.OfflineThreshold <= 0 {
		s.AdditionalSettings.OfflineThreshold = 15
	}
	return &s, nil
}

// Save inserts the settings row on first save and updates it thereafter.
func (r *SettingsRepo) Save(ctx context.Context, s *models.NotificationSettings) error {
	additional, err := json.Marshal(s.AdditionalSettings)
	if err != nil {
		return fmt.Errorf("failed to marshal additional_settings: %w", err)
	}

	q := `
		INSERT INTO notification_settings
			(id, notify_device_offline, notify_low_battery, notify_security_issues, notify_new_device,
			 email_notifications, telegram_bot_token, telegram_chat_id, additional_settings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id)
		DO UPDATE SET notify_device_offline  = EXCLUDED.notify_device_offline,
		              notify_low_battery     = EXCLUDED.notify_low_battery,
		              notify_security_issues = EXCLUDED.notify_security_issues,
		              notify_new_device      = EXCLUDED.notify_new_device,
		              email_notifications    = EXCLUDED.email_notifications,
		              telegram_bot_token     = EXCLUDED.telegram_bot_token,
		              telegram_chat_id       = EXCLUDED.telegram_chat_id,
		              additional_settings    = EXCLUDED.additional_settings`
	if _, err := r.db.ExecContext(ctx, q,
		settingsRowID, s.NotifyDeviceOffline, s.NotifyLowBattery, s.NotifySecurityIssues, s.NotifyNewDevice,
		s.EmailNotifications, s.TelegramBotToken, s.TelegramChatID, additional,
	); err != nil {
		return fmt.Errorf("failed to save notification settings: %w", err)
	}
	return nil
}
