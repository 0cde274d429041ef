package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/models"
)

// TelemetryRepo persists the two representations of a snapshot: the flattened
// device_telemetry row and the raw telemetry_history blob.
type TelemetryRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewTelemetryRepo(db *sql.DB, logger *zap.Logger) *TelemetryRepo {
	return &TelemetryRepo{db: db, logger: logger}
}

// InsertHistory stores the submission blob exactly as received.
func (r *TelemetryRepo) InsertHistory(ctx context.Context, deviceID string, blob json.RawMessage, ts time.Time) error {
	q := `
		INSERT INTO telemetry_history (id, device_id, telemetry_data, timestamp)
		VALUES ($1, $2, $3, $4)`
	if _, err := r.db.ExecContext(ctx, q, uuid.New().String(), deviceID, []byte(blob), ts); err != nil {
		return fmt.Errorf("failed to insert telemetry history: %w", err)
	}
	return nil
}

const telemetryColumns = `
	android_id, device_name, manufacturer, model, brand, product,
	android_version, sdk_int, build_number, kernel_version, base_version, build_tags, security_patch,
	uptime_millis, boot_time,
	battery_level, battery_status, battery_health, battery_temperature,
	network_interface, wifi_ssid, wifi_ip, mobile_ip, ethernet_ip, ip_address, mac_address, carrier,
	screen_resolution, screen_density, refresh_rate,
	is_rooted, selinux_status, screen_lock_enabled, encryption_enabled,
	os_type, timestamp`

// InsertStructured stores one flattened snapshot row.
func (r *TelemetryRepo) InsertStructured(ctx context.Context, row *models.TelemetryRow) error {
	q := `
		INSERT INTO device_telemetry (id, device_id, ` + telemetryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18,
		        $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34, $35, $36, $37, $38)`
	_, err := r.db.ExecContext(ctx, q,
		uuid.New().String(), row.DeviceID,
		row.AndroidID, row.DeviceName, row.Manufacturer, row.Model, row.Brand, row.Product,
		row.AndroidVersion, row.SDKInt, row.BuildNumber, row.KernelVersion, row.BaseVersion, row.BuildTags, row.SecurityPatch,
		row.UptimeMillis, row.BootTime,
		row.BatteryLevel, row.BatteryStatus, row.BatteryHealth, row.BatteryTemperature,
		row.NetworkInterface, row.WifiSSID, row.WifiIP, row.MobileIP, row.EthernetIP, row.IPAddress, row.MACAddress, row.Carrier,
		row.ScreenResolution, row.ScreenDensity, row.RefreshRate,
		row.IsRooted, row.SELinuxStatus, row.ScreenLockEnabled, row.EncryptionEnabled,
		row.OSType, row.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert telemetry row: %w", err)
	}
	return nil
}

// LatestStructured returns the newest flattened row for the device, or nil
// when the device has none.
func (r *TelemetryRepo) LatestStructured(ctx context.Context, deviceID string) (*models.TelemetryRow, error) {
	q := `
		SELECT id::text, device_id::text, ` + telemetryColumns + `
		FROM device_telemetry
		WHERE device_id = $1
		ORDER BY timestamp DESC
		LIMIT 1`

	row := &models.TelemetryRow{}
	err := r.db.QueryRowContext(ctx, q, deviceID).Scan(
		&row.ID, &row.DeviceID,
		&row.AndroidID, &row.DeviceName, &row.Manufacturer, &row.Model, &row.Brand, &row.Product,
		&row.AndroidVersion, &row.SDKInt, &row.BuildNumber, &row.KernelVersion, &row.BaseVersion, &row.BuildTags, &row.SecurityPatch,
		&row.UptimeMillis, &row.BootTime,
		&row.BatteryLevel, &row.BatteryStatus, &row.BatteryHealth, &row.BatteryTemperature,
		&row.NetworkInterface, &row.WifiSSID, &row.WifiIP, &row.MobileIP, &row.EthernetIP, &row.IPAddress, &row.MACAddress, &row.Carrier,
		&row.ScreenResolution, &row.ScreenDensity, &row.RefreshRate,
		&row.IsRooted, &row.SELinuxStatus, &row.ScreenLockEnabled, &row.EncryptionEnabled,
		&row.OSType, &row.Timestamp,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest telemetry row: %w", err)
	}
	return row, nil
}

// LatestHistory returns the newest raw blob for the device, or nil when the
// device has none.
func (r *TelemetryRepo) LatestHistory(ctx context.Context, deviceID string) (*models.HistoryRow, error) {
	q := `
		SELECT id::text, device_id::text, telemetry_data, timestamp
		FROM telemetry_history
		WHERE device_id = $1
		ORDER BY timestamp DESC
		LIMIT 1`

	row := &models.HistoryRow{}
	var blob []byte
	err := r.db.QueryRowContext(ctx, q, deviceID).Scan(&row.ID, &row.DeviceID, &blob, &row.Timestamp)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest history row: %w", err)
	}
	row.TelemetryData = json.RawMessage(blob)
	return row, nil
}

// LatestTimestamp returns the newest telemetry instant across both tables,
// or nil when the device has never reported. The notification gate uses this
// for its staleness check.
func (r *TelemetryRepo) LatestTimestamp(ctx context.Context, deviceID string) (*time.Time, error) {
	q := `
		SELECT MAX(ts) FROM (
			SELECT MAX(timestamp) AS ts FROM device_telemetry WHERE device_id = $1
			UNION ALL
			SELECT MAX(timestamp) AS ts FROM telemetry_history WHERE device_id = $1
		) latest`

	var ts sql.NullTime
	if err := r.db.QueryRowContext(ctx, q, deviceID).Scan(&ts); err != nil {
		return nil, fmt.Errorf("failed to query latest telemetry timestamp: %w", err)
	}
	if !ts.Valid {
		return nil, nil
	}
	return &ts.Time, nil
}

// BatteryReading is one battery data point from either representation,
// joined with the owning device.
type BatteryReading struct {
	DeviceID      string
	AndroidID     string
	DeviceName    string
	BatteryLevel  int
	BatteryStatus string
	Timestamp     time.Time
}

// BatteryReadings returns battery data points from both representations.
// Rows are not deduplicated per device; callers reduce to latest-per-device.
func (r *TelemetryRepo) BatteryReadings(ctx context.Context) ([]BatteryReading, error) {
	q := `
		SELECT d.id::text, d.android_id, d.device_name, t.battery_level, t.battery_status, t.timestamp
		FROM device_telemetry t
		JOIN devices d ON d.id = t.device_id
		UNION ALL
		SELECT d.id::text, d.android_id, d.device_name,
		       COALESCE((h.telemetry_data->'battery_info'->>'battery_level')::int, 0),
		       COALESCE(h.telemetry_data->'battery_info'->>'battery_status', ''),
		       h.timestamp
		FROM telemetry_history h
		JOIN devices d ON d.id = h.device_id`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query battery readings: %w", err)
	}
	defer rows.Close()

	var out []BatteryReading
	for rows.Next() {
		var b BatteryReading
		if err := rows.Scan(&b.DeviceID, &b.AndroidID, &b.DeviceName, &b.BatteryLevel, &b.BatteryStatus, &b.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan battery reading: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// SecurityReading is one rooted-state data point from either representation.
type SecurityReading struct {
	DeviceID   string
	AndroidID  string
	DeviceName string
	IsRooted   bool
	Timestamp  time.Time
}

// SecurityReadings returns rooted-state data points from both
// representations. Callers reduce to latest-per-device.
func (r *TelemetryRepo) SecurityReadings(ctx context.Context) ([]SecurityReading, error) {
	q := `
		SELECT d.id::text, d.android_id, d.device_name, t.is_rooted, t.timestamp
		FROM device_telemetry t
		JOIN devices d ON d.id = t.device_id
		UNION ALL
		SELECT d.id::text, d.android_id, d.device_name,
		       COALESCE((h.telemetry_data->'security_info'->>'is_rooted')::boolean, false),
		       h.timestamp
		FROM telemetry_history h
		JOIN devices d ON d.id = h.device_id`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query security readings: %w", err)
	}
	defer rows.Close()

	var out []SecurityReading
	for rows.Next() {
		var s SecurityReading
		if err := rows.Scan(&s.DeviceID, &s.AndroidID, &s.DeviceName, &s.IsRooted, &s.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan security reading: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
