package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/models"
)

// ErrDeviceNotFound marks lookups and deletes against an unknown device id.
var ErrDeviceNotFound = errors.New("device not found")

// DevicesRepo persists device identity rows, keyed by android_id.
type DevicesRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewDevicesRepo(db *sql.DB, logger *zap.Logger) *DevicesRepo {
	return &DevicesRepo{db: db, logger: logger}
}

// UpsertByAndroidID creates the device row on first sighting and refreshes
// name/manufacturer/model/last_seen on every later one. The created flag is
// true only for the insert case (used for new-device notifications).
func (r *DevicesRepo) UpsertByAndroidID(ctx context.Context, androidID, deviceName, manufacturer, model string, seenAt time.Time) (string, bool, error) {
	if androidID == "" {
		return "", false, fmt.Errorf("android_id is required")
	}

	q := `
		INSERT INTO devices (id, android_id, device_name, manufacturer, model, first_seen, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (android_id)
		DO UPDATE SET device_name  = EXCLUDED.device_name,
		              manufacturer = EXCLUDED.manufacturer,
		              model        = EXCLUDED.model,
		              last_seen    = EXCLUDED.last_seen
		RETURNING id::text, (xmax = 0) AS created`

	var id string
	var created bool
	err := r.db.QueryRowContext(ctx, q,
		uuid.New().String(), androidID, deviceName, manufacturer, model, seenAt,
	).Scan(&id, &created)
	if err != nil {
		return "", false, fmt.Errorf("failed to upsert device: %w", err)
	}
	return id, created, nil
}

func (r *DevicesRepo) GetDevice(ctx context.Context, deviceID string) (*models.DeviceIdentity, error) {
	q := `
		SELECT id::text, android_id, device_name, manufacturer, model, first_seen, last_seen
		FROM devices
		WHERE id = $1`

	var d models.DeviceIdentity
	err := r.db.QueryRowContext(ctx, q, deviceID).Scan(
		&d.ID, &d.AndroidID, &d.DeviceName, &d.Manufacturer, &d.Model, &d.FirstSeen, &d.LastSeen,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
		}
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	return &d, nil
}

func (r *DevicesRepo) ListDevices(ctx context.Context) ([]models.DeviceIdentity, error) {
	q := `
		SELECT id::text, android_id, device_name, manufacturer, model, first_seen, last_seen
		FROM devices
		ORDER BY device_name`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	var out []models.DeviceIdentity
	for rows.Next() {
		var d models.DeviceIdentity
		if err := rows.Scan(&d.ID, &d.AndroidID, &d.DeviceName, &d.Manufacturer, &d.Model, &d.FirstSeen, &d.LastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListOffline returns devices whose last_seen is before the cutoff.
func (r *DevicesRepo) ListOffline(ctx context.Context, cutoff time.Time) ([]models.DeviceIdentity, error) {
	q := `
		SELECT id::text, android_id, device_name, manufacturer, model, first_seen, last_seen
		FROM devices
		WHERE last_seen < $1
		ORDER BY last_seen`

	rows, err := r.db.QueryContext(ctx, q, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list offline devices: %w", err)
	}
	defer rows.Close()

	var out []models.DeviceIdentity
	for rows.Next() {
		var d models.DeviceIdentity
		if err := rows.Scan(&d.ID, &d.AndroidID, &d.DeviceName, &d.Manufacturer, &d.Model, &d.FirstSeen, &d.LastSeen); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// DeleteDevice removes the device and all dependent rows in one transaction.
func (r *DevicesRepo) DeleteDevice(ctx context.Context, deviceID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM device_apps WHERE device_id = $1`,
		`DELETE FROM device_telemetry WHERE device_id = $1`,
		`DELETE FROM telemetry_history WHERE device_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, q, deviceID); err != nil {
			return fmt.Errorf("failed to delete device children: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM devices WHERE id = $1`, deviceID)
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, deviceID)
	}

	return tx.Commit()
}
