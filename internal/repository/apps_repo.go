package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// AppsRepo maintains the per-device installed-package list.
type AppsRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewAppsRepo(db *sql.DB, logger *zap.Logger) *AppsRepo {
	return &AppsRepo{db: db, logger: logger}
}

// UpsertPackages records the packages reported in app_info.installed_apps,
// ignoring duplicates. App data is supplementary; callers log and swallow
// errors from this path.
func (r *AppsRepo) UpsertPackages(ctx context.Context, deviceID string, packages []string) error {
	if len(packages) == 0 {
		return nil
	}

	q := `
		INSERT INTO device_apps (device_id, app_package)
		SELECT $1, unnest($2::text[])
		ON CONFLICT (device_id, app_package) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, q, deviceID, pq.Array(packages)); err != nil {
		return fmt.Errorf("failed to upsert device apps: %w", err)
	}
	return nil
}

// ListPackages returns the recorded package names for a device.
func (r *AppsRepo) ListPackages(ctx context.Context, deviceID string) ([]string, error) {
	q := `
		SELECT app_package
		FROM device_apps
		WHERE device_id = $1
		ORDER BY app_package`

	rows, err := r.db.QueryContext(ctx, q, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list device apps: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var pkg string
		if err := rows.Scan(&pkg); err != nil {
			return nil, fmt.Errorf("failed to scan app package: %w", err)
		}
		out = append(out, pkg)
	}
	return out, rows.Err()
}
