package repositories

import (
	"context"
	"database/sql"
	"time"

	"pos_backoffice/internal/models"
)

type settingRepository struct {
	exec SQLExecutor
}

func scanSetting(row scanner) (*models.ApplicationSetting, error) {
	var s models.ApplicationSetting
	var value, description sql.NullString
	if err := row.Scan(&s.SettingKey, &value, &description, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.SettingValue = nullStringPtr(value)
	s.Description = nullStringPtr(description)
	return &s, nil
}

func (r *settingRepository) Get(ctx context.Context, key string) (*models.ApplicationSetting, error) {
	s, err := scanSetting(r.exec.QueryRowContext(ctx,
		`SELECT setting_key, setting_value, description, updated_at FROM application_settings WHERE setting_key = $1`, key))
	if err != nil {
		return nil, dbError("getting setting", err)
	}
	return s, nil
}

// Upsert inserts the setting or overwrites value and description of an existing key.
func (r *settingRepository) Upsert(ctx context.Context, s *models.ApplicationSetting) error {
	s.UpdatedAt = time.Now()
	_, err := r.exec.ExecContext(ctx,
		`INSERT INTO application_settings (setting_key, setting_value, description, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (setting_key) DO UPDATE
		 SET setting_value = EXCLUDED.setting_value, description = EXCLUDED.description, updated_at = EXCLUDED.updated_at`,
		s.SettingKey, s.SettingValue, s.Description, s.UpdatedAt)
	if err != nil {
		return dbError("upserting setting", err)
	}
	return nil
}

func (r *settingRepository) List(ctx context.Context) ([]models.ApplicationSetting, error) {
	rows, err := r.exec.QueryContext(ctx,
		`SELECT setting_key, setting_value, description, updated_at FROM application_settings ORDER BY setting_key`)
	if err != nil {
		return nil, dbError("listing settings", err)
	}
	defer rows.Close()

	settings := []models.ApplicationSetting{}
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, dbError("scanning setting", err)
		}
		settings = append(settings, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, dbError("iterating settings", err)
	}
	return settings, nil
}

func (r *settingRepository) Delete(ctx context.Context, key string) error {
	res, err := r.exec.ExecContext(ctx, `DELETE FROM application_settings WHERE setting_key = $1`, key)
	return checkAffected("deleting setting", res, err)
}
