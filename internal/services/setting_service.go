package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pos_backoffice/internal/models"
	"pos_backoffice/internal/repositories"
	"pos_backoffice/pkg/utils"

	"github.com/shopspring/decimal"
)

var ErrSettingNotFound = errors.New("application setting not found")

// rateKeys are settings the pricing policy reads; their values must be
// non-negative decimals.
var rateKeys = map[string]bool{
	models.SettingServiceChargeRate: true,
	models.SettingTaxRate:           true,
}

// SettingService manages key/value application settings.
type SettingService interface {
	ListSettings(ctx context.Context) ([]models.ApplicationSetting, error)
	GetSetting(ctx context.Context, key string) (*models.ApplicationSetting, error)
	UpsertSetting(ctx context.Context, setting models.ApplicationSetting) (*models.ApplicationSetting, error)
	DeleteSetting(ctx context.Context, key string) error
}

type settingService struct {
	store repositories.Store
}

// NewSettingService creates a new instance of SettingService.
func NewSettingService(store repositories.Store) SettingService {
	return &settingService{store: store}
}

func (s *settingService) ListSettings(ctx context.Context) ([]models.ApplicationSetting, error) {
	var settings []models.ApplicationSetting
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		settings, err = r.Settings.List(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	return settings, nil
}

func (s *settingService) GetSetting(ctx context.Context, key string) (*models.ApplicationSetting, error) {
	var setting *models.ApplicationSetting
	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		var err error
		setting, err = r.Settings.Get(ctx, key)
		if err != nil {
			return notFound(err, ErrSettingNotFound, "key %q", key)
		}
		return nil
	})
	return setting, err
}

func (s *settingService) UpsertSetting(ctx context.Context, setting models.ApplicationSetting) (*models.ApplicationSetting, error) {
	setting.SettingKey = strings.TrimSpace(setting.SettingKey)
	if setting.SettingKey == "" {
		return nil, fmt.Errorf("%w: setting key cannot be empty", ErrValidation)
	}
	if rateKeys[setting.SettingKey] && setting.SettingValue != nil {
		rate, err := decimal.NewFromString(strings.TrimSpace(*setting.SettingValue))
		if err != nil || rate.IsNegative() {
			return nil, fmt.Errorf("%w: %s must be a non-negative decimal", ErrValidation, setting.SettingKey)
		}
		normalized := rate.String()
		setting.SettingValue = &normalized
	}

	err := s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		return r.Settings.Upsert(ctx, &setting)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save setting %q: %w", setting.SettingKey, err)
	}
	utils.LogInfo("Application setting saved", map[string]interface{}{
		"key": setting.SettingKey, "value": utils.DerefString(setting.SettingValue),
	})
	return &setting, nil
}

func (s *settingService) DeleteSetting(ctx context.Context, key string) error {
	return s.store.WithinTx(ctx, func(r *repositories.Repos) error {
		if err := r.Settings.Delete(ctx, key); err != nil {
			return notFound(err, ErrSettingNotFound, "key %q", key)
		}
		return nil
	})
}
