package services

import (
	"context"
	"errors"

	"pos_backoffice/internal/models"
	"pos_backoffice/internal/pricing"
	"pos_backoffice/internal/repositories"
	"pos_backoffice/pkg/utils"

	"github.com/shopspring/decimal"
)

// policySource resolves pricing rates: application settings win over the
// configured defaults.
type policySource struct {
	defaults pricing.Policy
}

func (p policySource) load(ctx context.Context, r *repositories.Repos) (pricing.Policy, error) {
	policy := p.defaults
	var err error
	if policy.ServiceChargeRate, err = rateSetting(ctx, r, models.SettingServiceChargeRate, p.defaults.ServiceChargeRate); err != nil {
		return pricing.Policy{}, err
	}
	if policy.TaxRate, err = rateSetting(ctx, r, models.SettingTaxRate, p.defaults.TaxRate); err != nil {
		return pricing.Policy{}, err
	}
	return policy, nil
}

func rateSetting(ctx context.Context, r *repositories.Repos, key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	setting, err := r.Settings.Get(ctx, key)
	if errors.Is(err, repositories.ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	if setting.SettingValue == nil {
		return fallback, nil
	}
	rate, err := decimal.NewFromString(*setting.SettingValue)
	if err != nil || rate.IsNegative() {
		utils.LogWarn("Ignoring invalid rate setting", map[string]interface{}{"key": key, "value": *setting.SettingValue})
		return fallback, nil
	}
	return rate, nil
}
