package models

import "time"

// Setting keys read at runtime.
const (
	SettingServiceChargeRate = "service_charge_rate"
	SettingTaxRate           = "tax_rate"
)

// ApplicationSetting represents a key-value pair for application configuration
type ApplicationSetting struct {
	SettingKey   string    `json:"setting_key" db:"setting_key" binding:"required"`
	SettingValue *string   `json:"setting_value,omitempty" db:"setting_value"`
	Description  *string   `json:"description,omitempty" db:"description"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
