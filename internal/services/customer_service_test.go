package services

import (
	"errors"
	"testing"

	"pos_backoffice/internal/models"
)

func TestCustomerPhoneUniqueness(t *testing.T) {
	env := newTestEnv(t, models.StockPolicyAllowNegative)
	phone := "+965 2222 3333"
	first, err := env.customers.CreateCustomer(env.ctx, CreateCustomerRequest{Name: "Huda", Phone: &phone, DeliveryCost: dec("1")})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	if _, err := env.customers.CreateCustomer(env.ctx, CreateCustomerRequest{Name: "Other", Phone: &phone}); !errors.Is(err, ErrPhoneNumberExists) {
		t.Errorf("duplicate phone: %v", err)
	}

	bad := "call me"
	if _, err := env.customers.CreateCustomer(env.ctx, CreateCustomerRequest{Name: "Bad", Phone: &bad}); !errors.Is(err, ErrValidation) {
		t.Errorf("invalid phone: %v", err)
	}

	other, err := env.customers.CreateCustomer(env.ctx, CreateCustomerRequest{Name: "Zaid"})
	if err != nil {
		t.Fatalf("CreateCustomer without phone: %v", err)
	}
	if _, err := env.customers.UpdateCustomer(env.ctx, other.ID, UpdateCustomerRequest{Phone: &phone}); !errors.Is(err, ErrPhoneNumberExists) {
		t.Errorf("update to taken phone: %v", err)
	}

	updated, err := env.customers.UpdateCustomer(env.ctx, first.ID, UpdateCustomerRequest{DeliveryCost: ptrDec("2.5")})
	if err != nil {
		t.Fatalf("UpdateCustomer: %v", err)
	}
	assertDecimal(t, "delivery cost", updated.DeliveryCost, "2.5")
	if _, err := env.customers.GetCustomer(env.ctx, 404); !errors.Is(err, ErrCustomerNotFound) {
		t.Errorf("GetCustomer(404): %v", err)
	}
}

func TestSettingRateValidation(t *testing.T) {
	env := newTestEnv(t, models.StockPolicyAllowNegative)
	bad := "ten percent"
	if _, err := env.settings.UpsertSetting(env.ctx, models.ApplicationSetting{SettingKey: models.SettingTaxRate, SettingValue: &bad}); !errors.Is(err, ErrValidation) {
		t.Errorf("non-decimal rate: %v", err)
	}
	rate := " 0.050 "
	saved, err := env.settings.UpsertSetting(env.ctx, models.ApplicationSetting{SettingKey: models.SettingTaxRate, SettingValue: &rate})
	if err != nil {
		t.Fatalf("UpsertSetting: %v", err)
	}
	if *saved.SettingValue != "0.05" {
		t.Errorf("stored value = %q", *saved.SettingValue)
	}

	free := "Welcome!"
	if _, err := env.settings.UpsertSetting(env.ctx, models.ApplicationSetting{SettingKey: "receipt_footer", SettingValue: &free}); err != nil {
		t.Errorf("free-form setting: %v", err)
	}
	if err := env.settings.DeleteSetting(env.ctx, "receipt_footer"); err != nil {
		t.Errorf("DeleteSetting: %v", err)
	}
	if _, err := env.settings.GetSetting(env.ctx, "receipt_footer"); !errors.Is(err, ErrSettingNotFound) {
		t.Errorf("GetSetting after delete: %v", err)
	}
}
