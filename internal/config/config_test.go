package config

import (
	"testing"

	"pos_backoffice/internal/models"

	"github.com/shopspring/decimal"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("SERVICE_CHARGE_RATE", "0.10")
	t.Setenv("ADMIN_USERNAME", "owner")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StorageDriver != StorageMemory {
		t.Errorf("StorageDriver = %q", cfg.StorageDriver)
	}
	if !cfg.ServiceChargeRate.Equal(decimal.RequireFromString("0.1")) {
		t.Errorf("ServiceChargeRate = %s", cfg.ServiceChargeRate)
	}
	if cfg.StockPolicy != models.StockPolicyAllowNegative {
		t.Errorf("StockPolicy = %q", cfg.StockPolicy)
	}
	if !cfg.TransferWebOrders {
		t.Error("TransferWebOrders should default to true")
	}
	if cfg.AdminUsername != "owner" || cfg.AdminPassword != "" {
		t.Errorf("admin bootstrap = %q/%q", cfg.AdminUsername, cfg.AdminPassword)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret": {"JWT_SECRET": ""},
		"bad driver":     {"JWT_SECRET": "x", "STORAGE_DRIVER": "mongo"},
		"bad policy":     {"JWT_SECRET": "x", "STOCK_POLICY": "sometimes"},
		"negative rate":  {"JWT_SECRET": "x", "TAX_RATE": "-0.1"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
