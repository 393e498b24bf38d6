package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"pos_backoffice/internal/models"
	"pos_backoffice/pkg/utils"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds everything read from the environment at startup.
type Config struct {
	Port               string
	AllowedOrigins     []string
	LogLevel           string
	LogFormat          string
	StorageDriver      string
	DB                 DBConfig
	JWTSecret          string
	JWTTTL             time.Duration
	TxMaxRetries       int
	ServiceChargeRate  decimal.Decimal
	TaxRate            decimal.Decimal
	StockPolicy        models.StockPolicy
	TransferWebOrders  bool
	WebhookURL         string
	WebhookMaxAttempts int
	WebhookBackoff     time.Duration
	AdminUsername      string
	AdminPassword      string
}

// DBConfig is the lib/pq connection configuration.
type DBConfig struct {
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SchemaPath string
}

// DSN renders the key/value connection string lib/pq expects.
func (d DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{
		Port:          utils.Getenv("PORT", "8080"),
		LogLevel:      utils.Getenv("LOG_LEVEL", "info"),
		LogFormat:     utils.Getenv("LOG_FORMAT", "console"),
		StorageDriver: strings.ToLower(utils.Getenv("STORAGE_DRIVER", StoragePostgres)),
		DB: DBConfig{
			Host:       utils.Getenv("DB_HOST", "localhost"),
			Port:       utils.Getenv("DB_PORT", "5432"),
			User:       utils.Getenv("DB_USER", "pos_user"),
			Password:   utils.Getenv("DB_PASSWORD", "pos_password"),
			Name:       utils.Getenv("DB_NAME", "pos_backoffice"),
			SSLMode:    utils.Getenv("DB_SSLMODE", "disable"),
			SchemaPath: utils.Getenv("DB_SCHEMA_PATH", ""),
		},
		JWTSecret:          utils.Getenv("JWT_SECRET", ""),
		JWTTTL:             utils.GetenvDuration("JWT_TTL", 12*time.Hour),
		TxMaxRetries:       utils.GetenvInt("TX_MAX_RETRIES", 3),
		ServiceChargeRate:  utils.GetenvDecimal("SERVICE_CHARGE_RATE", decimal.RequireFromString("0.12")),
		TaxRate:            utils.GetenvDecimal("TAX_RATE", decimal.Zero),
		StockPolicy:        models.StockPolicy(utils.Getenv("STOCK_POLICY", string(models.StockPolicyAllowNegative))),
		TransferWebOrders:  utils.GetenvBool("TRANSFER_WEB_ORDERS", true),
		WebhookURL:         utils.Getenv("WEBHOOK_URL", ""),
		WebhookMaxAttempts: utils.GetenvInt("WEBHOOK_MAX_ATTEMPTS", 5),
		WebhookBackoff:     utils.GetenvDuration("WEBHOOK_BACKOFF", 500*time.Millisecond),
		AdminUsername:      utils.Getenv("ADMIN_USERNAME", ""),
		AdminPassword:      utils.Getenv("ADMIN_PASSWORD", ""),
	}

	if origins := utils.Getenv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	} else {
		cfg.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:3001"}
	}

	return cfg, cfg.Validate()
}

// Validate rejects configurations the services cannot run with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.StorageDriver != StoragePostgres && c.StorageDriver != StorageMemory {
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if !c.StockPolicy.IsValid() {
		return fmt.Errorf("unknown STOCK_POLICY %q", c.StockPolicy)
	}
	if c.ServiceChargeRate.IsNegative() || c.TaxRate.IsNegative() {
		return errors.New("SERVICE_CHARGE_RATE and TAX_RATE must not be negative")
	}
	if c.TxMaxRetries < 0 {
		c.TxMaxRetries = 0
	}
	return nil
}
