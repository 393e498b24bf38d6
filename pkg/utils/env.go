package utils

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Getenv retrieves the value of the environment variable named by the key.
// If the variable is not present or its value is empty, Getenv returns the fallback string.
func Getenv(key, fallback string) string {
	value := os.Getenv(key)
	if len(value) == 0 {
		return fallback
	}
	return value
}

// GetenvInt parses an integer variable, falling back on absence or parse failure.
func GetenvInt(key string, fallback int) int {
	value, err := strconv.Atoi(Getenv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}

// GetenvBool accepts the usual strconv.ParseBool spellings.
func GetenvBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(Getenv(key, "")))
	if err != nil {
		return fallback
	}
	return value
}

// GetenvDuration parses values such as "500ms" or "72h".
func GetenvDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(Getenv(key, ""))
	if err != nil {
		return fallback
	}
	return value
}

// GetenvDecimal parses rates and amounts without going through float64.
func GetenvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	value, err := decimal.NewFromString(strings.TrimSpace(Getenv(key, "")))
	if err != nil {
		return fallback
	}
	return value
}
