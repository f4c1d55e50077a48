package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port        string
	Environment string

	// Database
	DatabaseURL string

	// JWT
	JWTSecret          string
	JWTExpirationHours int

	// Background Workers
	WorkerCount int

	// CORS
	AllowedOrigins []string

	// Fuel ledger
	// MaxNegativeLiters is the metering tolerance: a usage may drive the
	// tank level below zero, but never below -MaxNegativeLiters.
	MaxNegativeLiters int
	// FuelSystemOperator and FuelReconciliationPlate identify the employee
	// and placeholder vehicle that reconciliation usages created on refill
	// close are attributed to. Closing a refill fails if they don't exist.
	FuelSystemOperator      string
	FuelReconciliationPlate string

	// Vehicle document expiry alerts
	VehicleAlertDays int

	// Sentry
	SentryDSN string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		Environment:             getEnv("ENVIRONMENT", "development"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		JWTExpirationHours:      getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		WorkerCount:             getEnvAsInt("WORKER_COUNT", 5),
		AllowedOrigins:          getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
		MaxNegativeLiters:       getEnvAsInt("FUEL_MAX_NEGATIVE_LITERS", 50),
		FuelSystemOperator:      getEnv("FUEL_SYSTEM_OPERATOR", "SYSTEM"),
		FuelReconciliationPlate: getEnv("FUEL_RECONCILIATION_PLATE", "DIFERENCE"),
		VehicleAlertDays:        getEnvAsInt("VEHICLE_ALERT_DAYS", 30),
		SentryDSN:               getEnv("SENTRY_DSN", ""),
	}

	// Validate required configuration
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" && cfg.Environment == "production" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	// Set default JWT secret for development
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "dev-secret-change-in-production"
	}

	if cfg.MaxNegativeLiters < 0 {
		return nil, fmt.Errorf("FUEL_MAX_NEGATIVE_LITERS must not be negative")
	}

	return cfg, nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt reads an environment variable as integer
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsSlice reads an environment variable as comma-separated slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
