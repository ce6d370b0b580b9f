package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port            string
	Environment     string
	Database        DatabaseConfig
	Gateway         GatewayConfig
	Storefront      StorefrontConfig
	SessionTTL      time.Duration
	BalanceDebounce time.Duration
	LogLevel        string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// GatewayConfig configures the external card-tokenization gateway. The
// shared secret stays in this service; signed requests are minted here.
type GatewayConfig struct {
	Host         string
	MerchantID   string
	SharedSecret string
}

type StorefrontConfig struct {
	BaseURL string
	APIKey  string
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("SESSION_TTL", "30m")
	viper.SetDefault("BALANCE_DEBOUNCE", "400ms")
	viper.SetDefault("LOG_LEVEL", "info")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	sessionTTL, err := time.ParseDuration(getEnvOrViper("SESSION_TTL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	balanceDebounce, err := time.ParseDuration(getEnvOrViper("BALANCE_DEBOUNCE", "400ms"))
	if err != nil {
		return nil, fmt.Errorf("invalid BALANCE_DEBOUNCE: %w", err)
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "checkoutapi"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Gateway: GatewayConfig{
			Host:         getEnvOrViper("GATEWAY_HOST", ""),
			MerchantID:   getEnvOrViper("GATEWAY_MERCHANT_ID", ""),
			SharedSecret: getEnvOrViper("GATEWAY_SHARED_SECRET", ""),
		},
		Storefront: StorefrontConfig{
			BaseURL: getEnvOrViper("STOREFRONT_BASE_URL", ""),
			APIKey:  getEnvOrViper("STOREFRONT_API_KEY", ""),
		},
		SessionTTL:      sessionTTL,
		BalanceDebounce: balanceDebounce,
		LogLevel:        getEnvOrViper("LOG_LEVEL", "info"),
	}

	// Validate required fields
	if cfg.Storefront.BaseURL == "" {
		return nil, fmt.Errorf("STOREFRONT_BASE_URL is required")
	}
	if cfg.Gateway.Host == "" {
		return nil, fmt.Errorf("GATEWAY_HOST is required")
	}
	if cfg.Gateway.MerchantID == "" {
		return nil, fmt.Errorf("GATEWAY_MERCHANT_ID is required")
	}
	if cfg.Gateway.SharedSecret == "" {
		return nil, fmt.Errorf("GATEWAY_SHARED_SECRET is required")
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}
