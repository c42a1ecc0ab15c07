package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string `validate:"required"`
	DBUser     string `validate:"required"`
	DBPassword string
	DBName     string `validate:"required"`
	DBPort     string `validate:"required"`
	AppPort    string `validate:"required"`
	AppEnv     string

	// Gateway credential set. Read once here, immutable afterwards;
	// swapping credentials means redeploying config.
	PayAppID     string `validate:"required"`
	PayMchID     string `validate:"required"`
	PayAPIKey    string `validate:"required"`
	PayNotifyURL string `validate:"required,url"`
	PayBaseURL   string `validate:"required,url"`
	PaySandbox   bool
}

// LoadConfig reads .env (if present) plus the process environment and
// validates the result.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     os.Getenv("DB_PORT"),
		AppPort:    os.Getenv("APP_PORT"),
		AppEnv:     os.Getenv("APP_ENV"),

		PayAppID:     os.Getenv("PAY_APP_ID"),
		PayMchID:     os.Getenv("PAY_MCH_ID"),
		PayAPIKey:    os.Getenv("PAY_API_KEY"),
		PayNotifyURL: os.Getenv("PAY_NOTIFY_URL"),
		PayBaseURL:   os.Getenv("PAY_BASE_URL"),
		PaySandbox:   os.Getenv("PAY_SANDBOX") == "true",
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
