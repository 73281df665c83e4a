package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds environment-provided settings. AWS credentials are
// resolved by the SDK's own environment chain and are not listed here.
type Config struct {
	Region             string        `env:"AWS_REGION" envDefault:"us-west-2"`
	Table              string        `env:"DYNAMODB_TABLE_NAME" envDefault:"next-auth"`
	APIURL             string        `env:"API_URL"`
	JWTSecret          string        `env:"JWT_SECRET"`
	SessionTTL         time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	GoogleClientID     string        `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string        `env:"GOOGLE_REDIRECT_URL"`
}

// FromEnv parses the environment into a Config.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
