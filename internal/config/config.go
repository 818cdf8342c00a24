package config

import "github.com/kelseyhightower/envconfig"

// Config holds application configuration loaded from environment variables.
// It is constructed once in main and never mutated afterwards.
type Config struct {
	Port                   int    `envconfig:"PORT" default:"8080"`
	LogLevel               string `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL            string `envconfig:"DATABASE_URL" required:"true"`
	PasswordSalt           string `envconfig:"PASSWORD_SALT" required:"true"`
	MinPasswordLength      int    `envconfig:"MIN_PASSWORD_LENGTH" default:"6"`
	AllowPasswordlessLogin bool   `envconfig:"ALLOW_PASSWORDLESS_LOGIN" default:"false"`
	AdminPassword          string `envconfig:"ADMIN_PASSWORD" default:""`
	Version                string `envconfig:"VERSION" default:"dev"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
