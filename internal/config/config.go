package config

import (
	"errors"
	"fmt"
	"os"
)

var ErrMissingRequiredValue = errors.New("missing required value")
var ErrInvalidValue = errors.New("invalid value")

type environment string

const (
	production  environment = "production"
	staging     environment = "staging"
	development environment = "development"
)

type Config struct {
	backendBaseURL     string
	dBConnectionString string
	sentryDSN          string
	port               string
	env                environment
}

func (c *Config) BackendBaseURL() string {
	return c.backendBaseURL
}

func (c *Config) DBConnectionString() string {
	return c.dBConnectionString
}

func (c *Config) SentryDSN() string {
	return c.sentryDSN
}

func (c *Config) Port() string {
	return c.port
}

func (c *Config) IsProduction() bool {
	return c.env == production
}

func (c *Config) IsStaging() bool {
	return c.env == staging
}

func (c *Config) IsDevelopment() bool {
	return c.env == development
}

// Return a string representation suitable for logging etc
func (c *Config) NonSensitiveString() string {
	return fmt.Sprintf("Config{env: %s, backendBaseURL: %s, port: %s, ...}", string(c.env), c.backendBaseURL, c.port)
}

func ConfigFromEnv() (Config, error) {
	missingKey := func(key string) (Config, error) {
		return Config{}, fmt.Errorf("%w: %s", ErrMissingRequiredValue, key)
	}

	var env environment
	rawEnv, ok := os.LookupEnv("SOCIOSTR_ENVIRONMENT")
	if !ok {
		return missingKey("SOCIOSTR_ENVIRONMENT")
	}
	switch rawEnv {
	case "production":
		env = production
	case "staging":
		env = staging
	case "development":
		env = development
	default:
		return Config{}, fmt.Errorf("%w: SOCIOSTR_ENVIRONMENT (%s)", ErrInvalidValue, rawEnv)
	}

	backendBaseURL := os.Getenv("BACKEND_BASE_URL")
	dbConnectionString := os.Getenv("DB_CONNECTION_STRING")
	sentryDSN := os.Getenv("SENTRY_DSN")
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if env == production || env == staging {
		if backendBaseURL == "" {
			return missingKey("BACKEND_BASE_URL")
		}
		if dbConnectionString == "" {
			return missingKey("DB_CONNECTION_STRING")
		}
		if sentryDSN == "" {
			return missingKey("SENTRY_DSN")
		}
	}

	return Config{
		backendBaseURL:     backendBaseURL,
		dBConnectionString: dbConnectionString,
		sentryDSN:          sentryDSN,
		port:               port,
		env:                env,
	}, nil
}
