package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/skybi/imagefx/internal/auth"
	"github.com/skybi/imagefx/internal/imagefx"
)

// Config represents the application configuration
type Config struct {
	Environment string `default:"prod"`

	Cookie string
	Token  string

	Timeout        time.Duration `default:"60s"`
	MaxRetries     int           `split_words:"true" default:"0"`
	RefreshRetries int           `split_words:"true" default:"0"`

	SessionEndpoint  string `split_words:"true"`
	GenerateEndpoint string `split_words:"true"`
	FetchEndpoint    string `split_words:"true"`
	CaptionEndpoint  string `split_words:"true"`

	PostgresDSN string `split_words:"true"`

	APIListenAddress string `split_words:"true" default:":8080"`
	APIAllowedOrigin string `split_words:"true" default:"*"`

	OIDCProviderURL string `split_words:"true"`
	OIDCClientID    string `split_words:"true"`

	SessionPurgeInterval time.Duration `split_words:"true" default:"1m"`
}

// LoadFromEnv loads a new configuration structure using environment variables and an optional .env file
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Overload()
	config := new(Config)
	if err := envconfig.Process("imagefx", config); err != nil {
		return nil, err
	}
	return config, nil
}

// IsEnvProduction returns whether the application runs in production mode
func (config *Config) IsEnvProduction() bool {
	return strings.ToLower(config.Environment) == "prod"
}

// HasPersistence returns whether a database is configured
func (config *Config) HasPersistence() bool {
	return strings.TrimSpace(config.PostgresDSN) != ""
}

// HasOIDC returns whether incoming API requests have to carry a verified ID token
func (config *Config) HasOIDC() bool {
	return config.OIDCProviderURL != "" && config.OIDCClientID != ""
}

// Credential builds the ImageFX credential out of the configured cookie and token
func (config *Config) Credential() (auth.Credential, error) {
	return auth.NewCredential(config.Cookie, config.Token)
}

// Endpoints returns the configured upstream endpoints; unset ones fall back to the public defaults
func (config *Config) Endpoints() imagefx.Endpoints {
	return imagefx.Endpoints{
		Session:  config.SessionEndpoint,
		Generate: config.GenerateEndpoint,
		Fetch:    config.FetchEndpoint,
		Caption:  config.CaptionEndpoint,
	}
}
