// Package config manages environment variables.
//
// It reads variables from the process environment (and from a `.env` file
// when one exists), loads them into structured Go types and validates that
// required values are present so they can be reused across the application
// runtime.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Apply defaults for optional values.
//   - Validate required values so the app fails fast on bad/missing config.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	// Side-effect import: loads `.env` into the process environment before
	// anything below reads it.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix every configuration variable must carry.
//
// Nesting uses either "." or "__":
//
//	CITYBUS_SERVER.PORT=8080
//	CITYBUS_SERVER__PORT=8080
//
// both land in Config.Server.Port.
const EnvPrefix = "CITYBUS_"

// DefaultProvinceSourceURL is the public administrative-division API the
// province import reads from when no other source is configured.
const DefaultProvinceSourceURL = "https://provinces.open-api.vn/api/p/"

// Config is the root configuration object for the application.
//
// Observability is a pointer because it is optional. If not provided,
// defaults are injected at load time.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis" validate:"required"`
	Auth          AuthConfig           `koanf:"auth" validate:"required"`
	Integration   IntegrationConfig    `koanf:"integration"`
	Import        ImportConfig         `koanf:"import" validate:"required"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env string `koanf:"env" validate:"required,oneof=local development staging production test"`
}

// ServerConfig groups settings for the HTTP server runtime.
//
// Timeouts are expressed in seconds.
type ServerConfig struct {
	Port               string          `koanf:"port" validate:"required"`
	ReadTimeout        int             `koanf:"read_timeout" validate:"required,min=1"`
	WriteTimeout       int             `koanf:"write_timeout" validate:"required,min=1"`
	IdleTimeout        int             `koanf:"idle_timeout" validate:"required,min=1"`
	CORSAllowedOrigins []string        `koanf:"cors_allowed_origins" validate:"required,min=1"`
	RateLimit          RateLimitConfig `koanf:"rate_limit"`
}

// RateLimitConfig configures the per-IP limiter placed in front of the
// credential endpoints (login, register, send-otp).
type RateLimitConfig struct {
	// Rate is the sustained number of requests per second per client.
	Rate float64 `koanf:"rate" validate:"gt=0"`
	// Burst is the bucket size.
	Burst int `koanf:"burst" validate:"min=1"`
	// ExpiresIn is how long an idle client's bucket is remembered.
	ExpiresIn time.Duration `koanf:"expires_in" validate:"min=1s"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password" validate:"required"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int    `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"required"`
}

// RedisConfig contains Redis connection details.
// Address is "host:port".
type RedisConfig struct {
	Address string `koanf:"address" validate:"required"`
}

// AuthConfig stores the secrets and lifetimes used by the customer auth flow.
//
// Access and refresh tokens are signed with different secrets so a leaked
// refresh secret cannot mint access tokens and vice versa.
type AuthConfig struct {
	AccessSecret    string        `koanf:"access_secret" validate:"required,min=16"`
	RefreshSecret   string        `koanf:"refresh_secret" validate:"required,min=16,nefield=AccessSecret"`
	AccessTokenTTL  time.Duration `koanf:"access_token_ttl" validate:"min=1m"`
	RefreshTokenTTL time.Duration `koanf:"refresh_token_ttl" validate:"min=1m,gtfield=AccessTokenTTL"`
	OTPTTL          time.Duration `koanf:"otp_ttl" validate:"min=30s"`
	OTPLength       int           `koanf:"otp_length" validate:"min=4,max=10"`
	BcryptCost      int           `koanf:"bcrypt_cost" validate:"min=4,max=31"`
}

// IntegrationConfig holds credentials for third-party services.
type IntegrationConfig struct {
	// ResendAPIKey authenticates against the Resend email API. Empty disables
	// delivery (emails are logged and dropped).
	ResendAPIKey string `koanf:"resend_api_key"`
	// EmailFrom is the sender identity, e.g. "CityBus <no-reply@citybus.vn>".
	EmailFrom string `koanf:"email_from" validate:"required"`
}

// ImportConfig drives the province import.
//
// The acting user is recorded as created_by on every imported province.
type ImportConfig struct {
	SourceURL    string        `koanf:"source_url" validate:"required,url"`
	ActingUserID string        `koanf:"acting_user_id" validate:"required,uuid"`
	Concurrency  int           `koanf:"concurrency" validate:"min=1,max=100"`
	FetchTimeout time.Duration `koanf:"fetch_timeout" validate:"min=1s"`
	// Schedule is an optional cron spec. When set, the worker enqueues a
	// province import on that schedule.
	Schedule string `koanf:"schedule"`
}

// LoadConfig loads configuration from environment variables, unmarshals it
// into Config, applies defaults, validates it and returns it.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	// CITYBUS_SERVER__PORT -> server.port
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	// Observability starts from defaults so a partial override (e.g. only
	// the log level) keeps the remaining values.
	mainConfig := &Config{Observability: DefaultObservabilityConfig()}
	// Decoding into a non-empty slice keeps its trailing elements, so list
	// defaults are applied after unmarshal instead.
	mainConfig.Observability.HealthChecks.Checks = nil
	if err := k.UnmarshalWithConf("", mainConfig, unmarshalConf(mainConfig)); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	applyDefaults(mainConfig)

	validate := validator.New()
	if err := validate.Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Service name is fixed; environment always follows primary.env so logs
	// and traces are tagged consistently.
	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

// unmarshalConf splits comma separated values into slices
// (CORS_ALLOWED_ORIGINS=a,b) and parses durations ("30s").
func unmarshalConf(out any) koanf.UnmarshalConf {
	return koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			Result:           out,
			TagName:          "koanf",
			WeaklyTypedInput: true,
		},
	}
}

// applyDefaults fills optional values left empty by the environment.
func applyDefaults(cfg *Config) {
	if cfg.Server.RateLimit.Rate == 0 {
		cfg.Server.RateLimit.Rate = 1
	}
	if cfg.Server.RateLimit.Burst == 0 {
		cfg.Server.RateLimit.Burst = 5
	}
	if cfg.Server.RateLimit.ExpiresIn == 0 {
		cfg.Server.RateLimit.ExpiresIn = 3 * time.Minute
	}

	if cfg.Auth.AccessTokenTTL == 0 {
		cfg.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if cfg.Auth.RefreshTokenTTL == 0 {
		cfg.Auth.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if cfg.Auth.OTPTTL == 0 {
		cfg.Auth.OTPTTL = 5 * time.Minute
	}
	if cfg.Auth.OTPLength == 0 {
		cfg.Auth.OTPLength = 6
	}
	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = 10
	}

	if cfg.Integration.EmailFrom == "" {
		cfg.Integration.EmailFrom = "CityBus <onboarding@resend.dev>"
	}

	if cfg.Observability != nil && cfg.Observability.HealthChecks.Checks == nil {
		cfg.Observability.HealthChecks.Checks = DefaultObservabilityConfig().HealthChecks.Checks
	}

	if cfg.Import.SourceURL == "" {
		cfg.Import.SourceURL = DefaultProvinceSourceURL
	}
	if cfg.Import.Concurrency == 0 {
		cfg.Import.Concurrency = 10
	}
	if cfg.Import.FetchTimeout == 0 {
		cfg.Import.FetchTimeout = 30 * time.Second
	}
}

// IsLocal reports whether the service runs on a developer machine.
func (c *Config) IsLocal() bool {
	return c.Primary.Env == "local"
}
